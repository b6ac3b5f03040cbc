// Package runner defines the capability contract an experiment entity must
// satisfy and the named factory registry used to construct one.
//
// A runner declares its data columns and exposes its invokable methods as
// an explicit name-to-callable mapping; there is no runtime introspection.
// Requesting a name absent from that mapping is the missing-method
// condition, which bootstrap reports and skips.
//
// Factories are registered by name, typically from the registering
// package's init. Out-of-process re-invocation (cluster jobs, parallel
// children) names the registered runner on the command line, and the
// binary, which performed the same registrations, resolves it. This
// replaces loading code from arbitrary file paths at runtime.
package runner
