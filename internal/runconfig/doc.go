// Package runconfig owns the mutable property bag for exactly one run: the
// base YAML config with a variant's change record applied, plus the
// runtime-derived properties (resolved seed, device flags, checkpoint and
// log paths) that cannot be expressed statically.
//
// Properties are addressed by dotted path ("learner.lr"). Optional
// properties use explicit presence checks with documented defaults rather
// than error-driven fallbacks. A Config is owned by a single bootstrap
// invocation and never shared across processes; re-invocation reloads its
// own copy from the base file and the durable change record.
package runconfig
