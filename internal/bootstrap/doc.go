// Package bootstrap is the single-run engine. Given a registered runner
// name, a base config, a checkpoint path and a change record, it resolves
// the run config (changes applied in order, seed and optional properties
// defaulted and written back), fixes randomness, selects a device, wires
// the isolated run logger, persists the resolved config snapshot, and
// invokes the requested runner methods in order.
//
// Every dispatch strategy funnels through Run, in-process or via the
// `sweep exec` re-invocation entry point.
package bootstrap
