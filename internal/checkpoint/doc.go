// Package checkpoint materializes the output tree for one experiment
// expansion: a timestamped root holding a copy of the base config, the
// full change-set specification for audit, and one directory per variant
// containing its durable change record.
//
// The whole tree is created eagerly, before any compute is spent, so a
// partial expansion failure is visible up front. Directory creation is
// idempotent; every other I/O error is fatal.
package checkpoint
