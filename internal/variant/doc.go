// Package variant defines the unit of experiment expansion: a named
// combination of config change operations and an optional seed, plus the
// durable change-record serialization and the content-addressed run id
// derived from it.
//
// Expansion turns a change-set specification and/or a seed list into an
// ordered, collision-free list of variants. The (relative) checkpoint
// directory of each variant is fixed at expansion time, so two runs never
// write into the same tree by construction.
package variant
