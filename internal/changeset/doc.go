// Package changeset loads the pre-expansion change-set specification: an
// ordered mapping of run names to lists of config override operations.
//
// Specifications are written in CUE (preferred; expressions, comments and
// references all work) or plain JSON. Declaration order is preserved in
// both formats because it determines variant ordering and directory
// layout readability.
package changeset
