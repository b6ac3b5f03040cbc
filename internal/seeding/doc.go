// Package seeding fixes randomness for a run. Randomness sources are
// registered by name; applying a seed to a name that was never registered
// is a fatal configuration error, raised before any run method executes.
// A silently unseeded source would poison reproducibility without any
// visible failure.
package seeding
