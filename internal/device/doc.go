// Package device selects the compute device for one run. Requesting a GPU
// that cannot be found is never an error: the run degrades to CPU with a
// logged notice, and when no acceleration backend exists at all the run
// proceeds with no device recorded.
package device
