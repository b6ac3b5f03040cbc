package seeding

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
)

// SourceMath is the built-in source backing Rand().
const SourceMath = "math"

// Func applies a seed to one randomness source.
type Func func(seed int64)

// UnknownSourceError reports source names that no registered Func covers.
type UnknownSourceError struct {
	Names []string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("randomness sources put up for seeding not covered: %s", strings.Join(e.Names, ", "))
}

var (
	mu      sync.Mutex
	sources = map[string]Func{}

	randMu   sync.Mutex
	mathRand = rand.New(rand.NewSource(0))
)

func init() {
	Register(SourceMath, func(seed int64) {
		randMu.Lock()
		defer randMu.Unlock()
		mathRand = rand.New(rand.NewSource(seed))
	})
}

// Register adds (or replaces) a named randomness source. Runner packages
// register their own sources at init time, mirroring how the runner
// factory itself is registered.
func Register(name string, fn Func) {
	mu.Lock()
	defer mu.Unlock()
	sources[name] = fn
}

// Apply seeds every requested source. If any requested name is
// unregistered, no source is seeded and an UnknownSourceError naming every
// uncovered source is returned.
func Apply(seed int64, names []string) error {
	mu.Lock()
	defer mu.Unlock()

	var unknown []string
	for _, name := range names {
		if _, ok := sources[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &UnknownSourceError{Names: unknown}
	}

	for _, name := range names {
		sources[name](seed)
	}
	return nil
}

// Rand returns the shared seeded generator behind the "math" source.
// Runners draw from it instead of the unseeded global generator.
func Rand() *rand.Rand {
	randMu.Lock()
	defer randMu.Unlock()
	return mathRand
}
