package runner

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/sweep/internal/runconfig"
)

// Method is one invokable runner capability. Methods take no arguments by
// contract; everything a method needs arrives through the resolved config
// at construction time.
type Method func() error

// Runner is the experiment entity driven by the run modes.
type Runner interface {
	// DataColumns declares the columns of the run's data log.
	DataColumns() []string
	// Methods maps invokable method names to their implementations.
	Methods() map[string]Method
}

// Factory constructs a runner bound to one resolved config and run id.
type Factory func(cfg *runconfig.Config, runID string) (Runner, error)

// NotFoundError reports a runner name with no registered factory.
type NotFoundError struct {
	Name  string
	Known []string
}

func (e *NotFoundError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("runner %q is not registered (no runners registered in this binary)", e.Name)
	}
	return fmt.Sprintf("runner %q is not registered (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// ConstructError reports a factory that failed to build its runner.
type ConstructError struct {
	Name string
	Err  error
}

func (e *ConstructError) Error() string {
	return fmt.Sprintf("constructing runner %q: %v", e.Name, e.Err)
}

func (e *ConstructError) Unwrap() error {
	return e.Err
}

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register adds a named runner factory. Registering the same name twice
// panics: two runners silently shadowing each other would make cluster
// re-invocation ambiguous.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[name]; dup {
		panic(fmt.Sprintf("runner %q registered twice", name))
	}
	factories[name] = factory
}

// New resolves a registered factory and constructs its runner.
func New(name string, cfg *runconfig.Config, runID string) (Runner, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{Name: name, Known: Names()}
	}

	r, err := factory(cfg, runID)
	if err != nil {
		return nil, &ConstructError{Name: name, Err: err}
	}
	return r, nil
}

// Names lists registered runner names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
