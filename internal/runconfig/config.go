package runconfig

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sweep/internal/variant"
)

// Well-known property paths. Optional ones carry the documented default
// applied (and written back) during bootstrap.
const (
	KeySeed           = "seed"            // default 0
	KeyGPUID          = "gpu_id"          // default: unset, no device requested
	KeyXLabel         = "x_label"         // default "X"
	KeySmoothing      = "smoothing"       // default 1
	KeyUsingGPU       = "using_gpu"       // runtime-derived
	KeyDevice         = "experiment_device" // runtime-derived
	KeyCheckpointPath = "checkpoint_path" // runtime-derived
	KeyLogfilePath    = "logfile_path"    // runtime-derived
)

// PathError reports a property path that cannot be set because an
// intermediate segment holds a non-mapping value.
type PathError struct {
	Path    string
	Segment string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("property path %q: segment %q is not a mapping", e.Path, e.Segment)
}

// Config is one run's property bag.
type Config struct {
	doc map[string]any
}

// Load reads the base YAML config and applies the change record in list
// order; later operations override earlier ones on the same path.
func Load(path string, changes variant.ChangeRecord) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	doc := map[string]any{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := &Config{doc: doc}
	for _, op := range changes {
		if err := cfg.Set(op.Path, op.Value); err != nil {
			return nil, fmt.Errorf("apply change record: %w", err)
		}
	}
	return cfg, nil
}

// New returns an empty config. Used by tests and by runners constructed
// without a base file.
func New() *Config {
	return &Config{doc: map[string]any{}}
}

// Get resolves a dotted property path. The second return reports presence.
func (c *Config) Get(path string) (any, bool) {
	segments := strings.Split(path, ".")
	current := any(c.doc)
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Set writes a value at a dotted property path, creating intermediate
// mappings as needed. Setting through an existing non-mapping value is an
// error: silently clobbering a scalar with a subtree would hide typos in
// change records.
func (c *Config) Set(path string, value any) error {
	segments := strings.Split(path, ".")
	m := c.doc
	for _, seg := range segments[:len(segments)-1] {
		next, ok := m[seg]
		if !ok {
			child := map[string]any{}
			m[seg] = child
			m = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return &PathError{Path: path, Segment: seg}
		}
		m = child
	}
	m[segments[len(segments)-1]] = value
	return nil
}

// Save persists the fully-resolved snapshot. Written once per run into the
// checkpoint directory as durable proof of exactly what ran.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c.doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config snapshot: %w", err)
	}
	return nil
}

// Seed returns the configured seed, reporting presence explicitly.
func (c *Config) Seed() (int64, bool) {
	return c.intAt(KeySeed)
}

// GPUID returns the requested GPU id, reporting presence explicitly.
func (c *Config) GPUID() (int64, bool) {
	return c.intAt(KeyGPUID)
}

// StringAt returns the string value at path, if present and a string.
func (c *Config) StringAt(path string) (string, bool) {
	v, ok := c.Get(path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c *Config) intAt(path string) (int64, bool) {
	v, ok := c.Get(path)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// Equal reports whether two configs hold the same properties, ignoring the
// given paths. Used to verify bootstrap determinism up to path-valued
// fields.
func (c *Config) Equal(other *Config, ignore ...string) bool {
	a := clone(c.doc)
	b := clone(other.doc)
	for _, path := range ignore {
		deletePath(a, path)
		deletePath(b, path)
	}
	aBytes, errA := yaml.Marshal(a)
	bBytes, errB := yaml.Marshal(b)
	return errA == nil && errB == nil && string(aBytes) == string(bBytes)
}

func clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if child, ok := v.(map[string]any); ok {
			out[k] = clone(child)
			continue
		}
		out[k] = v
	}
	return out
}

func deletePath(m map[string]any, path string) {
	segments := strings.Split(path, ".")
	for _, seg := range segments[:len(segments)-1] {
		child, ok := m[seg].(map[string]any)
		if !ok {
			return
		}
		m = child
	}
	delete(m, segments[len(segments)-1])
}
