package variant

import (
	"fmt"
	"path"
	"strconv"
)

// Mode names the dispatch strategy an expansion feeds. It is validated
// before any directory is created.
type Mode string

const (
	// ModeSingle runs exactly one variant in the calling process.
	ModeSingle Mode = "single"
	// ModeSerial runs every variant in order in the calling process.
	ModeSerial Mode = "serial"
	// ModeParallel runs every variant in its own OS process.
	ModeParallel Mode = "parallel"
	// ModeCluster submits every variant to an external batch scheduler.
	ModeCluster Mode = "cluster"
)

// SeedPath is the config property path a resolved seed is written to, and
// the path of the seed override appended to expanded change records.
const SeedPath = "seed"

// SingleName is the variant name (and directory segment) used when there
// is nothing to vary along an axis.
const SingleName = "single"

// ModeError reports an unrecognized run-mode keyword. It is a fatal
// configuration error, raised before any expansion side effect.
type ModeError struct {
	Mode string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("run mode %q not recognised (want single, serial, parallel or cluster)", e.Mode)
}

// DuplicateVariantError reports two variants that would share a checkpoint
// directory, which would break write disjointness between runs.
type DuplicateVariantError struct {
	Dir string
}

func (e *DuplicateVariantError) Error() string {
	return fmt.Sprintf("duplicate variant directory %q: (name, seed) pairs must be unique within one expansion", e.Dir)
}

// VariationError reports a multi-run mode invoked with nothing to vary.
type VariationError struct {
	Mode Mode
}

func (e *VariationError) Error() string {
	return fmt.Sprintf("run mode %q with multiple sub-runs requires config changes or seeds", e.Mode)
}

// ParseMode validates a run-mode keyword.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSingle, ModeSerial, ModeParallel, ModeCluster:
		return Mode(s), nil
	default:
		return "", &ModeError{Mode: s}
	}
}

// Expand produces the ordered variant list for one experiment.
//
// Modes and tie-breaks:
//   - single: exactly one variant named "single", no ops, no seed; any
//     change-sets or seeds supplied are not expanded in this mode.
//   - multi, changes only: one variant per named set, nested under a
//     "single" seed segment.
//   - multi, seeds only: one variant per seed, named by the seed, with the
//     seed override as its only change op.
//   - multi, both: cartesian product, set name outer, seed inner, seed
//     appended as the final change op.
//
// The seed override always lands last in the record, so it wins over any
// earlier override of the same property.
func Expand(mode Mode, sets []NamedChanges, seeds []int64) ([]Variant, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	if mode == ModeSingle {
		return []Variant{{Name: SingleName, Dir: SingleName}}, nil
	}

	var variants []Variant
	switch {
	case len(sets) > 0 && len(seeds) > 0:
		for _, set := range sets {
			for _, seed := range seeds {
				seed := seed
				ops := make(ChangeRecord, 0, len(set.Ops)+1)
				ops = append(ops, set.Ops...)
				ops = append(ops, ChangeOp{Path: SeedPath, Value: seed})
				variants = append(variants, Variant{
					Name: set.Name,
					Seed: &seed,
					Ops:  ops,
					Dir:  path.Join(set.Name, strconv.FormatInt(seed, 10)),
				})
			}
		}
	case len(sets) > 0:
		for _, set := range sets {
			ops := make(ChangeRecord, len(set.Ops))
			copy(ops, set.Ops)
			variants = append(variants, Variant{
				Name: set.Name,
				Ops:  ops,
				Dir:  path.Join(set.Name, SingleName),
			})
		}
	case len(seeds) > 0:
		for _, seed := range seeds {
			seed := seed
			name := strconv.FormatInt(seed, 10)
			variants = append(variants, Variant{
				Name: name,
				Seed: &seed,
				Ops:  ChangeRecord{{Path: SeedPath, Value: seed}},
				Dir:  name,
			})
		}
	default:
		return nil, &VariationError{Mode: mode}
	}

	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if _, dup := seen[v.Dir]; dup {
			return nil, &DuplicateVariantError{Dir: v.Dir}
		}
		seen[v.Dir] = struct{}{}
	}

	return variants, nil
}
