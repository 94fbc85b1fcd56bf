package pipeline

import (
	"fmt"
	"sort"
	"time"
)

// Status thresholds applied to the success ratio once all stages resolved.
const (
	completedThreshold = 0.8
	partialThreshold   = 0.5
)

var defaultBackoff = BackoffPolicy{
	Initial:    250 * time.Millisecond,
	Max:        10 * time.Second,
	Multiplier: 2.0,
	Jitter:     0.5,
}

// DefaultSpecs returns the declarative table for the fixed 8-stage pipeline.
// Order is the execution order; dependency edges name the payloads a stage
// consumes. Defined once at process start.
func DefaultSpecs() []StageSpec {
	return []StageSpec{
		{
			Kind:        StagePageSpeed,
			Order:       0,
			Timeout:     60 * time.Second,
			MaxRetries:  2,
			Backoff:     defaultBackoff,
			UnitCost:    0.0,
			Required:    true,
			External:    true,
			ScoreWeight: 0.25,
		},
		{
			Kind:        StageSecurity,
			Order:       1,
			Timeout:     15 * time.Second,
			MaxRetries:  2,
			Backoff:     defaultBackoff,
			UnitCost:    0.0,
			Required:    true,
			External:    true,
			ScoreWeight: 0.20,
		},
		{
			Kind:        StageBusinessProfile,
			Order:       2,
			Timeout:     20 * time.Second,
			MaxRetries:  1,
			Backoff:     defaultBackoff,
			UnitCost:    0.017,
			Required:    false,
			External:    true,
			ScoreWeight: 0.15,
		},
		{
			Kind:       StageScreenshot,
			Order:      3,
			Timeout:    90 * time.Second,
			MaxRetries: 1,
			Backoff:    defaultBackoff,
			UnitCost:   0.003,
			Required:   false,
			External:   true,
		},
		{
			Kind:        StageDomainAuthority,
			Order:       4,
			Timeout:     30 * time.Second,
			MaxRetries:  1,
			Backoff:     defaultBackoff,
			UnitCost:    0.01,
			Required:    false,
			External:    true,
			ScoreWeight: 0.15,
		},
		{
			Kind:        StageVisualCritique,
			Order:       5,
			Timeout:     120 * time.Second,
			MaxRetries:  1,
			Backoff:     defaultBackoff,
			UnitCost:    0.05,
			Required:    false,
			External:    true,
			DependsOn:   []StageKind{StageScreenshot},
			ScoreWeight: 0.25,
		},
		{
			Kind:       StageScoreAggregation,
			Order:      6,
			Timeout:    5 * time.Second,
			MaxRetries: 0,
			Backoff:    defaultBackoff,
			Required:   true,
		},
		{
			Kind:       StageContentGeneration,
			Order:      7,
			Timeout:    10 * time.Second,
			MaxRetries: 0,
			Backoff:    defaultBackoff,
			DependsOn:  []StageKind{StageScoreAggregation},
		},
	}
}

// ValidateSpecs checks the spec table invariants: unique kinds, contiguous
// order starting at zero, and dependencies pointing at earlier stages. A
// malformed table is a fatal configuration error, not a per-run condition.
func ValidateSpecs(specs []StageSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("stage spec table is empty")
	}

	ordered := make([]StageSpec, len(specs))
	copy(ordered, specs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	seen := make(map[StageKind]int, len(ordered))
	for i, spec := range ordered {
		if spec.Order != i {
			return fmt.Errorf("stage %s: order %d is not contiguous", spec.Kind, spec.Order)
		}
		if _, dup := seen[spec.Kind]; dup {
			return fmt.Errorf("stage %s declared twice", spec.Kind)
		}
		seen[spec.Kind] = i

		for _, dep := range spec.DependsOn {
			pos, ok := seen[dep]
			if !ok {
				return fmt.Errorf("stage %s depends on %s which is not an earlier stage", spec.Kind, dep)
			}
			if pos >= i {
				return fmt.Errorf("stage %s depends on %s which does not precede it", spec.Kind, dep)
			}
		}
	}
	return nil
}
