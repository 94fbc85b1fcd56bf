package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"

	"github.com/sitegrader/sitegrader/pkg/metrics"
)

// Orchestrator drives the fixed, ordered stage list end-to-end. It owns the
// AssessmentExecution for the lifetime of one run: one result slot per stage,
// finalized in stage order regardless of outcome.
type Orchestrator struct {
	specs    []StageSpec
	adapters map[StageKind]Adapter
	runner   *Runner
}

// NewOrchestrator validates the spec table and the adapter set. A malformed
// table or a missing adapter is a fatal configuration error.
func NewOrchestrator(specs []StageSpec, adapters []Adapter, runner *Runner) (*Orchestrator, error) {
	if err := ValidateSpecs(specs); err != nil {
		return nil, fmt.Errorf("invalid stage spec table: %w", err)
	}

	byKind := make(map[StageKind]Adapter, len(adapters))
	for _, a := range adapters {
		if _, dup := byKind[a.Kind()]; dup {
			return nil, fmt.Errorf("duplicate adapter for stage %s", a.Kind())
		}
		byKind[a.Kind()] = a
	}

	ordered := make([]StageSpec, len(specs))
	copy(ordered, specs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	for _, spec := range ordered {
		if _, ok := byKind[spec.Kind]; !ok {
			return nil, fmt.Errorf("no adapter registered for stage %s", spec.Kind)
		}
	}

	return &Orchestrator{specs: ordered, adapters: byKind, runner: runner}, nil
}

// Specs returns a copy of the stage table in execution order.
func (o *Orchestrator) Specs() []StageSpec {
	specs := make([]StageSpec, len(o.specs))
	copy(specs, o.specs)
	return specs
}

// Run is one in-flight assessment. The execution is mutated only by Execute;
// Progress may be polled concurrently.
type Run struct {
	mu       sync.RWMutex
	exec     *AssessmentExecution
	required map[StageKind]bool
	resolved int
}

// NewRun creates the execution record with one pending slot per stage.
func (o *Orchestrator) NewRun(sub Submission) *Run {
	exec := &AssessmentExecution{
		ID:            uuid.New(),
		Input:         sub,
		Results:       make([]ComponentResult, len(o.specs)),
		OverallStatus: RunRunning,
		StartedAt:     time.Now().UTC(),
	}
	required := make(map[StageKind]bool, len(o.specs))
	for i, spec := range o.specs {
		exec.Results[i] = ComponentResult{Stage: spec.Kind, Status: StagePending}
		required[spec.Kind] = spec.Required
	}
	return &Run{exec: exec, required: required}
}

// Execute runs every stage in declared order. No stage failure aborts the
// run; a stage whose dependency payload is absent is skipped without being
// invoked. On cancellation the in-flight stage is finalized by the runner and
// all remaining stages resolve as skipped.
func (o *Orchestrator) Execute(ctx context.Context, run *Run) *AssessmentExecution {
	logger := zap.S().Named("orchestrator").With("assessment_id", run.exec.ID)
	logger.Infow("starting assessment run", "url", run.exec.Input.URL, "stages", len(o.specs))

	prior := make(map[StageKind]json.RawMessage, len(o.specs))

	for i, spec := range o.specs {
		if ctx.Err() != nil {
			run.finalize(i, ComponentResult{Stage: spec.Kind, Status: StageSkipped})
			continue
		}

		if unmet := o.unmetDependency(spec, prior); unmet != "" {
			logger.Infow("skipping stage, dependency unmet", "stage", spec.Kind, "dependency", unmet)
			run.finalize(i, ComponentResult{Stage: spec.Kind, Status: StageSkipped})
			metrics.ObserveStage(string(spec.Kind), string(StageSkipped), 0)
			continue
		}

		run.markRunning(i)
		result := o.runner.Run(ctx, spec, o.adapters[spec.Kind], Input{Submission: run.exec.Input, Prior: prior})
		if result.Status == StageSucceeded {
			prior[spec.Kind] = result.Payload
		}
		run.finalize(i, result)

		metrics.ObserveStage(string(spec.Kind), string(result.Status), result.Duration)
		metrics.AddBilledCost(result.CostIncurred)
		logger.Infow("stage resolved",
			"stage", spec.Kind,
			"status", result.Status,
			"attempts", result.Attempts,
			"duration", result.Duration,
			"cost", result.CostIncurred,
		)
	}

	exec := run.complete()
	metrics.RecordRun(string(exec.OverallStatus))
	logger.Infow("assessment run finished",
		"status", exec.OverallStatus,
		"total_cost", exec.TotalCost,
		"overall_score", exec.OverallScore,
	)
	return exec
}

func (o *Orchestrator) unmetDependency(spec StageSpec, prior map[StageKind]json.RawMessage) StageKind {
	for _, dep := range spec.DependsOn {
		if _, ok := prior[dep]; !ok {
			return dep
		}
	}
	return ""
}

func (r *Run) markRunning(slot int) {
	r.mu.Lock()
	r.exec.Results[slot].Status = StageRunning
	r.mu.Unlock()
}

func (r *Run) finalize(slot int, result ComponentResult) {
	r.mu.Lock()
	r.exec.Results[slot] = result
	r.resolved++
	r.mu.Unlock()
}

// complete computes the terminal status, the aggregate cost and the overall
// score once every slot is finalized. The execution is frozen afterwards.
func (r *Run) complete() *AssessmentExecution {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.exec.OverallStatus = ComputeOverallStatus(r.exec.Results)
	for _, res := range r.exec.Results {
		r.exec.TotalCost += res.CostIncurred
	}
	if payload := r.exec.Payload(StageScoreAggregation); payload != nil {
		var score struct {
			OverallScore *float64 `json:"overall_score"`
		}
		if err := json.Unmarshal(payload, &score); err == nil {
			r.exec.OverallScore = score.OverallScore
		}
	}
	now := time.Now().UTC()
	r.exec.FinishedAt = &now
	return r.exec
}

// Execution returns the execution record. Safe to use once Execute returned.
func (r *Run) Execution() *AssessmentExecution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.exec
}

// ID returns the assessment id minted for this run.
func (r *Run) ID() uuid.UUID {
	return r.exec.ID
}

// Progress returns a point-in-time snapshot of the run for polling.
func (r *Run) Progress() Progress {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p := Progress{
		AssessmentID:  r.exec.ID,
		OverallStatus: r.exec.OverallStatus,
		Resolved:      r.resolved,
		Total:         len(r.exec.Results),
		Stages:        make([]StageProgress, 0, len(r.exec.Results)),
	}
	if p.Total > 0 {
		p.Fraction = float64(p.Resolved) / float64(p.Total)
	}
	for _, res := range r.exec.Results {
		p.Stages = append(p.Stages, StageProgress{
			Stage:    res.Stage,
			Status:   res.Status,
			Required: r.required[res.Stage],
		})
	}
	return p
}

// ComputeOverallStatus applies the fixed success-ratio thresholds. It is a
// pure function of the per-stage statuses; a required stage's failure weighs
// the same as any other.
func ComputeOverallStatus(results []ComponentResult) RunStatus {
	if len(results) == 0 {
		return RunFailed
	}
	succeeded := funk.Filter(results, func(r ComponentResult) bool {
		return r.Status == StageSucceeded
	}).([]ComponentResult)

	ratio := float64(len(succeeded)) / float64(len(results))
	switch {
	case ratio >= completedThreshold:
		return RunCompleted
	case ratio >= partialThreshold:
		return RunPartiallyCompleted
	default:
		return RunFailed
	}
}
