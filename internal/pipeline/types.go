package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StageKind identifies one analysis component of the fixed pipeline.
type StageKind string

const (
	StagePageSpeed         StageKind = "pagespeed"
	StageSecurity          StageKind = "security"
	StageBusinessProfile   StageKind = "business_profile"
	StageScreenshot        StageKind = "screenshot"
	StageDomainAuthority   StageKind = "domain_authority"
	StageVisualCritique    StageKind = "visual_critique"
	StageScoreAggregation  StageKind = "score_aggregation"
	StageContentGeneration StageKind = "content_generation"
)

// StageStatus is the lifecycle status of a single stage within a run.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
	StageTimedOut  StageStatus = "timed_out"
	StageSkipped   StageStatus = "skipped"
)

// RunStatus is the terminal (or in-flight) status of a whole assessment run.
type RunStatus string

const (
	RunRunning            RunStatus = "running"
	RunCompleted          RunStatus = "completed"
	RunPartiallyCompleted RunStatus = "partially_completed"
	RunFailed             RunStatus = "failed"
)

// ErrorKind classifies a stage failure into a stable taxonomy.
type ErrorKind string

const (
	ErrorKindTimeout      ErrorKind = "timeout"
	ErrorKindRateLimited  ErrorKind = "rate_limited"
	ErrorKindUpstream     ErrorKind = "upstream_error"
	ErrorKindInvalidInput ErrorKind = "invalid_input"
	ErrorKindInternal     ErrorKind = "internal_error"
)

// StageError is the classified error recorded in a ComponentResult. It is the
// only error shape that crosses the adapter boundary.
type StageError struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Retryable bool      `json:"-"`
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewStageError(kind ErrorKind, retryable bool, format string, args ...any) *StageError {
	return &StageError{Kind: kind, Message: fmt.Sprintf(format, args...), Retryable: retryable}
}

func NewTimeoutError(stage StageKind, timeout time.Duration) *StageError {
	return NewStageError(ErrorKindTimeout, true, "stage %s exceeded deadline of %s", stage, timeout)
}

func NewRateLimitedError(message string) *StageError {
	return NewStageError(ErrorKindRateLimited, false, "%s", message)
}

func NewUpstreamError(retryable bool, format string, args ...any) *StageError {
	return NewStageError(ErrorKindUpstream, retryable, format, args...)
}

func NewInvalidInputError(format string, args ...any) *StageError {
	return NewStageError(ErrorKindInvalidInput, false, format, args...)
}

func NewInternalError(format string, args ...any) *StageError {
	return NewStageError(ErrorKindInternal, false, format, args...)
}

// BackoffPolicy tunes the delay between retry attempts.
type BackoffPolicy struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	// Jitter is the fraction of the computed delay randomized in both
	// directions, e.g. 0.5 yields delays in [0.5d, 1.5d].
	Jitter float64
}

// StageSpec is the static, declarative configuration of one stage. The
// orchestrator consults the spec table instead of hard-coded branching.
type StageSpec struct {
	Kind       StageKind
	Order      int
	Timeout    time.Duration
	MaxRetries int
	Backoff    BackoffPolicy
	// UnitCost is billed for every attempt that reaches the external
	// boundary, including failed ones.
	UnitCost float64
	Required bool
	// External marks stages that call out of process and therefore consume
	// quota and incur cost. Internal stages compute over prior payloads.
	External bool
	// DependsOn lists stages whose payload must be present in the input
	// projection. An unmet dependency marks this stage skipped.
	DependsOn []StageKind
	// ScoreWeight is this stage's weight in the aggregated overall score.
	// Zero excludes the stage from aggregation.
	ScoreWeight float64
}

// Submission is the caller-provided input snapshot for one run.
type Submission struct {
	URL          string `json:"url"`
	BusinessName string `json:"business_name,omitempty"`
	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
}

// Input is the projection handed to an adapter: the submission plus the
// payloads of every earlier succeeded stage.
type Input struct {
	Submission
	Prior map[StageKind]json.RawMessage
}

// ComponentResult is the uniform outcome record of one stage. It is finalized
// exactly once and never mutated afterwards.
type ComponentResult struct {
	Stage        StageKind       `json:"stage"`
	Status       StageStatus     `json:"status"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Error        *StageError     `json:"error,omitempty"`
	Attempts     int             `json:"attempts"`
	Duration     time.Duration   `json:"duration"`
	CostIncurred float64         `json:"cost_incurred"`
}

// AssessmentExecution is the aggregate record of one run: one result slot per
// stage, in stage order, regardless of failures.
type AssessmentExecution struct {
	ID            uuid.UUID         `json:"id"`
	Input         Submission        `json:"input"`
	Results       []ComponentResult `json:"results"`
	OverallStatus RunStatus         `json:"overall_status"`
	OverallScore  *float64          `json:"overall_score,omitempty"`
	TotalCost     float64           `json:"total_cost"`
	StartedAt     time.Time         `json:"started_at"`
	FinishedAt    *time.Time        `json:"finished_at,omitempty"`
}

// Result returns the result slot for the given stage, or nil.
func (e *AssessmentExecution) Result(kind StageKind) *ComponentResult {
	for i := range e.Results {
		if e.Results[i].Stage == kind {
			return &e.Results[i]
		}
	}
	return nil
}

// Payload returns the payload of the given stage if it succeeded.
func (e *AssessmentExecution) Payload(kind StageKind) json.RawMessage {
	if r := e.Result(kind); r != nil && r.Status == StageSucceeded {
		return r.Payload
	}
	return nil
}

// StageProgress is one entry of the read-only progress view.
type StageProgress struct {
	Stage    StageKind   `json:"stage"`
	Status   StageStatus `json:"status"`
	Required bool        `json:"required"`
}

// Progress is a point-in-time, read-only view of a run usable for polling.
type Progress struct {
	AssessmentID  uuid.UUID       `json:"assessment_id"`
	OverallStatus RunStatus       `json:"overall_status"`
	Resolved      int             `json:"resolved"`
	Total         int             `json:"total"`
	Fraction      float64         `json:"fraction"`
	Stages        []StageProgress `json:"stages"`
}
