package v1alpha1

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentStatus is the overall outcome of an assessment run.
type AssessmentStatus string

const (
	AssessmentStatusRunning            AssessmentStatus = "running"
	AssessmentStatusCompleted          AssessmentStatus = "completed"
	AssessmentStatusPartiallyCompleted AssessmentStatus = "partially_completed"
	AssessmentStatusFailed             AssessmentStatus = "failed"
)

// AssessmentForm is the request body for submitting a new assessment.
type AssessmentForm struct {
	URL          string `json:"url" validate:"required,website_url"`
	BusinessName string `json:"business_name,omitempty" validate:"omitempty,business_name"`
	Address      string `json:"address,omitempty" validate:"omitempty,max=255"`
	City         string `json:"city,omitempty" validate:"omitempty,max=100"`
	State        string `json:"state,omitempty" validate:"omitempty,us_state"`
	// Async requests return 202 with the assessment id; the caller polls the
	// progress endpoint. Sync requests block until the run resolves.
	Async bool `json:"async,omitempty"`
}

// StageResult is one resolved pipeline stage of an assessment.
type StageResult struct {
	Stage        string          `json:"stage"`
	Status       string          `json:"status"`
	Payload      map[string]any  `json:"payload,omitempty"`
	ErrorKind    *string         `json:"error_kind,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	Attempts     int             `json:"attempts"`
	DurationMs   int64           `json:"duration_ms"`
	CostIncurred float64         `json:"cost_incurred"`
}

// Assessment is the full API representation of one assessment run.
type Assessment struct {
	ID            uuid.UUID        `json:"id"`
	URL           string           `json:"url"`
	BusinessName  string           `json:"business_name,omitempty"`
	Address       string           `json:"address,omitempty"`
	City          string           `json:"city,omitempty"`
	State         string           `json:"state,omitempty"`
	OverallStatus AssessmentStatus `json:"overall_status"`
	OverallScore  *float64         `json:"overall_score,omitempty"`
	TotalCost     float64          `json:"total_cost"`
	StartedAt     time.Time        `json:"started_at"`
	FinishedAt    *time.Time       `json:"finished_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	Results       []StageResult    `json:"results"`
	Metrics       map[string]any   `json:"metrics,omitempty"`
	Screenshots   []Screenshot     `json:"screenshots,omitempty"`
}

// AssessmentList is the paged list representation.
type AssessmentList struct {
	Items []Assessment `json:"items"`
	Total int          `json:"total"`
}

// Screenshot describes a stored screenshot artifact. The image bytes are
// addressed by bucket/key; they are never inlined in API responses.
type Screenshot struct {
	ID                uuid.UUID `json:"id"`
	ScreenshotType    string    `json:"screenshot_type"`
	ViewportWidth     int       `json:"viewport_width"`
	ViewportHeight    int       `json:"viewport_height"`
	DeviceScaleFactor float64   `json:"device_scale_factor"`
	StorageBucket     string    `json:"storage_bucket,omitempty"`
	StorageKey        string    `json:"storage_key,omitempty"`
	ByteSize          int64     `json:"byte_size"`
	Format            string    `json:"format,omitempty"`
	CaptureDurationMs float64   `json:"capture_duration_ms"`
	ErrorMessage      *string   `json:"error_message,omitempty"`
}

// StageProgress is the per-stage entry of a progress snapshot.
type StageProgress struct {
	Stage    string `json:"stage"`
	Status   string `json:"status"`
	Required bool   `json:"required"`
}

// AssessmentProgress is a point-in-time snapshot of an in-flight run.
type AssessmentProgress struct {
	AssessmentID  uuid.UUID        `json:"assessment_id"`
	OverallStatus AssessmentStatus `json:"overall_status"`
	Resolved      int              `json:"resolved"`
	Total         int              `json:"total"`
	Fraction      float64          `json:"fraction"`
	Stages        []StageProgress  `json:"stages"`
}

// MetricsDocument is the fixed 53-key decomposed metrics view, grouped by
// category. Missing data is a null value, never a missing key.
type MetricsDocument struct {
	AssessmentID uuid.UUID                 `json:"assessment_id"`
	Categories   map[string]map[string]any `json:"categories"`
}

// Error is the uniform error response body.
type Error struct {
	Message string `json:"message"`
}
