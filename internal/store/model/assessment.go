package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Assessment is the durable record of one assessment run, with one stage
// result row per pipeline stage and a single decomposed-metrics document.
type Assessment struct {
	ID            uuid.UUID `gorm:"primaryKey;type:VARCHAR(255);"`
	CreatedAt     time.Time `gorm:"not null;default:now()"`
	URL           string    `gorm:"not null;index:assessments_url_idx"`
	BusinessName  string
	Address       string
	City          string
	State         string    `gorm:"type:VARCHAR(10)"`
	OverallStatus string    `gorm:"not null;type:VARCHAR(50);index:assessments_status_idx"`
	OverallScore  *float64
	TotalCost     float64
	StartedAt     time.Time
	FinishedAt    *time.Time
	Results       []StageResult  `gorm:"foreignKey:AssessmentID;references:ID;constraint:OnDelete:CASCADE;"`
	Metrics       *MetricsRecord `gorm:"foreignKey:AssessmentID;references:ID;constraint:OnDelete:CASCADE;"`
	Screenshots   []Screenshot   `gorm:"foreignKey:AssessmentID;references:ID;constraint:OnDelete:CASCADE;"`
}

// StageResult is one finalized component result. Rows are insertion-ordered
// by Position, which mirrors the stage order of the run.
type StageResult struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	AssessmentID uuid.UUID `gorm:"not null;type:VARCHAR(255);index:stage_results_assessment_idx"`
	Stage        string    `gorm:"not null;type:VARCHAR(100)"`
	Position     int       `gorm:"not null"`
	Status       string    `gorm:"not null;type:VARCHAR(50)"`
	Payload      []byte    `gorm:"type:jsonb"`
	ErrorKind    *string   `gorm:"type:VARCHAR(50)"`
	ErrorMessage *string
	Attempts     int
	DurationMs   int64
	CostIncurred float64
}

// MetricsRecord is the fixed-schema 53-key metrics document of one run.
type MetricsRecord struct {
	ID           uint                       `gorm:"primaryKey;autoIncrement"`
	CreatedAt    time.Time                  `gorm:"not null;default:now()"`
	AssessmentID uuid.UUID                  `gorm:"not null;uniqueIndex;type:VARCHAR(255)"`
	Values       *JSONField[map[string]any] `gorm:"type:jsonb;not null"`
}

type AssessmentList []Assessment

func (a Assessment) String() string {
	val, _ := json.Marshal(a)
	return string(val)
}
