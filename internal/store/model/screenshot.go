package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Screenshot is one captured artifact. The image bytes live in object
// storage; the row keeps the bucket/key location. Artifacts are append-only
// once written.
type Screenshot struct {
	ID                uuid.UUID `gorm:"primaryKey;type:VARCHAR(255);"`
	CreatedAt         time.Time `gorm:"not null;default:now()"`
	AssessmentID      uuid.UUID `gorm:"not null;type:VARCHAR(255);index:screenshots_assessment_idx"`
	ScreenshotType    string    `gorm:"not null;type:VARCHAR(20)"`
	ViewportWidth     int
	ViewportHeight    int
	DeviceScaleFactor float64
	StorageBucket     string
	StorageKey        string
	ByteSize          int64
	Format            string `gorm:"type:VARCHAR(10)"`
	CaptureDurationMs float64
	ErrorMessage      *string
	Metadata          *JSONField[map[string]any] `gorm:"type:jsonb"`
	Annotations       []ScreenshotAnnotation     `gorm:"foreignKey:ScreenshotID;references:ID;constraint:OnDelete:CASCADE;"`
}

// ScreenshotAnnotation is one detected element on a screenshot.
type ScreenshotAnnotation struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	ScreenshotID uuid.UUID `gorm:"not null;type:VARCHAR(255);index:screenshot_annotations_screenshot_idx"`
	Label        string    `gorm:"not null;type:VARCHAR(100)"`
	Confidence   float64
	X            int
	Y            int
	Width        int
	Height       int
}

// ScreenshotComparison relates two screenshots with a similarity score and a
// structured diff. Deleting either screenshot cascades to the comparison.
type ScreenshotComparison struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt  time.Time `gorm:"not null;default:now()"`
	BaseID     uuid.UUID `gorm:"not null;type:VARCHAR(255);index:screenshot_comparisons_base_idx;constraint:OnDelete:CASCADE;"`
	TargetID   uuid.UUID `gorm:"not null;type:VARCHAR(255);index:screenshot_comparisons_target_idx;constraint:OnDelete:CASCADE;"`
	Similarity float64
	Diff       *JSONField[map[string]any] `gorm:"type:jsonb"`
}

type ScreenshotList []Screenshot

func (s Screenshot) String() string {
	val, _ := json.Marshal(s)
	return string(val)
}
