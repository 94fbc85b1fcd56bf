package types

import (
	"github.com/sitegrader/sitegrader/internal/store/model"
)

// ReportRenderer renders one assessment into a downloadable document.
// Renderers return raw bytes so binary formats fit the same interface.
type ReportRenderer interface {
	Render(data *ReportData) ([]byte, error)
	SupportedFormat() ReportFormat
	ContentType() string
}

type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatXLSX ReportFormat = "xlsx"
)

type ReportOptions struct {
	Format ReportFormat
	// IncludeStageDetails adds the per-stage outcome table to the document.
	IncludeStageDetails bool
}

// ReportData is the assembled input of one report: the persisted assessment
// and its flat decomposed metrics document.
type ReportData struct {
	Assessment *model.Assessment
	Metrics    map[string]any
	Options    ReportOptions
	Timestamps ReportTimestamps
}

type ReportTimestamps struct {
	Generated     string
	GeneratedTime string
}
