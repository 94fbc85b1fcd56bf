package service

import (
	"fmt"
	"time"

	"github.com/sitegrader/sitegrader/internal/service/report/csv"
	"github.com/sitegrader/sitegrader/internal/service/report/types"
	"github.com/sitegrader/sitegrader/internal/service/report/xlsx"
	"github.com/sitegrader/sitegrader/internal/store/model"
)

type ReportRenderer = types.ReportRenderer
type ReportFormat = types.ReportFormat
type ReportOptions = types.ReportOptions
type ReportData = types.ReportData

const (
	ReportFormatCSV  = types.ReportFormatCSV
	ReportFormatXLSX = types.ReportFormatXLSX
)

// ReportService renders a persisted assessment into downloadable documents.
type ReportService struct {
	renderers map[types.ReportFormat]types.ReportRenderer
}

func NewReportService() *ReportService {
	service := &ReportService{
		renderers: make(map[types.ReportFormat]types.ReportRenderer),
	}

	csvRenderer := csv.NewRenderer()
	xlsxRenderer := xlsx.NewRenderer()

	service.renderers[csvRenderer.SupportedFormat()] = csvRenderer
	service.renderers[xlsxRenderer.SupportedFormat()] = xlsxRenderer

	return service
}

// GenerateReport renders the assessment in the requested format and returns
// the document bytes together with their content type.
func (r *ReportService) GenerateReport(assessment *model.Assessment, options types.ReportOptions) ([]byte, string, error) {
	renderer, exists := r.renderers[options.Format]
	if !exists {
		return nil, "", fmt.Errorf("unsupported report format: %s", options.Format)
	}

	var metrics map[string]any
	if assessment.Metrics != nil && assessment.Metrics.Values != nil {
		metrics = assessment.Metrics.Values.Data
	}

	now := time.Now()
	data := &types.ReportData{
		Assessment: assessment,
		Metrics:    metrics,
		Options:    options,
		Timestamps: types.ReportTimestamps{
			Generated:     now.Format("2006-01-02"),
			GeneratedTime: now.Format("15:04:05 MST"),
		},
	}

	document, err := renderer.Render(data)
	if err != nil {
		return nil, "", err
	}
	return document, renderer.ContentType(), nil
}
