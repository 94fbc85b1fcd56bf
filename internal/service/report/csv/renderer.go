package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/sitegrader/sitegrader/internal/decompose"
	"github.com/sitegrader/sitegrader/internal/service/report/types"
	"github.com/sitegrader/sitegrader/internal/store/model"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) SupportedFormat() types.ReportFormat {
	return types.ReportFormatCSV
}

func (r *Renderer) ContentType() string {
	return "text/csv"
}

func (r *Renderer) Render(data *types.ReportData) ([]byte, error) {
	var csvRows [][]string

	csvRows = append(csvRows, []string{"WEBSITE ASSESSMENT REPORT"})
	csvRows = append(csvRows, []string{fmt.Sprintf("Generated: %s at %s",
		data.Timestamps.Generated, data.Timestamps.GeneratedTime)})
	csvRows = append(csvRows, []string{""})

	csvRows = r.addSummary(csvRows, data.Assessment)

	if data.Options.IncludeStageDetails {
		csvRows = r.addStageOutcomes(csvRows, data.Assessment.Results)
	}

	csvRows = r.addMetricsByCategory(csvRows, data.Metrics)

	return r.convertRowsToCSV(csvRows)
}

func (r *Renderer) addSummary(csvRows [][]string, assessment *model.Assessment) [][]string {
	csvRows = append(csvRows, []string{"SUMMARY"})
	csvRows = append(csvRows, []string{""})
	csvRows = append(csvRows, []string{"Field", "Value"})

	csvRows = append(csvRows, []string{"URL", assessment.URL})
	if assessment.BusinessName != "" {
		csvRows = append(csvRows, []string{"Business Name", assessment.BusinessName})
	}
	csvRows = append(csvRows, []string{"Overall Status", assessment.OverallStatus})
	score := "N/A"
	if assessment.OverallScore != nil {
		score = fmt.Sprintf("%.1f", *assessment.OverallScore)
	}
	csvRows = append(csvRows, []string{"Overall Score", score})
	csvRows = append(csvRows, []string{"Total Cost", fmt.Sprintf("$%.3f", assessment.TotalCost)})
	csvRows = append(csvRows, []string{"Started At", assessment.StartedAt.Format(time.RFC3339)})
	if assessment.FinishedAt != nil {
		csvRows = append(csvRows, []string{"Finished At", assessment.FinishedAt.Format(time.RFC3339)})
	}
	csvRows = append(csvRows, []string{""})

	return csvRows
}

func (r *Renderer) addStageOutcomes(csvRows [][]string, results []model.StageResult) [][]string {
	csvRows = append(csvRows, []string{"STAGE OUTCOMES"})
	csvRows = append(csvRows, []string{""})
	csvRows = append(csvRows, []string{"Stage", "Status", "Attempts", "Duration (ms)", "Cost", "Error"})

	for _, res := range results {
		errText := ""
		if res.ErrorMessage != nil {
			errText = *res.ErrorMessage
		}
		csvRows = append(csvRows, []string{
			res.Stage,
			res.Status,
			fmt.Sprintf("%d", res.Attempts),
			fmt.Sprintf("%d", res.DurationMs),
			fmt.Sprintf("$%.3f", res.CostIncurred),
			errText,
		})
	}
	csvRows = append(csvRows, []string{""})

	return csvRows
}

func (r *Renderer) addMetricsByCategory(csvRows [][]string, metrics map[string]any) [][]string {
	for _, category := range decompose.Categories() {
		csvRows = append(csvRows, []string{string(category)})
		csvRows = append(csvRows, []string{""})
		csvRows = append(csvRows, []string{"Metric", "Value"})

		for _, label := range decompose.CategoryLabels(category) {
			csvRows = append(csvRows, []string{string(label), FormatValue(metrics[string(label)])})
		}
		csvRows = append(csvRows, []string{""})
	}

	return csvRows
}

// FormatValue renders one metric value for display. Missing data renders as
// N/A, never as an empty cell.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "N/A"
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%.2f", val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (r *Renderer) convertRowsToCSV(csvRows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	for _, row := range csvRows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	return buf.Bytes(), nil
}
