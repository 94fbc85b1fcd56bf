package xlsx

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sitegrader/sitegrader/internal/decompose"
	"github.com/sitegrader/sitegrader/internal/service/report/csv"
	"github.com/sitegrader/sitegrader/internal/service/report/types"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) SupportedFormat() types.ReportFormat {
	return types.ReportFormatXLSX
}

func (r *Renderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (r *Renderer) Render(data *types.ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := r.writeSummarySheet(f, data); err != nil {
		return nil, err
	}
	if err := r.writeMetricsSheet(f, data); err != nil {
		return nil, err
	}
	if data.Options.IncludeStageDetails {
		if err := r.writeStagesSheet(f, data); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) writeSummarySheet(f *excelize.File, data *types.ReportData) error {
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	assessment := data.Assessment
	rows := [][]any{
		{"Website Assessment Report"},
		{fmt.Sprintf("Generated: %s at %s", data.Timestamps.Generated, data.Timestamps.GeneratedTime)},
		{},
		{"URL", assessment.URL},
		{"Business Name", assessment.BusinessName},
		{"Overall Status", assessment.OverallStatus},
		{"Overall Score", scoreCell(assessment.OverallScore)},
		{"Total Cost", fmt.Sprintf("$%.3f", assessment.TotalCost)},
		{"Started At", assessment.StartedAt.Format(time.RFC3339)},
	}
	if assessment.FinishedAt != nil {
		rows = append(rows, []any{"Finished At", assessment.FinishedAt.Format(time.RFC3339)})
	}

	return writeRows(f, sheet, rows)
}

func (r *Renderer) writeMetricsSheet(f *excelize.File, data *types.ReportData) error {
	const sheet = "Metrics"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]any{{"Category", "Metric", "Value"}}
	for _, category := range decompose.Categories() {
		for _, label := range decompose.CategoryLabels(category) {
			rows = append(rows, []any{
				string(category),
				string(label),
				csv.FormatValue(data.Metrics[string(label)]),
			})
		}
	}

	return writeRows(f, sheet, rows)
}

func (r *Renderer) writeStagesSheet(f *excelize.File, data *types.ReportData) error {
	const sheet = "Stages"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]any{{"Stage", "Status", "Attempts", "Duration (ms)", "Cost", "Error"}}
	for _, res := range data.Assessment.Results {
		errText := ""
		if res.ErrorMessage != nil {
			errText = *res.ErrorMessage
		}
		rows = append(rows, []any{
			res.Stage, res.Status, res.Attempts, res.DurationMs,
			fmt.Sprintf("$%.3f", res.CostIncurred), errText,
		})
	}

	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func scoreCell(score *float64) any {
	if score == nil {
		return "N/A"
	}
	return *score
}
