package mappers

import (
	"encoding/json"

	"github.com/google/uuid"

	api "github.com/sitegrader/sitegrader/api/v1alpha1"
	"github.com/sitegrader/sitegrader/internal/decompose"
	"github.com/sitegrader/sitegrader/internal/pipeline"
	"github.com/sitegrader/sitegrader/internal/store/model"
)

// AssessmentToModel converts a finished execution plus its decomposed metrics
// into the persistence graph. Screenshot rows are attached separately by the
// artifact gateway, after the blobs land in object storage.
func AssessmentToModel(exec *pipeline.AssessmentExecution, metrics decompose.Metrics) model.Assessment {
	assessment := model.Assessment{
		ID:            exec.ID,
		URL:           exec.Input.URL,
		BusinessName:  exec.Input.BusinessName,
		Address:       exec.Input.Address,
		City:          exec.Input.City,
		State:         exec.Input.State,
		OverallStatus: string(exec.OverallStatus),
		OverallScore:  exec.OverallScore,
		TotalCost:     exec.TotalCost,
		StartedAt:     exec.StartedAt,
		FinishedAt:    exec.FinishedAt,
		Results:       make([]model.StageResult, 0, len(exec.Results)),
	}

	for i, res := range exec.Results {
		row := model.StageResult{
			AssessmentID: exec.ID,
			Stage:        string(res.Stage),
			Position:     i,
			Status:       string(res.Status),
			Payload:      res.Payload,
			Attempts:     res.Attempts,
			DurationMs:   res.Duration.Milliseconds(),
			CostIncurred: res.CostIncurred,
		}
		if res.Error != nil {
			kind := string(res.Error.Kind)
			message := res.Error.Message
			row.ErrorKind = &kind
			row.ErrorMessage = &message
		}
		assessment.Results = append(assessment.Results, row)
	}

	values := make(map[string]any, len(metrics))
	for label, value := range metrics {
		values[string(label)] = value
	}
	assessment.Metrics = &model.MetricsRecord{
		AssessmentID: exec.ID,
		Values:       model.MakeJSONField(values),
	}

	return assessment
}

// AssessmentToApi converts a persisted assessment into its API shape.
func AssessmentToApi(m *model.Assessment) api.Assessment {
	out := api.Assessment{
		ID:            m.ID,
		URL:           m.URL,
		BusinessName:  m.BusinessName,
		Address:       m.Address,
		City:          m.City,
		State:         m.State,
		OverallStatus: api.StringToAssessmentStatus(m.OverallStatus),
		OverallScore:  m.OverallScore,
		TotalCost:     m.TotalCost,
		StartedAt:     m.StartedAt,
		FinishedAt:    m.FinishedAt,
		CreatedAt:     m.CreatedAt,
		Results:       make([]api.StageResult, 0, len(m.Results)),
	}

	for _, res := range m.Results {
		row := api.StageResult{
			Stage:        res.Stage,
			Status:       res.Status,
			ErrorKind:    res.ErrorKind,
			ErrorMessage: res.ErrorMessage,
			Attempts:     res.Attempts,
			DurationMs:   res.DurationMs,
			CostIncurred: res.CostIncurred,
		}
		if len(res.Payload) > 0 {
			var payload map[string]any
			if err := json.Unmarshal(res.Payload, &payload); err == nil {
				row.Payload = payload
			}
		}
		out.Results = append(out.Results, row)
	}

	if m.Metrics != nil && m.Metrics.Values != nil {
		out.Metrics = m.Metrics.Values.Data
	}

	for i := range m.Screenshots {
		out.Screenshots = append(out.Screenshots, ScreenshotToApi(&m.Screenshots[i]))
	}

	return out
}

func AssessmentListToApi(assessments model.AssessmentList) api.AssessmentList {
	items := make([]api.Assessment, 0, len(assessments))
	for i := range assessments {
		items = append(items, AssessmentToApi(&assessments[i]))
	}
	return api.AssessmentList{Items: items, Total: len(items)}
}

func ScreenshotToApi(s *model.Screenshot) api.Screenshot {
	return api.Screenshot{
		ID:                s.ID,
		ScreenshotType:    s.ScreenshotType,
		ViewportWidth:     s.ViewportWidth,
		ViewportHeight:    s.ViewportHeight,
		DeviceScaleFactor: s.DeviceScaleFactor,
		StorageBucket:     s.StorageBucket,
		StorageKey:        s.StorageKey,
		ByteSize:          s.ByteSize,
		Format:            s.Format,
		CaptureDurationMs: s.CaptureDurationMs,
		ErrorMessage:      s.ErrorMessage,
	}
}

// ProgressToApi converts an in-flight progress snapshot.
func ProgressToApi(p pipeline.Progress) api.AssessmentProgress {
	out := api.AssessmentProgress{
		AssessmentID:  p.AssessmentID,
		OverallStatus: api.StringToAssessmentStatus(string(p.OverallStatus)),
		Resolved:      p.Resolved,
		Total:         p.Total,
		Fraction:      p.Fraction,
		Stages:        make([]api.StageProgress, 0, len(p.Stages)),
	}
	for _, s := range p.Stages {
		out.Stages = append(out.Stages, api.StageProgress{
			Stage:    string(s.Stage),
			Status:   string(s.Status),
			Required: s.Required,
		})
	}
	return out
}

// MetricsToApi groups the flat metrics document by category for the API.
func MetricsToApi(assessmentID uuid.UUID, values map[string]any) api.MetricsDocument {
	doc := api.MetricsDocument{
		AssessmentID: assessmentID,
		Categories:   make(map[string]map[string]any, len(decompose.Categories())),
	}
	for _, category := range decompose.Categories() {
		group := make(map[string]any)
		for _, label := range decompose.CategoryLabels(category) {
			if v, ok := values[string(label)]; ok {
				group[string(label)] = v
			} else {
				group[string(label)] = nil
			}
		}
		doc.Categories[string(category)] = group
	}
	return doc
}
