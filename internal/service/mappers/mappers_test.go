package mappers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/sitegrader/sitegrader/api/v1alpha1"
	"github.com/sitegrader/sitegrader/internal/decompose"
	"github.com/sitegrader/sitegrader/internal/pipeline"
)

func TestSubmissionFromApi(t *testing.T) {
	form := api.AssessmentForm{
		URL:          "https://example.com",
		BusinessName: "Acme Plumbing",
		City:         "Springfield",
		State:        "IL",
	}

	sub := SubmissionFromApi(&form)

	assert.Equal(t, "https://example.com", sub.URL)
	assert.Equal(t, "Acme Plumbing", sub.BusinessName)
	assert.Equal(t, "Springfield", sub.City)
	assert.Equal(t, "IL", sub.State)
}

func TestAssessmentToModel(t *testing.T) {
	score := 70.0
	now := time.Now().UTC()
	finished := now.Add(time.Minute)

	exec := &pipeline.AssessmentExecution{
		ID:            uuid.New(),
		Input:         pipeline.Submission{URL: "https://example.com", BusinessName: "Acme"},
		OverallStatus: pipeline.RunPartiallyCompleted,
		OverallScore:  &score,
		TotalCost:     0.08,
		StartedAt:     now,
		FinishedAt:    &finished,
		Results: []pipeline.ComponentResult{
			{Stage: pipeline.StagePageSpeed, Status: pipeline.StageSucceeded, Payload: json.RawMessage(`{"score":70}`), Attempts: 1, Duration: 1200 * time.Millisecond},
			{Stage: pipeline.StageSecurity, Status: pipeline.StageFailed, Error: pipeline.NewUpstreamError(true, "gateway down"), Attempts: 3, Duration: 900 * time.Millisecond},
		},
	}
	metrics := decompose.Decompose(exec)

	m := AssessmentToModel(exec, metrics)

	assert.Equal(t, exec.ID, m.ID)
	assert.Equal(t, "partially_completed", m.OverallStatus)
	require.Len(t, m.Results, 2)

	assert.Equal(t, 0, m.Results[0].Position)
	assert.Equal(t, int64(1200), m.Results[0].DurationMs)
	assert.Nil(t, m.Results[0].ErrorKind)

	assert.Equal(t, 1, m.Results[1].Position)
	require.NotNil(t, m.Results[1].ErrorKind)
	assert.Equal(t, "upstream_error", *m.Results[1].ErrorKind)
	require.NotNil(t, m.Results[1].ErrorMessage)
	assert.Equal(t, "gateway down", *m.Results[1].ErrorMessage)

	require.NotNil(t, m.Metrics)
	require.NotNil(t, m.Metrics.Values)
	assert.Len(t, m.Metrics.Values.Data, 53)
	assert.Equal(t, 70.0, m.Metrics.Values.Data["Performance Score"])
	assert.Nil(t, m.Metrics.Values.Data["Security Score"])
}

func TestAssessmentRoundTripToApi(t *testing.T) {
	exec := &pipeline.AssessmentExecution{
		ID:            uuid.New(),
		Input:         pipeline.Submission{URL: "https://example.com"},
		OverallStatus: pipeline.RunCompleted,
		Results: []pipeline.ComponentResult{
			{Stage: pipeline.StagePageSpeed, Status: pipeline.StageSucceeded, Payload: json.RawMessage(`{"score":70}`), Attempts: 1},
		},
	}
	m := AssessmentToModel(exec, decompose.Decompose(exec))

	out := AssessmentToApi(&m)

	assert.Equal(t, exec.ID, out.ID)
	assert.Equal(t, api.AssessmentStatusCompleted, out.OverallStatus)
	require.Len(t, out.Results, 1)
	assert.Equal(t, map[string]any{"score": 70.0}, out.Results[0].Payload)
	assert.Len(t, out.Metrics, 53)
}

func TestProgressToApi(t *testing.T) {
	id := uuid.New()
	progress := pipeline.Progress{
		AssessmentID:  id,
		OverallStatus: pipeline.RunRunning,
		Resolved:      3,
		Total:         8,
		Fraction:      0.375,
		Stages: []pipeline.StageProgress{
			{Stage: pipeline.StagePageSpeed, Status: pipeline.StageSucceeded, Required: true},
			{Stage: pipeline.StageScreenshot, Status: pipeline.StageRunning, Required: false},
		},
	}

	out := ProgressToApi(progress)

	assert.Equal(t, id, out.AssessmentID)
	assert.Equal(t, 3, out.Resolved)
	require.Len(t, out.Stages, 2)
	assert.True(t, out.Stages[0].Required)
	assert.Equal(t, "running", out.Stages[1].Status)
}

func TestMetricsToApiKeepsEveryLabel(t *testing.T) {
	id := uuid.New()

	doc := MetricsToApi(id, map[string]any{"Performance Score": 70.0})

	require.Len(t, doc.Categories, 7)
	total := 0
	for _, group := range doc.Categories {
		total += len(group)
	}
	assert.Equal(t, 53, total)

	assert.Equal(t, 70.0, doc.Categories["PageSpeed"]["Performance Score"])
	group, ok := doc.Categories["Domain Authority"]
	require.True(t, ok)
	value, present := group["Spam Score"]
	assert.True(t, present)
	assert.Nil(t, value)
}
