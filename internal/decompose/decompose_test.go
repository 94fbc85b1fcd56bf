package decompose_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitegrader/sitegrader/internal/decompose"
	"github.com/sitegrader/sitegrader/internal/pipeline"
)

func execWithResults(results ...pipeline.ComponentResult) *pipeline.AssessmentExecution {
	return &pipeline.AssessmentExecution{ID: uuid.New(), Results: results}
}

func succeededStage(t *testing.T, kind pipeline.StageKind, payload any) pipeline.ComponentResult {
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return pipeline.ComponentResult{Stage: kind, Status: pipeline.StageSucceeded, Payload: raw}
}

func TestLabelContract(t *testing.T) {
	labels := decompose.AllLabels()
	require.Len(t, labels, 53)

	seen := make(map[decompose.Label]bool, len(labels))
	for _, label := range labels {
		require.False(t, seen[label], "label %q listed twice", label)
		seen[label] = true
	}

	categories := decompose.Categories()
	require.Len(t, categories, 7)

	total := 0
	for _, category := range categories {
		members := decompose.CategoryLabels(category)
		require.NotEmpty(t, members, string(category))
		total += len(members)
	}
	require.Equal(t, 53, total)
}

func TestDecomposeEmptyExecutionKeepsEveryKey(t *testing.T) {
	metrics := decompose.Decompose(execWithResults())

	require.Len(t, metrics, 53)
	for _, label := range decompose.AllLabels() {
		value, ok := metrics[label]
		require.True(t, ok, string(label))
		assert.Nil(t, value, string(label))
	}
}

func TestDecomposeIgnoresFailedStages(t *testing.T) {
	raw, err := json.Marshal(map[string]any{"score": 91.0})
	require.NoError(t, err)

	metrics := decompose.Decompose(execWithResults(pipeline.ComponentResult{
		Stage:   pipeline.StagePageSpeed,
		Status:  pipeline.StageFailed,
		Payload: raw,
	}))

	assert.Nil(t, metrics[decompose.LabelPerformanceScore])
}

func TestDecomposeExtractsStageValues(t *testing.T) {
	exec := execWithResults(
		succeededStage(t, pipeline.StagePageSpeed, map[string]any{
			"score":                     78.0,
			"first_contentful_paint_ms": 1250.0,
			"cumulative_layout_shift":   0.04,
		}),
		succeededStage(t, pipeline.StageSecurity, map[string]any{
			"https_enforced": true,
			"hsts":           false,
			"score":          66.0,
		}),
		succeededStage(t, pipeline.StageBusinessProfile, map[string]any{
			"rating":       4.5,
			"review_count": 132.0,
			"categories":   []string{"Plumber", "Contractor"},
			"claimed":      true,
		}),
		succeededStage(t, pipeline.StageScreenshot, map[string]any{
			"desktop_captured": true,
			"mobile_captured":  false,
		}),
		succeededStage(t, pipeline.StageDomainAuthority, map[string]any{
			"domain_authority": 42.0,
			"domain_age_years": 7.0,
		}),
		succeededStage(t, pipeline.StageVisualCritique, map[string]any{
			"visual_appeal": 81.0,
			"typography":    74.0,
		}),
		succeededStage(t, pipeline.StageScoreAggregation, map[string]any{
			"overall_score": 72.5,
		}),
		succeededStage(t, pipeline.StageContentGeneration, map[string]any{
			"summary":                  "solid site",
			"readability":              68.0,
			"meta_description_present": true,
		}),
	)

	metrics := decompose.Decompose(exec)

	require.Len(t, metrics, 53)
	assert.Equal(t, 78.0, metrics[decompose.LabelPerformanceScore])
	assert.Equal(t, 1250.0, metrics[decompose.LabelFirstContentfulPaint])
	assert.Equal(t, 0.04, metrics[decompose.LabelCumulativeLayoutShift])
	assert.Equal(t, true, metrics[decompose.LabelHTTPSEnforced])
	assert.Equal(t, false, metrics[decompose.LabelHSTSHeader])
	assert.Equal(t, 66.0, metrics[decompose.LabelSecurityScore])
	assert.Equal(t, 4.5, metrics[decompose.LabelRating])
	assert.Equal(t, 132.0, metrics[decompose.LabelReviewCount])
	assert.Equal(t, "Plumber, Contractor", metrics[decompose.LabelCategories])
	assert.Equal(t, true, metrics[decompose.LabelProfileClaimed])
	assert.Equal(t, true, metrics[decompose.LabelDesktopScreenshotCaptured])
	assert.Equal(t, false, metrics[decompose.LabelMobileScreenshotCaptured])
	assert.Equal(t, 42.0, metrics[decompose.LabelDomainAuthority])
	assert.Equal(t, 7.0, metrics[decompose.LabelDomainAge])
	assert.Equal(t, 81.0, metrics[decompose.LabelVisualAppealScore])
	assert.Equal(t, 74.0, metrics[decompose.LabelTypographyQuality])
	assert.Equal(t, 72.5, metrics[decompose.LabelOverallScore])
	assert.Equal(t, 68.0, metrics[decompose.LabelReadability])
	assert.Equal(t, true, metrics[decompose.LabelMetaDescriptionPresent])

	// Fields the payloads omitted stay null, they are never fabricated.
	assert.Nil(t, metrics[decompose.LabelSpeedIndex])
	assert.Nil(t, metrics[decompose.LabelBusinessNameMatch])
	assert.Nil(t, metrics[decompose.LabelSpamScore])
	assert.Nil(t, metrics[decompose.LabelContentQualityScore])
}

func TestDecomposeIsDeterministic(t *testing.T) {
	exec := execWithResults(
		succeededStage(t, pipeline.StagePageSpeed, map[string]any{"score": 55.0}),
	)

	first := decompose.Decompose(exec)
	second := decompose.Decompose(exec)

	require.Equal(t, first, second)

	// Mutating one result must not leak into the other.
	first[decompose.LabelPerformanceScore] = 99.0
	assert.Equal(t, 55.0, second[decompose.LabelPerformanceScore])
}

func TestDecomposeTreatsMalformedPayloadAsMissing(t *testing.T) {
	metrics := decompose.Decompose(execWithResults(pipeline.ComponentResult{
		Stage:   pipeline.StagePageSpeed,
		Status:  pipeline.StageSucceeded,
		Payload: json.RawMessage(`{"score": "not a number"}`),
	}))

	assert.Nil(t, metrics[decompose.LabelPerformanceScore])
}
