package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sitegrader/sitegrader/internal/pipeline"
)

// scoreAggregator computes the weighted overall score from the succeeded
// analysis stages. It runs in-process and costs nothing.
type scoreAggregator struct {
	weights map[pipeline.StageKind]float64
}

// NewScoreAggregator reads the score weights from the stage spec table so
// adding or reweighting a stage never touches this code.
func NewScoreAggregator(specs []pipeline.StageSpec) pipeline.Adapter {
	weights := make(map[pipeline.StageKind]float64, len(specs))
	for _, spec := range specs {
		if spec.ScoreWeight > 0 {
			weights[spec.Kind] = spec.ScoreWeight
		}
	}
	return &scoreAggregator{weights: weights}
}

func (a *scoreAggregator) Kind() pipeline.StageKind { return pipeline.StageScoreAggregation }

func (a *scoreAggregator) Run(_ context.Context, in pipeline.Input) (any, error) {
	scores := make(map[string]float64)

	if p, ok := decodePrior[PageSpeedPayload](in, pipeline.StagePageSpeed); ok && p.Score != nil {
		scores[string(pipeline.StagePageSpeed)] = *p.Score
	}
	if p, ok := decodePrior[SecurityPayload](in, pipeline.StageSecurity); ok && p.Score != nil {
		scores[string(pipeline.StageSecurity)] = *p.Score
	}
	if p, ok := decodePrior[BusinessProfilePayload](in, pipeline.StageBusinessProfile); ok && p.Rating != nil {
		// Ratings come in on a 5-point scale.
		scores[string(pipeline.StageBusinessProfile)] = *p.Rating / 5 * 100
	}
	if p, ok := decodePrior[DomainAuthorityPayload](in, pipeline.StageDomainAuthority); ok && p.DomainAuthority != nil {
		scores[string(pipeline.StageDomainAuthority)] = *p.DomainAuthority
	}
	if p, ok := decodePrior[VisualCritiquePayload](in, pipeline.StageVisualCritique); ok {
		if critique, found := meanCritique(p); found {
			scores[string(pipeline.StageVisualCritique)] = critique
		}
	}

	if len(scores) == 0 {
		return nil, pipeline.NewInvalidInputError("no succeeded analysis stage produced a score")
	}

	var weighted, totalWeight float64
	for kind, weight := range a.weights {
		score, ok := scores[string(kind)]
		if !ok {
			continue
		}
		weighted += score * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return nil, pipeline.NewInvalidInputError("no weighted stage produced a score")
	}

	overall := weighted / totalWeight
	return &ScorePayload{OverallScore: &overall, CategoryScores: scores}, nil
}

func meanCritique(p *VisualCritiquePayload) (float64, bool) {
	fields := []*float64{
		p.VisualAppeal, p.LayoutQuality, p.ColorHarmony, p.Typography,
		p.WhitespaceUsage, p.BrandingConsistency, p.CTAVisibility,
		p.NavigationClarity, p.MobileFriendliness, p.ImageQuality,
		p.TrustSignals, p.ModernDesign, p.Accessibility,
	}
	var sum float64
	var n int
	for _, f := range fields {
		if f != nil {
			sum += *f
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// contentGenerator writes a human-readable summary and recommendations from
// the aggregated scores. It depends on the score-aggregation payload.
type contentGenerator struct{}

func (a *contentGenerator) Kind() pipeline.StageKind { return pipeline.StageContentGeneration }

func (a *contentGenerator) Run(_ context.Context, in pipeline.Input) (any, error) {
	score, ok := decodePrior[ScorePayload](in, pipeline.StageScoreAggregation)
	if !ok || score.OverallScore == nil {
		return nil, pipeline.NewInvalidInputError("content generation requires the aggregated score")
	}

	subject := in.BusinessName
	if subject == "" {
		subject = in.URL
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s scored %.0f out of 100 overall.", subject, *score.OverallScore)
	for _, kind := range []pipeline.StageKind{
		pipeline.StagePageSpeed, pipeline.StageSecurity, pipeline.StageBusinessProfile,
		pipeline.StageDomainAuthority, pipeline.StageVisualCritique,
	} {
		if v, found := score.CategoryScores[string(kind)]; found {
			fmt.Fprintf(&b, " The %s assessment came in at %.0f.", categoryName(kind), v)
		}
	}
	summary := b.String()

	payload := ContentPayload{
		Summary:         summary,
		Recommendations: recommendations(score.CategoryScores),
	}

	words := float64(len(strings.Fields(summary)))
	payload.WordCount = &words

	readability := readabilityScore(summary)
	payload.Readability = &readability

	quality := (*score.OverallScore + readability) / 2
	payload.ContentQualityScore = &quality

	if in.BusinessName != "" {
		relevance := 50.0
		if strings.Contains(strings.ToLower(summary), strings.ToLower(in.BusinessName)) {
			relevance = 100.0
		}
		payload.KeywordRelevance = &relevance
	}

	if seo, ok := decodePrior[DomainAuthorityPayload](in, pipeline.StageDomainAuthority); ok {
		payload.MetaDescriptionPresent = seo.MetaDescriptionPresent
		if seo.TitleTag != nil {
			headline := headlineQuality(*seo.TitleTag)
			payload.HeadlineQuality = &headline
		}
	}

	return &payload, nil
}

func recommendations(categoryScores map[string]float64) []string {
	advice := map[pipeline.StageKind]string{
		pipeline.StagePageSpeed:       "Reduce page weight and defer non-critical scripts to improve load times.",
		pipeline.StageSecurity:        "Enforce HTTPS and add the missing security headers.",
		pipeline.StageBusinessProfile: "Claim and complete the business profile listing.",
		pipeline.StageDomainAuthority: "Build quality backlinks and fix on-page SEO basics.",
		pipeline.StageVisualCritique:  "Modernize the visual design and clarify the primary call to action.",
	}

	var recs []string
	for _, kind := range []pipeline.StageKind{
		pipeline.StagePageSpeed, pipeline.StageSecurity, pipeline.StageBusinessProfile,
		pipeline.StageDomainAuthority, pipeline.StageVisualCritique,
	} {
		if v, ok := categoryScores[string(kind)]; ok && v < 60 {
			recs = append(recs, advice[kind])
		}
	}
	return recs
}

// readabilityScore is a crude sentence-length heuristic on a 0-100 scale.
func readabilityScore(text string) float64 {
	sentences := strings.Count(text, ".")
	if sentences == 0 {
		sentences = 1
	}
	wordsPerSentence := float64(len(strings.Fields(text))) / float64(sentences)
	score := 100 - wordsPerSentence*2.5
	if score < 0 {
		return 0
	}
	return score
}

// headlineQuality scores a title tag by its length; 50-60 characters is the
// usual search-snippet sweet spot.
func headlineQuality(title string) float64 {
	n := len(title)
	switch {
	case n == 0:
		return 0
	case n >= 50 && n <= 60:
		return 100
	case n >= 30 && n < 50:
		return 80
	case n > 60 && n <= 80:
		return 70
	default:
		return 40
	}
}

func categoryName(kind pipeline.StageKind) string {
	switch kind {
	case pipeline.StagePageSpeed:
		return "performance"
	case pipeline.StageSecurity:
		return "security"
	case pipeline.StageBusinessProfile:
		return "business profile"
	case pipeline.StageDomainAuthority:
		return "domain authority"
	case pipeline.StageVisualCritique:
		return "visual design"
	default:
		return string(kind)
	}
}

// decodePrior decodes an earlier stage's payload from the input projection.
func decodePrior[T any](in pipeline.Input, kind pipeline.StageKind) (*T, bool) {
	raw, ok := in.Prior[kind]
	if !ok {
		return nil, false
	}
	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false
	}
	return &payload, true
}
