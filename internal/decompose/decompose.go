package decompose

import (
	"encoding/json"
	"strings"

	"github.com/sitegrader/sitegrader/internal/pipeline"
	"github.com/sitegrader/sitegrader/internal/stages"
)

// Metrics is the flat 53-key view of one assessment. Every label is always
// present; missing data is a nil value, never a missing key. A fresh map is
// produced on every decomposition.
type Metrics map[Label]any

// payloadSet holds the decoded payloads of the succeeded stages. A stage that
// did not succeed, or whose payload failed to decode, stays nil and every
// label it owns resolves to null.
type payloadSet struct {
	pageSpeed       *stages.PageSpeedPayload
	security        *stages.SecurityPayload
	businessProfile *stages.BusinessProfilePayload
	screenshot      *stages.ScreenshotPayload
	domainAuthority *stages.DomainAuthorityPayload
	visualCritique  *stages.VisualCritiquePayload
	score           *stages.ScorePayload
	content         *stages.ContentPayload
}

// extractor reads one label's value out of its owning stage's payload.
type extractor func(s *payloadSet) any

// registry keys every label to its extraction rule. Each stage's shape
// knowledge stays local to its own extractors, so the 53-label contract is
// independently testable per stage.
var registry = map[Label]extractor{
	// PageSpeed
	LabelPerformanceScore:       func(s *payloadSet) any { return fnum(pget(s.pageSpeed, func(p *stages.PageSpeedPayload) *float64 { return p.Score })) },
	LabelFirstContentfulPaint:   func(s *payloadSet) any { return fnum(pget(s.pageSpeed, func(p *stages.PageSpeedPayload) *float64 { return p.FirstContentfulPaintMs })) },
	LabelLargestContentfulPaint: func(s *payloadSet) any { return fnum(pget(s.pageSpeed, func(p *stages.PageSpeedPayload) *float64 { return p.LargestContentfulPaintMs })) },
	LabelTotalBlockingTime:      func(s *payloadSet) any { return fnum(pget(s.pageSpeed, func(p *stages.PageSpeedPayload) *float64 { return p.TotalBlockingTimeMs })) },
	LabelCumulativeLayoutShift:  func(s *payloadSet) any { return fnum(pget(s.pageSpeed, func(p *stages.PageSpeedPayload) *float64 { return p.CumulativeLayoutShift })) },
	LabelSpeedIndex:             func(s *payloadSet) any { return fnum(pget(s.pageSpeed, func(p *stages.PageSpeedPayload) *float64 { return p.SpeedIndexMs })) },
	LabelTimeToInteractive:      func(s *payloadSet) any { return fnum(pget(s.pageSpeed, func(p *stages.PageSpeedPayload) *float64 { return p.TimeToInteractiveMs })) },

	// Technical/Security
	LabelHTTPSEnforced:         func(s *payloadSet) any { return fbool(bget(s.security, func(p *stages.SecurityPayload) *bool { return p.HTTPSEnforced })) },
	LabelHSTSHeader:            func(s *payloadSet) any { return fbool(bget(s.security, func(p *stages.SecurityPayload) *bool { return p.HSTS })) },
	LabelContentSecurityPolicy: func(s *payloadSet) any { return fbool(bget(s.security, func(p *stages.SecurityPayload) *bool { return p.ContentSecurityPolicy })) },
	LabelXFrameOptions:         func(s *payloadSet) any { return fbool(bget(s.security, func(p *stages.SecurityPayload) *bool { return p.XFrameOptions })) },
	LabelXContentTypeOptions:   func(s *payloadSet) any { return fbool(bget(s.security, func(p *stages.SecurityPayload) *bool { return p.XContentTypeOptions })) },
	LabelReferrerPolicy:        func(s *payloadSet) any { return fbool(bget(s.security, func(p *stages.SecurityPayload) *bool { return p.ReferrerPolicy })) },
	LabelPermissionsPolicy:     func(s *payloadSet) any { return fbool(bget(s.security, func(p *stages.SecurityPayload) *bool { return p.PermissionsPolicy })) },
	LabelSSLCertificateValid:   func(s *payloadSet) any { return fbool(bget(s.security, func(p *stages.SecurityPayload) *bool { return p.CertificateValid })) },
	LabelSecurityScore:         func(s *payloadSet) any { return fnum(pget(s.security, func(p *stages.SecurityPayload) *float64 { return p.Score })) },

	// Business Profile
	LabelBusinessNameMatch: func(s *payloadSet) any { return fbool(bget(s.businessProfile, func(p *stages.BusinessProfilePayload) *bool { return p.NameMatch })) },
	LabelRating:            func(s *payloadSet) any { return fnum(pget(s.businessProfile, func(p *stages.BusinessProfilePayload) *float64 { return p.Rating })) },
	LabelReviewCount:       func(s *payloadSet) any { return fnum(pget(s.businessProfile, func(p *stages.BusinessProfilePayload) *float64 { return p.ReviewCount })) },
	LabelAddressListed:     func(s *payloadSet) any { return fbool(bget(s.businessProfile, func(p *stages.BusinessProfilePayload) *bool { return p.AddressListed })) },
	LabelPhoneListed:       func(s *payloadSet) any { return fbool(bget(s.businessProfile, func(p *stages.BusinessProfilePayload) *bool { return p.PhoneListed })) },
	LabelWebsiteListed:     func(s *payloadSet) any { return fbool(bget(s.businessProfile, func(p *stages.BusinessProfilePayload) *bool { return p.WebsiteListed })) },
	LabelHoursListed:       func(s *payloadSet) any { return fbool(bget(s.businessProfile, func(p *stages.BusinessProfilePayload) *bool { return p.HoursListed })) },
	LabelCategories: func(s *payloadSet) any {
		if s.businessProfile == nil || len(s.businessProfile.Categories) == 0 {
			return nil
		}
		return strings.Join(s.businessProfile.Categories, ", ")
	},
	LabelProfileClaimed: func(s *payloadSet) any { return fbool(bget(s.businessProfile, func(p *stages.BusinessProfilePayload) *bool { return p.Claimed })) },

	// Screenshot/Visual
	LabelDesktopScreenshotCaptured: func(s *payloadSet) any { return fbool(bget(s.screenshot, func(p *stages.ScreenshotPayload) *bool { return p.DesktopCaptured })) },
	LabelMobileScreenshotCaptured:  func(s *payloadSet) any { return fbool(bget(s.screenshot, func(p *stages.ScreenshotPayload) *bool { return p.MobileCaptured })) },

	// Domain Authority
	LabelDomainAuthority: func(s *payloadSet) any { return fnum(pget(s.domainAuthority, func(p *stages.DomainAuthorityPayload) *float64 { return p.DomainAuthority })) },
	LabelPageAuthority:   func(s *payloadSet) any { return fnum(pget(s.domainAuthority, func(p *stages.DomainAuthorityPayload) *float64 { return p.PageAuthority })) },
	LabelSpamScore:       func(s *payloadSet) any { return fnum(pget(s.domainAuthority, func(p *stages.DomainAuthorityPayload) *float64 { return p.SpamScore })) },
	LabelLinkingDomains:  func(s *payloadSet) any { return fnum(pget(s.domainAuthority, func(p *stages.DomainAuthorityPayload) *float64 { return p.LinkingDomains })) },
	LabelTotalBacklinks:  func(s *payloadSet) any { return fnum(pget(s.domainAuthority, func(p *stages.DomainAuthorityPayload) *float64 { return p.TotalBacklinks })) },
	LabelDomainAge:       func(s *payloadSet) any { return fnum(pget(s.domainAuthority, func(p *stages.DomainAuthorityPayload) *float64 { return p.DomainAgeYears })) },

	// Visual Critique
	LabelVisualAppealScore:       func(s *payloadSet) any { return fnum(pget(s.visualCritique, func(p *stages.VisualCritiquePayload) *float64 { return p.VisualAppeal })) },
	LabelLayoutQuality:           func(s *payloadSet) any { return fnum(pget(s.visualCritique, func(p *stages.VisualCritiquePayload) *float64 { return p.LayoutQuality })) },
	LabelColorHarmony:            func(s *payloadSet) any { return fnum(pget(s.visualCritique, func(p *stages.VisualCritiquePayload) *float64 { return p.ColorHarmony })) },
	LabelTypographyQuality:       func(s *payloadSet) any { return fnum(pget(s.visualCritique, func(p *stages.VisualCritiquePayload) *float64 { return p.Typography })) },
	LabelWhitespaceUsage:         func(s *payloadSet) any { return fnum(pget(s.visualCritique, func(p *stages.VisualCritiquePayload) *float64 { return p.WhitespaceUsage })) },
	LabelBrandingConsistency:     func(s *payloadSet) any { return fnum(pget(s.visualCritique, func(p *stages.VisualCritiquePayload) *float64 { return p.BrandingConsistency })) },
	LabelCTAVisibility:           func(s *payloadSet) any { return fnum(pget(s.visualCritique, func(p *stages.VisualCritiquePayload) *float64 { return p.CTAVisibility })) },
	LabelNavigationClarity:       func(s *payloadSet) any { return fnum(pget(s.visualCritique, func(p *stages.VisualCritiquePayload) *float64 { return p.NavigationClarity })) },
	LabelMobileFriendliness:      func(s *payloadSet) any { return fnum(pget(s.visualCritique, func(p *stages.VisualCritiquePayload) *float64 { return p.MobileFriendliness })) },
	LabelImageQuality:            func(s *payloadSet) any { return fnum(pget(s.visualCritique, func(p *stages.VisualCritiquePayload) *float64 { return p.ImageQuality })) },
	LabelTrustSignals:            func(s *payloadSet) any { return fnum(pget(s.visualCritique, func(p *stages.VisualCritiquePayload) *float64 { return p.TrustSignals })) },
	LabelModernDesignScore:       func(s *payloadSet) any { return fnum(pget(s.visualCritique, func(p *stages.VisualCritiquePayload) *float64 { return p.ModernDesign })) },
	LabelAccessibilityIndicators: func(s *payloadSet) any { return fnum(pget(s.visualCritique, func(p *stages.VisualCritiquePayload) *float64 { return p.Accessibility })) },

	// Content Quality
	LabelOverallScore:        func(s *payloadSet) any { return fnum(pget(s.score, func(p *stages.ScorePayload) *float64 { return p.OverallScore })) },
	LabelContentQualityScore: func(s *payloadSet) any { return fnum(pget(s.content, func(p *stages.ContentPayload) *float64 { return p.ContentQualityScore })) },
	LabelReadability:         func(s *payloadSet) any { return fnum(pget(s.content, func(p *stages.ContentPayload) *float64 { return p.Readability })) },
	LabelWordCount:           func(s *payloadSet) any { return fnum(pget(s.content, func(p *stages.ContentPayload) *float64 { return p.WordCount })) },
	LabelKeywordRelevance:    func(s *payloadSet) any { return fnum(pget(s.content, func(p *stages.ContentPayload) *float64 { return p.KeywordRelevance })) },
	LabelMetaDescriptionPresent: func(s *payloadSet) any {
		return fbool(bget(s.content, func(p *stages.ContentPayload) *bool { return p.MetaDescriptionPresent }))
	},
	LabelHeadlineQuality: func(s *payloadSet) any { return fnum(pget(s.content, func(p *stages.ContentPayload) *float64 { return p.HeadlineQuality })) },
}

// Decompose flattens one execution snapshot into the fixed metrics map. It is
// a pure function: the same execution always yields the same metrics, and a
// value is never fabricated — any missing datum resolves to nil.
func Decompose(exec *pipeline.AssessmentExecution) Metrics {
	set := decodePayloads(exec)
	metrics := make(Metrics, len(registry))
	for _, label := range AllLabels() {
		metrics[label] = registry[label](set)
	}
	return metrics
}

func decodePayloads(exec *pipeline.AssessmentExecution) *payloadSet {
	set := &payloadSet{}
	set.pageSpeed = decode[stages.PageSpeedPayload](exec, pipeline.StagePageSpeed)
	set.security = decode[stages.SecurityPayload](exec, pipeline.StageSecurity)
	set.businessProfile = decode[stages.BusinessProfilePayload](exec, pipeline.StageBusinessProfile)
	set.screenshot = decode[stages.ScreenshotPayload](exec, pipeline.StageScreenshot)
	set.domainAuthority = decode[stages.DomainAuthorityPayload](exec, pipeline.StageDomainAuthority)
	set.visualCritique = decode[stages.VisualCritiquePayload](exec, pipeline.StageVisualCritique)
	set.score = decode[stages.ScorePayload](exec, pipeline.StageScoreAggregation)
	set.content = decode[stages.ContentPayload](exec, pipeline.StageContentGeneration)
	return set
}

// decode returns the stage payload only if the stage succeeded and the
// payload parses; anything else yields nil and nulls downstream.
func decode[T any](exec *pipeline.AssessmentExecution, kind pipeline.StageKind) *T {
	raw := exec.Payload(kind)
	if raw == nil {
		return nil
	}
	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	return &payload
}

// pget lifts a field accessor over a possibly-nil payload.
func pget[T any](p *T, get func(*T) *float64) *float64 {
	if p == nil {
		return nil
	}
	return get(p)
}

func bget[T any](p *T, get func(*T) *bool) *bool {
	if p == nil {
		return nil
	}
	return get(p)
}

// fnum passes a numeric field through without unit conversion.
func fnum(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// fbool normalizes a boolean-like field to a canonical boolean.
func fbool(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}
