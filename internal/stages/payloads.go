package stages

// Stage payload shapes. Each stage owns its payload; the decomposer is the
// only other place that knows these shapes. Optional fields are pointers so a
// source that omitted a datum stays distinguishable from a zero value.

// PageSpeedPayload is the result of the page-speed analysis stage. Timings
// are in milliseconds, exactly as the analyzer reports them.
type PageSpeedPayload struct {
	Score                    *float64 `json:"score,omitempty"`
	FirstContentfulPaintMs   *float64 `json:"first_contentful_paint_ms,omitempty"`
	LargestContentfulPaintMs *float64 `json:"largest_contentful_paint_ms,omitempty"`
	TotalBlockingTimeMs      *float64 `json:"total_blocking_time_ms,omitempty"`
	CumulativeLayoutShift    *float64 `json:"cumulative_layout_shift,omitempty"`
	SpeedIndexMs             *float64 `json:"speed_index_ms,omitempty"`
	TimeToInteractiveMs      *float64 `json:"time_to_interactive_ms,omitempty"`
}

// SecurityPayload is the result of the security header scan.
type SecurityPayload struct {
	HTTPSEnforced       *bool    `json:"https_enforced,omitempty"`
	HSTS                *bool    `json:"hsts,omitempty"`
	ContentSecurityPolicy *bool  `json:"content_security_policy,omitempty"`
	XFrameOptions       *bool    `json:"x_frame_options,omitempty"`
	XContentTypeOptions *bool    `json:"x_content_type_options,omitempty"`
	ReferrerPolicy      *bool    `json:"referrer_policy,omitempty"`
	PermissionsPolicy   *bool    `json:"permissions_policy,omitempty"`
	CertificateValid    *bool    `json:"certificate_valid,omitempty"`
	Score               *float64 `json:"score,omitempty"`
}

// BusinessProfilePayload is the result of the business-profile lookup.
type BusinessProfilePayload struct {
	NameMatch     *bool    `json:"name_match,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	ReviewCount   *float64 `json:"review_count,omitempty"`
	AddressListed *bool    `json:"address_listed,omitempty"`
	PhoneListed   *bool    `json:"phone_listed,omitempty"`
	WebsiteListed *bool    `json:"website_listed,omitempty"`
	HoursListed   *bool    `json:"hours_listed,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Claimed       *bool    `json:"claimed,omitempty"`
}

// CapturedScreenshot is one artifact produced by the capture service. Data
// carries the image bytes until the artifact gateway moves them to object
// storage; the stored record keeps only the bucket/key location.
type CapturedScreenshot struct {
	Type              string         `json:"type"`
	ViewportWidth     int            `json:"viewport_width"`
	ViewportHeight    int            `json:"viewport_height"`
	DeviceScaleFactor float64        `json:"device_scale_factor"`
	Format            string         `json:"format"`
	CaptureDurationMs float64        `json:"capture_duration_ms"`
	Data              []byte         `json:"data,omitempty"`
	Error             string         `json:"error,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// ScreenshotPayload is the result of the screenshot capture stage.
type ScreenshotPayload struct {
	DesktopCaptured *bool                `json:"desktop_captured,omitempty"`
	MobileCaptured  *bool                `json:"mobile_captured,omitempty"`
	Screenshots     []CapturedScreenshot `json:"screenshots,omitempty"`
}

// DomainAuthorityPayload is the result of the SEO / domain analysis stage.
type DomainAuthorityPayload struct {
	DomainAuthority *float64 `json:"domain_authority,omitempty"`
	PageAuthority   *float64 `json:"page_authority,omitempty"`
	SpamScore       *float64 `json:"spam_score,omitempty"`
	LinkingDomains  *float64 `json:"linking_domains,omitempty"`
	TotalBacklinks  *float64 `json:"total_backlinks,omitempty"`
	DomainAgeYears  *float64 `json:"domain_age_years,omitempty"`
	// On-page findings consumed by content generation, not surfaced as
	// domain-authority metrics.
	MetaDescriptionPresent *bool    `json:"meta_description_present,omitempty"`
	TitleTag               *string  `json:"title_tag,omitempty"`
}

// VisualCritiquePayload is the AI vision critique of the captured
// screenshots. All scores are on the analyzer's native 0-100 scale.
type VisualCritiquePayload struct {
	VisualAppeal       *float64 `json:"visual_appeal,omitempty"`
	LayoutQuality      *float64 `json:"layout_quality,omitempty"`
	ColorHarmony       *float64 `json:"color_harmony,omitempty"`
	Typography         *float64 `json:"typography,omitempty"`
	WhitespaceUsage    *float64 `json:"whitespace_usage,omitempty"`
	BrandingConsistency *float64 `json:"branding_consistency,omitempty"`
	CTAVisibility      *float64 `json:"cta_visibility,omitempty"`
	NavigationClarity  *float64 `json:"navigation_clarity,omitempty"`
	MobileFriendliness *float64 `json:"mobile_friendliness,omitempty"`
	ImageQuality       *float64 `json:"image_quality,omitempty"`
	TrustSignals       *float64 `json:"trust_signals,omitempty"`
	ModernDesign       *float64 `json:"modern_design,omitempty"`
	Accessibility      *float64 `json:"accessibility,omitempty"`
}

// ScorePayload is computed by the score-aggregation stage from the succeeded
// analysis stages.
type ScorePayload struct {
	OverallScore   *float64           `json:"overall_score,omitempty"`
	CategoryScores map[string]float64 `json:"category_scores,omitempty"`
}

// ContentPayload is produced by the content-generation stage.
type ContentPayload struct {
	Summary                string   `json:"summary"`
	Recommendations        []string `json:"recommendations,omitempty"`
	ContentQualityScore    *float64 `json:"content_quality_score,omitempty"`
	Readability            *float64 `json:"readability,omitempty"`
	WordCount              *float64 `json:"word_count,omitempty"`
	KeywordRelevance       *float64 `json:"keyword_relevance,omitempty"`
	MetaDescriptionPresent *bool    `json:"meta_description_present,omitempty"`
	HeadlineQuality        *float64 `json:"headline_quality,omitempty"`
}
