package decompose

// Label is one of the 53 stable, human-readable metric names. The set is the
// contract with storage and display; every decomposition carries every label.
type Label string

// Category groups labels for display. Membership is static metadata.
type Category string

const (
	CategoryPageSpeed       Category = "PageSpeed"
	CategorySecurity        Category = "Technical/Security"
	CategoryBusinessProfile Category = "Business Profile"
	CategoryScreenshot      Category = "Screenshot/Visual"
	CategoryDomainAuthority Category = "Domain Authority"
	CategoryVisualCritique  Category = "Visual Critique"
	CategoryContentQuality  Category = "Content Quality"
)

// PageSpeed
const (
	LabelPerformanceScore       Label = "Performance Score"
	LabelFirstContentfulPaint   Label = "First Contentful Paint"
	LabelLargestContentfulPaint Label = "Largest Contentful Paint"
	LabelTotalBlockingTime      Label = "Total Blocking Time"
	LabelCumulativeLayoutShift  Label = "Cumulative Layout Shift"
	LabelSpeedIndex             Label = "Speed Index"
	LabelTimeToInteractive      Label = "Time to Interactive"
)

// Technical/Security
const (
	LabelHTTPSEnforced         Label = "HTTPS Enforced"
	LabelHSTSHeader            Label = "HSTS Header"
	LabelContentSecurityPolicy Label = "Content Security Policy"
	LabelXFrameOptions         Label = "X-Frame-Options"
	LabelXContentTypeOptions   Label = "X-Content-Type-Options"
	LabelReferrerPolicy        Label = "Referrer Policy"
	LabelPermissionsPolicy     Label = "Permissions Policy"
	LabelSSLCertificateValid   Label = "SSL Certificate Valid"
	LabelSecurityScore         Label = "Security Score"
)

// Business Profile
const (
	LabelBusinessNameMatch Label = "Business Name Match"
	LabelRating            Label = "Rating"
	LabelReviewCount       Label = "Review Count"
	LabelAddressListed     Label = "Address Listed"
	LabelPhoneListed       Label = "Phone Listed"
	LabelWebsiteListed     Label = "Website Listed"
	LabelHoursListed       Label = "Hours Listed"
	LabelCategories        Label = "Categories"
	LabelProfileClaimed    Label = "Profile Claimed"
)

// Screenshot/Visual
const (
	LabelDesktopScreenshotCaptured Label = "Desktop Screenshot Captured"
	LabelMobileScreenshotCaptured  Label = "Mobile Screenshot Captured"
)

// Domain Authority
const (
	LabelDomainAuthority Label = "Domain Authority"
	LabelPageAuthority   Label = "Page Authority"
	LabelSpamScore       Label = "Spam Score"
	LabelLinkingDomains  Label = "Linking Domains"
	LabelTotalBacklinks  Label = "Total Backlinks"
	LabelDomainAge       Label = "Domain Age"
)

// Visual Critique
const (
	LabelVisualAppealScore       Label = "Visual Appeal Score"
	LabelLayoutQuality           Label = "Layout Quality"
	LabelColorHarmony            Label = "Color Harmony"
	LabelTypographyQuality       Label = "Typography Quality"
	LabelWhitespaceUsage         Label = "Whitespace Usage"
	LabelBrandingConsistency     Label = "Branding Consistency"
	LabelCTAVisibility           Label = "CTA Visibility"
	LabelNavigationClarity       Label = "Navigation Clarity"
	LabelMobileFriendliness      Label = "Mobile Friendliness"
	LabelImageQuality            Label = "Image Quality"
	LabelTrustSignals            Label = "Trust Signals"
	LabelModernDesignScore       Label = "Modern Design Score"
	LabelAccessibilityIndicators Label = "Accessibility Indicators"
)

// Content Quality
const (
	LabelOverallScore           Label = "Overall Score"
	LabelContentQualityScore    Label = "Content Quality Score"
	LabelReadability            Label = "Readability"
	LabelWordCount              Label = "Word Count"
	LabelKeywordRelevance       Label = "Keyword Relevance"
	LabelMetaDescriptionPresent Label = "Meta Description Present"
	LabelHeadlineQuality        Label = "Headline Quality"
)

// categoryOrder fixes the display order of the seven categories.
var categoryOrder = []Category{
	CategoryPageSpeed,
	CategorySecurity,
	CategoryBusinessProfile,
	CategoryScreenshot,
	CategoryDomainAuthority,
	CategoryVisualCritique,
	CategoryContentQuality,
}

// labelsByCategory fixes category membership and the in-category label order.
var labelsByCategory = map[Category][]Label{
	CategoryPageSpeed: {
		LabelPerformanceScore, LabelFirstContentfulPaint, LabelLargestContentfulPaint,
		LabelTotalBlockingTime, LabelCumulativeLayoutShift, LabelSpeedIndex,
		LabelTimeToInteractive,
	},
	CategorySecurity: {
		LabelHTTPSEnforced, LabelHSTSHeader, LabelContentSecurityPolicy,
		LabelXFrameOptions, LabelXContentTypeOptions, LabelReferrerPolicy,
		LabelPermissionsPolicy, LabelSSLCertificateValid, LabelSecurityScore,
	},
	CategoryBusinessProfile: {
		LabelBusinessNameMatch, LabelRating, LabelReviewCount, LabelAddressListed,
		LabelPhoneListed, LabelWebsiteListed, LabelHoursListed, LabelCategories,
		LabelProfileClaimed,
	},
	CategoryScreenshot: {
		LabelDesktopScreenshotCaptured, LabelMobileScreenshotCaptured,
	},
	CategoryDomainAuthority: {
		LabelDomainAuthority, LabelPageAuthority, LabelSpamScore,
		LabelLinkingDomains, LabelTotalBacklinks, LabelDomainAge,
	},
	CategoryVisualCritique: {
		LabelVisualAppealScore, LabelLayoutQuality, LabelColorHarmony,
		LabelTypographyQuality, LabelWhitespaceUsage, LabelBrandingConsistency,
		LabelCTAVisibility, LabelNavigationClarity, LabelMobileFriendliness,
		LabelImageQuality, LabelTrustSignals, LabelModernDesignScore,
		LabelAccessibilityIndicators,
	},
	CategoryContentQuality: {
		LabelOverallScore, LabelContentQualityScore, LabelReadability,
		LabelWordCount, LabelKeywordRelevance, LabelMetaDescriptionPresent,
		LabelHeadlineQuality,
	},
}

// Categories returns the display order of the seven categories.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// CategoryLabels returns the ordered labels of one category.
func CategoryLabels(c Category) []Label {
	labels := labelsByCategory[c]
	out := make([]Label, len(labels))
	copy(out, labels)
	return out
}

// AllLabels returns every label in category order. The length is the fixed
// width of the metrics contract.
func AllLabels() []Label {
	var out []Label
	for _, c := range categoryOrder {
		out = append(out, labelsByCategory[c]...)
	}
	return out
}
