package stages

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"

	"github.com/sitegrader/sitegrader/internal/pipeline"
)

// StubHost is the virtual host answered by the stub transport. Endpoints
// pointing at it never leave the process, which keeps local development and
// demos working without analyzer accounts.
const StubHost = "stub.sitegrader.local"

// StubEndpoint returns the in-process endpoint for one stage.
func StubEndpoint(stage pipeline.StageKind) Endpoint {
	return Endpoint{URL: fmt.Sprintf("http://%s/%s", StubHost, stage)}
}

// NewStubClient returns an http client whose transport serves deterministic
// analyzer responses for stub endpoints and forwards everything else.
func NewStubClient() *http.Client {
	return &http.Client{Transport: &stubTransport{next: http.DefaultTransport}}
}

type stubTransport struct {
	next http.RoundTripper
}

func (t *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host != StubHost {
		return t.next.RoundTrip(req)
	}

	var in struct {
		URL string `json:"url"`
	}
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &in)
	}

	payload := stubPayload(req.URL.Path, in.URL)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     http.StatusText(http.StatusOK),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}, nil
}

// stubPayload derives a stable payload from the submitted URL, so repeated
// runs against the same site produce identical assessments.
func stubPayload(path, url string) any {
	seed := fnv.New64a()
	_, _ = seed.Write([]byte(url))
	r := seed.Sum64()

	// score picks a deterministic value in [40, 100).
	score := func(salt uint64) float64 {
		return 40 + float64((r^salt)%600)/10
	}
	flag := func(salt uint64) bool {
		return (r^salt)%10 < 7
	}

	switch path {
	case "/" + string(pipeline.StagePageSpeed):
		return PageSpeedPayload{
			Score:                    ptr(score(1)),
			FirstContentfulPaintMs:   ptr(500 + score(2)*20),
			LargestContentfulPaintMs: ptr(1200 + score(3)*30),
			TotalBlockingTimeMs:      ptr(score(4) * 4),
			CumulativeLayoutShift:    ptr(score(5) / 400),
			SpeedIndexMs:             ptr(1500 + score(6)*25),
			TimeToInteractiveMs:      ptr(2000 + score(7)*35),
		}
	case "/" + string(pipeline.StageSecurity):
		return SecurityPayload{
			HTTPSEnforced:         bptr(flag(10)),
			HSTS:                  bptr(flag(11)),
			ContentSecurityPolicy: bptr(flag(12)),
			XFrameOptions:         bptr(flag(13)),
			XContentTypeOptions:   bptr(flag(14)),
			ReferrerPolicy:        bptr(flag(15)),
			PermissionsPolicy:     bptr(flag(16)),
			CertificateValid:      bptr(true),
			Score:                 ptr(score(17)),
		}
	case "/" + string(pipeline.StageBusinessProfile):
		return BusinessProfilePayload{
			NameMatch:     bptr(flag(20)),
			Rating:        ptr(3 + score(21)/50),
			ReviewCount:   ptr(float64((r % 500))),
			AddressListed: bptr(flag(22)),
			PhoneListed:   bptr(flag(23)),
			WebsiteListed: bptr(true),
			HoursListed:   bptr(flag(24)),
			Categories:    []string{"Local Business"},
			Claimed:       bptr(flag(25)),
		}
	case "/" + string(pipeline.StageScreenshot):
		return ScreenshotPayload{
			DesktopCaptured: bptr(true),
			MobileCaptured:  bptr(true),
			Screenshots: []CapturedScreenshot{
				{Type: "desktop", ViewportWidth: 1920, ViewportHeight: 1080, DeviceScaleFactor: 1, Format: "png", CaptureDurationMs: 850},
				{Type: "mobile", ViewportWidth: 390, ViewportHeight: 844, DeviceScaleFactor: 3, Format: "png", CaptureDurationMs: 720},
			},
		}
	case "/" + string(pipeline.StageDomainAuthority):
		return DomainAuthorityPayload{
			DomainAuthority:        ptr(score(30)),
			PageAuthority:          ptr(score(31)),
			SpamScore:              ptr(float64((r % 15))),
			LinkingDomains:         ptr(float64(r % 2000)),
			TotalBacklinks:         ptr(float64(r % 50000)),
			DomainAgeYears:         ptr(float64(1 + r%20)),
			MetaDescriptionPresent: bptr(flag(32)),
			TitleTag:               sptr("Welcome"),
		}
	case "/" + string(pipeline.StageVisualCritique):
		return VisualCritiquePayload{
			VisualAppeal:        ptr(score(40)),
			LayoutQuality:       ptr(score(41)),
			ColorHarmony:        ptr(score(42)),
			Typography:          ptr(score(43)),
			WhitespaceUsage:     ptr(score(44)),
			BrandingConsistency: ptr(score(45)),
			CTAVisibility:       ptr(score(46)),
			NavigationClarity:   ptr(score(47)),
			MobileFriendliness:  ptr(score(48)),
			ImageQuality:        ptr(score(49)),
			TrustSignals:        ptr(score(50)),
			ModernDesign:        ptr(score(51)),
			Accessibility:       ptr(score(52)),
		}
	default:
		return map[string]string{"error": "unknown analyzer"}
	}
}

func ptr(v float64) *float64 { return &v }
func bptr(v bool) *bool      { return &v }
func sptr(v string) *string  { return &v }
