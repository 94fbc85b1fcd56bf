package stages

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sitegrader/sitegrader/internal/pipeline"
)

// NewAdapters wires the six external analyzer clients plus the two internal
// compute stages. The returned set covers every stage of the default table.
func NewAdapters(cfg Config, client *http.Client, specs []pipeline.StageSpec) []pipeline.Adapter {
	caller := newHTTPCaller(client)
	return []pipeline.Adapter{
		&pageSpeedAdapter{caller: caller, endpoint: cfg.PageSpeed},
		&securityAdapter{caller: caller, endpoint: cfg.Security},
		&businessProfileAdapter{caller: caller, endpoint: cfg.BusinessProfile},
		&screenshotAdapter{caller: caller, endpoint: cfg.Screenshot},
		&domainAuthorityAdapter{caller: caller, endpoint: cfg.DomainAuthority},
		&visualCritiqueAdapter{caller: caller, endpoint: cfg.VisualCritique},
		NewScoreAggregator(specs),
		&contentGenerator{},
	}
}

type pageSpeedAdapter struct {
	caller   *httpCaller
	endpoint Endpoint
}

func (a *pageSpeedAdapter) Kind() pipeline.StageKind { return pipeline.StagePageSpeed }

func (a *pageSpeedAdapter) Run(ctx context.Context, in pipeline.Input) (any, error) {
	req := struct {
		URL string `json:"url"`
	}{URL: in.URL}

	var payload PageSpeedPayload
	if err := a.caller.postJSON(ctx, a.endpoint, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

type securityAdapter struct {
	caller   *httpCaller
	endpoint Endpoint
}

func (a *securityAdapter) Kind() pipeline.StageKind { return pipeline.StageSecurity }

func (a *securityAdapter) Run(ctx context.Context, in pipeline.Input) (any, error) {
	req := struct {
		URL string `json:"url"`
	}{URL: in.URL}

	var payload SecurityPayload
	if err := a.caller.postJSON(ctx, a.endpoint, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

type businessProfileAdapter struct {
	caller   *httpCaller
	endpoint Endpoint
}

func (a *businessProfileAdapter) Kind() pipeline.StageKind { return pipeline.StageBusinessProfile }

func (a *businessProfileAdapter) Run(ctx context.Context, in pipeline.Input) (any, error) {
	if in.BusinessName == "" {
		return nil, pipeline.NewInvalidInputError("business profile lookup requires a business name")
	}
	req := struct {
		URL          string `json:"url"`
		BusinessName string `json:"business_name"`
		Address      string `json:"address,omitempty"`
		City         string `json:"city,omitempty"`
		State        string `json:"state,omitempty"`
	}{in.URL, in.BusinessName, in.Address, in.City, in.State}

	var payload BusinessProfilePayload
	if err := a.caller.postJSON(ctx, a.endpoint, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

type screenshotAdapter struct {
	caller   *httpCaller
	endpoint Endpoint
}

func (a *screenshotAdapter) Kind() pipeline.StageKind { return pipeline.StageScreenshot }

func (a *screenshotAdapter) Run(ctx context.Context, in pipeline.Input) (any, error) {
	req := struct {
		URL   string   `json:"url"`
		Types []string `json:"types"`
	}{URL: in.URL, Types: []string{"desktop", "mobile"}}

	var payload ScreenshotPayload
	if err := a.caller.postJSON(ctx, a.endpoint, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

type domainAuthorityAdapter struct {
	caller   *httpCaller
	endpoint Endpoint
}

func (a *domainAuthorityAdapter) Kind() pipeline.StageKind { return pipeline.StageDomainAuthority }

func (a *domainAuthorityAdapter) Run(ctx context.Context, in pipeline.Input) (any, error) {
	req := struct {
		URL string `json:"url"`
	}{URL: in.URL}

	var payload DomainAuthorityPayload
	if err := a.caller.postJSON(ctx, a.endpoint, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

type visualCritiqueAdapter struct {
	caller   *httpCaller
	endpoint Endpoint
}

func (a *visualCritiqueAdapter) Kind() pipeline.StageKind { return pipeline.StageVisualCritique }

// Run forwards the captured screenshots to the vision critic. The dependency
// on the screenshot stage is enforced by the orchestrator; a missing payload
// here means the table was tampered with, reported as invalid input.
func (a *visualCritiqueAdapter) Run(ctx context.Context, in pipeline.Input) (any, error) {
	raw, ok := in.Prior[pipeline.StageScreenshot]
	if !ok {
		return nil, pipeline.NewInvalidInputError("visual critique requires the screenshot payload")
	}
	var shots ScreenshotPayload
	if err := json.Unmarshal(raw, &shots); err != nil {
		return nil, pipeline.NewInvalidInputError("screenshot payload is not decodable: %s", err)
	}

	req := struct {
		URL         string               `json:"url"`
		Screenshots []CapturedScreenshot `json:"screenshots"`
	}{URL: in.URL, Screenshots: shots.Screenshots}

	var payload VisualCritiquePayload
	if err := a.caller.postJSON(ctx, a.endpoint, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
