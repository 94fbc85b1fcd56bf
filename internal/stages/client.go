package stages

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/sitegrader/sitegrader/internal/pipeline"
)

// Endpoint locates one external analyzer.
type Endpoint struct {
	URL    string
	APIKey string
}

// Config holds the endpoints of the six external analyzers.
type Config struct {
	PageSpeed       Endpoint
	Security        Endpoint
	BusinessProfile Endpoint
	Screenshot      Endpoint
	DomainAuthority Endpoint
	VisualCritique  Endpoint
}

type httpCaller struct {
	client *http.Client
}

func newHTTPCaller(client *http.Client) *httpCaller {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &httpCaller{client: client}
}

// postJSON posts the request projection and decodes the analyzer response.
// HTTP status codes are mapped onto the stage error taxonomy so the runner
// can decide retryability without knowing the analyzer.
func (c *httpCaller) postJSON(ctx context.Context, endpoint Endpoint, reqBody any, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return pipeline.NewInternalError("encoding request: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return pipeline.NewInvalidInputError("building request: %s", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if endpoint.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+endpoint.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// Network-level failures keep their original type so the runner's
		// classifier can see timeouts and transient transport errors.
		return errors.Wrap(err, "calling analyzer")
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pipeline.NewUpstreamError(false, "decoding analyzer response: %s", err)
	}
	return nil
}

func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return pipeline.NewStageError(pipeline.ErrorKindRateLimited, true, "analyzer rate limited the request")
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return pipeline.NewInvalidInputError("analyzer rejected the input: %s", readErrorBody(resp))
	case resp.StatusCode >= 500:
		return pipeline.NewUpstreamError(true, "analyzer returned %d: %s", resp.StatusCode, readErrorBody(resp))
	default:
		return pipeline.NewUpstreamError(false, "analyzer returned %d: %s", resp.StatusCode, readErrorBody(resp))
	}
}

func readErrorBody(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil || len(raw) == 0 {
		return fmt.Sprintf("status %s", resp.Status)
	}
	return string(raw)
}
