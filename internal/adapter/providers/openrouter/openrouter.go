package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/everstacklabs/scout/internal/adapter"
	"github.com/everstacklabs/scout/internal/httpclient"
)

// DefaultBaseURL is the public OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

func init() {
	adapter.Register(&OpenRouter{baseURL: DefaultBaseURL, client: httpclient.New()})
}

// OpenRouter fetches the model catalog from the OpenRouter /models endpoint.
type OpenRouter struct {
	baseURL string
	client  *httpclient.Client
}

func (o *OpenRouter) Name() string { return "openrouter" }

// Configure sets the API root and HTTP client. An empty baseURL keeps the default.
func (o *OpenRouter) Configure(baseURL string, client *httpclient.Client) {
	if baseURL != "" {
		o.baseURL = strings.TrimRight(baseURL, "/")
	}
	if client != nil {
		o.client = client
	}
}

type modelsResponse struct {
	Data []adapter.RawModel `json:"data"`
}

func (o *OpenRouter) FetchRaw(ctx context.Context, credential string) ([]adapter.RawModel, error) {
	url := o.baseURL + "/models"

	resp, err := o.client.Get(ctx, url,
		httpclient.WithBearerToken(credential),
		httpclient.WithHeader("X-Title", "scout"),
	)
	if err != nil {
		return nil, o.upstreamError(err)
	}

	if !gjson.ValidBytes(resp.Body) {
		return nil, &adapter.UpstreamError{Source: o.Name(), Err: errors.New("response is not valid JSON")}
	}
	if data := gjson.GetBytes(resp.Body, "data"); !data.IsArray() {
		return nil, &adapter.UpstreamError{Source: o.Name(), Err: errors.New(`response has no "data" array`)}
	}

	var mr modelsResponse
	if err := json.Unmarshal(resp.Body, &mr); err != nil {
		return nil, &adapter.UpstreamError{Source: o.Name(), Err: fmt.Errorf("parsing models response: %w", err)}
	}

	slog.Debug("openrouter catalog fetched", "models", len(mr.Data))
	return mr.Data, nil
}

// upstreamError converts a client failure into an UpstreamError, pulling the
// provider's error message out of the body when one is present.
func (o *OpenRouter) upstreamError(err error) error {
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		msg := gjson.GetBytes(se.Body, "error.message").String()
		return &adapter.UpstreamError{Source: o.Name(), StatusCode: se.StatusCode, Message: msg, Err: err}
	}
	return &adapter.UpstreamError{Source: o.Name(), Err: err}
}
