package adapter

import "context"

// Source fetches the raw model catalog from one upstream aggregator.
type Source interface {
	// Name returns the source name (e.g., "openrouter").
	Name() string
	// FetchRaw performs a single catalog request authenticated with credential.
	// Any transport failure or non-success status is reported as an error
	// matching ErrUpstreamUnavailable.
	FetchRaw(ctx context.Context, credential string) ([]RawModel, error)
}

// RawModel is one upstream catalog entry as delivered on the wire.
// Every field is optional; prices are decimal-encoded strings.
type RawModel struct {
	ID                  string       `json:"id"`
	CanonicalSlug       string       `json:"canonical_slug,omitempty"`
	HuggingFaceID       string       `json:"hugging_face_id,omitempty"`
	Name                string       `json:"name"`
	Created             int64        `json:"created,omitempty"`
	Description         string       `json:"description,omitempty"`
	ContextLength       int          `json:"context_length"`
	Architecture        Architecture `json:"architecture"`
	Pricing             RawPricing   `json:"pricing"`
	TopProvider         TopProvider  `json:"top_provider"`
	SupportedParameters []string     `json:"supported_parameters,omitempty"`
}

// Architecture describes the upstream modality fields.
type Architecture struct {
	Modality         string   `json:"modality,omitempty"`
	InputModalities  []string `json:"input_modalities,omitempty"`
	OutputModalities []string `json:"output_modalities,omitempty"`
	Tokenizer        string   `json:"tokenizer,omitempty"`
	InstructType     *string  `json:"instruct_type,omitempty"`
}

// RawPricing holds per-token and per-unit prices in USD, encoded as text.
type RawPricing struct {
	Prompt            string `json:"prompt,omitempty"`
	Completion        string `json:"completion,omitempty"`
	Request           string `json:"request,omitempty"`
	Image             string `json:"image,omitempty"`
	WebSearch         string `json:"web_search,omitempty"`
	InternalReasoning string `json:"internal_reasoning,omitempty"`
	InputCacheRead    string `json:"input_cache_read,omitempty"`
}

// TopProvider carries limits reported by the serving provider.
type TopProvider struct {
	ContextLength       *int `json:"context_length,omitempty"`
	MaxCompletionTokens *int `json:"max_completion_tokens,omitempty"`
	IsModerated         bool `json:"is_moderated"`
}
