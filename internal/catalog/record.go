package catalog

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

var million = decimal.NewFromInt(1_000_000)

// ModelRecord is the normalized, provider-agnostic view of one catalog entry.
// Records are built by Normalize and never mutated afterwards.
type ModelRecord struct {
	ID                  string
	CanonicalSlug       string
	DisplayName         string
	Provider            string
	HuggingFaceID       string
	ContextLength       int
	MaxCompletionTokens *int
	CreatedAt           time.Time
	Description         string
	Modality            string
	InputModalities     []string
	OutputModalities    []string
	SupportedParameters []string
	Pricing             Pricing
	IsModerated         bool
}

// Pricing holds per-token and per-unit prices in USD.
type Pricing struct {
	PromptPerToken     decimal.Decimal
	CompletionPerToken decimal.Decimal
	RequestFee         *decimal.Decimal
	ImageFee           *decimal.Decimal
	WebSearchFee       *decimal.Decimal
	ReasoningFee       *decimal.Decimal
	CacheReadPerToken  *decimal.Decimal
}

func (p Pricing) PromptPer1M() decimal.Decimal { return p.PromptPerToken.Mul(million) }
func (p Pricing) CompletionPer1M() decimal.Decimal { return p.CompletionPerToken.Mul(million) }

// TotalPer1M is always the sum of the prompt and completion per-million prices.
func (p Pricing) TotalPer1M() decimal.Decimal {
	return p.PromptPer1M().Add(p.CompletionPer1M())
}

// IsFree reports whether both token prices are zero. Request, image and web
// search fees do not count.
func (p Pricing) IsFree() bool {
	return p.PromptPerToken.IsZero() && p.CompletionPerToken.IsZero()
}

// IsFree is derived from the record's pricing on every call.
func (m ModelRecord) IsFree() bool { return m.Pricing.IsFree() }

func (m ModelRecord) HasVision() bool {
	return slices.Contains(m.InputModalities, "image")
}

func (m ModelRecord) HasTools() bool {
	return m.supports("tools") || m.supports("tool_choice")
}

func (m ModelRecord) HasReasoning() bool {
	return m.supports("reasoning") || m.supports("include_reasoning")
}

func (m ModelRecord) supports(param string) bool {
	return slices.Contains(m.SupportedParameters, param)
}

// Capability tags.
const (
	CapVision           = "vision"
	CapTools            = "tools"
	CapReasoning        = "reasoning"
	CapStructuredOutput = "structured-output"
	CapWebSearch        = "web-search"
	CapImageGeneration  = "image-generation"
	CapAudio            = "audio"
	CapFree             = "free"
	CapModerated        = "moderated"
)

// Capabilities derives short capability tags from modalities, supported
// parameters and pricing.
func (m ModelRecord) Capabilities() []string {
	var caps []string
	if m.HasVision() {
		caps = append(caps, CapVision)
	}
	if m.HasTools() {
		caps = append(caps, CapTools)
	}
	if m.HasReasoning() {
		caps = append(caps, CapReasoning)
	}
	if m.supports("response_format") || m.supports("structured_outputs") {
		caps = append(caps, CapStructuredOutput)
	}
	if m.Pricing.WebSearchFee != nil {
		caps = append(caps, CapWebSearch)
	}
	if slices.Contains(m.OutputModalities, "image") {
		caps = append(caps, CapImageGeneration)
	}
	if slices.Contains(m.InputModalities, "audio") || slices.Contains(m.OutputModalities, "audio") {
		caps = append(caps, CapAudio)
	}
	if m.IsFree() {
		caps = append(caps, CapFree)
	}
	if m.IsModerated {
		caps = append(caps, CapModerated)
	}
	return caps
}

type pricingJSON struct {
	PromptPerToken     float64  `json:"promptPerToken"`
	CompletionPerToken float64  `json:"completionPerToken"`
	RequestFee         *float64 `json:"requestFee,omitempty"`
	ImageFee           *float64 `json:"imageFee,omitempty"`
	WebSearchFee       *float64 `json:"webSearchFee,omitempty"`
	ReasoningFee       *float64 `json:"reasoningFee,omitempty"`
	CacheReadPerToken  *float64 `json:"cacheReadPerToken,omitempty"`
	PromptPer1M        float64  `json:"promptPer1M"`
	CompletionPer1M    float64  `json:"completionPer1M"`
	TotalPer1M         float64  `json:"totalPer1M"`
}

// MarshalJSON emits prices as numbers together with the derived per-million figures.
func (p Pricing) MarshalJSON() ([]byte, error) {
	return json.Marshal(pricingJSON{
		PromptPerToken:     p.PromptPerToken.InexactFloat64(),
		CompletionPerToken: p.CompletionPerToken.InexactFloat64(),
		RequestFee:         optFloat(p.RequestFee),
		ImageFee:           optFloat(p.ImageFee),
		WebSearchFee:       optFloat(p.WebSearchFee),
		ReasoningFee:       optFloat(p.ReasoningFee),
		CacheReadPerToken:  optFloat(p.CacheReadPerToken),
		PromptPer1M:        p.PromptPer1M().InexactFloat64(),
		CompletionPer1M:    p.CompletionPer1M().InexactFloat64(),
		TotalPer1M:         p.TotalPer1M().InexactFloat64(),
	})
}

func optFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

type recordJSON struct {
	ID                  string    `json:"id"`
	CanonicalSlug       string    `json:"canonicalSlug,omitempty"`
	DisplayName         string    `json:"displayName"`
	Provider            string    `json:"provider"`
	HuggingFaceID       string    `json:"huggingFaceId,omitempty"`
	ContextLength       int       `json:"contextLength"`
	MaxCompletionTokens *int      `json:"maxCompletionTokens,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	Description         string    `json:"description,omitempty"`
	Modality            string    `json:"modality,omitempty"`
	InputModalities     []string  `json:"inputModalities"`
	OutputModalities    []string  `json:"outputModalities"`
	SupportedParameters []string  `json:"supportedParameters"`
	Pricing             Pricing   `json:"pricing"`
	IsModerated         bool      `json:"isModerated"`
	IsFree              bool      `json:"isFree"`
}

// MarshalJSON includes the derived isFree flag.
func (m ModelRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:                  m.ID,
		CanonicalSlug:       m.CanonicalSlug,
		DisplayName:         m.DisplayName,
		Provider:            m.Provider,
		HuggingFaceID:       m.HuggingFaceID,
		ContextLength:       m.ContextLength,
		MaxCompletionTokens: m.MaxCompletionTokens,
		CreatedAt:           m.CreatedAt.UTC(),
		Description:         m.Description,
		Modality:            m.Modality,
		InputModalities:     nonNil(m.InputModalities),
		OutputModalities:    nonNil(m.OutputModalities),
		SupportedParameters: nonNil(m.SupportedParameters),
		Pricing:             m.Pricing,
		IsModerated:         m.IsModerated,
		IsFree:              m.IsFree(),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
