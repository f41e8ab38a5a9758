package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/everstacklabs/scout/internal/adapter"
)

func intPtr(v int) *int { return &v }

func TestNormalizeFullRecord(t *testing.T) {
	instruct := "chatml"
	raw := adapter.RawModel{
		ID:            "anthropic/claude-3.5-sonnet",
		CanonicalSlug: "anthropic/claude-3.5-sonnet-20240620",
		HuggingFaceID: "",
		Name:          "Anthropic: Claude 3.5 Sonnet",
		Created:       1718841600,
		Description:   "Balanced model",
		ContextLength: 200000,
		Architecture: adapter.Architecture{
			Modality:         "text+image->text",
			InputModalities:  []string{"text", "image"},
			OutputModalities: []string{"text"},
			InstructType:     &instruct,
		},
		Pricing: adapter.RawPricing{
			Prompt:     "0.000003",
			Completion: "0.000015",
			Request:    "0",
			Image:      "0.0048",
			WebSearch:  "0.004",
		},
		TopProvider: adapter.TopProvider{
			ContextLength:       intPtr(200000),
			MaxCompletionTokens: intPtr(8192),
			IsModerated:         true,
		},
		SupportedParameters: []string{"tools", "tool_choice", "response_format", "temperature"},
	}

	rec := Normalize(raw)

	require.Equal(t, "anthropic", rec.Provider)
	require.Equal(t, "Anthropic: Claude 3.5 Sonnet", rec.DisplayName)
	require.Equal(t, 200000, rec.ContextLength)
	require.NotNil(t, rec.MaxCompletionTokens)
	require.Equal(t, 8192, *rec.MaxCompletionTokens)
	require.Equal(t, time.Unix(1718841600, 0).UTC(), rec.CreatedAt)
	require.True(t, rec.Pricing.PromptPerToken.Equal(decimal.RequireFromString("0.000003")))
	require.True(t, rec.Pricing.PromptPer1M().Equal(decimal.NewFromInt(3)))
	require.True(t, rec.Pricing.CompletionPer1M().Equal(decimal.NewFromInt(15)))
	require.True(t, rec.Pricing.TotalPer1M().Equal(decimal.NewFromInt(18)))
	require.Nil(t, rec.Pricing.RequestFee, "zero request fee must be absent")
	require.NotNil(t, rec.Pricing.ImageFee)
	require.NotNil(t, rec.Pricing.WebSearchFee)
	require.Nil(t, rec.Pricing.ReasoningFee)
	require.False(t, rec.IsFree())
	require.Equal(t, []string{CapVision, CapTools, CapStructuredOutput, CapWebSearch, CapModerated}, rec.Capabilities())
}

func TestNormalizeMissingFields(t *testing.T) {
	rec := Normalize(adapter.RawModel{ID: "mystery"})

	require.Equal(t, "", rec.Provider)
	require.Equal(t, "mystery", rec.DisplayName)
	require.Nil(t, rec.MaxCompletionTokens)
	require.True(t, rec.CreatedAt.IsZero())
	require.True(t, rec.Pricing.PromptPerToken.IsZero())
	require.True(t, rec.IsFree())
	require.Equal(t, []string{CapFree}, rec.Capabilities())
}

func TestNormalizeUnparsablePricesAreZero(t *testing.T) {
	tests := []struct {
		prompt, completion string
	}{
		{"", ""},
		{"n/a", "free"},
		{"-1", "-0.5"},
		{" 0 ", "0.0"},
	}
	for _, tt := range tests {
		rec := Normalize(adapter.RawModel{
			ID:      "x/y",
			Pricing: adapter.RawPricing{Prompt: tt.prompt, Completion: tt.completion, Request: tt.prompt},
		})
		require.True(t, rec.IsFree(), "Normalize(%q, %q) should be free", tt.prompt, tt.completion)
		require.Nil(t, rec.Pricing.RequestFee)
	}
}

func TestIsFreeAndTotalPer1MProperties(t *testing.T) {
	prices := []string{"0", "0.0000001", "0.00000175", "0.000014", "0.00006", "garbage", ""}
	for _, p := range prices {
		for _, c := range prices {
			rec := Normalize(adapter.RawModel{
				ID:      "p/m",
				Pricing: adapter.RawPricing{Prompt: p, Completion: c, Request: "0.01"},
			})
			pr := rec.Pricing
			wantFree := pr.PromptPerToken.IsZero() && pr.CompletionPerToken.IsZero()
			require.Equal(t, wantFree, rec.IsFree(), "prompt=%q completion=%q", p, c)
			require.True(t, pr.TotalPer1M().Equal(pr.PromptPer1M().Add(pr.CompletionPer1M())))
		}
	}
}

func TestFreeIgnoresRequestFee(t *testing.T) {
	rec := Normalize(adapter.RawModel{
		ID:      "p/m",
		Pricing: adapter.RawPricing{Prompt: "0", Completion: "0", Request: "0.02", Image: "0.01"},
	})
	require.True(t, rec.IsFree())
	require.NotNil(t, rec.Pricing.RequestFee)
}

func TestNormalizeDoesNotAliasRawSlices(t *testing.T) {
	raw := adapter.RawModel{ID: "a/b", SupportedParameters: []string{"tools"}}
	rec := Normalize(raw)
	raw.SupportedParameters[0] = "changed"
	require.Equal(t, []string{"tools"}, rec.SupportedParameters)
}

func TestCapabilityTags(t *testing.T) {
	tests := []struct {
		name string
		raw  adapter.RawModel
		want []string
	}{
		{
			name: "reasoning via include_reasoning",
			raw: adapter.RawModel{ID: "d/r1", Pricing: adapter.RawPricing{Prompt: "1"},
				SupportedParameters: []string{"include_reasoning"}},
			want: []string{CapReasoning},
		},
		{
			name: "image generation and audio",
			raw: adapter.RawModel{ID: "g/img", Pricing: adapter.RawPricing{Completion: "1"},
				Architecture: adapter.Architecture{InputModalities: []string{"text", "audio"}, OutputModalities: []string{"image"}}},
			want: []string{CapImageGeneration, CapAudio},
		},
		{
			name: "structured outputs",
			raw: adapter.RawModel{ID: "o/s", Pricing: adapter.RawPricing{Prompt: "1"},
				SupportedParameters: []string{"structured_outputs"}},
			want: []string{CapStructuredOutput},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Normalize(tt.raw).Capabilities())
		})
	}
}

func TestRecordJSON(t *testing.T) {
	rec := Normalize(adapter.RawModel{
		ID:      "openai/gpt-4o-mini",
		Name:    "OpenAI: GPT-4o-mini",
		Created: 1721260800,
		Pricing: adapter.RawPricing{Prompt: "0.00000015", Completion: "0.0000006", Request: "0.001"},
	})

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, "openai", got["provider"])
	require.Equal(t, false, got["isFree"])
	require.Equal(t, []any{}, got["supportedParameters"])
	require.NotContains(t, got, "maxCompletionTokens")

	pricing := got["pricing"].(map[string]any)
	require.InDelta(t, 0.15, pricing["promptPer1M"], 1e-12)
	require.InDelta(t, 0.6, pricing["completionPer1M"], 1e-12)
	require.InDelta(t, 0.75, pricing["totalPer1M"], 1e-12)
	require.InDelta(t, 0.001, pricing["requestFee"], 1e-12)
	require.NotContains(t, pricing, "imageFee")
}
