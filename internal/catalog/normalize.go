package catalog

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/everstacklabs/scout/internal/adapter"
)

// Normalize maps one raw upstream entry into a ModelRecord. It never fails:
// missing optional fields become zero or absent values.
func Normalize(raw adapter.RawModel) ModelRecord {
	rec := ModelRecord{
		ID:                  raw.ID,
		CanonicalSlug:       raw.CanonicalSlug,
		DisplayName:         raw.Name,
		Provider:            providerOf(raw.ID),
		HuggingFaceID:       raw.HuggingFaceID,
		ContextLength:       max(raw.ContextLength, 0),
		Description:         raw.Description,
		Modality:            raw.Architecture.Modality,
		InputModalities:     slices.Clone(raw.Architecture.InputModalities),
		OutputModalities:    slices.Clone(raw.Architecture.OutputModalities),
		SupportedParameters: slices.Clone(raw.SupportedParameters),
		IsModerated:         raw.TopProvider.IsModerated,
		Pricing: Pricing{
			PromptPerToken:     parsePrice(raw.Pricing.Prompt),
			CompletionPerToken: parsePrice(raw.Pricing.Completion),
			RequestFee:         optionalFee(raw.Pricing.Request),
			ImageFee:           optionalFee(raw.Pricing.Image),
			WebSearchFee:       optionalFee(raw.Pricing.WebSearch),
			ReasoningFee:       optionalFee(raw.Pricing.InternalReasoning),
			CacheReadPerToken:  optionalFee(raw.Pricing.InputCacheRead),
		},
	}
	if rec.DisplayName == "" {
		rec.DisplayName = raw.ID
	}
	if raw.Created > 0 {
		rec.CreatedAt = time.Unix(raw.Created, 0).UTC()
	}
	if mct := raw.TopProvider.MaxCompletionTokens; mct != nil {
		v := *mct
		rec.MaxCompletionTokens = &v
	}
	return rec
}

// NormalizeAll normalizes a snapshot, preserving order.
func NormalizeAll(raws []adapter.RawModel) []ModelRecord {
	out := make([]ModelRecord, len(raws))
	for i, r := range raws {
		out[i] = Normalize(r)
	}
	return out
}

func providerOf(id string) string {
	provider, _, found := strings.Cut(id, "/")
	if !found {
		return ""
	}
	return provider
}

// parsePrice treats absent, unparsable and negative prices as zero.
func parsePrice(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func optionalFee(s string) *decimal.Decimal {
	d := parsePrice(s)
	if !d.IsPositive() {
		return nil
	}
	return &d
}
