package filter

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/everstacklabs/scout/internal/catalog"
)

// Filters is a set of optional predicates. A nil field imposes no constraint;
// every non-nil field must hold for a record to survive.
type Filters struct {
	Provider      []string `json:"provider,omitempty"`
	FreeOnly      *bool    `json:"freeOnly,omitempty"`
	MinContext    *int     `json:"minContext,omitempty"`
	MaxContext    *int     `json:"maxContext,omitempty"`
	MaxPricePer1M *float64 `json:"maxPricePer1M,omitempty"`
	HasVision     *bool    `json:"hasVision,omitempty"`
	HasTools      *bool    `json:"hasTools,omitempty"`
	HasReasoning  *bool    `json:"hasReasoning,omitempty"`
	Modality      *string  `json:"modality,omitempty"`
}

// IsEmpty reports whether no field is set.
func (f Filters) IsEmpty() bool {
	return len(f.Provider) == 0 && f.FreeOnly == nil && f.MinContext == nil &&
		f.MaxContext == nil && f.MaxPricePer1M == nil && f.HasVision == nil &&
		f.HasTools == nil && f.HasReasoning == nil && f.Modality == nil
}

// Apply returns the records that satisfy f, in their original order.
func Apply(records []catalog.ModelRecord, f Filters) []catalog.ModelRecord {
	var maxPrice decimal.Decimal
	if f.MaxPricePer1M != nil {
		maxPrice = decimal.NewFromFloat(*f.MaxPricePer1M)
	}

	out := make([]catalog.ModelRecord, 0, len(records))
	for _, r := range records {
		if f.matches(r, maxPrice) {
			out = append(out, r)
		}
	}
	return out
}

func (f Filters) matches(r catalog.ModelRecord, maxPrice decimal.Decimal) bool {
	if len(f.Provider) > 0 && !matchesProvider(r.Provider, f.Provider) {
		return false
	}
	// freeOnly=false is not a "paid only" constraint.
	if f.FreeOnly != nil && *f.FreeOnly && !r.IsFree() {
		return false
	}
	if f.MinContext != nil && r.ContextLength < *f.MinContext {
		return false
	}
	if f.MaxContext != nil && r.ContextLength > *f.MaxContext {
		return false
	}
	if f.MaxPricePer1M != nil && r.Pricing.TotalPer1M().GreaterThan(maxPrice) {
		return false
	}
	if f.HasVision != nil && r.HasVision() != *f.HasVision {
		return false
	}
	if f.HasTools != nil && r.HasTools() != *f.HasTools {
		return false
	}
	if f.HasReasoning != nil && r.HasReasoning() != *f.HasReasoning {
		return false
	}
	if f.Modality != nil && r.Modality != *f.Modality {
		return false
	}
	return true
}

func matchesProvider(provider string, wanted []string) bool {
	for _, w := range wanted {
		if strings.EqualFold(provider, strings.TrimSpace(w)) {
			return true
		}
	}
	return false
}

// Merge combines intent-derived filters with explicit ones. For every field
// set in explicit, the explicit value wins.
func Merge(intent, explicit Filters) Filters {
	out := intent
	if len(explicit.Provider) > 0 {
		out.Provider = explicit.Provider
	}
	if explicit.FreeOnly != nil {
		out.FreeOnly = explicit.FreeOnly
	}
	if explicit.MinContext != nil {
		out.MinContext = explicit.MinContext
	}
	if explicit.MaxContext != nil {
		out.MaxContext = explicit.MaxContext
	}
	if explicit.MaxPricePer1M != nil {
		out.MaxPricePer1M = explicit.MaxPricePer1M
	}
	if explicit.HasVision != nil {
		out.HasVision = explicit.HasVision
	}
	if explicit.HasTools != nil {
		out.HasTools = explicit.HasTools
	}
	if explicit.HasReasoning != nil {
		out.HasReasoning = explicit.HasReasoning
	}
	if explicit.Modality != nil {
		out.Modality = explicit.Modality
	}
	return out
}
