package diff

import (
	"math"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/everstacklabs/scout/internal/catalog"
)

// Field names reported in FieldChange.
const (
	FieldDisplayName         = "display_name"
	FieldPromptPrice         = "pricing.prompt_per_1m"
	FieldCompletionPrice     = "pricing.completion_per_1m"
	FieldRequestFee          = "pricing.request_fee"
	FieldContextLength       = "context_length"
	FieldMaxCompletionTokens = "max_completion_tokens"
	FieldModality            = "modality"
	FieldInputModalities     = "input_modalities"
	FieldOutputModalities    = "output_modalities"
	FieldSupportedParameters = "supported_parameters"
	FieldModerated           = "is_moderated"
)

// DiffOptions controls diff behavior.
type DiffOptions struct {
	// TrackDisplayName enables reporting display name changes.
	TrackDisplayName bool
}

// Compute compares the previous snapshot against the next one. Output slices
// follow snapshot order so repeated diffs render identically.
func Compute(source string, prev, next []catalog.ModelRecord, opts DiffOptions) *ChangeSet {
	cs := &ChangeSet{Source: source}

	previous := make(map[string]catalog.ModelRecord, len(prev))
	for _, r := range prev {
		previous[r.ID] = r
	}
	present := make(map[string]bool, len(next))

	for _, r := range next {
		present[r.ID] = true
		old, exists := previous[r.ID]
		if !exists {
			cs.Added = append(cs.Added, ModelChange{ID: r.ID, Model: r})
			continue
		}

		changes := computeFieldChanges(old, r, opts)
		if len(changes) > 0 {
			cs.Updated = append(cs.Updated, ModelUpdate{ID: r.ID, Model: r, Changes: changes})
		} else {
			cs.Unchanged++
		}
	}

	for _, r := range prev {
		if !present[r.ID] {
			cs.Removed = append(cs.Removed, ModelChange{ID: r.ID, Model: r})
		}
	}

	cs.PossibleRenames = detectRenames(cs.Added, cs.Removed)
	return cs
}

func computeFieldChanges(old, cur catalog.ModelRecord, opts DiffOptions) []FieldChange {
	var changes []FieldChange
	add := func(field string, o, n any) {
		changes = append(changes, FieldChange{Field: field, OldValue: o, NewValue: n})
	}

	if opts.TrackDisplayName && old.DisplayName != cur.DisplayName {
		add(FieldDisplayName, old.DisplayName, cur.DisplayName)
	}

	op, cp := old.Pricing, cur.Pricing
	if !op.PromptPerToken.Equal(cp.PromptPerToken) {
		add(FieldPromptPrice, op.PromptPer1M().String(), cp.PromptPer1M().String())
	}
	if !op.CompletionPerToken.Equal(cp.CompletionPerToken) {
		add(FieldCompletionPrice, op.CompletionPer1M().String(), cp.CompletionPer1M().String())
	}
	if feeString(op.RequestFee) != feeString(cp.RequestFee) {
		add(FieldRequestFee, feeString(op.RequestFee), feeString(cp.RequestFee))
	}

	if old.ContextLength != cur.ContextLength {
		add(FieldContextLength, old.ContextLength, cur.ContextLength)
	}
	if intValue(old.MaxCompletionTokens) != intValue(cur.MaxCompletionTokens) {
		add(FieldMaxCompletionTokens, intValue(old.MaxCompletionTokens), intValue(cur.MaxCompletionTokens))
	}
	if old.Modality != cur.Modality {
		add(FieldModality, old.Modality, cur.Modality)
	}
	if !equalStringSets(old.InputModalities, cur.InputModalities) {
		add(FieldInputModalities, old.InputModalities, cur.InputModalities)
	}
	if !equalStringSets(old.OutputModalities, cur.OutputModalities) {
		add(FieldOutputModalities, old.OutputModalities, cur.OutputModalities)
	}
	if !equalStringSets(old.SupportedParameters, cur.SupportedParameters) {
		add(FieldSupportedParameters, old.SupportedParameters, cur.SupportedParameters)
	}
	if old.IsModerated != cur.IsModerated {
		add(FieldModerated, old.IsModerated, cur.IsModerated)
	}

	return changes
}

func feeString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// equalStringSets compares two string slices, ignoring order.
func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := slices.Clone(a)
	sb := slices.Clone(b)
	slices.Sort(sa)
	slices.Sort(sb)
	return slices.Equal(sa, sb)
}

// detectRenames pairs removed and added models from the same provider with
// similar context length (within 10%) and prompt price (within 20%). Dated
// snapshots are retired routinely and never count as renames.
func detectRenames(added, removed []ModelChange) []RenamePair {
	var renames []RenamePair

	for _, newM := range added {
		for _, oldM := range removed {
			if looksLikeDatedSnapshot(oldM.ID) {
				continue
			}
			if newM.Model.Provider != oldM.Model.Provider || newM.Model.Provider == "" {
				continue
			}

			if oldM.Model.ContextLength > 0 && newM.Model.ContextLength > 0 {
				ratio := float64(newM.Model.ContextLength) / float64(oldM.Model.ContextLength)
				if math.Abs(ratio-1.0) > 0.1 {
					continue
				}
			}

			oldPrice := oldM.Model.Pricing.PromptPer1M().InexactFloat64()
			newPrice := newM.Model.Pricing.PromptPer1M().InexactFloat64()
			if oldPrice > 0 {
				if math.Abs(newPrice/oldPrice-1.0) > 0.2 {
					continue
				}
			}

			renames = append(renames, RenamePair{
				OldID:  oldM.ID,
				NewID:  newM.ID,
				Reason: "same provider, similar context/price",
			})
		}
	}

	return renames
}

// looksLikeDatedSnapshot checks if a model id contains a date-like segment,
// e.g. "openai/gpt-4o-2024-05-13" or "anthropic/claude-3-opus-20240229".
func looksLikeDatedSnapshot(id string) bool {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	id, _, _ = strings.Cut(id, ":")
	parts := strings.Split(id, "-")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts[1:] {
		if (len(p) == 4 || len(p) == 8) && isAllDigits(p) {
			return true
		}
	}
	// YYYY-MM-DD across three segments
	for i := 1; i+2 < len(parts); i++ {
		if len(parts[i]) == 4 && len(parts[i+1]) == 2 && len(parts[i+2]) == 2 &&
			isAllDigits(parts[i]) && isAllDigits(parts[i+1]) && isAllDigits(parts[i+2]) {
			return true
		}
	}
	return false
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
