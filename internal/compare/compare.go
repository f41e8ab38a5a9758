package compare

import (
	"errors"
	"fmt"

	"github.com/everstacklabs/scout/internal/catalog"
	"github.com/everstacklabs/scout/internal/cost"
)

// Comparison size bounds, inclusive.
const (
	MinModels = 2
	MaxModels = 5
)

// ErrInvalidComparisonSize is returned for fewer than MinModels or more than
// MaxModels records.
var ErrInvalidComparisonSize = errors.New("invalid comparison size")

// PricingRow is one model's prices, per million tokens unless noted.
type PricingRow struct {
	ModelID         string   `json:"modelId"`
	DisplayName     string   `json:"displayName"`
	PromptPer1M     float64  `json:"promptPer1M"`
	CompletionPer1M float64  `json:"completionPer1M"`
	TotalPer1M      float64  `json:"totalPer1M"`
	RequestFee      *float64 `json:"requestFee,omitempty"`
	ImageFee        *float64 `json:"imageFee,omitempty"`
	IsFree          bool     `json:"isFree"`
}

// CapabilityRow is one model's limits and feature flags.
type CapabilityRow struct {
	ModelID             string   `json:"modelId"`
	ContextLength       int      `json:"contextLength"`
	MaxCompletionTokens *int     `json:"maxCompletionTokens,omitempty"`
	Modality            string   `json:"modality,omitempty"`
	Vision              bool     `json:"vision"`
	Tools               bool     `json:"tools"`
	Reasoning           bool     `json:"reasoning"`
	ParameterCount      int      `json:"parameterCount"`
	Capabilities        []string `json:"capabilities"`
}

// Summary names the winning model id per attribute.
type Summary struct {
	Cheapest            string `json:"cheapest"`
	HighestContext      string `json:"highestContext"`
	MostCapable         string `json:"mostCapable"`
	CheapestForWorkload string `json:"cheapestForWorkload,omitempty"`
}

// Result is a side-by-side comparison. Row i of every table describes
// input record i.
type Result struct {
	Pricing      []PricingRow    `json:"pricing"`
	Capabilities []CapabilityRow `json:"capabilities"`
	Costs        []cost.Estimate `json:"costs,omitempty"`
	Summary      Summary         `json:"summary"`
}

// Build compares records. When workload is non-nil a cost table is added and
// the summary names the cheapest model for it. Every summary field breaks
// ties in favor of the earliest record.
func Build(records []catalog.ModelRecord, workload *cost.Workload) (Result, error) {
	if len(records) < MinModels || len(records) > MaxModels {
		return Result{}, fmt.Errorf("%w: got %d models, need %d to %d",
			ErrInvalidComparisonSize, len(records), MinModels, MaxModels)
	}

	res := Result{
		Pricing:      make([]PricingRow, len(records)),
		Capabilities: make([]CapabilityRow, len(records)),
	}
	for i, r := range records {
		res.Pricing[i] = pricingRow(r)
		res.Capabilities[i] = capabilityRow(r)
	}

	cheapest, widest, richest := 0, 0, 0
	for i := 1; i < len(records); i++ {
		r := records[i]
		if r.Pricing.TotalPer1M().LessThan(records[cheapest].Pricing.TotalPer1M()) {
			cheapest = i
		}
		if r.ContextLength > records[widest].ContextLength {
			widest = i
		}
		if len(r.SupportedParameters) > len(records[richest].SupportedParameters) {
			richest = i
		}
	}
	res.Summary = Summary{
		Cheapest:       records[cheapest].ID,
		HighestContext: records[widest].ID,
		MostCapable:    records[richest].ID,
	}

	if workload != nil {
		res.Costs = make([]cost.Estimate, len(records))
		best := 0
		for i, r := range records {
			res.Costs[i] = cost.Calculate(r, *workload)
			if res.Costs[i].Total.LessThan(res.Costs[best].Total) {
				best = i
			}
		}
		res.Summary.CheapestForWorkload = records[best].ID
	}

	return res, nil
}

func pricingRow(r catalog.ModelRecord) PricingRow {
	p := r.Pricing
	row := PricingRow{
		ModelID:         r.ID,
		DisplayName:     r.DisplayName,
		PromptPer1M:     p.PromptPer1M().InexactFloat64(),
		CompletionPer1M: p.CompletionPer1M().InexactFloat64(),
		TotalPer1M:      p.TotalPer1M().InexactFloat64(),
		IsFree:          r.IsFree(),
	}
	if p.RequestFee != nil {
		f := p.RequestFee.InexactFloat64()
		row.RequestFee = &f
	}
	if p.ImageFee != nil {
		f := p.ImageFee.InexactFloat64()
		row.ImageFee = &f
	}
	return row
}

func capabilityRow(r catalog.ModelRecord) CapabilityRow {
	caps := r.Capabilities()
	if caps == nil {
		caps = []string{}
	}
	return CapabilityRow{
		ModelID:             r.ID,
		ContextLength:       r.ContextLength,
		MaxCompletionTokens: r.MaxCompletionTokens,
		Modality:            r.Modality,
		Vision:              r.HasVision(),
		Tools:               r.HasTools(),
		Reasoning:           r.HasReasoning(),
		ParameterCount:      len(r.SupportedParameters),
		Capabilities:        caps,
	}
}
