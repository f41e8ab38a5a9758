package consider

import (
	"github.com/everstacklabs/scout/internal/catalog"
	"github.com/everstacklabs/scout/internal/compare"
	"github.com/everstacklabs/scout/internal/cost"
	"github.com/everstacklabs/scout/internal/filter"
)

// DefaultMaxResults caps the returned model list when a request sets no limit.
const DefaultMaxResults = 10

// Request is a consideration query: free text plus optional structured input.
type Request struct {
	Text       string         `json:"request"`
	Filters    filter.Filters `json:"filters"`
	Models     []string       `json:"models,omitempty"`
	SortBy     string         `json:"sortBy,omitempty"`
	MaxResults int            `json:"maxResults,omitempty"`
	Workload   *cost.Workload `json:"workload,omitempty"`
	Refresh    bool           `json:"refresh,omitempty"`
}

// Response is the assembled answer to a Request.
type Response struct {
	Interpretation Interpretation  `json:"interpretation"`
	Models         []ModelEntry    `json:"models"`
	Comparison     *compare.Result `json:"comparison,omitempty"`
	CostAnalysis   *CostAnalysis   `json:"costAnalysis,omitempty"`
	Notes          []string        `json:"notes,omitempty"`
}

// Interpretation explains how the request was read and what it matched.
type Interpretation struct {
	Request        string         `json:"request"`
	UnderstoodAs   string         `json:"understoodAs"`
	SearchTerms    []string       `json:"searchTerms"`
	AppliedFilters filter.Filters `json:"appliedFilters"`
	SortBy         string         `json:"sortBy"`
	TotalMatches   int            `json:"totalMatches"`
	Returned       int            `json:"returned"`
	Catalog        CatalogInfo    `json:"catalog"`
}

// CatalogInfo describes the snapshot a response was computed from.
type CatalogInfo struct {
	Size       int     `json:"size"`
	AgeSeconds float64 `json:"ageSeconds"`
	Cached     bool    `json:"cached"`
}

// ModelEntry is one returned model with its annotations.
type ModelEntry struct {
	ID                  string          `json:"id"`
	DisplayName         string          `json:"displayName"`
	Provider            string          `json:"provider"`
	Description         string          `json:"description,omitempty"`
	ContextLength       int             `json:"contextLength"`
	MaxCompletionTokens *int            `json:"maxCompletionTokens,omitempty"`
	Modality            string          `json:"modality,omitempty"`
	Pricing             catalog.Pricing `json:"pricing"`
	IsFree              bool            `json:"isFree"`
	Capabilities        []string        `json:"capabilities"`
	Score               *int            `json:"relevanceScore,omitempty"`
	Cost                *cost.Estimate  `json:"cost,omitempty"`
}

// CostAnalysis contrasts the cheapest and most expensive returned models
// for the request's workload.
type CostAnalysis struct {
	Cheapest      CostPoint `json:"cheapest"`
	MostExpensive CostPoint `json:"mostExpensive"`
	Difference    float64   `json:"difference"`
}

// CostPoint is one model's projected total.
type CostPoint struct {
	ModelID string  `json:"modelId"`
	Total   float64 `json:"total"`
}
