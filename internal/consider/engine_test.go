package consider

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/everstacklabs/scout/internal/adapter"
	"github.com/everstacklabs/scout/internal/cache"
	"github.com/everstacklabs/scout/internal/catalog"
	"github.com/everstacklabs/scout/internal/cost"
	"github.com/everstacklabs/scout/internal/filter"
)

type staticCatalog struct {
	records []adapter.RawModel
	err     error
	forced  []bool
}

func (s *staticCatalog) Obtain(_ context.Context, force bool) (cache.Result, error) {
	s.forced = append(s.forced, force)
	if s.err != nil {
		return cache.Result{}, s.err
	}
	return cache.Result{Records: s.records, AgeSeconds: 42, WasCached: true}, nil
}

type opRecorder struct {
	ops  []string
	errs []error
}

func (o *opRecorder) Operation(name string, _ time.Duration, err error) {
	o.ops = append(o.ops, name)
	o.errs = append(o.errs, err)
}

func ptr[T any](v T) *T { return &v }

func entryIDs(entries []ModelEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func sampleCatalog() *staticCatalog {
	return &staticCatalog{records: []adapter.RawModel{
		{ID: "openai/gpt-4o", CanonicalSlug: "openai/gpt-4o-2024-05-13", Name: "OpenAI: GPT-4o", ContextLength: 128000,
			Architecture:        adapter.Architecture{Modality: "text+image->text", InputModalities: []string{"text", "image"}},
			Pricing:             adapter.RawPricing{Prompt: "0.0000025", Completion: "0.00001"},
			SupportedParameters: []string{"tools", "tool_choice", "response_format"}},
		{ID: "anthropic/claude-3.5-sonnet", Name: "Anthropic: Claude 3.5 Sonnet", ContextLength: 200000,
			Architecture:        adapter.Architecture{Modality: "text+image->text", InputModalities: []string{"text", "image"}},
			Pricing:             adapter.RawPricing{Prompt: "0.000003", Completion: "0.000015"},
			SupportedParameters: []string{"tools", "tool_choice"}},
		{ID: "meta-llama/llama-3.1-8b-instruct:free", Name: "Meta: Llama 3.1 8B Instruct (free)", ContextLength: 131072,
			Architecture: adapter.Architecture{Modality: "text->text"},
			Pricing:      adapter.RawPricing{Prompt: "0", Completion: "0"}},
		{ID: "deepseek/deepseek-r1", Name: "DeepSeek: R1", Description: "Open-weights reasoning model", ContextLength: 64000,
			Architecture:        adapter.Architecture{Modality: "text->text"},
			Pricing:             adapter.RawPricing{Prompt: "0.00000055", Completion: "0.00000219"},
			SupportedParameters: []string{"reasoning", "include_reasoning"}},
	}}
}

func TestConsiderCheapInstructScenario(t *testing.T) {
	cat := &staticCatalog{records: []adapter.RawModel{
		{ID: "acme/llama-instruct-v2", Name: "Llama Instruct v2",
			Pricing: adapter.RawPricing{Prompt: "0.00000025", Completion: "0.00000025"}},
		{ID: "acme/llama-chat-v2", Name: "Llama Chat v2",
			Pricing: adapter.RawPricing{Prompt: "0.000001", Completion: "0.000001"}},
	}}

	resp, err := New(cat).Consider(context.Background(), Request{Text: "cheap instructional model"})
	require.NoError(t, err)

	require.Contains(t, resp.Interpretation.SearchTerms, "instruct")
	require.Equal(t, "price", resp.Interpretation.SortBy)
	require.Equal(t, []string{"acme/llama-instruct-v2"}, entryIDs(resp.Models))
	require.InDelta(t, 0.5, resp.Models[0].Pricing.TotalPer1M().InexactFloat64(), 1e-12)
	require.NotNil(t, resp.Models[0].Score)
	require.Equal(t, 1, *resp.Models[0].Score)
}

func freeCatalog() (*staticCatalog, []string) {
	cat := &staticCatalog{}
	var free []string
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("vendor/model-%03d", i)
		p := adapter.RawPricing{Prompt: "0.000001", Completion: "0.000003"}
		if i%8 == 5 && len(free) < 12 {
			p = adapter.RawPricing{Prompt: "0", Completion: "0"}
			free = append(free, id)
		}
		cat.records = append(cat.records, adapter.RawModel{ID: id, Name: fmt.Sprintf("Model %03d", i), Pricing: p})
	}
	return cat, free
}

func TestConsiderFreeOnlyScenario(t *testing.T) {
	cat, free := freeCatalog()
	require.Len(t, free, 12)

	resp, err := New(cat).Consider(context.Background(), Request{
		Filters:    filter.Filters{FreeOnly: ptr(true)},
		MaxResults: 100,
	})
	require.NoError(t, err)
	require.Equal(t, free, entryIDs(resp.Models))
	require.Equal(t, 12, resp.Interpretation.TotalMatches)
	require.Equal(t, 100, resp.Interpretation.Catalog.Size)
}

func TestConsiderTruncatesToDefault(t *testing.T) {
	cat, free := freeCatalog()

	resp, err := New(cat).Consider(context.Background(), Request{Filters: filter.Filters{FreeOnly: ptr(true)}})
	require.NoError(t, err)
	require.Equal(t, free[:DefaultMaxResults], entryIDs(resp.Models))
	require.Equal(t, 12, resp.Interpretation.TotalMatches)
	require.Equal(t, DefaultMaxResults, resp.Interpretation.Returned)

	resp, err = New(cat, WithMaxResults(3)).Consider(context.Background(), Request{Filters: filter.Filters{FreeOnly: ptr(true)}})
	require.NoError(t, err)
	require.Len(t, resp.Models, 3)
}

func TestConsiderExplicitFiltersWin(t *testing.T) {
	resp, err := New(sampleCatalog()).Consider(context.Background(), Request{
		Text:    "free model",
		Filters: filter.Filters{FreeOnly: ptr(false), Provider: []string{"deepseek"}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"deepseek/deepseek-r1"}, entryIDs(resp.Models))
	require.False(t, *resp.Interpretation.AppliedFilters.FreeOnly)
	require.Equal(t, "free models", resp.Interpretation.UnderstoodAs)
}

func TestConsiderVisionSortedByContext(t *testing.T) {
	resp, err := New(sampleCatalog()).Consider(context.Background(), Request{
		Text:   "multimodal model",
		SortBy: "context",
	})
	require.NoError(t, err)
	// The "multimodal" term appears in no record text, so ranking drops everything.
	require.Empty(t, resp.Models)

	resp, err = New(sampleCatalog()).Consider(context.Background(), Request{
		Filters: filter.Filters{HasVision: ptr(true)},
		SortBy:  "context",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"anthropic/claude-3.5-sonnet", "openai/gpt-4o"}, entryIDs(resp.Models))
	require.Nil(t, resp.Models[0].Score)
	require.Equal(t, []string{"vision", "tools"}, resp.Models[0].Capabilities)
}

func TestConsiderRestrictsAndCompares(t *testing.T) {
	w := &cost.Workload{PromptTokens: ptr(int64(1_000_000)), CompletionTokens: ptr(int64(1_000_000))}
	resp, err := New(sampleCatalog()).Consider(context.Background(), Request{
		Models:   []string{"deepseek/deepseek-r1", "openai/gpt-4o-2024-05-13", "ANTHROPIC/claude-3.5-sonnet", "nope/missing"},
		Workload: w,
	})
	require.NoError(t, err)

	// Working set keeps snapshot order.
	require.Equal(t, []string{"openai/gpt-4o", "anthropic/claude-3.5-sonnet", "deepseek/deepseek-r1"}, entryIDs(resp.Models))
	require.Equal(t, []string{`no model matches identifier "nope/missing"`}, resp.Notes)

	require.NotNil(t, resp.Comparison)
	require.Equal(t, "deepseek/deepseek-r1", resp.Comparison.Pricing[0].ModelID)
	require.Equal(t, "openai/gpt-4o", resp.Comparison.Pricing[1].ModelID)
	require.Equal(t, "anthropic/claude-3.5-sonnet", resp.Comparison.Pricing[2].ModelID)
	require.Equal(t, "deepseek/deepseek-r1", resp.Comparison.Summary.Cheapest)
	require.Equal(t, "anthropic/claude-3.5-sonnet", resp.Comparison.Summary.HighestContext)
	require.Equal(t, "openai/gpt-4o", resp.Comparison.Summary.MostCapable)
	require.Equal(t, "deepseek/deepseek-r1", resp.Comparison.Summary.CheapestForWorkload)
	require.Len(t, resp.Comparison.Costs, 3)

	for _, m := range resp.Models {
		require.NotNil(t, m.Cost, m.ID)
	}
	require.NotNil(t, resp.CostAnalysis)
	require.Equal(t, "deepseek/deepseek-r1", resp.CostAnalysis.Cheapest.ModelID)
	require.Equal(t, "anthropic/claude-3.5-sonnet", resp.CostAnalysis.MostExpensive.ModelID)
	require.InDelta(t, 18.0, resp.CostAnalysis.MostExpensive.Total, 1e-9)
	require.InDelta(t, 2.74, resp.CostAnalysis.Cheapest.Total, 1e-9)
	require.InDelta(t, 15.26, resp.CostAnalysis.Difference, 1e-9)
}

func TestConsiderComparisonSkippedWithNote(t *testing.T) {
	resp, err := New(sampleCatalog()).Consider(context.Background(), Request{
		Models: []string{"openai/gpt-4o", "nope/one"},
	})
	require.NoError(t, err)
	require.Nil(t, resp.Comparison)
	require.Len(t, resp.Notes, 2)
	require.Contains(t, resp.Notes[1], "comparison skipped")

	six := []string{"a/1", "a/2", "a/3", "a/4", "a/5", "a/6"}
	resp, err = New(sampleCatalog()).Consider(context.Background(), Request{Models: six})
	require.NoError(t, err)
	require.Nil(t, resp.Comparison)
	require.Empty(t, resp.Models)
}

func TestConsiderSingleModelNoComparison(t *testing.T) {
	resp, err := New(sampleCatalog()).Consider(context.Background(), Request{Models: []string{"openai/gpt-4o"}})
	require.NoError(t, err)
	require.Nil(t, resp.Comparison)
	require.Empty(t, resp.Notes)
	require.Equal(t, []string{"openai/gpt-4o"}, entryIDs(resp.Models))
}

func TestConsiderUnknownSortNoted(t *testing.T) {
	resp, err := New(sampleCatalog()).Consider(context.Background(), Request{SortBy: "popularity"})
	require.NoError(t, err)
	require.Len(t, resp.Models, 4)
	require.Equal(t, "openai/gpt-4o", resp.Models[0].ID)
	require.Len(t, resp.Notes, 1)
}

func TestConsiderNoCostAnalysisForSingleEstimate(t *testing.T) {
	resp, err := New(sampleCatalog()).Consider(context.Background(), Request{
		Filters:  filter.Filters{Provider: []string{"openai"}},
		Workload: &cost.Workload{PromptTokens: ptr(int64(10))},
	})
	require.NoError(t, err)
	require.Len(t, resp.Models, 1)
	require.NotNil(t, resp.Models[0].Cost)
	require.Nil(t, resp.CostAnalysis)
}

func TestConsiderRefreshAndCatalogInfo(t *testing.T) {
	cat := sampleCatalog()
	resp, err := New(cat).Consider(context.Background(), Request{Refresh: true})
	require.NoError(t, err)
	require.Equal(t, []bool{true}, cat.forced)
	require.Equal(t, CatalogInfo{Size: 4, AgeSeconds: 42, Cached: true}, resp.Interpretation.Catalog)
	require.Equal(t, "relevance", resp.Interpretation.SortBy)
}

func TestConsiderUpstreamError(t *testing.T) {
	obs := &opRecorder{}
	cat := &staticCatalog{err: &adapter.UpstreamError{Source: "openrouter", StatusCode: 502}}

	_, err := New(cat, WithObserver(obs)).Consider(context.Background(), Request{Text: "anything"})
	require.ErrorIs(t, err, adapter.ErrUpstreamUnavailable)
	require.Equal(t, []string{"consider_models"}, obs.ops)
	require.Error(t, obs.errs[0])
}

func TestGetModel(t *testing.T) {
	obs := &opRecorder{}
	e := New(sampleCatalog(), WithObserver(obs))

	rec, err := e.GetModel(context.Background(), "Claude 3.5", false)
	require.NoError(t, err)
	require.Equal(t, "anthropic/claude-3.5-sonnet", rec.ID)

	_, err = e.GetModel(context.Background(), "mistral/unknown", false)
	require.ErrorIs(t, err, catalog.ErrModelNotFound)
	require.Equal(t, []string{"get_model", "get_model"}, obs.ops)
}

func TestResponseJSONShape(t *testing.T) {
	resp, err := New(sampleCatalog()).Consider(context.Background(), Request{Text: "reasoning"})
	require.NoError(t, err)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Contains(t, got, "interpretation")
	require.NotContains(t, got, "comparison")
	require.NotContains(t, got, "costAnalysis")

	models := got["models"].([]any)
	require.Len(t, models, 1)
	first := models[0].(map[string]any)
	require.Equal(t, "deepseek/deepseek-r1", first["id"])
	require.EqualValues(t, 1, first["relevanceScore"])
	require.Contains(t, first["pricing"], "totalPer1M")
}
