package intent

import (
	"slices"
	"strings"

	"github.com/everstacklabs/scout/internal/filter"
)

// Sort preferences derived from request text.
const (
	SortRelevance = "relevance"
	SortPrice     = "price"
	SortContext   = "context"
)

// LongContextThreshold is the minimum context length implied by "long context".
const LongContextThreshold = 100000

// DefaultLabel is used when no rule fires.
const DefaultLabel = "general model search"

// Intent is the structured reading of a free-text request.
type Intent struct {
	Filters        filter.Filters `json:"filters"`
	SearchTerms    []string       `json:"searchTerms"`
	SortPreference string         `json:"sortPreference"`
	UnderstoodAs   string         `json:"understoodAs"`
}

// rule maps detected keywords to an effect. Rules are listed in label
// precedence order; every rule is evaluated regardless of earlier matches.
// Searchable rules add their matched keywords to the search terms.
type rule struct {
	label      string
	keywords   []string
	searchable bool
	apply      func(in *Intent)
}

var rules = []rule{
	{
		label:    "free models",
		keywords: []string{"free"},
		apply:    func(in *Intent) { in.Filters.FreeOnly = boolPtr(true) },
	},
	{
		label:    "cost-optimized models",
		keywords: []string{"cheap", "affordable", "low cost", "low-cost", "inexpensive", "budget"},
		apply:    func(in *Intent) { in.SortPreference = preferSort(in.SortPreference, SortPrice) },
	},
	{
		label:    "long-context models",
		keywords: []string{"long context", "large context", "long-context", "large-context"},
		apply: func(in *Intent) {
			in.Filters.MinContext = intPtr(LongContextThreshold)
			in.SortPreference = preferSort(in.SortPreference, SortContext)
		},
	},
	{
		label:      "vision-capable models",
		keywords:   []string{"vision", "image", "multimodal"},
		searchable: true,
		apply:      func(in *Intent) { in.Filters.HasVision = boolPtr(true) },
	},
	{
		label:      "tool-calling models",
		keywords:   []string{"tool", "function"},
		searchable: true,
		apply:      func(in *Intent) { in.Filters.HasTools = boolPtr(true) },
	},
	{
		label:      "reasoning models",
		keywords:   []string{"reasoning", "think"},
		searchable: true,
		apply:      func(in *Intent) { in.Filters.HasReasoning = boolPtr(true) },
	},
	{
		label:      "instruction-tuned models",
		keywords:   []string{"instruct"},
		searchable: true,
	},
	{
		label:      "chat models",
		keywords:   []string{"chat"},
		searchable: true,
	},
	{
		label: "models from a specific provider or family",
		keywords: []string{
			"openai", "anthropic", "google", "meta", "mistral", "deepseek", "qwen",
			"llama", "claude", "gpt", "gemini", "gemma", "grok", "cohere", "command-r",
			"nvidia", "perplexity", "microsoft", "amazon", "nova",
		},
		searchable: true,
	},
}

// sortRank orders sort preferences when several rules set one.
var sortRank = map[string]int{SortRelevance: 0, SortContext: 1, SortPrice: 2}

func preferSort(current, candidate string) string {
	if sortRank[candidate] > sortRank[current] {
		return candidate
	}
	return current
}

// Parse derives an Intent from request text. It is deterministic and
// case-insensitive.
func Parse(text string) Intent {
	in := Intent{SortPreference: SortRelevance, SearchTerms: []string{}}
	lower := strings.ToLower(text)

	for _, r := range rules {
		matched := matchedKeywords(lower, r.keywords)
		if len(matched) == 0 {
			continue
		}
		if in.UnderstoodAs == "" {
			in.UnderstoodAs = r.label
		}
		if r.apply != nil {
			r.apply(&in)
		}
		if r.searchable {
			for _, kw := range matched {
				if !slices.Contains(in.SearchTerms, kw) {
					in.SearchTerms = append(in.SearchTerms, kw)
				}
			}
		}
	}

	if in.UnderstoodAs == "" {
		in.UnderstoodAs = DefaultLabel
	}
	return in
}

func matchedKeywords(text string, keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			out = append(out, kw)
		}
	}
	return out
}

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int { return &v }
