package consider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/everstacklabs/scout/internal/cache"
	"github.com/everstacklabs/scout/internal/catalog"
	"github.com/everstacklabs/scout/internal/compare"
	"github.com/everstacklabs/scout/internal/cost"
	"github.com/everstacklabs/scout/internal/filter"
	"github.com/everstacklabs/scout/internal/intent"
	"github.com/everstacklabs/scout/internal/rank"
)

// Catalog supplies raw catalog snapshots. *cache.Cache implements it.
type Catalog interface {
	Obtain(ctx context.Context, forceRefresh bool) (cache.Result, error)
}

// Observer is notified when an operation finishes.
type Observer interface {
	Operation(name string, elapsed time.Duration, err error)
}

// Engine answers get_model and consider_models queries.
type Engine struct {
	catalog    Catalog
	maxResults int
	observer   Observer
}

// Option configures the Engine.
type Option func(*Engine)

// WithMaxResults sets the default result limit.
func WithMaxResults(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxResults = n
		}
	}
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// New creates an Engine over cat.
func New(cat Catalog, opts ...Option) *Engine {
	e := &Engine{catalog: cat, maxResults: DefaultMaxResults}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) observe(name string, start time.Time, err error) {
	if e.observer != nil {
		e.observer.Operation(name, time.Since(start), err)
	}
}

func (e *Engine) records(ctx context.Context, refresh bool) ([]catalog.ModelRecord, cache.Result, error) {
	snap, err := e.catalog.Obtain(ctx, refresh)
	if err != nil {
		return nil, cache.Result{}, err
	}
	return catalog.NormalizeAll(snap.Records), snap, nil
}

// GetModel looks up a single model by id, canonical slug, case-insensitive id
// or display-name substring.
func (e *Engine) GetModel(ctx context.Context, identifier string, refresh bool) (rec catalog.ModelRecord, err error) {
	defer func(start time.Time) { e.observe("get_model", start, err) }(time.Now())

	records, _, err := e.records(ctx, refresh)
	if err != nil {
		return catalog.ModelRecord{}, fmt.Errorf("get model: %w", err)
	}
	rec, err = catalog.Lookup(records, identifier)
	if err != nil {
		return catalog.ModelRecord{}, err
	}
	return rec, nil
}

// Consider filters, ranks, sorts and annotates the catalog for req.
func (e *Engine) Consider(ctx context.Context, req Request) (resp *Response, err error) {
	defer func(start time.Time) { e.observe("consider_models", start, err) }(time.Now())

	records, snap, err := e.records(ctx, req.Refresh)
	if err != nil {
		return nil, fmt.Errorf("consider models: %w", err)
	}

	in := intent.Parse(req.Text)
	merged := filter.Merge(in.Filters, req.Filters)

	var notes []string
	working := records
	if len(req.Models) > 0 {
		var missing []string
		working, missing = restrict(records, req.Models)
		for _, id := range missing {
			notes = append(notes, fmt.Sprintf("no model matches identifier %q", id))
		}
	}

	filtered := filter.Apply(working, merged)

	ranked := len(in.SearchTerms) > 0
	scored := rank.Score(filtered, in.SearchTerms)

	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = in.SortPreference
	} else if !rank.Criterion(sortBy).Valid() {
		notes = append(notes, fmt.Sprintf("unknown sort criterion %q; order left as ranked", sortBy))
	}
	scored = rank.SortScored(scored, rank.Criterion(sortBy))

	total := len(scored)
	limit := req.MaxResults
	if limit <= 0 {
		limit = e.maxResults
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}

	resp = &Response{
		Interpretation: Interpretation{
			Request:        req.Text,
			UnderstoodAs:   in.UnderstoodAs,
			SearchTerms:    in.SearchTerms,
			AppliedFilters: merged,
			SortBy:         sortBy,
			TotalMatches:   total,
			Returned:       len(scored),
			Catalog: CatalogInfo{
				Size:       len(records),
				AgeSeconds: snap.AgeSeconds,
				Cached:     snap.WasCached,
			},
		},
		Models: make([]ModelEntry, len(scored)),
	}

	var estimates []cost.Estimate
	for i, s := range scored {
		entry := newEntry(s.Record)
		if ranked {
			score := s.Score
			entry.Score = &score
		}
		if req.Workload != nil {
			est := cost.Calculate(s.Record, *req.Workload)
			entry.Cost = &est
			estimates = append(estimates, est)
		}
		resp.Models[i] = entry
	}

	if len(req.Models) >= compare.MinModels {
		result, note := comparison(records, req)
		resp.Comparison = result
		if note != "" {
			notes = append(notes, note)
		}
	}

	resp.CostAnalysis = analyzeCosts(estimates)
	resp.Notes = notes

	slog.Info("consideration complete",
		"understood_as", in.UnderstoodAs,
		"terms", len(in.SearchTerms),
		"matches", total,
		"returned", len(scored),
		"cached", snap.WasCached,
	)
	return resp, nil
}

// restrict keeps the records matched by any identifier, in snapshot order,
// and reports identifiers that matched nothing.
func restrict(records []catalog.ModelRecord, identifiers []string) ([]catalog.ModelRecord, []string) {
	keep := make(map[string]bool, len(identifiers))
	var missing []string
	for _, id := range identifiers {
		rec, ok := catalog.MatchIdentifier(records, id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		keep[rec.ID] = true
	}

	out := make([]catalog.ModelRecord, 0, len(keep))
	for _, r := range records {
		if keep[r.ID] {
			out = append(out, r)
		}
	}
	return out, missing
}

// comparison resolves the requested identifiers in request order against the
// whole snapshot and compares them.
func comparison(records []catalog.ModelRecord, req Request) (*compare.Result, string) {
	seen := make(map[string]bool, len(req.Models))
	var resolved []catalog.ModelRecord
	for _, id := range req.Models {
		rec, ok := catalog.MatchIdentifier(records, id)
		if !ok || seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		resolved = append(resolved, rec)
	}

	res, err := compare.Build(resolved, req.Workload)
	if err != nil {
		return nil, fmt.Sprintf("comparison skipped: %v", err)
	}
	return &res, ""
}

func newEntry(r catalog.ModelRecord) ModelEntry {
	caps := r.Capabilities()
	if caps == nil {
		caps = []string{}
	}
	return ModelEntry{
		ID:                  r.ID,
		DisplayName:         r.DisplayName,
		Provider:            r.Provider,
		Description:         r.Description,
		ContextLength:       r.ContextLength,
		MaxCompletionTokens: r.MaxCompletionTokens,
		Modality:            r.Modality,
		Pricing:             r.Pricing,
		IsFree:              r.IsFree(),
		Capabilities:        caps,
	}
}

// analyzeCosts needs at least two estimates. Ties keep the earliest model.
func analyzeCosts(estimates []cost.Estimate) *CostAnalysis {
	if len(estimates) < 2 {
		return nil
	}
	lo, hi := 0, 0
	for i := 1; i < len(estimates); i++ {
		if estimates[i].Total.LessThan(estimates[lo].Total) {
			lo = i
		}
		if estimates[i].Total.GreaterThan(estimates[hi].Total) {
			hi = i
		}
	}
	cheap, dear := estimates[lo], estimates[hi]
	return &CostAnalysis{
		Cheapest:      CostPoint{ModelID: cheap.ModelID, Total: cheap.Total.InexactFloat64()},
		MostExpensive: CostPoint{ModelID: dear.ModelID, Total: dear.Total.InexactFloat64()},
		Difference:    dear.Total.Sub(cheap.Total).InexactFloat64(),
	}
}
