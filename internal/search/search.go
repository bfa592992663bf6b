// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search fans a query out to external document indexes and returns
// one normalized, deduplicated, ranked page of results.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/docsearch/internal/logging"
	"github.com/pdiddy/docsearch/pkg/types"
)

// Validation errors. The HTTP layer maps these to 400.
var (
	ErrEmptyQuery        = errors.New("query is empty")
	ErrUnknownSource     = errors.New("unknown source")
	ErrInvalidDateRange  = errors.New("invalid date range: want YYYY-YYYY")
	ErrInvalidMaxResults = errors.New("max_results must not be negative")
)

// ErrNoSources means no source is enabled, so no search can run.
var ErrNoSources = errors.New("no search sources enabled")

// SummaryUnavailable replaces a summary the model could not produce.
const SummaryUnavailable = "AI summary not available"

// Query is what every backend receives.
type Query struct {
	Text     string
	YearFrom int
	YearTo   int
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == ""
}

// QueryRewriter improves a query and proposes related ones. Both methods
// fall back (to the input, to nil) instead of failing.
type QueryRewriter interface {
	Rewrite(ctx context.Context, query string) string
	Suggest(ctx context.Context, query string) []string
}

// Summarizer writes a short summary from a result's metadata.
type Summarizer interface {
	Summarize(ctx context.Context, title, description string) (string, error)
}

// HistoryWriter persists one record per search.
type HistoryWriter interface {
	Record(ctx context.Context, rec types.SearchHistoryRecord) error
}

// Request is one aggregated search.
type Request struct {
	Query      string   `json:"query"`
	MaxResults int      `json:"max_results,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	DateRange  string   `json:"date_range,omitempty"`

	// Priority overrides the configured priority mode when set.
	Priority *bool `json:"priority,omitempty"`
}

// Response is the page returned for a Request.
type Response struct {
	Query              string                   `json:"query"`
	ReformulatedQuery  string                   `json:"reformulated_query"`
	Results            []types.NormalizedResult `json:"results"`
	TotalFound         int                      `json:"total_found"`
	SearchTime         float64                  `json:"search_time"`
	Suggestions        []string                 `json:"suggestions"`
	SourcesUsed        []string                 `json:"sources_used"`
	PrimarySourceCount *int                     `json:"primary_source_count,omitempty"`
	DuplicatesRemoved  int                      `json:"duplicates_removed"`
}

// Aggregator runs the search pipeline. Rewriter, Summarizer, History and
// Observer are optional.
type Aggregator struct {
	Registry   *Registry
	Rewriter   QueryRewriter
	Summarizer Summarizer
	History    HistoryWriter
	Observer   Observer
	Log        logrus.FieldLogger
	Config     types.SearchConfig
}

// plan is the validated form of a Request.
type plan struct {
	query    Query
	budget   int
	active   []*Source
	primary  *Source
	priority bool
}

// Search validates req, fans it out, and assembles the response. Only
// validation errors and ErrNoSources are returned; source, model, and
// history failures degrade the response instead.
func (a *Aggregator) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	p, err := a.plan(req)
	if err != nil {
		return nil, err
	}
	log := a.logger()

	rewritten := p.query.Text
	if a.Rewriter != nil {
		if r := strings.TrimSpace(a.Rewriter.Rewrite(ctx, p.query.Text)); r != "" {
			rewritten = r
		}
	}
	log.WithField("original", p.query.Text).WithField("reformulated", rewritten).Info("search started")

	suggestions := make(chan []string, 1)
	go func() {
		if a.Rewriter == nil {
			suggestions <- nil
			return
		}
		suggestions <- a.Rewriter.Suggest(ctx, p.query.Text)
	}()

	fanCtx := ctx
	if a.Config.Timeout > 0 {
		var cancel context.CancelFunc
		fanCtx, cancel = context.WithTimeout(ctx, a.Config.Timeout)
		defer cancel()
	}
	q := p.query
	q.Text = rewritten

	var (
		merged       []types.NormalizedResult
		primaryCount *int
		contributed  = make(map[string]bool)
	)
	if p.priority {
		merged, primaryCount = a.runPriority(fanCtx, q, p, contributed)
	} else {
		quota := SplitBudget(p.budget, len(p.active))
		quotas := make([]int, len(p.active))
		for i := range quotas {
			quotas[i] = quota
		}
		merged = fanOut(fanCtx, q, p.active, quotas, contributed)
	}

	results, removed := deduplicate(merged, a.Config.DedupByURL)
	rank(results)
	if len(results) > p.budget {
		results = results[:p.budget]
	}
	a.enrich(ctx, results)

	resp := &Response{
		Query:              p.query.Text,
		ReformulatedQuery:  rewritten,
		Results:            results,
		TotalFound:         len(results),
		Suggestions:        capSuggestions(<-suggestions),
		SourcesUsed:        sourcesUsed(a.Registry.Sources(), contributed),
		PrimarySourceCount: primaryCount,
		DuplicatesRemoved:  removed,
	}
	if resp.Results == nil {
		resp.Results = []types.NormalizedResult{}
	}
	elapsed := time.Since(start)
	resp.SearchTime = math.Round(elapsed.Seconds()*100) / 100

	a.record(ctx, resp)
	a.observer().ObserveSearch(elapsed, len(results))
	log.WithField("results", len(results)).WithField("duplicates", removed).
		WithField("elapsed", resp.SearchTime).Info("search finished")
	return resp, nil
}

// plan validates req against the registry and the configured limits.
func (a *Aggregator) plan(req Request) (plan, error) {
	text := strings.TrimSpace(req.Query)
	if text == "" {
		return plan{}, ErrEmptyQuery
	}
	if req.MaxResults < 0 {
		return plan{}, fmt.Errorf("%w: %d", ErrInvalidMaxResults, req.MaxResults)
	}
	from, to, err := ParseDateRange(req.DateRange)
	if err != nil {
		return plan{}, err
	}

	p := plan{
		query:  Query{Text: text, YearFrom: from, YearTo: to},
		budget: a.budget(req.MaxResults),
	}

	if len(req.Sources) == 0 {
		p.active = a.Registry.Sources()
	} else {
		selected := make(map[string]bool, len(req.Sources))
		for _, id := range req.Sources {
			id = strings.ToLower(strings.TrimSpace(id))
			if !Known(id) {
				return plan{}, fmt.Errorf("%w: %q", ErrUnknownSource, id)
			}
			if _, ok := a.Registry.Get(id); !ok {
				return plan{}, fmt.Errorf("%w: %q is not enabled", ErrUnknownSource, id)
			}
			selected[id] = true
		}
		for _, s := range a.Registry.Sources() {
			if selected[s.ID] {
				p.active = append(p.active, s)
			}
		}
	}
	if len(p.active) == 0 {
		return plan{}, ErrNoSources
	}

	priority := a.Config.Priority
	if req.Priority != nil {
		priority = *req.Priority
	}
	if priority {
		for _, s := range p.active {
			if s.ID == a.Registry.Primary() {
				p.primary = s
				p.priority = true
			}
		}
	}
	return p, nil
}

// budget clamps the requested result count: zero means the configured
// default, anything over the cap becomes the cap.
func (a *Aggregator) budget(requested int) int {
	m := requested
	if m <= 0 {
		m = a.Config.MaxResults
	}
	if m <= 0 {
		m = 20
	}
	if limit := a.Config.MaxResultsCap; limit > 0 && m > limit {
		m = limit
	}
	return m
}

// runPriority asks the primary source first. Secondaries only run when the
// primary delivered less than its quota; their results follow the primary's.
func (a *Aggregator) runPriority(ctx context.Context, q Query, p plan, contributed map[string]bool) ([]types.NormalizedResult, *int) {
	var secondaries []*Source
	for _, s := range p.active {
		if s != p.primary {
			secondaries = append(secondaries, s)
		}
	}
	primaryQuota, quotas := PriorityBudget(p.budget, len(secondaries))

	merged := p.primary.Search(ctx, q, primaryQuota)
	count := len(merged)
	if count > 0 {
		contributed[p.primary.ID] = true
	}
	if count >= primaryQuota || len(secondaries) == 0 {
		return merged, &count
	}

	// A budget too small to leave a secondary pool hands the primary's
	// shortfall to the secondaries instead.
	if sum(quotas) == 0 {
		quotas = spread(primaryQuota-count, len(secondaries))
	}
	a.logger().WithField("primary", p.primary.ID).WithField("got", count).
		WithField("quota", primaryQuota).Debug("primary under-delivered, asking secondaries")
	merged = append(merged, fanOut(ctx, q, secondaries, quotas, contributed)...)
	return merged, &count
}

// fanOut searches every source concurrently and concatenates the results
// in source order, independent of completion order. Sources with a zero
// quota are skipped.
func fanOut(ctx context.Context, q Query, sources []*Source, quotas []int, contributed map[string]bool) []types.NormalizedResult {
	perSource := make([][]types.NormalizedResult, len(sources))

	type sourceResult struct {
		idx     int
		results []types.NormalizedResult
	}
	ch := make(chan sourceResult, len(sources))
	var wg sync.WaitGroup

	for i, s := range sources {
		if quotas[i] <= 0 {
			continue
		}
		wg.Add(1)
		go func(i int, s *Source) {
			defer wg.Done()
			ch <- sourceResult{idx: i, results: s.Search(ctx, q, quotas[i])}
		}(i, s)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	for sr := range ch {
		perSource[sr.idx] = sr.results
	}

	var merged []types.NormalizedResult
	for i, results := range perSource {
		if len(results) > 0 {
			contributed[sources[i].ID] = true
		}
		merged = append(merged, results...)
	}
	return merged
}

// enrich summarizes the first EnrichCount results one at a time. A failed
// summary becomes the placeholder; the result is always kept.
func (a *Aggregator) enrich(ctx context.Context, results []types.NormalizedResult) {
	if a.Summarizer == nil {
		return
	}
	n := a.Config.EnrichCount
	if n <= 0 {
		n = 5
	}
	if n > len(results) {
		n = len(results)
	}
	for i := 0; i < n; i++ {
		summary, err := a.Summarizer.Summarize(ctx, results[i].Title, results[i].Description)
		if err != nil || strings.TrimSpace(summary) == "" {
			if err != nil {
				a.logger().WithError(err).WithField("title", results[i].Title).Warn("summary failed")
			}
			summary = SummaryUnavailable
		}
		results[i].AISummary = strings.TrimSpace(summary)
	}
}

// record writes the history entry. Failures are logged only.
func (a *Aggregator) record(ctx context.Context, resp *Response) {
	if a.History == nil {
		return
	}
	rec := types.SearchHistoryRecord{
		ID:                uuid.NewString(),
		OriginalQuery:     resp.Query,
		ReformulatedQuery: resp.ReformulatedQuery,
		ResultsCount:      resp.TotalFound,
		SourcesUsed:       resp.SourcesUsed,
		Timestamp:         now().UTC(),
		SearchTime:        resp.SearchTime,
	}
	if err := a.History.Record(ctx, rec); err != nil {
		a.logger().WithError(err).Error("recording search history")
	}
}

func (a *Aggregator) logger() logrus.FieldLogger {
	if a.Log == nil {
		return logging.Discard()
	}
	return a.Log
}

func (a *Aggregator) observer() Observer {
	if a.Observer == nil {
		return nopObserver{}
	}
	return a.Observer
}

// sourcesUsed returns the display names of the sources that contributed,
// in registry order.
func sourcesUsed(all []*Source, contributed map[string]bool) []string {
	names := []string{}
	for _, s := range all {
		if contributed[s.ID] {
			names = append(names, s.Name)
		}
	}
	return names
}

func capSuggestions(s []string) []string {
	out := []string{}
	for _, v := range s {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
		if len(out) == 3 {
			break
		}
	}
	return out
}
