// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/pdiddy/docsearch/internal/httputil"
	"github.com/pdiddy/docsearch/pkg/types"
)

// Backend searches a single external index. Each source (web index, paper
// index, book catalog, archive, citation graph) implements this interface.
// A backend returns at most quota results and reports transport, status,
// and decode failures as errors; Source turns those into empty results.
type Backend interface {
	Name() string
	Search(ctx context.Context, query Query, quota int) ([]types.NormalizedResult, error)
}

// Observer receives pipeline measurements. internal/metrics implements it.
type Observer interface {
	ObserveSource(source string, elapsed time.Duration, results int, failed bool)
	ObserveSearch(elapsed time.Duration, results int)
}

type nopObserver struct{}

func (nopObserver) ObserveSource(string, time.Duration, int, bool) {}
func (nopObserver) ObserveSearch(time.Duration, int)               {}

// Source ids. The order of Descriptors is the merge order of the
// secondary sources.
const (
	SourceGoogle          = "google"
	SourceOpenAlex        = "openalex"
	SourceGutenberg       = "gutenberg"
	SourceArchive         = "archive"
	SourceSemanticScholar = "semantic_scholar"
	SourceArxiv           = "arxiv"
)

// Descriptors lists every source the service knows about.
var Descriptors = []types.SourceDescriptor{
	{ID: SourceGoogle, Name: "Google PDF Search", Description: "Web-wide PDF discovery through Google Custom Search"},
	{ID: SourceOpenAlex, Name: "OpenAlex", Description: "Open-access scholarly works indexed by OpenAlex"},
	{ID: SourceGutenberg, Name: "Project Gutenberg", Description: "Public-domain books from the Project Gutenberg catalog"},
	{ID: SourceArchive, Name: "Internet Archive", Description: "PDF items held by the Internet Archive"},
	{ID: SourceSemanticScholar, Name: "Semantic Scholar", Description: "Papers ranked by citations in the Semantic Scholar graph"},
	{ID: SourceArxiv, Name: "arXiv", Description: "Preprints from arXiv.org"},
}

// displayName returns the descriptor name for id, or id itself.
func displayName(id string) string {
	for _, d := range Descriptors {
		if d.ID == id {
			return d.Name
		}
	}
	return id
}

// Source guards a Backend: failures, panics, and an open circuit all
// surface as an empty result list plus a log entry, never as an error.
type Source struct {
	ID      string
	Name    string
	backend Backend
	breaker *gobreaker.CircuitBreaker
	log     logrus.FieldLogger
	obs     Observer
}

// NewSource wraps backend. A nil observer records nothing.
func NewSource(backend Backend, log logrus.FieldLogger, obs Observer) *Source {
	if obs == nil {
		obs = nopObserver{}
	}
	id := backend.Name()
	srcLog := log.WithField("source", id)
	return &Source{
		ID:      id,
		Name:    displayName(id),
		backend: backend,
		log:     srcLog,
		obs:     obs,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        id,
			MaxRequests: 1,
			Interval:    5 * time.Minute,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				srcLog.Warnf("circuit breaker %s -> %s", from, to)
			},
		}),
	}
}

// Search runs the backend with the given quota. It never fails: the
// returned slice is empty when the backend could not deliver.
func (s *Source) Search(ctx context.Context, query Query, quota int) []types.NormalizedResult {
	if quota <= 0 {
		return nil
	}
	start := time.Now()

	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.call(ctx, query, quota)
	})
	if err != nil {
		s.log.WithError(err).Warn("source search failed")
		s.obs.ObserveSource(s.ID, time.Since(start), 0, true)
		return nil
	}

	results := out.([]types.NormalizedResult)
	if len(results) > quota {
		results = results[:quota]
	}
	s.log.WithField("count", len(results)).Debug("source search done")
	s.obs.ObserveSource(s.ID, time.Since(start), len(results), false)
	return results
}

func (s *Source) call(ctx context.Context, query Query, quota int) (results []types.NormalizedResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			results, err = nil, fmt.Errorf("backend panic: %v", r)
		}
	}()
	return s.backend.Search(ctx, query, quota)
}

// Registry is the fixed set of enabled sources, in merge order.
type Registry struct {
	sources []*Source
	byID    map[string]*Source
	primary string
}

// NewRegistry builds one Source per enabled backend. The web index is
// only enabled when both Google credentials are present; cfg.Search.Sources,
// when set, restricts the set further.
func NewRegistry(cfg types.Config, log logrus.FieldLogger, obs Observer) *Registry {
	client := httputil.NewClient(cfg.Search.HTTP.Timeout)
	ua := cfg.Search.HTTP.UserAgent

	var backends []Backend
	if cfg.Google.APIKey != "" && cfg.Google.CSEID != "" {
		backends = append(backends, &GoogleBackend{Client: client, APIKey: cfg.Google.APIKey, EngineID: cfg.Google.CSEID, UserAgent: ua})
	} else {
		log.Warn("google credentials missing: web index source disabled")
	}
	backends = append(backends,
		&OpenAlexBackend{Client: client, Email: cfg.OpenAlex.Email, UserAgent: ua},
		&GutenbergBackend{Client: client, UserAgent: ua},
		&ArchiveBackend{Client: client, UserAgent: ua},
		&SemanticScholarBackend{Client: client, APIKey: cfg.SemanticScholar.APIKey, UserAgent: ua},
		&ArxivBackend{Client: client, UserAgent: ua},
	)

	allowed := make(map[string]bool, len(cfg.Search.Sources))
	for _, id := range cfg.Search.Sources {
		allowed[strings.ToLower(strings.TrimSpace(id))] = true
	}

	var sources []*Source
	for _, b := range backends {
		if len(allowed) > 0 && !allowed[b.Name()] {
			continue
		}
		sources = append(sources, NewSource(b, log, obs))
	}
	return NewStaticRegistry(cfg.Search.PrimarySource, sources...)
}

// NewStaticRegistry builds a registry from prepared sources.
func NewStaticRegistry(primary string, sources ...*Source) *Registry {
	r := &Registry{byID: make(map[string]*Source, len(sources)), primary: primary}
	for _, s := range sources {
		r.sources = append(r.sources, s)
		r.byID[s.ID] = s
	}
	return r
}

// Sources returns the enabled sources in merge order.
func (r *Registry) Sources() []*Source { return r.sources }

// Get returns the enabled source with the given id.
func (r *Registry) Get(id string) (*Source, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Primary returns the configured primary source id.
func (r *Registry) Primary() string { return r.primary }

// Describe lists every known source with its enabled and primary flags.
func (r *Registry) Describe() []types.SourceDescriptor {
	out := make([]types.SourceDescriptor, 0, len(Descriptors))
	for _, d := range Descriptors {
		_, d.Enabled = r.byID[d.ID]
		d.Primary = d.ID == r.primary
		out = append(out, d)
	}
	return out
}

// Known reports whether id names a source in Descriptors.
func Known(id string) bool {
	for _, d := range Descriptors {
		if d.ID == id {
			return true
		}
	}
	return false
}

// userAgent returns ua or the package default.
func userAgent(ua string) string {
	if ua == "" {
		return "docsearch/0.1"
	}
	return ua
}

// newGet builds a GET request with the shared headers.
func newGet(ctx context.Context, rawURL, ua string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(ua))
	return req, nil
}
