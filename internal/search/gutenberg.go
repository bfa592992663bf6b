// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/docsearch/internal/httputil"
	"github.com/pdiddy/docsearch/pkg/types"
)

// gutendexBase is the Project Gutenberg catalog API. Declared as a var so
// tests can substitute an httptest server.
var gutendexBase = "https://gutendex.com/books"

// Gutendex serves fixed pages of 32 books; at most gutenbergMaxPages are
// fetched per search.
const (
	gutenbergPageSize = 32
	gutenbergMaxPages = 3
)

// Preferred download formats, best first.
var gutenbergFormats = []string{"application/pdf", "application/epub+zip", "text/html", "text/plain"}

// GutenbergBackend searches public-domain books through Gutendex.
type GutenbergBackend struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the backend identifier.
func (b *GutenbergBackend) Name() string { return SourceGutenberg }

// Search walks the result pages until quota books are collected, the
// page cap is reached, or a short page signals the end.
func (b *GutenbergBackend) Search(ctx context.Context, query Query, quota int) ([]types.NormalizedResult, error) {
	text := strings.TrimSpace(query.Text)
	if text == "" {
		return nil, fmt.Errorf("empty Gutenberg query")
	}

	next := gutendexBase + "?" + url.Values{"search": {text}}.Encode()
	var results []types.NormalizedResult
	rank := 0

	for page := 0; page < gutenbergMaxPages && next != "" && len(results) < quota; page++ {
		req, err := newGet(ctx, next, b.UserAgent)
		if err != nil {
			return nil, err
		}
		body, err := httputil.Fetch(ctx, b.Client, req, 0)
		if err != nil {
			if len(results) > 0 {
				break
			}
			return nil, fmt.Errorf("Gutendex request: %w", err)
		}

		var gr gutendexResponse
		if err := json.Unmarshal(body, &gr); err != nil {
			if len(results) > 0 {
				break
			}
			return nil, fmt.Errorf("parsing Gutendex response: %w", err)
		}

		for _, book := range gr.Results {
			if len(results) == quota {
				break
			}
			rank++
			if r, ok := gutenbergResult(book, rank); ok {
				results = append(results, r)
			}
		}

		if len(gr.Results) < gutenbergPageSize {
			break
		}
		next = gr.Next
	}
	return results, nil
}

func gutenbergResult(book gutendexBook, rank int) (types.NormalizedResult, bool) {
	id := intOf(book.ID)
	if id <= 0 {
		return types.NormalizedResult{}, false
	}
	r := types.NormalizedResult{
		Title:        book.Title,
		URL:          fmt.Sprintf("https://www.gutenberg.org/ebooks/%d", id),
		DownloadURL:  book.download(),
		ThumbnailURL: book.Formats["image/jpeg"],
		Source:       displayName(SourceGutenberg),
		SourceRank:   rank,
	}
	if len(book.Summaries) > 0 {
		r.Description = book.Summaries[0]
	} else if len(book.Bookshelves) > 0 {
		r.Description = strings.Join(book.Bookshelves, "; ")
	}
	for _, a := range book.Authors {
		r.Authors = append(r.Authors, a.Name)
	}
	if len(book.Languages) > 0 {
		r.Language = book.Languages[0]
	}
	for _, s := range book.Subjects {
		r.Categories = append(r.Categories, s)
		if len(r.Categories) == 3 {
			break
		}
	}

	r.RelevanceScore = 0.1
	if dl, ok := numberOf(book.DownloadCount); ok && dl > 0 {
		r.RelevanceScore = clampScore(math.Log10(dl+1)/5, 0.1, 1.0)
	}
	return normalize(r)
}

// Gutendex JSON structures.
type gutendexResponse struct {
	Next    string         `json:"next"`
	Results []gutendexBook `json:"results"`
}

type gutendexBook struct {
	ID            json.RawMessage   `json:"id"`
	Title         string            `json:"title"`
	Authors       []gutendexPerson  `json:"authors"`
	Summaries     []string          `json:"summaries"`
	Subjects      []string          `json:"subjects"`
	Bookshelves   []string          `json:"bookshelves"`
	Languages     []string          `json:"languages"`
	Formats       map[string]string `json:"formats"`
	DownloadCount json.RawMessage   `json:"download_count"`
}

type gutendexPerson struct {
	Name string `json:"name"`
}

// download picks the best available format. Gutendex keys carry optional
// parameters ("text/plain; charset=us-ascii"), so matching is by prefix.
func (b gutendexBook) download() string {
	mimes := make([]string, 0, len(b.Formats))
	for mime := range b.Formats {
		mimes = append(mimes, mime)
	}
	sort.Strings(mimes)
	for _, want := range gutenbergFormats {
		for _, mime := range mimes {
			if mime == want || strings.HasPrefix(mime, want+";") {
				return b.Formats[mime]
			}
		}
	}
	return ""
}
