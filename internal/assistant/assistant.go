// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assistant wraps the chat model that rewrites queries, proposes
// related searches, and summarizes documents.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pdiddy/docsearch/internal/logging"
	"github.com/pdiddy/docsearch/pkg/types"
)

const systemPrompt = "You are an intelligent PDF search assistant. Help users find relevant academic papers, documents, and books by understanding their intent and reformulating queries for better results."

// Defaults applied when the configuration leaves a field unset.
const (
	DefaultModel     = "gpt-4o"
	DefaultMaxTokens = 2048
	DefaultRPM       = 60

	// documentTextLimit bounds how much extracted page text goes into a prompt.
	documentTextLimit = 6000
	maxRetries        = 2
)

var (
	// ErrNoAPIKey is returned by New when the model API key is missing.
	ErrNoAPIKey = errors.New("ai.api_key is not set")

	// ErrEmptyResponse means the model answered with nothing usable.
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// retryBaseDelay is the first back-off after a throttled model call.
// Tests shorten it.
var retryBaseDelay = 2 * time.Second

// Assistant issues paced, retried chat completions.
type Assistant struct {
	model        model.BaseChatModel
	limiter      *rate.Limiter
	maxTokens    int
	log          logrus.FieldLogger
	fetchTimeout time.Duration

	// fetchText extracts readable text from a public web page.
	fetchText func(url string, timeout time.Duration) (string, error)
}

// New connects to the OpenAI-compatible endpoint in cfg.
func New(ctx context.Context, cfg types.AIConfig, log logrus.FieldLogger) (*Assistant, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat model: %w", err)
	}
	return NewWithModel(cm, cfg, log), nil
}

// NewWithModel builds an Assistant around an existing chat model.
func NewWithModel(cm model.BaseChatModel, cfg types.AIConfig, log logrus.FieldLogger) *Assistant {
	if log == nil {
		log = logging.Discard()
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	rpm := cfg.RPM
	if rpm <= 0 {
		rpm = DefaultRPM
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Assistant{
		model:        cm,
		limiter:      rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 5),
		maxTokens:    maxTokens,
		log:          log.WithField("component", "assistant"),
		fetchTimeout: timeout,
		fetchText:    readableText,
	}
}

// Rewrite asks the model for a better search query. The original query is
// returned when the model fails.
func (a *Assistant) Rewrite(ctx context.Context, query string) string {
	prompt := fmt.Sprintf(`Original query: %q

Please reformulate this query to be more effective for searching academic PDFs and documents.
Make it more specific and add relevant academic terms if appropriate.
Only return the reformulated query, nothing else.`, query)

	out, err := a.generate(ctx, prompt)
	if err != nil {
		a.log.WithError(err).Warn("query rewrite failed")
		return query
	}
	out = strings.Trim(firstLine(out), "\"'` ")
	if out == "" {
		return query
	}
	return out
}

// Suggest proposes up to three related searches. Failures yield nil.
func (a *Assistant) Suggest(ctx context.Context, query string) []string {
	prompt := fmt.Sprintf(`Based on this search query: %q

Generate 3 related search suggestions that users might be interested in.
Focus on academic and research topics.
Return only the suggestions, one per line.`, query)

	out, err := a.generate(ctx, prompt)
	if err != nil {
		a.log.WithError(err).Warn("suggestions failed")
		return nil
	}
	var suggestions []string
	for _, line := range strings.Split(out, "\n") {
		if s := stripListMarker(line); s != "" {
			suggestions = append(suggestions, s)
		}
		if len(suggestions) == 3 {
			break
		}
	}
	return suggestions
}

// Summarize writes a two or three sentence summary from a result's title
// and description.
func (a *Assistant) Summarize(ctx context.Context, title, description string) (string, error) {
	prompt := fmt.Sprintf(`PDF Title: %s
Description: %s

Based on the title and description, provide a brief 2-3 sentence summary of what this PDF likely contains.
Focus on the main topic and potential value to readers.`, title, description)
	return a.generate(ctx, prompt)
}

// SummarizeDocument summarizes the document at docURL in at most maxLen
// characters. The page text is used when it can be extracted; otherwise
// the model works from the URL alone.
func (a *Assistant) SummarizeDocument(ctx context.Context, docURL string, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = 500
	}

	var prompt string
	text, err := a.fetchText(docURL, a.fetchTimeout)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			a.log.WithError(err).WithField("url", docURL).Debug("document text unavailable")
		}
		prompt = fmt.Sprintf(`Generate a detailed summary for this PDF document: %s

Since the document content is not available, provide a general summary of what this type of document typically contains based on its URL and context.
Keep it under %d characters.`, docURL, maxLen)
	} else {
		prompt = fmt.Sprintf(`Summarize the following document from %s.
Keep it under %d characters.

%s`, docURL, maxLen, truncate(strings.TrimSpace(text), documentTextLimit))
	}

	out, err := a.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return truncate(out, maxLen), nil
}

// generate sends one system+user exchange, waiting on the limiter before
// every attempt and backing off when the endpoint throttles.
func (a *Assistant) generate(ctx context.Context, prompt string) (string, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: prompt},
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := a.limiter.Wait(ctx); err != nil {
			return "", err
		}
		resp, err := a.model.Generate(ctx, messages, model.WithMaxTokens(a.maxTokens))
		if err == nil {
			if resp == nil || strings.TrimSpace(resp.Content) == "" {
				return "", ErrEmptyResponse
			}
			return strings.TrimSpace(resp.Content), nil
		}
		lastErr = err
		if !throttled(err) || attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(retryBaseDelay << attempt):
		}
	}
	return "", fmt.Errorf("chat completion: %w", lastErr)
}

func throttled(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

// stripListMarker removes "1.", "2)", "-", and "*" prefixes models like to add.
func stripListMarker(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "-*• ")
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		s = s[i+1:]
	}
	return strings.Trim(strings.TrimSpace(s), "\"")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
