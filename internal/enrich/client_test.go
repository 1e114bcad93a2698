package enrich

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type countingGenerator struct {
	calls  atomic.Int32
	answer string
	err    error
	prompt string
}

func (g *countingGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	g.prompt = prompt
	return g.answer, g.err
}

type stubPages string

func (p stubPages) Preview(context.Context, string) string { return string(p) }

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse(%q): %v", raw, err)
	}
	return u
}

func TestEnrichSuccess(t *testing.T) {
	gen := &countingGenerator{answer: `{"title":"Example Article","summary":"About examples.","category":"Research","tags":["example","article"],"duplicate":{"isDuplicate":false,"confidence":0,"matchNumber":0}}`}
	c := NewClient(ClientOptions{Generator: gen, Pages: stubPages("Example body text")})

	got := c.Enrich(context.Background(), Input{URL: mustURL(t, "https://example.com/article")})

	if got.Degraded() {
		t.Fatalf("Enrich() degraded: %v", got.Cause)
	}
	if gen.calls.Load() != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls.Load())
	}
	if got.Raw.Title != "Example Article" || got.Raw.Category != "Research" {
		t.Errorf("Enrich() raw = %+v", got.Raw)
	}
	if !strings.Contains(gen.prompt, "Content Preview: Example body text") {
		t.Error("prompt should carry the page preview")
	}
	if Warning(got.Cause) != "" {
		t.Errorf("Warning() = %q, want empty", Warning(got.Cause))
	}
}

func TestEnrichFallbacks(t *testing.T) {
	dnsErr := &net.DNSError{Err: "no such host", Name: "generativelanguage.googleapis.com", IsNotFound: true}

	tests := []struct {
		name        string
		gen         Generator
		wantReason  string
		wantWarning string
	}{
		{
			name:        "not configured",
			gen:         nil,
			wantReason:  ReasonUnconfigured,
			wantWarning: failureWarning,
		},
		{
			name:        "dns failure",
			gen:         &countingGenerator{err: fmt.Errorf("generate content: %w", dnsErr)},
			wantReason:  ReasonNetwork,
			wantWarning: networkWarning,
		},
		{
			name:        "connection refused",
			gen:         &countingGenerator{err: &url.Error{Op: "Post", URL: "https://x", Err: syscall.ECONNREFUSED}},
			wantReason:  ReasonNetwork,
			wantWarning: networkWarning,
		},
		{
			name:        "timeout",
			gen:         &countingGenerator{err: context.DeadlineExceeded},
			wantReason:  ReasonNetwork,
			wantWarning: networkWarning,
		},
		{
			name:        "not json",
			gen:         &countingGenerator{answer: "Sure! Here is the metadata you asked for."},
			wantReason:  ReasonInvalidResponse,
			wantWarning: failureWarning,
		},
		{
			name:        "truncated json",
			gen:         &countingGenerator{answer: `{"title": "Half`},
			wantReason:  ReasonInvalidResponse,
			wantWarning: failureWarning,
		},
		{
			name:        "other error",
			gen:         &countingGenerator{err: errors.New("quota exhausted")},
			wantReason:  ReasonError,
			wantWarning: failureWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			c := NewClient(ClientOptions{Generator: tt.gen, Metrics: m})

			got := c.Enrich(context.Background(), Input{URL: mustURL(t, "https://www.example.com/article")})

			if !got.Degraded() {
				t.Fatal("Enrich() should be degraded")
			}
			if r := Reason(got.Cause); r != tt.wantReason {
				t.Errorf("Reason() = %q, want %q", r, tt.wantReason)
			}
			if w := Warning(got.Cause); w != tt.wantWarning {
				t.Errorf("Warning() = %q, want %q", w, tt.wantWarning)
			}
			if got.Raw.Title != "Example" || got.Raw.Category != string(domain.CategoryOther) {
				t.Errorf("fallback raw = %+v", got.Raw)
			}
			if got.Raw.Summary != "Saved from example.com" {
				t.Errorf("fallback summary = %q", got.Raw.Summary)
			}
			if got.Raw.Duplicate.IsDuplicate {
				t.Error("fallback must not report a duplicate")
			}
			n, err := testutil.GatherAndCount(m.Registry(), "smartmark_enrichment_fallback_total")
			if err != nil || n != 1 {
				t.Errorf("fallback series = %d (err %v), want 1", n, err)
			}
		})
	}
}

func TestEnrichSingleCallAndCap(t *testing.T) {
	existing := make([]domain.Summary, 30)
	for i := range existing {
		existing[i] = domain.Summary{ID: fmt.Sprintf("id-%d", i), URL: fmt.Sprintf("https://example.com/%d", i), Title: fmt.Sprintf("Page %d", i)}
	}

	gen := &countingGenerator{answer: `{"title":"x","summary":"y","category":"Other","tags":[]}`}
	c := NewClient(ClientOptions{Generator: gen})
	c.Enrich(context.Background(), Input{URL: mustURL(t, "https://example.com/new"), Existing: existing})

	if gen.calls.Load() != 1 {
		t.Fatalf("generator calls = %d, want exactly 1", gen.calls.Load())
	}
	if !strings.Contains(gen.prompt, `20. "Page 19" - https://example.com/19`) {
		t.Error("prompt should list the 20th existing bookmark")
	}
	if strings.Contains(gen.prompt, "21. ") {
		t.Error("prompt should list at most 20 existing bookmarks")
	}
}

func TestReasonRateLimited(t *testing.T) {
	err := fmt.Errorf("generate content: %w", rateLimitErr())
	if got := Reason(err); got != ReasonRateLimited {
		t.Errorf("Reason(429) = %q, want %q", got, ReasonRateLimited)
	}
	if got := Warning(err); got != failureWarning {
		t.Errorf("Warning(429) = %q", got)
	}
}
