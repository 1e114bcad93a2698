package enrich

import (
	"context"
	"errors"
	"net"
	"net/url"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/metrics"
)

// Fallback reasons, also used as metric labels.
const (
	ReasonUnconfigured    = "unconfigured"
	ReasonNetwork         = "network"
	ReasonRateLimited     = "rate_limited"
	ReasonInvalidResponse = "invalid_response"
	ReasonError           = "error"
)

const (
	networkWarning = "AI features unavailable (network blocked). Bookmark saved with basic info."
	failureWarning = "AI processing failed. Bookmark saved with basic info."
)

type Input struct {
	URL      *url.URL
	Title    string           // user-provided, optional
	Existing []domain.Summary // newest first, capped by the client
}

// Enrichment carries the raw model fields, or the fallback defaults and the
// reason they were used.
type Enrichment struct {
	Raw   domain.RawEnrichment
	Cause error
}

// Degraded reports whether Raw holds fallback defaults.
func (e Enrichment) Degraded() bool { return e.Cause != nil }

type ClientOptions struct {
	Generator   Generator  // nil => every call falls back with ErrNotConfigured
	Pages       PageSource // nil => no page preview in the prompt
	MaxExisting int        // existing bookmarks listed in the prompt, default domain.MaxExistingSummaries
	Logger      logger.Logger
	Metrics     *metrics.Metrics
}

type Client struct {
	gen         Generator
	pages       PageSource
	maxExisting int
	log         logger.Logger
	metrics     *metrics.Metrics
}

func NewClient(opts ClientOptions) *Client {
	if opts.MaxExisting <= 0 {
		opts.MaxExisting = domain.MaxExistingSummaries
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Client{
		gen:         opts.Generator,
		pages:       opts.Pages,
		maxExisting: opts.MaxExisting,
		log:         opts.Logger,
		metrics:     opts.Metrics,
	}
}

// Configured reports whether a model is available.
func (c *Client) Configured() bool { return c.gen != nil }

// Enrich makes at most one model call. It never fails: every error is turned
// into fallback defaults with the error kept as Cause.
func (c *Client) Enrich(ctx context.Context, in Input) Enrichment {
	if c.gen == nil {
		return c.fallback(in, ErrNotConfigured)
	}

	existing := in.Existing
	if len(existing) > c.maxExisting {
		existing = existing[:c.maxExisting]
	}

	start := time.Now()
	var page string
	if c.pages != nil {
		page = c.pages.Preview(ctx, in.URL.String())
	}

	prompt := BuildPrompt(PromptInput{
		URL:      in.URL.String(),
		Title:    in.Title,
		Existing: existing,
		Page:     page,
	})

	text, err := c.gen.Generate(ctx, prompt)
	c.metrics.ObserveEnrichment(time.Since(start))
	if err != nil {
		return c.fallback(in, err)
	}

	raw, err := ParseResponse(text)
	if err != nil {
		c.log.Debug("unparseable model answer", logger.String("answer", truncate(text, 500)))
		return c.fallback(in, err)
	}

	c.log.Debug("enrichment complete",
		logger.String("url", in.URL.String()),
		logger.String("category", raw.Category),
		logger.Bool("duplicate", raw.Duplicate.IsDuplicate),
	)
	return Enrichment{Raw: raw}
}

func (c *Client) fallback(in Input, cause error) Enrichment {
	reason := Reason(cause)
	c.metrics.EnrichmentFallback(reason)

	fields := []logger.Field{
		logger.String("url", in.URL.String()),
		logger.String("reason", reason),
		logger.Error(cause),
	}
	if reason == ReasonUnconfigured {
		c.log.Debug("enrichment disabled, using fallback", fields...)
	} else {
		c.log.Warn("enrichment failed, using fallback", fields...)
	}

	return Enrichment{Raw: domain.Fallback(in.URL, in.Title), Cause: cause}
}

// Reason classifies a fallback cause.
func Reason(cause error) string {
	switch {
	case cause == nil:
		return ""
	case errors.Is(cause, ErrNotConfigured):
		return ReasonUnconfigured
	case rateLimited(cause):
		return ReasonRateLimited
	case isNetwork(cause):
		return ReasonNetwork
	case errors.Is(cause, ErrInvalidResponse):
		return ReasonInvalidResponse
	default:
		return ReasonError
	}
}

// Warning is the advisory message returned to the caller with a degraded
// save, "" when enrichment succeeded.
func Warning(cause error) string {
	switch {
	case cause == nil:
		return ""
	case isNetwork(cause):
		return networkWarning
	default:
		return failureWarning
	}
}

func isNetwork(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
