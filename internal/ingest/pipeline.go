// Package ingest runs one bookmark save from raw input to a stored record.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/enrich"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/metrics"
	"github.com/google/uuid"
)

// Repository is the slice of the store gateway the pipeline needs.
type Repository interface {
	Summaries(ctx context.Context, ownerID string, limit int) ([]domain.Summary, error)
	Insert(ctx context.Context, b *domain.Bookmark) error
}

// Enricher never fails; a degraded Enrichment carries fallback metadata.
type Enricher interface {
	Enrich(ctx context.Context, in enrich.Input) enrich.Enrichment
}

type Request struct {
	OwnerID string
	URL     string
	Title   string // optional
}

type Result struct {
	Bookmark *domain.Bookmark
	Warning  string // set when the bookmark was saved with fallback metadata
}

type Options struct {
	Repository    Repository
	Enricher      Enricher
	MinConfidence int           // model duplicate threshold, default domain.DefaultMinDuplicateConfidence
	MaxExisting   int           // summaries handed to the enricher, default domain.MaxExistingSummaries
	WriteTimeout  time.Duration // budget for the final insert, default DefaultWriteTimeout
	Logger        logger.Logger
	Metrics       *metrics.Metrics
	Now           func() time.Time
	NewID         func() string
}

// DefaultWriteTimeout bounds the insert. It is also reserved out of the
// caller's deadline so enrichment cannot use up the whole budget.
const DefaultWriteTimeout = 5 * time.Second

type Pipeline struct {
	repo         Repository
	enricher     Enricher
	normalizer   domain.Normalizer
	maxExisting  int
	writeTimeout time.Duration
	logger      logger.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
	newID       func() string
}

func New(opts Options) *Pipeline {
	if opts.MaxExisting <= 0 {
		opts.MaxExisting = domain.MaxExistingSummaries
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Pipeline{
		repo:         opts.Repository,
		enricher:     opts.Enricher,
		normalizer:   domain.Normalizer{MinConfidence: opts.MinConfidence},
		maxExisting:  opts.MaxExisting,
		writeTimeout: opts.WriteTimeout,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		now:          opts.Now,
		newID:        opts.NewID,
	}
}

// attempt tracks the state of one Ingest call.
type attempt struct {
	p     *Pipeline
	log   logger.Logger
	state State
}

func (a *attempt) enter(s State) {
	a.log.Debug("ingest transition",
		logger.String("from", a.state.String()),
		logger.String("to", s.String()))
	a.state = s
	if s.Terminal() {
		a.p.metrics.IngestOutcome(s.String())
	}
}

// Ingest validates, checks for duplicates, enriches and stores a bookmark.
// It returns a *Result, or an *InputError, a *DuplicateError or an error
// wrapping ErrPersistence.
//
// Once validation passes the save completes even if ctx is cancelled or its
// deadline passes: enrichment then falls back and the insert runs on a
// detached context bounded by the write timeout.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (*Result, error) {
	a := &attempt{p: p, state: StateValidating}
	a.log = p.logger.With(logger.String("owner", req.OwnerID))

	// ── Validating ──
	rawURL := strings.TrimSpace(req.URL)
	title := strings.TrimSpace(req.Title)

	if req.OwnerID == "" {
		a.enter(StateRejected)
		return nil, &InputError{Err: errors.New("owner is required")}
	}
	u, err := domain.ValidateURL(rawURL)
	if err != nil {
		a.enter(StateRejected)
		return nil, &InputError{Err: err}
	}
	if err := domain.ValidateTitle(title); err != nil {
		a.enter(StateRejected)
		return nil, &InputError{Err: err}
	}
	a.log = a.log.With(logger.String("url", rawURL))

	// ── PrecheckDuplicate ──
	a.enter(StatePrecheckDuplicate)
	existing, err := p.repo.Summaries(ctx, req.OwnerID, 0)
	if err != nil {
		a.log.Warn("failed to read existing bookmarks, continuing without them", logger.Error(err))
		existing = nil
	}

	if v := domain.FindExactDuplicate(rawURL, existing); v.IsDuplicate {
		a.enter(StateExactDuplicateFound)
		return nil, &DuplicateError{MatchID: v.MatchID, Confidence: v.Confidence, Exact: true}
	}

	// ── Enriching ──
	a.enter(StateEnriching)
	shown := existing
	if len(shown) > p.maxExisting {
		shown = shown[:p.maxExisting]
	}
	enrichCtx, cancelEnrich := p.enrichContext(ctx)
	enrichment := p.enricher.Enrich(enrichCtx, enrich.Input{URL: u, Title: title, Existing: shown})
	cancelEnrich()

	// ── Normalizing ──
	a.enter(StateNormalizing)
	result := p.normalizer.Normalize(enrichment.Raw, u, title, shown)
	if result.Duplicate.IsDuplicate {
		a.enter(StateDuplicateConfirmed)
		return nil, &DuplicateError{MatchID: result.Duplicate.MatchID, Confidence: result.Duplicate.Confidence}
	}

	// ── Persisting ──
	a.enter(StatePersisting)
	now := p.now().UTC()
	b := &domain.Bookmark{
		ID:         p.newID(),
		OwnerID:    req.OwnerID,
		URL:        rawURL,
		Title:      result.Title,
		Summary:    result.Summary,
		Category:   result.Category,
		Tags:       result.Tags,
		FaviconURL: domain.FaviconURL(rawURL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	writeCtx, cancelWrite := context.WithTimeout(context.WithoutCancel(ctx), p.writeTimeout)
	defer cancelWrite()
	if err := p.repo.Insert(writeCtx, b); err != nil {
		a.enter(StateFailed)
		a.log.Error("failed to insert bookmark", logger.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	a.enter(StatePersisted)
	res := &Result{Bookmark: b, Warning: enrich.Warning(enrichment.Cause)}
	a.log.Info("bookmark saved",
		logger.String("bookmark_id", b.ID),
		logger.String("category", string(b.Category)),
		logger.Bool("degraded", enrichment.Degraded()))
	return res, nil
}

// enrichContext ends the model call writeTimeout before ctx's deadline.
func (p *Pipeline) enrichContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(ctx, deadline.Add(-p.writeTimeout))
	}
	return context.WithCancel(ctx)
}
