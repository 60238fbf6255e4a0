package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/V4T54L/waste-watch/internal/adapter/metrics"
	"github.com/V4T54L/waste-watch/internal/domain"
)

// PageSize is the number of log records shown per page. The has-more
// heuristic compares against it, so it is not configurable.
const PageSize = 10

// Page is one fetched page of log records.
type Page struct {
	Records []domain.LogRecord
	// Next is positioned at the last record, nil for an empty page.
	Next *domain.Cursor
	// HasMore is true iff the page came back full. A full last page is
	// therefore reported as having more.
	HasMore bool
}

// EnrichedPage is a Page after reference enrichment.
type EnrichedPage struct {
	Rows    []domain.EnrichedLogRow
	Next    *domain.Cursor
	HasMore bool
}

// PagerOptions tunes a LogPager.
type PagerOptions struct {
	Retries      int
	RetryBackoff time.Duration
}

// LogPager fetches and enriches pages of the waste log without holding any
// navigation state.
type LogPager struct {
	repo     domain.WasteLogRepository
	enricher *Enricher
	logger   *slog.Logger
	metrics  *metrics.DashboardMetrics
	opts     PagerOptions
}

// NewLogPager creates a new LogPager. m may be nil.
func NewLogPager(repo domain.WasteLogRepository, enricher *Enricher, logger *slog.Logger, m *metrics.DashboardMetrics, opts PagerOptions) *LogPager {
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &LogPager{
		repo:     repo,
		enricher: enricher,
		logger:   logger.With("component", "log_pager"),
		metrics:  m,
		opts:     opts,
	}
}

// FetchPage reads the page that starts strictly after cursor, or the first
// page when cursor is nil. Store failures are retried and then reported as
// domain.ErrTransientFetch.
func (p *LogPager) FetchPage(ctx context.Context, cursor *domain.Cursor) (*Page, error) {
	ctx, span := otel.Tracer("log-viewer").Start(ctx, "FetchPage")
	defer span.End()

	records, err := p.fetchWithRetry(ctx, cursor)
	if err != nil {
		p.observe("error")
		p.logger.Error("failed to fetch waste log page", "error", err, "cursor", cursor.Encode())
		return nil, fmt.Errorf("%w: %v", domain.ErrTransientFetch, err)
	}
	p.observe("ok")

	page := &Page{
		Records: records,
		HasMore: len(records) == PageSize,
	}
	if len(records) > 0 {
		page.Next = domain.CursorAfter(records[len(records)-1])
	}
	return page, nil
}

// LoadPage fetches the page after cursor and enriches it.
func (p *LogPager) LoadPage(ctx context.Context, cursor *domain.Cursor) (*EnrichedPage, error) {
	start := time.Now()
	page, err := p.FetchPage(ctx, cursor)
	if err != nil {
		return nil, err
	}
	rows := p.enricher.Enrich(ctx, page.Records)
	if p.metrics != nil {
		p.metrics.PageFetchDuration.Observe(time.Since(start).Seconds())
	}
	return &EnrichedPage{Rows: rows, Next: page.Next, HasMore: page.HasMore}, nil
}

func (p *LogPager) fetchWithRetry(ctx context.Context, cursor *domain.Cursor) ([]domain.LogRecord, error) {
	var lastErr error
	for i := 0; i <= p.opts.Retries; i++ {
		records, err := p.repo.FetchPage(ctx, cursor, PageSize)
		if err == nil {
			return records, nil
		}
		lastErr = err
		if i == p.opts.Retries {
			break
		}
		p.observe("retry")
		p.logger.Warn("failed to fetch page, retrying...", "attempt", i+1, "error", err)
		select {
		case <-time.After(p.opts.RetryBackoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (p *LogPager) observe(status string) {
	if p.metrics != nil {
		p.metrics.PageFetches.WithLabelValues(status).Inc()
	}
}
