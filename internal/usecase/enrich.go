package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/graph-gophers/dataloader"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/V4T54L/waste-watch/internal/adapter/metrics"
	"github.com/V4T54L/waste-watch/internal/domain"
)

const defaultLookupConcurrency = 10

// Enricher joins log records with their reference entries.
type Enricher struct {
	refs        domain.ReferenceRepository
	logger      *slog.Logger
	metrics     *metrics.DashboardMetrics
	concurrency int
}

// NewEnricher creates a new Enricher. m may be nil.
func NewEnricher(refs domain.ReferenceRepository, logger *slog.Logger, m *metrics.DashboardMetrics) *Enricher {
	return &Enricher{
		refs:        refs,
		logger:      logger.With("component", "enricher"),
		metrics:     m,
		concurrency: defaultLookupConcurrency,
	}
}

// Enrich resolves the waste type of every record. Lookups for one call run
// concurrently and share a loader, so a key repeated within the page is
// looked up once. Results follow the input order. Enrich never fails: a
// missing or failed lookup yields the "unknown" display name and the raw key
// as the type code.
func (e *Enricher) Enrich(ctx context.Context, records []domain.LogRecord) []domain.EnrichedLogRow {
	ctx, span := otel.Tracer("log-viewer").Start(ctx, "Enrich")
	defer span.End()
	span.SetAttributes(attribute.Int("records", len(records)))

	// A fresh loader per call keeps results tied to the current backend state.
	loader := dataloader.NewBatchedLoader(e.batch, dataloader.WithWait(time.Millisecond))

	thunks := make([]dataloader.Thunk, len(records))
	for i, rec := range records {
		if rec.WasteTypeKey == "" {
			continue
		}
		thunks[i] = loader.Load(ctx, dataloader.StringKey(rec.WasteTypeKey))
	}

	rows := make([]domain.EnrichedLogRow, len(records))
	for i, rec := range records {
		var entry *domain.ReferenceTypeEntry
		if thunks[i] != nil {
			data, err := thunks[i]()
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					e.logger.Warn("waste type lookup failed, using placeholder", "error", err, "waste_type", rec.WasteTypeKey, "log_id", rec.ID)
				}
			} else if data != nil {
				entry = data.(*domain.ReferenceTypeEntry)
			}
		}
		rows[i] = enrichRow(rec, entry)
	}
	return rows
}

func (e *Enricher) batch(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
	results := make([]*dataloader.Result, len(keys))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, key := range keys {
		i, key := i, key.String()
		g.Go(func() error {
			entry, err := e.refs.GetWasteType(ctx, key)
			e.observeLookup(err)
			results[i] = &dataloader.Result{Data: entry, Error: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (e *Enricher) observeLookup(err error) {
	if e.metrics == nil {
		return
	}
	switch {
	case err == nil:
		e.metrics.EnrichLookups.WithLabelValues("hit").Inc()
	case errors.Is(err, domain.ErrNotFound):
		e.metrics.EnrichLookups.WithLabelValues("miss").Inc()
	default:
		e.metrics.EnrichLookups.WithLabelValues("error").Inc()
	}
}

func enrichRow(rec domain.LogRecord, entry *domain.ReferenceTypeEntry) domain.EnrichedLogRow {
	row := domain.EnrichedLogRow{
		LogRecord:            rec,
		WasteTypeCode:        rec.WasteTypeKey,
		WasteTypeDisplayName: domain.UnknownWasteName,
	}
	if entry != nil {
		if entry.DisplayCode != "" {
			row.WasteTypeCode = entry.DisplayCode
		}
		if entry.DisplayName != "" {
			row.WasteTypeDisplayName = entry.DisplayName
		}
	}
	row.WasteTypeLabel = WasteTypeLabel(row.WasteTypeCode)
	return row
}
