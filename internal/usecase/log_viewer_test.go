package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/V4T54L/waste-watch/internal/domain"
	"github.com/V4T54L/waste-watch/internal/domain/mocks"
)

// makeRecords returns n records, newest first, ids r00..r(n-1).
func makeRecords(n int) []domain.LogRecord {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]domain.LogRecord, n)
	for i := 0; i < n; i++ {
		out[i] = domain.LogRecord{
			ID:           fmt.Sprintf("r%02d", i),
			WasteTypeKey: "00002",
			Timestamp:    base.Add(-time.Duration(i) * time.Minute),
			UserID:       fmt.Sprintf("user-%d", i),
			BinID:        domain.UnassignedBin,
		}
	}
	return out
}

func newTestPager(repo domain.WasteLogRepository) *LogPager {
	logger := testLogger()
	refs := &mocks.MockReferenceRepository{Entries: map[string]domain.ReferenceTypeEntry{
		"00002": {DisplayCode: "00002", DisplayName: "Recyclables Bin"},
	}}
	return NewLogPager(repo, NewEnricher(refs, logger, nil), logger, nil, PagerOptions{
		Retries:      1,
		RetryBackoff: time.Millisecond,
	})
}

func TestLogPager_FetchPage(t *testing.T) {
	t.Run("Sorted And Bounded", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{Records: makeRecords(25)}
		pager := newTestPager(repo)

		var cursor *domain.Cursor
		seen := 0
		for {
			page, err := pager.FetchPage(context.Background(), cursor)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(page.Records) > PageSize {
				t.Fatalf("page larger than page size: %d", len(page.Records))
			}
			for i := 1; i < len(page.Records); i++ {
				if page.Records[i].Timestamp.After(page.Records[i-1].Timestamp) {
					t.Fatalf("records not sorted by timestamp descending")
				}
			}
			seen += len(page.Records)
			if !page.HasMore {
				break
			}
			cursor = page.Next
		}
		if seen != 25 {
			t.Errorf("expected to page through 25 records, saw %d", seen)
		}
	})

	t.Run("Pages Hold Ten Records", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{Records: makeRecords(25)}
		page, err := newTestPager(repo).FetchPage(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(page.Records) != 10 || !page.HasMore {
			t.Errorf("expected a full page of 10, got %d (more=%v)", len(page.Records), page.HasMore)
		}
	})

	t.Run("Fetch Is Traced", func(t *testing.T) {
		rec := tracetest.NewSpanRecorder()
		prev := otel.GetTracerProvider()
		otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
		t.Cleanup(func() { otel.SetTracerProvider(prev) })

		repo := &mocks.MockWasteLogRepository{Records: makeRecords(3)}
		if _, err := newTestPager(repo).LoadPage(context.Background(), nil); err != nil {
			t.Fatal(err)
		}

		names := map[string]bool{}
		for _, s := range rec.Ended() {
			names[s.Name()] = true
		}
		if !names["FetchPage"] || !names["Enrich"] {
			t.Errorf("expected FetchPage and Enrich spans, got %v", names)
		}
	})

	t.Run("Full Last Page Reports More", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{Records: makeRecords(10)}
		pager := newTestPager(repo)

		page, err := pager.FetchPage(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !page.HasMore {
			t.Error("expected HasMore for an exactly full page")
		}
	})

	t.Run("Empty Page Has No Cursor", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{}
		pager := newTestPager(repo)

		page, err := pager.FetchPage(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if page.Next != nil || page.HasMore {
			t.Errorf("expected no cursor and no more, got %+v", page)
		}
	})

	t.Run("Retry Then Succeed", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{Records: makeRecords(3), FetchErr: errors.New("timeout"), FailTimes: 1}
		pager := newTestPager(repo)

		page, err := pager.FetchPage(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected retry to succeed, got %v", err)
		}
		if len(page.Records) != 3 || repo.Calls != 2 {
			t.Errorf("expected 3 records after 2 calls, got %d records after %d calls", len(page.Records), repo.Calls)
		}
	})

	t.Run("Store Failure Is Transient Error", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{FetchErr: errors.New("store down")}
		pager := newTestPager(repo)

		_, err := pager.FetchPage(context.Background(), nil)
		if !errors.Is(err, domain.ErrTransientFetch) {
			t.Fatalf("expected ErrTransientFetch, got %v", err)
		}
	})
}

func TestWasteLogViewer_Navigation(t *testing.T) {
	ctx := context.Background()

	t.Run("Advance Then Retreat Restores First Page", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{Records: makeRecords(25)}
		v := NewWasteLogViewer(newTestPager(repo), testLogger())

		first, err := v.Load(ctx)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		second, err := v.AdvancePage(ctx)
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if second.Page != 2 || second.Rows[0].ID != "r10" {
			t.Fatalf("expected page 2 starting at r10, got page %d starting at %s", second.Page, second.Rows[0].ID)
		}
		back, err := v.RetreatPage(ctx)
		if err != nil {
			t.Fatalf("retreat: %v", err)
		}
		if back.Page != 1 || ids(back.Rows) != ids(first.Rows) {
			t.Errorf("expected to return to page 1 content, got page %d rows %s", back.Page, ids(back.Rows))
		}
	})

	t.Run("Retreat Reproduces Intermediate Page", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{Records: makeRecords(35)}
		v := NewWasteLogViewer(newTestPager(repo), testLogger())

		if _, err := v.Load(ctx); err != nil {
			t.Fatal(err)
		}
		second, _ := v.AdvancePage(ctx)
		if _, err := v.AdvancePage(ctx); err != nil {
			t.Fatal(err)
		}
		back, err := v.RetreatPage(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if back.Page != 2 || ids(back.Rows) != ids(second.Rows) {
			t.Errorf("expected page 2 %s, got page %d %s", ids(second.Rows), back.Page, ids(back.Rows))
		}
	})

	t.Run("Retreat On First Page Is No-op", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{Records: makeRecords(5)}
		v := NewWasteLogViewer(newTestPager(repo), testLogger())
		if _, err := v.Load(ctx); err != nil {
			t.Fatal(err)
		}
		calls := repo.Calls

		s, err := v.RetreatPage(ctx)
		if err != nil || s.Page != 1 {
			t.Fatalf("expected page 1 without error, got %d, %v", s.Page, err)
		}
		if repo.Calls != calls {
			t.Error("expected no fetch on retreat from page 1")
		}
	})

	t.Run("Advance Without More Is No-op", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{Records: makeRecords(4)}
		v := NewWasteLogViewer(newTestPager(repo), testLogger())
		s, _ := v.Load(ctx)
		if s.HasMore {
			t.Fatal("expected HasMore false for a short page")
		}
		calls := repo.Calls

		s, err := v.AdvancePage(ctx)
		if err != nil || s.Page != 1 || repo.Calls != calls {
			t.Errorf("expected no-op, got page %d, %d calls, err %v", s.Page, repo.Calls-calls, err)
		}
	})

	t.Run("Empty Page After Full Page Clears More", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{Records: makeRecords(10)}
		v := NewWasteLogViewer(newTestPager(repo), testLogger())
		s, _ := v.Load(ctx)
		if !s.HasMore {
			t.Fatal("expected over-eager HasMore on exactly full page")
		}

		s, err := v.AdvancePage(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if s.HasMore || s.Page != 1 || len(s.Rows) != 10 {
			t.Errorf("expected to stay on page 1 with rows and HasMore false, got %+v", s)
		}
	})

	t.Run("Failed Fetch Keeps State", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{Records: makeRecords(25)}
		v := NewWasteLogViewer(newTestPager(repo), testLogger())
		before, _ := v.Load(ctx)

		repo.FetchErr = errors.New("store down")
		after, err := v.AdvancePage(ctx)
		if !errors.Is(err, domain.ErrTransientFetch) {
			t.Fatalf("expected ErrTransientFetch, got %v", err)
		}
		if after.Page != before.Page || ids(after.Rows) != ids(before.Rows) {
			t.Error("expected state to be unchanged after failed fetch")
		}
		if after.Loading {
			t.Error("expected loading to be cleared")
		}
	})

	t.Run("Concurrent Load Rejected", func(t *testing.T) {
		block := make(chan struct{})
		repo := &mocks.MockWasteLogRepository{Records: makeRecords(5), Block: block}
		v := NewWasteLogViewer(newTestPager(repo), testLogger())

		done := make(chan error, 1)
		go func() {
			_, err := v.Load(ctx)
			done <- err
		}()

		deadline := time.Now().Add(2 * time.Second)
		for !v.State().Loading {
			if time.Now().After(deadline) {
				t.Fatal("first load never started")
			}
			time.Sleep(time.Millisecond)
		}

		if _, err := v.Refresh(ctx); !errors.Is(err, domain.ErrFetchInProgress) {
			t.Errorf("expected ErrFetchInProgress, got %v", err)
		}

		close(block)
		if err := <-done; err != nil {
			t.Fatalf("first load failed: %v", err)
		}
		if !v.Loaded() {
			t.Error("expected viewer to be loaded")
		}
	})

	t.Run("Retreat Racing Retreat Stays On First Page", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{Records: makeRecords(25)}
		v := NewWasteLogViewer(newTestPager(repo), testLogger())
		if _, err := v.Load(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := v.AdvancePage(ctx); err != nil {
			t.Fatal(err)
		}

		block := make(chan struct{})
		repo.Block = block
		done := make(chan ViewerState, 1)
		go func() {
			s, _ := v.RetreatPage(ctx)
			done <- s
		}()

		deadline := time.Now().Add(2 * time.Second)
		for !v.State().Loading {
			if time.Now().After(deadline) {
				t.Fatal("first retreat never started")
			}
			time.Sleep(time.Millisecond)
		}
		if _, err := v.RetreatPage(ctx); !errors.Is(err, domain.ErrFetchInProgress) {
			t.Errorf("expected ErrFetchInProgress, got %v", err)
		}

		close(block)
		if s := <-done; s.Page != 1 {
			t.Fatalf("expected page 1 after retreat, got %d", s.Page)
		}
		s, err := v.RetreatPage(ctx)
		if err != nil || s.Page != 1 || s.Loading {
			t.Errorf("expected idle page 1 without error, got %+v, %v", s, err)
		}
	})

	t.Run("Retreat Without History Releases Loading", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{Records: makeRecords(25)}
		v := NewWasteLogViewer(newTestPager(repo), testLogger())
		if _, err := v.Load(ctx); err != nil {
			t.Fatal(err)
		}
		v.mu.Lock()
		v.page = 2
		v.mu.Unlock()

		s, err := v.RetreatPage(ctx)
		if err != nil || s.Loading {
			t.Fatalf("expected a no-op retreat, got %+v, %v", s, err)
		}
		if _, err := v.Refresh(ctx); err != nil {
			t.Errorf("expected viewer to accept loads after a no-op retreat, got %v", err)
		}
	})

	t.Run("Advance Without More Releases Loading", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{Records: makeRecords(4)}
		v := NewWasteLogViewer(newTestPager(repo), testLogger())
		if _, err := v.Load(ctx); err != nil {
			t.Fatal(err)
		}
		if s, err := v.AdvancePage(ctx); err != nil || s.Loading {
			t.Fatalf("expected a no-op advance, got %+v, %v", s, err)
		}
		if _, err := v.Refresh(ctx); err != nil {
			t.Errorf("expected viewer to accept loads after a no-op advance, got %v", err)
		}
	})

	t.Run("View Filters Current Rows", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{Records: makeRecords(5)}
		v := NewWasteLogViewer(newTestPager(repo), testLogger())
		if _, err := v.Load(ctx); err != nil {
			t.Fatal(err)
		}

		if got := v.View("user-3").Rows; len(got) != 1 || got[0].ID != "r03" {
			t.Errorf("expected only r03, got %s", ids(got))
		}
		if got := v.View(""); len(got.Rows) != 5 {
			t.Errorf("expected all rows for empty term, got %d", len(got.Rows))
		}
	})
}

func TestViewerRegistry(t *testing.T) {
	t.Run("One Viewer Per Session", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{}
		r := NewViewerRegistry(newTestPager(repo), testLogger(), nil, time.Hour)

		a := r.Get("s1")
		if r.Get("s1") != a {
			t.Error("expected the same viewer for the same session")
		}
		if r.Get("s2") == a {
			t.Error("expected distinct viewers per session")
		}
		r.Drop("s1")
		r.Drop("s1")
		if r.Len() != 1 {
			t.Errorf("expected 1 viewer, got %d", r.Len())
		}
	})

	t.Run("Idle Viewers Are Evicted", func(t *testing.T) {
		repo := &mocks.MockWasteLogRepository{}
		r := NewViewerRegistry(newTestPager(repo), testLogger(), nil, time.Hour)
		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		r.now = func() time.Time { return now }

		stale := r.Get("expired")
		r.Get("active")
		now = now.Add(45 * time.Minute)
		r.Get("active")
		now = now.Add(30 * time.Minute)

		r.Get("fresh")
		if r.Len() != 2 {
			t.Fatalf("expected the idle viewer to be swept, got %d viewers", r.Len())
		}
		if r.Get("expired") == stale {
			t.Error("expected a new viewer after eviction")
		}
	})

	t.Run("Zero TTL Uses Default", func(t *testing.T) {
		r := NewViewerRegistry(newTestPager(&mocks.MockWasteLogRepository{}), testLogger(), nil, 0)
		if r.idleTTL != DefaultViewerIdleTTL {
			t.Errorf("idleTTL = %v, want %v", r.idleTTL, DefaultViewerIdleTTL)
		}
	})
}
