package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/V4T54L/waste-watch/internal/domain"
)

// ViewerState is a snapshot of a WasteLogViewer.
type ViewerState struct {
	Page    int                     `json:"page"`
	Rows    []domain.EnrichedLogRow `json:"rows"`
	HasMore bool                    `json:"has_more"`
	Loading bool                    `json:"loading"`
	Loaded  bool                    `json:"loaded"`
}

// WasteLogViewer holds the navigation state of one admin's log table.
//
// The start cursor of every page visited going forward is kept on a stack,
// so moving back reloads exactly the previous page. Only one load runs at a
// time; a load requested while another is outstanding fails with
// domain.ErrFetchInProgress and leaves the state untouched.
type WasteLogViewer struct {
	pager  *LogPager
	logger *slog.Logger

	mu      sync.Mutex
	loading bool
	loaded  bool
	page    int
	rows    []domain.EnrichedLogRow
	hasMore bool
	next    *domain.Cursor
	// starts[i] is the cursor page i+1 was fetched after; nil for page 1.
	starts []*domain.Cursor
}

// NewWasteLogViewer creates a viewer positioned before the first page.
func NewWasteLogViewer(pager *LogPager, logger *slog.Logger) *WasteLogViewer {
	return &WasteLogViewer{
		pager:  pager,
		logger: logger.With("component", "log_viewer"),
		page:   1,
		starts: []*domain.Cursor{nil},
	}
}

// Load (re)loads the first page and resets the navigation history.
func (v *WasteLogViewer) Load(ctx context.Context) (ViewerState, error) {
	if err := v.begin(); err != nil {
		return v.State(), err
	}
	page, err := v.pager.LoadPage(ctx, nil)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	if err != nil {
		return v.stateLocked(), err
	}
	v.page = 1
	v.starts = []*domain.Cursor{nil}
	v.apply(page)
	return v.stateLocked(), nil
}

// Refresh reloads the current page from its start cursor.
func (v *WasteLogViewer) Refresh(ctx context.Context) (ViewerState, error) {
	if err := v.begin(); err != nil {
		return v.State(), err
	}
	v.mu.Lock()
	start := v.starts[len(v.starts)-1]
	v.mu.Unlock()

	page, err := v.pager.LoadPage(ctx, start)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	if err != nil {
		return v.stateLocked(), err
	}
	v.apply(page)
	return v.stateLocked(), nil
}

// AdvancePage moves to the next page. It is a no-op when no more records
// are expected. An empty next page clears HasMore and keeps the current rows.
func (v *WasteLogViewer) AdvancePage(ctx context.Context) (ViewerState, error) {
	if !v.Loaded() {
		return v.Load(ctx)
	}
	if err := v.begin(); err != nil {
		return v.State(), err
	}
	v.mu.Lock()
	if !v.hasMore {
		defer v.mu.Unlock()
		v.loading = false
		return v.stateLocked(), nil
	}
	start := v.next
	v.mu.Unlock()

	page, err := v.pager.LoadPage(ctx, start)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	if err != nil {
		return v.stateLocked(), err
	}
	if len(page.Rows) == 0 {
		v.hasMore = false
		return v.stateLocked(), nil
	}
	v.starts = append(v.starts, start)
	v.page++
	v.apply(page)
	return v.stateLocked(), nil
}

// RetreatPage moves back to the previous page by replaying its start cursor.
// It is a no-op on the first page.
func (v *WasteLogViewer) RetreatPage(ctx context.Context) (ViewerState, error) {
	if err := v.begin(); err != nil {
		return v.State(), err
	}
	v.mu.Lock()
	if v.page < 2 || len(v.starts) < 2 {
		defer v.mu.Unlock()
		v.loading = false
		return v.stateLocked(), nil
	}
	start := v.starts[len(v.starts)-2]
	v.mu.Unlock()

	page, err := v.pager.LoadPage(ctx, start)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	if err != nil {
		return v.stateLocked(), err
	}
	v.starts = v.starts[:len(v.starts)-1]
	v.page--
	v.apply(page)
	return v.stateLocked(), nil
}

// View returns the current state with rows filtered by term.
func (v *WasteLogViewer) View(term string) ViewerState {
	s := v.State()
	s.Rows = Search(term, s.Rows)
	return s
}

// State returns a snapshot of the viewer.
func (v *WasteLogViewer) State() ViewerState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stateLocked()
}

// Loaded reports whether a page has been loaded yet.
func (v *WasteLogViewer) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

func (v *WasteLogViewer) begin() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loading {
		v.logger.Warn("ignoring load request while a fetch is outstanding", "page", v.page)
		return domain.ErrFetchInProgress
	}
	v.loading = true
	return nil
}

func (v *WasteLogViewer) apply(page *EnrichedPage) {
	v.loaded = true
	v.rows = page.Rows
	v.hasMore = page.HasMore
	v.next = page.Next
}

func (v *WasteLogViewer) stateLocked() ViewerState {
	rows := make([]domain.EnrichedLogRow, len(v.rows))
	copy(rows, v.rows)
	return ViewerState{
		Page:    v.page,
		Rows:    rows,
		HasMore: v.hasMore,
		Loading: v.loading,
		Loaded:  v.loaded,
	}
}
