package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/V4T54L/waste-watch/internal/adapter/api/middleware"
	"github.com/V4T54L/waste-watch/internal/domain"
	"github.com/V4T54L/waste-watch/internal/usecase"
)

// logRow is an enriched log entry with its presentation fields.
type logRow struct {
	domain.EnrichedLogRow
	StatusBadge usecase.Badge `json:"status_badge"`
	SortedLabel string        `json:"sorted_label"`
}

type logPageResponse struct {
	Rows       []logRow `json:"rows"`
	NextCursor string   `json:"next_cursor,omitempty"`
	HasMore    bool     `json:"has_more"`
}

type viewerResponse struct {
	Page    int      `json:"page"`
	Rows    []logRow `json:"rows"`
	HasMore bool     `json:"has_more"`
	Loading bool     `json:"loading"`
}

func presentRows(rows []domain.EnrichedLogRow) []logRow {
	out := make([]logRow, len(rows))
	for i, row := range rows {
		out[i] = logRow{
			EnrichedLogRow: row,
			StatusBadge:    usecase.StatusBadge(row.Status),
			SortedLabel:    usecase.SortedLabel(row.SortedCorrectly),
		}
	}
	return out
}

func presentViewer(s usecase.ViewerState) viewerResponse {
	return viewerResponse{
		Page:    s.Page,
		Rows:    presentRows(s.Rows),
		HasMore: s.HasMore,
		Loading: s.Loading,
	}
}

// LogsHandler serves the waste log table, both as stateless cursor pages and
// as a per-session viewer.
type LogsHandler struct {
	pager   *usecase.LogPager
	viewers *usecase.ViewerRegistry
	logger  *slog.Logger
}

// NewLogsHandler creates a new LogsHandler.
func NewLogsHandler(pager *usecase.LogPager, viewers *usecase.ViewerRegistry, logger *slog.Logger) *LogsHandler {
	return &LogsHandler{pager: pager, viewers: viewers, logger: logger}
}

// ListLogs handles GET /api/logs?cursor=&q=.
func (h *LogsHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	cursor, err := domain.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	page, err := h.pager.LoadPage(r.Context(), cursor)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, logPageResponse{
		Rows:       presentRows(usecase.Search(r.URL.Query().Get("q"), page.Rows)),
		NextCursor: page.Next.Encode(),
		HasMore:    page.HasMore,
	})
}

// Viewer handles GET /api/viewer?q=. The first call of a session loads page 1.
func (h *LogsHandler) Viewer(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	if !viewer.Loaded() {
		if _, err := viewer.Load(r.Context()); err != nil {
			respondError(w, h.logger, err)
			return
		}
	}
	respondWithJSON(w, h.logger, http.StatusOK, presentViewer(viewer.View(r.URL.Query().Get("q"))))
}

// Next handles POST /api/viewer/next.
func (h *LogsHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, (*usecase.WasteLogViewer).AdvancePage)
}

// Prev handles POST /api/viewer/prev.
func (h *LogsHandler) Prev(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, (*usecase.WasteLogViewer).RetreatPage)
}

// Refresh handles POST /api/viewer/refresh.
func (h *LogsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, (*usecase.WasteLogViewer).Refresh)
}

func (h *LogsHandler) navigate(w http.ResponseWriter, r *http.Request, move func(*usecase.WasteLogViewer, context.Context) (usecase.ViewerState, error)) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	state, err := move(viewer, r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, presentViewer(state))
}

func (h *LogsHandler) viewer(w http.ResponseWriter, r *http.Request) (*usecase.WasteLogViewer, bool) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: no session", http.StatusUnauthorized)
		return nil, false
	}
	return h.viewers.Get(session.ID), true
}
