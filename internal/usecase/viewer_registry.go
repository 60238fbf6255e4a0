package usecase

import (
	"log/slog"
	"sync"
	"time"

	"github.com/V4T54L/waste-watch/internal/adapter/metrics"
)

// DefaultViewerIdleTTL is used when NewViewerRegistry is given no idle TTL.
const DefaultViewerIdleTTL = 24 * time.Hour

type viewerEntry struct {
	viewer   *WasteLogViewer
	lastSeen time.Time
}

// ViewerRegistry keeps one WasteLogViewer per admin session.
//
// Viewers untouched for longer than the idle TTL are swept whenever a new
// viewer is created, so sessions that expire without signing out do not
// pin their viewers.
type ViewerRegistry struct {
	pager   *LogPager
	logger  *slog.Logger
	metrics *metrics.DashboardMetrics
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	viewers map[string]*viewerEntry
}

// NewViewerRegistry creates an empty registry. m may be nil. idleTTL should
// be at least the session lifetime; zero means DefaultViewerIdleTTL.
func NewViewerRegistry(pager *LogPager, logger *slog.Logger, m *metrics.DashboardMetrics, idleTTL time.Duration) *ViewerRegistry {
	if idleTTL <= 0 {
		idleTTL = DefaultViewerIdleTTL
	}
	return &ViewerRegistry{
		pager:   pager,
		logger:  logger,
		metrics: m,
		idleTTL: idleTTL,
		now:     time.Now,
		viewers: make(map[string]*viewerEntry),
	}
}

// Get returns the viewer bound to sessionID, creating it on first use.
func (r *ViewerRegistry) Get(sessionID string) *WasteLogViewer {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e, ok := r.viewers[sessionID]
	if !ok {
		r.sweep(now)
		e = &viewerEntry{viewer: NewWasteLogViewer(r.pager, r.logger)}
		r.viewers[sessionID] = e
		r.setGauge()
	}
	e.lastSeen = now
	return e.viewer
}

// Drop forgets the viewer bound to sessionID.
func (r *ViewerRegistry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.viewers[sessionID]; ok {
		delete(r.viewers, sessionID)
		r.setGauge()
	}
}

// Len returns the number of live viewers.
func (r *ViewerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.viewers)
}

func (r *ViewerRegistry) sweep(now time.Time) {
	for id, e := range r.viewers {
		if now.Sub(e.lastSeen) > r.idleTTL {
			delete(r.viewers, id)
			r.logger.Debug("evicted idle log viewer", "idle", now.Sub(e.lastSeen))
		}
	}
}

func (r *ViewerRegistry) setGauge() {
	if r.metrics != nil {
		r.metrics.ActiveViewers.Set(float64(len(r.viewers)))
	}
}
