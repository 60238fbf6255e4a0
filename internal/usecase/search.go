package usecase

import (
	"strings"

	"github.com/V4T54L/waste-watch/internal/domain"
)

// Search filters rows by a case-insensitive substring match against the
// waste type label, user id, waste type display name, bin id and status.
// A blank term returns rows unchanged. Order is preserved.
func Search(term string, rows []domain.EnrichedLogRow) []domain.EnrichedLogRow {
	if strings.TrimSpace(term) == "" {
		return rows
	}
	needle := strings.ToLower(term)

	filtered := make([]domain.EnrichedLogRow, 0, len(rows))
	for _, row := range rows {
		if MatchesTerm(row, needle) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// MatchesTerm reports whether any searched field of row contains the
// lower-cased needle.
func MatchesTerm(row domain.EnrichedLogRow, needle string) bool {
	fields := [...]string{
		row.WasteTypeLabel,
		row.UserID,
		row.WasteTypeDisplayName,
		row.BinID,
		row.Status,
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
