package pii

import (
	"log/slog"
	"strings"
)

const RedactedPlaceholder = "[REDACTED]"

// EmailKey is the attribute key whose values are masked rather than redacted.
const EmailKey = "email"

// Redactor removes sensitive values from log attributes.
type Redactor struct {
	fieldsToRedact map[string]struct{} // Use a map for O(1) lookups
}

// NewRedactor creates a new Redactor instance with a given set of fields to redact.
// Field names are matched case-insensitively.
func NewRedactor(fields []string) *Redactor {
	fieldSet := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.ToLower(strings.TrimSpace(field))
		if field != "" {
			fieldSet[field] = struct{}{}
		}
	}
	return &Redactor{fieldsToRedact: fieldSet}
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook. Configured fields
// are replaced with RedactedPlaceholder and email values are masked.
func (r *Redactor) ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	if _, ok := r.fieldsToRedact[key]; ok {
		return slog.String(a.Key, RedactedPlaceholder)
	}
	if key == EmailKey && a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, MaskEmail(a.Value.String()))
	}
	return a
}

// MaskEmail keeps the first character of the local part and the domain:
// "ada@example.com" becomes "a***@example.com".
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
