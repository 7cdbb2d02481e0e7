package output

import (
	"fmt"
	"unicode/utf8"
)

// TruncateGeneric keeps at most maxItems elements of items. A warning is
// returned when elements were dropped.
func TruncateGeneric[T any](items []T, maxItems int) ([]T, *TruncationWarning) {
	limit := clamp(maxItems, DefaultMaxItems, AbsoluteMaxItems)
	if len(items) <= limit {
		return items, nil
	}
	return items[:limit], &TruncationWarning{
		Shown:   limit,
		Total:   len(items),
		Message: fmt.Sprintf("Output truncated. Showing %d of %d entries. Browse a deeper folder for complete results.", limit, len(items)),
	}
}

// TruncateText cuts text to at most maxBytes bytes without splitting a UTF-8
// sequence.
func TruncateText(text string, maxBytes int) (string, *TruncationWarning) {
	limit := clamp(maxBytes, DefaultMaxResponseBytes, AbsoluteMaxResponseBytes)
	if len(text) <= limit {
		return text, nil
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut], &TruncationWarning{
		Shown:   cut,
		Total:   len(text),
		Message: fmt.Sprintf("Document truncated. Showing %d of %d bytes.", cut, len(text)),
	}
}

// EffectiveLimit combines the limit a caller asked for with the configured
// one. The smaller positive value wins, bounded by AbsoluteMaxItems.
func EffectiveLimit(requestLimit, configLimit int) int {
	limit := clamp(configLimit, DefaultMaxItems, AbsoluteMaxItems)
	if requestLimit > 0 && (configLimit <= 0 || requestLimit < limit) {
		limit = min(requestLimit, AbsoluteMaxItems)
	}
	return limit
}
