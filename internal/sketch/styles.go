package sketch

import "strings"

// Style identifies a sketch rendering style.
type Style string

const (
	StylePencil     Style = "pencil"
	StyleCharcoal   Style = "charcoal"
	StyleInk        Style = "ink"
	StyleCrosshatch Style = "crosshatch"
)

var allStyles = []Style{StylePencil, StyleCharcoal, StyleInk, StyleCrosshatch}

// Styles returns the identifiers accepted by request validation.
func Styles() []Style {
	out := make([]Style, len(allStyles))
	copy(out, allStyles)
	return out
}

// ParseStyle sanitizes free-form user input into a supported style. The
// boolean is false when the input names no known style.
func ParseStyle(raw string) (Style, bool) {
	switch Style(strings.ToLower(strings.TrimSpace(raw))) {
	case StylePencil:
		return StylePencil, true
	case StyleCharcoal:
		return StyleCharcoal, true
	case StyleInk:
		return StyleInk, true
	case StyleCrosshatch:
		return StyleCrosshatch, true
	default:
		return "", false
	}
}
