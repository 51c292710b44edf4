package pipeline

import "strings"

// Keywords that mark a question as referring to a figure. This heuristic
// false-positives on prose that merely mentions a graph without requiring
// one; the keyword list is intentionally left as-is until the product side
// decides otherwise.
var figureKeywords = []string{"figure", "diagram", "graph", "image"}

// FigureFlag reports whether an item has a figure. An explicit boolean on the
// parsed item wins; otherwise the keyword heuristic over the item text
// decides.
func FigureFlag(explicit *bool, text string) bool {
	if explicit != nil {
		return *explicit
	}
	return mentionsFigure(text)
}

// FigureRequired reports whether a figure attachment is mandatory. Explicit
// flag first, then FigureFlag as the second-level fallback.
func FigureRequired(required, figure *bool, text string) bool {
	if required != nil {
		return *required
	}
	return FigureFlag(figure, text)
}

func mentionsFigure(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range figureKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
