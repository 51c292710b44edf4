package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestFigureFlagExplicitWins(t *testing.T) {
	assert.False(t, FigureFlag(boolPtr(false), "Use the diagram to answer."))
	assert.True(t, FigureFlag(boolPtr(true), "No visual reference at all."))
}

func TestFigureFlagKeywordHeuristic(t *testing.T) {
	assert.True(t, FigureFlag(nil, "As shown in Figure 2, the beam bends."))
	assert.True(t, FigureFlag(nil, "Sketch a graph of velocity against time."))
	assert.False(t, FigureFlag(nil, "State the unit of force."))

	// the substring scan is deliberately naive: "photograph" contains "graph"
	assert.True(t, FigureFlag(nil, "The photograph shows a cell."))
}

func TestFigureRequiredFallbackChain(t *testing.T) {
	// explicit required flag always wins
	assert.False(t, FigureRequired(boolPtr(false), boolPtr(true), "see the diagram"))
	assert.True(t, FigureRequired(boolPtr(true), nil, "plain text"))

	// absent, it falls through to the figure flag, then the text heuristic
	assert.True(t, FigureRequired(nil, boolPtr(true), "plain text"))
	assert.True(t, FigureRequired(nil, nil, "label the diagram below"))
	assert.False(t, FigureRequired(nil, nil, "plain text"))
}
