package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanImportGate(t *testing.T) {
	c := Checklist{
		Total:         3,
		ReviewedCount: 3,
		Simulation:    SimulationResult{Completed: true},
	}
	assert.True(t, c.CanImport())

	// flipping any one condition closes the gate
	c.Importing = true
	assert.False(t, c.CanImport())
	c.Importing = false

	c.Syncing = true
	assert.False(t, c.CanImport())
	c.Syncing = false

	c.ReviewedCount = 2
	assert.False(t, c.CanImport())
	c.ReviewedCount = 3

	c.Simulation.Completed = false
	assert.False(t, c.CanImport())
	c.Simulation.Completed = true

	c.Total = 0
	c.ReviewedCount = 0
	assert.False(t, c.CanImport())
}

func TestReviewState(t *testing.T) {
	c := Checklist{Total: 2}
	assert.Equal(t, StateNotStarted, c.ReviewState())

	c.ReviewedCount = 1
	assert.Equal(t, StateInProgress, c.ReviewState())

	c.ReviewedCount = 2
	assert.Equal(t, StateCompleted, c.ReviewState())
}

func TestDeriveSimulationIssues(t *testing.T) {
	questions := []ProcessedQuestion{
		{ID: "q_1", QuestionNumber: 1, AnswerRequirement: RequireAnyTwoFrom},
		{ID: "q_2", QuestionNumber: 2, FigureRequired: true},
		{ID: "q_3", QuestionNumber: 3, Marks: 9},
		{ID: "q_4", QuestionNumber: 4},
	}
	answers := map[string]SimulationAnswer{
		"q_4": {QuestionID: "q_4", Answered: true, TimeSpentSeconds: 200},
	}

	issues := DeriveSimulationIssues(questions, answers, nil)

	kinds := map[string]string{}
	for _, issue := range issues {
		kinds[issue.QuestionID] = issue.Kind
	}
	assert.Equal(t, "unanswered_requirement", kinds["q_1"])
	assert.Equal(t, "missing_figure", kinds["q_2"])
	assert.Equal(t, "no_hint", kinds["q_3"])
	assert.Equal(t, "slow_answer", kinds["q_4"])
}

func TestDeriveSimulationIssuesCleanRun(t *testing.T) {
	questions := []ProcessedQuestion{
		{ID: "q_1", QuestionNumber: 1, FigureRequired: true, Marks: 9, Hint: "use F=ma", AnswerRequirement: RequireAnyOneFrom},
	}
	answers := map[string]SimulationAnswer{
		"q_1": {QuestionID: "q_1", Answered: true, TimeSpentSeconds: 30},
	}
	attachments := map[string][]Attachment{
		"q_1": {{ID: "a1", Name: "fig.png"}},
	}

	assert.Empty(t, DeriveSimulationIssues(questions, answers, attachments))
}

func TestFinishSimulation(t *testing.T) {
	questions := []ProcessedQuestion{
		{ID: "q_1", QuestionNumber: 1, FigureRequired: true, Marks: 9},
	}

	result := FinishSimulation(questions, nil, nil, 420)

	assert.True(t, result.Completed)
	require.NotNil(t, result.CompletedAt)
	assert.Equal(t, 420, result.TimeSpentSeconds)

	// q_1 has two issues but is flagged once
	assert.Equal(t, []string{"q_1"}, result.FlaggedQuestions)
	assert.Len(t, result.Issues, 2)
	assert.NotEmpty(t, result.Recommendations)
}
