package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessPhysicsCalculationQuestion(t *testing.T) {
	raw := []RawQuestion{{
		QuestionText:  "Calculate the force acting on the object.",
		Marks:         6,
		CorrectAnswer: "10N",
	}}

	out := ProcessQuestions(raw, "Physics")
	assert.Len(t, out, 1)

	q := out[0]
	assert.Equal(t, "q_1", q.ID)
	assert.Equal(t, 1, q.QuestionNumber)
	assert.Equal(t, TypeDescriptive, q.QuestionType)
	assert.Equal(t, FormatCalculation, q.AnswerFormat)
	assert.Equal(t, DifficultyMedium, q.Difficulty)
	assert.Equal(t, 6, q.Marks)
	assert.False(t, q.Figure)

	assert.Len(t, q.CorrectAnswers, 1)
	assert.Equal(t, "10N", q.CorrectAnswers[0].Answer)
	assert.Equal(t, 6, q.CorrectAnswers[0].Marks)
	assert.Equal(t, 1, q.CorrectAnswers[0].AlternativeID)
}

func TestQuestionTypeDetection(t *testing.T) {
	mcq := RawQuestion{
		QuestionText: "Which of these is a metal?",
		Options:      []RawOption{{Text: "Iron"}, {Text: "Sulfur"}},
	}
	assert.Equal(t, TypeMCQ, detectQuestionType(&mcq))

	tfText := RawQuestion{QuestionText: "State whether the following is true or false."}
	assert.Equal(t, TypeTrueFalse, detectQuestionType(&tfText))

	tfHint := RawQuestion{QuestionText: "The Earth orbits the Sun.", QuestionType: "true_false"}
	assert.Equal(t, TypeTrueFalse, detectQuestionType(&tfHint))

	plain := RawQuestion{QuestionText: "Explain how convection works."}
	assert.Equal(t, TypeDescriptive, detectQuestionType(&plain))
}

func TestDeriveDifficulty(t *testing.T) {
	assert.Equal(t, DifficultyHard, deriveDifficulty(8, 0))
	assert.Equal(t, DifficultyHard, deriveDifficulty(0, 4))
	assert.Equal(t, DifficultyMedium, deriveDifficulty(4, 0))
	assert.Equal(t, DifficultyMedium, deriveDifficulty(0, 2))
	assert.Equal(t, DifficultyMedium, deriveDifficulty(3, 2))
	assert.Equal(t, DifficultyEasy, deriveDifficulty(3, 1))
	assert.Equal(t, DifficultyEasy, deriveDifficulty(1, 0))
}

func TestPartsExcludeDirectAnswers(t *testing.T) {
	raw := []RawQuestion{{
		QuestionText:  "This question is in two parts.",
		CorrectAnswer: "should be ignored",
		Options:       []RawOption{{Text: "also ignored"}},
		Parts: []RawPart{
			{Text: "Name the process.", Marks: 2, CorrectAnswer: "osmosis"},
			{Text: "Describe it.", Marks: 4, Subparts: []RawSubpart{
				{Text: "In plants.", Marks: 2},
				{Text: "In animals.", Marks: 2},
			}},
		},
	}}

	q := ProcessQuestions(raw, "Biology")[0]
	assert.Len(t, q.Parts, 2)
	assert.Empty(t, q.CorrectAnswers)
	assert.Empty(t, q.Options)

	// marks roll up from parts when the question carries none of its own
	assert.Equal(t, 6, q.Marks)

	assert.Equal(t, "a", q.Parts[0].Label)
	assert.Equal(t, "b", q.Parts[1].Label)
	assert.Equal(t, "i", q.Parts[1].Subparts[0].Label)
	assert.Equal(t, "ii", q.Parts[1].Subparts[1].Label)

	// a part with subparts likewise carries no direct answers
	assert.Empty(t, q.Parts[1].CorrectAnswers)
	assert.Len(t, q.Parts[0].CorrectAnswers, 1)
}

func TestDetectAnswerFormat(t *testing.T) {
	assert.Equal(t, FormatParagraph, DetectAnswerFormat("Explain why the rate increases.", "chemistry"))
	assert.Equal(t, FormatCalculation, DetectAnswerFormat("Calculate the momentum.", "physics"))
	// calculate is gated to quantitative subjects
	assert.Equal(t, FormatSingleLine, DetectAnswerFormat("Calculate the yield.", "biology"))
	assert.Equal(t, FormatChemicalStructure, DetectAnswerFormat("Draw the structure of ethanol.", "chemistry"))
	assert.Equal(t, FormatDiagram, DetectAnswerFormat("Draw the circuit.", "physics"))
	assert.Equal(t, FormatTwoItems, DetectAnswerFormat("State two uses of copper.", "chemistry"))
	assert.Equal(t, FormatMultiLineLabeled, DetectAnswerFormat("Give a use for each of the following compounds.", "chemistry"))
	// the per-item rule outranks the paragraph rule
	assert.Equal(t, FormatMultiLineLabeled, DetectAnswerFormat("In each case, explain your answer.", "biology"))
	assert.Equal(t, FormatSingleWord, DetectAnswerFormat("Identify the gas produced.", "chemistry"))
	assert.Equal(t, FormatSingleLine, DetectAnswerFormat("What is the capital of France?", ""))

	// first matching rule wins
	assert.Equal(t, FormatCalculation, DetectAnswerFormat("Explain your reasoning and calculate the total.", "physics"))
}

func TestDetectAnswerRequirement(t *testing.T) {
	assert.Equal(t, RequireAnyTwoFrom, DetectAnswerRequirement("Any two from: heat, light, sound"))
	assert.Equal(t, RequireAnyThreeFrom, DetectAnswerRequirement("any 3 from the list"))
	assert.Equal(t, RequireBothRequired, DetectAnswerRequirement("both required for the mark"))
	assert.Equal(t, RequireAlternativeMethods, DetectAnswerRequirement("accept any valid method"))
	assert.Equal(t, RequireAcceptableVariations, DetectAnswerRequirement("allow rounding to 2 s.f."))

	// two or more slashes mean slash-separated alternatives
	assert.Equal(t, RequireAnyOneFrom, DetectAnswerRequirement("heat / light / sound"))
	assert.Equal(t, "", DetectAnswerRequirement("heat / light"))
	assert.Equal(t, "", DetectAnswerRequirement("a single exact answer"))
}

func TestNormalizeAnswersAlternativeIDs(t *testing.T) {
	answers := normalizeAnswers("", []RawAnswer{
		{Answer: "oxygen", Marks: 1},
		{Answer: "O2"},
		{Answer: "dioxygen"},
	}, 2)

	assert.Len(t, answers, 3)
	for i, a := range answers {
		assert.Equal(t, i+1, a.AlternativeID)
	}
	assert.Equal(t, 1, answers[0].Marks)
	// unset marks fall back to the group default
	assert.Equal(t, 2, answers[1].Marks)
}

func TestNormalizeOptionsDefaultLabels(t *testing.T) {
	options := normalizeOptions([]RawOption{
		{Text: "Iron", IsCorrect: true},
		{Text: "Sulfur"},
		{Label: "X", Text: "Neon"},
	})

	assert.Equal(t, "A", options[0].Label)
	assert.Equal(t, "B", options[1].Label)
	assert.Equal(t, "X", options[2].Label)
	assert.True(t, options[0].IsCorrect)
}
