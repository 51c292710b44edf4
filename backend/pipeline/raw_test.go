package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawQuestionFieldAliases(t *testing.T) {
	var q RawQuestion
	err := json.Unmarshal([]byte(`{"question": "Name the organ.", "chapter": "Biology Basics", "total_marks": 3}`), &q)
	require.NoError(t, err)

	assert.Equal(t, "Name the organ.", q.PromptText())
	assert.Equal(t, "Biology Basics", q.UnitName())
	assert.Equal(t, 3, q.MarkValue())
}

func TestRawAnswerStringOrObject(t *testing.T) {
	var q RawQuestion
	err := json.Unmarshal([]byte(`{"correct_answers": ["osmosis", {"answer": "diffusion", "marks": 2}]}`), &q)
	require.NoError(t, err)

	require.Len(t, q.CorrectAnswers, 2)
	assert.Equal(t, "osmosis", q.CorrectAnswers[0].Answer)
	assert.Equal(t, "diffusion", q.CorrectAnswers[1].Answer)
	assert.Equal(t, float64(2), q.CorrectAnswers[1].Marks)
}

func TestRawOptionStringOrObject(t *testing.T) {
	var q RawQuestion
	err := json.Unmarshal([]byte(`{"options": ["Iron", {"label": "B", "text": "Sulfur", "is_correct": true}]}`), &q)
	require.NoError(t, err)

	require.Len(t, q.Options, 2)
	assert.Equal(t, "Iron", q.Options[0].Text)
	assert.True(t, q.Options[1].IsCorrect)
}

func TestTopicNameSplitting(t *testing.T) {
	q := RawQuestion{Topic: "Waves, Optics/Refraction"}
	assert.Equal(t, []string{"Waves", "Optics", "Refraction"}, q.TopicNames())

	list := RawQuestion{Topics: []string{"Waves", "Optics / Sound"}}
	assert.Equal(t, []string{"Waves", "Optics", "Sound"}, list.TopicNames())
}

func TestSubpartRomanLabels(t *testing.T) {
	s := RawSubpart{}
	assert.Equal(t, "i", s.SubpartLabel(0))
	assert.Equal(t, "iv", s.SubpartLabel(3))
	assert.Equal(t, "ix", s.SubpartLabel(8))
}
