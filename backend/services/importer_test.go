package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportResultSummaryTruncatesErrors(t *testing.T) {
	result := ImportResult{
		ImportedQuestions: 2,
		SkippedQuestions:  1,
		Errors: []ImportError{
			{QuestionID: "q_1", Message: "bad payload"},
			{QuestionID: "q_2", Message: "bad payload"},
			{QuestionID: "q_3", Message: "bad payload"},
			{QuestionID: "q_4", Message: "bad payload"},
			{QuestionID: "q_5", Message: "bad payload"},
		},
	}

	summary := result.Summary()
	assert.Equal(t, 2, summary["imported_questions"])
	assert.Equal(t, 5, summary["error_count"])
	assert.Equal(t, "and 2 more error(s)", summary["errors_truncated"])

	details, ok := summary["error_details"].([]ImportError)
	require.True(t, ok)
	assert.Len(t, details, 3)
}

func TestImportResultSummaryFewErrors(t *testing.T) {
	result := ImportResult{
		ImportedQuestions: 1,
		Errors:            []ImportError{{QuestionID: "q_1", Message: "bad payload"}},
	}

	summary := result.Summary()
	assert.NotContains(t, summary, "errors_truncated")
	assert.Len(t, summary["error_details"].([]ImportError), 1)

	clean := ImportResult{ImportedQuestions: 3}
	assert.NotContains(t, clean.Summary(), "error_details")
}

func TestParseID(t *testing.T) {
	assert.Equal(t, uint(42), parseID("42"))
	assert.Equal(t, uint(0), parseID(""))
	assert.Equal(t, uint(0), parseID("q_1"))
}
