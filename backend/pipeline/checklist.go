package pipeline

import (
	"fmt"
	"time"
)

// Checklist progression states, tracked independently for manual review and
// for the simulation run.
const (
	StateNotStarted = "not_started"
	StateInProgress = "in_progress"
	StateCompleted  = "completed"
)

// ReviewStatus mirrors one question's manual-review flag as persisted to the
// review-status table.
type ReviewStatus struct {
	QuestionID     string     `json:"question_id"`
	IsReviewed     bool       `json:"is_reviewed"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	HasIssues      bool       `json:"has_issues,omitempty"`
	IssueCount     int        `json:"issue_count,omitempty"`
	NeedsAttention bool       `json:"needs_attention,omitempty"`
}

type SimulationIssue struct {
	QuestionID string `json:"question_id"`
	Kind       string `json:"kind"`
	Detail     string `json:"detail"`
}

// SimulationResult is produced once per simulation run and persisted into the
// import session's metadata.
type SimulationResult struct {
	Completed        bool              `json:"completed"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	FlaggedQuestions []string          `json:"flagged_questions"`
	Issues           []SimulationIssue `json:"issues"`
	Recommendations  []string          `json:"recommendations"`
	OverallScore     *float64          `json:"overall_score,omitempty"`
	TimeSpentSeconds int               `json:"time_spent_seconds,omitempty"`
}

// SimulationAnswer is what the learner-facing dry run reports back per
// question.
type SimulationAnswer struct {
	QuestionID       string `json:"question_id"`
	Answered         bool   `json:"answered"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

// Checklist aggregates the preconditions of the final import action.
type Checklist struct {
	Total         int
	ReviewedCount int
	Simulation    SimulationResult
	Importing     bool // an import invocation is already running
	Syncing       bool // review-status sync to storage is in flight
}

func (c *Checklist) ReviewState() string {
	switch {
	case c.Total > 0 && c.ReviewedCount == c.Total:
		return StateCompleted
	case c.ReviewedCount > 0:
		return StateInProgress
	default:
		return StateNotStarted
	}
}

func (c *Checklist) SimulationState() string {
	if c.Simulation.Completed {
		return StateCompleted
	}
	return StateNotStarted
}

// CanImport is the import gate: a single AND of independent booleans rather
// than conditionals scattered over call sites.
func (c *Checklist) CanImport() bool {
	return !c.Importing &&
		!c.Syncing &&
		c.Total > 0 &&
		c.ReviewedCount == c.Total &&
		c.Simulation.Completed
}

// Answers slower than this are flagged by the simulation pass.
const slowAnswerThreshold = 180 * time.Second

// FinishSimulation closes out a simulation pass: derives issues from the
// recorded answers, flags the affected questions, and stamps the result.
func FinishSimulation(questions []ProcessedQuestion, answers map[string]SimulationAnswer, attachments map[string][]Attachment, timeSpentSeconds int) SimulationResult {
	issues := DeriveSimulationIssues(questions, answers, attachments)

	flaggedSet := make(map[string]bool)
	var flagged []string
	for _, issue := range issues {
		if !flaggedSet[issue.QuestionID] {
			flaggedSet[issue.QuestionID] = true
			flagged = append(flagged, issue.QuestionID)
		}
	}

	now := time.Now().UTC()
	return SimulationResult{
		Completed:        true,
		CompletedAt:      &now,
		FlaggedQuestions: flagged,
		Issues:           issues,
		Recommendations:  recommendationsFor(issues),
		TimeSpentSeconds: timeSpentSeconds,
	}
}

// DeriveSimulationIssues computes the issue list a finished simulation
// appends to its result: unanswered questions with dynamic answer
// requirements, missing required figures, high-mark questions without hints,
// and questions answered slowly.
func DeriveSimulationIssues(questions []ProcessedQuestion, answers map[string]SimulationAnswer, attachments map[string][]Attachment) []SimulationIssue {
	var issues []SimulationIssue
	for _, q := range questions {
		a := answers[q.ID]

		if q.AnswerRequirement != "" && !a.Answered {
			issues = append(issues, SimulationIssue{
				QuestionID: q.ID,
				Kind:       "unanswered_requirement",
				Detail:     fmt.Sprintf("question %d has requirement %s but was not answered in the run", q.QuestionNumber, q.AnswerRequirement),
			})
		}
		if q.FigureRequired && !HasAttachment(attachments, AttachmentKey(q.ID)) {
			issues = append(issues, SimulationIssue{
				QuestionID: q.ID,
				Kind:       "missing_figure",
				Detail:     fmt.Sprintf("question %d requires a figure that is not attached", q.QuestionNumber),
			})
		}
		if q.Marks >= 8 && q.Hint == "" {
			issues = append(issues, SimulationIssue{
				QuestionID: q.ID,
				Kind:       "no_hint",
				Detail:     fmt.Sprintf("question %d carries %d marks but has no hint", q.QuestionNumber, q.Marks),
			})
		}
		if time.Duration(a.TimeSpentSeconds)*time.Second > slowAnswerThreshold {
			issues = append(issues, SimulationIssue{
				QuestionID: q.ID,
				Kind:       "slow_answer",
				Detail:     fmt.Sprintf("question %d took %ds to answer", q.QuestionNumber, a.TimeSpentSeconds),
			})
		}
	}
	return issues
}

func recommendationsFor(issues []SimulationIssue) []string {
	counts := make(map[string]int)
	for _, issue := range issues {
		counts[issue.Kind]++
	}

	var recs []string
	if n := counts["missing_figure"]; n > 0 {
		recs = append(recs, fmt.Sprintf("attach figures for %d question(s) before importing", n))
	}
	if n := counts["unanswered_requirement"]; n > 0 {
		recs = append(recs, fmt.Sprintf("re-check answer requirements on %d unanswered question(s)", n))
	}
	if n := counts["no_hint"]; n > 0 {
		recs = append(recs, fmt.Sprintf("consider adding hints to %d high-mark question(s)", n))
	}
	if n := counts["slow_answer"]; n > 0 {
		recs = append(recs, fmt.Sprintf("review wording of %d slow question(s)", n))
	}
	return recs
}
