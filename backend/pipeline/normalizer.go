package pipeline

import (
	"fmt"
	"strings"
)

// formatRule maps trigger keywords (optionally restricted to subjects) to an
// answer format. Rules are evaluated in order; the first match wins.
type formatRule struct {
	subjects []string
	keywords []string
	format   string
}

var formatRules = []formatRule{
	{subjects: []string{"chemistry"}, keywords: []string{"displayed formula", "structure of"}, format: FormatChemicalStructure},
	{subjects: []string{"chemistry"}, keywords: []string{"structure"}, format: FormatChemicalStructure},
	{subjects: []string{"chemistry"}, keywords: []string{"chemical formula", "molecular formula"}, format: FormatChemicalFormula},
	{keywords: []string{"balanced equation", "write an equation", "equation for"}, format: FormatEquation},
	{subjects: []string{"physics", "mathematics", "maths"}, keywords: []string{"calculate", "work out", "determine the value"}, format: FormatCalculation},
	{keywords: []string{"plot", "draw a graph", "sketch a graph", "sketch the graph"}, format: FormatGraph},
	{keywords: []string{"label the diagram", "labelled diagram", "labeled diagram"}, format: FormatLabeledDiagram},
	{keywords: []string{"draw", "sketch"}, format: FormatDiagram},
	{keywords: []string{"complete the table", "fill in the table"}, format: FormatTable},
	{keywords: []string{"in the form of a ratio", "express as a ratio", "ratio of"}, format: FormatRatio},
	{keywords: []string{"state two", "give two", "name two"}, format: FormatTwoItems},
	{keywords: []string{"match each", "pair each"}, format: FormatTwoItemsConnected},
	{keywords: []string{"for each of the following", "in each case"}, format: FormatMultiLineLabeled},
	{keywords: []string{"explain", "describe", "discuss", "evaluate"}, format: FormatParagraph},
	{keywords: []string{"list", "outline", "state three", "give three"}, format: FormatMultiLine},
	{keywords: []string{"state one", "give one", "name one", "identify"}, format: FormatSingleWord},
}

// requirementRule maps a fixed mark-scheme phrase to a requirement tag.
// Checked in textual order; first match wins.
type requirementRule struct {
	phrase string
	tag    string
}

var requirementRules = []requirementRule{
	{"any two from", RequireAnyTwoFrom},
	{"any 2 from", RequireAnyTwoFrom},
	{"any three from", RequireAnyThreeFrom},
	{"any 3 from", RequireAnyThreeFrom},
	{"any one from", RequireAnyOneFrom},
	{"any 1 from", RequireAnyOneFrom},
	{"both required", RequireBothRequired},
	{"both needed", RequireBothRequired},
	{"all required", RequireAllRequired},
	{"all needed", RequireAllRequired},
	{"alternative method", RequireAlternativeMethods},
	{"any valid method", RequireAlternativeMethods},
	{"accept any", RequireAcceptableVariations},
	{"or equivalent", RequireAcceptableVariations},
	{"allow ", RequireAcceptableVariations},
}

// ProcessQuestions normalizes raw parsed questions into the canonical tree.
// Pure transform: the raw slice is never mutated. IDs are sequential q_N in
// input order.
func ProcessQuestions(raw []RawQuestion, subject string) []ProcessedQuestion {
	out := make([]ProcessedQuestion, 0, len(raw))
	for i := range raw {
		out = append(out, processQuestion(&raw[i], i, subject))
	}
	return out
}

func processQuestion(q *RawQuestion, index int, subject string) ProcessedQuestion {
	text := q.PromptText()
	marks := q.MarkValue()

	parts := make([]ProcessedPart, 0, len(q.Parts))
	for i := range q.Parts {
		parts = append(parts, processPart(&q.Parts[i], i, subject))
	}
	if marks == 0 {
		for _, p := range parts {
			marks += p.Marks
		}
	}

	number := q.QuestionNumber
	if number == 0 {
		number = q.Number
	}
	if number == 0 {
		number = index + 1
	}

	requirement := q.AnswerRequirement
	if requirement == "" {
		requirement = DetectAnswerRequirement(q.SchemeText())
	}

	processed := ProcessedQuestion{
		ID:                fmt.Sprintf("q_%d", index+1),
		QuestionNumber:    number,
		QuestionText:      text,
		QuestionType:      detectQuestionType(q),
		Marks:             marks,
		Difficulty:        deriveDifficulty(marks, len(parts)),
		Figure:            FigureFlag(q.Figure, text),
		FigureRequired:    FigureRequired(q.FigureRequired, q.Figure, text),
		AnswerFormat:      resolveAnswerFormat(q.AnswerFormat, text, subject),
		AnswerRequirement: requirement,
		Hint:              q.Hint,
		Explanation:       q.Explanation,
		Unit:              q.UnitName(),
		Topics:            q.TopicNames(),
		Subtopics:         q.SubtopicNames(),
		Parts:             parts,
	}

	// A question carries either parts or direct answers/options, never both.
	if len(parts) == 0 {
		processed.Options = normalizeOptions(q.Options)
		processed.CorrectAnswers = normalizeAnswers(q.CorrectAnswer, q.CorrectAnswers, marks)
	}
	return processed
}

func processPart(p *RawPart, index int, subject string) ProcessedPart {
	text := p.PromptText()
	marks := int(p.Marks)

	subparts := make([]ProcessedSubpart, 0, len(p.Subparts))
	for i := range p.Subparts {
		subparts = append(subparts, processSubpart(&p.Subparts[i], i, subject))
	}
	if marks == 0 {
		for _, s := range subparts {
			marks += s.Marks
		}
	}

	requirement := p.AnswerRequirement
	if requirement == "" {
		requirement = DetectAnswerRequirement(p.SchemeText())
	}

	part := ProcessedPart{
		Label:             p.PartLabel(index),
		QuestionText:      text,
		Marks:             marks,
		AnswerFormat:      resolveAnswerFormat(p.AnswerFormat, text, subject),
		AnswerRequirement: requirement,
		Figure:            FigureFlag(p.Figure, text),
		FigureRequired:    FigureRequired(p.FigureRequired, p.Figure, text),
		Subparts:          subparts,
	}
	if len(subparts) == 0 {
		part.Options = normalizeOptions(p.Options)
		part.CorrectAnswers = normalizeAnswers(p.CorrectAnswer, p.CorrectAnswers, marks)
	}
	return part
}

func processSubpart(s *RawSubpart, index int, subject string) ProcessedSubpart {
	text := s.PromptText()

	requirement := s.AnswerRequirement
	if requirement == "" {
		requirement = DetectAnswerRequirement(s.SchemeText())
	}

	return ProcessedSubpart{
		Label:             s.SubpartLabel(index),
		QuestionText:      text,
		Marks:             int(s.Marks),
		AnswerFormat:      resolveAnswerFormat(s.AnswerFormat, text, subject),
		AnswerRequirement: requirement,
		Figure:            FigureFlag(s.Figure, text),
		FigureRequired:    FigureRequired(s.FigureRequired, s.Figure, text),
		Options:           normalizeOptions(s.Options),
		CorrectAnswers:    normalizeAnswers(s.CorrectAnswer, s.CorrectAnswers, int(s.Marks)),
	}
}

// detectQuestionType: explicit options make an MCQ; otherwise a true/false
// mention in text or an explicit true_false format hint makes a TF; anything
// else is descriptive.
func detectQuestionType(q *RawQuestion) string {
	if len(q.Options) > 0 {
		return TypeMCQ
	}
	hint := strings.ToLower(q.TypeHint())
	if hint == "true_false" || hint == "tf" ||
		strings.Contains(strings.ToLower(q.PromptText()), "true or false") {
		return TypeTrueFalse
	}
	return TypeDescriptive
}

func resolveAnswerFormat(explicit, text, subject string) string {
	if explicit != "" {
		return explicit
	}
	return DetectAnswerFormat(text, subject)
}

// DetectAnswerFormat runs the keyword rule table over the question text.
func DetectAnswerFormat(text, subject string) string {
	lower := strings.ToLower(text)
	subj := strings.ToLower(strings.TrimSpace(subject))
	for _, rule := range formatRules {
		if len(rule.subjects) > 0 && !containsString(rule.subjects, subj) {
			continue
		}
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.format
			}
		}
	}
	return FormatSingleLine
}

// DetectAnswerRequirement scans mark-scheme text for fixed phrases. As a last
// resort, two or more slashes in the scheme mean slash-separated alternatives,
// i.e. any one of them is acceptable.
func DetectAnswerRequirement(scheme string) string {
	lower := strings.ToLower(scheme)
	for _, rule := range requirementRules {
		if strings.Contains(lower, rule.phrase) {
			return rule.tag
		}
	}
	if strings.Count(scheme, "/") >= 2 {
		return RequireAnyOneFrom
	}
	return ""
}

// deriveDifficulty: Hard when marks >= 8 or more than 3 parts, Medium when
// marks >= 4 or more than one part, else Easy.
func deriveDifficulty(marks, partCount int) string {
	switch {
	case marks >= 8 || partCount > 3:
		return DifficultyHard
	case marks >= 4 || partCount > 1:
		return DifficultyMedium
	default:
		return DifficultyEasy
	}
}

func normalizeAnswers(single string, list []RawAnswer, defaultMarks int) []ProcessedAnswer {
	if len(list) > 0 {
		out := make([]ProcessedAnswer, 0, len(list))
		for i, a := range list {
			marks := int(a.Marks)
			if marks == 0 {
				marks = defaultMarks
			}
			out = append(out, ProcessedAnswer{
				Answer:        strings.TrimSpace(a.Answer),
				Marks:         marks,
				AlternativeID: i + 1,
				Context:       a.Context,
			})
		}
		return out
	}
	if strings.TrimSpace(single) == "" {
		return nil
	}
	return []ProcessedAnswer{{
		Answer:        strings.TrimSpace(single),
		Marks:         defaultMarks,
		AlternativeID: 1,
	}}
}

func normalizeOptions(list []RawOption) []ProcessedOption {
	if len(list) == 0 {
		return nil
	}
	out := make([]ProcessedOption, 0, len(list))
	for i, o := range list {
		label := o.Label
		if label == "" {
			label = string(rune('A' + i))
		}
		out = append(out, ProcessedOption{
			Label:     label,
			Text:      strings.TrimSpace(o.Text),
			IsCorrect: o.IsCorrect,
		})
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
