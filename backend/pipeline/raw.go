package pipeline

import (
	"encoding/json"
	"strings"
)

// Raw parsed-question shapes. Upstream parsers disagree on field names
// (question vs question_text, topic vs topics, ...), so each accessor below
// encodes one prioritized field list instead of probing loose maps.

type RawQuestion struct {
	QuestionNumber    int         `json:"question_number"`
	Number            int         `json:"number"`
	QuestionText      string      `json:"question_text"`
	Question          string      `json:"question"`
	Text              string      `json:"text"`
	QuestionType      string      `json:"question_type"`
	Type              string      `json:"type"`
	Marks             float64     `json:"marks"`
	TotalMarks        float64     `json:"total_marks"`
	AnswerFormat      string      `json:"answer_format"`
	AnswerRequirement string      `json:"answer_requirement"`
	Figure            *bool       `json:"figure"`
	FigureRequired    *bool       `json:"figure_required"`
	Unit              string      `json:"unit"`
	Chapter           string      `json:"chapter"`
	Topic             string      `json:"topic"`
	Topics            []string    `json:"topics"`
	Subtopic          string      `json:"subtopic"`
	Subtopics         []string    `json:"subtopics"`
	Hint              string      `json:"hint"`
	Explanation       string      `json:"explanation"`
	MarkScheme        string      `json:"mark_scheme"`
	CorrectAnswer     string      `json:"correct_answer"`
	CorrectAnswers    []RawAnswer `json:"correct_answers"`
	Options           []RawOption `json:"options"`
	Parts             []RawPart   `json:"parts"`
}

type RawPart struct {
	Part              string       `json:"part"`
	Label             string       `json:"label"`
	QuestionText      string       `json:"question_text"`
	Question          string       `json:"question"`
	Text              string       `json:"text"`
	Marks             float64      `json:"marks"`
	AnswerFormat      string       `json:"answer_format"`
	AnswerRequirement string       `json:"answer_requirement"`
	Figure            *bool        `json:"figure"`
	FigureRequired    *bool        `json:"figure_required"`
	MarkScheme        string       `json:"mark_scheme"`
	CorrectAnswer     string       `json:"correct_answer"`
	CorrectAnswers    []RawAnswer  `json:"correct_answers"`
	Options           []RawOption  `json:"options"`
	Subparts          []RawSubpart `json:"subparts"`
}

type RawSubpart struct {
	Subpart           string      `json:"subpart"`
	Label             string      `json:"label"`
	QuestionText      string      `json:"question_text"`
	Question          string      `json:"question"`
	Text              string      `json:"text"`
	Marks             float64     `json:"marks"`
	AnswerFormat      string      `json:"answer_format"`
	AnswerRequirement string      `json:"answer_requirement"`
	Figure            *bool       `json:"figure"`
	FigureRequired    *bool       `json:"figure_required"`
	MarkScheme        string      `json:"mark_scheme"`
	CorrectAnswer     string      `json:"correct_answer"`
	CorrectAnswers    []RawAnswer `json:"correct_answers"`
	Options           []RawOption `json:"options"`
}

// RawAnswer accepts either a bare string or an object form.
type RawAnswer struct {
	Answer  string  `json:"answer"`
	Marks   float64 `json:"marks"`
	Context string  `json:"context"`
}

func (a *RawAnswer) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &a.Answer)
	}
	type alias RawAnswer
	var tmp alias
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*a = RawAnswer(tmp)
	return nil
}

// RawOption accepts either a bare string or an object form.
type RawOption struct {
	Label     string `json:"label"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

func (o *RawOption) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &o.Text)
	}
	type alias RawOption
	var tmp alias
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = RawOption(tmp)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func (q *RawQuestion) PromptText() string {
	return firstNonEmpty(q.QuestionText, q.Question, q.Text)
}

func (q *RawQuestion) TypeHint() string {
	return firstNonEmpty(q.QuestionType, q.Type)
}

func (q *RawQuestion) MarkValue() int {
	m := q.Marks
	if m == 0 {
		m = q.TotalMarks
	}
	if m < 0 {
		return 0
	}
	return int(m)
}

func (q *RawQuestion) UnitName() string {
	return firstNonEmpty(q.Unit, q.Chapter)
}

// TopicNames splits delimited topic fields; "Waves, Optics" and
// "Waves/Optics" both yield two candidates.
func (q *RawQuestion) TopicNames() []string {
	if q.Topic != "" {
		return splitNames(q.Topic)
	}
	var out []string
	for _, t := range q.Topics {
		out = append(out, splitNames(t)...)
	}
	return out
}

func (q *RawQuestion) SubtopicNames() []string {
	if q.Subtopic != "" {
		return splitNames(q.Subtopic)
	}
	var out []string
	for _, s := range q.Subtopics {
		out = append(out, splitNames(s)...)
	}
	return out
}

// SchemeText is the text the answer-requirement scanner runs over: the mark
// scheme plus every answer variant.
func (q *RawQuestion) SchemeText() string {
	parts := []string{q.MarkScheme, q.CorrectAnswer}
	for _, a := range q.CorrectAnswers {
		parts = append(parts, a.Answer, a.Context)
	}
	return strings.Join(parts, " ")
}

func (p *RawPart) PromptText() string {
	return firstNonEmpty(p.QuestionText, p.Question, p.Text)
}

func (p *RawPart) PartLabel(index int) string {
	if l := firstNonEmpty(p.Part, p.Label); l != "" {
		return l
	}
	return string(rune('a' + index))
}

func (p *RawPart) SchemeText() string {
	parts := []string{p.MarkScheme, p.CorrectAnswer}
	for _, a := range p.CorrectAnswers {
		parts = append(parts, a.Answer, a.Context)
	}
	return strings.Join(parts, " ")
}

func (s *RawSubpart) PromptText() string {
	return firstNonEmpty(s.QuestionText, s.Question, s.Text)
}

func (s *RawSubpart) SubpartLabel(index int) string {
	if l := firstNonEmpty(s.Subpart, s.Label); l != "" {
		return l
	}
	return roman(index + 1)
}

func (s *RawSubpart) SchemeText() string {
	parts := []string{s.MarkScheme, s.CorrectAnswer}
	for _, a := range s.CorrectAnswers {
		parts = append(parts, a.Answer, a.Context)
	}
	return strings.Join(parts, " ")
}

func splitNames(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '/'
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Subpart labels default to roman numerals (i, ii, iii, ...) the way papers
// number them.
func roman(n int) string {
	var (
		values   = []int{10, 9, 5, 4, 1}
		numerals = []string{"x", "ix", "v", "iv", "i"}
	)
	var b strings.Builder
	for i, v := range values {
		for n >= v {
			b.WriteString(numerals[i])
			n -= v
		}
	}
	return b.String()
}
