package pipeline

// Question types produced by the normalizer.
const (
	TypeMCQ         = "mcq"
	TypeTrueFalse   = "tf"
	TypeDescriptive = "descriptive"
)

// Difficulty levels derived from marks and part count.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Answer formats. The detector picks one of these; single_line is the default
// when no explicit format is given and no keyword rule matches.
const (
	FormatSingleWord        = "single_word"
	FormatSingleLine        = "single_line"
	FormatTwoItems          = "two_items"
	FormatTwoItemsConnected = "two_items_connected"
	FormatMultiLine         = "multi_line"
	FormatMultiLineLabeled  = "multi_line_labeled"
	FormatParagraph         = "paragraph"
	FormatCalculation       = "calculation"
	FormatEquation          = "equation"
	FormatChemicalStructure = "chemical_structure"
	FormatChemicalFormula   = "chemical_formula"
	FormatDiagram           = "diagram"
	FormatLabeledDiagram    = "labeled_diagram"
	FormatGraph             = "graph"
	FormatTable             = "table"
	FormatRatio             = "ratio"
)

// Answer requirement tags parsed out of mark-scheme text.
const (
	RequireAnyOneFrom           = "any_one_from"
	RequireAnyTwoFrom           = "any_two_from"
	RequireAnyThreeFrom         = "any_three_from"
	RequireBothRequired         = "both_required"
	RequireAllRequired          = "all_required"
	RequireAlternativeMethods   = "alternative_methods"
	RequireAcceptableVariations = "acceptable_variations"
)

// ProcessedQuestion is the canonical shape every raw parsed question is
// normalized into. A question carries either Parts or its own
// CorrectAnswers/Options, never both.
type ProcessedQuestion struct {
	ID                string            `json:"id"`
	QuestionNumber    int               `json:"question_number"`
	QuestionText      string            `json:"question_text"`
	QuestionType      string            `json:"question_type"`
	Marks             int               `json:"marks"`
	Difficulty        string            `json:"difficulty"`
	Figure            bool              `json:"figure"`
	FigureRequired    bool              `json:"figure_required"`
	AnswerFormat      string            `json:"answer_format"`
	AnswerRequirement string            `json:"answer_requirement,omitempty"`
	Hint              string            `json:"hint,omitempty"`
	Explanation       string            `json:"explanation,omitempty"`
	Unit              string            `json:"unit,omitempty"`
	Topics            []string          `json:"topics,omitempty"`
	Subtopics         []string          `json:"subtopics,omitempty"`
	Parts             []ProcessedPart   `json:"parts"`
	CorrectAnswers    []ProcessedAnswer `json:"correct_answers,omitempty"`
	Options           []ProcessedOption `json:"options,omitempty"`
}

// ProcessedPart nests one level deeper into subparts; subparts do not nest
// further.
type ProcessedPart struct {
	Label             string             `json:"label"`
	QuestionText      string             `json:"question_text"`
	Marks             int                `json:"marks"`
	AnswerFormat      string             `json:"answer_format"`
	AnswerRequirement string             `json:"answer_requirement,omitempty"`
	Figure            bool               `json:"figure"`
	FigureRequired    bool               `json:"figure_required"`
	Subparts          []ProcessedSubpart `json:"subparts,omitempty"`
	CorrectAnswers    []ProcessedAnswer  `json:"correct_answers,omitempty"`
	Options           []ProcessedOption  `json:"options,omitempty"`
}

type ProcessedSubpart struct {
	Label             string            `json:"label"`
	QuestionText      string            `json:"question_text"`
	Marks             int               `json:"marks"`
	AnswerFormat      string            `json:"answer_format"`
	AnswerRequirement string            `json:"answer_requirement,omitempty"`
	Figure            bool              `json:"figure"`
	FigureRequired    bool              `json:"figure_required"`
	CorrectAnswers    []ProcessedAnswer `json:"correct_answers,omitempty"`
	Options           []ProcessedOption `json:"options,omitempty"`
}

// ProcessedAnswer is one acceptable answer. AlternativeID is its 1-based
// position within the answer group; values are unique and contiguous from 1.
type ProcessedAnswer struct {
	Answer             string `json:"answer"`
	Marks              int    `json:"marks"`
	AlternativeID      int    `json:"alternative_id"`
	LinkedAlternatives []int  `json:"linked_alternatives,omitempty"`
	Context            string `json:"context,omitempty"`
	AnswerRequirement  string `json:"answer_requirement,omitempty"`
}

type ProcessedOption struct {
	Label     string `json:"label"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionMapping links one processed question to the curriculum taxonomy.
// Every topic must belong to ChapterID and every subtopic's parent topic must
// be present in TopicIDs; AutoMap enforces this, manual edits go through
// EnforceConsistency.
type QuestionMapping struct {
	ChapterID   string   `json:"chapter_id"`
	TopicIDs    []string `json:"topic_ids"`
	SubtopicIDs []string `json:"subtopic_ids"`
}

// Taxonomy rows as the mapper sees them. IDs are opaque strings so the caller
// can feed database keys of any shape.
type Unit struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	ShortName   string `json:"short_name"`
	DisplayName string `json:"display_name"`
}

type Topic struct {
	ID     string `json:"id"`
	UnitID string `json:"unit_id"`
	Name   string `json:"name"`
}

type Subtopic struct {
	ID      string `json:"id"`
	TopicID string `json:"topic_id"`
	Name    string `json:"name"`
}

// Attachment is one stored figure. Data holds the data-URL as captured during
// review; attachments only become storage objects at import time.
type Attachment struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FileType  string `json:"file_type"`
	Data      string `json:"data"`
	CreatedAt string `json:"created_at"`
}
