package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Import session statuses.
const (
	SessionUploaded  = "uploaded"
	SessionInReview  = "in_review"
	SessionCompleted = "completed"
	SessionFailed    = "failed"
)

// Keys of the import session's open metadata blob. The blob is unversioned,
// matching the shape the console has always written.
const (
	MetaEntityIDs        = "entity_ids"
	MetaQuestionMappings = "question_mappings"
	MetaSimulation       = "simulation_results"
	MetaImportResult     = "import_result"
	MetaDynamicFields    = "dynamic_fields_validated"
)

// ImportSession tracks one paper's question-import workflow: the raw parsed
// payload as uploaded, the normalized questions, and an open metadata blob
// for mappings, simulation results and the final import summary.
type ImportSession struct {
	gorm.Model
	PaperID      uint           `gorm:"index;not null"`
	Status       string         `gorm:"default:uploaded;index"`
	YearOverride int
	RawPayload   datatypes.JSON `gorm:"type:jsonb"`
	Processed    datatypes.JSON `gorm:"type:jsonb"`
	Metadata     datatypes.JSON `gorm:"type:jsonb"`
	CreatedBy    uint
	Paper        Paper
}

// ReviewSession is created lazily on the first review action against an
// import session. Creation is check-then-create, not atomic: two tabs opening
// the same import session can still race one another into duplicate rows.
type ReviewSession struct {
	gorm.Model
	ImportSessionID uint   `gorm:"index;not null"`
	Reference       string `gorm:"index"`
	CreatedBy       uint
	Statuses        []ReviewStatus
}

type ReviewStatus struct {
	gorm.Model
	ReviewSessionID uint   `gorm:"index;not null"`
	QuestionID      string `gorm:"index;not null"` // pipeline id, q_N
	IsReviewed      bool
	ReviewedAt      *time.Time
	HasIssues       bool
	IssueCount      int
	NeedsAttention  bool
}

// Question is an imported exam question. The normalized tree (parts, answers,
// options) is kept whole as JSONB; the columns exist for filtering.
type Question struct {
	gorm.Model
	PaperID        uint   `gorm:"index;not null"`
	UnitID         uint   `gorm:"index"`
	QuestionNumber int    `gorm:"index;not null"`
	QuestionType   string `gorm:"index"`
	Marks          int
	Difficulty     string
	Year           int
	Payload        datatypes.JSON `gorm:"type:jsonb"`
	Topics         []QuestionTopic
	Subtopics      []QuestionSubtopic
	Attachments    []QuestionAttachment
}

type QuestionTopic struct {
	gorm.Model
	QuestionID uint `gorm:"index;not null"`
	TopicID    uint `gorm:"index;not null"`
}

type QuestionSubtopic struct {
	gorm.Model
	QuestionID uint `gorm:"index;not null"`
	SubtopicID uint `gorm:"index;not null"`
}

// QuestionAttachment keeps the figure as the data-URL captured during review.
// SessionAttachment is its pre-import counterpart, keyed by the flat
// attachment key while the review session owns it.
type QuestionAttachment struct {
	gorm.Model
	QuestionID    uint   `gorm:"index;not null"`
	AttachmentKey string `gorm:"index;not null"`
	ExternalID    string `gorm:"index"`
	Name          string
	FileType      string
	Data          string `gorm:"type:text"`
}

type SessionAttachment struct {
	gorm.Model
	ImportSessionID uint   `gorm:"index;not null"`
	AttachmentKey   string `gorm:"index;not null"`
	ExternalID      string `gorm:"uniqueIndex"`
	Name            string
	FileType        string
	Data            string `gorm:"type:text"`
}
