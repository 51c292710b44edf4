package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"eduadmin/backend/models"
	"eduadmin/backend/pipeline"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrImportInFlight is returned when a second import is invoked for a session
// that is already importing.
var ErrImportInFlight = errors.New("an import is already running for this session")

// Importer is the terminal side-effecting step of the review workflow. Writes
// are best-effort per question: a failing question is collected as an error
// and does not roll back the ones already written.
type Importer struct {
	DB     *gorm.DB
	Logger *log.Logger

	mu       sync.Mutex
	inflight map[uint]bool
}

func NewImporter(db *gorm.DB, logger *log.Logger) *Importer {
	return &Importer{
		DB:       db,
		Logger:   logger,
		inflight: make(map[uint]bool),
	}
}

// ImportBundle is everything Run needs, resolved by the caller up front.
type ImportBundle struct {
	SessionID       uint
	PaperID         uint
	YearOverride    int
	Questions       []pipeline.ProcessedQuestion
	Mappings        map[string]pipeline.QuestionMapping
	Attachments     map[string][]pipeline.Attachment
	ExistingNumbers map[int]bool
	UpdateExisting  bool
}

type ImportError struct {
	QuestionID string `json:"question_id"`
	Message    string `json:"message"`
}

type ImportResult struct {
	ImportedQuestions int           `json:"imported_questions"`
	SkippedQuestions  int           `json:"skipped_questions"`
	UpdatedQuestions  int           `json:"updated_questions"`
	Errors            []ImportError `json:"errors,omitempty"`
}

// Summary is the compact form stored in session metadata: full counts but at
// most 3 error details plus a truncation notice.
func (r ImportResult) Summary() map[string]interface{} {
	summary := map[string]interface{}{
		"imported_questions": r.ImportedQuestions,
		"skipped_questions":  r.SkippedQuestions,
		"updated_questions":  r.UpdatedQuestions,
		"error_count":        len(r.Errors),
	}
	if len(r.Errors) > 0 {
		shown := r.Errors
		if len(shown) > 3 {
			shown = shown[:3]
			summary["errors_truncated"] = fmt.Sprintf("and %d more error(s)", len(r.Errors)-3)
		}
		summary["error_details"] = shown
	}
	return summary
}

// Run executes the import. Failures are terminal per invocation; there is no
// automatic retry. Reentry for the same session is rejected while a run is in
// flight.
func (im *Importer) Run(bundle ImportBundle) (ImportResult, error) {
	im.mu.Lock()
	if im.inflight[bundle.SessionID] {
		im.mu.Unlock()
		return ImportResult{}, ErrImportInFlight
	}
	im.inflight[bundle.SessionID] = true
	im.mu.Unlock()

	defer func() {
		im.mu.Lock()
		delete(im.inflight, bundle.SessionID)
		im.mu.Unlock()
	}()

	var result ImportResult
	for i := range bundle.Questions {
		q := &bundle.Questions[i]

		if bundle.ExistingNumbers[q.QuestionNumber] {
			if !bundle.UpdateExisting {
				result.SkippedQuestions++
				continue
			}
			if err := im.updateQuestion(q, &bundle); err != nil {
				result.Errors = append(result.Errors, ImportError{QuestionID: q.ID, Message: err.Error()})
				continue
			}
			result.UpdatedQuestions++
			continue
		}

		if err := im.importQuestion(q, &bundle); err != nil {
			result.Errors = append(result.Errors, ImportError{QuestionID: q.ID, Message: err.Error()})
			continue
		}
		result.ImportedQuestions++
	}

	if err := im.finishSession(bundle.SessionID, result); err != nil {
		im.Logger.Printf("import session %d: failed to store result: %v", bundle.SessionID, err)
	}
	return result, nil
}

// importQuestion writes one question, its taxonomy mapping rows and its
// attachments in a single transaction.
func (im *Importer) importQuestion(q *pipeline.ProcessedQuestion, bundle *ImportBundle) error {
	payload, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal question payload: %w", err)
	}
	mapping := bundle.Mappings[q.ID]

	return im.DB.Transaction(func(tx *gorm.DB) error {
		row := models.Question{
			PaperID:        bundle.PaperID,
			UnitID:         parseID(mapping.ChapterID),
			QuestionNumber: q.QuestionNumber,
			QuestionType:   q.QuestionType,
			Marks:          q.Marks,
			Difficulty:     q.Difficulty,
			Year:           bundle.YearOverride,
			Payload:        datatypes.JSON(payload),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		for _, topicID := range mapping.TopicIDs {
			if id := parseID(topicID); id != 0 {
				if err := tx.Create(&models.QuestionTopic{QuestionID: row.ID, TopicID: id}).Error; err != nil {
					return err
				}
			}
		}
		for _, subtopicID := range mapping.SubtopicIDs {
			if id := parseID(subtopicID); id != 0 {
				if err := tx.Create(&models.QuestionSubtopic{QuestionID: row.ID, SubtopicID: id}).Error; err != nil {
					return err
				}
			}
		}

		for key, items := range bundle.Attachments {
			if key != q.ID && !strings.HasPrefix(key, q.ID+"_") {
				continue
			}
			for _, a := range items {
				externalID := a.ID
				if externalID == "" {
					externalID = uuid.NewString()
				}
				attachment := models.QuestionAttachment{
					QuestionID:    row.ID,
					AttachmentKey: key,
					ExternalID:    externalID,
					Name:          a.Name,
					FileType:      a.FileType,
					Data:          a.Data,
				}
				if err := tx.Create(&attachment).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (im *Importer) updateQuestion(q *pipeline.ProcessedQuestion, bundle *ImportBundle) error {
	payload, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal question payload: %w", err)
	}
	mapping := bundle.Mappings[q.ID]

	return im.DB.Transaction(func(tx *gorm.DB) error {
		var row models.Question
		if err := tx.Where("paper_id = ? AND question_number = ?", bundle.PaperID, q.QuestionNumber).First(&row).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"question_type": q.QuestionType,
			"marks":         q.Marks,
			"difficulty":    q.Difficulty,
			"payload":       datatypes.JSON(payload),
		}
		if id := parseID(mapping.ChapterID); id != 0 {
			updates["unit_id"] = id
		}
		if bundle.YearOverride != 0 {
			updates["year"] = bundle.YearOverride
		}
		if err := tx.Model(&row).Updates(updates).Error; err != nil {
			return err
		}

		// Mapping rows are replaced wholesale on update.
		if err := tx.Where("question_id = ?", row.ID).Delete(&models.QuestionTopic{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", row.ID).Delete(&models.QuestionSubtopic{}).Error; err != nil {
			return err
		}
		for _, topicID := range mapping.TopicIDs {
			if id := parseID(topicID); id != 0 {
				if err := tx.Create(&models.QuestionTopic{QuestionID: row.ID, TopicID: id}).Error; err != nil {
					return err
				}
			}
		}
		for _, subtopicID := range mapping.SubtopicIDs {
			if id := parseID(subtopicID); id != 0 {
				if err := tx.Create(&models.QuestionSubtopic{QuestionID: row.ID, SubtopicID: id}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// finishSession stores the compact result summary in the session metadata and
// moves the status: completed with at least one import, failed when every
// question errored, untouched on all-skipped (informational only).
func (im *Importer) finishSession(sessionID uint, result ImportResult) error {
	var session models.ImportSession
	if err := im.DB.First(&session, sessionID).Error; err != nil {
		return err
	}

	meta := map[string]json.RawMessage{}
	if len(session.Metadata) > 0 {
		if err := json.Unmarshal(session.Metadata, &meta); err != nil {
			im.Logger.Printf("import session %d: metadata blob unreadable, rewriting: %v", sessionID, err)
			meta = map[string]json.RawMessage{}
		}
	}
	summary, err := json.Marshal(result.Summary())
	if err != nil {
		return err
	}
	meta[models.MetaImportResult] = summary

	blob, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{"metadata": datatypes.JSON(blob)}
	switch {
	case result.ImportedQuestions > 0 || result.UpdatedQuestions > 0:
		updates["status"] = models.SessionCompleted
	case len(result.Errors) > 0:
		updates["status"] = models.SessionFailed
	}
	return im.DB.Model(&session).Updates(updates).Error
}

func parseID(s string) uint {
	if s == "" {
		return 0
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}
