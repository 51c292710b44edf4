package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"eduadmin/backend/config"
	"eduadmin/backend/models"
	"eduadmin/backend/pipeline"
	"eduadmin/backend/services"
	"eduadmin/backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ImportController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Logger   *log.Logger
	Importer *services.Importer
	Validate *validator.Validate

	// ExternalValidator is an optional extra validation strategy slotted into
	// the fallback chain; nil simply skips it.
	ExternalValidator pipeline.ValidatorFunc
}

func NewImportController(db *gorm.DB, cfg *config.Config, logger *log.Logger, importer *services.Importer, external pipeline.ValidatorFunc) *ImportController {
	return &ImportController{
		DB:                db,
		Cfg:               cfg,
		Logger:            logger,
		Importer:          importer,
		Validate:          validator.New(),
		ExternalValidator: external,
	}
}

func (ic *ImportController) loadSession(c *fiber.Ctx) (*models.ImportSession, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}
	var session models.ImportSession
	if err := ic.DB.Preload("Paper").Preload("Paper.Subject").First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Import session not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not load import session")
	}
	return &session, nil
}

type CreateSessionInput struct {
	PaperID      uint                   `json:"paper_id" validate:"required"`
	YearOverride int                    `json:"year_override" validate:"omitempty,gte=1990,lte=2100"`
	Questions    []pipeline.RawQuestion `json:"questions" validate:"required,min=1"`
}

// CreateSession uploads raw parsed questions for a paper and normalizes them
// into the canonical tree in one step.
func (ic *ImportController) CreateSession(c *fiber.Ctx) error {
	var input CreateSessionInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := ic.Validate.Struct(&input); err != nil {
		fieldErrors := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fieldErrors[fe.Field()] = fe.Tag()
			}
		}
		return utils.ValidationError(c, fieldErrors)
	}

	var paper models.Paper
	if err := ic.DB.Preload("Subject").First(&paper, input.PaperID).Error; err != nil {
		return utils.BadRequest(c, "Unknown paper")
	}

	questions := pipeline.ProcessQuestions(input.Questions, paper.Subject.Name)

	rawPayload, err := json.Marshal(input.Questions)
	if err != nil {
		return utils.BadRequest(c, "Unreadable question payload")
	}
	processed, err := json.Marshal(questions)
	if err != nil {
		return utils.InternalServerError(c, "Could not encode processed questions")
	}

	userID, _ := c.Locals("user_id").(uint)
	session := models.ImportSession{
		PaperID:      paper.ID,
		Status:       models.SessionUploaded,
		YearOverride: input.YearOverride,
		RawPayload:   datatypes.JSON(rawPayload),
		Processed:    datatypes.JSON(processed),
		CreatedBy:    userID,
	}
	if err := ic.DB.Create(&session).Error; err != nil {
		return utils.InternalServerError(c, "Could not create import session")
	}

	entityIDs := map[string]uint{"paper_id": paper.ID, "subject_id": paper.SubjectID}
	if err := saveMetadataKey(ic.DB, &session, models.MetaEntityIDs, entityIDs); err != nil {
		ic.Logger.Printf("import session %d: failed to store entity ids: %v", session.ID, err)
	}

	return utils.Created(c, fiber.Map{
		"session":   session,
		"questions": questions,
	})
}

// GetSession returns the session with its normalized questions, current
// mappings, attachments grouped by key, and the state of the import gate.
func (ic *ImportController) GetSession(c *fiber.Ctx) error {
	session, err := ic.loadSession(c)
	if err != nil {
		return utils.Error(c, err.(*fiber.Error).Code, err)
	}

	questions, err := decodeProcessed(session)
	if err != nil {
		return utils.InternalServerError(c, "Stored questions are unreadable")
	}
	attachments, err := loadAttachmentStore(ic.DB, session.ID)
	if err != nil {
		return utils.InternalServerError(c, "Could not load attachments")
	}
	reviewed, statuses, err := reviewProgress(ic.DB, session.ID)
	if err != nil {
		return utils.InternalServerError(c, "Could not load review progress")
	}

	checklist := pipeline.Checklist{
		Total:         len(questions),
		ReviewedCount: reviewed,
		Simulation:    decodeSimulation(session),
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"session":          session,
		"questions":        questions,
		"mappings":         decodeMappings(session),
		"attachments":      attachments,
		"review_statuses":  statuses,
		"review_state":     checklist.ReviewState(),
		"simulation_state": checklist.SimulationState(),
		"can_import":       checklist.CanImport(),
	})
}

// AutoMapQuestions runs the curriculum auto-mapper over the session's
// questions and merges the result into the stored mappings.
func (ic *ImportController) AutoMapQuestions(c *fiber.Ctx) error {
	session, err := ic.loadSession(c)
	if err != nil {
		return utils.Error(c, err.(*fiber.Error).Code, err)
	}
	questions, err := decodeProcessed(session)
	if err != nil {
		return utils.InternalServerError(c, "Stored questions are unreadable")
	}

	units, topics, subtopics, err := loadTaxonomy(ic.DB, session.Paper.SubjectID)
	if err != nil {
		return utils.InternalServerError(c, "Could not load curriculum structure")
	}

	existing := decodeMappings(session)
	result := pipeline.AutoMap(questions, units, topics, subtopics, existing)

	for id, mapping := range result.Mappings {
		existing[id] = mapping
	}
	if err := saveMetadataKey(ic.DB, session, models.MetaQuestionMappings, existing); err != nil {
		return utils.InternalServerError(c, "Could not store mappings")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"mappings":       existing,
		"mapped_count":   result.MappedCount,
		"enhanced_count": result.EnhancedCount,
	})
}

// UpdateMapping applies a manual mapping edit for one question, with the same
// parent-chain consistency enforcement as the auto-mapper.
func (ic *ImportController) UpdateMapping(c *fiber.Ctx) error {
	session, err := ic.loadSession(c)
	if err != nil {
		return utils.Error(c, err.(*fiber.Error).Code, err)
	}
	questions, err := decodeProcessed(session)
	if err != nil {
		return utils.InternalServerError(c, "Stored questions are unreadable")
	}

	questionID := c.Params("qid")
	if !questionExists(questions, questionID) {
		return utils.NotFound(c, "Question not found in this session")
	}

	var mapping pipeline.QuestionMapping
	if err := c.BodyParser(&mapping); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	_, topics, subtopics, err := loadTaxonomy(ic.DB, session.Paper.SubjectID)
	if err != nil {
		return utils.InternalServerError(c, "Could not load curriculum structure")
	}
	topicsByID, subtopicsByID := taxonomyIndexes(topics, subtopics)
	mapping = pipeline.EnforceConsistency(mapping, topicsByID, subtopicsByID)

	mappings := decodeMappings(session)
	mappings[questionID] = mapping
	if err := saveMetadataKey(ic.DB, session, models.MetaQuestionMappings, mappings); err != nil {
		return utils.InternalServerError(c, "Could not store mapping")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"mapping": mapping})
}

type AddAttachmentInput struct {
	Key      string `json:"key" validate:"required"`
	Name     string `json:"name" validate:"required"`
	FileType string `json:"file_type"`
	Data     string `json:"data" validate:"required"`
}

func (ic *ImportController) AddAttachment(c *fiber.Ctx) error {
	session, err := ic.loadSession(c)
	if err != nil {
		return utils.Error(c, err.(*fiber.Error).Code, err)
	}

	var input AddAttachmentInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := ic.Validate.Struct(&input); err != nil {
		return utils.BadRequest(c, "Missing attachment fields")
	}

	questions, err := decodeProcessed(session)
	if err != nil {
		return utils.InternalServerError(c, "Stored questions are unreadable")
	}
	if !questionExists(questions, baseQuestionID(input.Key)) {
		return utils.BadRequest(c, "Attachment key does not address a question in this session")
	}

	attachment := models.SessionAttachment{
		ImportSessionID: session.ID,
		AttachmentKey:   input.Key,
		ExternalID:      uuid.NewString(),
		Name:            input.Name,
		FileType:        input.FileType,
		Data:            input.Data,
	}
	if err := ic.DB.Create(&attachment).Error; err != nil {
		return utils.InternalServerError(c, "Could not store attachment")
	}
	return utils.Created(c, attachment)
}

func (ic *ImportController) DeleteAttachment(c *fiber.Ctx) error {
	session, err := ic.loadSession(c)
	if err != nil {
		return utils.Error(c, err.(*fiber.Error).Code, err)
	}

	externalID := c.Params("attachmentId")
	res := ic.DB.Where("import_session_id = ? AND external_id = ?", session.ID, externalID).
		Delete(&models.SessionAttachment{})
	if res.Error != nil {
		return utils.InternalServerError(c, "Could not delete attachment")
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Attachment not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type ReviewInput struct {
	IsReviewed     bool `json:"is_reviewed"`
	HasIssues      bool `json:"has_issues"`
	IssueCount     int  `json:"issue_count"`
	NeedsAttention bool `json:"needs_attention"`
}

// SetReviewStatus toggles one question's manual-review flag. The review
// session row is created lazily on the first toggle; the check-then-create is
// not atomic, so two tabs can still race a duplicate session into existence.
func (ic *ImportController) SetReviewStatus(c *fiber.Ctx) error {
	session, err := ic.loadSession(c)
	if err != nil {
		return utils.Error(c, err.(*fiber.Error).Code, err)
	}
	questions, err := decodeProcessed(session)
	if err != nil {
		return utils.InternalServerError(c, "Stored questions are unreadable")
	}
	questionID := c.Params("qid")
	if !questionExists(questions, questionID) {
		return utils.NotFound(c, "Question not found in this session")
	}

	var input ReviewInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var review models.ReviewSession
	err = ic.DB.Where("import_session_id = ?", session.ID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		userID, _ := c.Locals("user_id").(uint)
		review = models.ReviewSession{
			ImportSessionID: session.ID,
			Reference:       uuid.NewString(),
			CreatedBy:       userID,
		}
		err = ic.DB.Create(&review).Error
	}
	if err != nil {
		return utils.InternalServerError(c, "Could not open review session")
	}

	var status models.ReviewStatus
	err = ic.DB.Where("review_session_id = ? AND question_id = ?", review.ID, questionID).First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		status = models.ReviewStatus{
			ReviewSessionID: review.ID,
			QuestionID:      questionID,
		}
	} else if err != nil {
		return utils.InternalServerError(c, "Could not load review status")
	}

	status.IsReviewed = input.IsReviewed
	status.HasIssues = input.HasIssues
	status.IssueCount = input.IssueCount
	status.NeedsAttention = input.NeedsAttention
	if input.IsReviewed {
		now := time.Now().UTC()
		status.ReviewedAt = &now
	} else {
		status.ReviewedAt = nil
	}
	if err := ic.DB.Save(&status).Error; err != nil {
		return utils.InternalServerError(c, "Could not store review status")
	}

	if session.Status == models.SessionUploaded {
		if err := ic.DB.Model(session).Update("status", models.SessionInReview).Error; err != nil {
			ic.Logger.Printf("import session %d: failed to move status to %s: %v", session.ID, models.SessionInReview, err)
		}
	}

	reviewed, _, err := reviewProgress(ic.DB, session.ID)
	if err != nil {
		return utils.InternalServerError(c, "Could not load review progress")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"status":         status,
		"reviewed_count": reviewed,
		"total":          len(questions),
	})
}

type SimulationInput struct {
	Answers          []pipeline.SimulationAnswer `json:"answers"`
	TimeSpentSeconds int                         `json:"time_spent_seconds"`
}

// CompleteSimulation records a finished simulation pass: derives issues from
// the run and persists the whole result into the session metadata.
func (ic *ImportController) CompleteSimulation(c *fiber.Ctx) error {
	session, err := ic.loadSession(c)
	if err != nil {
		return utils.Error(c, err.(*fiber.Error).Code, err)
	}
	questions, err := decodeProcessed(session)
	if err != nil {
		return utils.InternalServerError(c, "Stored questions are unreadable")
	}

	var input SimulationInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	attachments, err := loadAttachmentStore(ic.DB, session.ID)
	if err != nil {
		return utils.InternalServerError(c, "Could not load attachments")
	}

	answers := make(map[string]pipeline.SimulationAnswer, len(input.Answers))
	for _, a := range input.Answers {
		answers[a.QuestionID] = a
	}

	result := pipeline.FinishSimulation(questions, answers, attachments, input.TimeSpentSeconds)
	if err := saveMetadataKey(ic.DB, session, models.MetaSimulation, result); err != nil {
		return utils.InternalServerError(c, "Could not store simulation result")
	}
	return utils.Success(c, fiber.StatusOK, result)
}

// GetValidation runs the validation fallback chain and returns per-question
// error lists.
func (ic *ImportController) GetValidation(c *fiber.Ctx) error {
	session, err := ic.loadSession(c)
	if err != nil {
		return utils.Error(c, err.(*fiber.Error).Code, err)
	}
	questions, err := decodeProcessed(session)
	if err != nil {
		return utils.InternalServerError(c, "Stored questions are unreadable")
	}
	attachments, err := loadAttachmentStore(ic.DB, session.ID)
	if err != nil {
		return utils.InternalServerError(c, "Could not load attachments")
	}

	validators := pipeline.DefaultValidators(ic.ExternalValidator)
	errs := pipeline.RunValidationChain(ic.Logger, validators, questions, decodeMappings(session), attachments)

	if err := saveMetadataKey(ic.DB, session, models.MetaDynamicFields, len(errs) == 0); err != nil {
		ic.Logger.Printf("import session %d: failed to store validation flag: %v", session.ID, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"errors":      errs,
		"error_count": len(errs),
	})
}

type ConfirmImportInput struct {
	UpdateExisting bool `json:"update_existing"`
}

// ConfirmImport is the terminal step: checks the unrecoverable preconditions,
// the four-way checklist gate, and the validation chain, then hands the
// bundle to the import executor. Failures are terminal per invocation and
// must be re-triggered manually.
func (ic *ImportController) ConfirmImport(c *fiber.Ctx) error {
	session, err := ic.loadSession(c)
	if err != nil {
		return utils.Error(c, err.(*fiber.Error).Code, err)
	}

	var input ConfirmImportInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return utils.BadRequest(c, "Cannot parse JSON")
		}
	}

	questions, err := decodeProcessed(session)
	if err != nil {
		return utils.InternalServerError(c, "Stored questions are unreadable")
	}
	if len(questions) == 0 {
		return utils.BadRequest(c, "Session has no questions to import")
	}

	// Unrecoverable precondition: without a curriculum structure nothing can
	// be mapped or imported.
	units, _, _, err := loadTaxonomy(ic.DB, session.Paper.SubjectID)
	if err != nil {
		return utils.InternalServerError(c, "Could not load curriculum structure")
	}
	if len(units) == 0 {
		return utils.BadRequest(c, "No curriculum structure exists for this subject; import is blocked")
	}

	reviewed, _, err := reviewProgress(ic.DB, session.ID)
	if err != nil {
		return utils.InternalServerError(c, "Could not load review progress")
	}
	checklist := pipeline.Checklist{
		Total:         len(questions),
		ReviewedCount: reviewed,
		Simulation:    decodeSimulation(session),
	}
	if !checklist.CanImport() {
		return utils.Error(c, fiber.StatusConflict,
			errors.New("import gate not satisfied"),
			fiber.Map{
				"review_state":     checklist.ReviewState(),
				"simulation_state": checklist.SimulationState(),
				"reviewed_count":   checklist.ReviewedCount,
				"total":            checklist.Total,
			})
	}

	attachments, err := loadAttachmentStore(ic.DB, session.ID)
	if err != nil {
		return utils.InternalServerError(c, "Could not load attachments")
	}
	mappings := decodeMappings(session)

	validators := pipeline.DefaultValidators(ic.ExternalValidator)
	if errs := pipeline.RunValidationChain(ic.Logger, validators, questions, mappings, attachments); len(errs) > 0 {
		return utils.Error(c, fiber.StatusUnprocessableEntity,
			errors.New("questions failed validation"), errs)
	}

	existing, err := existingQuestionNumbers(ic.DB, session.PaperID)
	if err != nil {
		return utils.InternalServerError(c, "Could not check existing questions")
	}

	result, err := ic.Importer.Run(services.ImportBundle{
		SessionID:       session.ID,
		PaperID:         session.PaperID,
		YearOverride:    session.YearOverride,
		Questions:       questions,
		Mappings:        mappings,
		Attachments:     attachments,
		ExistingNumbers: existing,
		UpdateExisting:  input.UpdateExisting,
	})
	if err != nil {
		if errors.Is(err, services.ErrImportInFlight) {
			return utils.Conflict(c, err.Error())
		}
		return utils.InternalServerError(c, "Import failed to run")
	}

	message := ""
	if result.ImportedQuestions == 0 && result.UpdatedQuestions == 0 && len(result.Errors) == 0 {
		message = "All questions already exist for this paper; nothing was imported"
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"result":  result,
		"summary": result.Summary(),
		"message": message,
	})
}

func existingQuestionNumbers(db *gorm.DB, paperID uint) (map[int]bool, error) {
	var numbers []int
	if err := db.Model(&models.Question{}).Where("paper_id = ?", paperID).
		Pluck("question_number", &numbers).Error; err != nil {
		return nil, err
	}
	set := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		set[n] = true
	}
	return set, nil
}

func questionExists(questions []pipeline.ProcessedQuestion, id string) bool {
	for _, q := range questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

// baseQuestionID strips part/subpart markers off an attachment key.
func baseQuestionID(key string) string {
	if i := indexOfMarker(key); i >= 0 {
		return key[:i]
	}
	return key
}

func indexOfMarker(key string) int {
	for i := 0; i+2 < len(key); i++ {
		if key[i] == '_' && key[i+1] == 'p' && key[i+2] >= '0' && key[i+2] <= '9' {
			return i
		}
	}
	return -1
}
