package controllers

import (
	"errors"
	"strconv"

	"eduadmin/backend/config"
	"eduadmin/backend/models"
	"eduadmin/backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CurriculumController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Validate *validator.Validate
}

func NewCurriculumController(db *gorm.DB, cfg *config.Config) *CurriculumController {
	return &CurriculumController{DB: db, Cfg: cfg, Validate: validator.New()}
}

func (cc *CurriculumController) GetSubjects(c *fiber.Ctx) error {
	var subjects []models.Subject
	if err := cc.DB.Order("name").Find(&subjects).Error; err != nil {
		return utils.InternalServerError(c, "Could not load subjects")
	}
	return utils.Success(c, fiber.StatusOK, subjects)
}

// GetSubjectStructure returns the full taxonomy tree for one subject: units
// with nested topics and subtopics, the shape the auto-mapper consumes.
func (cc *CurriculumController) GetSubjectStructure(c *fiber.Ctx) error {
	subjectID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid subject id")
	}

	var subject models.Subject
	err = cc.DB.
		Preload("Units", func(db *gorm.DB) *gorm.DB { return db.Order("units.sequence") }).
		Preload("Units.Topics", func(db *gorm.DB) *gorm.DB { return db.Order("topics.sequence") }).
		Preload("Units.Topics.Subtopics", func(db *gorm.DB) *gorm.DB { return db.Order("subtopics.sequence") }).
		First(&subject, subjectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Subject not found")
		}
		return utils.InternalServerError(c, "Could not load subject structure")
	}
	return utils.Success(c, fiber.StatusOK, subject)
}

type CreatePaperInput struct {
	SubjectID uint   `json:"subject_id" validate:"required"`
	Code      string `json:"code" validate:"required"`
	Title     string `json:"title"`
	Year      int    `json:"year" validate:"omitempty,gte=1990,lte=2100"`
}

func (cc *CurriculumController) CreatePaper(c *fiber.Ctx) error {
	var input CreatePaperInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := cc.Validate.Struct(&input); err != nil {
		fieldErrors := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fieldErrors[fe.Field()] = fe.Tag()
			}
		}
		return utils.ValidationError(c, fieldErrors)
	}

	var subject models.Subject
	if err := cc.DB.First(&subject, input.SubjectID).Error; err != nil {
		return utils.BadRequest(c, "Unknown subject")
	}

	paper := models.Paper{
		SubjectID: input.SubjectID,
		Code:      input.Code,
		Title:     input.Title,
		Year:      input.Year,
	}
	if err := cc.DB.Create(&paper).Error; err != nil {
		return utils.InternalServerError(c, "Could not create paper")
	}
	return utils.Created(c, paper)
}

func (cc *CurriculumController) GetPapers(c *fiber.Ctx) error {
	query := cc.DB.Model(&models.Paper{}).Preload("Subject")
	if subjectID := c.Query("subject_id"); subjectID != "" {
		query = query.Where("subject_id = ?", subjectID)
	}

	var papers []models.Paper
	if err := query.Order("year desc, code").Find(&papers).Error; err != nil {
		return utils.InternalServerError(c, "Could not load papers")
	}
	return utils.Success(c, fiber.StatusOK, papers)
}
