package routes

import (
	"log"

	"eduadmin/backend/config"
	"eduadmin/backend/controllers"
	"eduadmin/backend/middleware"
	"eduadmin/backend/pipeline"
	"eduadmin/backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, logger *log.Logger) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(cfg)

	// Curriculum routes
	curriculumController := controllers.NewCurriculumController(db, cfg)
	curriculum := app.Group("/api/curriculum", authMiddleware)
	curriculum.Get("/subjects", curriculumController.GetSubjects)
	curriculum.Get("/subjects/:id/structure", curriculumController.GetSubjectStructure)
	curriculum.Get("/papers", curriculumController.GetPapers)
	curriculum.Post("/papers", adminMiddleware, curriculumController.CreatePaper)

	// Import workflow routes. External validation is not wired by default;
	// the chain falls through to mapping-only when it is absent.
	importer := services.NewImporter(db, logger)
	var external pipeline.ValidatorFunc
	importController := controllers.NewImportController(db, cfg, logger, importer, external)
	imports := app.Group("/api/imports", authMiddleware)
	imports.Post("/", importController.CreateSession)
	imports.Get("/:id", importController.GetSession)
	imports.Post("/:id/automap", importController.AutoMapQuestions)
	imports.Put("/:id/questions/:qid/mapping", importController.UpdateMapping)
	imports.Post("/:id/attachments", importController.AddAttachment)
	imports.Delete("/:id/attachments/:attachmentId", importController.DeleteAttachment)
	imports.Post("/:id/review/:qid", importController.SetReviewStatus)
	imports.Post("/:id/simulation", importController.CompleteSimulation)
	imports.Get("/:id/validation", importController.GetValidation)
	imports.Post("/:id/confirm", adminMiddleware, importController.ConfirmImport)
}
