package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"eduadmin/backend/config"
	"eduadmin/backend/models"
	"eduadmin/backend/pipeline"
	"eduadmin/backend/routes"
	"eduadmin/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
)

func TestMain(m *testing.M) {
	cfg = &config.Config{
		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "postgres",
		DBPassword: "postgres",
		DBName:     "eduadmin_test",
		JWTSecret:  "testsecret",
		ServerPort: "8080",
	}

	if conn, err := utils.InitDB(cfg); err == nil {
		db = conn
		app = fiber.New()
		routes.SetupRoutes(app, db, cfg, utils.InitLogger())
	}

	code := m.Run()
	if db != nil {
		teardown()
	}
	os.Exit(code)
}

func teardown() {
	db.Migrator().DropTable(
		&models.User{},
		&models.Subject{},
		&models.Unit{},
		&models.Topic{},
		&models.Subtopic{},
		&models.Paper{},
		&models.ImportSession{},
		&models.ReviewSession{},
		&models.ReviewStatus{},
		&models.Question{},
		&models.QuestionTopic{},
		&models.QuestionSubtopic{},
		&models.QuestionAttachment{},
		&models.SessionAttachment{},
	)
}

func requireDB(t *testing.T) {
	if db == nil {
		t.Skip("test database not available")
	}
}

func postJSON(t *testing.T, path, token string, payload interface{}) *http.Response {
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, path, token string) *http.Response {
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Authorization", token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func register(t *testing.T, username string) string {
	resp := postJSON(t, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result["token"].(string)
}

func createPaper(t *testing.T, tag string) models.Paper {
	subject := models.Subject{Name: "Subject " + tag, Code: "SUB-" + tag}
	require.NoError(t, db.Create(&subject).Error)
	paper := models.Paper{SubjectID: subject.ID, Code: "PAPER-" + tag, Year: 2024}
	require.NoError(t, db.Create(&paper).Error)
	return paper
}

func sessionMetadata(t *testing.T, sessionID uint) map[string]json.RawMessage {
	var session models.ImportSession
	require.NoError(t, db.First(&session, sessionID).Error)

	meta := map[string]json.RawMessage{}
	if len(session.Metadata) > 0 {
		require.NoError(t, json.Unmarshal(session.Metadata, &meta))
	}
	return meta
}

func TestRegisterIgnoresSubmittedRole(t *testing.T) {
	requireDB(t)

	resp := postJSON(t, "/api/auth/register", "", map[string]string{
		"username": "sneaky",
		"email":    "sneaky@example.com",
		"password": "password123",
		"role":     "admin",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	user := result["user"].(map[string]interface{})
	assert.Equal(t, "user", user["role"])

	var stored models.User
	require.NoError(t, db.Where("username = ?", "sneaky").First(&stored).Error)
	assert.Equal(t, "user", stored.Role)

	// the freshly issued token must not open admin-gated routes
	token := result["token"].(string)
	resp = postJSON(t, "/api/curriculum/papers", token, map[string]interface{}{
		"subject_id": 1,
		"code":       "NOPE-1",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestReviewToggleMovesSessionInReview(t *testing.T) {
	requireDB(t)
	token := register(t, "reviewer")
	paper := createPaper(t, "REV")

	processed, err := json.Marshal([]pipeline.ProcessedQuestion{{ID: "q_1", QuestionNumber: 1}})
	require.NoError(t, err)
	session := models.ImportSession{
		PaperID:   paper.ID,
		Status:    models.SessionUploaded,
		Processed: datatypes.JSON(processed),
	}
	require.NoError(t, db.Create(&session).Error)

	resp := postJSON(t, fmt.Sprintf("/api/imports/%d/review/q_1", session.ID), token, map[string]bool{
		"is_reviewed": true,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var reloaded models.ImportSession
	require.NoError(t, db.First(&reloaded, session.ID).Error)
	assert.Equal(t, models.SessionInReview, reloaded.Status)
}

func TestSessionMetadataKeys(t *testing.T) {
	requireDB(t)
	token := register(t, "uploader")
	paper := createPaper(t, "META")

	resp := postJSON(t, "/api/imports/", token, map[string]interface{}{
		"paper_id": paper.ID,
		"questions": []map[string]interface{}{
			{"question_text": "Calculate the force.", "marks": 6},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Data struct {
			Session models.ImportSession `json:"session"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	sessionID := created.Data.Session.ID
	require.NotZero(t, sessionID)

	meta := sessionMetadata(t, sessionID)
	require.Contains(t, meta, models.MetaEntityIDs)
	var entityIDs map[string]uint
	require.NoError(t, json.Unmarshal(meta[models.MetaEntityIDs], &entityIDs))
	assert.Equal(t, paper.ID, entityIDs["paper_id"])
	assert.Equal(t, paper.SubjectID, entityIDs["subject_id"])

	// running validation records whether the pass came back clean
	resp = getJSON(t, fmt.Sprintf("/api/imports/%d/validation", sessionID), token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	meta = sessionMetadata(t, sessionID)
	require.Contains(t, meta, models.MetaDynamicFields)
	var clean bool
	require.NoError(t, json.Unmarshal(meta[models.MetaDynamicFields], &clean))
	assert.False(t, clean) // unmapped question fails validation
}
