package controllers

import (
	"encoding/json"
	"strconv"

	"eduadmin/backend/models"
	"eduadmin/backend/pipeline"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Helpers for moving import-session state between the database rows and the
// pipeline's in-memory shapes.

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func decodeProcessed(session *models.ImportSession) ([]pipeline.ProcessedQuestion, error) {
	var questions []pipeline.ProcessedQuestion
	if len(session.Processed) == 0 {
		return questions, nil
	}
	err := json.Unmarshal(session.Processed, &questions)
	return questions, err
}

func decodeMetadata(session *models.ImportSession) map[string]json.RawMessage {
	meta := map[string]json.RawMessage{}
	if len(session.Metadata) > 0 {
		// an unreadable blob falls back to empty, the caller rewrites it
		_ = json.Unmarshal(session.Metadata, &meta)
	}
	return meta
}

func decodeMappings(session *models.ImportSession) map[string]pipeline.QuestionMapping {
	mappings := map[string]pipeline.QuestionMapping{}
	meta := decodeMetadata(session)
	if raw, ok := meta[models.MetaQuestionMappings]; ok {
		_ = json.Unmarshal(raw, &mappings)
	}
	return mappings
}

func decodeSimulation(session *models.ImportSession) pipeline.SimulationResult {
	var result pipeline.SimulationResult
	meta := decodeMetadata(session)
	if raw, ok := meta[models.MetaSimulation]; ok {
		_ = json.Unmarshal(raw, &result)
	}
	return result
}

// saveMetadataKey rewrites one key of the session's open metadata blob.
func saveMetadataKey(db *gorm.DB, session *models.ImportSession, key string, value interface{}) error {
	meta := decodeMetadata(session)

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	meta[key] = raw

	blob, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	session.Metadata = datatypes.JSON(blob)
	return db.Model(session).Update("metadata", session.Metadata).Error
}

// loadAttachmentStore groups the session's stored attachments by their flat
// attachment key, the shape validation and the importer work with.
func loadAttachmentStore(db *gorm.DB, sessionID uint) (map[string][]pipeline.Attachment, error) {
	var rows []models.SessionAttachment
	if err := db.Where("import_session_id = ?", sessionID).Find(&rows).Error; err != nil {
		return nil, err
	}

	store := make(map[string][]pipeline.Attachment)
	for _, row := range rows {
		store[row.AttachmentKey] = append(store[row.AttachmentKey], pipeline.Attachment{
			ID:        row.ExternalID,
			Name:      row.Name,
			FileType:  row.FileType,
			Data:      row.Data,
			CreatedAt: row.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return store, nil
}

// loadTaxonomy converts the paper's subject taxonomy rows into the mapper's
// id-as-string shapes.
func loadTaxonomy(db *gorm.DB, subjectID uint) ([]pipeline.Unit, []pipeline.Topic, []pipeline.Subtopic, error) {
	var unitRows []models.Unit
	if err := db.Where("subject_id = ?", subjectID).Find(&unitRows).Error; err != nil {
		return nil, nil, nil, err
	}

	unitIDs := make([]uint, 0, len(unitRows))
	units := make([]pipeline.Unit, 0, len(unitRows))
	for _, u := range unitRows {
		unitIDs = append(unitIDs, u.ID)
		units = append(units, pipeline.Unit{
			ID:          formatID(u.ID),
			Name:        u.Name,
			Code:        u.Code,
			ShortName:   u.ShortName,
			DisplayName: u.DisplayName,
		})
	}

	var topicRows []models.Topic
	if len(unitIDs) > 0 {
		if err := db.Where("unit_id IN ?", unitIDs).Find(&topicRows).Error; err != nil {
			return nil, nil, nil, err
		}
	}
	topicIDs := make([]uint, 0, len(topicRows))
	topics := make([]pipeline.Topic, 0, len(topicRows))
	for _, t := range topicRows {
		topicIDs = append(topicIDs, t.ID)
		topics = append(topics, pipeline.Topic{
			ID:     formatID(t.ID),
			UnitID: formatID(t.UnitID),
			Name:   t.Name,
		})
	}

	var subtopicRows []models.Subtopic
	if len(topicIDs) > 0 {
		if err := db.Where("topic_id IN ?", topicIDs).Find(&subtopicRows).Error; err != nil {
			return nil, nil, nil, err
		}
	}
	subtopics := make([]pipeline.Subtopic, 0, len(subtopicRows))
	for _, s := range subtopicRows {
		subtopics = append(subtopics, pipeline.Subtopic{
			ID:      formatID(s.ID),
			TopicID: formatID(s.TopicID),
			Name:    s.Name,
		})
	}
	return units, topics, subtopics, nil
}

func taxonomyIndexes(topics []pipeline.Topic, subtopics []pipeline.Subtopic) (map[string]pipeline.Topic, map[string]pipeline.Subtopic) {
	topicsByID := make(map[string]pipeline.Topic, len(topics))
	for _, t := range topics {
		topicsByID[t.ID] = t
	}
	subtopicsByID := make(map[string]pipeline.Subtopic, len(subtopics))
	for _, s := range subtopics {
		subtopicsByID[s.ID] = s
	}
	return topicsByID, subtopicsByID
}

// reviewProgress loads the session's review counts. The review session is
// created lazily elsewhere; absence just means nothing reviewed yet.
func reviewProgress(db *gorm.DB, importSessionID uint) (reviewed int, statuses []models.ReviewStatus, err error) {
	var review models.ReviewSession
	err = db.Where("import_session_id = ?", importSessionID).First(&review).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil, nil
		}
		return 0, nil, err
	}

	if err = db.Where("review_session_id = ?", review.ID).Find(&statuses).Error; err != nil {
		return 0, nil, err
	}
	for _, s := range statuses {
		if s.IsReviewed {
			reviewed++
		}
	}
	return reviewed, statuses, nil
}
