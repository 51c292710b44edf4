package pipeline

import "strings"

// AutoMapResult is what AutoMap hands back to the caller. The caller decides
// whether to apply the mappings to session state.
type AutoMapResult struct {
	Mappings      map[string]QuestionMapping `json:"mappings"`
	MappedCount   int                        `json:"mapped_count"`
	EnhancedCount int                        `json:"enhanced_count"`
}

// AutoMap matches each question's free-text unit/topic/subtopic names against
// the taxonomy. Matching is exact-first, then substring containment in either
// direction; anything ambiguous (more than one candidate) counts as no match.
// A matched subtopic pulls its parent topic into the mapping, and a final
// consistency pass purges any topic or subtopic whose parent chain does not
// lead back to the resolved unit.
func AutoMap(questions []ProcessedQuestion, units []Unit, topics []Topic, subtopics []Subtopic, existing map[string]QuestionMapping) AutoMapResult {
	result := AutoMapResult{Mappings: make(map[string]QuestionMapping, len(questions))}

	topicsByID := make(map[string]Topic, len(topics))
	for _, t := range topics {
		topicsByID[t.ID] = t
	}
	subtopicsByID := make(map[string]Subtopic, len(subtopics))
	for _, s := range subtopics {
		subtopicsByID[s.ID] = s
	}

	for _, q := range questions {
		prior := existing[q.ID]
		mapping := mapQuestion(&q, prior, units, topics, subtopics, topicsByID)
		mapping = EnforceConsistency(mapping, topicsByID, subtopicsByID)

		if mapping.ChapterID == "" && len(mapping.TopicIDs) == 0 && len(mapping.SubtopicIDs) == 0 {
			continue
		}
		result.Mappings[q.ID] = mapping

		if prior.ChapterID == "" && len(prior.TopicIDs) == 0 {
			result.MappedCount++
		} else if extendsMapping(mapping, prior) {
			result.EnhancedCount++
		}
	}
	return result
}

func mapQuestion(q *ProcessedQuestion, prior QuestionMapping, units []Unit, topics []Topic, subtopics []Subtopic, topicsByID map[string]Topic) QuestionMapping {
	mapping := QuestionMapping{
		ChapterID:   prior.ChapterID,
		TopicIDs:    append([]string(nil), prior.TopicIDs...),
		SubtopicIDs: append([]string(nil), prior.SubtopicIDs...),
	}

	if mapping.ChapterID == "" && q.Unit != "" {
		if id, ok := matchUnit(q.Unit, units); ok {
			mapping.ChapterID = id
		}
	}

	topicSet := toSet(mapping.TopicIDs)
	pool := topics
	if mapping.ChapterID != "" {
		pool = nil
		for _, t := range topics {
			if t.UnitID == mapping.ChapterID {
				pool = append(pool, t)
			}
		}
	}
	for _, name := range q.Topics {
		if id, ok := matchTopic(name, pool); ok && !topicSet[id] {
			topicSet[id] = true
			mapping.TopicIDs = append(mapping.TopicIDs, id)
		}
	}

	subPool := subtopics
	if len(topicSet) > 0 {
		subPool = nil
		for _, s := range subtopics {
			if topicSet[s.TopicID] {
				subPool = append(subPool, s)
			}
		}
	}
	subtopicSet := toSet(mapping.SubtopicIDs)
	for _, name := range q.Subtopics {
		id, ok := matchSubtopic(name, subPool)
		if !ok || subtopicSet[id] {
			continue
		}
		subtopicSet[id] = true
		mapping.SubtopicIDs = append(mapping.SubtopicIDs, id)

		// A subtopic implies its parent topic.
		parent := subtopicParent(id, subPool)
		if parent != "" && !topicSet[parent] {
			if _, known := topicsByID[parent]; known {
				topicSet[parent] = true
				mapping.TopicIDs = append(mapping.TopicIDs, parent)
			}
		}
	}

	return mapping
}

// EnforceConsistency drops every topic that does not belong to the resolved
// unit and every subtopic whose parent topic is not in the surviving topic
// set. Manual mapping edits run through this as well.
func EnforceConsistency(m QuestionMapping, topicsByID map[string]Topic, subtopicsByID map[string]Subtopic) QuestionMapping {
	if m.ChapterID != "" {
		kept := m.TopicIDs[:0:0]
		for _, id := range m.TopicIDs {
			if t, ok := topicsByID[id]; ok && t.UnitID == m.ChapterID {
				kept = append(kept, id)
			}
		}
		m.TopicIDs = kept
	}

	topicSet := toSet(m.TopicIDs)
	keptSubs := m.SubtopicIDs[:0:0]
	for _, id := range m.SubtopicIDs {
		if s, ok := subtopicsByID[id]; ok && topicSet[s.TopicID] {
			keptSubs = append(keptSubs, id)
		}
	}
	m.SubtopicIDs = keptSubs
	return m
}

// matchUnit resolves a free-text unit name against name/code/short/display
// names. Exact case-insensitive match preferred; otherwise a unique
// substring-containment match in either direction. Ambiguity means no match.
func matchUnit(name string, units []Unit) (string, bool) {
	norm := normalizeName(name)
	if norm == "" {
		return "", false
	}

	var exact []string
	for _, u := range units {
		for _, c := range []string{u.Name, u.Code, u.ShortName, u.DisplayName} {
			if c != "" && normalizeName(c) == norm {
				exact = append(exact, u.ID)
				break
			}
		}
	}
	if len(exact) == 1 {
		return exact[0], true
	}
	if len(exact) > 1 {
		return "", false
	}

	var partial []string
	for _, u := range units {
		for _, c := range []string{u.Name, u.Code, u.ShortName, u.DisplayName} {
			cn := normalizeName(c)
			if cn == "" {
				continue
			}
			if strings.Contains(cn, norm) || strings.Contains(norm, cn) {
				partial = append(partial, u.ID)
				break
			}
		}
	}
	if len(partial) == 1 {
		return partial[0], true
	}
	return "", false
}

func matchTopic(name string, pool []Topic) (string, bool) {
	norm := normalizeName(name)
	if norm == "" {
		return "", false
	}

	var exact, partial []string
	for _, t := range pool {
		tn := normalizeName(t.Name)
		if tn == norm {
			exact = append(exact, t.ID)
		} else if tn != "" && (strings.Contains(tn, norm) || strings.Contains(norm, tn)) {
			partial = append(partial, t.ID)
		}
	}
	if len(exact) == 1 {
		return exact[0], true
	}
	if len(exact) == 0 && len(partial) == 1 {
		return partial[0], true
	}
	return "", false
}

func matchSubtopic(name string, pool []Subtopic) (string, bool) {
	norm := normalizeName(name)
	if norm == "" {
		return "", false
	}

	var exact, partial []string
	for _, s := range pool {
		sn := normalizeName(s.Name)
		if sn == norm {
			exact = append(exact, s.ID)
		} else if sn != "" && (strings.Contains(sn, norm) || strings.Contains(norm, sn)) {
			partial = append(partial, s.ID)
		}
	}
	if len(exact) == 1 {
		return exact[0], true
	}
	if len(exact) == 0 && len(partial) == 1 {
		return partial[0], true
	}
	return "", false
}

func subtopicParent(id string, pool []Subtopic) string {
	for _, s := range pool {
		if s.ID == id {
			return s.TopicID
		}
	}
	return ""
}

func extendsMapping(m, prior QuestionMapping) bool {
	if m.ChapterID != prior.ChapterID {
		return true
	}
	return len(m.TopicIDs) > len(prior.TopicIDs) || len(m.SubtopicIDs) > len(prior.SubtopicIDs)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
