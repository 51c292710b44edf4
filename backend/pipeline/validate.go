package pipeline

import (
	"fmt"
	"log"
)

// ValidateImport aggregates per-question error lists: missing figure
// attachments at question/part/subpart level and missing curriculum mappings.
// Only questions with at least one error appear in the result. The function
// never panics outward: a panic mid-scan is recovered and whatever was
// collected so far is returned.
func ValidateImport(questions []ProcessedQuestion, mappings map[string]QuestionMapping, attachments map[string][]Attachment) (errs map[string][]string) {
	errs = make(map[string][]string)
	defer func() {
		if r := recover(); r != nil {
			// keep partial results; the fallback chain handles the rest
		}
	}()

	for _, q := range questions {
		var list []string

		if q.FigureRequired && !HasAttachment(attachments, AttachmentKey(q.ID)) {
			list = append(list, fmt.Sprintf("question %d requires a figure attachment", q.QuestionNumber))
		}
		for pi, p := range q.Parts {
			if p.FigureRequired && !HasAttachment(attachments, AttachmentKey(q.ID, pi)) {
				list = append(list, fmt.Sprintf("part (%s) requires a figure attachment", p.Label))
			}
			for si, s := range p.Subparts {
				if s.FigureRequired && !HasAttachmentLoose(attachments, q.ID, pi, si) {
					list = append(list, fmt.Sprintf("subpart (%s)(%s) requires a figure attachment", p.Label, s.Label))
				}
			}
		}

		m := mappings[q.ID]
		if m.ChapterID == "" || len(m.TopicIDs) == 0 {
			list = append(list, "curriculum mapping required: unit and at least one topic")
		}

		if len(list) > 0 {
			errs[q.ID] = list
		}
	}
	return errs
}

// ValidateMappingsOnly is the lowest-fidelity fallback: mapping presence
// checks, nothing else.
func ValidateMappingsOnly(questions []ProcessedQuestion, mappings map[string]QuestionMapping, _ map[string][]Attachment) (map[string][]string, error) {
	errs := make(map[string][]string)
	for _, q := range questions {
		m := mappings[q.ID]
		if m.ChapterID == "" || len(m.TopicIDs) == 0 {
			errs[q.ID] = []string{"curriculum mapping required: unit and at least one topic"}
		}
	}
	return errs, nil
}

// ValidatorFunc is one validation strategy. External validators are injected
// as a nullable function reference, never probed for at runtime.
type ValidatorFunc func([]ProcessedQuestion, map[string]QuestionMapping, map[string][]Attachment) (map[string][]string, error)

// Validator pairs a strategy with a name for fallback logging.
type Validator struct {
	Name string
	Run  ValidatorFunc
}

// DefaultValidators builds the standard fallback chain: the full validator,
// then the optional injected external validator, then the mapping-only check.
func DefaultValidators(external ValidatorFunc) []Validator {
	chain := []Validator{{
		Name: "full",
		Run: func(q []ProcessedQuestion, m map[string]QuestionMapping, a map[string][]Attachment) (map[string][]string, error) {
			return ValidateImport(q, m, a), nil
		},
	}}
	if external != nil {
		chain = append(chain, Validator{Name: "external", Run: external})
	}
	chain = append(chain, Validator{Name: "mapping_only", Run: ValidateMappingsOnly})
	return chain
}

// RunValidationChain tries each validator in order until one returns without
// error or panic. Every fallback is logged with its cause; swallowing a
// failure silently is exactly what this chain exists to avoid.
func RunValidationChain(logger *log.Logger, validators []Validator, questions []ProcessedQuestion, mappings map[string]QuestionMapping, attachments map[string][]Attachment) map[string][]string {
	for _, v := range validators {
		res, err := runValidator(v, questions, mappings, attachments)
		if err != nil {
			if logger != nil {
				logger.Printf("validator %q failed: %v, trying next strategy", v.Name, err)
			}
			continue
		}
		return res
	}
	if logger != nil {
		logger.Printf("all validators failed, returning empty result")
	}
	return map[string][]string{}
}

func runValidator(v Validator, questions []ProcessedQuestion, mappings map[string]QuestionMapping, attachments map[string][]Attachment) (res map[string][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validator %q panicked: %v", v.Name, r)
		}
	}()
	return v.Run(questions, mappings, attachments)
}
