package pipeline

import (
	"fmt"
	"strings"
)

// AttachmentKey builds the flat storage key for a figure attachment:
// questionID, questionID_pN, or questionID_pN_sM. Parts and subparts are
// addressed by position because some data paths have no stable identity for
// them.
func AttachmentKey(questionID string, idx ...int) string {
	key := questionID
	if len(idx) > 0 {
		key += fmt.Sprintf("_p%d", idx[0])
	}
	if len(idx) > 1 {
		key += fmt.Sprintf("_s%d", idx[1])
	}
	return key
}

// HasAttachment reports whether anything is stored under exactly key.
func HasAttachment(store map[string][]Attachment, key string) bool {
	return len(store[key]) > 0
}

// HasAttachmentLoose first checks the exact key, then scans every stored key
// for ones that merely contain the question id and part/subpart markers.
// Older review sessions stored keys with extra suffixes; the scan keeps them
// valid.
func HasAttachmentLoose(store map[string][]Attachment, questionID string, idx ...int) bool {
	if HasAttachment(store, AttachmentKey(questionID, idx...)) {
		return true
	}
	for key, items := range store {
		if len(items) == 0 || !strings.HasPrefix(key, questionID) {
			continue
		}
		if len(idx) > 0 && !strings.Contains(key, fmt.Sprintf("_p%d", idx[0])) {
			continue
		}
		if len(idx) > 1 && !strings.Contains(key, fmt.Sprintf("_s%d", idx[1])) {
			continue
		}
		return true
	}
	return false
}
