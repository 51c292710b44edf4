package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttachmentKey(t *testing.T) {
	assert.Equal(t, "q_1", AttachmentKey("q_1"))
	assert.Equal(t, "q_1_p2", AttachmentKey("q_1", 2))
	assert.Equal(t, "q_1_p2_s0", AttachmentKey("q_1", 2, 0))
}

func TestHasAttachment(t *testing.T) {
	store := map[string][]Attachment{
		"q_1_p0": {{ID: "a1", Name: "fig.png"}},
		"q_2":    {},
	}

	assert.True(t, HasAttachment(store, "q_1_p0"))
	assert.False(t, HasAttachment(store, "q_1"))
	assert.False(t, HasAttachment(store, "q_2")) // empty slot is no attachment
}

func TestHasAttachmentLoose(t *testing.T) {
	store := map[string][]Attachment{
		"q_1_p2_s0_legacy": {{ID: "a1"}},
	}

	// exact key misses, the contains-scan still finds the legacy key
	assert.False(t, HasAttachment(store, AttachmentKey("q_1", 2, 0)))
	assert.True(t, HasAttachmentLoose(store, "q_1", 2, 0))

	// wrong part or question never matches
	assert.False(t, HasAttachmentLoose(store, "q_1", 1, 0))
	assert.False(t, HasAttachmentLoose(store, "q_2", 2, 0))
}
