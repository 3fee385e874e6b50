package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTag(t *testing.T) {
	tag, err := ParseTag("output_format")
	require.NoError(t, err)
	assert.Equal(t, TagOutputFormat, tag)

	_, err = ParseTag("outputFormat")
	assert.Error(t, err)

	_, err = ParseTag("")
	assert.Error(t, err)
}

func TestFilterTags(t *testing.T) {
	got := FilterTags([]string{"role", "bogus", "task", "role", "context"})
	assert.Equal(t, []Tag{TagRole, TagTask, TagContext}, got)

	assert.Empty(t, FilterTags(nil))
	assert.Empty(t, FilterTags([]string{"nope"}))
}

func TestTagMetadataCoversAllTags(t *testing.T) {
	for _, tag := range AllTags {
		info, ok := TagMetadata[tag]
		require.True(t, ok, "missing metadata for %s", tag)
		assert.NotEmpty(t, info.Label)
		assert.NotEmpty(t, info.Description)
	}
}
