package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/prompt"
)

func TestSessionMemoryRoundTrip(t *testing.T) {
	store := NewSessionMemory(time.Minute)
	ctx := context.Background()

	session := &entity.GenerationSession{
		ID:          "s-1",
		CurrentStep: entity.StepAdjustment,
		Description: "测试描述",
		Adjustments: prompt.NewSectionSet(),
	}
	session.Adjustments.Generated[prompt.TagRole] = "角色内容"

	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, session.Description, loaded.Description)
	assert.Equal(t, "角色内容", loaded.Adjustments.Generated[prompt.TagRole])

	// mutating the loaded copy must not leak into the store
	loaded.Adjustments.Generated[prompt.TagRole] = "改过了"
	loaded.Adjustments.EnabledTags = nil

	again, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "角色内容", again.Adjustments.Generated[prompt.TagRole])
	assert.Equal(t, prompt.NewSectionSet().EnabledTags, again.Adjustments.EnabledTags)
}

func TestSessionMemoryMissingAndDelete(t *testing.T) {
	store := NewSessionMemory(time.Minute)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)

	session := &entity.GenerationSession{ID: "s-2", Adjustments: prompt.NewSectionSet()}
	require.NoError(t, store.Save(ctx, session))
	require.NoError(t, store.Delete(ctx, "s-2"))

	_, err = store.Get(ctx, "s-2")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestSessionMemoryExpiry(t *testing.T) {
	store := NewSessionMemory(20 * time.Millisecond)
	ctx := context.Background()

	session := &entity.GenerationSession{ID: "s-3", Adjustments: prompt.NewSectionSet()}
	require.NoError(t, store.Save(ctx, session))

	time.Sleep(50 * time.Millisecond)

	_, err := store.Get(ctx, "s-3")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}
