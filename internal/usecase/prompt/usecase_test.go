package prompt

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/pkg/formatter"
	promptmodel "github.com/promptweaver/prompt-backend/internal/prompt"
	"github.com/promptweaver/prompt-backend/internal/repository"
)

type fakePromptRepo struct {
	byID map[string]entity.StoredPrompt
}

func newFakePromptRepo() *fakePromptRepo {
	return &fakePromptRepo{byID: make(map[string]entity.StoredPrompt)}
}

func (r *fakePromptRepo) Create(_ context.Context, p entity.StoredPrompt) (*entity.StoredPrompt, error) {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.byID[p.ID] = p
	return &p, nil
}

func (r *fakePromptRepo) Get(_ context.Context, id string) (*entity.StoredPrompt, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, entity.ErrPromptNotFound
	}
	return &p, nil
}

func (r *fakePromptRepo) List(_ context.Context, filter repository.PromptFilter) ([]*entity.StoredPrompt, error) {
	var out []*entity.StoredPrompt
	for id := range r.byID {
		p := r.byID[id]
		if filter.Category != nil && p.Category != *filter.Category {
			continue
		}
		if filter.FavoritesOnly && !p.IsFavorite {
			continue
		}
		out = append(out, &p)
	}
	return out, nil
}

func (r *fakePromptRepo) Update(_ context.Context, p entity.StoredPrompt) (*entity.StoredPrompt, error) {
	if _, ok := r.byID[p.ID]; !ok {
		return nil, entity.ErrPromptNotFound
	}
	p.UpdatedAt = time.Now()
	r.byID[p.ID] = p
	return &p, nil
}

func (r *fakePromptRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return entity.ErrPromptNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakePromptRepo) IncrementUsage(_ context.Context, id string) (*entity.StoredPrompt, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, entity.ErrPromptNotFound
	}
	p.UsageCount++
	r.byID[id] = p
	return &p, nil
}

func (r *fakePromptRepo) ToggleFavorite(_ context.Context, id string) (*entity.StoredPrompt, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, entity.ErrPromptNotFound
	}
	p.IsFavorite = !p.IsFavorite
	r.byID[id] = p
	return &p, nil
}

type fakeSessionStore struct {
	sessions map[string]*entity.GenerationSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*entity.GenerationSession)}
}

func (s *fakeSessionStore) Get(_ context.Context, id string) (*entity.GenerationSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return session, nil
}

func (s *fakeSessionStore) Save(_ context.Context, session *entity.GenerationSession) error {
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeSessionStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func newTestUsecase() (*PromptUsecase, *fakePromptRepo, *fakeSessionStore) {
	repo := newFakePromptRepo()
	sessions := newFakeSessionStore()
	uc := NewUsecase(repo, sessions, formatter.NewFactory(), zap.NewNop())
	return uc, repo, sessions
}

func TestSaveAndGet(t *testing.T) {
	uc, _, _ := newTestUsecase()

	created, err := uc.Save(context.Background(), entity.SavePromptRequest{
		Name:     "代码审查助手",
		Category: entity.CategoryCoding,
		Tags:     []string{"代码审查"},
		CliText:  "<role>\n审查员\n</role>",
		WebText:  "审查员",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := uc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "代码审查助手", got.Name)
	assert.Equal(t, entity.CategoryCoding, got.Category)
}

func TestSaveDefaultsCategory(t *testing.T) {
	uc, _, _ := newTestUsecase()

	created, err := uc.Save(context.Background(), entity.SavePromptRequest{Name: "未分类"})
	require.NoError(t, err)
	assert.Equal(t, entity.CategoryOther, created.Category)
}

func TestSaveValidation(t *testing.T) {
	uc, _, _ := newTestUsecase()

	_, err := uc.Save(context.Background(), entity.SavePromptRequest{})
	assert.ErrorIs(t, err, entity.ErrMissingField)

	_, err = uc.Save(context.Background(), entity.SavePromptRequest{
		Name:     "x",
		Category: entity.PromptCategory("nonsense"),
	})
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)
}

func TestSaveFromSession(t *testing.T) {
	uc, _, sessions := newTestUsecase()

	require.NoError(t, sessions.Save(context.Background(), &entity.GenerationSession{
		ID:          "sess-1",
		Description: "我需要一个科研助手",
		Analysis: &promptmodel.AnalysisResult{
			RoleIdentification: "科研助手",
			TaskGoals:          []string{"论文分析", "代码优化", "文献综述", "实验设计"},
			SuggestedTags:      []promptmodel.Tag{promptmodel.TagRole},
		},
		Result: &entity.GenerationResult{
			CliText: "<role>\n科研助手\n</role>",
			WebText: "科研助手",
		},
	}))

	created, err := uc.SaveFromSession(context.Background(), entity.SaveFromSessionRequest{
		SessionID: "sess-1",
		Name:      "科研助手",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.CategoryOther, created.Category)
	assert.Equal(t, "我需要一个科研助手", created.Description)
	assert.Equal(t, []string{"论文分析", "代码优化", "文献综述"}, created.Tags)
	assert.Equal(t, "<role>\n科研助手\n</role>", created.CliText)
	assert.Equal(t, "科研助手", created.WebText)
}

func TestSaveFromSessionWithoutResult(t *testing.T) {
	uc, _, sessions := newTestUsecase()

	require.NoError(t, sessions.Save(context.Background(), &entity.GenerationSession{ID: "sess-2"}))

	_, err := uc.SaveFromSession(context.Background(), entity.SaveFromSessionRequest{
		SessionID: "sess-2",
		Name:      "x",
	})
	assert.ErrorIs(t, err, entity.ErrNoResult)

	_, err = uc.SaveFromSession(context.Background(), entity.SaveFromSessionRequest{
		SessionID: "missing",
		Name:      "x",
	})
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestUpdatePartial(t *testing.T) {
	uc, _, _ := newTestUsecase()

	created, err := uc.Save(context.Background(), entity.SavePromptRequest{
		Name:        "原名",
		Description: "原描述",
		Category:    entity.CategoryWriting,
	})
	require.NoError(t, err)

	newName := "新名"
	updated, err := uc.Update(context.Background(), created.ID, entity.UpdatePromptRequest{
		Name: &newName,
	})
	require.NoError(t, err)
	assert.Equal(t, "新名", updated.Name)
	assert.Equal(t, "原描述", updated.Description)
	assert.Equal(t, entity.CategoryWriting, updated.Category)

	bad := entity.PromptCategory("nope")
	_, err = uc.Update(context.Background(), created.ID, entity.UpdatePromptRequest{Category: &bad})
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)
}

func TestUsageAndFavorite(t *testing.T) {
	uc, _, _ := newTestUsecase()

	created, err := uc.Save(context.Background(), entity.SavePromptRequest{Name: "p"})
	require.NoError(t, err)

	bumped, err := uc.IncrementUsage(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, bumped.UsageCount)

	fav, err := uc.ToggleFavorite(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, fav.IsFavorite)

	fav, err = uc.ToggleFavorite(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, fav.IsFavorite)
}

func TestDelete(t *testing.T) {
	uc, _, _ := newTestUsecase()

	created, err := uc.Save(context.Background(), entity.SavePromptRequest{Name: "p"})
	require.NoError(t, err)

	require.NoError(t, uc.Delete(context.Background(), created.ID))
	_, err = uc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, entity.ErrPromptNotFound)
}

func TestExport(t *testing.T) {
	uc, _, _ := newTestUsecase()

	created, err := uc.Save(context.Background(), entity.SavePromptRequest{
		Name:    "导出测试",
		CliText: "<role>\n助手\n</role>",
		WebText: "助手",
	})
	require.NoError(t, err)

	tests := []struct {
		dialect     entity.PromptDialect
		format      entity.ResultFormat
		contentType string
		filename    string
		contains    string
	}{
		{entity.DialectCli, entity.FormatMarkdown, "text/markdown; charset=utf-8", "导出测试.md", "<role>"},
		{entity.DialectWeb, entity.FormatMarkdown, "text/markdown; charset=utf-8", "导出测试.md", "助手"},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("%s_%s", tc.dialect, tc.format), func(t *testing.T) {
			file, err := uc.Export(context.Background(), created.ID, tc.dialect, tc.format)
			require.NoError(t, err)
			assert.Equal(t, tc.contentType, file.ContentType)
			assert.Equal(t, tc.filename, file.Filename)
			assert.Contains(t, string(file.Data), tc.contains)
		})
	}
}

func TestExportInvalidInput(t *testing.T) {
	uc, _, _ := newTestUsecase()

	created, err := uc.Save(context.Background(), entity.SavePromptRequest{Name: "p"})
	require.NoError(t, err)

	_, err = uc.Export(context.Background(), created.ID, entity.PromptDialect("teletype"), entity.FormatMarkdown)
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)

	_, err = uc.Export(context.Background(), created.ID, entity.DialectCli, entity.ResultFormat("xls"))
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)

	_, err = uc.Export(context.Background(), "missing", entity.DialectCli, entity.FormatMarkdown)
	assert.True(t, errors.Is(err, entity.ErrPromptNotFound))
}
