package repository

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/prompt"
)

// SessionMemory keeps generation sessions in a TTL cache. Sessions are
// deliberately not persisted: an expired wizard simply starts over.
type SessionMemory struct {
	cache *cache.Cache
}

func NewSessionMemory(ttl time.Duration) *SessionMemory {
	return &SessionMemory{
		cache: cache.New(ttl, ttl/2),
	}
}

// Get returns a deep copy so concurrent steps never share mutable state.
func (s *SessionMemory) Get(_ context.Context, id string) (*entity.GenerationSession, error) {
	item, ok := s.cache.Get(id)
	if !ok {
		return nil, entity.ErrSessionNotFound
	}

	session := item.(entity.GenerationSession)
	return copySession(&session), nil
}

// Save stores a copy and refreshes the TTL.
func (s *SessionMemory) Save(_ context.Context, session *entity.GenerationSession) error {
	s.cache.Set(session.ID, *copySession(session), cache.DefaultExpiration)
	return nil
}

func (s *SessionMemory) Delete(_ context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}

func copySession(src *entity.GenerationSession) *entity.GenerationSession {
	dst := *src

	dst.Adjustments.EnabledTags = append([]prompt.Tag(nil), src.Adjustments.EnabledTags...)
	dst.Adjustments.Generated = copyTagMap(src.Adjustments.Generated)
	dst.Adjustments.Custom = copyTagMap(src.Adjustments.Custom)

	if src.Analysis != nil {
		analysis := *src.Analysis
		analysis.TaskGoals = append([]string(nil), src.Analysis.TaskGoals...)
		analysis.RecommendedTemplates = append([]string(nil), src.Analysis.RecommendedTemplates...)
		analysis.SuggestedTags = append([]prompt.Tag(nil), src.Analysis.SuggestedTags...)
		dst.Analysis = &analysis
	}
	if src.Result != nil {
		result := *src.Result
		dst.Result = &result
	}
	if src.Quality != nil {
		quality := *src.Quality
		quality.Issues = append([]entity.QualityIssue(nil), src.Quality.Issues...)
		dst.Quality = &quality
	}
	if src.Error != nil {
		msg := *src.Error
		dst.Error = &msg
	}

	return &dst
}

func copyTagMap(src map[prompt.Tag]string) map[prompt.Tag]string {
	dst := make(map[prompt.Tag]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
