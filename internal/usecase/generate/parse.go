package generate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/prompt"
)

// extractJSONObject returns the first balanced {...} span of raw, tolerating
// surrounding prose and markdown fences. Braces inside JSON strings are
// ignored by tracking string and escape state.
func extractJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}

	return "", false
}

type analysisWire struct {
	RoleIdentification   string   `json:"roleIdentification"`
	RoleDescription      string   `json:"roleDescription"`
	TaskGoals            []string `json:"taskGoals"`
	RecommendedTemplates []string `json:"recommendedTemplates"`
	SuggestedTags        []string `json:"suggestedTags"`
}

// parseAnalysis validates and normalizes the analysis-step response. Unknown
// suggested tags are dropped; roleDescription falls back to the role name.
func parseAnalysis(raw string) (*prompt.AnalysisResult, error) {
	span, ok := extractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("响应中未找到 JSON: %w", entity.ErrResponseParse)
	}

	var wire analysisWire
	if err := json.Unmarshal([]byte(span), &wire); err != nil {
		return nil, fmt.Errorf("%v: %w", err, entity.ErrResponseParse)
	}

	if wire.RoleIdentification == "" || wire.TaskGoals == nil || wire.SuggestedTags == nil {
		return nil, fmt.Errorf("响应缺少必要字段: %w", entity.ErrResponseParse)
	}

	if wire.RoleDescription == "" {
		wire.RoleDescription = wire.RoleIdentification
	}

	return &prompt.AnalysisResult{
		RoleIdentification:   wire.RoleIdentification,
		RoleDescription:      wire.RoleDescription,
		TaskGoals:            wire.TaskGoals,
		RecommendedTemplates: wire.RecommendedTemplates,
		SuggestedTags:        prompt.FilterTags(wire.SuggestedTags),
	}, nil
}

// parseTagContents reads a tag→content JSON object. Non-string values are
// stringified, null values and unknown tags are skipped.
func parseTagContents(raw string) (map[prompt.Tag]string, error) {
	span, ok := extractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("响应中未找到 JSON: %w", entity.ErrResponseParse)
	}

	var wire map[string]any
	if err := json.Unmarshal([]byte(span), &wire); err != nil {
		return nil, fmt.Errorf("%v: %w", err, entity.ErrResponseParse)
	}

	out := make(map[prompt.Tag]string, len(wire))
	for key, value := range wire {
		if !prompt.IsValidTag(key) || value == nil {
			continue
		}
		if s, isString := value.(string); isString {
			out[prompt.Tag(key)] = s
		} else {
			out[prompt.Tag(key)] = fmt.Sprint(value)
		}
	}

	return out, nil
}

type qualityWire struct {
	Passed  *bool                 `json:"passed"`
	Score   *float64              `json:"score"`
	Issues  []entity.QualityIssue `json:"issues"`
	Summary string                `json:"summary"`
}

// parseQualityCheck validates the quality-check response. passed and score
// are required; issues defaults to an empty list.
func parseQualityCheck(raw string) (*entity.QualityCheckResult, error) {
	span, ok := extractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("响应中未找到 JSON: %w", entity.ErrResponseParse)
	}

	var wire qualityWire
	if err := json.Unmarshal([]byte(span), &wire); err != nil {
		return nil, fmt.Errorf("%v: %w", err, entity.ErrResponseParse)
	}

	if wire.Passed == nil || wire.Score == nil {
		return nil, fmt.Errorf("响应缺少必要字段: %w", entity.ErrResponseParse)
	}

	issues := wire.Issues
	if issues == nil {
		issues = []entity.QualityIssue{}
	}

	return &entity.QualityCheckResult{
		Passed:  *wire.Passed,
		Score:   int(*wire.Score),
		Issues:  issues,
		Summary: wire.Summary,
	}, nil
}
