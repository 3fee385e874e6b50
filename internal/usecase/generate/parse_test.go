package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/prompt"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"surrounding prose", `好的，分析结果如下：{"a":1}，希望有帮助。`, `{"a":1}`, true},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`, true},
		{"brace inside string", `{"a":"}"}`, `{"a":"}"}`, true},
		{"escaped quote inside string", `{"a":"\"}\""} trailing`, `{"a":"\"}\""}`, true},
		{"no object", "plain text only", "", false},
		{"unbalanced", `{"a":1`, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractJSONObject(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseAnalysis(t *testing.T) {
	raw := "```json\n" + `{
		"roleIdentification": "科研助手",
		"taskGoals": ["分析论文", "优化代码"],
		"recommendedTemplates": ["模板 E (深度推理型)"],
		"suggestedTags": ["role", "task", "bogus", "task", "instructions"]
	}` + "\n```"

	result, err := parseAnalysis(raw)
	require.NoError(t, err)

	assert.Equal(t, "科研助手", result.RoleIdentification)
	// roleDescription falls back to the role name
	assert.Equal(t, "科研助手", result.RoleDescription)
	assert.Equal(t, []string{"分析论文", "优化代码"}, result.TaskGoals)
	// unknown tags and duplicates are dropped, order preserved
	assert.Equal(t, []prompt.Tag{prompt.TagRole, prompt.TagTask, prompt.TagInstructions}, result.SuggestedTags)
}

func TestParseAnalysisErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"no json", "抱歉，我无法解析这个需求。"},
		{"invalid json", `{"roleIdentification": }`},
		{"missing role", `{"taskGoals": [], "suggestedTags": []}`},
		{"missing goals", `{"roleIdentification": "x", "suggestedTags": []}`},
		{"missing tags", `{"roleIdentification": "x", "taskGoals": []}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseAnalysis(tc.in)
			assert.ErrorIs(t, err, entity.ErrResponseParse)
		})
	}
}

func TestParseTagContents(t *testing.T) {
	raw := `{
		"role": "角色内容",
		"task": 42,
		"unknown_tag": "dropped",
		"thinking": null
	}`

	contents, err := parseTagContents(raw)
	require.NoError(t, err)

	assert.Equal(t, "角色内容", contents[prompt.TagRole])
	// non-string values are stringified, nulls and unknown keys dropped
	assert.Equal(t, "42", contents[prompt.TagTask])
	assert.NotContains(t, contents, prompt.TagThinking)
	assert.Len(t, contents, 2)
}

func TestParseQualityCheck(t *testing.T) {
	raw := `{
		"passed": false,
		"score": 72.0,
		"issues": [
			{"category": "structure", "severity": "error", "tag": "constraints", "message": "缺少约束", "fix": "补充约束条件"}
		],
		"summary": "需要改进"
	}`

	result, err := parseQualityCheck(raw)
	require.NoError(t, err)

	assert.False(t, result.Passed)
	assert.Equal(t, 72, result.Score)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, entity.IssueStructure, result.Issues[0].Category)
	assert.Equal(t, entity.SeverityError, result.Issues[0].Severity)
	require.NotNil(t, result.Issues[0].Tag)
	assert.Equal(t, prompt.TagConstraints, *result.Issues[0].Tag)

	// issues defaults to an empty list
	result, err = parseQualityCheck(`{"passed": true, "score": 95}`)
	require.NoError(t, err)
	assert.NotNil(t, result.Issues)
	assert.Empty(t, result.Issues)

	// passed and score are required
	_, err = parseQualityCheck(`{"score": 95}`)
	assert.ErrorIs(t, err, entity.ErrResponseParse)
	_, err = parseQualityCheck(`{"passed": true}`)
	assert.ErrorIs(t, err, entity.ErrResponseParse)
}
