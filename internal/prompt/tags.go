package prompt

import "fmt"

// Tag names one section of a structured prompt.
type Tag string

const (
	TagRole         Tag = "role"
	TagTask         Tag = "task"
	TagThinking     Tag = "thinking"
	TagInstructions Tag = "instructions"
	TagOutputFormat Tag = "output_format"
	TagConstraints  Tag = "constraints"
	TagExample      Tag = "example"
	TagTools        Tag = "tools"
	TagContext      Tag = "context"
)

// AllTags is the canonical assembly order of the CLI dialect. Sections are
// always rendered in this order regardless of the order tags were enabled.
var AllTags = []Tag{
	TagRole,
	TagTask,
	TagThinking,
	TagInstructions,
	TagOutputFormat,
	TagConstraints,
	TagExample,
	TagTools,
	TagContext,
}

var validTags = func() map[Tag]bool {
	m := make(map[Tag]bool, len(AllTags))
	for _, t := range AllTags {
		m[t] = true
	}
	return m
}()

// IsValidTag reports whether name is a member of the fixed tag enumeration.
func IsValidTag(name string) bool {
	return validTags[Tag(name)]
}

// ParseTag validates a raw tag name.
func ParseTag(name string) (Tag, error) {
	if !IsValidTag(name) {
		return "", fmt.Errorf("unknown prompt tag: %s", name)
	}
	return Tag(name), nil
}

// TagInfo is static metadata describing a tag to the user.
type TagInfo struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Placeholder string `json:"placeholder"`
}

// TagMetadata carries the fixed label/description pairs shown in the wizard.
var TagMetadata = map[Tag]TagInfo{
	TagRole: {
		Label:       "角色定义",
		Description: "定义 AI 的身份、专业背景和能力",
		Placeholder: "你是一位[专业领域]专家，擅长[核心能力]...",
	},
	TagTask: {
		Label:       "任务声明",
		Description: "明确核心任务目标和期望结果",
		Placeholder: "你的任务是帮助用户完成...",
	},
	TagThinking: {
		Label:       "思考框架",
		Description: "AI 的内部推理过程（不直接输出）",
		Placeholder: "在回答之前，请按以下框架思考...",
	},
	TagInstructions: {
		Label:       "操作指令",
		Description: "具体的执行步骤和操作指南",
		Placeholder: "1. 第一步操作\n2. 第二步操作...",
	},
	TagOutputFormat: {
		Label:       "输出格式",
		Description: "通用格式规范（Markdown、表格等）",
		Placeholder: "- 使用 Markdown 格式\n- 代码使用代码块...",
	},
	TagConstraints: {
		Label:       "约束条件",
		Description: "限定行为边界和禁止事项",
		Placeholder: "- 使用中文回复\n- 保持专业态度...",
	},
	TagExample: {
		Label:       "示例",
		Description: "提供 Few-Shot 学习的输入输出示例",
		Placeholder: "<user>\n用户输入示例\n</user>\n\n<assistant>\n助手回复示例\n</assistant>",
	},
	TagTools: {
		Label:       "工具定义",
		Description: "定义可用的工具和使用场景",
		Placeholder: "可用工具：\n- 工具1：用于...\n- 工具2：用于...",
	},
	TagContext: {
		Label:       "上下文",
		Description: "提供背景知识或相关信息",
		Placeholder: "背景信息：\n[相关上下文内容]",
	},
}

// FilterTags drops unrecognized names and duplicates, preserving order.
func FilterTags(names []string) []Tag {
	seen := make(map[Tag]bool, len(names))
	out := make([]Tag, 0, len(names))
	for _, name := range names {
		tag := Tag(name)
		if !validTags[tag] || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
