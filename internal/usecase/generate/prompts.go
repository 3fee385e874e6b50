package generate

import (
	"fmt"
	"strings"

	"github.com/promptweaver/prompt-backend/internal/entity"
	"github.com/promptweaver/prompt-backend/internal/prompt"
)

// Fixed system prompts of the pipeline. The JSON schemas embedded here are
// load-bearing: parse.go validates the fields they request.

const analysisSystemPrompt = `你是一位专业的 Prompt 工程师，擅长分析用户需求并设计高质量的 AI 提示词结构。

你的任务是分析用户的描述，提取以下信息：
1. 角色定位：识别 AI 应扮演的专业角色
2. 核心任务目标：提取 3-5 个主要任务目标
3. 推荐模板：根据任务类型推荐合适的模板
4. 建议 XML 标签：推荐应该使用的 XML 标签

请以 JSON 格式返回结果，格式如下：
{
  "roleIdentification": "角色名称",
  "roleDescription": "角色的专业背景和能力描述",
  "taskGoals": ["目标1", "目标2", "目标3"],
  "recommendedTemplates": ["模板名称"],
  "suggestedTags": ["role", "task", "instructions", ...]
}

可用的 XML 标签：
- role: 角色定义
- task: 任务声明
- thinking: 思考框架（内部推理，不直接输出）
- instructions: 操作指令
- output_format: 输出格式
- constraints: 约束条件
- example: 示例内容
- tools: 工具定义
- context: 上下文信息

可用的模板类型：
- 模板 A (单一任务型): 适合明确的单一任务
- 模板 B (多轮交互型): 适合需要多轮对话的场景
- 模板 C (代码/技术任务型): 适合编程和技术任务
- 模板 D (引用来源型): 适合需要引用验证的场景
- 模板 E (深度推理型): 适合复杂推理和学术研究

只返回 JSON，不要包含其他内容。`

func analysisUserPrompt(description string) string {
	return fmt.Sprintf(`请分析以下用户描述，提取角色定位、任务目标、推荐模板和建议的 XML 标签：

用户描述：
%s`, description)
}

var styleDescriptions = map[prompt.OutputStyle]string{
	prompt.StyleProfessional: "专业严谨的风格，使用行业术语",
	prompt.StyleFriendly:     "友好亲切的风格，通俗易懂",
	prompt.StyleAcademic:     "学术规范的风格，注重逻辑严密性",
}

var languageDescriptions = map[prompt.Language]string{
	prompt.LanguageZH: "使用简体中文",
	prompt.LanguageEN: "使用英文",
}

func synthesisSystemPrompt(language prompt.Language, style prompt.OutputStyle) string {
	return fmt.Sprintf(`你是一位专业的 Prompt 工程师，现在需要为用户生成高质量的提示词内容。

请根据用户提供的分析结果，为每个 XML 标签生成具体内容。

要求：
- %s
- 采用%s
- 内容应该具体、可操作
- 每个标签的内容应该独立完整

XML 标签说明：
- role: 定义 AI 的身份、专业背景和能力
- task: 明确核心任务目标和期望结果
- thinking: AI 的内部推理过程（标注"此思考过程为内部推理，不直接输出给用户"）
- instructions: 具体的执行步骤和操作指南
- output_format: 通用格式规范（Markdown、表格等）
- constraints: 限定行为边界和禁止事项
- example: Few-Shot 学习的输入输出示例
- tools: 可用工具和使用场景定义
- context: 背景知识或相关信息

请以 JSON 格式返回，键为标签名，值为标签内容：
{
  "role": "角色定义内容...",
  "task": "任务声明内容...",
  ...
}

只返回 JSON，不要包含其他内容。`, languageDescriptions[language], styleDescriptions[style])
}

func synthesisUserPrompt(description string, analysis *prompt.AnalysisResult) string {
	return fmt.Sprintf(`请为以下提示词生成各标签内容：

用户原始描述：
%s

分析结果：
- 角色定位：%s
- 核心任务：%s
- 推荐模板：%s

需要生成的标签：%s

请生成每个标签的具体内容。`,
		description,
		analysis.RoleIdentification,
		strings.Join(analysis.TaskGoals, "、"),
		strings.Join(analysis.RecommendedTemplates, "、"),
		joinTags(analysis.SuggestedTags, ", "))
}

const polishSystemPrompt = `你是一位专业的 Prompt 工程师，擅长优化和润色提示词内容。

你的任务是优化用户提供的标签内容，使其更加：
1. 清晰明确 - 表达准确，无歧义
2. 结构合理 - 逻辑清晰，层次分明
3. 内容完整 - 覆盖必要信息，无遗漏
4. 风格一致 - 符合指定的语言和风格要求

请直接返回优化后的内容，不要包含额外的解释或标记。`

var polishLanguageNames = map[prompt.Language]string{
	prompt.LanguageZH: "简体中文",
	prompt.LanguageEN: "英文",
}

var polishStyleNames = map[prompt.OutputStyle]string{
	prompt.StyleProfessional: "专业严谨的风格",
	prompt.StyleFriendly:     "友好亲切的风格",
	prompt.StyleAcademic:     "学术规范的风格",
}

func polishUserPrompt(tag prompt.Tag, currentContent, description string, analysis *prompt.AnalysisResult, language prompt.Language, style prompt.OutputStyle) string {
	info := prompt.TagMetadata[tag]
	return fmt.Sprintf(`请优化以下 <%s> 标签的内容：

标签类型：%s - %s
语言要求：%s
风格要求：%s

用户原始描述：%s
角色定位：%s
核心任务：%s

当前内容：
%s

请优化上述内容，使其更加专业、完整和清晰。只返回优化后的内容，不要包含任何解释。`,
		tag, info.Label, info.Description,
		polishLanguageNames[language], polishStyleNames[style],
		description, analysis.RoleIdentification, strings.Join(analysis.TaskGoals, "、"),
		currentContent)
}

const qualitySystemPrompt = `你是一位资深的 Prompt 审查专家，负责按固定评分标准审查结构化提示词的质量。

评分维度（加权总分 100）：
1. 结构完整性 (structure)：必要标签是否齐全，内容是否完整
2. 标签职责分离 (separation)：各标签内容是否各司其职，无混杂
3. 最佳实践 (bestPractice)：是否符合提示词工程的最佳实践
4. 可用性 (usability)：表达是否清晰可执行，无歧义
5. 场景适配 (scenario)：内容是否贴合该提示词的具体使用场景

请以 JSON 格式返回审查结果：
{
  "passed": true,
  "score": 85,
  "issues": [
    {
      "category": "structure",
      "severity": "warning",
      "tag": "constraints",
      "message": "问题描述",
      "fix": "修复建议"
    }
  ],
  "summary": "整体评价"
}

字段要求：
- passed：布尔值，整体是否合格
- score：0-100 的整数
- issues 中的 category 取值：structure / separation / bestPractice / usability / scenario
- issues 中的 severity 取值：error / warning / suggestion
- tag 可选，关联到具体标签时填写

只返回 JSON，不要包含其他内容。`

func qualityUserPrompt(description string, sections []prompt.Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "请审查以下提示词的质量。\n\n用户原始需求：\n%s\n\n各标签内容：\n", description)
	for _, sec := range sections {
		fmt.Fprintf(&b, "\n<%s>\n%s\n</%s>\n", sec.Tag, sec.Content, sec.Tag)
	}
	return b.String()
}

const qualityPolishSystemPrompt = `你是一位专业的 Prompt 工程师，负责根据审查发现的问题修订提示词的标签内容。

要求：
- 只修订存在问题的标签，逐条解决列出的问题
- 保持原有的语言和风格
- 未列出问题的标签不要改动

请以 JSON 格式返回，键为标签名，值为修订后的完整标签内容：
{
  "role": "修订后的角色定义...",
  ...
}

只返回 JSON，不要包含其他内容。`

func qualityPolishUserPrompt(issues []entity.QualityIssue, sections []prompt.Section) string {
	var b strings.Builder
	b.WriteString("审查发现以下问题：\n")
	for _, issue := range issues {
		if issue.Tag != nil {
			fmt.Fprintf(&b, "- [%s/%s] <%s> %s", issue.Category, issue.Severity, *issue.Tag, issue.Message)
		} else {
			fmt.Fprintf(&b, "- [%s/%s] %s", issue.Category, issue.Severity, issue.Message)
		}
		if issue.Fix != "" {
			fmt.Fprintf(&b, "（建议：%s）", issue.Fix)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n当前各标签内容：\n")
	for _, sec := range sections {
		fmt.Fprintf(&b, "\n<%s>\n%s\n</%s>\n", sec.Tag, sec.Content, sec.Tag)
	}

	b.WriteString("\n请返回修订后的标签内容。")
	return b.String()
}

func joinTags(tags []prompt.Tag, sep string) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, string(t))
	}
	return strings.Join(names, sep)
}
