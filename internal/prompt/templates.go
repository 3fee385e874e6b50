package prompt

import (
	"fmt"
	"strings"
)

// DefaultContents builds the per-tag fallback templates used when a tag has
// neither generated nor custom content. The role/task/constraints templates
// are parameterized by the analysis result and the selected language/style;
// the rest are fixed boilerplate.
func DefaultContents(description string, analysis *AnalysisResult, set *SectionSet) map[Tag]string {
	tone, manner := set.OutputStyle.Tone()

	role := "专业的AI助手"
	var goals []string
	if analysis != nil {
		if analysis.RoleIdentification != "" {
			role = analysis.RoleIdentification
		}
		goals = analysis.TaskGoals
	}
	if len(goals) == 0 {
		goals = []string{"理解用户需求", "提供专业建议", "输出结构化内容"}
	}

	var taskList strings.Builder
	for _, g := range goals {
		fmt.Fprintf(&taskList, "- %s\n", g)
	}

	task := fmt.Sprintf("你的任务是帮助用户完成以下目标：\n%s", taskList.String())
	if description != "" {
		task += fmt.Sprintf("\n核心需求描述：%s", description)
	}

	return map[Tag]string{
		TagRole: fmt.Sprintf(
			"你是一位%s，具备深厚的专业背景和丰富的实战经验。\n你以%s的风格进行沟通，%s。",
			role, tone, manner),

		TagTask: strings.TrimRight(task, "\n"),

		TagThinking: `此思考过程为内部推理，不直接输出给用户。

在回答之前，请按以下框架思考：
1. **需求理解**：准确理解用户的核心诉求
2. **方案设计**：基于专业知识设计解决方案
3. **验证检查**：确保方案的可行性和正确性
4. **输出组织**：以清晰的结构呈现结果`,

		TagInstructions: `1. 仔细阅读并理解用户的输入内容
2. 运用专业知识进行分析和处理
3. 以结构化的方式组织输出内容
4. 如有不确定之处，明确说明并提供多种可能的解决方案
5. 根据问题类型选择合适的输出格式：
   - 分析类问题：使用"分析过程" + "结论"结构
   - 操作类问题：使用分步骤说明
   - 创意类问题：提供多个备选方案`,

		TagOutputFormat: "- 使用 Markdown 格式进行排版\n" +
			"- 重要信息使用**加粗**标注\n" +
			"- 代码使用 `代码块` 包裹\n" +
			"- 对比信息使用表格呈现\n" +
			"- 步骤说明使用有序列表",

		TagConstraints: fmt.Sprintf(`- %s
- 保持%s的沟通风格
- 回答必须基于事实，如不确定请明确说明
- 避免冗余内容，保持简洁有效
- 遵循职业道德，不提供有害建议`, set.Language.Constraint(), tone),

		TagExample: `<user>
[用户输入示例]
</user>

<assistant>
[助手回复示例]
</assistant>`,

		TagTools: `可用工具：
- 搜索工具：用于查询最新信息
- 计算工具：用于数学计算
- 代码执行：用于运行代码片段

使用规则：
1. 根据任务需求选择合适的工具
2. 优先使用内置能力，必要时才调用工具
3. 明确说明工具调用的目的和预期结果`,

		TagContext: `背景信息：
[在此提供与任务相关的背景知识、参考资料或上下文信息]

相关文档或数据将在此处提供，请基于这些信息进行回答。`,
	}
}
