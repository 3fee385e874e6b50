package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

// AssembleCli renders the CLI dialect: XML-tagged blocks in canonical tag
// order, joined by blank lines. Enabled tags that resolve to empty content
// are skipped silently.
func AssembleCli(description string, analysis *AnalysisResult, set *SectionSet) string {
	defaults := DefaultContents(description, analysis, set)
	sections := set.Sections(defaults)

	blocks := make([]string, 0, len(sections))
	for _, sec := range sections {
		blocks = append(blocks, fmt.Sprintf("<%s>\n%s\n</%s>", sec.Tag, strings.TrimSpace(sec.Content), sec.Tag))
	}
	return strings.Join(blocks, "\n\n")
}

// tagBlockPatterns extract <tag>...</tag> spans from CLI text.
var tagBlockPatterns = func() map[Tag]*regexp.Regexp {
	m := make(map[Tag]*regexp.Regexp, len(AllTags))
	for _, t := range AllTags {
		m[t] = regexp.MustCompile(fmt.Sprintf(`(?s)<%s>(.*?)</%s>`, t, t))
	}
	return m
}()

var (
	roleNamePattern    = regexp.MustCompile(`你是一位(.+?)，`)
	langPhrasePattern  = regexp.MustCompile(`使用(.+?)回复`)
	tonePhrasePattern  = regexp.MustCompile(`保持(.+?)的沟通风格`)
	numberedLinePrefix = regexp.MustCompile(`^(\d+)\.`)
)

func extractBlock(cliText string, tag Tag) (string, bool) {
	m := tagBlockPatterns[tag].FindStringSubmatch(cliText)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// CliToWeb converts CLI-dialect text to the condensed Web dialect. Each tag
// is extracted independently and rewritten by its own rule; absent tags
// contribute nothing and malformed input never raises. The example and tools
// sections are dropped on purpose: Web surfaces have length constraints.
func CliToWeb(cliText string) string {
	var sections []string

	if content, ok := extractBlock(cliText, TagRole); ok {
		if m := roleNamePattern.FindStringSubmatchIndex(content); m != nil {
			name := content[m[2]:m[3]]
			remainder := content[:m[0]] + content[m[1]:]
			sections = append(sections, fmt.Sprintf("你将扮演'%s'，%s", name, remainder))
		} else {
			// No canonical opener, keep the raw block (best effort).
			sections = append(sections, content)
		}
	}

	if content, ok := extractBlock(cliText, TagTask); ok {
		lines := strings.Split(content, "\n")
		for i, line := range lines {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "-") {
				line = "*" + line[1:]
			}
			lines[i] = line
		}
		sections = append(sections, "目的与目标：\n"+strings.Join(lines, "\n"))
	}

	if content, ok := extractBlock(cliText, TagInstructions); ok {
		var formatted []string
		for _, line := range strings.Split(content, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if numberedLinePrefix.MatchString(line) {
				line = numberedLinePrefix.ReplaceAllString(line, "$1)")
			} else {
				line = fmt.Sprintf("%d) %s", len(formatted)+1, line)
			}
			formatted = append(formatted, line)
		}
		sections = append(sections, "行为准则：\n"+strings.Join(formatted, "\n"))
	}

	if _, ok := extractBlock(cliText, TagThinking); ok {
		// Structured thinking content is internal-only; summarize it.
		sections = append(sections, "X) 内部思考框架 (不直接输出)：在回答前先进行需求理解、方案设计、验证检查")
	}

	if content, ok := extractBlock(cliText, TagOutputFormat); ok {
		sections = append(sections, "输出格式要求：\n"+content)
	}

	if content, ok := extractBlock(cliText, TagConstraints); ok {
		lang := "简体中文"
		if m := langPhrasePattern.FindStringSubmatch(content); m != nil {
			lang = m[1]
		}
		tone := "专业"
		if m := tonePhrasePattern.FindStringSubmatch(content); m != nil {
			tone = m[1]
		}
		sections = append(sections, fmt.Sprintf("语言与态度：\n使用%s回复，保持%s的沟通风格。", lang, tone))
	}

	if content, ok := extractBlock(cliText, TagContext); ok {
		sections = append(sections, "背景信息：\n"+content)
	}

	return strings.Join(sections, "\n\n")
}

// Header-anchored extraction patterns for the Web dialect. Each span runs to
// the next blank line, the next known header, or end of input.
var (
	webRolePattern         = regexp.MustCompile(`(?s)你将扮演['"‘’](.+?)['"‘’]，(.*?)(?:\n\n|目的与目标|\z)`)
	webTaskPattern         = regexp.MustCompile(`(?s)目的与目标[：:](.*?)(?:\n\n|行为准则|\z)`)
	webInstructionsPattern = regexp.MustCompile(`(?s)行为准则[：:](.*?)(?:\n\n|输出格式|\z)`)
	webOutputPattern       = regexp.MustCompile(`(?s)输出格式要求[：:](.*?)(?:\n\n|语言与态度|\z)`)
	webConstraintsPattern  = regexp.MustCompile(`(?s)语言与态度[：:](.*?)(?:\n\n|背景信息|\z)`)
	webContextPattern      = regexp.MustCompile(`(?s)背景信息[：:](.*)\z`)

	starLinePrefix    = regexp.MustCompile(`(?m)^\*`)
	parenNumberedLine = regexp.MustCompile(`(?m)^(\d+)\)`)
)

// WebToCli converts Web-dialect text back to CLI-dialect text. The mapping is
// lossy and best-effort: unmatched headers contribute nothing, and a fully
// unrecognized input yields an empty string rather than an error.
func WebToCli(webText string) string {
	var sections []string

	if m := webRolePattern.FindStringSubmatch(webText); m != nil {
		sections = append(sections, fmt.Sprintf("<role>\n你是一位%s，%s\n</role>", m[1], strings.TrimSpace(m[2])))
	}

	if m := webTaskPattern.FindStringSubmatch(webText); m != nil {
		content := starLinePrefix.ReplaceAllString(strings.TrimSpace(m[1]), "-")
		sections = append(sections, fmt.Sprintf("<task>\n你的任务是帮助用户完成以下目标：\n%s\n</task>", content))
	}

	if m := webInstructionsPattern.FindStringSubmatch(webText); m != nil {
		content := parenNumberedLine.ReplaceAllString(strings.TrimSpace(m[1]), "$1.")
		sections = append(sections, fmt.Sprintf("<instructions>\n%s\n</instructions>", content))
	}

	if m := webOutputPattern.FindStringSubmatch(webText); m != nil {
		sections = append(sections, fmt.Sprintf("<output_format>\n%s\n</output_format>", strings.TrimSpace(m[1])))
	}

	if m := webConstraintsPattern.FindStringSubmatch(webText); m != nil {
		sections = append(sections, fmt.Sprintf("<constraints>\n%s\n</constraints>", strings.TrimSpace(m[1])))
	}

	if m := webContextPattern.FindStringSubmatch(webText); m != nil {
		sections = append(sections, fmt.Sprintf("<context>\n%s\n</context>", strings.TrimSpace(m[1])))
	}

	return strings.Join(sections, "\n\n")
}
