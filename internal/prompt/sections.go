package prompt

import "fmt"

// Language selects the reply-language constraint of the assembled prompt
type Language string

const (
	LanguageZH Language = "zh"
	LanguageEN Language = "en"
)

func (l Language) Validate() error {
	switch l {
	case LanguageZH, LanguageEN:
		return nil
	default:
		return fmt.Errorf("unknown language: %s", l)
	}
}

// Constraint returns the fixed language constraint sentence.
func (l Language) Constraint() string {
	if l == LanguageEN {
		return "Reply in English"
	}
	return "使用简体中文回复"
}

// OutputStyle selects the tone of the assembled prompt
type OutputStyle string

const (
	StyleProfessional OutputStyle = "professional"
	StyleFriendly     OutputStyle = "friendly"
	StyleAcademic     OutputStyle = "academic"
)

func (s OutputStyle) Validate() error {
	switch s {
	case StyleProfessional, StyleFriendly, StyleAcademic:
		return nil
	default:
		return fmt.Errorf("unknown output style: %s", s)
	}
}

// Tone returns the fixed tone/manner phrase pair for a style.
func (s OutputStyle) Tone() (tone, manner string) {
	switch s {
	case StyleFriendly:
		return "友好、亲切", "耐心解答，通俗易懂"
	case StyleAcademic:
		return "学术、规范", "引经据典，论证严密"
	default:
		return "专业、严谨", "客观分析，逻辑清晰"
	}
}

// AnalysisResult is the structured outcome of the intent-analysis step.
type AnalysisResult struct {
	RoleIdentification   string   `json:"roleIdentification"`
	RoleDescription      string   `json:"roleDescription,omitempty"`
	TaskGoals            []string `json:"taskGoals"`
	RecommendedTemplates []string `json:"recommendedTemplates,omitempty"`
	SuggestedTags        []Tag    `json:"suggestedTags"`
}

// SectionSet is the per-session selection of tags plus their content
// candidates. Content resolution precedence is custom > generated > default.
type SectionSet struct {
	EnabledTags []Tag       `json:"enabled_tags"`
	Language    Language    `json:"language"`
	OutputStyle OutputStyle `json:"output_style"`

	// Generated holds the raw AI-produced content, Custom the user-edited
	// overrides. Generated is never mutated by edits so the "modified"
	// indicator (Generated[tag] != Custom[tag]) stays meaningful.
	Generated map[Tag]string `json:"generated_tag_content"`
	Custom    map[Tag]string `json:"custom_tag_content"`
}

// NewSectionSet returns the default adjustment state of a fresh session.
func NewSectionSet() SectionSet {
	return SectionSet{
		EnabledTags: []Tag{TagRole, TagTask, TagThinking, TagInstructions, TagOutputFormat, TagConstraints},
		Language:    LanguageZH,
		OutputStyle: StyleProfessional,
		Generated:   map[Tag]string{},
		Custom:      map[Tag]string{},
	}
}

// Enabled reports whether tag is currently in the enabled set.
func (s *SectionSet) Enabled(tag Tag) bool {
	for _, t := range s.EnabledTags {
		if t == tag {
			return true
		}
	}
	return false
}

// Toggle flips membership of tag in the enabled set. A tag can never appear
// twice: toggling an enabled tag removes it, toggling an absent tag appends it.
func (s *SectionSet) Toggle(tag Tag) {
	for i, t := range s.EnabledTags {
		if t == tag {
			s.EnabledTags = append(s.EnabledTags[:i:i], s.EnabledTags[i+1:]...)
			return
		}
	}
	s.EnabledTags = append(s.EnabledTags, tag)
}

// Resolve returns the current content for tag: the custom override if set,
// else the generated content, else the supplied default.
func (s *SectionSet) Resolve(tag Tag, defaultContent string) string {
	if v, ok := s.Custom[tag]; ok && v != "" {
		return v
	}
	if v, ok := s.Generated[tag]; ok && v != "" {
		return v
	}
	return defaultContent
}

// Section is one resolved {tag, content} pair.
type Section struct {
	Tag     Tag    `json:"tag"`
	Content string `json:"content"`
}

// Sections returns the ordered non-empty sections of the set, resolving each
// enabled tag against defaults. Order follows the canonical tag ordering, not
// the order tags were enabled.
func (s *SectionSet) Sections(defaults map[Tag]string) []Section {
	out := make([]Section, 0, len(s.EnabledTags))
	for _, tag := range AllTags {
		if !s.Enabled(tag) {
			continue
		}
		content := s.Resolve(tag, defaults[tag])
		if content == "" {
			continue
		}
		out = append(out, Section{Tag: tag, Content: content})
	}
	return out
}
