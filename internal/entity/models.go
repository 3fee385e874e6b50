package entity

import (
	"fmt"
	"time"

	"github.com/promptweaver/prompt-backend/internal/prompt"
)

// GenerationStep is the wizard position of a generation session
type GenerationStep int

const (
	StepInput      GenerationStep = 1 // capture free-text description
	StepAnalysis   GenerationStep = 2 // AI analysis of the description
	StepAdjustment GenerationStep = 3 // tag toggling and content editing
	StepResult     GenerationStep = 4 // assembled CLI/Web result
)

func (s GenerationStep) Validate() error {
	if s < StepInput || s > StepResult {
		return fmt.Errorf("unknown generation step: %d", s)
	}
	return nil
}

// GenerationSession is the mutable wizard state. It lives in memory only;
// nothing is persisted unless the user saves the result as a StoredPrompt.
type GenerationSession struct {
	ID          string                 `json:"session_id"`
	CurrentStep GenerationStep         `json:"current_step"`
	Description string                 `json:"description"`
	Analysis    *prompt.AnalysisResult `json:"analysis,omitempty"`
	Adjustments prompt.SectionSet      `json:"adjustments"`
	Result      *GenerationResult      `json:"result,omitempty"`
	Quality     *QualityCheckResult    `json:"quality,omitempty"`

	IsGenerating bool    `json:"is_generating"`
	Error        *string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GenerationResult holds both assembled dialects.
type GenerationResult struct {
	CliText string `json:"cli_text"`
	WebText string `json:"web_text"`
}

// PromptCategory classifies a stored prompt
type PromptCategory string

const (
	CategoryCoding      PromptCategory = "coding"
	CategoryWriting     PromptCategory = "writing"
	CategoryAcademic    PromptCategory = "academic"
	CategoryEducation   PromptCategory = "education"
	CategoryBusiness    PromptCategory = "business"
	CategoryTranslation PromptCategory = "translation"
	CategoryAnalysis    PromptCategory = "analysis"
	CategoryOther       PromptCategory = "other"
)

func (c PromptCategory) Validate() error {
	switch c {
	case CategoryCoding, CategoryWriting, CategoryAcademic, CategoryEducation,
		CategoryBusiness, CategoryTranslation, CategoryAnalysis, CategoryOther:
		return nil
	default:
		return fmt.Errorf("unknown prompt category: %s", c)
	}
}

// StoredPrompt is the durable entity wrapping an assembled prompt pair.
type StoredPrompt struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    PromptCategory `json:"category"`
	Tags        []string       `json:"tags"`
	CliText     string         `json:"cli_text"`
	WebText     string         `json:"web_text"`
	UsageCount  int            `json:"usage_count"`
	IsFavorite  bool           `json:"is_favorite"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ResultFormat names an export file format
type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatPDF      ResultFormat = "pdf"
	FormatDOCX     ResultFormat = "docx"
)

// PromptDialect selects which assembled text of a prompt to export
type PromptDialect string

const (
	DialectCli PromptDialect = "cli"
	DialectWeb PromptDialect = "web"
)

func (d PromptDialect) Validate() error {
	switch d {
	case DialectCli, DialectWeb:
		return nil
	default:
		return fmt.Errorf("unknown prompt dialect: %s", d)
	}
}

// AIProviderKind identifies a supported completion provider
type AIProviderKind string

const (
	ProviderAnthropic AIProviderKind = "anthropic"
	ProviderOpenAI    AIProviderKind = "openai"
	ProviderGoogle    AIProviderKind = "google"
	ProviderDeepSeek  AIProviderKind = "deepseek"
	ProviderCustom    AIProviderKind = "custom"
)

func (p AIProviderKind) Validate() error {
	switch p {
	case ProviderAnthropic, ProviderOpenAI, ProviderGoogle, ProviderDeepSeek, ProviderCustom:
		return nil
	default:
		return fmt.Errorf("unknown AI provider: %s", p)
	}
}

// ModelConfig is a stored provider configuration. The API key is kept
// encrypted at rest; plaintext exists only between decrypt and the wire call.
type ModelConfig struct {
	ID              string         `json:"id"`
	Provider        AIProviderKind `json:"provider"`
	APIKeyEncrypted string         `json:"-"`
	ModelID         string         `json:"model_id"`
	BaseURL         *string        `json:"base_url,omitempty"`
	Temperature     float64        `json:"temperature"`
	MaxTokens       int            `json:"max_tokens"`
	IsDefault       bool           `json:"is_default"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// QualityIssueCategory is one of the fixed rubric categories
type QualityIssueCategory string

const (
	IssueStructure    QualityIssueCategory = "structure"
	IssueSeparation   QualityIssueCategory = "separation"
	IssueBestPractice QualityIssueCategory = "bestPractice"
	IssueUsability    QualityIssueCategory = "usability"
	IssueScenario     QualityIssueCategory = "scenario"
)

// QualityIssueSeverity grades a quality issue
type QualityIssueSeverity string

const (
	SeverityError      QualityIssueSeverity = "error"
	SeverityWarning    QualityIssueSeverity = "warning"
	SeveritySuggestion QualityIssueSeverity = "suggestion"
)

// QualityIssue is a single finding of the quality check
type QualityIssue struct {
	Category QualityIssueCategory `json:"category"`
	Severity QualityIssueSeverity `json:"severity"`
	Tag      *prompt.Tag          `json:"tag,omitempty"`
	Message  string               `json:"message"`
	Fix      string               `json:"fix,omitempty"`
}

// QualityCheckResult is the rubric-scored review of an assembled prompt.
// It lives only for the duration of the session.
type QualityCheckResult struct {
	Passed  bool           `json:"passed"`
	Score   int            `json:"score"`
	Issues  []QualityIssue `json:"issues"`
	Summary string         `json:"summary"`
}
