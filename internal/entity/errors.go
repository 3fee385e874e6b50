package entity

import "errors"

// Domain errors
var (
	// Generation session errors
	ErrSessionNotFound     = errors.New("generation session not found")
	ErrSessionBusy         = errors.New("a generation request is already in progress for this session")
	ErrDescriptionTooShort = errors.New("description is too short")
	ErrNoAnalysis          = errors.New("session has no analysis result")
	ErrNoResult            = errors.New("session has no assembled result")

	// AI gateway errors
	ErrAINotConfigured = errors.New("no AI provider configured, set one up in settings first")
	ErrResponseParse   = errors.New("AI response parsing failed, please retry")

	// Stored prompt errors
	ErrPromptNotFound = errors.New("prompt not found")

	// Model config errors
	ErrModelConfigNotFound = errors.New("model configuration not found")
	ErrNoDefaultModel      = errors.New("no default model configuration")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)
