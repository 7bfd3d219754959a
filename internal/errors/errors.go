// Package errors provides the error taxonomy shared by JARVIS components.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ============================================================
// Error Categories
// ============================================================

// Category defines the type of error for handling decisions.
type Category int

const (
	// CategoryTemporary errors may succeed later (network timeouts, 5xx)
	CategoryTemporary Category = iota

	// CategoryPermanent errors will not succeed as-is (bad request, not found)
	CategoryPermanent

	// CategoryUser errors are caused by caller input
	CategoryUser

	// CategorySystem errors are configuration or environment problems
	CategorySystem

	// CategoryRateLimit errors come from provider throttling
	CategoryRateLimit
)

// ============================================================
// AppError
// ============================================================

// AppError is the structured error returned by JARVIS components.
type AppError struct {
	// Code is a stable identifier for programmatic handling
	Code string

	// Message is a short human readable description
	Message string

	Category Category

	// Inner is the underlying error
	Inner error

	// Suggestions are hints shown to operators
	Suggestions []string

	// Context carries debugging key/values
	Context map[string]any

	// RetryAfter is the provider supplied backoff, if any
	RetryAfter time.Duration
}

// Error returns the error message.
func (e *AppError) Error() string {
	var sb strings.Builder

	if e.Code != "" {
		sb.WriteString("[")
		sb.WriteString(e.Code)
		sb.WriteString("] ")
	}

	sb.WriteString(e.Message)

	if e.Inner != nil {
		innerMsg := e.Inner.Error()
		if innerMsg != "" && innerMsg != e.Message {
			sb.WriteString(": ")
			sb.WriteString(innerMsg)
		}
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Inner
}

// New creates a new AppError.
func New(code, message string, category Category) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Category: category,
	}
}

// Wrap wraps err with a code and message. Returns nil for a nil err.
func Wrap(err error, code, message string, category Category) *AppError {
	if err == nil {
		return nil
	}

	wrapped := &AppError{
		Code:     code,
		Message:  message,
		Category: category,
		Inner:    err,
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		wrapped.Suggestions = appErr.Suggestions
		wrapped.Context = appErr.Context
	}

	return wrapped
}

// Temporary creates a temporary error.
func Temporary(code, message string) *AppError {
	return New(code, message, CategoryTemporary)
}

// RateLimit creates a rate limit error carrying the provider backoff.
func RateLimit(code, message string, retryAfter time.Duration) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Category:   CategoryRateLimit,
		RetryAfter: retryAfter,
		Suggestions: []string{
			fmt.Sprintf("Wait %s before sending more requests", retryAfter),
			"Check your provider quota",
		},
	}
}

// ============================================================
// Builder
// ============================================================

// Builder provides fluent error construction.
type Builder struct {
	err *AppError
}

// NewBuilder starts building a new error.
func NewBuilder(code, message string) *Builder {
	return &Builder{
		err: &AppError{
			Code:     code,
			Message:  message,
			Category: CategoryTemporary,
			Context:  make(map[string]any),
		},
	}
}

func (b *Builder) Temporary() *Builder {
	b.err.Category = CategoryTemporary
	return b
}

func (b *Builder) Permanent() *Builder {
	b.err.Category = CategoryPermanent
	return b
}

func (b *Builder) User() *Builder {
	b.err.Category = CategoryUser
	return b
}

func (b *Builder) System() *Builder {
	b.err.Category = CategorySystem
	return b
}

// Wrap sets the underlying error.
func (b *Builder) Wrap(err error) *Builder {
	b.err.Inner = err
	return b
}

// WithSuggestion adds a recovery suggestion.
func (b *Builder) WithSuggestion(suggestion string) *Builder {
	b.err.Suggestions = append(b.err.Suggestions, suggestion)
	return b
}

// WithContext adds debugging context.
func (b *Builder) WithContext(key string, value any) *Builder {
	b.err.Context[key] = value
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *AppError {
	return b.err
}

// ============================================================
// Error Codes
// ============================================================

const (
	// Model errors
	CodeModelUnavailable     = "MODEL_UNAVAILABLE"
	CodeModelTimeout         = "MODEL_TIMEOUT"
	CodeModelParseError      = "MODEL_PARSE_ERROR"
	CodeModelRateLimit       = "MODEL_RATE_LIMIT"
	CodeModelInvalidResponse = "MODEL_INVALID_RESPONSE"

	// Knowledge base errors
	CodeKnowledgeUnavailable = "KNOWLEDGE_UNAVAILABLE"
	CodeKnowledgeQuery       = "KNOWLEDGE_QUERY_FAILED"
	CodeKnowledgeIngest      = "KNOWLEDGE_INGEST_FAILED"

	// Specialist content errors
	CodeSkillNotFound   = "SKILL_NOT_FOUND"
	CodeSkillReadFailed = "SKILL_READ_FAILED"

	// Voice errors
	CodeVoiceUnavailable = "VOICE_UNAVAILABLE"
	CodeBrainUnreachable = "BRAIN_UNREACHABLE"

	// Config errors
	CodeConfigInvalid  = "CONFIG_INVALID"
	CodeConfigNotFound = "CONFIG_NOT_FOUND"

	// Validation errors
	CodeInvalidInput = "INVALID_INPUT"

	// Handler failures surfaced by the orchestrator
	CodeInternal = "INTERNAL"
)

// ============================================================
// Helpers
// ============================================================

// GetCategory extracts the category from an error.
// Returns CategoryTemporary for non-AppError errors.
func GetCategory(err error) Category {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Category
	}
	return CategoryTemporary
}

// GetCode returns the outermost AppError code, or "" if there is none.
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// FormatUserMessage formats an operator-facing message with suggestions.
func FormatUserMessage(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}

	var sb strings.Builder
	sb.WriteString(appErr.Message)
	if len(appErr.Suggestions) > 0 {
		sb.WriteString("\n\nSuggestions:")
		for _, s := range appErr.Suggestions {
			sb.WriteString("\n  - ")
			sb.WriteString(s)
		}
	}
	return sb.String()
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
