// Package errors defines the compiler's diagnostic taxonomy: the fail-fast
// ParseError, the batch-accumulated SemanticError list, and the terminal
// GeneratorError/ConfigError kinds bubbled up from the dispatch layer.
package errors

import (
	"fmt"
	"strings"

	"github.com/intentc/intentc/internal/lexer"
)

// Span is re-exported so callers outside the lexer package have one name
// for "where in the source this happened".
type Span = lexer.Span

// ParseError is a syntactic failure. The parser is fail-fast (§4.1): at
// most one ParseError is ever produced per compilation.
type ParseError struct {
	Span     Span
	Expected []string // grammatical alternatives the parser was prepared to accept
	Found    string
	Snippet  string // the source line the error occurred on, for caret rendering
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "parse error at line %d, column %d: found %s", e.Span.Line, e.Span.Column, e.Found)
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, ", expected one of: %s", strings.Join(e.Expected, ", "))
	}
	return b.String()
}

// SemanticKind enumerates the named SemanticError variants from §7.
type SemanticKind int

const (
	DuplicateName SemanticKind = iota
	UnknownReference
	TypeMismatch
	InvalidDecorator
	AuthEntityConflict
	PolicyViolation
	ProcessStepError
)

func (k SemanticKind) String() string {
	switch k {
	case DuplicateName:
		return "DuplicateName"
	case UnknownReference:
		return "UnknownReference"
	case TypeMismatch:
		return "TypeMismatch"
	case InvalidDecorator:
		return "InvalidDecorator"
	case AuthEntityConflict:
		return "AuthEntityConflict"
	case PolicyViolation:
		return "PolicyViolation"
	case ProcessStepError:
		return "ProcessStepError"
	default:
		return "Unknown"
	}
}

// SemanticError is a single validator diagnostic.
type SemanticError struct {
	Kind       SemanticKind
	Message    string
	Span       Span
	Suggestion string // e.g. "Did you mean 'User'?" (optional)
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("%s at line %d: %s", e.Kind, e.Span.Line, e.Message)
}

// SemanticErrors collects every diagnostic produced by a validator run. The
// validator does not fail fast: every pass appends to the same list so the
// user sees all problems from one invocation (§4.2, §9).
type SemanticErrors struct {
	errors []*SemanticError
}

// NewSemanticErrors creates an empty collection.
func NewSemanticErrors() *SemanticErrors {
	return &SemanticErrors{}
}

// Add appends one diagnostic.
func (se *SemanticErrors) Add(kind SemanticKind, span Span, message string) {
	se.errors = append(se.errors, &SemanticError{Kind: kind, Span: span, Message: message})
}

// AddWithSuggestion appends one diagnostic carrying a "did you mean" hint.
func (se *SemanticErrors) AddWithSuggestion(kind SemanticKind, span Span, message, suggestion string) {
	se.errors = append(se.errors, &SemanticError{Kind: kind, Span: span, Message: message, Suggestion: suggestion})
}

// HasErrors reports whether any diagnostic was collected.
func (se *SemanticErrors) HasErrors() bool {
	return len(se.errors) > 0
}

// All returns every collected diagnostic, in the order passes produced them.
func (se *SemanticErrors) All() []*SemanticError {
	return se.errors
}

// Format renders every diagnostic as a human-readable multiline string.
func (se *SemanticErrors) Format() string {
	var b strings.Builder
	for i, e := range se.errors {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "✗ %s", e.Error())
		if e.Suggestion != "" {
			fmt.Fprintf(&b, "\n  suggestion: %s", e.Suggestion)
		}
	}
	return b.String()
}

// GeneratorError is bubbled up from a target backend with no recovery
// policy beyond surfacing it (§7).
type GeneratorError struct {
	Target  string
	Message string
}

func (e *GeneratorError) Error() string {
	return fmt.Sprintf("generator error (target %q): %s", e.Target, e.Message)
}

// ConfigError covers an unknown --target or a missing required option.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Message)
}
