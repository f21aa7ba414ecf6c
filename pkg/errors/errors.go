// Package errors defines the typed failures surfaced by viewkit.
//
// Every failure raised by the resolution and compilation layer is a
// *ViewError with one of a small set of types. Callers branch on the type
// with the Is* helpers or with the standard errors.Is against the exported
// sentinels; the underlying engine or filesystem cause stays reachable
// through errors.Unwrap.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeIO          ErrorType = "io"
	ErrorTypeCompilation ErrorType = "compilation"
	ErrorTypeProvider    ErrorType = "provider"
	ErrorTypeRender      ErrorType = "render"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeInternal    ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeTemplateNotFound    = "ERR_TEMPLATE_NOT_FOUND"
	ErrCodeTemplateIO          = "ERR_TEMPLATE_IO"
	ErrCodeTemplateCompilation = "ERR_TEMPLATE_COMPILATION"
	ErrCodeNoProvider          = "ERR_NO_PROVIDER_AVAILABLE"
	ErrCodeUnknownProvider     = "ERR_UNKNOWN_PROVIDER"
	ErrCodeRenderFailed        = "ERR_RENDER_FAILED"
	ErrCodeReadOnly            = "ERR_READ_ONLY"
	ErrCodeConfigInvalid       = "ERR_CONFIG_INVALID"
	ErrCodeInternalError       = "ERR_INTERNAL"
)

// Sentinels for use with errors.Is. A *ViewError matches a sentinel when
// both type and code agree.
var (
	ErrTemplateNotFound = &ViewError{
		Type: ErrorTypeNotFound,
		Code: ErrCodeTemplateNotFound,
	}
	ErrTemplateIO = &ViewError{
		Type: ErrorTypeIO,
		Code: ErrCodeTemplateIO,
	}
	ErrTemplateCompilation = &ViewError{
		Type: ErrorTypeCompilation,
		Code: ErrCodeTemplateCompilation,
	}
	ErrNoProviderAvailable = &ViewError{
		Type: ErrorTypeProvider,
		Code: ErrCodeNoProvider,
	}
)

// ViewError is a structured error type with context.
type ViewError struct {
	Type    ErrorType
	Code    string
	Message string
	// Name is the logical template name, when one is known.
	Name string
	// Location is the resolved resource location, when one is known.
	Location string
	// Tried lists provider names in the order they were probed.
	Tried   []string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *ViewError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Name != "" && e.Name != e.Location {
		parts = append(parts, "template:"+e.Name)
	}

	if e.Location != "" {
		parts = append(parts, e.Location)
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if len(e.Tried) > 0 {
		parts = append(parts, "(tried: "+strings.Join(e.Tried, ", ")+")")
	}

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *ViewError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *ViewError) Is(target error) bool {
	var t *ViewError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *ViewError) WithContext(key string, value interface{}) *ViewError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithName attaches the logical template name.
func (e *ViewError) WithName(name string) *ViewError {
	e.Name = name

	return e
}

// TemplateNotFound reports that location exists in no configured source.
// The location is the resolved one, not the logical name.
func TemplateNotFound(location string) *ViewError {
	return &ViewError{
		Type:     ErrorTypeNotFound,
		Code:     ErrCodeTemplateNotFound,
		Message:  "template not found",
		Location: location,
	}
}

// TemplateIO reports that location exists but could not be opened or read.
func TemplateIO(location string, cause error) *ViewError {
	return &ViewError{
		Type:     ErrorTypeIO,
		Code:     ErrCodeTemplateIO,
		Message:  "failed to read template",
		Location: location,
		Cause:    cause,
	}
}

// TemplateCompilation reports that an engine rejected the template name.
func TemplateCompilation(name, location string, cause error) *ViewError {
	return &ViewError{
		Type:     ErrorTypeCompilation,
		Code:     ErrCodeTemplateCompilation,
		Message:  "failed to compile template",
		Name:     name,
		Location: location,
		Cause:    cause,
	}
}

// NoProviderAvailable reports that none of the tried providers could be
// selected. cause usually aggregates the individual probe failures.
func NoProviderAvailable(tried []string, cause error) *ViewError {
	return &ViewError{
		Type:    ErrorTypeProvider,
		Code:    ErrCodeNoProvider,
		Message: "no template engine provider available",
		Tried:   append([]string(nil), tried...),
		Cause:   cause,
	}
}

// UnknownProvider reports a pinned provider name that is not registered.
func UnknownProvider(name string, known []string) *ViewError {
	return &ViewError{
		Type:    ErrorTypeProvider,
		Code:    ErrCodeUnknownProvider,
		Message: fmt.Sprintf("unknown template engine provider %q", name),
		Tried:   append([]string(nil), known...),
	}
}

// Render reports a failure while executing a compiled template.
func Render(name string, cause error) *ViewError {
	return &ViewError{
		Type:    ErrorTypeRender,
		Code:    ErrCodeRenderFailed,
		Message: "failed to render template",
		Name:    name,
		Cause:   cause,
	}
}

// ReadOnly reports an attempted write to an immutable view.
func ReadOnly(what string) *ViewError {
	return &ViewError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeReadOnly,
		Message: what + " is read-only",
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *ViewError {
	return &ViewError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *ViewError {
	return &ViewError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsNotFound checks if an error is a Template-Not-Found failure.
func IsNotFound(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// IsIO checks if an error is a Template-IO failure.
func IsIO(err error) bool {
	return hasType(err, ErrorTypeIO)
}

// IsCompilation checks if an error is a Template-Compilation failure.
func IsCompilation(err error) bool {
	return hasType(err, ErrorTypeCompilation)
}

// IsNoProvider checks if an error is a No-Provider-Available failure.
func IsNoProvider(err error) bool {
	var ve *ViewError
	if errors.As(err, &ve) {
		return ve.Type == ErrorTypeProvider && ve.Code == ErrCodeNoProvider
	}

	return false
}

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	return hasType(err, ErrorTypeConfig)
}

// LocationOf returns the resolved location carried by the first ViewError in
// the chain that has one.
func LocationOf(err error) string {
	for err != nil {
		var ve *ViewError
		if !errors.As(err, &ve) {
			return ""
		}
		if ve.Location != "" {
			return ve.Location
		}
		err = ve.Cause
	}

	return ""
}

// hasType reports whether the outermost ViewError in the chain has type t.
func hasType(err error, t ErrorType) bool {
	var ve *ViewError
	if errors.As(err, &ve) {
		return ve.Type == t
	}

	return false
}
