// Package errors defines the error taxonomy used across the reporting
// pipeline.
//
// Errors carry a category, a specific code, an optional suggestion and a
// context map so that callers (most importantly the CLI) can distinguish
// failure classes without matching on message strings. The fatal conditions
// named by the pipeline contract (missing data root, empty period, missing
// required reference table, exhausted directory resolution) each map to a
// dedicated code.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryResolution    ErrorCategory = "resolution"
	CategoryReference     ErrorCategory = "reference"
	CategoryExport        ErrorCategory = "export"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeDirectoryError ErrorCode = "directory_error"
	CodeEmptyPeriod    ErrorCode = "empty_period"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidDate   ErrorCode = "invalid_date"

	// Resolution errors
	CodeRootMissing        ErrorCode = "root_missing"
	CodeHintNotFound       ErrorCode = "hint_not_found"
	CodeNoPeriodCandidates ErrorCode = "no_period_candidates"

	// Reference errors
	CodeReferenceMissing ErrorCode = "reference_missing"
	CodeReferenceEmpty   ErrorCode = "reference_empty"

	// Export errors
	CodeWorkbookWrite ErrorCode = "workbook_write"
	CodeSheetBuild    ErrorCode = "sheet_build"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ReportError is the base error type for all application errors
type ReportError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ReportError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ReportError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *ReportError) GetExitCode() int {
	switch e.Category {
	case CategoryFile, CategoryResolution:
		return 2
	case CategoryParse:
		return 3
	case CategoryReference:
		return 4
	case CategoryConfiguration:
		return 5
	case CategoryExport, CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ReportError) WithContext(key string, value interface{}) *ReportError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ReportError) WithSuggestion(suggestion string) *ReportError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ReportError
func New(category ErrorCategory, code ErrorCode, message string) *ReportError {
	return &ReportError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ReportError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ReportError {
	if err == nil {
		return nil
	}

	return &ReportError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *ReportError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeDirectoryError:
		message = fmt.Sprintf("directory error: %s", path)
		suggestion = "ensure the directory exists and is accessible"
	case CodeEmptyPeriod:
		message = fmt.Sprintf("no daily trial balance files found in: %s", path)
		suggestion = "verify the period directory contains extract files named MM-DD-YYYY"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *ReportError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("path", path)
}

// ParseError creates a parsing-related error
func ParseError(code ErrorCode, file string, line int, column string, value string, err error) *ReportError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in file %s at line %d, column '%s': '%s'", file, line, column, value)
		suggestion = "check the data format and ensure it matches the expected structure"
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in file %s", column, file)
		suggestion = "verify the file has all required columns with correct headers"
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in file %s at line %d, column '%s': '%s'", file, line, column, value)
		suggestion = "ensure amounts are valid decimal numbers (e.g., '12.34')"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in file %s at line %d, column '%s': '%s'", file, line, column, value)
		suggestion = "use date format MM-DD-YYYY for daily extract file names"
	default:
		message = fmt.Sprintf("parse error in file %s at line %d", file, line)
		suggestion = "check the file format and data integrity"
	}

	var result *ReportError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("line", line).
		WithContext("column", column)
}

// ResolutionError creates a directory-resolution error. The attempted paths
// are joined into the message so the failure names everything that was tried.
func ResolutionError(code ErrorCode, attempted []string, err error) *ReportError {
	var message string
	var suggestion string

	trail := strings.Join(attempted, ", ")

	switch code {
	case CodeRootMissing:
		message = fmt.Sprintf("data root does not exist: %s", trail)
		suggestion = "check the --data-root flag or the data_path config entry"
	case CodeHintNotFound:
		message = fmt.Sprintf("configured period path does not exist: %s", trail)
		suggestion = "fix the configured data path or remove it to enable auto-detection"
	case CodeNoPeriodCandidates:
		message = fmt.Sprintf("no period directories found, tried: %s", trail)
		suggestion = "ensure the data root contains year/month subdirectories"
	default:
		message = fmt.Sprintf("could not resolve period directory, tried: %s", trail)
		suggestion = "check the data directory layout"
	}

	var result *ReportError
	if err != nil {
		result = Wrap(err, CategoryResolution, code, message)
	} else {
		result = New(CategoryResolution, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("attempted_paths", attempted)
}

// ReferenceError creates a reference-store error
func ReferenceError(code ErrorCode, table string, path string, err error) *ReportError {
	var message string
	var suggestion string

	switch code {
	case CodeReferenceMissing:
		message = fmt.Sprintf("reference table '%s' not found under: %s", table, path)
		suggestion = "ensure the references directory contains a folder for this table with at least one file"
	case CodeReferenceEmpty:
		message = fmt.Sprintf("reference table '%s' has no usable files in: %s", table, path)
		suggestion = "add a CSV or XLSX version of the reference table"
	default:
		message = fmt.Sprintf("reference table '%s' error: %s", table, path)
		suggestion = "check the reference store layout"
	}

	var result *ReportError
	if err != nil {
		result = Wrap(err, CategoryReference, code, message)
	} else {
		result = New(CategoryReference, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("table", table).
		WithContext("path", path)
}

// ExportError creates a workbook-export error
func ExportError(code ErrorCode, target string, err error) *ReportError {
	var message string
	var suggestion string

	switch code {
	case CodeWorkbookWrite:
		message = fmt.Sprintf("failed to write workbook: %s", target)
		suggestion = "check the output directory exists and is writable"
	case CodeSheetBuild:
		message = fmt.Sprintf("failed to build sheet in workbook: %s", target)
		suggestion = "check the report data for invalid sheet or cell content"
	default:
		message = fmt.Sprintf("export error: %s", target)
		suggestion = "check the output location and try again"
	}

	var result *ReportError
	if err != nil {
		result = Wrap(err, CategoryExport, code, message)
	} else {
		result = New(CategoryExport, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("target", target)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *ReportError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *ReportError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *ReportError {
	message := fmt.Sprintf("internal error during %s", operation)

	var result *ReportError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// IsReportError checks if an error is a ReportError
func IsReportError(err error) bool {
	_, ok := err.(*ReportError)
	return ok
}

// AsReportError extracts a ReportError from an error chain
func AsReportError(err error) (*ReportError, bool) {
	var reportErr *ReportError
	if errors.As(err, &reportErr) {
		return reportErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given taxonomy code.
func HasCode(err error, code ErrorCode) bool {
	if reportErr, ok := AsReportError(err); ok {
		return reportErr.Code == code
	}
	return false
}
