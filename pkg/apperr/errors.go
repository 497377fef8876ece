package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed criteria, weights or request input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports an unknown session, criteria set, evaluation or document.
type NotFoundError struct {
	Resource string
	Id       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Id)
}

// ParseError reports a collaborator response that could not be decoded into
// the expected schema. Raw keeps the undecoded text for diagnosis.
type ParseError struct {
	Schema string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s response: %v", e.Schema, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CollaboratorError reports a failed or timed out call to the retrieval,
// language-model or embedding service.
type CollaboratorError struct {
	Collaborator string
	Timeout      bool
	Err          error
}

func (e *CollaboratorError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s call timed out: %v", e.Collaborator, e.Err)
	}
	return fmt.Sprintf("%s call failed: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// ExtractionError reports that text could not be extracted from an upload.
type ExtractionError struct {
	FileName string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %q: %v", e.FileName, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func Validation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func NotFound(resource string, id fmt.Stringer) error {
	return &NotFoundError{Resource: resource, Id: id.String()}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsParse(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

func IsCollaborator(err error) bool {
	var target *CollaboratorError
	return errors.As(err, &target)
}

func IsExtraction(err error) bool {
	var target *ExtractionError
	return errors.As(err, &target)
}
