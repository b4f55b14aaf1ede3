package model

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind string

const (
	ErrorKindMissingCredential     ErrorKind = "missing_credential"
	ErrorKindTranscriptUnavailable ErrorKind = "transcript_unavailable"
	ErrorKindCompletionBackend     ErrorKind = "completion_backend_error"
	ErrorKindUnparsableModelOutput ErrorKind = "unparsable_model_output"
	ErrorKindInvalidRequest        ErrorKind = "invalid_request"
)

// WorkflowError is the terminal failure of a run. Message is what the user
// sees; Err keeps the underlying cause for logs and errors.Is/As.
type WorkflowError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func NewWorkflowError(kind ErrorKind, message string, err error) *WorkflowError {
	return &WorkflowError{Kind: kind, Message: message, Err: err}
}

func (e *WorkflowError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// KindOf reports the ErrorKind carried by err, or "" when err is not a WorkflowError.
func KindOf(err error) ErrorKind {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr.Kind
	}
	return ""
}

// HTTPStatusError is returned by both backends on a non-2xx reply.
type HTTPStatusError struct {
	Service    string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d", e.StatusCode)
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s failed: %s", e.Service, status)
	}
	return fmt.Sprintf("%s failed: %s - %s", e.Service, status, body)
}
