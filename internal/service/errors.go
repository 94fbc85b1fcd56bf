package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrAssessmentNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "assessment")
}

func NewErrScreenshotNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "screenshot")
}

type ErrRunNotFound struct {
	error
}

// NewErrRunNotFound marks a progress poll for an id with no in-flight run.
func NewErrRunNotFound(id uuid.UUID) *ErrRunNotFound {
	return &ErrRunNotFound{fmt.Errorf("no in-flight run for assessment %s", id)}
}

type ErrInvalidSubmission struct {
	error
}

func NewErrInvalidSubmission(message string) *ErrInvalidSubmission {
	return &ErrInvalidSubmission{fmt.Errorf("bad request: %s", message)}
}

type ErrMetricsNotFound struct {
	error
}

func NewErrMetricsNotFound(id uuid.UUID) *ErrMetricsNotFound {
	return &ErrMetricsNotFound{fmt.Errorf("assessment %s has no metrics document", id)}
}
