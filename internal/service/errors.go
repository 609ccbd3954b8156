package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id string, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrProjectNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id.String(), "project")
}

func NewErrCohortNotFound(id string) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "cohort")
}

func NewErrWaveNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id.String(), "wave")
}

func NewErrVMNotFound(id string) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "vm")
}

type ErrInvalidRequest struct {
	error
}

func NewErrInvalidRequest(format string, args ...any) *ErrInvalidRequest {
	return &ErrInvalidRequest{fmt.Errorf(format, args...)}
}

type ErrNoSnapshot struct {
	error
}

func NewErrNoSnapshot(projectID uuid.UUID) *ErrNoSnapshot {
	return &ErrNoSnapshot{fmt.Errorf("project %s has no inventory snapshot", projectID)}
}

// ErrConflict is returned when the request collides with the current plan
// state: a stale version, a taken name or records past the editable stage.
type ErrConflict struct {
	error
}

func NewErrConflict(format string, args ...any) *ErrConflict {
	return &ErrConflict{fmt.Errorf(format, args...)}
}

func NewErrStaleVersion(resourceType, id string) *ErrConflict {
	return NewErrConflict("%s %s was modified by another request", resourceType, id)
}

func NewErrProjectExists(name string) *ErrConflict {
	return NewErrConflict("project %q already exists", name)
}

type ErrExportUnavailable struct {
	error
}

func NewErrExportUnavailable() *ErrExportUnavailable {
	return &ErrExportUnavailable{fmt.Errorf("object storage is not configured")}
}
