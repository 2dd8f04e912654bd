package usecase

import (
	"studyroom-backend/internal/accessdb"

	"github.com/pkg/errors"
)

var (
	// ErrExternalSystemUnavailable aborts a sync run; an error sync-log row is written.
	ErrExternalSystemUnavailable = accessdb.ErrExternalSystemUnavailable
	// ErrIdentityUnresolved and ErrApprovalBoundary are skip reasons, never failures.
	ErrIdentityUnresolved = errors.New("external identity not linked to a student")
	ErrApprovalBoundary   = errors.New("record precedes identity approval")
	ErrPersistence        = errors.New("persistence error")
	ErrLeaseHeld          = errors.New("another run holds the job lease")
	ErrStudentNotFound    = errors.New("student not found")
	ErrStudentIneligible  = errors.New("student has no student type or branch")
)
