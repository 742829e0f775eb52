package coordinator

import "errors"

var (
	ErrLockUnavailable     = errors.New("document lock unavailable")
	ErrReadOnly            = errors.New("document is open read-only")
	ErrNotCheckedOut       = errors.New("document is not checked out")
	ErrOperationInProgress = errors.New("another write is in progress")
	ErrConflictPending     = errors.New("a version conflict must be resolved first")
	ErrNoConflict          = errors.New("no version conflict to resolve")
	ErrClosed              = errors.New("edit session closed")

	ErrVersionConflict   = errors.New("version conflict")
	ErrTransientFailure  = errors.New("temporary failure, retry later")
	ErrSubmissionFailure = errors.New("document submission rejected")
)
