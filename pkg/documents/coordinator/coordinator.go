// Package coordinator drives one document edit session: checkout, checkin
// with optimistic version checks, conflict resolution and lock status
// polling.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	doctypes "github.com/case-framework/records-portal/pkg/documents/types"
	httpclient "github.com/case-framework/records-portal/pkg/http-client"
	"github.com/case-framework/records-portal/pkg/metrics"
	recordsclient "github.com/case-framework/records-portal/pkg/records-client"
	"github.com/case-framework/records-portal/pkg/session"
)

type State string

const (
	STATE_IDLE             State = "idle"
	STATE_READ_ONLY        State = "read_only"
	STATE_EDITING          State = "editing"
	STATE_SAVING           State = "saving"
	STATE_CONFLICT_PENDING State = "conflict_pending"
	STATE_SAVED            State = "saved"
	STATE_CLOSED           State = "closed"
)

type Outcome string

const (
	OUTCOME_SUCCESS   Outcome = "success"
	OUTCOME_CONFLICT  Outcome = "conflict"
	OUTCOME_FAILED    Outcome = "failed"
	OUTCOME_DISCARDED Outcome = "discarded"
)

const (
	DefaultPollInterval   = 30 * time.Second
	defaultReleaseTimeout = 5 * time.Second
	defaultContentType    = "application/pdf"
)

// DocumentBackend is the part of the records API an edit session uses.
type DocumentBackend interface {
	Checkout(ctx context.Context, sess *session.Context, documentID string) (doctypes.DocumentLock, error)
	GetStatus(ctx context.Context, sess *session.Context, documentID string) (doctypes.LockStatus, error)
	Checkin(ctx context.Context, sess *session.Context, req recordsclient.CheckinRequest) (doctypes.DocumentVersion, error)
	ReleaseLock(ctx context.Context, sess *session.Context, documentID string, lockID string) error
}

type Options struct {
	PollInterval time.Duration
	ContentType  string
	// OnSaved is called after a successful checkin with the saved content.
	OnSaved func(content []byte, version doctypes.DocumentVersion)
	Now     func() time.Time
}

type SaveResult struct {
	Outcome Outcome                   `json:"outcome"`
	Version *doctypes.DocumentVersion `json:"version,omitempty"`
}

type StatusSnapshot struct {
	Known       bool                `json:"known"`
	Status      doctypes.LockStatus `json:"status"`
	LastUpdated time.Time           `json:"lastUpdated"`
}

type Snapshot struct {
	DocumentID          string                 `json:"documentId"`
	State               State                  `json:"state"`
	Lock                *doctypes.DocumentLock `json:"lock,omitempty"`
	HasPendingEdits     bool                   `json:"hasPendingEdits"`
	ConflictBaseVersion int                    `json:"conflictBaseVersion,omitempty"`
	InFlight            bool                   `json:"inFlight"`
	LockStatus          StatusSnapshot         `json:"lockStatus"`
	LastError           string                 `json:"lastError,omitempty"`
}

type Coordinator struct {
	backend      DocumentBackend
	sess         *session.Context
	documentID   string
	contentType  string
	pollInterval time.Duration
	onSaved      func(content []byte, version doctypes.DocumentVersion)
	now          func() time.Time

	mu             sync.Mutex
	state          State
	lock           *doctypes.DocumentLock
	pendingContent []byte
	inFlight       bool
	generation     uint64
	status         StatusSnapshot
	lastError      error

	stopPolling context.CancelFunc
	pollDone    chan struct{}
}

func NewCoordinator(backend DocumentBackend, sess *session.Context, documentID string, opts Options) *Coordinator {
	c := &Coordinator{
		backend:      backend,
		sess:         sess,
		documentID:   documentID,
		contentType:  opts.ContentType,
		pollInterval: opts.PollInterval,
		onSaved:      opts.OnSaved,
		now:          opts.Now,
		state:        STATE_IDLE,
	}
	if c.contentType == "" {
		c.contentType = defaultContentType
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

func (c *Coordinator) DocumentID() string {
	return c.documentID
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		DocumentID:      c.documentID,
		State:           c.state,
		HasPendingEdits: len(c.pendingContent) > 0,
		InFlight:        c.inFlight,
		LockStatus:      c.status,
	}
	if c.lock != nil {
		l := *c.lock
		s.Lock = &l
		if c.state == STATE_CONFLICT_PENDING {
			s.ConflictBaseVersion = l.BaseVersion
		}
	}
	if c.lastError != nil {
		s.LastError = c.lastError.Error()
	}
	return s
}

// Checkout acquires the edit lock. Any failure leaves the session read-only.
func (c *Coordinator) Checkout(ctx context.Context) (doctypes.DocumentLock, error) {
	c.mu.Lock()
	if c.state == STATE_CLOSED {
		c.mu.Unlock()
		return doctypes.DocumentLock{}, ErrClosed
	}
	if c.lock != nil {
		l := *c.lock
		c.mu.Unlock()
		return l, nil
	}
	if c.inFlight {
		c.mu.Unlock()
		return doctypes.DocumentLock{}, ErrOperationInProgress
	}
	if !c.sess.IsAuthenticated(c.now()) {
		c.state = STATE_READ_ONLY
		c.lastError = session.ErrNotAuthenticated
		c.mu.Unlock()
		metrics.CountCheckout("unauthenticated")
		return doctypes.DocumentLock{}, fmt.Errorf("%w: %w", ErrLockUnavailable, session.ErrNotAuthenticated)
	}
	c.inFlight = true
	gen := c.generation
	c.mu.Unlock()

	lock, err := c.backend.Checkout(ctx, c.sess, c.documentID)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		slog.Debug("checkout response after close ignored", slog.String("documentID", c.documentID))
		if err == nil {
			c.releaseLock(ctx, lock.LockID)
		}
		return doctypes.DocumentLock{}, ErrClosed
	}
	defer c.mu.Unlock()
	c.inFlight = false

	if err != nil {
		slog.Error("document checkout failed", slog.String("documentID", c.documentID), slog.String("error", err.Error()))
		c.state = STATE_READ_ONLY
		c.lastError = err
		metrics.CountCheckout("unavailable")
		return doctypes.DocumentLock{}, fmt.Errorf("%w: %s", ErrLockUnavailable, err.Error())
	}

	lock.DocumentID = c.documentID
	c.lock = &lock
	c.state = STATE_EDITING
	c.lastError = nil
	metrics.CountCheckout("success")
	slog.Info("document checked out", slog.String("documentID", c.documentID), slog.Int("baseVersion", lock.BaseVersion))
	return lock, nil
}

// Save checks in content against the base version of the held lock. A
// conflict halts the session until ResolveConflict is called.
func (c *Coordinator) Save(ctx context.Context, content []byte) (SaveResult, error) {
	c.mu.Lock()
	if err := c.writePreconditions(); err != nil {
		c.mu.Unlock()
		return SaveResult{}, err
	}
	if c.state == STATE_CONFLICT_PENDING {
		c.mu.Unlock()
		return SaveResult{}, ErrConflictPending
	}
	c.inFlight = true
	c.state = STATE_SAVING
	lock := *c.lock
	gen := c.generation
	c.mu.Unlock()

	req := recordsclient.CheckinRequest{
		DocumentID:  c.documentID,
		LockID:      lock.LockID,
		BaseVersion: lock.BaseVersion,
		Content:     content,
		ContentType: c.contentType,
	}
	version, err := c.backend.Checkin(ctx, c.sess, req)
	return c.finishCheckin(gen, content, version, err, STATE_EDITING)
}

// ResolveConflict applies the user's decision for a pending conflict.
func (c *Coordinator) ResolveConflict(ctx context.Context, resolution doctypes.ConflictResolution) (SaveResult, error) {
	c.mu.Lock()
	if err := c.writePreconditions(); err != nil {
		c.mu.Unlock()
		return SaveResult{}, err
	}
	if c.state != STATE_CONFLICT_PENDING {
		c.mu.Unlock()
		return SaveResult{}, ErrNoConflict
	}

	switch resolution {
	case doctypes.ResolutionDiscard:
		c.pendingContent = nil
		c.state = STATE_EDITING
		c.lastError = nil
		c.mu.Unlock()
		metrics.CountConflictResolution(string(resolution))
		slog.Info("local edits discarded after conflict", slog.String("documentID", c.documentID))
		return SaveResult{Outcome: OUTCOME_DISCARDED}, nil
	case doctypes.ResolutionKeepMine, doctypes.ResolutionSaveBoth:
	default:
		c.mu.Unlock()
		return SaveResult{}, doctypes.ErrUnknownResolution
	}

	c.inFlight = true
	c.state = STATE_SAVING
	lock := *c.lock
	content := c.pendingContent
	gen := c.generation
	c.mu.Unlock()
	metrics.CountConflictResolution(string(resolution))

	req := recordsclient.CheckinRequest{
		DocumentID:  c.documentID,
		LockID:      lock.LockID,
		BaseVersion: lock.BaseVersion,
		Content:     content,
		ContentType: c.contentType,
	}

	status, err := c.backend.GetStatus(ctx, c.sess, c.documentID)
	if err != nil {
		slog.Error("could not read latest version for conflict resolution", slog.String("documentID", c.documentID), slog.String("error", err.Error()))
		return c.finishCheckin(gen, content, doctypes.DocumentVersion{}, err, STATE_CONFLICT_PENDING)
	}
	c.updateStatus(gen, status)

	// The held lock expired or was consumed while the document moved on.
	if !status.IsLocked() {
		relock, err := c.backend.Checkout(ctx, c.sess, c.documentID)
		if err != nil {
			slog.Error("could not reacquire lock for conflict resolution", slog.String("documentID", c.documentID), slog.String("error", err.Error()))
			return c.finishCheckin(gen, content, doctypes.DocumentVersion{}, err, STATE_CONFLICT_PENDING)
		}
		if !c.replaceLockID(gen, relock.LockID) {
			c.releaseLock(ctx, relock.LockID)
			return SaveResult{}, ErrClosed
		}
		req.LockID = relock.LockID
		status.Version = relock.BaseVersion
	}

	if resolution == doctypes.ResolutionKeepMine {
		req.BaseVersion = status.Version
	} else {
		req.SaveBoth = true
	}

	version, err := c.backend.Checkin(ctx, c.sess, req)
	return c.finishCheckin(gen, content, version, err, STATE_CONFLICT_PENDING)
}

func (c *Coordinator) writePreconditions() error {
	switch {
	case c.state == STATE_CLOSED:
		return ErrClosed
	case c.state == STATE_READ_ONLY:
		return ErrReadOnly
	case c.inFlight:
		return ErrOperationInProgress
	case c.lock == nil:
		return ErrNotCheckedOut
	}
	return nil
}

// finishCheckin applies a checkin result. failState is where the session
// goes on a non-conflict failure.
func (c *Coordinator) finishCheckin(gen uint64, content []byte, version doctypes.DocumentVersion, err error, failState State) (SaveResult, error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		slog.Debug("checkin response after close ignored", slog.String("documentID", c.documentID))
		return SaveResult{}, ErrClosed
	}
	c.inFlight = false

	if err == nil {
		c.lock = nil
		c.pendingContent = nil
		c.state = STATE_SAVED
		c.lastError = nil
		onSaved := c.onSaved
		c.mu.Unlock()

		metrics.CountCheckin("success")
		slog.Info("document checked in", slog.String("documentID", c.documentID), slog.Int("version", version.Version))
		if onSaved != nil {
			onSaved(content, version)
		}
		return SaveResult{Outcome: OUTCOME_SUCCESS, Version: &version}, nil
	}
	defer c.mu.Unlock()

	c.pendingContent = content
	c.lastError = err
	if httpclient.IsConflict(err) {
		c.state = STATE_CONFLICT_PENDING
		metrics.CountCheckin("conflict")
		slog.Warn("document checkin rejected with version conflict", slog.String("documentID", c.documentID), slog.String("error", err.Error()))
		return SaveResult{Outcome: OUTCOME_CONFLICT}, fmt.Errorf("%w: %s", ErrVersionConflict, err.Error())
	}

	c.state = failState
	metrics.CountCheckin("failed")
	slog.Error("document checkin failed", slog.String("documentID", c.documentID), slog.String("error", err.Error()))
	if httpclient.IsTransient(err) {
		return SaveResult{Outcome: OUTCOME_FAILED}, fmt.Errorf("%w: %s", ErrTransientFailure, err.Error())
	}
	return SaveResult{Outcome: OUTCOME_FAILED}, fmt.Errorf("%w: %s", ErrSubmissionFailure, err.Error())
}

// Close ends the session: polling stops, an unused lock is released and
// responses still in flight no longer change anything.
func (c *Coordinator) Close(ctx context.Context) {
	c.mu.Lock()
	if c.state == STATE_CLOSED {
		c.mu.Unlock()
		return
	}
	c.generation++
	c.state = STATE_CLOSED
	var toRelease *doctypes.DocumentLock
	if c.lock != nil && !c.inFlight {
		toRelease = c.lock
	}
	c.lock = nil
	c.pendingContent = nil
	c.inFlight = false
	stop := c.stopPolling
	done := c.pollDone
	c.stopPolling = nil
	c.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}

	if toRelease != nil {
		c.releaseLock(ctx, toRelease.LockID)
	}
}

// replaceLockID swaps in a reacquired lock and keeps the conflict base
// version. It reports false once the session was closed.
func (c *Coordinator) replaceLockID(gen uint64, lockID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || c.lock == nil {
		return false
	}
	c.lock.LockID = lockID
	return true
}

func (c *Coordinator) releaseLock(ctx context.Context, lockID string) {
	releaseCtx, cancel := context.WithTimeout(ctx, defaultReleaseTimeout)
	defer cancel()
	if err := c.backend.ReleaseLock(releaseCtx, c.sess, c.documentID, lockID); err != nil {
		slog.Warn("could not release document lock", slog.String("documentID", c.documentID), slog.String("error", err.Error()))
	}
}
