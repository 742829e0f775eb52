package types

import (
	"time"
)

const (
	LockStateLocked   = "locked"
	LockStateUnlocked = "unlocked"
)

// DocumentLock is granted on checkout and consumed by the checkin that
// presents its LockID.
type DocumentLock struct {
	DocumentID  string `json:"documentId"`
	LockID      string `json:"lockId"`
	BaseVersion int    `json:"baseVersion"`
}

type DocumentVersion struct {
	Version        int       `json:"version"`
	Timestamp      time.Time `json:"timestamp"`
	CreatedBy      string    `json:"createdBy,omitempty"`
	ConflictCopyOf int       `json:"conflictCopyOf,omitempty"`
}

type LockStatus struct {
	LockStatus string `json:"lockStatus"`
	LockedBy   string `json:"lockedBy,omitempty"`
	Version    int    `json:"version"`
}

func (s LockStatus) IsLocked() bool {
	return s.LockStatus == LockStateLocked
}

// LatestVersion returns the highest version number of versions, or 0.
func LatestVersion(versions []DocumentVersion) int {
	latest := 0
	for _, v := range versions {
		if v.Version > latest {
			latest = v.Version
		}
	}
	return latest
}
