package records

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrDocumentLocked     = errors.New("document is locked by another user")
	ErrLockMismatch       = errors.New("lock id does not match the active lock")
	ErrVersionConflict    = errors.New("base version is not the current version")
	ErrInvalidBaseVersion = errors.New("base version is newer than the current version")
	ErrAccountExists      = errors.New("account already exists")
)

type PaginationInfos struct {
	TotalCount  int64 `json:"totalCount"`
	CurrentPage int64 `json:"currentPage"`
	TotalPages  int64 `json:"totalPages"`
	PageSize    int64 `json:"pageSize"`
}

// prepPaginationInfos clamps page to the last existing page.
func prepPaginationInfos(totalCount int64, page int64, limit int64) *PaginationInfos {
	if limit < 1 {
		limit = 1
	}
	totalPages := (totalCount + limit - 1) / limit
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return &PaginationInfos{
		TotalCount:  totalCount,
		CurrentPage: page,
		TotalPages:  totalPages,
		PageSize:    limit,
	}
}

type Document struct {
	ID             string    `bson:"_id" json:"id"`
	Title          string    `bson:"title" json:"title"`
	OwnerID        string    `bson:"ownerId,omitempty" json:"ownerId,omitempty"`
	CurrentVersion int       `bson:"currentVersion" json:"currentVersion"`
	Lock           *Lock     `bson:"lock,omitempty" json:"lock,omitempty"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}

type Lock struct {
	LockID     string    `bson:"lockId" json:"lockId"`
	HolderID   string    `bson:"holderId" json:"holderId"`
	HolderName string    `bson:"holderName" json:"holderName"`
	AcquiredAt time.Time `bson:"acquiredAt" json:"acquiredAt"`
	ExpiresAt  time.Time `bson:"expiresAt" json:"expiresAt"`
}

// IsActive reports a lock that has not expired at now.
func (l *Lock) IsActive(now time.Time) bool {
	return l != nil && l.ExpiresAt.After(now)
}

type Version struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	DocumentID     string             `bson:"documentId" json:"documentId"`
	Version        int                `bson:"version" json:"version"`
	Timestamp      time.Time          `bson:"timestamp" json:"timestamp"`
	CreatedBy      string             `bson:"createdBy" json:"createdBy"`
	ConflictCopyOf int                `bson:"conflictCopyOf,omitempty" json:"conflictCopyOf,omitempty"`
	FileID         string             `bson:"fileId" json:"-"`
	ContentType    string             `bson:"contentType" json:"contentType"`
	Size           int64              `bson:"size" json:"size"`
}

type Account struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	DisplayName  string             `bson:"displayName" json:"displayName"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	IsAdmin      bool               `bson:"isAdmin" json:"isAdmin"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	LastLoginAt  time.Time          `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
}
