package apihandlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/case-framework/records-portal/pkg/apihelpers"
	mw "github.com/case-framework/records-portal/pkg/apihelpers/middlewares"
	"github.com/case-framework/records-portal/pkg/db/records"
	doctypes "github.com/case-framework/records-portal/pkg/documents/types"
	"github.com/case-framework/records-portal/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const STRATEGY_SAVE_BOTH = "save_both"

func (h *HttpEndpoints) AddDocumentsAPI(rg *gin.RouterGroup) {
	documentsGroup := rg.Group("/documents")
	documentsGroup.Use(mw.GetAndValidateUserJWT(h.tokenSignKey))
	{
		documentsGroup.GET("", h.getDocuments)
		documentsGroup.POST("/:id/checkout", h.checkoutDocument)
		documentsGroup.DELETE("/:id/checkout", h.releaseDocumentLock)
		documentsGroup.GET("/:id/status", h.getDocumentStatus)
		documentsGroup.PUT("/:id/checkin", mw.RequirePayload(), h.checkinDocument)
		documentsGroup.GET("/:id/versions", h.getDocumentVersions)
		documentsGroup.GET("/:id/versions/:version/content", h.getVersionContent)
		documentsGroup.DELETE("/:id/lock", mw.IsAdminUser(), h.forceReleaseDocumentLock)
	}
}

type documentListResponse struct {
	Documents  []records.Document       `json:"documents"`
	Pagination *records.PaginationInfos `json:"pagination"`
}

type checkoutResponse struct {
	LockID  string `json:"lockId"`
	Version int    `json:"version"`
}

// respondStoreError maps store errors of the document endpoints to the
// status codes of the REST contract.
func respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, records.ErrDocumentNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, records.ErrVersionConflict):
		respondError(c, http.StatusConflict, "version conflict: "+err.Error())
	case errors.Is(err, records.ErrDocumentLocked), errors.Is(err, records.ErrLockMismatch):
		respondError(c, http.StatusLocked, err.Error())
	case errors.Is(err, records.ErrInvalidBaseVersion):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		slog.Error("unexpected store error", slog.String("path", c.Request.URL.Path), slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

func (h *HttpEndpoints) getDocuments(c *gin.Context) {
	query, err := apihelpers.ParsePaginatedQueryFromCtx(c)
	if err != nil || query == nil {
		respondError(c, http.StatusBadRequest, "invalid pagination query")
		return
	}

	docs, paginationInfo, err := h.store.GetDocuments(query.Page, query.Limit)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respond(c, http.StatusOK, documentListResponse{
		Documents:  docs,
		Pagination: paginationInfo,
	})
}

// forceReleaseDocumentLock lets an admin break a lock whose holder is gone.
func (h *HttpEndpoints) forceReleaseDocumentLock(c *gin.Context) {
	sess := mw.SessionFromCtx(c)
	documentID := c.Param("id")

	if err := h.store.ForceReleaseLock(documentID); err != nil {
		respondStoreError(c, err)
		return
	}
	slog.Info("document lock force released", slog.String("documentID", documentID), slog.String("adminID", sess.UserID))
	respond(c, http.StatusOK, nil)
}

func (h *HttpEndpoints) checkoutDocument(c *gin.Context) {
	sess := mw.SessionFromCtx(c)
	documentID := c.Param("id")

	holderName := sess.DisplayName
	if holderName == "" {
		holderName = sess.Email
	}
	now := time.Now()
	doc, err := h.store.AcquireLock(documentID, records.Lock{
		LockID:     uuid.NewString(),
		HolderID:   sess.UserID,
		HolderName: holderName,
		AcquiredAt: now,
		ExpiresAt:  now.Add(h.lockTTL),
	})
	if err != nil {
		slog.Warn("checkout refused", slog.String("documentID", documentID), slog.String("userID", sess.UserID), slog.String("error", err.Error()))
		respondStoreError(c, err)
		return
	}

	slog.Info("document checked out", slog.String("documentID", documentID), slog.String("userID", sess.UserID), slog.Int("version", doc.CurrentVersion))
	respond(c, http.StatusOK, checkoutResponse{
		LockID:  doc.Lock.LockID,
		Version: doc.CurrentVersion,
	})
}

func (h *HttpEndpoints) releaseDocumentLock(c *gin.Context) {
	documentID := c.Param("id")
	lockID := c.Query("lockId")
	if lockID == "" {
		respondError(c, http.StatusBadRequest, "lockId missing")
		return
	}

	if err := h.store.ReleaseLock(documentID, lockID); err != nil {
		respondStoreError(c, err)
		return
	}
	slog.Info("document lock released", slog.String("documentID", documentID))
	respond(c, http.StatusOK, nil)
}

func (h *HttpEndpoints) getDocumentStatus(c *gin.Context) {
	doc, err := h.store.GetDocument(c.Param("id"))
	if err != nil {
		respondStoreError(c, err)
		return
	}

	status := doctypes.LockStatus{
		LockStatus: doctypes.LockStateUnlocked,
		Version:    doc.CurrentVersion,
	}
	if doc.Lock.IsActive(time.Now()) {
		status.LockStatus = doctypes.LockStateLocked
		status.LockedBy = doc.Lock.HolderName
	}
	respond(c, http.StatusOK, status)
}

func (h *HttpEndpoints) checkinDocument(c *gin.Context) {
	sess := mw.SessionFromCtx(c)
	documentID := c.Param("id")

	baseVersion, err := strconv.Atoi(c.Query("baseVersion"))
	if err != nil || baseVersion < 0 {
		respondError(c, http.StatusBadRequest, "invalid baseVersion")
		return
	}
	lockID := c.Query("lockId")
	if lockID == "" {
		respondError(c, http.StatusBadRequest, "lockId missing")
		return
	}
	strategy := c.Query("strategy")
	if strategy != "" && strategy != STRATEGY_SAVE_BOTH {
		respondError(c, http.StatusBadRequest, "unknown strategy: "+strategy)
		return
	}

	content, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxUploadSize+1))
	if err != nil {
		respondError(c, http.StatusBadRequest, "could not read content")
		return
	}
	if int64(len(content)) > h.maxUploadSize {
		respondError(c, http.StatusRequestEntityTooLarge, "content too large")
		return
	}
	contentType, err := utils.ValidateContentType(content, h.allowedContentTypes)
	if err != nil {
		slog.Warn("checkin with invalid content", slog.String("documentID", documentID), slog.String("error", err.Error()))
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	fileID, err := h.writeVersionFile(content, contentType)
	if err != nil {
		slog.Error("failed to store version content", slog.String("documentID", documentID), slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "failed to store content")
		return
	}

	version, err := h.store.Checkin(documentID, lockID, baseVersion, strategy == STRATEGY_SAVE_BOTH, records.Version{
		CreatedBy:   sess.UserID,
		FileID:      fileID,
		ContentType: contentType,
		Size:        int64(len(content)),
	})
	if err != nil {
		h.removeVersionFile(fileID)
		slog.Warn("checkin refused", slog.String("documentID", documentID), slog.Int("baseVersion", baseVersion), slog.String("error", err.Error()))
		respondStoreError(c, err)
		return
	}

	slog.Info("document checked in", slog.String("documentID", documentID), slog.Int("version", version.Version), slog.Int("conflictCopyOf", version.ConflictCopyOf))
	respond(c, http.StatusOK, toDocumentVersion(version))
}

func (h *HttpEndpoints) getDocumentVersions(c *gin.Context) {
	documentID := c.Param("id")
	if _, err := h.store.GetDocument(documentID); err != nil {
		respondStoreError(c, err)
		return
	}
	versions, err := h.store.GetVersions(documentID)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	resp := make([]doctypes.DocumentVersion, len(versions))
	for i, v := range versions {
		resp[i] = toDocumentVersion(v)
	}
	respond(c, http.StatusOK, resp)
}

func (h *HttpEndpoints) getVersionContent(c *gin.Context) {
	documentID := c.Param("id")
	versionNr, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid version")
		return
	}

	version, err := h.store.GetVersion(documentID, versionNr)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if version.FileID == "" {
		respondError(c, http.StatusNotFound, "version has no content")
		return
	}

	c.Header("Content-Type", version.ContentType)
	c.File(filepath.Join(h.filestorePath, version.FileID))
}

func toDocumentVersion(v records.Version) doctypes.DocumentVersion {
	return doctypes.DocumentVersion{
		Version:        v.Version,
		Timestamp:      v.Timestamp,
		CreatedBy:      v.CreatedBy,
		ConflictCopyOf: v.ConflictCopyOf,
	}
}

func (h *HttpEndpoints) writeVersionFile(content []byte, contentType string) (string, error) {
	fileID := uuid.NewString() + utils.GetFileExtensionFromContentType(contentType)
	if err := os.WriteFile(filepath.Join(h.filestorePath, fileID), content, 0o600); err != nil {
		return "", err
	}
	return fileID, nil
}

func (h *HttpEndpoints) removeVersionFile(fileID string) {
	if err := os.Remove(filepath.Join(h.filestorePath, fileID)); err != nil {
		slog.Error("failed to remove version content", slog.String("fileID", fileID), slog.String("error", err.Error()))
	}
}
