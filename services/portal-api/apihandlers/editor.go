package apihandlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	mw "github.com/case-framework/records-portal/pkg/apihelpers/middlewares"
	"github.com/case-framework/records-portal/pkg/documents/coordinator"
	doctypes "github.com/case-framework/records-portal/pkg/documents/types"
	"github.com/case-framework/records-portal/pkg/utils"
	"github.com/gin-gonic/gin"
)

const maxDocumentSize = 20 << 20

func (h *HttpEndpoints) AddEditorAPI(rg *gin.RouterGroup) {
	editorGroup := rg.Group("/editor/sessions")
	editorGroup.Use(mw.GetAndValidateUserJWT(h.tokenSignKey))
	{
		editorGroup.POST("", mw.RequirePayload(), h.openEditorSession)
		editorGroup.GET("/:sessionId", h.getEditorSession)
		editorGroup.GET("/:sessionId/status", h.getEditorLockStatus)
		editorGroup.PUT("/:sessionId/content", mw.RequirePayload(), h.saveDocument)
		editorGroup.POST("/:sessionId/resolve", mw.RequirePayload(), h.resolveConflict)
		editorGroup.GET("/:sessionId/versions", h.getDocumentVersions)
		editorGroup.DELETE("/:sessionId", h.closeEditorSession)
	}
}

type OpenEditorSessionReq struct {
	DocumentID string `json:"documentId"`
}

type ResolveConflictReq struct {
	Resolution string `json:"resolution"`
}

// openEditorSession checks the document out. A refused lock still opens the
// session, read-only, so the document can be viewed.
func (h *HttpEndpoints) openEditorSession(c *gin.Context) {
	sess := mw.SessionFromCtx(c)

	var req OpenEditorSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !utils.IsURLSafe(req.DocumentID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	editor := coordinator.NewCoordinator(h.backend, sess, req.DocumentID, coordinator.Options{
		PollInterval: h.pollInterval,
		ContentType:  h.contentType,
	})
	_, err := editor.Checkout(c.Request.Context())
	if err != nil {
		slog.Info("document opened read-only", slog.String("documentID", req.DocumentID), slog.String("userID", sess.UserID), slog.String("error", err.Error()))
	}
	editor.StartStatusPolling(context.Background())

	sessionID := h.editors.Add(sess.UserID, editor)
	h.updateSessionGauges()

	c.JSON(http.StatusCreated, gin.H{
		"sessionId": sessionID,
		"session":   editor.Snapshot(),
	})
}

func (h *HttpEndpoints) editorFromCtx(c *gin.Context) (*coordinator.Coordinator, bool) {
	sess := mw.SessionFromCtx(c)
	editor, err := h.editors.Get(c.Param("sessionId"), sess.UserID)
	if err != nil {
		respondWithError(c, err, nil)
		return nil, false
	}
	return editor, true
}

func (h *HttpEndpoints) getEditorSession(c *gin.Context) {
	editor, ok := h.editorFromCtx(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": editor.Snapshot()})
}

func (h *HttpEndpoints) getEditorLockStatus(c *gin.Context) {
	editor, ok := h.editorFromCtx(c)
	if !ok {
		return
	}
	if c.Query("refresh") == "true" {
		if err := editor.RefreshStatus(c.Request.Context()); err != nil {
			slog.Debug("status refresh failed", slog.String("documentID", editor.DocumentID()), slog.String("error", err.Error()))
		}
	}
	c.JSON(http.StatusOK, editor.Status())
}

func (h *HttpEndpoints) saveDocument(c *gin.Context) {
	editor, ok := h.editorFromCtx(c)
	if !ok {
		return
	}

	content, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read content"})
		return
	}
	if len(content) > maxDocumentSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "content too large"})
		return
	}

	result, err := editor.Save(c.Request.Context(), content)
	if err != nil {
		respondWithError(c, err, gin.H{"result": result, "session": editor.Snapshot()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "session": editor.Snapshot()})
}

func (h *HttpEndpoints) resolveConflict(c *gin.Context) {
	editor, ok := h.editorFromCtx(c)
	if !ok {
		return
	}

	var req ResolveConflictReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resolution, err := doctypes.ParseConflictResolution(req.Resolution)
	if err != nil {
		respondWithError(c, err, nil)
		return
	}

	result, err := editor.ResolveConflict(c.Request.Context(), resolution)
	if err != nil {
		respondWithError(c, err, gin.H{"result": result, "session": editor.Snapshot()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "session": editor.Snapshot()})
}

func (h *HttpEndpoints) getDocumentVersions(c *gin.Context) {
	sess := mw.SessionFromCtx(c)
	editor, ok := h.editorFromCtx(c)
	if !ok {
		return
	}

	versions, err := h.backend.GetVersions(c.Request.Context(), sess, editor.DocumentID())
	if err != nil {
		slog.Error("failed to get versions", slog.String("documentID", editor.DocumentID()), slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to get versions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"versions": versions,
		"latest":   doctypes.LatestVersion(versions),
	})
}

func (h *HttpEndpoints) closeEditorSession(c *gin.Context) {
	sess := mw.SessionFromCtx(c)
	if err := h.editors.Remove(c.Param("sessionId"), sess.UserID); err != nil {
		respondWithError(c, err, nil)
		return
	}
	h.updateSessionGauges()
	c.JSON(http.StatusOK, gin.H{"message": "session closed"})
}
