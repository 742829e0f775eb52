package apihandlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	mw "github.com/case-framework/records-portal/pkg/apihelpers/middlewares"
	"github.com/case-framework/records-portal/pkg/questionnaire/engine"
	qtypes "github.com/case-framework/records-portal/pkg/questionnaire/types"
	"github.com/gin-gonic/gin"
)

func (h *HttpEndpoints) AddQuestionnaireAPI(rg *gin.RouterGroup) {
	qGroup := rg.Group("/questionnaires/sessions")
	qGroup.Use(mw.GetAndValidateUserJWT(h.tokenSignKey))
	{
		qGroup.POST("", mw.RequirePayload(), h.startQuestionnaire)
		qGroup.GET("/:sessionId", h.getQuestionnaireSession)
		qGroup.POST("/:sessionId/reload", h.reloadQuestionnaire)
		qGroup.PUT("/:sessionId/responses/:questionId", mw.RequirePayload(), h.recordResponse)
		qGroup.POST("/:sessionId/responses/:questionId/skip", h.skipQuestion)
		qGroup.POST("/:sessionId/next", h.nextPage)
		qGroup.POST("/:sessionId/previous", h.previousPage)
		qGroup.POST("/:sessionId/pages/:pageIndex", h.goToPage)
		qGroup.POST("/:sessionId/submit", h.submitQuestionnaire)
		qGroup.POST("/:sessionId/draft", h.saveDraft)
		qGroup.DELETE("/:sessionId", h.closeQuestionnaireSession)
	}
}

type StartQuestionnaireReq struct {
	// QuestionnaireID is an id or the URL path the questionnaire was opened with.
	QuestionnaireID string `json:"questionnaireId"`
}

type RecordResponseReq struct {
	AnswerValue qtypes.AnswerValue `json:"answerValue"`
	AnswerText  string             `json:"answerText"`
}

func (h *HttpEndpoints) startQuestionnaire(c *gin.Context) {
	sess := mw.SessionFromCtx(c)

	var req StartQuestionnaireReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ref := strings.TrimSpace(req.QuestionnaireID)
	if ref == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "questionnaireId missing"})
		return
	}

	q := engine.NewEngine(h.backend, sess, ref, engine.Options{})
	loadErr := q.Load(c.Request.Context())

	sessionID := h.questionnaires.Add(sess.UserID, q)
	h.updateSessionGauges()

	if loadErr != nil {
		respondWithError(c, loadErr, gin.H{"sessionId": sessionID, "session": q.Snapshot()})
		return
	}
	slog.Info("questionnaire session started", slog.String("questionnaire", ref), slog.String("userID", sess.UserID))
	c.JSON(http.StatusCreated, gin.H{"sessionId": sessionID, "session": q.Snapshot()})
}

func (h *HttpEndpoints) questionnaireFromCtx(c *gin.Context) (*engine.Engine, bool) {
	sess := mw.SessionFromCtx(c)
	q, err := h.questionnaires.Get(c.Param("sessionId"), sess.UserID)
	if err != nil {
		respondWithError(c, err, nil)
		return nil, false
	}
	return q, true
}

// respondWithSnapshot answers with the session state, plus the error if
// the operation failed.
func respondWithSnapshot(c *gin.Context, q *engine.Engine, err error) {
	if err != nil {
		respondWithError(c, err, gin.H{"session": q.Snapshot()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": q.Snapshot()})
}

func (h *HttpEndpoints) getQuestionnaireSession(c *gin.Context) {
	q, ok := h.questionnaireFromCtx(c)
	if !ok {
		return
	}
	respondWithSnapshot(c, q, nil)
}

func (h *HttpEndpoints) reloadQuestionnaire(c *gin.Context) {
	q, ok := h.questionnaireFromCtx(c)
	if !ok {
		return
	}
	if q.State() != engine.STATE_ERROR {
		c.JSON(http.StatusConflict, gin.H{"error": "questionnaire is already loaded"})
		return
	}
	respondWithSnapshot(c, q, q.Load(c.Request.Context()))
}

func (h *HttpEndpoints) recordResponse(c *gin.Context) {
	q, ok := h.questionnaireFromCtx(c)
	if !ok {
		return
	}

	var req RecordResponseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := q.RecordResponse(c.Param("questionId"), qtypes.QuestionResponse{
		AnswerValue: req.AnswerValue,
		AnswerText:  req.AnswerText,
	})
	respondWithSnapshot(c, q, err)
}

func (h *HttpEndpoints) skipQuestion(c *gin.Context) {
	q, ok := h.questionnaireFromCtx(c)
	if !ok {
		return
	}
	respondWithSnapshot(c, q, q.SkipQuestion(c.Param("questionId")))
}

func (h *HttpEndpoints) nextPage(c *gin.Context) {
	q, ok := h.questionnaireFromCtx(c)
	if !ok {
		return
	}
	respondWithSnapshot(c, q, q.Next(c.Request.Context()))
}

func (h *HttpEndpoints) previousPage(c *gin.Context) {
	q, ok := h.questionnaireFromCtx(c)
	if !ok {
		return
	}
	respondWithSnapshot(c, q, q.Previous())
}

func (h *HttpEndpoints) goToPage(c *gin.Context) {
	q, ok := h.questionnaireFromCtx(c)
	if !ok {
		return
	}
	pageIndex, err := strconv.Atoi(c.Param("pageIndex"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page index"})
		return
	}
	respondWithSnapshot(c, q, q.GoToPage(pageIndex))
}

func (h *HttpEndpoints) submitQuestionnaire(c *gin.Context) {
	q, ok := h.questionnaireFromCtx(c)
	if !ok {
		return
	}
	result, err := q.Submit(c.Request.Context())
	if err != nil {
		respondWithError(c, err, gin.H{"session": q.Snapshot()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "session": q.Snapshot()})
}

func (h *HttpEndpoints) saveDraft(c *gin.Context) {
	q, ok := h.questionnaireFromCtx(c)
	if !ok {
		return
	}
	responseID, err := q.SaveDraft(c.Request.Context())
	if err != nil {
		respondWithError(c, err, gin.H{"session": q.Snapshot()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"responseId": responseID, "session": q.Snapshot()})
}

func (h *HttpEndpoints) closeQuestionnaireSession(c *gin.Context) {
	sess := mw.SessionFromCtx(c)
	if err := h.questionnaires.Remove(c.Param("sessionId"), sess.UserID); err != nil {
		respondWithError(c, err, nil)
		return
	}
	h.updateSessionGauges()
	c.JSON(http.StatusOK, gin.H{"message": "session closed"})
}
