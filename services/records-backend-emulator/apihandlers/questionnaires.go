package apihandlers

import (
	"log/slog"
	"net/http"

	mw "github.com/case-framework/records-portal/pkg/apihelpers/middlewares"
	"github.com/case-framework/records-portal/pkg/db/records"
	qtypes "github.com/case-framework/records-portal/pkg/questionnaire/types"
	"github.com/gin-gonic/gin"
)

func (h *HttpEndpoints) AddQuestionnairesAPI(rg *gin.RouterGroup) {
	questionnairesGroup := rg.Group("/questionnaires")
	questionnairesGroup.Use(mw.GetAndValidateUserJWT(h.tokenSignKey))
	{
		questionnairesGroup.POST("/responses", mw.RequirePayload(), h.submitResponses)
		questionnairesGroup.GET("/:id", h.getQuestionnaire)
		questionnairesGroup.GET("/:id/responses", h.getOwnResponses)
	}
}

func (h *HttpEndpoints) getQuestionnaire(c *gin.Context) {
	questionnaireID := c.Param("id")
	q, err := h.store.GetQuestionnaire(questionnaireID)
	if err != nil {
		if records.IsQuestionnaireNotFound(err) {
			respondError(c, http.StatusNotFound, "questionnaire not found")
			return
		}
		slog.Error("failed to get questionnaire", slog.String("questionnaireID", questionnaireID), slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "failed to get questionnaire")
		return
	}
	respond(c, http.StatusOK, q)
}

func (h *HttpEndpoints) submitResponses(c *gin.Context) {
	sess := mw.SessionFromCtx(c)

	var req qtypes.ResponseSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.QuestionnaireID == "" {
		respondError(c, http.StatusBadRequest, "questionnaireId missing")
		return
	}

	if _, err := h.store.GetQuestionnaire(req.QuestionnaireID); err != nil {
		if records.IsQuestionnaireNotFound(err) {
			respondError(c, http.StatusNotFound, "questionnaire not found")
			return
		}
		slog.Error("failed to get questionnaire", slog.String("questionnaireID", req.QuestionnaireID), slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "failed to save responses")
		return
	}

	record, err := h.store.SaveResponses(sess.UserID, req)
	if err != nil {
		slog.Error("failed to save responses", slog.String("questionnaireID", req.QuestionnaireID), slog.String("userID", sess.UserID), slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "failed to save responses")
		return
	}

	slog.Info("questionnaire responses saved", slog.String("questionnaireID", req.QuestionnaireID), slog.String("userID", sess.UserID), slog.Bool("isCompleted", req.IsCompleted))
	respond(c, http.StatusOK, record)
}

func (h *HttpEndpoints) getOwnResponses(c *gin.Context) {
	sess := mw.SessionFromCtx(c)
	responses, err := h.store.GetResponses(sess.UserID, c.Param("id"))
	if err != nil {
		slog.Error("failed to get responses", slog.String("userID", sess.UserID), slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "failed to get responses")
		return
	}
	respond(c, http.StatusOK, responses)
}
