package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	mw "github.com/case-framework/records-portal/pkg/apihelpers/middlewares"
	"github.com/case-framework/records-portal/pkg/db/records"
	qtypes "github.com/case-framework/records-portal/pkg/questionnaire/types"
	"github.com/case-framework/records-portal/pkg/utils"
	"github.com/gin-gonic/gin"
)

// AddAdminAPI registers the seeding endpoints. They are guarded by API key
// only, end users never see them.
func (h *HttpEndpoints) AddAdminAPI(rg *gin.RouterGroup) {
	adminGroup := rg.Group("/admin")
	adminGroup.Use(mw.HasValidAPIKey(h.adminAPIKeys))
	{
		adminGroup.POST("/accounts", mw.RequirePayload(), h.createAccount)
		adminGroup.POST("/documents", mw.RequirePayload(), h.createDocument)
		adminGroup.PUT("/questionnaires", mw.RequirePayload(), h.saveQuestionnaire)
	}
}

type CreateAccountReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	IsAdmin     bool   `json:"isAdmin"`
}

func (h *HttpEndpoints) createAccount(c *gin.Context) {
	var req CreateAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "missing required fields")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "failed to create account")
		return
	}

	account, err := h.store.CreateAccount(records.Account{
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: hash,
		IsAdmin:      req.IsAdmin,
	})
	if err != nil {
		if errors.Is(err, records.ErrAccountExists) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to create account", slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "failed to create account")
		return
	}

	slog.Info("account created", slog.String("accountID", account.ID.Hex()))
	respond(c, http.StatusCreated, account)
}

type CreateDocumentReq struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	OwnerID string `json:"ownerId"`
	// Content becomes version 1 when set.
	Content []byte `json:"content"`
}

func (h *HttpEndpoints) createDocument(c *gin.Context) {
	var req CreateDocumentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !utils.IsURLSafe(req.ID) {
		respondError(c, http.StatusBadRequest, "invalid document id")
		return
	}

	doc := records.Document{
		ID:      req.ID,
		Title:   req.Title,
		OwnerID: req.OwnerID,
	}

	var initial *records.Version
	if len(req.Content) > 0 {
		if int64(len(req.Content)) > h.maxUploadSize {
			respondError(c, http.StatusRequestEntityTooLarge, "content too large")
			return
		}
		contentType, err := utils.ValidateContentType(req.Content, h.allowedContentTypes)
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		fileID, err := h.writeVersionFile(req.Content, contentType)
		if err != nil {
			slog.Error("failed to store version content", slog.String("documentID", req.ID), slog.String("error", err.Error()))
			respondError(c, http.StatusInternalServerError, "failed to store content")
			return
		}
		doc.CurrentVersion = 1
		initial = &records.Version{
			DocumentID:  req.ID,
			Version:     1,
			Timestamp:   time.Now(),
			CreatedBy:   req.OwnerID,
			FileID:      fileID,
			ContentType: contentType,
			Size:        int64(len(req.Content)),
		}
	}

	doc, err := h.store.CreateDocument(doc)
	if err != nil {
		if initial != nil {
			h.removeVersionFile(initial.FileID)
		}
		slog.Error("failed to create document", slog.String("documentID", req.ID), slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "failed to create document")
		return
	}
	if initial != nil {
		if err := h.store.AddInitialVersion(*initial); err != nil {
			slog.Error("failed to add initial version", slog.String("documentID", req.ID), slog.String("error", err.Error()))
			respondError(c, http.StatusInternalServerError, "failed to create document")
			return
		}
	}

	slog.Info("document created", slog.String("documentID", doc.ID), slog.Int("version", doc.CurrentVersion))
	respond(c, http.StatusCreated, doc)
}

func (h *HttpEndpoints) saveQuestionnaire(c *gin.Context) {
	var q qtypes.Questionnaire
	if err := c.ShouldBindJSON(&q); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := q.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.SaveQuestionnaire(q); err != nil {
		slog.Error("failed to save questionnaire", slog.String("questionnaireID", q.ID), slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "failed to save questionnaire")
		return
	}
	slog.Info("questionnaire saved", slog.String("questionnaireID", q.ID))
	respond(c, http.StatusOK, q)
}
