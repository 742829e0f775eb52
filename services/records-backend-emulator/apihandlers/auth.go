package apihandlers

import (
	"log/slog"
	"net/http"
	"time"

	mw "github.com/case-framework/records-portal/pkg/apihelpers/middlewares"
	jwthandling "github.com/case-framework/records-portal/pkg/jwt-handling"
	"github.com/case-framework/records-portal/pkg/utils"
	"github.com/gin-gonic/gin"
)

func (h *HttpEndpoints) AddAuthAPI(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/login", mw.RequirePayload(), h.loginWithEmail)
	}
}

type LoginWithEmailReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

func (h *HttpEndpoints) loginWithEmail(c *gin.Context) {
	var req LoginWithEmailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "missing required fields")
		return
	}

	account, err := h.store.GetAccountByEmail(req.Email)
	if err != nil {
		slog.Warn("login attempt with unknown email address", slog.String("email", req.Email), slog.String("error", err.Error()))
		respondError(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	match, err := utils.ComparePasswordWithHash(account.PasswordHash, req.Password)
	if err != nil || !match {
		slog.Warn("login attempt with wrong password", slog.String("email", req.Email))
		respondError(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := jwthandling.GenerateNewUserToken(
		h.tokenExpiresIn,
		account.ID.Hex(),
		account.Email,
		account.DisplayName,
		account.IsAdmin,
		h.tokenSignKey,
	)
	if err != nil {
		slog.Error("failed to generate token", slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "failed to generate token")
		return
	}

	if err := h.store.UpdateLastLogin(account.Email); err != nil {
		slog.Error("failed to update last login", slog.String("email", account.Email), slog.String("error", err.Error()))
	}

	slog.Info("user logged in", slog.String("userID", account.ID.Hex()))
	respond(c, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.tokenExpiresIn).Unix(),
	})
}
