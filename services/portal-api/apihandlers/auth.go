package apihandlers

import (
	"log/slog"
	"net/http"

	mw "github.com/case-framework/records-portal/pkg/apihelpers/middlewares"
	httpclient "github.com/case-framework/records-portal/pkg/http-client"
	"github.com/gin-gonic/gin"
)

func (h *HttpEndpoints) AddAuthAPI(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/login", mw.RequirePayload(), h.login)
	}
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login forwards the credentials to the records backend, which is the
// authority for accounts.
func (h *HttpEndpoints) login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	resp, err := h.backend.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if httpclient.StatusCode(err) == http.StatusUnauthorized {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		slog.Error("login failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, resp)
}
