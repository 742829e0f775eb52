package apihandlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	STATUS_OK       = "OK"
	STATUS_CONFLICT = "CONFLICT"
	STATUS_LOCKED   = "LOCKED"
)

// envelope is the uniform body of every answer of the records backend.
type envelope struct {
	Status    string      `json:"status"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Code      int         `json:"code"`
	Path      string      `json:"path"`
	Timestamp string      `json:"timestamp"`
}

func statusLabel(code int) string {
	switch code {
	case http.StatusConflict:
		return STATUS_CONFLICT
	case http.StatusLocked:
		return STATUS_LOCKED
	}
	if code >= 200 && code < 300 {
		return STATUS_OK
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_"))
}

func respond(c *gin.Context, code int, data interface{}) {
	c.JSON(code, envelope{
		Status:    statusLabel(code),
		Data:      data,
		Code:      code,
		Path:      c.Request.URL.Path,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, envelope{
		Status:    statusLabel(code),
		Message:   message,
		Code:      code,
		Path:      c.Request.URL.Path,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
