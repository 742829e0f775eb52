package apihandlers

import (
	"context"
	"net/http"
	"time"

	"github.com/case-framework/records-portal/pkg/documents/coordinator"
	doctypes "github.com/case-framework/records-portal/pkg/documents/types"
	"github.com/case-framework/records-portal/pkg/metrics"
	"github.com/case-framework/records-portal/pkg/portal/registry"
	"github.com/case-framework/records-portal/pkg/questionnaire/engine"
	recordsclient "github.com/case-framework/records-portal/pkg/records-client"
	"github.com/case-framework/records-portal/pkg/session"
	"github.com/gin-gonic/gin"
)

const (
	sessionKindEditor        = "editor"
	sessionKindQuestionnaire = "questionnaire"
)

func HealthCheckHandle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RecordsBackend is everything the portal needs from the records backend.
// *recordsclient.RecordsClient implements it.
type RecordsBackend interface {
	coordinator.DocumentBackend
	engine.QuestionnaireBackend
	GetVersions(ctx context.Context, sess *session.Context, documentID string) ([]doctypes.DocumentVersion, error)
	Login(ctx context.Context, email string, password string) (recordsclient.LoginResponse, error)
}

type SessionConfig struct {
	MaxSessions  int
	IdleTimeout  time.Duration
	PollInterval time.Duration
	ContentType  string
}

type HttpEndpoints struct {
	backend      RecordsBackend
	tokenSignKey string
	pollInterval time.Duration
	contentType  string

	editors        *registry.Registry[*coordinator.Coordinator]
	questionnaires *registry.Registry[*engine.Engine]
}

func NewHTTPHandler(
	backend RecordsBackend,
	tokenSignKey string,
	sessionConfig SessionConfig,
) *HttpEndpoints {
	h := &HttpEndpoints{
		backend:      backend,
		tokenSignKey: tokenSignKey,
		pollInterval: sessionConfig.PollInterval,
		contentType:  sessionConfig.ContentType,
	}
	h.editors = registry.New(sessionConfig.MaxSessions, sessionConfig.IdleTimeout, func(c *coordinator.Coordinator) {
		c.Close(context.Background())
	})
	h.questionnaires = registry.New(sessionConfig.MaxSessions, sessionConfig.IdleTimeout, func(e *engine.Engine) {
		e.Close()
	})
	return h
}

// Shutdown closes all open sessions, releasing their document locks.
func (h *HttpEndpoints) Shutdown() {
	h.editors.CloseAll()
	h.questionnaires.CloseAll()
	h.updateSessionGauges()
}

func (h *HttpEndpoints) updateSessionGauges() {
	metrics.SetActiveSessions(sessionKindEditor, h.editors.Len())
	metrics.SetActiveSessions(sessionKindQuestionnaire, h.questionnaires.Len())
}
