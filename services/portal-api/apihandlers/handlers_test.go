package apihandlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/case-framework/records-portal/pkg/documents/coordinator"
	doctypes "github.com/case-framework/records-portal/pkg/documents/types"
	httpclient "github.com/case-framework/records-portal/pkg/http-client"
	jwthandling "github.com/case-framework/records-portal/pkg/jwt-handling"
	"github.com/case-framework/records-portal/pkg/questionnaire/engine"
	qtypes "github.com/case-framework/records-portal/pkg/questionnaire/types"
	recordsclient "github.com/case-framework/records-portal/pkg/records-client"
	"github.com/case-framework/records-portal/pkg/session"
	"github.com/gin-gonic/gin"
)

const testSignKey = "portal-test-key"

type mockBackend struct {
	mu sync.Mutex

	checkoutErr  error
	checkinErrs  []error
	currentVer   int
	checkins     []recordsclient.CheckinRequest
	releasedLock []string

	questionnaire qtypes.Questionnaire
	submissions   []qtypes.ResponseSubmission
}

func (m *mockBackend) Checkout(ctx context.Context, sess *session.Context, documentID string) (doctypes.DocumentLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.checkoutErr != nil {
		return doctypes.DocumentLock{}, m.checkoutErr
	}
	return doctypes.DocumentLock{DocumentID: documentID, LockID: "lock-1", BaseVersion: m.currentVer}, nil
}

func (m *mockBackend) GetStatus(ctx context.Context, sess *session.Context, documentID string) (doctypes.LockStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return doctypes.LockStatus{LockStatus: doctypes.LockStateLocked, LockedBy: "Jane", Version: m.currentVer}, nil
}

func (m *mockBackend) Checkin(ctx context.Context, sess *session.Context, req recordsclient.CheckinRequest) (doctypes.DocumentVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkins = append(m.checkins, req)
	if len(m.checkinErrs) > 0 {
		err := m.checkinErrs[0]
		m.checkinErrs = m.checkinErrs[1:]
		if err != nil {
			return doctypes.DocumentVersion{}, err
		}
	}
	m.currentVer++
	return doctypes.DocumentVersion{Version: m.currentVer, Timestamp: time.Now()}, nil
}

func (m *mockBackend) ReleaseLock(ctx context.Context, sess *session.Context, documentID string, lockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releasedLock = append(m.releasedLock, lockID)
	return nil
}

func (m *mockBackend) GetVersions(ctx context.Context, sess *session.Context, documentID string) ([]doctypes.DocumentVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	versions := []doctypes.DocumentVersion{}
	for v := 1; v <= m.currentVer; v++ {
		versions = append(versions, doctypes.DocumentVersion{Version: v})
	}
	return versions, nil
}

func (m *mockBackend) Login(ctx context.Context, email string, password string) (recordsclient.LoginResponse, error) {
	if password != "secret" {
		return recordsclient.LoginResponse{}, &httpclient.APIError{StatusCode: http.StatusUnauthorized}
	}
	return recordsclient.LoginResponse{Token: "backend-token", ExpiresAt: time.Now().Add(time.Hour).Unix()}, nil
}

func (m *mockBackend) GetQuestionnaire(ctx context.Context, sess *session.Context, questionnaireID string) (qtypes.Questionnaire, error) {
	if questionnaireID != m.questionnaire.ID {
		return qtypes.Questionnaire{}, &httpclient.APIError{StatusCode: http.StatusNotFound}
	}
	return m.questionnaire, nil
}

func (m *mockBackend) SubmitResponses(ctx context.Context, sess *session.Context, submission qtypes.ResponseSubmission) (qtypes.ResponseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions = append(m.submissions, submission)
	return qtypes.ResponseRecord{ID: "resp-1", QuestionnaireID: submission.QuestionnaireID, IsCompleted: submission.IsCompleted}, nil
}

func (m *mockBackend) released() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.releasedLock...)
}

type testServer struct {
	router  *gin.Engine
	backend *mockBackend
	h       *HttpEndpoints
}

func newTestServer(t *testing.T, backend *mockBackend) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHTTPHandler(backend, testSignKey, SessionConfig{
		MaxSessions:  10,
		IdleTimeout:  time.Minute,
		PollInterval: time.Hour,
		ContentType:  "application/pdf",
	})
	t.Cleanup(h.Shutdown)

	router := gin.New()
	v1 := router.Group("/v1")
	h.AddAuthAPI(v1)
	h.AddEditorAPI(v1)
	h.AddQuestionnaireAPI(v1)
	return &testServer{router: router, backend: backend, h: h}
}

func userToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwthandling.GenerateNewUserToken(time.Hour, userID, userID+"@example.org", userID, false, testSignKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return token
}

// do sends body as JSON unless it is a []byte, which is sent raw.
func (s *testServer) do(t *testing.T, method string, path string, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var payload []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		payload = b
	default:
		payload, _ = json.Marshal(b)
	}
	var req *http.Request
	if payload != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	resp := map[string]interface{}{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w.Code, resp
}

func sessionField(t *testing.T, resp map[string]interface{}, field string) interface{} {
	t.Helper()
	sess, ok := resp["session"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no session: %v", resp)
	}
	return sess[field]
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, &mockBackend{})

	code, resp := s.do(t, http.MethodPost, "/v1/auth/login", "", LoginReq{Email: "jane@example.org", Password: "secret"})
	if code != http.StatusOK || resp["token"] != "backend-token" {
		t.Errorf("unexpected response %d: %v", code, resp)
	}

	code, _ = s.do(t, http.MethodPost, "/v1/auth/login", "", LoginReq{Email: "jane@example.org", Password: "wrong"})
	if code != http.StatusUnauthorized {
		t.Errorf("unexpected status %d", code)
	}

	code, _ = s.do(t, http.MethodPost, "/v1/auth/login", "", LoginReq{Email: "jane@example.org"})
	if code != http.StatusBadRequest {
		t.Errorf("unexpected status %d", code)
	}
}

func TestEditorSession(t *testing.T) {
	pdf := []byte("%PDF-1.4 test")

	open := func(t *testing.T, s *testServer, token string) string {
		t.Helper()
		code, resp := s.do(t, http.MethodPost, "/v1/editor/sessions", token, OpenEditorSessionReq{DocumentID: "abc"})
		if code != http.StatusCreated {
			t.Fatalf("unexpected status %d: %v", code, resp)
		}
		id, _ := resp["sessionId"].(string)
		return id
	}

	t.Run("save", func(t *testing.T) {
		s := newTestServer(t, &mockBackend{currentVer: 3})
		token := userToken(t, "jane")
		id := open(t, s, token)

		code, resp := s.do(t, http.MethodGet, "/v1/editor/sessions/"+id, token, nil)
		if code != http.StatusOK || sessionField(t, resp, "state") != string(coordinator.STATE_EDITING) {
			t.Fatalf("unexpected response %d: %v", code, resp)
		}

		code, resp = s.do(t, http.MethodPut, "/v1/editor/sessions/"+id+"/content", token, pdf)
		if code != http.StatusOK || sessionField(t, resp, "state") != string(coordinator.STATE_SAVED) {
			t.Fatalf("unexpected response %d: %v", code, resp)
		}
		if len(s.backend.checkins) != 1 || s.backend.checkins[0].BaseVersion != 3 || !bytes.Equal(s.backend.checkins[0].Content, pdf) {
			t.Errorf("unexpected checkins: %+v", s.backend.checkins)
		}

		code, resp = s.do(t, http.MethodGet, "/v1/editor/sessions/"+id+"/versions", token, nil)
		if code != http.StatusOK || resp["latest"] != float64(4) {
			t.Errorf("unexpected versions %d: %v", code, resp)
		}
	})

	t.Run("conflict then keep mine", func(t *testing.T) {
		backend := &mockBackend{
			currentVer:  3,
			checkinErrs: []error{&httpclient.APIError{StatusCode: http.StatusConflict}},
		}
		s := newTestServer(t, backend)
		token := userToken(t, "jane")
		id := open(t, s, token)

		code, resp := s.do(t, http.MethodPut, "/v1/editor/sessions/"+id+"/content", token, pdf)
		if code != http.StatusConflict || sessionField(t, resp, "state") != string(coordinator.STATE_CONFLICT_PENDING) {
			t.Fatalf("unexpected response %d: %v", code, resp)
		}

		code, _ = s.do(t, http.MethodPut, "/v1/editor/sessions/"+id+"/content", token, pdf)
		if code != http.StatusConflict {
			t.Errorf("save during pending conflict: unexpected status %d", code)
		}

		code, _ = s.do(t, http.MethodPost, "/v1/editor/sessions/"+id+"/resolve", token, ResolveConflictReq{Resolution: "merge"})
		if code != http.StatusBadRequest {
			t.Errorf("unknown resolution: unexpected status %d", code)
		}

		code, resp = s.do(t, http.MethodPost, "/v1/editor/sessions/"+id+"/resolve", token, ResolveConflictReq{Resolution: "keep-mine"})
		if code != http.StatusOK || sessionField(t, resp, "state") != string(coordinator.STATE_SAVED) {
			t.Fatalf("unexpected response %d: %v", code, resp)
		}
	})

	t.Run("lock refused opens read-only", func(t *testing.T) {
		backend := &mockBackend{checkoutErr: &httpclient.APIError{StatusCode: http.StatusLocked}}
		s := newTestServer(t, backend)
		token := userToken(t, "john")
		id := open(t, s, token)

		code, resp := s.do(t, http.MethodGet, "/v1/editor/sessions/"+id, token, nil)
		if code != http.StatusOK || sessionField(t, resp, "state") != string(coordinator.STATE_READ_ONLY) {
			t.Fatalf("unexpected response %d: %v", code, resp)
		}
		code, _ = s.do(t, http.MethodPut, "/v1/editor/sessions/"+id+"/content", token, pdf)
		if code != http.StatusForbidden {
			t.Errorf("unexpected status %d", code)
		}

		code, resp = s.do(t, http.MethodGet, "/v1/editor/sessions/"+id+"/status?refresh=true", token, nil)
		if code != http.StatusOK || resp["known"] != true {
			t.Errorf("unexpected status response %d: %v", code, resp)
		}
	})

	t.Run("session bound to owner", func(t *testing.T) {
		s := newTestServer(t, &mockBackend{})
		id := open(t, s, userToken(t, "jane"))

		code, _ := s.do(t, http.MethodGet, "/v1/editor/sessions/"+id, userToken(t, "john"), nil)
		if code != http.StatusForbidden {
			t.Errorf("unexpected status %d", code)
		}
		code, _ = s.do(t, http.MethodGet, "/v1/editor/sessions/unknown", userToken(t, "jane"), nil)
		if code != http.StatusNotFound {
			t.Errorf("unexpected status %d", code)
		}
	})

	t.Run("close releases unused lock", func(t *testing.T) {
		s := newTestServer(t, &mockBackend{})
		token := userToken(t, "jane")
		id := open(t, s, token)

		code, _ := s.do(t, http.MethodDelete, "/v1/editor/sessions/"+id, token, nil)
		if code != http.StatusOK {
			t.Fatalf("unexpected status %d", code)
		}

		deadline := time.Now().Add(time.Second)
		for len(s.backend.released()) == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		if released := s.backend.released(); len(released) != 1 || released[0] != "lock-1" {
			t.Errorf("unexpected released locks: %v", released)
		}
		code, _ = s.do(t, http.MethodGet, "/v1/editor/sessions/"+id, token, nil)
		if code != http.StatusNotFound {
			t.Errorf("unexpected status %d", code)
		}
	})

	t.Run("invalid document id", func(t *testing.T) {
		s := newTestServer(t, &mockBackend{})
		code, _ := s.do(t, http.MethodPost, "/v1/editor/sessions", userToken(t, "jane"), OpenEditorSessionReq{DocumentID: "../etc"})
		if code != http.StatusBadRequest {
			t.Errorf("unexpected status %d", code)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		s := newTestServer(t, &mockBackend{})
		code, _ := s.do(t, http.MethodPost, "/v1/editor/sessions", "", OpenEditorSessionReq{DocumentID: "abc"})
		if code != http.StatusBadRequest {
			t.Errorf("unexpected status %d", code)
		}
	})
}

func twoPageQuestionnaire() qtypes.Questionnaire {
	return qtypes.Questionnaire{
		ID:    "intake",
		Title: "Intake",
		Pages: []qtypes.QuestionPage{
			{ID: "p0", Questions: []qtypes.Question{
				{ID: "name", QuestionText: "Name", QuestionType: qtypes.QUESTION_TYPE_TEXT, IsRequired: true},
			}},
			{ID: "p1", Questions: []qtypes.Question{
				{ID: "symptoms", QuestionText: "Symptoms", QuestionType: qtypes.QUESTION_TYPE_MULTIPLE_CHOICE, Options: []string{"fever", "cough"}},
			}},
		},
	}
}

func TestQuestionnaireSession(t *testing.T) {
	backend := &mockBackend{questionnaire: twoPageQuestionnaire()}
	s := newTestServer(t, backend)
	token := userToken(t, "jane")

	code, resp := s.do(t, http.MethodPost, "/v1/questionnaires/sessions", token, StartQuestionnaireReq{QuestionnaireID: "intake"})
	if code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %v", code, resp)
	}
	id, _ := resp["sessionId"].(string)
	base := "/v1/questionnaires/sessions/" + id

	t.Run("next blocked by required question", func(t *testing.T) {
		code, resp := s.do(t, http.MethodPost, base+"/next", token, nil)
		if code != http.StatusUnprocessableEntity {
			t.Fatalf("unexpected status %d", code)
		}
		if sessionField(t, resp, "warning") == nil || sessionField(t, resp, "currentPageIndex") != float64(0) {
			t.Errorf("unexpected session: %v", resp)
		}
	})

	t.Run("previous on first page", func(t *testing.T) {
		if code, _ := s.do(t, http.MethodPost, base+"/previous", token, nil); code != http.StatusBadRequest {
			t.Errorf("unexpected status %d", code)
		}
	})

	t.Run("unknown question", func(t *testing.T) {
		code, _ := s.do(t, http.MethodPut, base+"/responses/nope", token, RecordResponseReq{AnswerValue: qtypes.StringAnswer("x")})
		if code != http.StatusNotFound {
			t.Errorf("unexpected status %d", code)
		}
	})

	t.Run("answer and advance", func(t *testing.T) {
		code, _ := s.do(t, http.MethodPut, base+"/responses/name", token, RecordResponseReq{AnswerValue: qtypes.StringAnswer("Jane")})
		if code != http.StatusOK {
			t.Fatalf("unexpected status %d", code)
		}
		code, resp := s.do(t, http.MethodPost, base+"/next", token, nil)
		if code != http.StatusOK || sessionField(t, resp, "currentPageIndex") != float64(1) || sessionField(t, resp, "progress") != float64(50) {
			t.Errorf("unexpected response %d: %v", code, resp)
		}
	})

	t.Run("multiple choice toggles", func(t *testing.T) {
		for _, option := range []string{"fever", "cough", "fever"} {
			if code, _ := s.do(t, http.MethodPut, base+"/responses/symptoms", token, RecordResponseReq{AnswerValue: qtypes.StringAnswer(option)}); code != http.StatusOK {
				t.Fatalf("unexpected status %d", code)
			}
		}
	})

	t.Run("draft", func(t *testing.T) {
		code, resp := s.do(t, http.MethodPost, base+"/draft", token, nil)
		if code != http.StatusOK || resp["responseId"] != "resp-1" {
			t.Errorf("unexpected response %d: %v", code, resp)
		}
	})

	t.Run("submit", func(t *testing.T) {
		code, resp := s.do(t, http.MethodPost, base+"/submit", token, nil)
		if code != http.StatusOK || sessionField(t, resp, "state") != string(engine.STATE_SUBMITTED) {
			t.Fatalf("unexpected response %d: %v", code, resp)
		}
		last := backend.submissions[len(backend.submissions)-1]
		if !last.IsCompleted || len(last.Responses) != 2 || last.Responses[1].AnswerValue != "cough" {
			t.Errorf("unexpected submission: %+v", last)
		}

		code, _ = s.do(t, http.MethodPost, base+"/submit", token, nil)
		if code != http.StatusConflict {
			t.Errorf("second submit: unexpected status %d", code)
		}
	})

	t.Run("close", func(t *testing.T) {
		if code, _ := s.do(t, http.MethodDelete, base, token, nil); code != http.StatusOK {
			t.Errorf("unexpected status %d", code)
		}
		if code, _ := s.do(t, http.MethodGet, base, token, nil); code != http.StatusNotFound {
			t.Errorf("unexpected status %d", code)
		}
	})
}

func TestQuestionnaireLoadFailure(t *testing.T) {
	s := newTestServer(t, &mockBackend{questionnaire: twoPageQuestionnaire()})
	token := userToken(t, "jane")

	code, resp := s.do(t, http.MethodPost, "/v1/questionnaires/sessions", token, StartQuestionnaireReq{QuestionnaireID: "missing"})
	if code != http.StatusBadGateway {
		t.Fatalf("unexpected status %d: %v", code, resp)
	}
	if sessionField(t, resp, "state") != string(engine.STATE_ERROR) {
		t.Errorf("unexpected session: %v", resp)
	}

	id, _ := resp["sessionId"].(string)
	code, _ = s.do(t, http.MethodPost, "/v1/questionnaires/sessions/"+id+"/reload", token, nil)
	if code != http.StatusBadGateway {
		t.Errorf("reload of missing questionnaire: unexpected status %d", code)
	}
}

func TestBundledQuestionnaireSession(t *testing.T) {
	s := newTestServer(t, &mockBackend{})
	token := userToken(t, "jane")

	code, resp := s.do(t, http.MethodPost, "/v1/questionnaires/sessions", token, StartQuestionnaireReq{QuestionnaireID: "/questionnaires/personal-health"})
	if code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %v", code, resp)
	}
	if sessionField(t, resp, "isBundled") != true {
		t.Errorf("expected bundled questionnaire: %v", resp)
	}

	id, _ := resp["sessionId"].(string)
	code, _ = s.do(t, http.MethodPost, "/v1/questionnaires/sessions/"+id+"/draft", token, nil)
	if code != http.StatusBadRequest {
		t.Errorf("draft of bundled questionnaire: unexpected status %d", code)
	}
}
