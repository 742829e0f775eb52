package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwthandling "github.com/case-framework/records-portal/pkg/jwt-handling"
	"github.com/gin-gonic/gin"
)

func newTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		sc := SessionFromCtx(c)
		userID := ""
		if sc != nil {
			userID = sc.UserID
		}
		c.JSON(http.StatusOK, gin.H{"userID": userID})
	})
	r.POST("/test", handlers...)
	return r
}

func TestGetAndValidateUserJWT(t *testing.T) {
	signKey := "sign-key"
	r := newTestRouter(GetAndValidateUserJWT(signKey))

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/test", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("unexpected status: %d", w.Code)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/test", nil)
		req.Header.Set(HeaderAuthorization, "Bearer garbage")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("unexpected status: %d", w.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		token, _ := jwthandling.GenerateNewUserToken(time.Minute, "u1", "", "", false, signKey)
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/test", nil)
		req.Header.Set(HeaderAuthorization, "Bearer "+token)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("unexpected status: %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), `"u1"`) {
			t.Errorf("session missing in context: %s", w.Body.String())
		}
	})
}

func TestIsAdminUser(t *testing.T) {
	signKey := "sign-key"
	r := newTestRouter(GetAndValidateUserJWT(signKey), IsAdminUser())

	for _, isAdmin := range []bool{true, false} {
		token, _ := jwthandling.GenerateNewUserToken(time.Minute, "u1", "", "", isAdmin, signKey)
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/test", nil)
		req.Header.Set(HeaderAuthorization, "Bearer "+token)
		r.ServeHTTP(w, req)

		want := http.StatusUnauthorized
		if isAdmin {
			want = http.StatusOK
		}
		if w.Code != want {
			t.Errorf("isAdmin=%v: unexpected status %d", isAdmin, w.Code)
		}
	}
}

func TestHasValidAPIKey(t *testing.T) {
	r := newTestRouter(HasValidAPIKey([]string{"key-1", "key-2"}))

	tests := []struct {
		name   string
		key    string
		status int
	}{
		{name: "missing", key: "", status: http.StatusBadRequest},
		{name: "wrong", key: "nope", status: http.StatusUnauthorized},
		{name: "valid", key: "key-2", status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/test", nil)
			if tt.key != "" {
				req.Header.Set(HeaderAPIKey, tt.key)
			}
			r.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Errorf("unexpected status: %d", w.Code)
			}
		})
	}
}

func TestRequirePayload(t *testing.T) {
	r := newTestRouter(RequirePayload())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/test", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("unexpected status: %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/test", strings.NewReader("%PDF-1.7")))
	if w.Code != http.StatusOK {
		t.Errorf("unexpected status: %d", w.Code)
	}
}
