package session

import (
	"testing"
	"time"

	jwthandling "github.com/case-framework/records-portal/pkg/jwt-handling"
)

func TestIsAuthenticated(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		sc   *Context
		want bool
	}{
		{name: "nil context", sc: nil, want: false},
		{name: "missing token", sc: &Context{UserID: "u1"}, want: false},
		{name: "missing user", sc: &Context{Token: "t"}, want: false},
		{name: "no expiry", sc: &Context{Token: "t", UserID: "u1"}, want: true},
		{name: "expired", sc: &Context{Token: "t", UserID: "u1", ExpiresAt: now.Add(-time.Second)}, want: false},
		{name: "valid", sc: &Context{Token: "t", UserID: "u1", ExpiresAt: now.Add(time.Hour)}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sc.IsAuthenticated(now); got != tt.want {
				t.Errorf("IsAuthenticated() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromToken(t *testing.T) {
	token, err := jwthandling.GenerateNewUserToken(time.Hour, "u1", "jane@example.org", "Jane", true, "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sc, err := FromToken(token, "key")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
		return
	}
	if sc.UserID != "u1" || !sc.IsAdmin || sc.Token != token {
		t.Errorf("unexpected context: %+v", sc)
	}
	if err := sc.Require(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if _, err := FromToken(token, "wrong"); err == nil {
		t.Error("should produce error")
	}
}
