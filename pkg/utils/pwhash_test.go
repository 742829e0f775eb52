package utils

import "testing"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("matching password", func(t *testing.T) {
		match, err := ComparePasswordWithHash(hash, "correct horse")
		if err != nil || !match {
			t.Errorf("expected match, got %v %v", match, err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		match, err := ComparePasswordWithHash(hash, "battery staple")
		if err != nil || match {
			t.Errorf("expected mismatch without error, got %v %v", match, err)
		}
	})

	t.Run("broken hash", func(t *testing.T) {
		if _, err := ComparePasswordWithHash("not-a-hash", "x"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("empty password", func(t *testing.T) {
		if _, err := HashPassword(""); err != ErrEmptyPassword {
			t.Errorf("expected ErrEmptyPassword, got %v", err)
		}
	})
}
