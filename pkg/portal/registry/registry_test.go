package registry

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type closeRecorder struct {
	mu     sync.Mutex
	closed []string
	ch     chan string
}

func newCloseRecorder() *closeRecorder {
	return &closeRecorder{ch: make(chan string, 10)}
}

func (c *closeRecorder) onClose(v string) {
	c.mu.Lock()
	c.closed = append(c.closed, v)
	c.mu.Unlock()
	c.ch <- v
}

func (c *closeRecorder) wait(t *testing.T) string {
	select {
	case v := <-c.ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("session was not closed")
	}
	return ""
}

func TestRegistry(t *testing.T) {
	rec := newCloseRecorder()
	r := New[string](10, time.Minute, rec.onClose)

	id := r.Add("user1", "editor-doc1")
	if id == "" || r.Len() != 1 {
		t.Fatalf("unexpected add result: %q %d", id, r.Len())
	}

	t.Run("get by owner", func(t *testing.T) {
		v, err := r.Get(id, "user1")
		if err != nil || v != "editor-doc1" {
			t.Errorf("unexpected result: %v %v", v, err)
		}
	})

	t.Run("get by other user", func(t *testing.T) {
		if _, err := r.Get(id, "user2"); !errors.Is(err, ErrNotOwner) {
			t.Errorf("expected ErrNotOwner, got %v", err)
		}
		if err := r.Remove(id, "user2"); !errors.Is(err, ErrNotOwner) {
			t.Errorf("expected ErrNotOwner, got %v", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := r.Get("nope", "user1"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("remove closes", func(t *testing.T) {
		if err := r.Remove(id, "user1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v := rec.wait(t); v != "editor-doc1" {
			t.Errorf("unexpected closed session: %s", v)
		}
		if _, err := r.Get(id, "user1"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestRegistryExpiry(t *testing.T) {
	rec := newCloseRecorder()
	r := New[string](10, 20*time.Millisecond, rec.onClose)
	id := r.Add("user1", "q1")
	if v := rec.wait(t); v != "q1" {
		t.Errorf("unexpected closed session: %s", v)
	}
	if _, err := r.Get(id, "user1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRegistryCapacity(t *testing.T) {
	rec := newCloseRecorder()
	r := New[string](1, time.Minute, rec.onClose)
	r.Add("user1", "first")
	r.Add("user1", "second")
	if v := rec.wait(t); v != "first" {
		t.Errorf("oldest session should be evicted, got %s", v)
	}
}

func TestRegistryCloseAll(t *testing.T) {
	rec := newCloseRecorder()
	r := New[string](10, time.Minute, rec.onClose)
	r.Add("user1", "a")
	r.Add("user2", "b")

	r.CloseAll()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.closed) != 2 || r.Len() != 0 {
		t.Errorf("expected all sessions closed before return, got %v", rec.closed)
	}
}
