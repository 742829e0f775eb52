// Package registry keeps the live editor and questionnaire sessions of the
// portal, keyed by random ids and bound to the user that opened them.
package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotOwner        = errors.New("session belongs to another user")
)

type entry[T any] struct {
	ownerID   string
	value     T
	createdAt time.Time
}

// Registry expires sessions after ttl without access. Every session that
// leaves the registry, by removal, expiry or capacity, is passed to onClose.
type Registry[T any] struct {
	items   *expirable.LRU[string, *entry[T]]
	onClose func(T)
	closing sync.WaitGroup
}

func New[T any](size int, ttl time.Duration, onClose func(T)) *Registry[T] {
	r := &Registry[T]{onClose: onClose}
	r.items = expirable.NewLRU[string, *entry[T]](size, r.evicted, ttl)
	return r
}

// evicted runs with the LRU lock held, closing happens asynchronously.
func (r *Registry[T]) evicted(_ string, e *entry[T]) {
	if r.onClose == nil {
		return
	}
	r.closing.Add(1)
	go func() {
		defer r.closing.Done()
		r.onClose(e.value)
	}()
}

func (r *Registry[T]) Add(ownerID string, value T) string {
	id := uuid.NewString()
	r.items.Add(id, &entry[T]{
		ownerID:   ownerID,
		value:     value,
		createdAt: time.Now(),
	})
	return id
}

// Get returns the session and extends its lifetime.
func (r *Registry[T]) Get(id string, ownerID string) (T, error) {
	var zero T
	e, ok := r.items.Get(id)
	if !ok {
		return zero, ErrSessionNotFound
	}
	if e.ownerID != ownerID {
		return zero, ErrNotOwner
	}
	r.items.Add(id, e)
	return e.value, nil
}

func (r *Registry[T]) Remove(id string, ownerID string) error {
	e, ok := r.items.Peek(id)
	if !ok {
		return ErrSessionNotFound
	}
	if e.ownerID != ownerID {
		return ErrNotOwner
	}
	r.items.Remove(id)
	return nil
}

func (r *Registry[T]) Len() int {
	return r.items.Len()
}

// CloseAll drops every session and waits until all of them are closed.
func (r *Registry[T]) CloseAll() {
	r.items.Purge()
	r.closing.Wait()
}
