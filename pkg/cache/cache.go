// Package cache keeps read results of the records backend. Entries are
// registered under resource tags so writes can drop every key of a resource.
package cache

import (
	"context"
	"encoding/json"
)

const (
	tagDocumentPrefix      = "document:"
	tagQuestionnairePrefix = "questionnaire:"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, tags ...string) error
	InvalidateTag(ctx context.Context, tag string) error
}

func DocumentTag(documentID string) string {
	return tagDocumentPrefix + documentID
}

func QuestionnaireTag(questionnaireID string) string {
	return tagQuestionnairePrefix + questionnaireID
}

// GetJSON reads key and unmarshals it into out. A nil cache always misses.
func GetJSON(ctx context.Context, c Cache, key string, out interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func SetJSON(ctx context.Context, c Cache, key string, value interface{}, tags ...string) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, tags...)
}
