package db

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIndexNames(t *testing.T) {
	indexes := []bson.M{
		{"name": "_id_"},
		{"name": "documentId_1_version_-1"},
		{"key": bson.M{"x": 1}},
		{"name": "lock.expiresAt_1"},
	}
	want := []string{"documentId_1_version_-1", "lock.expiresAt_1"}
	if got := IndexNames(indexes); !reflect.DeepEqual(got, want) {
		t.Errorf("IndexNames() = %v, want %v", got, want)
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(fmt.Errorf("wrapped: %w", mongo.ErrNoDocuments)) {
		t.Error("wrapped ErrNoDocuments should be not found")
	}
	if IsNotFound(errors.New("other")) {
		t.Error("other errors are not not-found")
	}
}
