package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const errCodeNamespaceNotFound = 26

// ListCollectionIndexes returns the index specs of collection, or an empty
// list when the collection does not exist yet.
func ListCollectionIndexes(ctx context.Context, collection *mongo.Collection) ([]bson.M, error) {
	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == errCodeNamespaceNotFound {
			return []bson.M{}, nil
		}
		return nil, err
	}
	defer cursor.Close(ctx)

	indexes := []bson.M{}
	if err = cursor.All(ctx, &indexes); err != nil {
		return nil, err
	}
	return indexes, nil
}

// IndexNames extracts the names of the non default indexes.
func IndexNames(indexes []bson.M) []string {
	names := []string{}
	for _, index := range indexes {
		name, ok := index["name"].(string)
		if !ok || name == "_id_" {
			continue
		}
		names = append(names, name)
	}
	return names
}

func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
