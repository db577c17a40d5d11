package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// CountDocuments exposes the collection size of the mongo store to the integration tests.
func (db *Database) CountDocuments(ctx context.Context, collection string) (int64, error) {
	return db.collection(collection).CountDocuments(ctx, bson.M{})
}
