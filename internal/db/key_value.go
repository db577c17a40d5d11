package db

import (
	"context"
	"errors"
	"time"

	"github.com/stakeflow/stakeflow-indexer/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *Database) GetKeyValue(ctx context.Context, key string) (string, error) {
	filter := bson.M{"_id": key}
	res := db.collection(model.KeyValueCollection).FindOne(ctx, filter)

	var doc model.KeyValueDocument
	err := res.Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", &NotFoundError{
				Key:     key,
				Message: "key not found: " + key,
			}
		}
		return "", err
	}

	return doc.Value, nil
}

func (db *Database) SaveKeyValue(ctx context.Context, key, value string) error {
	filter := bson.M{"_id": key}
	update := bson.M{
		"$set": bson.M{
			"value":        value,
			"last_updated": time.Now().Unix(),
		},
	}

	_, err := db.collection(model.KeyValueCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
