package db

import (
	"context"
	"time"

	"github.com/stakeflow/stakeflow-indexer/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpsertDashboardStats updates or inserts the dashboard stats singleton
func (db *Database) UpsertDashboardStats(ctx context.Context, stats *model.DashboardStatsDocument) error {
	doc := *stats
	doc.ID = model.DashboardStatsID
	doc.LastUpdated = time.Now().Unix()

	filter := bson.M{"_id": model.DashboardStatsID}
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)

	_, err := db.collection(model.DashboardStatsCollection).UpdateOne(ctx, filter, update, opts)
	return err
}

// ReplaceWalletStats swaps the whole wallet leaderboard for rows
func (db *Database) ReplaceWalletStats(ctx context.Context, rows []*model.WalletStatsDocument) error {
	collection := db.collection(model.WalletStatsCollection)

	if _, err := collection.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	docs := make([]any, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row)
	}

	_, err := collection.InsertMany(ctx, docs)
	return err
}
