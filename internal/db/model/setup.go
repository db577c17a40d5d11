package model

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stakeflow/stakeflow-indexer/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const setupTimeout = 30 * time.Second

type index struct {
	Indexes map[string]int
	Unique  bool
}

var collections = map[string][]index{
	KeyValueCollection:       {{Indexes: map[string]int{}}},
	DashboardStatsCollection: {{Indexes: map[string]int{}}},
	WalletStatsCollection:    {{Indexes: map[string]int{"rank": 1}, Unique: false}},
}

// Setup creates the mongo collections and their indexes. It is a no-op for
// collections that already exist.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	ctx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}

	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to disconnect from mongo after setup")
		}
	}()

	database := client.Database(cfg.DbName)

	existing, err := database.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, name := range existing {
		present[name] = true
	}

	for collection, indexes := range collections {
		if !present[collection] {
			if err := database.CreateCollection(ctx, collection); err != nil {
				return fmt.Errorf("failed to create collection %s: %w", collection, err)
			}
		}

		for _, idx := range indexes {
			if len(idx.Indexes) == 0 {
				continue
			}
			if err := createIndex(ctx, database, collection, idx); err != nil {
				return err
			}
		}
	}

	log.Ctx(ctx).Info().Msg("collections and indexes created")
	return nil
}

func createIndex(ctx context.Context, database *mongo.Database, collectionName string, idx index) error {
	keys := bson.D{}
	for field, order := range idx.Indexes {
		keys = append(keys, bson.E{Key: field, Value: order})
	}

	indexModel := mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(idx.Unique),
	}

	_, err := database.Collection(collectionName).Indexes().CreateOne(ctx, indexModel)
	if err != nil {
		return fmt.Errorf("failed to create index on %s: %w", collectionName, err)
	}
	return nil
}
