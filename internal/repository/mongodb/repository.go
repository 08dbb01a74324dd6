package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	zonesCollection     = "zones"
	clientsCollection   = "clients"
	ordersCollection    = "orders"
	recordsCollection   = "records"
	settingsCollection  = "settings"
	movementsCollection = "inventory_movements"
	openingsCollection  = "daily_openings"
	reportsCollection   = "daily_reports"
	photosBucket        = "scale_photos"

	settingsID = "global"
)

// MongoDBRepository is the storage collaborator of the board. It implements
// the repository interfaces consumed by the services.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// NewMongoDBRepository connects, pings and prepares indexes.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		now:    time.Now,
	}

	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		ordersCollection: {
			{Keys: bson.D{{Key: "date", Value: 1}, {Key: "deadline_time", Value: 1}}},
		},
		recordsCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "client_id", Value: 1}}},
		},
		movementsCollection: {
			{Keys: bson.D{{Key: "date", Value: 1}}},
		},
		clientsCollection: {
			{Keys: bson.D{{Key: "zone_id", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := r.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Ping verifies the connection is alive.
func (r *MongoDBRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func notDeleted(filter bson.M) bson.M {
	filter["deleted"] = bson.M{"$ne": true}
	return filter
}
