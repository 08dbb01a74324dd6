package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/avicola/internal/apperr"
	"github.com/mamadbah2/avicola/internal/domain/models"
)

// ListZones returns all zones, most urgent first.
func (r *MongoDBRepository) ListZones(ctx context.Context) ([]models.Zone, error) {
	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := r.db.Collection(zonesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find zones: %w", err)
	}

	zones := []models.Zone{}
	if err := cursor.All(ctx, &zones); err != nil {
		return nil, fmt.Errorf("decode zones: %w", err)
	}
	return zones, nil
}

// SaveZone inserts a zone without ID or replaces an existing one.
func (r *MongoDBRepository) SaveZone(ctx context.Context, zone models.Zone) (models.Zone, error) {
	coll := r.db.Collection(zonesCollection)

	if zone.ID == "" {
		zone.ID = newID()
		zone.CreatedAt = r.now()
		if _, err := coll.InsertOne(ctx, zone); err != nil {
			return models.Zone{}, apperr.Persistence("insert zone", err)
		}
		return zone, nil
	}

	update := bson.M{"$set": bson.M{"name": zone.Name, "priority": zone.Priority}}
	res, err := coll.UpdateByID(ctx, zone.ID, update)
	if err != nil {
		return models.Zone{}, apperr.Persistence("update zone", err)
	}
	if res.MatchedCount == 0 {
		return models.Zone{}, fmt.Errorf("zone %s: %w", zone.ID, apperr.ErrNotFound)
	}
	return zone, nil
}

// DeleteZone removes a zone.
func (r *MongoDBRepository) DeleteZone(ctx context.Context, id string) error {
	res, err := r.db.Collection(zonesCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Persistence("delete zone", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("zone %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// ListClients returns clients that were not logically deleted.
func (r *MongoDBRepository) ListClients(ctx context.Context) ([]models.Client, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.db.Collection(clientsCollection).Find(ctx, notDeleted(bson.M{}), opts)
	if err != nil {
		return nil, fmt.Errorf("find clients: %w", err)
	}

	clients := []models.Client{}
	if err := cursor.All(ctx, &clients); err != nil {
		return nil, fmt.Errorf("decode clients: %w", err)
	}
	return clients, nil
}

// GetClient returns an active client.
func (r *MongoDBRepository) GetClient(ctx context.Context, id string) (models.Client, error) {
	var client models.Client
	err := r.db.Collection(clientsCollection).FindOne(ctx, notDeleted(bson.M{"_id": id})).Decode(&client)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Client{}, fmt.Errorf("client %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Client{}, fmt.Errorf("find client %s: %w", id, err)
	}
	return client, nil
}

// SaveClient inserts a client without ID or updates an active one.
func (r *MongoDBRepository) SaveClient(ctx context.Context, client models.Client) (models.Client, error) {
	coll := r.db.Collection(clientsCollection)

	if client.ID == "" {
		client.ID = newID()
		client.CreatedAt = r.now()
		if _, err := coll.InsertOne(ctx, client); err != nil {
			return models.Client{}, apperr.Persistence("insert client", err)
		}
		return client, nil
	}

	update := bson.M{"$set": bson.M{
		"name":             client.Name,
		"zone_id":          client.ZoneID,
		"default_price":    client.DefaultPrice,
		"default_cut_type": client.DefaultCutType,
	}}
	res, err := coll.UpdateOne(ctx, notDeleted(bson.M{"_id": client.ID}), update)
	if err != nil {
		return models.Client{}, apperr.Persistence("update client", err)
	}
	if res.MatchedCount == 0 {
		return models.Client{}, fmt.Errorf("client %s: %w", client.ID, apperr.ErrNotFound)
	}
	return client, nil
}

// DeleteClient marks a client as deleted. Historical records keep pointing
// to it.
func (r *MongoDBRepository) DeleteClient(ctx context.Context, id string) error {
	return r.softDelete(ctx, clientsCollection, id)
}

func (r *MongoDBRepository) softDelete(ctx context.Context, coll, id string) error {
	res, err := r.db.Collection(coll).UpdateOne(ctx, notDeleted(bson.M{"_id": id}), bson.M{"$set": bson.M{"deleted": true}})
	if err != nil {
		return apperr.Persistence("soft delete "+coll, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", coll, id, apperr.ErrNotFound)
	}
	return nil
}
