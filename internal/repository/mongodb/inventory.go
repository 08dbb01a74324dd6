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

// GetOpening returns the opening of date, or nil when the day was not opened.
func (r *MongoDBRepository) GetOpening(ctx context.Context, date string) (*models.DailyOpening, error) {
	var opening models.DailyOpening
	err := r.db.Collection(openingsCollection).FindOne(ctx, bson.M{"_id": date}).Decode(&opening)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find opening of %s: %w", date, err)
	}
	return &opening, nil
}

// CreateOpening stores the opening of a date. The date is the document key so
// a second opening is rejected as a conflict.
func (r *MongoDBRepository) CreateOpening(ctx context.Context, opening models.DailyOpening) (models.DailyOpening, error) {
	opening.CreatedAt = r.now()
	if _, err := r.db.Collection(openingsCollection).InsertOne(ctx, opening); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.DailyOpening{}, fmt.Errorf("opening of %s already exists: %w", opening.Date, apperr.ErrConflict)
		}
		return models.DailyOpening{}, apperr.Persistence("insert opening", err)
	}
	return opening, nil
}

// AppendMovement appends an entry to the inventory ledger.
func (r *MongoDBRepository) AppendMovement(ctx context.Context, movement models.InventoryMovement) (models.InventoryMovement, error) {
	movement.ID = newID()
	movement.CreatedAt = r.now()
	if _, err := r.db.Collection(movementsCollection).InsertOne(ctx, movement); err != nil {
		return models.InventoryMovement{}, apperr.Persistence("insert movement", err)
	}
	return movement, nil
}

// ListMovements returns the ledger entries of date in insertion order.
func (r *MongoDBRepository) ListMovements(ctx context.Context, date string) ([]models.InventoryMovement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.db.Collection(movementsCollection).Find(ctx, bson.M{"date": date}, opts)
	if err != nil {
		return nil, fmt.Errorf("find movements of %s: %w", date, err)
	}

	movements := []models.InventoryMovement{}
	if err := cursor.All(ctx, &movements); err != nil {
		return nil, fmt.Errorf("decode movements: %w", err)
	}
	return movements, nil
}
