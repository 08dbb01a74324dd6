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

// ListOrdersByDate returns the active orders of a date sorted by deadline.
func (r *MongoDBRepository) ListOrdersByDate(ctx context.Context, date string) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "deadline_time", Value: 1}})
	cursor, err := r.db.Collection(ordersCollection).Find(ctx, notDeleted(bson.M{"date": date}), opts)
	if err != nil {
		return nil, fmt.Errorf("find orders of %s: %w", date, err)
	}

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

// GetOrder returns an active order.
func (r *MongoDBRepository) GetOrder(ctx context.Context, id string) (models.Order, error) {
	var order models.Order
	err := r.db.Collection(ordersCollection).FindOne(ctx, notDeleted(bson.M{"_id": id})).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("find order %s: %w", id, err)
	}
	return order, nil
}

// CreateOrder inserts a pending order.
func (r *MongoDBRepository) CreateOrder(ctx context.Context, order models.Order) (models.Order, error) {
	order.ID = newID()
	order.Status = models.OrderPending
	order.CreatedAt = r.now()

	if _, err := r.db.Collection(ordersCollection).InsertOne(ctx, order); err != nil {
		return models.Order{}, apperr.Persistence("insert order", err)
	}
	return order, nil
}

// CompleteOrder moves a pending order to completed. Completing an already
// completed order is a conflict.
func (r *MongoDBRepository) CompleteOrder(ctx context.Context, id string) (models.Order, error) {
	filter := notDeleted(bson.M{"_id": id, "status": models.OrderPending})
	update := bson.M{"$set": bson.M{"status": models.OrderCompleted}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := r.db.Collection(ordersCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := r.GetOrder(ctx, id); getErr != nil {
			return models.Order{}, getErr
		}
		return models.Order{}, fmt.Errorf("order %s already completed: %w", id, apperr.ErrConflict)
	}
	if err != nil {
		return models.Order{}, apperr.Persistence("complete order", err)
	}
	return order, nil
}

// DeleteOrder marks an order as deleted.
func (r *MongoDBRepository) DeleteOrder(ctx context.Context, id string) error {
	return r.softDelete(ctx, ordersCollection, id)
}
