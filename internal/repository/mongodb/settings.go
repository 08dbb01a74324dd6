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

// EnsureSettings seeds the settings singleton when it does not exist yet.
func (r *MongoDBRepository) EnsureSettings(ctx context.Context, defaults models.Settings) error {
	defaults.UpdatedAt = r.now()
	opts := options.Update().SetUpsert(true)
	_, err := r.db.Collection(settingsCollection).UpdateByID(ctx, settingsID, bson.M{"$setOnInsert": defaults}, opts)
	if err != nil {
		return apperr.Persistence("seed settings", err)
	}
	return nil
}

// GetSettings reads the settings singleton.
func (r *MongoDBRepository) GetSettings(ctx context.Context) (models.Settings, error) {
	var settings models.Settings
	err := r.db.Collection(settingsCollection).FindOne(ctx, bson.M{"_id": settingsID}).Decode(&settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Settings{}, fmt.Errorf("settings: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("find settings: %w", err)
	}
	return settings, nil
}

// SaveSettings overwrites the settings singleton.
func (r *MongoDBRepository) SaveSettings(ctx context.Context, settings models.Settings) (models.Settings, error) {
	settings.UpdatedAt = r.now()
	opts := options.Replace().SetUpsert(true)
	if _, err := r.db.Collection(settingsCollection).ReplaceOne(ctx, bson.M{"_id": settingsID}, settings, opts); err != nil {
		return models.Settings{}, apperr.Persistence("save settings", err)
	}
	return settings, nil
}
