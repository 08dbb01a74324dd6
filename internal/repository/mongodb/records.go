package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/avicola/internal/apperr"
	"github.com/mamadbah2/avicola/internal/domain/models"
)

// CreateRecord inserts an immutable weighing record.
func (r *MongoDBRepository) CreateRecord(ctx context.Context, record models.WeighingRecord) (models.WeighingRecord, error) {
	record.ID = newID()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.now()
	}

	if _, err := r.db.Collection(recordsCollection).InsertOne(ctx, record); err != nil {
		return models.WeighingRecord{}, apperr.Persistence("insert weighing record", err)
	}
	return record, nil
}

// ListRecords returns active records matching filter, newest first.
func (r *MongoDBRepository) ListRecords(ctx context.Context, filter models.RecordFilter) ([]models.WeighingRecord, error) {
	query := notDeleted(bson.M{})

	created := bson.M{}
	if !filter.From.IsZero() {
		created["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		created["$lte"] = filter.To
	}
	if len(created) > 0 {
		query["created_at"] = created
	}
	if filter.RecordType != "" {
		query["record_type"] = filter.RecordType
	}

	if filter.ZoneID != "" {
		ids, err := r.clientIDsInZone(ctx, filter.ZoneID)
		if err != nil {
			return nil, err
		}
		query["client_id"] = clientCondition(filter.ClientID, ids)
	} else if filter.ClientID != "" {
		query["client_id"] = filter.ClientID
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cursor, err := r.db.Collection(recordsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}

	records := []models.WeighingRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// DeleteRecord marks a record as deleted.
func (r *MongoDBRepository) DeleteRecord(ctx context.Context, id string) error {
	return r.softDelete(ctx, recordsCollection, id)
}

func (r *MongoDBRepository) clientIDsInZone(ctx context.Context, zoneID string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.db.Collection(clientsCollection).Find(ctx, bson.M{"zone_id": zoneID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find clients of zone %s: %w", zoneID, err)
	}

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode client ids: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// clientCondition restricts client_id to the clients of a zone and, when
// clientID is set, to that client as well. A client outside the zone matches
// nothing.
func clientCondition(clientID string, zoneClientIDs []string) bson.M {
	if clientID == "" {
		return bson.M{"$in": zoneClientIDs}
	}
	for _, id := range zoneClientIDs {
		if id == clientID {
			return bson.M{"$in": []string{clientID}}
		}
	}
	return bson.M{"$in": []string{}}
}
