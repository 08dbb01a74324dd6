package mongodb

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/avicola/internal/apperr"
)

// photoBucket opens the GridFS bucket for one call. Buckets carry their own
// read/write deadlines, so they are never shared between requests.
func (r *MongoDBRepository) photoBucket(ctx context.Context) (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(r.db, options.GridFSBucket().SetName(photosBucket))
	if err != nil {
		return nil, fmt.Errorf("open photo bucket: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set photo write deadline: %w", err)
		}
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set photo read deadline: %w", err)
		}
	}
	return bucket, nil
}

func photoID(ref string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("photo %s: %w", ref, apperr.ErrNotFound)
	}
	return id, nil
}

// SavePhoto stores a scale photo in GridFS and returns its reference.
func (r *MongoDBRepository) SavePhoto(ctx context.Context, name, contentType string, data []byte) (string, error) {
	bucket, err := r.photoBucket(ctx)
	if err != nil {
		return "", apperr.Persistence("upload photo", err)
	}

	opts := options.GridFSUpload().SetMetadata(bson.M{"content_type": contentType})
	id, err := bucket.UploadFromStream(name, bytes.NewReader(data), opts)
	if err != nil {
		return "", apperr.Persistence("upload photo", err)
	}
	return id.Hex(), nil
}

// LoadPhoto reads a scale photo back by reference.
func (r *MongoDBRepository) LoadPhoto(ctx context.Context, ref string) ([]byte, error) {
	id, err := photoID(ref)
	if err != nil {
		return nil, err
	}
	bucket, err := r.photoBucket(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := bucket.DownloadToStream(id, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, fmt.Errorf("photo %s: %w", ref, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("download photo %s: %w", ref, err)
	}
	return buf.Bytes(), nil
}

// DeletePhoto removes a stored photo and its chunks.
func (r *MongoDBRepository) DeletePhoto(ctx context.Context, ref string) error {
	id, err := photoID(ref)
	if err != nil {
		return err
	}
	bucket, err := r.photoBucket(ctx)
	if err != nil {
		return apperr.Persistence("delete photo", err)
	}

	if err := bucket.Delete(id); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("photo %s: %w", ref, apperr.ErrNotFound)
		}
		return apperr.Persistence("delete photo", err)
	}
	return nil
}
