package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/V4T54L/waste-watch/internal/domain"
)

type referenceDocument struct {
	WasteType string `bson:"waste_type"`
	WasteName string `bson:"waste_name"`
}

// ReferenceRepository resolves waste type keys, which are the document ids
// of the reference collection.
type ReferenceRepository struct {
	col *mongo.Collection
}

// NewReferenceRepository creates a repository over the reference collection of db.
func NewReferenceRepository(db *mongo.Database) *ReferenceRepository {
	return &ReferenceRepository{col: db.Collection(ReferenceCollection)}
}

// GetWasteType implements domain.ReferenceRepository.
func (r *ReferenceRepository) GetWasteType(ctx context.Context, key string) (*domain.ReferenceTypeEntry, error) {
	var doc referenceDocument
	err := r.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find waste type %s: %w", key, err)
	}
	return &domain.ReferenceTypeEntry{
		Key:         key,
		DisplayCode: doc.WasteType,
		DisplayName: doc.WasteName,
	}, nil
}

// Upsert writes the reference entry for e.Key.
func (r *ReferenceRepository) Upsert(ctx context.Context, e domain.ReferenceTypeEntry) error {
	_, err := r.col.UpdateByID(ctx, e.Key,
		bson.M{"$set": referenceDocument{WasteType: e.DisplayCode, WasteName: e.DisplayName}},
		upsert(),
	)
	if err != nil {
		return fmt.Errorf("upsert waste type %s: %w", e.Key, err)
	}
	return nil
}
