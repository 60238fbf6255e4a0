package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/V4T54L/waste-watch/internal/domain"
)

type identityDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	DisplayName  string    `bson:"display_name"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

// IdentityRepository stores provider identities. Emails are unique.
type IdentityRepository struct {
	col *mongo.Collection
}

// NewIdentityRepository creates a repository over the identity collection of db.
func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{col: db.Collection(IdentityCollection)}
}

// Create implements domain.IdentityRepository.
func (r *IdentityRepository) Create(ctx context.Context, id domain.Identity) error {
	_, err := r.col.InsertOne(ctx, identityDocument{
		ID:           id.UID,
		Email:        id.Email,
		DisplayName:  id.DisplayName,
		PasswordHash: id.PasswordHash,
		CreatedAt:    id.CreatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

// FindByEmail implements domain.IdentityRepository.
func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByID implements domain.IdentityRepository.
func (r *IdentityRepository) FindByID(ctx context.Context, uid string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"_id": uid})
}

// Delete implements domain.IdentityRepository. Deleting a missing identity is not an error.
func (r *IdentityRepository) Delete(ctx context.Context, uid string) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": uid}); err != nil {
		return fmt.Errorf("delete identity %s: %w", uid, err)
	}
	return nil
}

func (r *IdentityRepository) findOne(ctx context.Context, filter bson.M) (*domain.Identity, error) {
	var doc identityDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return &domain.Identity{
		UID:          doc.ID,
		Email:        doc.Email,
		DisplayName:  doc.DisplayName,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, nil
}
