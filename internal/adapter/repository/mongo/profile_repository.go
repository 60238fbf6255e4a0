package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/V4T54L/waste-watch/internal/domain"
)

type profileDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	FirebaseUID  string    `bson:"firebase_uid"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"update_at"`
	UserPoint    int       `bson:"user_point"`
	DepartmentID string    `bson:"department_id"`
}

// ProfileRepository stores user profiles keyed by identity uid.
type ProfileRepository struct {
	col *mongo.Collection
}

// NewProfileRepository creates a repository over the profile collection of db.
func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection(ProfileCollection)}
}

// Create writes the profile. It replaces any existing document with the same
// uid so a retried sign-up converges on one profile.
func (r *ProfileRepository) Create(ctx context.Context, p domain.UserProfile) error {
	doc := profileDocument{
		ID:           p.UID,
		Name:         p.Name,
		Email:        p.Email,
		FirebaseUID:  p.UID,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		UserPoint:    p.UserPoint,
		DepartmentID: p.DepartmentID,
	}
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": p.UID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("write profile %s: %w", p.UID, err)
	}
	return nil
}

// Get implements domain.ProfileRepository.
func (r *ProfileRepository) Get(ctx context.Context, uid string) (*domain.UserProfile, error) {
	var doc profileDocument
	err := r.col.FindOne(ctx, bson.M{"_id": uid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find profile %s: %w", uid, err)
	}
	return &domain.UserProfile{
		UID:          doc.ID,
		Name:         doc.Name,
		Email:        doc.Email,
		UserPoint:    doc.UserPoint,
		DepartmentID: doc.DepartmentID,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}
