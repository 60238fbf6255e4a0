package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AdminRepository checks the admin allowlist collection by email.
type AdminRepository struct {
	col *mongo.Collection
}

// NewAdminRepository creates a repository over the allowlist collection of db.
func NewAdminRepository(db *mongo.Database) *AdminRepository {
	return &AdminRepository{col: db.Collection(AdminCollection)}
}

// IsAdmin reports whether an allowlist entry has an email equal to email,
// ignoring case.
func (r *AdminRepository) IsAdmin(ctx context.Context, email string) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"email": email},
		options.Count().SetLimit(1).SetCollation(caseInsensitive))
	if err != nil {
		return false, fmt.Errorf("query admin allowlist: %w", err)
	}
	return n > 0, nil
}

// Add puts email on the allowlist. The document id is the email as well, so
// older readers that look entries up by id keep working.
func (r *AdminRepository) Add(ctx context.Context, email string) error {
	_, err := r.col.UpdateByID(ctx, email, bson.M{"$set": bson.M{"email": email}}, upsert())
	if err != nil {
		return fmt.Errorf("add admin %s: %w", email, err)
	}
	return nil
}

func upsert() *options.UpdateOptions {
	return options.Update().SetUpsert(true)
}
