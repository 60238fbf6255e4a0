package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names shared with the mobile app and the ingestion path.
const (
	LogCollection       = "waste_management_id"
	ReferenceCollection = "waste_type"
	ProfileCollection   = "user_id"
	AdminCollection     = "admin_id"
	IdentityCollection  = "identities"
)

const connectTimeout = 15 * time.Second

// Connect opens a client to uri and verifies it with a ping.
func Connect(ctx context.Context, uri string, logger *slog.Logger) (*mongo.Client, error) {
	start := time.Now()
	logger.Info("connecting to mongo", "uri", redactURI(uri))

	dctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to mongo", "took", time.Since(start).Round(time.Millisecond))
	return client, nil
}

// EnsureIndexes creates the indexes the repositories rely on. Failures are
// collected and returned together; existing indexes are left alone.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var errs []error
	if _, err := db.Collection(LogCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}},
	}); err != nil {
		errs = append(errs, fmt.Errorf("%s timestamp: %w", LogCollection, err))
	}
	if _, err := db.Collection(IdentityCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		errs = append(errs, fmt.Errorf("%s email: %w", IdentityCollection, err))
	}
	if _, err := db.Collection(AdminCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetCollation(caseInsensitive),
	}); err != nil {
		errs = append(errs, fmt.Errorf("%s email: %w", AdminCollection, err))
	}
	return errors.Join(errs...)
}

// caseInsensitive compares strings ignoring case.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

func redactURI(raw string) string {
	if raw == "" || !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}
