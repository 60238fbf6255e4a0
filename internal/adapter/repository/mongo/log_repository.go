package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/V4T54L/waste-watch/internal/domain"
)

type logDocument struct {
	ID        bson.RawValue `bson:"_id"`
	WasteType string        `bson:"waste_type"`
	Timestamp bson.RawValue `bson:"timestamp"`
	UserID    string        `bson:"user_id"`
	Sensor    bool          `bson:"garbage_type_sensor"`
	BinID     string        `bson:"bin_id"`
	Status    string        `bson:"status"`
}

// WasteLogRepository reads the waste log collection newest first.
type WasteLogRepository struct {
	col    *mongo.Collection
	logger *slog.Logger
	now    func() time.Time
	find   func(ctx context.Context, q pageQuery, limit int) ([]domain.LogRecord, error)
}

// NewWasteLogRepository creates a repository over the log collection of db.
func NewWasteLogRepository(db *mongo.Database, logger *slog.Logger) *WasteLogRepository {
	r := &WasteLogRepository{
		col:    db.Collection(LogCollection),
		logger: logger.With("component", "mongo_log_repository"),
		now:    time.Now,
	}
	r.find = r.findRecords
	return r
}

// FetchPage implements domain.WasteLogRepository.
//
// Records whose timestamp is a BSON date come first, ordered by timestamp
// then _id, both descending. Records without one follow, ordered by _id
// descending. A page that runs out of dated records is topped up from the
// start of the undated run.
func (r *WasteLogRepository) FetchPage(ctx context.Context, after *domain.Cursor, limit int) ([]domain.LogRecord, error) {
	records := make([]domain.LogRecord, 0, limit)
	if after == nil || !after.Untimed {
		dated, err := r.find(ctx, datedQuery(after), limit)
		if err != nil {
			return nil, err
		}
		records = append(records, dated...)
		if len(records) >= limit {
			return records, nil
		}
		after = nil
	}
	undated, err := r.find(ctx, undatedQuery(after), limit-len(records))
	if err != nil {
		return nil, err
	}
	return append(records, undated...), nil
}

func (r *WasteLogRepository) findRecords(ctx context.Context, q pageQuery, limit int) ([]domain.LogRecord, error) {
	opts := options.Find().SetSort(q.sort).SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, q.filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find waste logs: %w", err)
	}
	defer cur.Close(ctx)

	records := make([]domain.LogRecord, 0, limit)
	for cur.Next(ctx) {
		var doc logDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode waste log: %w", err)
		}
		records = append(records, r.toRecord(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate waste logs: %w", err)
	}
	return records, nil
}

func (r *WasteLogRepository) toRecord(doc logDocument) domain.LogRecord {
	rec := domain.LogRecord{
		ID:              idString(doc.ID),
		WasteTypeKey:    doc.WasteType,
		UserID:          doc.UserID,
		SortedCorrectly: doc.Sensor,
		BinID:           doc.BinID,
		Status:          doc.Status,
	}
	if t, ok := doc.Timestamp.TimeOK(); ok {
		rec.Timestamp = t.UTC()
	} else {
		// Read-time fallback only; nothing is written back.
		rec.Timestamp = r.now().UTC()
		rec.TimestampMissing = true
	}
	if rec.BinID == "" {
		rec.BinID = domain.UnassignedBin
	}
	return rec
}

type pageQuery struct {
	filter bson.M
	sort   bson.D
}

// datedQuery selects records with a BSON date timestamp strictly after c in
// (timestamp desc, _id desc) order. BSON timestamp values are not dates here.
func datedQuery(c *domain.Cursor) pageQuery {
	dated := bson.M{"timestamp": bson.M{"$type": "date"}}
	q := pageQuery{
		filter: dated,
		sort:   bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}},
	}
	if c != nil {
		q.filter = bson.M{"$and": bson.A{dated, bson.M{"$or": bson.A{
			bson.M{"timestamp": bson.M{"$lt": c.Timestamp}},
			bson.M{"$and": bson.A{bson.M{"timestamp": c.Timestamp}, idBefore(c.ID)}},
		}}}}
	}
	return q
}

// undatedQuery selects records without a date timestamp strictly after the
// id of c in _id desc order. A nil c starts the undated run.
func undatedQuery(c *domain.Cursor) pageQuery {
	undated := bson.M{"timestamp": bson.M{"$not": bson.M{"$type": "date"}}}
	q := pageQuery{
		filter: undated,
		sort:   bson.D{{Key: "_id", Value: -1}},
	}
	if c != nil {
		q.filter = bson.M{"$and": bson.A{undated, idBefore(c.ID)}}
	}
	return q
}

// idBefore matches ids that sort after id in _id desc order. Ids are
// ObjectIDs or strings; every string sorts below every ObjectID.
func idBefore(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"$or": bson.A{
			bson.M{"_id": bson.M{"$lt": oid}},
			bson.M{"_id": bson.M{"$type": "string"}},
		}}
	}
	return bson.M{"_id": bson.M{"$lt": id}}
}

func idString(v bson.RawValue) string {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	return v.String()
}
