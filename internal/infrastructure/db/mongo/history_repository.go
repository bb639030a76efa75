package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lookupbot/credit-engine/internal/core/domain"
)

const collectionHistory = "history"

const defaultHistoryLimit = 50

// HistoryRepository is the append-only query log.
type HistoryRepository struct {
	col *mongo.Collection
}

func NewHistoryRepository(db *mongo.Database) *HistoryRepository {
	return &HistoryRepository{col: db.Collection(collectionHistory)}
}

// Append inserts one log entry. Entries are never updated or deleted.
func (r *HistoryRepository) Append(ctx context.Context, rec *domain.HistoryRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// ListByUser returns the user's most recent entries first, up to limit.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID, limit int64) ([]*domain.HistoryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer cur.Close(ctx)

	var recs []*domain.HistoryRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return recs, nil
}

// EnsureIndexes creates the indexes the ledger collections rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	history := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := db.Collection(collectionHistory).Indexes().CreateMany(ctx, history); err != nil {
		return fmt.Errorf("ensure history indexes: %w", err)
	}

	operators := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := db.Collection(collectionOperators).Indexes().CreateMany(ctx, operators); err != nil {
		return fmt.Errorf("ensure operator indexes: %w", err)
	}

	return nil
}
