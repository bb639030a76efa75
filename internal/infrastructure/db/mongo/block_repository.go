package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lookupbot/credit-engine/internal/core/domain"
)

const collectionBlocks = "block_records"

// BlockRepository stores one record per currently blocked account, keyed by
// user id so a second block attempt hits the unique _id and is rejected.
type BlockRepository struct {
	col *mongo.Collection
}

func NewBlockRepository(db *mongo.Database) *BlockRepository {
	return &BlockRepository{col: db.Collection(collectionBlocks)}
}

// Insert creates the block record; domain.ErrAlreadyBlocked if one exists.
func (r *BlockRepository) Insert(ctx context.Context, rec *domain.BlockRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyBlocked
		}
		return fmt.Errorf("insert block record: %w", err)
	}
	return nil
}

// Delete removes the block record; domain.ErrNotBlocked if none exists.
func (r *BlockRepository) Delete(ctx context.Context, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return fmt.Errorf("delete block record: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotBlocked
	}
	return nil
}

// Find returns the active block record or domain.ErrNotBlocked.
func (r *BlockRepository) Find(ctx context.Context, userID int64) (*domain.BlockRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec domain.BlockRecord
	err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotBlocked
		}
		return nil, fmt.Errorf("find block record: %w", err)
	}
	return &rec, nil
}
