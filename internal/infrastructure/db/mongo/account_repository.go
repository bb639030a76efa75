package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lookupbot/credit-engine/internal/core/domain"
)

const collectionAccounts = "accounts"

// AccountRepository is the MongoDB-backed credit ledger. Every balance
// mutation is a single FindOneAndUpdate with a guard filter, so concurrent
// requests can never produce a lost update or a negative balance on the
// normal charge path.
type AccountRepository struct {
	col *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection(collectionAccounts)}
}

// Ensure returns the account, creating it with the default balance on first
// interaction. The creation day is stamped as the last grant day: the
// starting balance is the new account's credit for that calendar day.
func (r *AccountRepository) Ensure(ctx context.Context, userID, defaultCredits int64, day string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	update := bson.M{"$setOnInsert": bson.M{
		"credits":        defaultCredits,
		"last_grant_day": day,
		"is_blocked":     false,
		"is_special":     false,
		"created_at":     now,
		"updated_at":     now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var acct domain.Account
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&acct); err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}
	return &acct, nil
}

// Find returns the account or domain.ErrAccountNotFound.
func (r *AccountRepository) Find(ctx context.Context, userID int64) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var acct domain.Account
	err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&acct)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &acct, nil
}

// Debit subtracts amount iff the account is unblocked and holds at least
// amount credits. The guard filter and the decrement are one document
// operation, which is what keeps two concurrent charges from both winning
// the last credit.
func (r *AccountRepository) Debit(ctx context.Context, userID, amount int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":        userID,
		"is_blocked": false,
		"credits":    bson.M{"$gte": amount},
	}
	update := bson.M{
		"$inc": bson.M{"credits": -amount},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var acct domain.Account
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&acct)
	if err == nil {
		return acct.Credits, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("debit: %w", err)
	}

	// Guard did not match; re-read once to report why.
	current, findErr := r.Find(ctx, userID)
	if findErr != nil {
		return 0, findErr
	}
	if current.IsBlocked {
		return 0, domain.ErrBlocked
	}
	return 0, domain.ErrInsufficientCredits
}

// Credit adds amount unconditionally. Used for refunds and admin grants.
func (r *AccountRepository) Credit(ctx context.Context, userID, amount int64) (int64, error) {
	return r.applyDelta(ctx, userID, amount)
}

// ForceDebit subtracts amount with no floor check; the balance may go
// negative. Admin-only path.
func (r *AccountRepository) ForceDebit(ctx context.Context, userID, amount int64) (int64, error) {
	return r.applyDelta(ctx, userID, -amount)
}

func (r *AccountRepository) applyDelta(ctx context.Context, userID, delta int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{"credits": delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var acct domain.Account
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&acct)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrAccountNotFound
		}
		return 0, fmt.Errorf("apply balance delta: %w", err)
	}
	return acct.Credits, nil
}

// GrantDaily applies the daily top-up iff last_grant_day differs from day.
// The day comparison and the increment share one guarded update, making the
// grant at-most-once per calendar day no matter how many requests race.
func (r *AccountRepository) GrantDaily(ctx context.Context, userID int64, day string, amount int64) (bool, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":            userID,
		"last_grant_day": bson.M{"$ne": day},
	}
	update := bson.M{
		"$inc": bson.M{"credits": amount},
		"$set": bson.M{"last_grant_day": day, "updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var acct domain.Account
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&acct)
	if err == nil {
		return true, acct.Credits, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, 0, fmt.Errorf("grant daily: %w", err)
	}

	current, findErr := r.Find(ctx, userID)
	if findErr != nil {
		return false, 0, findErr
	}
	return false, current.Credits, nil
}

// SetBlocked flips the soft block flag.
func (r *AccountRepository) SetBlocked(ctx context.Context, userID int64, blocked bool) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"is_blocked": blocked, "updated_at": time.Now().UTC()}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("set blocked: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// SetSpecial promotes the account, recording the display name and resetting
// the balance to the special sentinel.
func (r *AccountRepository) SetSpecial(ctx context.Context, userID int64, displayName string, balance int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": userID, "is_special": false}
	update := bson.M{"$set": bson.M{
		"is_special":   true,
		"display_name": displayName,
		"credits":      balance,
		"updated_at":   time.Now().UTC(),
	}}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("set special: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, findErr := r.Find(ctx, userID); findErr != nil {
			return findErr
		}
		return domain.ErrAlreadySpecial
	}
	return nil
}

// ClearSpecial demotes the account and restores the default balance.
func (r *AccountRepository) ClearSpecial(ctx context.Context, userID, balance int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": userID, "is_special": true}
	update := bson.M{
		"$set":   bson.M{"is_special": false, "credits": balance, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"display_name": ""},
	}
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("clear special: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, findErr := r.Find(ctx, userID); findErr != nil {
			return findErr
		}
		return domain.ErrNotSpecial
	}
	return nil
}

// List returns all accounts ordered by user id.
func (r *AccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer cur.Close(ctx)

	var accounts []*domain.Account
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}
