package ports

import (
	"context"

	"github.com/lookupbot/credit-engine/internal/core/domain"
)

// AccountRepository is the durable ledger of per-caller credit balances.
//
// Every mutating method is a single atomic read-modify-write against the
// store: concurrent charges against the same account must never both succeed
// when only one unit of credit remains, and a balance must never be observed
// negative because of a lost update.
type AccountRepository interface {
	// Ensure returns the account for userID, creating it on first interaction
	// with the default balance and last_grant_day set to day: the starting
	// balance counts as the creation day's grant, so a brand-new account
	// cannot double-dip by claiming on day one.
	Ensure(ctx context.Context, userID, defaultCredits int64, day string) (*domain.Account, error)

	// Find returns the account or domain.ErrAccountNotFound.
	Find(ctx context.Context, userID int64) (*domain.Account, error)

	// Debit atomically subtracts amount iff the account is unblocked and has
	// credits >= amount. Returns the new balance, or ErrInsufficientCredits /
	// ErrBlocked / ErrAccountNotFound when the guard does not match.
	Debit(ctx context.Context, userID, amount int64) (int64, error)

	// Credit atomically adds amount and returns the new balance. Used for
	// refunds and admin grants.
	Credit(ctx context.Context, userID, amount int64) (int64, error)

	// ForceDebit subtracts amount with no floor check. Admin-only; the
	// balance may go negative.
	ForceDebit(ctx context.Context, userID, amount int64) (int64, error)

	// GrantDaily adds amount iff last_grant_day differs from day, setting
	// last_grant_day = day in the same operation. At most one grant per
	// account per calendar day. Returns granted=false with the current
	// balance when the grant was already applied for day.
	GrantDaily(ctx context.Context, userID int64, day string, amount int64) (granted bool, balance int64, err error)

	// SetBlocked flips the soft block flag.
	SetBlocked(ctx context.Context, userID int64, blocked bool) error

	// SetSpecial marks the account special, records its display name and
	// resets the balance to the sentinel. ErrAlreadySpecial when redundant.
	SetSpecial(ctx context.Context, userID int64, displayName string, balance int64) error

	// ClearSpecial removes special status and resets the balance to the
	// normal default. ErrNotSpecial when the account is not special.
	ClearSpecial(ctx context.Context, userID, balance int64) error

	// List returns all accounts ordered by user id.
	List(ctx context.Context) ([]*domain.Account, error)
}

// BlockRepository stores one BlockRecord per currently blocked account.
type BlockRepository interface {
	// Insert creates the record; ErrAlreadyBlocked if one exists.
	Insert(ctx context.Context, rec *domain.BlockRecord) error
	// Delete removes the record; ErrNotBlocked if none exists.
	Delete(ctx context.Context, userID int64) error
	// Find returns the active record or ErrNotBlocked.
	Find(ctx context.Context, userID int64) (*domain.BlockRecord, error)
}

// UsageRepository tracks per-(user, feature, day) invocation counters.
// Absence of a counter is equivalent to zero; old counters may expire.
type UsageRepository interface {
	// IncrWithCap atomically increments the counter unless it has reached
	// cap. allowed=false means the counter was already at cap and was not
	// incremented; count is the value after the call either way.
	IncrWithCap(ctx context.Context, userID int64, feature, day string, cap int64) (count int64, allowed bool, err error)

	// Count reads the current counter value (0 when absent).
	Count(ctx context.Context, userID int64, feature, day string) (int64, error)
}

// HistoryRepository is the append-only query log.
type HistoryRepository interface {
	Append(ctx context.Context, rec *domain.HistoryRecord) error
	// ListByUser returns the most recent records first, up to limit.
	ListByUser(ctx context.Context, userID, limit int64) ([]*domain.HistoryRecord, error)
}
