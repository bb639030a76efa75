package ports

import (
	"context"

	"github.com/lookupbot/credit-engine/internal/core/domain"
)

// BalanceChange reports an admin balance mutation.
type BalanceChange struct {
	Previous int64 `json:"previous"`
	New      int64 `json:"new"`
}

// Notifier delivers best-effort messages to chat callers (e.g. "an admin
// granted you 20 credits"). Delivery failures are logged and never undo the
// mutation that triggered them.
type Notifier interface {
	Notify(ctx context.Context, userID int64, message string) error
}

// AdminService exposes the privileged ledger mutations. Every method
// re-checks that actor is the configured admin — the check is never cached.
type AdminService interface {
	// GrantCredits adds amount (> 0) to the target's balance and notifies
	// the target asynchronously.
	GrantCredits(ctx context.Context, actor, target, amount int64) (*BalanceChange, error)

	// RevokeCredits subtracts amount (> 0) with no floor: an admin-forced
	// debit may drive the balance negative.
	RevokeCredits(ctx context.Context, actor, target, amount int64) (*BalanceChange, error)

	// Block soft-blocks the target and records who blocked it and why.
	// ErrAlreadyBlocked when redundant.
	Block(ctx context.Context, actor, target int64, reason string) error

	// Unblock removes the block record and clears the flag. ErrNotBlocked
	// when the target is not blocked.
	Unblock(ctx context.Context, actor, target int64) error

	// PromoteSpecial grants unlimited-credit status and sets the balance to
	// the special sentinel. ErrAlreadySpecial when redundant.
	PromoteSpecial(ctx context.Context, actor, target int64, displayName string) error

	// DemoteSpecial revokes special status and resets the balance to the
	// normal default. ErrNotSpecial when the target is not special.
	DemoteSpecial(ctx context.Context, actor, target int64) error

	// ListAccounts returns every account in the ledger.
	ListAccounts(ctx context.Context, actor int64) ([]*domain.Account, error)

	// GetHistory returns the target's most recent queries.
	GetHistory(ctx context.Context, actor, target, limit int64) ([]*domain.HistoryRecord, error)
}
