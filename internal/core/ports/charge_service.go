package ports

import (
	"context"

	"github.com/lookupbot/credit-engine/internal/core/domain"
)

// Operation is the caller-supplied external call (network lookup plus
// whatever shape-check the feature handler applies). ok=false reports "no
// usable result" — empty data or a malformed response — which refunds the
// charge exactly like a returned error does.
type Operation func(ctx context.Context) (ok bool, err error)

// PerformResult reports the accounting outcome of a single charged request.
type PerformResult struct {
	// Allowed is false when the quota policy denied the request; Reason then
	// carries the terminal deny reason and nothing was charged.
	Allowed bool              `json:"allowed"`
	Reason  domain.DenyReason `json:"reason,omitempty"`
	// Cost is the amount debited before the operation ran (0 for admin and
	// special callers).
	Cost int64 `json:"cost"`
	// Succeeded is true when the operation produced a usable result; the
	// charge is then final.
	Succeeded bool `json:"succeeded"`
	// Refunded is true when the debit was reversed because the operation
	// produced nothing.
	Refunded bool `json:"refunded"`
	// Balance is the caller's balance after the call, when known (-1 when
	// the request was denied before any debit).
	Balance int64 `json:"balance"`
}

// ClaimResult reports an explicit daily-grant claim.
type ClaimResult struct {
	Granted    bool   `json:"granted"`
	NewBalance int64  `json:"new_balance"`
	// AlreadyClaimedOn is the calendar day of the last grant when
	// Granted=false because the grant was already taken today.
	AlreadyClaimedOn string `json:"already_claimed_on,omitempty"`
}

// ChargeService orchestrates check-quota / debit / run-operation /
// commit-or-refund as a unit. A request never silently consumes credit
// without producing either a result or a visible error.
type ChargeService interface {
	// Perform evaluates the caller, debits the cost up front, runs op, and
	// keeps the charge only when op reports a usable result. On empty or
	// failed operations the debit is refunded on every exit path; a refund
	// that itself fails surfaces domain.ErrRefundFailed.
	Perform(ctx context.Context, userID int64, feature string, op Operation) (*PerformResult, error)

	// GetBalance returns the caller's current balance, creating the account
	// on first touch.
	GetBalance(ctx context.Context, userID int64) (int64, error)

	// IsBlocked reports the caller's soft block state.
	IsBlocked(ctx context.Context, userID int64) (bool, error)

	// ClaimDailyGrant applies the daily credit top-up. Claiming twice on the
	// same calendar day is a no-op the second time: Granted=false with the
	// last claim day, never an error.
	ClaimDailyGrant(ctx context.Context, userID int64) (*ClaimResult, error)

	// RecordHistory appends to the query log. Called by feature handlers
	// after a successful lookup.
	RecordHistory(ctx context.Context, userID int64, query, feature string) error
}
