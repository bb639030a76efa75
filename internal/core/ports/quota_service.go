package ports

import (
	"context"

	"github.com/lookupbot/credit-engine/internal/core/domain"
)

// QuotaService decides whether a caller may run a feature and what it costs.
//
// Check precedence: block, then daily feature cap (where the feature is
// capped; the cap applies to every role), then role/balance. Any deny is
// terminal. Evaluating a normal caller also applies the lazy daily credit
// grant as a side effect, at most once per calendar day, even when the
// request itself ends up denied.
type QuotaService interface {
	Evaluate(ctx context.Context, userID int64, feature string) (domain.Decision, error)
}
