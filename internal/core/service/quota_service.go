package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lookupbot/credit-engine/internal/api/metrics"
	"github.com/lookupbot/credit-engine/internal/core/domain"
	"github.com/lookupbot/credit-engine/internal/core/ports"
)

// QuotaService implements the quota decision logic: block check, daily
// feature cap, role classification and balance gate, plus the lazy daily
// credit grant.
type QuotaService struct {
	accounts ports.AccountRepository
	usage    ports.UsageRepository
	policy   Policy
	log      zerolog.Logger
	now      func() time.Time
}

func NewQuotaService(accounts ports.AccountRepository, usage ports.UsageRepository, policy Policy, log zerolog.Logger) *QuotaService {
	if policy.ChargeCost <= 0 {
		policy.ChargeCost = 1
	}
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &QuotaService{
		accounts: accounts,
		usage:    usage,
		policy:   policy,
		log:      log,
		now:      time.Now,
	}
}

// Evaluate classifies the caller and decides whether the feature may run.
//
// Precedence: block check, then the daily cap for capped features (uniform
// across roles), then role/balance. The lazy daily grant for normal callers
// is applied first and sticks even when the request is denied. Any store
// failure aborts with an error — the policy fails closed when accounting
// state is unverifiable.
func (s *QuotaService) Evaluate(ctx context.Context, userID int64, feature string) (domain.Decision, error) {
	today := domain.Day(s.now(), s.policy.Location)
	acct, err := s.accounts.Ensure(ctx, userID, s.policy.DefaultBalance, today)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("evaluate: %w", err)
	}

	role := acct.Role(s.policy.AdminUserID)

	// Lazy daily grant. Persisted even when a later check denies the request.
	if role == domain.CallerNormal && acct.LastGrantDay != today {
		granted, balance, err := s.accounts.GrantDaily(ctx, userID, today, s.policy.DailyGrant)
		if err != nil {
			return domain.Decision{}, fmt.Errorf("evaluate: daily grant: %w", err)
		}
		acct.Credits = balance
		if granted {
			metrics.DailyGrantsTotal.Inc()
			s.log.Debug().Int64("user_id", userID).Int64("balance", balance).Str("day", today).Msg("daily grant applied")
		}
	}

	if acct.IsBlocked {
		return domain.Deny(domain.DenyBlocked), nil
	}

	// Capped features count against every role, unlike the credit gate.
	if cap, capped := s.policy.Cap(feature); capped {
		count, allowed, err := s.usage.IncrWithCap(ctx, userID, feature, today, cap)
		if err != nil {
			return domain.Decision{}, fmt.Errorf("evaluate: usage counter: %w", err)
		}
		if !allowed {
			s.log.Debug().Int64("user_id", userID).Str("feature", feature).Int64("count", count).Msg("daily cap reached")
			return domain.Deny(domain.DenyDailyCapReached), nil
		}
	}

	if role == domain.CallerAdmin || role == domain.CallerSpecial {
		return domain.Allow(0), nil
	}

	if acct.Credits < s.policy.ChargeCost {
		return domain.Deny(domain.DenyInsufficientCredits), nil
	}
	return domain.Allow(s.policy.ChargeCost), nil
}
