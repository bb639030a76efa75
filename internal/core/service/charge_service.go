package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lookupbot/credit-engine/internal/api/metrics"
	"github.com/lookupbot/credit-engine/internal/core/domain"
	"github.com/lookupbot/credit-engine/internal/core/ports"
)

// ChargeService coordinates check-quota / debit / external-operation /
// commit-or-refund. The debit happens before the external call runs;
// operations that produce nothing are refunded on every exit path.
type ChargeService struct {
	quota    ports.QuotaService
	accounts ports.AccountRepository
	history  ports.HistoryRepository
	policy   Policy
	log      zerolog.Logger
	now      func() time.Time
}

func NewChargeService(quota ports.QuotaService, accounts ports.AccountRepository, history ports.HistoryRepository, policy Policy, log zerolog.Logger) *ChargeService {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &ChargeService{
		quota:    quota,
		accounts: accounts,
		history:  history,
		policy:   policy,
		log:      log,
		now:      time.Now,
	}
}

// Perform runs one chargeable request end to end.
//
// The refund is armed in a defer the moment the debit lands, so every exit
// path that does not explicitly commit the charge releases it — including
// panics raised inside op. No in-process lock is held across the external
// operation; only the debit and refund themselves are atomic store writes.
func (s *ChargeService) Perform(ctx context.Context, userID int64, feature string, op ports.Operation) (res *ports.PerformResult, err error) {
	dec, err := s.quota.Evaluate(ctx, userID, feature)
	if err != nil {
		return nil, fmt.Errorf("perform: %w", err)
	}
	if !dec.Allowed {
		metrics.DeniesTotal.WithLabelValues(string(dec.Reason)).Inc()
		return &ports.PerformResult{Allowed: false, Reason: dec.Reason, Balance: -1}, nil
	}

	res = &ports.PerformResult{Allowed: true, Cost: dec.Cost, Balance: -1}

	committed := false
	if dec.Cost > 0 {
		balance, debitErr := s.accounts.Debit(ctx, userID, dec.Cost)
		if debitErr != nil {
			// A concurrent request may have drained the balance, or an admin
			// may have blocked the account, between evaluate and debit.
			if reason, denied := denyReasonFor(debitErr); denied {
				metrics.DeniesTotal.WithLabelValues(string(reason)).Inc()
				return &ports.PerformResult{Allowed: false, Reason: reason, Balance: -1}, nil
			}
			return nil, fmt.Errorf("perform: debit: %w", debitErr)
		}
		res.Balance = balance
		metrics.ChargesTotal.WithLabelValues(feature).Inc()

		defer func() {
			if committed {
				return
			}
			balance, refundErr := s.accounts.Credit(ctx, userID, dec.Cost)
			if refundErr != nil {
				metrics.RefundFailuresTotal.Inc()
				s.log.Error().Err(refundErr).
					Int64("user_id", userID).
					Str("feature", feature).
					Int64("amount", dec.Cost).
					Msg("refund failed: credits lost without a result")
				err = fmt.Errorf("%w: %v", domain.ErrRefundFailed, refundErr)
				return
			}
			metrics.RefundsTotal.WithLabelValues(feature).Inc()
			res.Refunded = true
			res.Balance = balance
			s.log.Info().Int64("user_id", userID).Str("feature", feature).Int64("amount", dec.Cost).Msg("charge refunded")
		}()
	}

	ok, opErr := op(ctx)
	if opErr != nil {
		// The deferred refund releases the charge; res stays populated so the
		// caller can see the accounting outcome alongside the error.
		return res, fmt.Errorf("perform %q: %w", feature, opErr)
	}
	if !ok {
		s.log.Debug().Int64("user_id", userID).Str("feature", feature).Msg("operation returned no usable result")
		return res, nil
	}

	committed = true
	res.Succeeded = true
	return res, nil
}

// GetBalance reads the caller's balance, creating the account on first touch.
func (s *ChargeService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	acct, err := s.ensure(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return acct.Credits, nil
}

// IsBlocked reports the caller's soft block state.
func (s *ChargeService) IsBlocked(ctx context.Context, userID int64) (bool, error) {
	acct, err := s.ensure(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("is blocked: %w", err)
	}
	return acct.IsBlocked, nil
}

func (s *ChargeService) ensure(ctx context.Context, userID int64) (*domain.Account, error) {
	today := domain.Day(s.now(), s.policy.Location)
	return s.accounts.Ensure(ctx, userID, s.policy.DefaultBalance, today)
}

// ClaimDailyGrant applies the daily top-up on explicit request. The second
// claim on the same calendar day reports Granted=false with the last claim
// day instead of erroring. Admin and special accounts have no balance to top
// up and always get Granted=false.
func (s *ChargeService) ClaimDailyGrant(ctx context.Context, userID int64) (*ports.ClaimResult, error) {
	acct, err := s.ensure(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("claim daily grant: %w", err)
	}

	if acct.Role(s.policy.AdminUserID) != domain.CallerNormal {
		return &ports.ClaimResult{Granted: false, NewBalance: acct.Credits}, nil
	}

	today := domain.Day(s.now(), s.policy.Location)
	if acct.LastGrantDay == today {
		return &ports.ClaimResult{Granted: false, NewBalance: acct.Credits, AlreadyClaimedOn: acct.LastGrantDay}, nil
	}

	granted, balance, err := s.accounts.GrantDaily(ctx, userID, today, s.policy.DailyGrant)
	if err != nil {
		return nil, fmt.Errorf("claim daily grant: %w", err)
	}
	if !granted {
		// Raced with a concurrent claim or evaluate that granted first.
		return &ports.ClaimResult{Granted: false, NewBalance: balance, AlreadyClaimedOn: today}, nil
	}

	metrics.DailyGrantsTotal.Inc()
	s.log.Info().Int64("user_id", userID).Int64("balance", balance).Str("day", today).Msg("daily grant claimed")
	return &ports.ClaimResult{Granted: true, NewBalance: balance}, nil
}

// RecordHistory appends one entry to the query log.
func (s *ChargeService) RecordHistory(ctx context.Context, userID int64, query, feature string) error {
	rec := &domain.HistoryRecord{
		UserID:    userID,
		Query:     query,
		Feature:   feature,
		CreatedAt: s.now().UTC(),
	}
	if err := s.history.Append(ctx, rec); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// denyReasonFor translates a guarded-debit failure into a deny reason.
func denyReasonFor(err error) (domain.DenyReason, bool) {
	switch {
	case errors.Is(err, domain.ErrInsufficientCredits):
		return domain.DenyInsufficientCredits, true
	case errors.Is(err, domain.ErrBlocked):
		return domain.DenyBlocked, true
	default:
		return "", false
	}
}
