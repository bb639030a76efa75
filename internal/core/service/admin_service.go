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

// AdminService implements the privileged ledger mutations. Every call
// re-checks the actor against the configured admin id; nothing about the
// actor is cached between calls.
type AdminService struct {
	accounts ports.AccountRepository
	blocks   ports.BlockRepository
	history  ports.HistoryRepository
	notifier ports.Notifier
	policy   Policy
	log      zerolog.Logger
	now      func() time.Time
}

func NewAdminService(accounts ports.AccountRepository, blocks ports.BlockRepository, history ports.HistoryRepository, notifier ports.Notifier, policy Policy, log zerolog.Logger) *AdminService {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &AdminService{
		accounts: accounts,
		blocks:   blocks,
		history:  history,
		notifier: notifier,
		policy:   policy,
		log:      log,
		now:      time.Now,
	}
}

func (s *AdminService) ensure(ctx context.Context, userID int64) (*domain.Account, error) {
	today := domain.Day(s.now(), s.policy.Location)
	return s.accounts.Ensure(ctx, userID, s.policy.DefaultBalance, today)
}

func (s *AdminService) requireAdmin(actor int64) error {
	if actor != s.policy.AdminUserID {
		return domain.ErrNotAdmin
	}
	return nil
}

// GrantCredits adds amount to the target's balance and notifies the target
// asynchronously. Notification failure never undoes the grant.
func (s *AdminService) GrantCredits(ctx context.Context, actor, target, amount int64) (*ports.BalanceChange, error) {
	if err := s.requireAdmin(actor); err != nil {
		metrics.AdminActionsTotal.WithLabelValues("grant", "rejected").Inc()
		return nil, err
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	acct, err := s.ensure(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("grant credits: %w", err)
	}
	balance, err := s.accounts.Credit(ctx, target, amount)
	if err != nil {
		return nil, fmt.Errorf("grant credits: %w", err)
	}

	metrics.AdminActionsTotal.WithLabelValues("grant", "ok").Inc()
	s.log.Info().
		Int64("actor", actor).
		Int64("target", target).
		Int64("amount", amount).
		Int64("previous", acct.Credits).
		Int64("new", balance).
		Msg("admin granted credits")

	if s.notifier != nil {
		go func() {
			notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			msg := fmt.Sprintf("You received %d credits. New balance: %d.", amount, balance)
			if err := s.notifier.Notify(notifyCtx, target, msg); err != nil {
				s.log.Warn().Err(err).Int64("target", target).Msg("grant notification failed")
			}
		}()
	}

	return &ports.BalanceChange{Previous: acct.Credits, New: balance}, nil
}

// RevokeCredits subtracts amount with no floor. An admin-forced debit may
// drive the balance negative; the debt persists and is worked off by future
// daily grants before normal charges can pass again.
func (s *AdminService) RevokeCredits(ctx context.Context, actor, target, amount int64) (*ports.BalanceChange, error) {
	if err := s.requireAdmin(actor); err != nil {
		metrics.AdminActionsTotal.WithLabelValues("revoke", "rejected").Inc()
		return nil, err
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	acct, err := s.ensure(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("revoke credits: %w", err)
	}
	balance, err := s.accounts.ForceDebit(ctx, target, amount)
	if err != nil {
		return nil, fmt.Errorf("revoke credits: %w", err)
	}

	metrics.AdminActionsTotal.WithLabelValues("revoke", "ok").Inc()
	s.log.Info().
		Int64("actor", actor).
		Int64("target", target).
		Int64("amount", amount).
		Int64("previous", acct.Credits).
		Int64("new", balance).
		Msg("admin revoked credits")

	return &ports.BalanceChange{Previous: acct.Credits, New: balance}, nil
}

// Block soft-blocks the target. The block record and the account flag are
// written as a pair; the record carries who blocked and why for the audit
// trail.
func (s *AdminService) Block(ctx context.Context, actor, target int64, reason string) error {
	if err := s.requireAdmin(actor); err != nil {
		metrics.AdminActionsTotal.WithLabelValues("block", "rejected").Inc()
		return err
	}

	if _, err := s.ensure(ctx, target); err != nil {
		return fmt.Errorf("block: %w", err)
	}

	rec := &domain.BlockRecord{
		UserID:    target,
		BlockedBy: actor,
		Reason:    reason,
		CreatedAt: s.now().UTC(),
	}
	if err := s.blocks.Insert(ctx, rec); err != nil {
		if err == domain.ErrAlreadyBlocked {
			metrics.AdminActionsTotal.WithLabelValues("block", "rejected").Inc()
		}
		return err
	}
	if err := s.accounts.SetBlocked(ctx, target, true); err != nil {
		return fmt.Errorf("block: set flag: %w", err)
	}

	metrics.AdminActionsTotal.WithLabelValues("block", "ok").Inc()
	s.log.Info().Int64("actor", actor).Int64("target", target).Str("reason", reason).Msg("account blocked")
	return nil
}

// Unblock deletes the block record and clears the flag.
func (s *AdminService) Unblock(ctx context.Context, actor, target int64) error {
	if err := s.requireAdmin(actor); err != nil {
		metrics.AdminActionsTotal.WithLabelValues("unblock", "rejected").Inc()
		return err
	}

	if err := s.blocks.Delete(ctx, target); err != nil {
		if err == domain.ErrNotBlocked {
			metrics.AdminActionsTotal.WithLabelValues("unblock", "rejected").Inc()
		}
		return err
	}
	if err := s.accounts.SetBlocked(ctx, target, false); err != nil {
		return fmt.Errorf("unblock: clear flag: %w", err)
	}

	metrics.AdminActionsTotal.WithLabelValues("unblock", "ok").Inc()
	s.log.Info().Int64("actor", actor).Int64("target", target).Msg("account unblocked")
	return nil
}

// PromoteSpecial grants unlimited-credit status and sets the sentinel balance.
func (s *AdminService) PromoteSpecial(ctx context.Context, actor, target int64, displayName string) error {
	if err := s.requireAdmin(actor); err != nil {
		metrics.AdminActionsTotal.WithLabelValues("promote", "rejected").Inc()
		return err
	}

	if _, err := s.ensure(ctx, target); err != nil {
		return fmt.Errorf("promote special: %w", err)
	}
	if err := s.accounts.SetSpecial(ctx, target, displayName, s.policy.SpecialBalance); err != nil {
		if err == domain.ErrAlreadySpecial {
			metrics.AdminActionsTotal.WithLabelValues("promote", "rejected").Inc()
		}
		return err
	}

	metrics.AdminActionsTotal.WithLabelValues("promote", "ok").Inc()
	s.log.Info().Int64("actor", actor).Int64("target", target).Str("display_name", displayName).Msg("account promoted to special")
	return nil
}

// DemoteSpecial revokes special status and restores the default balance.
func (s *AdminService) DemoteSpecial(ctx context.Context, actor, target int64) error {
	if err := s.requireAdmin(actor); err != nil {
		metrics.AdminActionsTotal.WithLabelValues("demote", "rejected").Inc()
		return err
	}

	if err := s.accounts.ClearSpecial(ctx, target, s.policy.DefaultBalance); err != nil {
		if err == domain.ErrNotSpecial {
			metrics.AdminActionsTotal.WithLabelValues("demote", "rejected").Inc()
		}
		return err
	}

	metrics.AdminActionsTotal.WithLabelValues("demote", "ok").Inc()
	s.log.Info().Int64("actor", actor).Int64("target", target).Msg("special status demoted")
	return nil
}

// ListAccounts returns every account in the ledger.
func (s *AdminService) ListAccounts(ctx context.Context, actor int64) ([]*domain.Account, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// GetHistory returns the target's most recent queries.
func (s *AdminService) GetHistory(ctx context.Context, actor, target, limit int64) ([]*domain.HistoryRecord, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	recs, err := s.history.ListByUser(ctx, target, limit)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return recs, nil
}
