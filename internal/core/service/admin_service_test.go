package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lookupbot/credit-engine/internal/core/domain"
)

type stubNotifier struct {
	mu   sync.Mutex
	msgs []string
	err  error
	sent chan struct{}
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{sent: make(chan struct{}, 16)}
}

func (n *stubNotifier) Notify(_ context.Context, _ int64, message string) error {
	n.mu.Lock()
	n.msgs = append(n.msgs, message)
	err := n.err
	n.mu.Unlock()
	n.sent <- struct{}{}
	return err
}

func (n *stubNotifier) waitForMessage(t *testing.T) string {
	t.Helper()
	select {
	case <-n.sent:
	case <-time.After(2 * time.Second):
		t.Fatalf("notification never sent")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.msgs[len(n.msgs)-1]
}

func newAdminFixture(day string) (*AdminService, *stubLedger, *stubBlocks, *stubNotifier) {
	ledger := newStubLedger()
	blocks := newStubBlocks()
	notifier := newStubNotifier()
	svc := NewAdminService(ledger, blocks, newStubHistory(), notifier, testPolicy(), discardLogger)
	svc.now = fixedClock(day)
	return svc, ledger, blocks, notifier
}

func TestAdminService_RejectsNonAdminActor(t *testing.T) {
	svc, _, _, _ := newAdminFixture(dayOne)
	ctx := context.Background()

	if _, err := svc.GrantCredits(ctx, 42, 100, 10); err != domain.ErrNotAdmin {
		t.Fatalf("GrantCredits: expected ErrNotAdmin, got %v", err)
	}
	if _, err := svc.RevokeCredits(ctx, 42, 100, 10); err != domain.ErrNotAdmin {
		t.Fatalf("RevokeCredits: expected ErrNotAdmin, got %v", err)
	}
	if err := svc.Block(ctx, 42, 100, "spam"); err != domain.ErrNotAdmin {
		t.Fatalf("Block: expected ErrNotAdmin, got %v", err)
	}
	if err := svc.PromoteSpecial(ctx, 42, 100, "vip"); err != domain.ErrNotAdmin {
		t.Fatalf("PromoteSpecial: expected ErrNotAdmin, got %v", err)
	}
	if _, err := svc.ListAccounts(ctx, 42); err != domain.ErrNotAdmin {
		t.Fatalf("ListAccounts: expected ErrNotAdmin, got %v", err)
	}
}

func TestAdminService_GrantCredits(t *testing.T) {
	svc, ledger, _, notifier := newAdminFixture(dayOne)

	change, err := svc.GrantCredits(context.Background(), adminID, 100, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change.Previous != 5 || change.New != 12 {
		t.Fatalf("expected 5 -> 12, got %+v", change)
	}
	if got := ledger.balance(100); got != 12 {
		t.Fatalf("stored balance %d, expected 12", got)
	}

	msg := notifier.waitForMessage(t)
	if msg == "" {
		t.Fatalf("expected a notification message")
	}
}

func TestAdminService_GrantRejectsNonPositiveAmount(t *testing.T) {
	svc, _, _, _ := newAdminFixture(dayOne)

	if _, err := svc.GrantCredits(context.Background(), adminID, 100, 0); err != domain.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.GrantCredits(context.Background(), adminID, 100, -3); err != domain.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestAdminService_GrantSurvivesNotifierFailure(t *testing.T) {
	svc, ledger, _, notifier := newAdminFixture(dayOne)
	notifier.err = errors.New("delivery failed")

	change, err := svc.GrantCredits(context.Background(), adminID, 100, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change.New != 12 {
		t.Fatalf("grant must not be undone by a failed notification, got %+v", change)
	}
	notifier.waitForMessage(t)
	if got := ledger.balance(100); got != 12 {
		t.Fatalf("stored balance %d, expected 12", got)
	}
}

func TestAdminService_RevokeMayGoNegative(t *testing.T) {
	svc, ledger, _, _ := newAdminFixture(dayOne)

	change, err := svc.RevokeCredits(context.Background(), adminID, 100, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change.Previous != 5 || change.New != -3 {
		t.Fatalf("expected 5 -> -3, got %+v", change)
	}
	if got := ledger.balance(100); got != -3 {
		t.Fatalf("stored balance %d, expected -3", got)
	}
}

func TestAdminService_BlockUnblockCycle(t *testing.T) {
	svc, ledger, blocks, _ := newAdminFixture(dayOne)
	ctx := context.Background()

	if err := svc.Block(ctx, adminID, 100, "abuse"); err != nil {
		t.Fatalf("block: %v", err)
	}
	acct, _ := ledger.Find(ctx, 100)
	if !acct.IsBlocked {
		t.Fatalf("block flag not set")
	}
	rec, err := blocks.Find(ctx, 100)
	if err != nil {
		t.Fatalf("block record missing: %v", err)
	}
	if rec.BlockedBy != adminID || rec.Reason != "abuse" {
		t.Fatalf("block record audit fields wrong: %+v", rec)
	}

	if err := svc.Block(ctx, adminID, 100, "again"); err != domain.ErrAlreadyBlocked {
		t.Fatalf("expected ErrAlreadyBlocked, got %v", err)
	}

	if err := svc.Unblock(ctx, adminID, 100); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	acct, _ = ledger.Find(ctx, 100)
	if acct.IsBlocked {
		t.Fatalf("block flag not cleared")
	}
	if err := svc.Unblock(ctx, adminID, 100); err != domain.ErrNotBlocked {
		t.Fatalf("expected ErrNotBlocked, got %v", err)
	}
}

func TestAdminService_PromoteDemoteCycle(t *testing.T) {
	svc, ledger, _, _ := newAdminFixture(dayOne)
	ctx := context.Background()

	if err := svc.PromoteSpecial(ctx, adminID, 300, "VIP Client"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	acct, _ := ledger.Find(ctx, 300)
	if !acct.IsSpecial || acct.DisplayName != "VIP Client" {
		t.Fatalf("promotion not applied: %+v", acct)
	}
	if acct.Credits != 999 {
		t.Fatalf("expected sentinel balance 999, got %d", acct.Credits)
	}

	if err := svc.PromoteSpecial(ctx, adminID, 300, "VIP Client"); err != domain.ErrAlreadySpecial {
		t.Fatalf("expected ErrAlreadySpecial, got %v", err)
	}

	if err := svc.DemoteSpecial(ctx, adminID, 300); err != nil {
		t.Fatalf("demote: %v", err)
	}
	acct, _ = ledger.Find(ctx, 300)
	if acct.IsSpecial || acct.DisplayName != "" {
		t.Fatalf("demotion not applied: %+v", acct)
	}
	if acct.Credits != 5 {
		t.Fatalf("expected default balance 5 after demotion, got %d", acct.Credits)
	}

	if err := svc.DemoteSpecial(ctx, adminID, 300); err != domain.ErrNotSpecial {
		t.Fatalf("expected ErrNotSpecial, got %v", err)
	}
}

func TestAdminService_GetHistory(t *testing.T) {
	history := newStubHistory()
	svc := NewAdminService(newStubLedger(), newStubBlocks(), history, nil, testPolicy(), discardLogger)
	svc.now = fixedClock(dayOne)
	ctx := context.Background()

	for _, q := range []string{"first", "second", "third"} {
		if err := history.Append(ctx, &domain.HistoryRecord{UserID: 100, Query: q, Feature: "lookup"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	recs, err := svc.GetHistory(ctx, adminID, 100, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected limit 2, got %d records", len(recs))
	}
	if recs[0].Query != "third" {
		t.Fatalf("expected newest record first, got %q", recs[0].Query)
	}
}
