package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lookupbot/credit-engine/internal/core/ports"
)

// recordingChargeService records the order requests arrive in per user.
type recordingChargeService struct {
	mu       sync.Mutex
	features map[int64][]string
}

func newRecordingChargeService() *recordingChargeService {
	return &recordingChargeService{features: make(map[int64][]string)}
}

func (s *recordingChargeService) Perform(ctx context.Context, userID int64, feature string, op ports.Operation) (*ports.PerformResult, error) {
	s.mu.Lock()
	s.features[userID] = append(s.features[userID], feature)
	s.mu.Unlock()
	if op != nil {
		if _, err := op(ctx); err != nil {
			return nil, err
		}
	}
	return &ports.PerformResult{Allowed: true, Succeeded: true, Cost: 1, Balance: 4}, nil
}

func (s *recordingChargeService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

func (s *recordingChargeService) IsBlocked(ctx context.Context, userID int64) (bool, error) {
	return false, nil
}

func (s *recordingChargeService) ClaimDailyGrant(ctx context.Context, userID int64) (*ports.ClaimResult, error) {
	return &ports.ClaimResult{}, nil
}

func (s *recordingChargeService) RecordHistory(ctx context.Context, userID int64, query, feature string) error {
	return nil
}

func TestDispatcher_DeliversReply(t *testing.T) {
	svc := newRecordingChargeService()
	d := NewDispatcher(4, svc, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	done := make(chan *ports.PerformResult, 1)
	d.Enqueue(ChargeRequest{
		UserID:  100,
		Feature: "lookup",
		Op:      func(ctx context.Context) (bool, error) { return true, nil },
		Reply: func(res *ports.PerformResult, err error) {
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			done <- res
		},
	})

	select {
	case res := <-done:
		if !res.Succeeded {
			t.Fatalf("expected committed charge, got %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("reply never delivered")
	}
}

func TestDispatcher_SameUserStaysOrdered(t *testing.T) {
	svc := newRecordingChargeService()
	d := NewDispatcher(4, svc, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		feature := "f" + string(rune('a'+i%26))
		d.Enqueue(ChargeRequest{
			UserID:  100,
			Feature: feature,
			Reply:   func(*ports.PerformResult, error) { wg.Done() },
		})
	}
	wg.Wait()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	got := svc.features[100]
	if len(got) != n {
		t.Fatalf("expected %d requests processed, got %d", n, len(got))
	}
	// One user hashes to one worker, so enqueue order is processing order.
	for i, feature := range got {
		want := "f" + string(rune('a'+i%26))
		if feature != want {
			t.Fatalf("request %d out of order: got %s, want %s", i, feature, want)
		}
	}
}

func TestDispatcher_ShardIsStablePerUser(t *testing.T) {
	d := NewDispatcher(8, newRecordingChargeService(), zerolog.Nop())

	for _, id := range []int64{1, 42, 100, 999999} {
		first := d.shardIndex(id)
		for i := 0; i < 10; i++ {
			if got := d.shardIndex(id); got != first {
				t.Fatalf("shard for user %d not stable: %d vs %d", id, got, first)
			}
		}
	}
}
