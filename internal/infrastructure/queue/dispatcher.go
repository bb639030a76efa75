package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/lookupbot/credit-engine/internal/api/metrics"
	"github.com/lookupbot/credit-engine/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// ChargeRequest is one inbound chargeable request from the chat transport.
// Reply, when set, receives the accounting outcome on the worker goroutine.
type ChargeRequest struct {
	UserID  int64
	Feature string
	Op      ports.Operation
	Reply   func(*ports.PerformResult, error)
}

// Dispatcher routes charge requests to a fixed set of workers using
// consistent hashing on the user id. Per-user ordering bounds the window in
// which a caller can race itself; correctness against concurrent access
// still rests on the ledger store's atomic debits, not on the sharding.
type Dispatcher struct {
	workers []chan ChargeRequest
	service ports.ChargeService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.ChargeService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ChargeRequest, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ChargeRequest, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a request to the worker responsible for its user id.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(req ChargeRequest) {
	idx := d.shardIndex(req.UserID)
	d.workers[idx] <- req
	metrics.ChargeQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(userID, 10)))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ChargeRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-ch:
			if !ok {
				return
			}
			res, err := d.service.Perform(ctx, req.UserID, req.Feature, req.Op)
			metrics.ChargeQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			if err != nil {
				d.log.Error().Err(err).
					Int64("user_id", req.UserID).
					Str("feature", req.Feature).
					Int("worker_id", id).
					Msg("charge request failed")
			}
			if req.Reply != nil {
				req.Reply(res, err)
			}
		}
	}
}
