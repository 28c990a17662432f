package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iare/sceh-portal/internal/api/metrics"
	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes session events to a fixed set of workers using consistent
// hashing on the user's email, keeping each user's audit trail in order.
type Dispatcher struct {
	workers []chan domain.SessionEvent
	service ports.AuditService
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.AuditService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.SessionEvent, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.SessionEvent, channelBuffer)
	}
	return d
}

// Run processes events until ctx is cancelled, then drains what is already
// queued so a shutdown does not lose accepted events. Once Run returns the
// dispatcher is closed and later events are dropped.
func (d *Dispatcher) Run(ctx context.Context) error {
	done := make(chan struct{}, len(d.workers))
	for i, ch := range d.workers {
		go func(id int, ch chan domain.SessionEvent) {
			d.runWorker(ctx, id, ch)
			done <- struct{}{}
		}(i, ch)
	}
	for range d.workers {
		<-done
	}

	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	// Events accepted between a worker's drain and the close above.
	for i, ch := range d.workers {
		d.drain(i, ch)
	}
	return nil
}

// Enqueue hands an event to the worker responsible for its email. It never
// blocks: when that worker's buffer is full the event is dropped and counted.
func (d *Dispatcher) Enqueue(event domain.SessionEvent) {
	idx := d.shardIndex(event.Email)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped(event, idx, "audit dispatcher stopped, event dropped")
		return
	}

	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.dropped(event, idx, "audit queue full, event dropped")
	}
}

func (d *Dispatcher) dropped(event domain.SessionEvent, idx int, msg string) {
	metrics.AuditEventsTotal.WithLabelValues("dropped").Inc()
	d.log.Warn().
		Str("kind", string(event.Kind)).
		Int("worker_id", idx).
		Msg(msg)
}

// shardIndex maps an email deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(email)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.SessionEvent) {
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case event := <-ch:
			d.record(ctx, id, event)
		}
	}
}

func (d *Dispatcher) drain(id int, ch <-chan domain.SessionEvent) {
	for {
		select {
		case event := <-ch:
			d.record(context.Background(), id, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) record(ctx context.Context, id int, event domain.SessionEvent) {
	metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(d.workers[id])))

	if err := d.service.Record(ctx, event); err != nil {
		metrics.AuditEventsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("kind", string(event.Kind)).
			Int("worker_id", id).
			Msg("audit event failed")
		return
	}
	metrics.AuditEventsTotal.WithLabelValues("recorded").Inc()
}
