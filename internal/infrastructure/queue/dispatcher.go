package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskboard/tasktracker/internal/core/domain"
	"github.com/taskboard/tasktracker/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// Dispatcher writes task events to the audit repository from a fixed set of
// workers, sharded by task ID so events for one task are stored in order.
// It implements ports.AuditSink.
type Dispatcher struct {
	workers []chan domain.TaskEvent
	repo    ports.AuditRepository
	log     zerolog.Logger
	onDrop  func()

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.TaskEvent, numWorkers),
		repo:    repo,
		log:     log,
		onDrop:  func() {},
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.TaskEvent, channelBuffer)
	}
	return d
}

// OnDrop registers a callback invoked whenever an event is discarded.
func (d *Dispatcher) OnDrop(fn func()) {
	if fn != nil {
		d.onDrop = fn
	}
}

// Start launches all worker goroutines. Workers exit once Close has been
// called and their queue is drained.
func (d *Dispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// Record queues event for its task's worker. It never blocks: when the
// worker's buffer is full, or the dispatcher is closed, the event is dropped.
func (d *Dispatcher) Record(event domain.TaskEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(event, "dispatcher closed")
		return
	}
	select {
	case d.workers[d.shardIndex(event.TaskID)] <- event:
	default:
		d.drop(event, "queue full")
	}
}

// Close stops accepting events and waits for queued ones to be written, or
// for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a task ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(taskID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(taskID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) drop(event domain.TaskEvent, reason string) {
	d.onDrop()
	d.log.Warn().
		Str("task_id", event.TaskID).
		Str("type", string(event.Type)).
		Str("reason", reason).
		Msg("audit event dropped")
}

func (d *Dispatcher) runWorker(id int, ch <-chan domain.TaskEvent) {
	defer d.wg.Done()
	for event := range ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := d.repo.InsertTaskEvent(ctx, &event)
		cancel()
		if err != nil {
			d.log.Error().Err(err).
				Str("task_id", event.TaskID).
				Int("worker_id", id).
				Msg("audit write failed")
		}
	}
}
