package event

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"goflare.io/redemption/models"
)

const pollInterval = 10 * time.Second

// Observer consumes transition events outside the engine: audit writers,
// notification senders. A failing observer leaves the event unprocessed for
// the next poll. Delivery is at-least-once: an event already handed to a
// worker but not yet marked processed is re-listed by the next poll, so
// Notify must tolerate seeing the same event twice.
type Observer interface {
	Notify(ctx context.Context, event *models.TransitionEvent) error
}

type WorkRequest struct {
	Event *models.TransitionEvent
	Ctx   context.Context
}

// Dispatcher polls the unprocessed backlog and hands events to a fixed pool
// of workers over channels. The poll window and MarkAsProcessed do not
// coordinate, so an event in flight when the ticker fires is queued again;
// observers see at-least-once delivery, never exactly-once.
type Dispatcher struct {
	WorkerPool chan chan WorkRequest
	maxWorkers int
	jobQueue   chan WorkRequest
	repo       Repository
	observers  []Observer
	logger     *zap.Logger
	workers    []Worker
	stop       chan struct{}
	wg         sync.WaitGroup
}

func NewDispatcher(maxWorkers, jobQueueSize int, repo Repository, logger *zap.Logger, observers ...Observer) *Dispatcher {
	return &Dispatcher{
		WorkerPool: make(chan chan WorkRequest, maxWorkers),
		maxWorkers: maxWorkers,
		jobQueue:   make(chan WorkRequest, jobQueueSize),
		repo:       repo,
		observers:  observers,
		logger:     logger,
		stop:       make(chan struct{}),
	}
}

func (d *Dispatcher) Run() {
	for i := 0; i < d.maxWorkers; i++ {
		worker := NewWorker(i+1, d.WorkerPool, d.repo, d.observers, d.logger)
		worker.Start()
		d.workers = append(d.workers, worker)
	}

	go d.dispatch()
	go d.poll()
}

func (d *Dispatcher) Stop() {
	close(d.stop)
	d.wg.Wait()
	for _, worker := range d.workers {
		worker.Stop()
	}
}

func (d *Dispatcher) dispatch() {
	for {
		select {
		case job := <-d.jobQueue:
			d.wg.Add(1)
			go func(job WorkRequest) {
				defer d.wg.Done()
				select {
				case jobChannel := <-d.WorkerPool:
					select {
					case jobChannel <- job:
					case <-job.Ctx.Done():
						d.logger.Warn("job context canceled before processing",
							zap.Error(job.Ctx.Err()),
							zap.Uint64("event_id", job.Event.ID))
					}
				case <-job.Ctx.Done():
					d.logger.Warn("job context canceled while waiting for worker",
						zap.Error(job.Ctx.Err()),
						zap.Uint64("event_id", job.Event.ID))
				}
			}(job)
		case <-d.stop:
			return
		}
	}
}

func (d *Dispatcher) poll() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), pollInterval)
			events, err := d.repo.ListUnprocessed(ctx, uint64(cap(d.jobQueue)))
			cancel()
			if err != nil {
				d.logger.Error("failed to poll transition events", zap.Error(err))
				continue
			}
			for _, ev := range events {
				select {
				case d.jobQueue <- WorkRequest{Event: ev, Ctx: context.Background()}:
				default:
					// Queue full; the event stays unprocessed and the next
					// poll picks it up again.
				}
			}
		case <-d.stop:
			return
		}
	}
}
