package event

import (
	"go.uber.org/zap"
)

type Worker struct {
	ID         int
	WorkerPool chan chan WorkRequest
	JobChannel chan WorkRequest
	quit       chan bool
	repo       Repository
	observers  []Observer
	logger     *zap.Logger
}

func NewWorker(id int, workerPool chan chan WorkRequest, repo Repository, observers []Observer, logger *zap.Logger) Worker {
	return Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan WorkRequest),
		quit:       make(chan bool),
		repo:       repo,
		observers:  observers,
		logger:     logger,
	}
}

func (w Worker) Start() {
	go func() {
		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.logger.Info("processing transition event",
					zap.Uint64("event_id", job.Event.ID),
					zap.String("to_status", string(job.Event.ToStatus)))

				if err := w.process(job); err != nil {
					w.logger.Error("failed to process transition event",
						zap.Error(err),
						zap.Uint64("event_id", job.Event.ID))
				}

			case <-w.quit:
				return
			}
		}
	}()
}

func (w Worker) process(job WorkRequest) error {
	for _, observer := range w.observers {
		if err := observer.Notify(job.Ctx, job.Event); err != nil {
			return err
		}
	}
	return w.repo.MarkAsProcessed(job.Ctx, job.Event.ID)
}

func (w Worker) Stop() {
	close(w.quit)
}
