package main

import (
	"go.uber.org/zap"

	"goflare.io/redemption/event"
)

const (
	dispatcherWorkers  = 4
	dispatcherQueueLen = 64
)

func provideDispatcher(repo event.Repository, logger *zap.Logger) *event.Dispatcher {
	return event.NewDispatcher(dispatcherWorkers, dispatcherQueueLen, repo, logger,
		event.NewAuditObserver(logger))
}
