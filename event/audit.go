package event

import (
	"context"

	"go.uber.org/zap"

	"goflare.io/redemption/models"
)

// AuditObserver writes every transition to the structured log. It never
// fails, so an audited event is always marked processed, and a redelivered
// event just logs a second identical line.
type AuditObserver struct {
	logger *zap.Logger
}

func NewAuditObserver(logger *zap.Logger) *AuditObserver {
	return &AuditObserver{logger: logger}
}

func (o *AuditObserver) Notify(_ context.Context, ev *models.TransitionEvent) error {
	fields := []zap.Field{
		zap.Uint64("event_id", ev.ID),
		zap.String("from", string(ev.FromStatus)),
		zap.String("to", string(ev.ToStatus)),
	}
	if ev.RedemptionID != nil {
		fields = append(fields, zap.Uint64("redemption_id", *ev.RedemptionID))
	}
	if ev.UsageID != nil {
		fields = append(fields, zap.Uint64("usage_id", *ev.UsageID))
	}
	if ev.Reason != "" {
		fields = append(fields, zap.String("reason", ev.Reason))
	}
	o.logger.Info("transition", fields...)
	return nil
}
