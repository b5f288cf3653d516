package event

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"goflare.io/redemption/models"
	"goflare.io/redemption/models/enum"
)

func TestAuditObserverToleratesRedelivery(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	o := NewAuditObserver(zap.New(core))

	redemptionID := uint64(3)
	ev := &models.TransitionEvent{
		ID:           9,
		RedemptionID: &redemptionID,
		FromStatus:   enum.RedemptionStatusActive,
		ToStatus:     enum.RedemptionStatusUsed,
		Reason:       "used at checkout",
	}

	// The dispatcher delivers at least once; a replay must log again and
	// still report success so the event gets marked processed.
	require.NoError(t, o.Notify(context.Background(), ev))
	require.NoError(t, o.Notify(context.Background(), ev))
	require.Equal(t, 2, logs.FilterMessage("transition").Len())
}
