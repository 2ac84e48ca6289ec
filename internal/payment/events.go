package payment

import (
	"context"
	"log"

	"go-digistore/internal/models"
)

// EventRecorder persists raw gateway exchanges for debugging and replay
type EventRecorder interface {
	RecordGatewayEvent(ctx context.Context, ev *models.GatewayEvent) error
}

// Record writes ev if rec is set. Failures are logged only.
func Record(ctx context.Context, rec EventRecorder, ev *models.GatewayEvent) {
	if rec == nil {
		return
	}
	if err := rec.RecordGatewayEvent(ctx, ev); err != nil {
		log.Printf("[PAYMENT] Failed to record %s event for order %s: %v", ev.GatewayName, ev.OrderID, err)
	}
}
