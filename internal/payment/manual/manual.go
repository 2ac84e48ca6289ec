package manual

import (
	"context"
	"log"

	"go-digistore/internal/models"
)

// MethodStore reads manual payment methods
type MethodStore interface {
	GetActiveManualMethods(ctx context.Context) ([]models.ManualPaymentMethod, error)
}

// Provider returns the bank and e-wallet accounts for manual payments
type Provider struct {
	store MethodStore
}

// New creates a new manual Provider
func New(store MethodStore) *Provider {
	return &Provider{store: store}
}

// ActiveMethods returns active methods ordered by sort order.
// A read failure yields an empty list so a manual checkout never hard-fails.
func (p *Provider) ActiveMethods(ctx context.Context) []models.ManualPaymentMethod {
	methods, err := p.store.GetActiveManualMethods(ctx)
	if err != nil {
		log.Printf("[PAYMENT] Failed to load manual payment methods: %v", err)
		return []models.ManualPaymentMethod{}
	}
	if methods == nil {
		return []models.ManualPaymentMethod{}
	}
	return methods
}
