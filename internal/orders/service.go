// Package orders moves orders through their payment status and tells
// everyone who is waiting on the result.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go-digistore/internal/models"
	"go-digistore/internal/payment"
	"go-digistore/internal/payment/lifecycle"
)

// ErrAmountMismatch is returned when a paid callback does not cover the order total
var ErrAmountMismatch = errors.New("callback amount does not match order total")

// Store is the order persistence the service needs
type Store interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	TransitionPaymentStatus(ctx context.Context, orderID string, to models.PaymentStatus) (bool, error)
	ExpireOverdueOrders(ctx context.Context, now time.Time) ([]string, error)
}

// Broadcaster pushes status changes to live subscribers
type Broadcaster interface {
	BroadcastStatus(orderID string, status models.PaymentStatus)
}

// PaidNotifier sends the customer receipt
type PaidNotifier interface {
	OrderPaid(o *models.Order)
}

// Service applies status transitions from webhooks, admins and the expiry job
type Service struct {
	store  Store
	hub    Broadcaster
	notify PaidNotifier
}

// NewService creates a new Service. hub and notify may be nil.
func NewService(store Store, hub Broadcaster, notify PaidNotifier) *Service {
	return &Service{store: store, hub: hub, notify: notify}
}

// Transition moves a pending order to a terminal status.
// It reports false without error when the order had already settled.
func (s *Service) Transition(ctx context.Context, orderID string, to models.PaymentStatus, source string) (bool, error) {
	moved, err := s.store.TransitionPaymentStatus(ctx, orderID, to)
	if err != nil {
		return false, err
	}
	if !moved {
		log.Printf("[ORDER] %s: order %s already settled, ignoring %s", source, orderID, to)
		return false, nil
	}

	log.Printf("[ORDER] %s: order %s -> %s", source, orderID, to)
	if s.hub != nil {
		s.hub.BroadcastStatus(orderID, to)
	}

	if to == models.StatusPaid && s.notify != nil {
		order, err := s.store.GetOrder(ctx, orderID)
		if err != nil {
			log.Printf("[ORDER] Paid order %s could not be reloaded for receipt: %v", orderID, err)
			return true, nil
		}
		s.notify.OrderPaid(order)
	}
	return true, nil
}

// ApplyCallback applies a verified gateway notification.
// Non-terminal callback statuses are acknowledged without a transition.
func (s *Service) ApplyCallback(ctx context.Context, gateway models.GatewayName, cb *payment.CallbackData) (bool, error) {
	if !lifecycle.IsTerminal(cb.Status) {
		log.Printf("[WEBHOOK] %s: order %s reported %s (%s), nothing to apply", gateway, cb.OrderID, cb.Status, cb.RawStatus)
		return false, nil
	}

	order, err := s.store.GetOrder(ctx, cb.OrderID)
	if err != nil {
		return false, err
	}
	if cb.Status == models.StatusPaid && cb.Amount != order.TotalAmount {
		log.Printf("[WEBHOOK] %s: order %s paid %d but total is %d", gateway, cb.OrderID, cb.Amount, order.TotalAmount)
		return false, fmt.Errorf("%w: got %d, want %d", ErrAmountMismatch, cb.Amount, order.TotalAmount)
	}

	return s.Transition(ctx, cb.OrderID, cb.Status, "webhook:"+string(gateway))
}

// ExpireOverdue flips every pending order past its deadline to EXPIRED
func (s *Service) ExpireOverdue(ctx context.Context, now time.Time) ([]string, error) {
	ids, err := s.store.ExpireOverdueOrders(ctx, now)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if s.hub != nil {
			s.hub.BroadcastStatus(id, models.StatusExpired)
		}
	}
	if len(ids) > 0 {
		log.Printf("[ORDER] Expired %d overdue order(s)", len(ids))
	}
	return ids, nil
}
