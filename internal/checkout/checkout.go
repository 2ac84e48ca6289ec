// Package checkout turns a validated cart into a stored order with an open payment.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"go-digistore/internal/models"
	"go-digistore/internal/payment"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrNoPaymentOption is returned in manual mode when no method is active
var ErrNoPaymentOption = errors.New("no payment option currently configured")

// ValidationError reports a bad checkout payload
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ItemInput is one cart line
type ItemInput struct {
	ProductID string `json:"productId" validate:"required,max=64"`
	Name      string `json:"name" validate:"required,max=200"`
	Price     int64  `json:"price" validate:"gt=0"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=100"`
}

// Request is the checkout payload. The discount is computed by the promo
// engine upstream and only applied here.
type Request struct {
	CustomerName   string      `json:"customerName" validate:"required,max=150"`
	CustomerEmail  string      `json:"customerEmail" validate:"required,email"`
	CustomerPhone  string      `json:"customerPhone" validate:"omitempty,max=20"`
	Items          []ItemInput `json:"items" validate:"required,min=1,dive"`
	PromoCode      string      `json:"promoCode" validate:"omitempty,max=50"`
	DiscountAmount int64       `json:"discountAmount" validate:"gte=0"`
	MethodCode     string      `json:"methodCode" validate:"omitempty,max=50"`
}

// PaymentProcessor opens the payment for a charge
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, req payment.ChargeRequest, methodCode string) (*payment.Result, error)
}

// OrderStore persists orders
type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
}

// OpenNotifier tells the customer how to pay
type OpenNotifier interface {
	OrderOpened(o *models.Order)
}

// Service runs checkouts
type Service struct {
	processor     PaymentProcessor
	store         OrderStore
	notify        OpenNotifier
	validate      *validator.Validate
	manualWindow  time.Duration
	gatewayWindow time.Duration

	Now   func() time.Time
	NewID func() string
}

// NewService creates a checkout service. notify may be nil.
func NewService(processor PaymentProcessor, store OrderStore, notify OpenNotifier, manualWindow, gatewayWindow time.Duration) *Service {
	return &Service{
		processor:     processor,
		store:         store,
		notify:        notify,
		validate:      validator.New(),
		manualWindow:  manualWindow,
		gatewayWindow: gatewayWindow,
		Now:           time.Now,
		NewID:         NewOrderID,
	}
}

// NewOrderID mints an order id
func NewOrderID() string {
	return "ORD-" + strings.ToUpper(uuid.NewString())
}

// Checkout validates req, opens the payment and stores the order.
// Nothing is stored when the payment could not be opened.
func (s *Service) Checkout(ctx context.Context, req Request) (*models.Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, toValidationError(err)
	}

	var subtotal int64
	items := make([]models.OrderItem, 0, len(req.Items))
	charge := make([]payment.Item, 0, len(req.Items)+1)
	for _, it := range req.Items {
		subtotal += it.Price * int64(it.Quantity)
		items = append(items, models.OrderItem{ProductID: it.ProductID, Name: it.Name, Price: it.Price, Quantity: it.Quantity})
		charge = append(charge, payment.Item{ID: it.ProductID, Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}
	if req.DiscountAmount >= subtotal {
		return nil, &ValidationError{Message: "discount must be less than the order subtotal"}
	}
	gross := subtotal - req.DiscountAmount
	if req.DiscountAmount > 0 {
		// Gateways check that item lines add up to the gross amount
		name := "Discount"
		if req.PromoCode != "" {
			name += " " + req.PromoCode
		}
		charge = append(charge, payment.Item{ID: "DISCOUNT", Name: name, Price: -req.DiscountAmount, Quantity: 1})
	}

	orderID := s.NewID()
	res, err := s.processor.ProcessPayment(ctx, payment.ChargeRequest{
		OrderID:     orderID,
		GrossAmount: gross,
		Items:       charge,
		Customer: payment.Customer{
			Email:     req.CustomerEmail,
			FirstName: req.CustomerName,
			Phone:     req.CustomerPhone,
		},
	}, req.MethodCode)
	if err != nil {
		log.Printf("[CHECKOUT] Payment could not be opened for order %s: %v", orderID, err)
		return nil, err
	}

	now := s.Now()
	order := &models.Order{
		ID:             orderID,
		CustomerEmail:  req.CustomerEmail,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		TotalAmount:    gross,
		OriginalTotal:  subtotal,
		DiscountAmount: req.DiscountAmount,
		PromoCode:      req.PromoCode,
		PaymentMode:    res.Mode,
		Items:          items,
	}

	switch res.Mode {
	case models.ModeManual:
		method, err := pickManualMethod(res.ManualMethods, req.MethodCode)
		if err != nil {
			return nil, err
		}
		deadline := now.Add(s.manualWindow)
		order.PaymentStatus = models.StatusPendingManual
		order.PaymentMethod = method.ProviderName
		order.PaymentType = string(method.Type)
		order.ManualMethod = method
		order.PaymentDeadline = &deadline

	default:
		order.PaymentStatus = models.StatusPending
		order.PaymentGateway = string(res.GatewayName)
		order.PaymentMethod = req.MethodCode
		if tx := res.TransactionResult; tx != nil {
			order.PaymentType = tx.PaymentType
			order.PaymentCode = tx.PaymentCode
			order.TransactionID = tx.TransactionID
			order.QRURL = tx.QRURL
			order.RedirectURL = tx.RedirectURL
			order.PaymentDeadline = tx.ExpiresAt
		}
		if order.PaymentDeadline == nil {
			deadline := now.Add(s.gatewayWindow)
			order.PaymentDeadline = &deadline
		}
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		log.Printf("[CHECKOUT] Failed to save order %s (transaction %q): %v", orderID, order.TransactionID, err)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	log.Printf("[CHECKOUT] Order %s opened: %s %s via %s", orderID, order.PaymentStatus,
		models.FormatRupiah(gross), order.PaymentMethod)

	if s.notify != nil {
		s.notify.OrderOpened(order)
	}
	return order, nil
}

// pickManualMethod resolves the method code as a manual method id, or takes the first one
func pickManualMethod(methods []models.ManualPaymentMethod, code string) (*models.ManualPaymentMethod, error) {
	if len(methods) == 0 {
		return nil, ErrNoPaymentOption
	}
	if code == "" {
		m := methods[0]
		return &m, nil
	}
	id, err := strconv.ParseInt(code, 10, 64)
	if err == nil {
		for _, m := range methods {
			if m.ID == id {
				m := m
				return &m, nil
			}
		}
	}
	return nil, &ValidationError{Message: fmt.Sprintf("unknown payment method %q", code)}
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Message: err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return &ValidationError{Message: "invalid checkout: " + strings.Join(msgs, ", ")}
}
