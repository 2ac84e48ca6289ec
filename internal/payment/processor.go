package payment

import (
	"context"
	"fmt"
	"log"

	"go-digistore/internal/models"
)

// ConfigStore loads the active gateway configuration
type ConfigStore interface {
	GetActivePaymentConfig(ctx context.Context) (*models.GatewayConfig, error)
}

// ManualProvider lists the manual payment methods a customer can choose from
type ManualProvider interface {
	ActiveMethods(ctx context.Context) []models.ManualPaymentMethod
}

// Processor dispatches a checkout to the configured gateway or to manual payment.
// A failed gateway call is never retried here: every attempt may open a new payable artifact.
type Processor struct {
	configs  ConfigStore
	manual   ManualProvider
	gateways map[models.GatewayName]Gateway
}

// NewProcessor builds a processor with a fixed gateway registry
func NewProcessor(configs ConfigStore, manual ManualProvider, gateways ...Gateway) *Processor {
	registry := make(map[models.GatewayName]Gateway, len(gateways))
	for _, g := range gateways {
		registry[g.Name()] = g
	}
	return &Processor{
		configs:  configs,
		manual:   manual,
		gateways: registry,
	}
}

// GetActivePaymentConfig returns the active configuration, or nil when none is set
func (p *Processor) GetActivePaymentConfig(ctx context.Context) (*models.GatewayConfig, error) {
	return p.configs.GetActivePaymentConfig(ctx)
}

// GetPaymentMode returns the global payment mode
func (p *Processor) GetPaymentMode(ctx context.Context) (models.PaymentMode, error) {
	cfg, err := p.configs.GetActivePaymentConfig(ctx)
	if err != nil {
		return "", err
	}
	if cfg == nil {
		return "", ErrConfigNotSet
	}
	if cfg.PaymentMode == models.ModeManual {
		return models.ModeManual, nil
	}
	return models.ModeGateway, nil
}

// Gateway returns the registered handler for name
func (p *Processor) Gateway(name models.GatewayName) (Gateway, bool) {
	g, ok := p.gateways[name]
	return g, ok
}

// ProcessPayment opens a payment for req using the active configuration
func (p *Processor) ProcessPayment(ctx context.Context, req ChargeRequest, methodCode string) (*Result, error) {
	cfg, err := p.configs.GetActivePaymentConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment configuration: %w", err)
	}
	if cfg == nil {
		log.Printf("[PAYMENT] No active payment configuration (order %s)", req.OrderID)
		return nil, ErrConfigNotSet
	}

	if cfg.PaymentMode == models.ModeManual {
		methods := p.manual.ActiveMethods(ctx)
		return &Result{
			Mode:          models.ModeManual,
			OrderID:       req.OrderID,
			ManualMethods: methods,
		}, nil
	}

	gateway, ok := p.gateways[cfg.GatewayName]
	if !ok {
		log.Printf("[PAYMENT] Unsupported gateway %q (order %s)", cfg.GatewayName, req.OrderID)
		return nil, &ConfigError{
			Gateway: string(cfg.GatewayName),
			Reason:  fmt.Sprintf("unsupported payment gateway %q", cfg.GatewayName),
		}
	}

	if cfg.APIKey == "" || cfg.SecretKey == "" {
		log.Printf("[PAYMENT] Gateway %s is missing credentials (order %s)", cfg.GatewayName, req.OrderID)
		return nil, &ConfigError{
			Gateway: cfg.Label(),
			Reason:  "payment gateway credentials are not configured - contact admin",
		}
	}

	tx, err := gateway.CreateTransaction(ctx, cfg, req, methodCode)
	if err != nil {
		return nil, err
	}

	return &Result{
		Mode:              models.ModeGateway,
		OrderID:           req.OrderID,
		GatewayName:       cfg.GatewayName,
		TransactionResult: tx,
	}, nil
}
