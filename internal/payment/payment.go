package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-digistore/internal/models"
)

// ChargeRequest holds the data needed to open a transaction
type ChargeRequest struct {
	OrderID     string
	GrossAmount int64
	Items       []Item
	Customer    Customer
}

// Item is a single line sent to the gateway
type Item struct {
	ID       string
	Name     string
	Price    int64
	Quantity int
}

// Customer holds the buyer's contact details
type Customer struct {
	Email     string
	FirstName string
	Phone     string
}

// TransactionResult is the normalized output of a gateway charge
type TransactionResult struct {
	TransactionID string     `json:"transaction_id"`
	PaymentType   string     `json:"payment_type"`
	PaymentCode   string     `json:"payment_code"` // VA number, "biller billkey", QR string or deeplink
	ExpiresAt     *time.Time `json:"expiry_time,omitempty"`
	RedirectURL   string     `json:"redirect_url,omitempty"`
	QRURL         string     `json:"qr_url,omitempty"`
	Token         string     `json:"token,omitempty"`
}

// Result is the processor's unified output.
// Exactly one of the gateway fields or ManualMethods is populated, depending on Mode.
type Result struct {
	Mode    models.PaymentMode `json:"mode"`
	OrderID string             `json:"order_id"`

	GatewayName models.GatewayName `json:"gateway_name,omitempty"`
	*TransactionResult

	ManualMethods []models.ManualPaymentMethod `json:"manual_methods,omitempty"`
}

// CallbackData holds a verified, normalized gateway notification
type CallbackData struct {
	OrderID       string
	Status        models.PaymentStatus
	Amount        int64
	TransactionID string
	PaymentType   string
	RawStatus     string
}

// Gateway is implemented by every payment provider adapter
type Gateway interface {
	Name() models.GatewayName
	CreateTransaction(ctx context.Context, cfg *models.GatewayConfig, req ChargeRequest, methodCode string) (*TransactionResult, error)
	HandleCallback(cfg *models.GatewayConfig, r *http.Request) (*CallbackData, error)
}

// ErrConfigNotSet is returned when no gateway configuration is active
var ErrConfigNotSet = errors.New("Configuration not set — contact admin")

// ErrMethodRequired is returned when a gateway charge has no payment method
var ErrMethodRequired = errors.New("payment method is required")

// ErrInvalidSignature is returned when a callback fails verification
var ErrInvalidSignature = errors.New("invalid callback signature")

// ConfigError reports an admin-actionable misconfiguration
type ConfigError struct {
	Gateway string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Gateway == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Gateway, e.Reason)
}

// ProviderError reports a charge rejected by the gateway
type ProviderError struct {
	Gateway    models.GatewayName
	HTTPStatus int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "charge failed"
	}
	if e.Code != "" {
		return fmt.Sprintf("%s error (%s): %s", e.Gateway, e.Code, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Gateway, msg)
}

// Truncate cuts s to at most n characters without splitting runes
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
