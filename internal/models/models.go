package models

import (
	"strconv"
	"strings"
	"time"
)

// GatewayName identifies a payment gateway provider
type GatewayName string

const (
	GatewayMidtrans GatewayName = "midtrans"
	GatewayDuitku   GatewayName = "duitku"
)

// Environment selects the gateway's sandbox or production endpoints
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// PaymentMode is the global switch between gateway and manual payments
type PaymentMode string

const (
	ModeGateway PaymentMode = "gateway"
	ModeManual  PaymentMode = "manual"
)

// GatewayConfig holds credentials and activation state for one gateway.
// PaymentMode is filled from the payment_settings singleton when loaded.
type GatewayConfig struct {
	ID          int64       `json:"id"`
	GatewayName GatewayName `json:"gatewayName"`
	DisplayName string      `json:"displayName"`
	APIKey      string      `json:"apiKey"`
	SecretKey   string      `json:"secretKey"`
	MerchantID  string      `json:"merchantId,omitempty"`
	Environment Environment `json:"environment"`
	IsActive    bool        `json:"isActive"`
	PaymentMode PaymentMode `json:"paymentMode"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// IsProduction reports whether production endpoints should be used
func (c *GatewayConfig) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// Label returns the display name, falling back to the gateway name
func (c *GatewayConfig) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return string(c.GatewayName)
}

// Masked returns a copy safe to send to admin clients
func (c GatewayConfig) Masked() GatewayConfig {
	c.APIKey = maskSecret(c.APIKey)
	c.SecretKey = maskSecret(c.SecretKey)
	return c
}

const secretMask = "****"

func maskSecret(s string) string {
	if len(s) <= 4 {
		if s == "" {
			return ""
		}
		return secretMask
	}
	return secretMask + s[len(s)-4:]
}

// IsMaskedSecret reports whether s is a value produced by Masked rather than a real key
func IsMaskedSecret(s string) bool {
	return strings.HasPrefix(s, secretMask)
}

// ManualMethodType is the kind of manual payment account
type ManualMethodType string

const (
	ManualBankTransfer ManualMethodType = "bank_transfer"
	ManualEWallet      ManualMethodType = "ewallet"
)

// ManualPaymentMethod is a bank or e-wallet account customers transfer to
type ManualPaymentMethod struct {
	ID            int64            `json:"id"`
	Type          ManualMethodType `json:"type" validate:"required,oneof=bank_transfer ewallet"`
	ProviderName  string           `json:"providerName" validate:"required,max=100"`
	AccountName   string           `json:"accountName" validate:"required,max=150"`
	AccountNumber string           `json:"accountNumber" validate:"required,max=50"`
	LogoURL       string           `json:"logoUrl,omitempty" validate:"omitempty,url"`
	IsActive      bool             `json:"isActive"`
	SortOrder     int              `json:"sortOrder"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// PaymentStatus is the payment state of an order
type PaymentStatus string

const (
	StatusPending       PaymentStatus = "PENDING"
	StatusPendingManual PaymentStatus = "PENDING_MANUAL"
	StatusPaid          PaymentStatus = "PAID"
	StatusFailed        PaymentStatus = "FAILED"
	StatusExpired       PaymentStatus = "EXPIRED"
)

// Order is a storefront order with its payment fields
type Order struct {
	ID             string               `json:"id"`
	CustomerEmail  string               `json:"customerEmail"`
	CustomerName   string               `json:"customerName"`
	CustomerPhone  string               `json:"customerPhone,omitempty"`
	TotalAmount    int64                `json:"totalAmount"`
	OriginalTotal  int64                `json:"originalTotal"`
	DiscountAmount int64                `json:"discountAmount"`
	PromoCode      string               `json:"promoCode,omitempty"`
	PaymentStatus  PaymentStatus        `json:"paymentStatus"`
	PaymentMode    PaymentMode          `json:"paymentMode"`
	PaymentGateway string               `json:"paymentGateway,omitempty"`
	PaymentMethod  string               `json:"paymentMethod,omitempty"`
	PaymentType    string               `json:"paymentType,omitempty"`
	PaymentCode    string               `json:"paymentCode,omitempty"`
	TransactionID  string               `json:"transactionId,omitempty"`
	QRURL          string               `json:"qrUrl,omitempty"`
	RedirectURL    string               `json:"redirectUrl,omitempty"`
	ManualMethod   *ManualPaymentMethod `json:"manualMethod,omitempty"`
	DownloadCount  int                  `json:"downloadCount"`
	Items          []OrderItem          `json:"items"`

	PaymentDeadline *time.Time `json:"paymentDeadline,omitempty"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// OrderItem is one line of an order
type OrderItem struct {
	ID        int64  `json:"id"`
	OrderID   string `json:"orderId"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// GatewayEventKind distinguishes outbound charges from inbound callbacks
type GatewayEventKind string

const (
	EventCharge   GatewayEventKind = "charge"
	EventCallback GatewayEventKind = "callback"
)

// GatewayEvent is a raw log entry of a gateway exchange
type GatewayEvent struct {
	ID          int64            `json:"id"`
	GatewayName GatewayName      `json:"gatewayName"`
	Kind        GatewayEventKind `json:"kind"`
	OrderID     string           `json:"orderId"`
	Status      string           `json:"status"`
	Payload     string           `json:"payload"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// User represents an admin user
type User struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Password  string     `json:"-"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// FormatRupiah renders an amount as "Rp 150.000"
func FormatRupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + "Rp " + b.String()
}
