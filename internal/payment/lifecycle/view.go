package lifecycle

import (
	"time"

	"go-digistore/internal/models"
)

// ManualMethodView is the manual account shown with a PENDING_MANUAL order
type ManualMethodView struct {
	Type          string `json:"type"`
	ProviderName  string `json:"providerName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	LogoURL       string `json:"logoUrl,omitempty"`
}

// InstructionView is the payload of the payment-instruction endpoint
type InstructionView struct {
	OrderID         string            `json:"orderId"`
	TotalAmount     int64             `json:"totalAmount"`
	OriginalTotal   int64             `json:"originalTotal"`
	DiscountAmount  int64             `json:"discountAmount"`
	PromoCode       string            `json:"promoCode"`
	PaymentStatus   string            `json:"paymentStatus"`
	PaymentDeadline string            `json:"paymentDeadline"`
	PaymentGateway  string            `json:"paymentGateway"`
	PaymentMethod   string            `json:"paymentMethod"`
	PaymentType     string            `json:"paymentType"`
	PaymentCode     string            `json:"paymentCode"`
	TransactionID   string            `json:"transactionId"`
	ManualMethod    *ManualMethodView `json:"manualMethod"`
}

// NewInstructionView builds the view for an order
func NewInstructionView(o *models.Order) InstructionView {
	v := InstructionView{
		OrderID:        o.ID,
		TotalAmount:    o.TotalAmount,
		OriginalTotal:  o.OriginalTotal,
		DiscountAmount: o.DiscountAmount,
		PromoCode:      o.PromoCode,
		PaymentStatus:  string(o.PaymentStatus),
		PaymentGateway: o.PaymentGateway,
		PaymentMethod:  o.PaymentMethod,
		PaymentType:    o.PaymentType,
		PaymentCode:    o.PaymentCode,
		TransactionID:  o.TransactionID,
	}
	if o.PaymentDeadline != nil {
		v.PaymentDeadline = o.PaymentDeadline.UTC().Format(time.RFC3339)
	}
	if m := o.ManualMethod; m != nil {
		v.ManualMethod = &ManualMethodView{
			Type:          string(m.Type),
			ProviderName:  m.ProviderName,
			AccountName:   m.AccountName,
			AccountNumber: m.AccountNumber,
			LogoURL:       m.LogoURL,
		}
	}
	return v
}

// Deadline parses PaymentDeadline, returning nil when absent or malformed
func (v InstructionView) Deadline() *time.Time {
	if v.PaymentDeadline == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v.PaymentDeadline)
	if err != nil {
		return nil
	}
	return &t
}
