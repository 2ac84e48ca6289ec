package midtrans

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-digistore/internal/models"
	"go-digistore/internal/payment"

	mt "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
)

const (
	SandboxBaseURL    = "https://api.sandbox.midtrans.com"
	ProductionBaseURL = "https://api.midtrans.com"

	maxItemNameLength = 50
)

// Gateway opens Core API charges against Midtrans
type Gateway struct {
	SandboxURL    string
	ProductionURL string
	Events        payment.EventRecorder

	client *http.Client
}

// New creates a Midtrans gateway. A nil client uses http.DefaultClient.
func New(client *http.Client) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &Gateway{
		SandboxURL:    SandboxBaseURL,
		ProductionURL: ProductionBaseURL,
		client:        client,
	}
}

func (g *Gateway) Name() models.GatewayName {
	return models.GatewayMidtrans
}

func (g *Gateway) baseURL(cfg *models.GatewayConfig) string {
	if cfg.IsProduction() {
		return g.ProductionURL
	}
	return g.SandboxURL
}

// BuildChargeRequest maps an internal method code onto a Core API charge payload
func BuildChargeRequest(req payment.ChargeRequest, methodCode string) *coreapi.ChargeReq {
	items := make([]mt.ItemDetails, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, mt.ItemDetails{
			ID:    item.ID,
			Name:  payment.Truncate(item.Name, maxItemNameLength),
			Price: item.Price,
			Qty:   int32(item.Quantity),
		})
	}

	charge := &coreapi.ChargeReq{
		TransactionDetails: mt.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.GrossAmount,
		},
		Items: &items,
		CustomerDetails: &mt.CustomerDetails{
			FName: req.Customer.FirstName,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
	}

	switch methodCode {
	case "bca_va", "bni_va", "bri_va":
		charge.PaymentType = coreapi.CoreapiPaymentType("bank_transfer")
		charge.BankTransfer = &coreapi.BankTransferDetails{
			Bank: mt.Bank(strings.TrimSuffix(methodCode, "_va")),
		}
	case "echannel":
		charge.PaymentType = coreapi.CoreapiPaymentType("echannel")
		charge.EChannel = &coreapi.EChannelDetail{
			BillInfo1: "Payment for:",
			BillInfo2: "Digital goods order",
		}
	default:
		// qris, gopay, shopeepay and any code Midtrans adds later
		charge.PaymentType = coreapi.CoreapiPaymentType(methodCode)
	}

	return charge
}

// CreateTransaction sends a charge and normalizes the payable artifact
func (g *Gateway) CreateTransaction(ctx context.Context, cfg *models.GatewayConfig, req payment.ChargeRequest, methodCode string) (*payment.TransactionResult, error) {
	if methodCode == "" {
		return nil, fmt.Errorf("midtrans: %w", payment.ErrMethodRequired)
	}

	charge := BuildChargeRequest(req, methodCode)
	body, err := json.Marshal(charge)
	if err != nil {
		return nil, fmt.Errorf("midtrans: failed to encode charge: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL(cfg)+"/v2/charge", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("midtrans: failed to build request: %w", err)
	}
	// Server key as username, empty password
	httpReq.SetBasicAuth(cfg.SecretKey, "")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		payment.Record(ctx, g.Events, &models.GatewayEvent{
			GatewayName: models.GatewayMidtrans,
			Kind:        models.EventCharge,
			OrderID:     req.OrderID,
			Error:       err.Error(),
		})
		return nil, fmt.Errorf("midtrans: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("midtrans: failed to read response: %w", err)
	}

	var parsed coreapi.ChargeResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	event := &models.GatewayEvent{
		GatewayName: models.GatewayMidtrans,
		Kind:        models.EventCharge,
		OrderID:     req.OrderID,
		Status:      parsed.StatusCode,
		Payload:     string(raw),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		perr := &payment.ProviderError{
			Gateway:    models.GatewayMidtrans,
			HTTPStatus: resp.StatusCode,
			Code:       parsed.StatusCode,
			Message:    chargeMessage(&parsed),
		}
		event.Error = perr.Error()
		payment.Record(ctx, g.Events, event)
		return nil, perr
	}
	if decodeErr != nil {
		perr := &payment.ProviderError{
			Gateway:    models.GatewayMidtrans,
			HTTPStatus: resp.StatusCode,
			Message:    "invalid response from gateway",
		}
		event.Error = perr.Error()
		payment.Record(ctx, g.Events, event)
		return nil, perr
	}
	if parsed.StatusCode != "200" && parsed.StatusCode != "201" {
		perr := &payment.ProviderError{
			Gateway:    models.GatewayMidtrans,
			HTTPStatus: resp.StatusCode,
			Code:       parsed.StatusCode,
			Message:    chargeMessage(&parsed),
		}
		event.Error = perr.Error()
		payment.Record(ctx, g.Events, event)
		return nil, perr
	}
	payment.Record(ctx, g.Events, event)

	code, qrURL := ExtractPaymentCode(&parsed)
	paymentType := parsed.PaymentType
	if paymentType == "" {
		paymentType = string(charge.PaymentType)
	}

	return &payment.TransactionResult{
		TransactionID: parsed.TransactionID,
		PaymentType:   paymentType,
		PaymentCode:   code,
		QRURL:         qrURL,
		ExpiresAt:     parseExpiry(parsed.ExpiryTime),
	}, nil
}

// Midtrans reports expiry_time in Western Indonesia Time without an offset
var wib = time.FixedZone("WIB", 7*60*60)

func parseExpiry(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, wib)
	if err != nil {
		return nil
	}
	return &t
}
