package duitku

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-digistore/internal/models"
	"go-digistore/internal/payment"
)

const (
	SandboxInquiryURL    = "https://sandbox.duitku.com/webapi/api/merchant/v2/inquiry"
	ProductionInquiryURL = "https://passport.duitku.com/webapi/api/merchant/v2/inquiry"

	expiryPeriodMinutes     = 1440
	maxProductDetailsLength = 255
)

// Gateway opens hosted-page transactions against Duitku
type Gateway struct {
	SandboxURL    string
	ProductionURL string
	Events        payment.EventRecorder

	appURL string
	client *http.Client
	now    func() time.Time
}

// New creates a Duitku gateway. appURL is the store's public base URL,
// used to derive the callback and return URLs.
func New(client *http.Client, appURL string) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &Gateway{
		SandboxURL:    SandboxInquiryURL,
		ProductionURL: ProductionInquiryURL,
		appURL:        strings.TrimRight(appURL, "/"),
		client:        client,
		now:           time.Now,
	}
}

func (g *Gateway) Name() models.GatewayName {
	return models.GatewayDuitku
}

func (g *Gateway) inquiryURL(cfg *models.GatewayConfig) string {
	if cfg.IsProduction() {
		return g.ProductionURL
	}
	return g.SandboxURL
}

// CallbackURL is where Duitku posts payment results
func (g *Gateway) CallbackURL() string {
	return g.appURL + "/api/webhook/duitku"
}

// ReturnURL is where the customer lands after the hosted page
func (g *Gateway) ReturnURL() string {
	return g.appURL + "/dashboard"
}

// Signature computes MD5(merchantCode + orderId + amount + merchantKey)
func Signature(merchantCode, orderID string, amount int64, merchantKey string) string {
	sum := md5.Sum([]byte(merchantCode + orderID + strconv.FormatInt(amount, 10) + merchantKey))
	return hex.EncodeToString(sum[:])
}

type inquiryItem struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type inquiryRequest struct {
	MerchantCode    string        `json:"merchantCode"`
	PaymentAmount   int64         `json:"paymentAmount"`
	PaymentMethod   string        `json:"paymentMethod,omitempty"`
	MerchantOrderID string        `json:"merchantOrderId"`
	ProductDetails  string        `json:"productDetails"`
	Email           string        `json:"email"`
	CustomerVaName  string        `json:"customerVaName"`
	PhoneNumber     string        `json:"phoneNumber,omitempty"`
	ItemDetails     []inquiryItem `json:"itemDetails"`
	CallbackURL     string        `json:"callbackUrl"`
	ReturnURL       string        `json:"returnUrl"`
	Signature       string        `json:"signature"`
	Timestamp       int64         `json:"timestamp"`
	ExpiryPeriod    int           `json:"expiryPeriod"`
}

type inquiryResponse struct {
	MerchantCode  string `json:"merchantCode"`
	Reference     string `json:"reference"`
	PaymentURL    string `json:"paymentUrl"`
	VANumber      string `json:"vaNumber"`
	QRString      string `json:"qrString"`
	Amount        string `json:"amount"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	Message       string `json:"Message"`
}

func (r *inquiryResponse) message() string {
	if r.StatusMessage != "" {
		return r.StatusMessage
	}
	return r.Message
}

func productDetails(items []payment.Item) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.Price < 0 {
			continue
		}
		names = append(names, item.Name)
	}
	return payment.Truncate(strings.Join(names, ", "), maxProductDetailsLength)
}

// CreateTransaction opens an inquiry and returns the hosted payment page
func (g *Gateway) CreateTransaction(ctx context.Context, cfg *models.GatewayConfig, req payment.ChargeRequest, methodCode string) (*payment.TransactionResult, error) {
	if cfg.MerchantID == "" {
		return nil, &payment.ConfigError{Gateway: cfg.Label(), Reason: "merchant code is not configured - contact admin"}
	}
	if methodCode == "" {
		return nil, fmt.Errorf("duitku: %w", payment.ErrMethodRequired)
	}

	items := make([]inquiryItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, inquiryItem{Name: item.Name, Price: item.Price * int64(item.Quantity), Quantity: item.Quantity})
	}

	payload := inquiryRequest{
		MerchantCode:    cfg.MerchantID,
		PaymentAmount:   req.GrossAmount,
		PaymentMethod:   methodCode,
		MerchantOrderID: req.OrderID,
		ProductDetails:  productDetails(req.Items),
		Email:           req.Customer.Email,
		CustomerVaName:  req.Customer.FirstName,
		PhoneNumber:     req.Customer.Phone,
		ItemDetails:     items,
		CallbackURL:     g.CallbackURL(),
		ReturnURL:       g.ReturnURL(),
		Signature:       Signature(cfg.MerchantID, req.OrderID, req.GrossAmount, cfg.SecretKey),
		Timestamp:       g.now().UnixMilli(),
		ExpiryPeriod:    expiryPeriodMinutes,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("duitku: failed to encode inquiry: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.inquiryURL(cfg), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("duitku: failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		payment.Record(ctx, g.Events, &models.GatewayEvent{
			GatewayName: models.GatewayDuitku,
			Kind:        models.EventCharge,
			OrderID:     req.OrderID,
			Error:       err.Error(),
		})
		return nil, fmt.Errorf("duitku: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("duitku: failed to read response: %w", err)
	}

	var parsed inquiryResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	event := &models.GatewayEvent{
		GatewayName: models.GatewayDuitku,
		Kind:        models.EventCharge,
		OrderID:     req.OrderID,
		Status:      parsed.StatusCode,
		Payload:     string(raw),
	}

	var perr *payment.ProviderError
	switch {
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg := parsed.message()
		if decodeErr != nil {
			msg = strings.TrimSpace(string(raw))
		}
		perr = &payment.ProviderError{Gateway: models.GatewayDuitku, HTTPStatus: resp.StatusCode, Code: parsed.StatusCode, Message: msg}
	case decodeErr != nil:
		perr = &payment.ProviderError{Gateway: models.GatewayDuitku, HTTPStatus: resp.StatusCode, Message: "invalid response from gateway"}
	case parsed.StatusCode != "00":
		perr = &payment.ProviderError{Gateway: models.GatewayDuitku, HTTPStatus: resp.StatusCode, Code: parsed.StatusCode, Message: parsed.message()}
	}
	if perr != nil {
		event.Error = perr.Error()
		payment.Record(ctx, g.Events, event)
		return nil, perr
	}
	payment.Record(ctx, g.Events, event)

	expires := g.now().Add(expiryPeriodMinutes * time.Minute)
	return &payment.TransactionResult{
		TransactionID: parsed.Reference,
		PaymentType:   methodCode,
		RedirectURL:   parsed.PaymentURL,
		Token:         parsed.Reference,
		ExpiresAt:     &expires,
	}, nil
}
