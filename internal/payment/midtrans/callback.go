package midtrans

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go-digistore/internal/models"
	"go-digistore/internal/payment"

	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/shopspring/decimal"
)

// NotificationSignature computes SHA512(order_id + status_code + gross_amount + server key)
func NotificationSignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// HandleCallback verifies an HTTP notification and maps it to a payment status
func (g *Gateway) HandleCallback(cfg *models.GatewayConfig, r *http.Request) (*payment.CallbackData, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	// Notifications share the transaction status payload
	var n coreapi.TransactionStatusResponse
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("midtrans: invalid notification: %w", err)
	}

	expected := NotificationSignature(n.OrderID, n.StatusCode, n.GrossAmount, cfg.SecretKey)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) != 1 {
		return nil, payment.ErrInvalidSignature
	}

	amount, err := decimal.NewFromString(n.GrossAmount)
	if err != nil {
		return nil, fmt.Errorf("midtrans: invalid gross_amount %q: %w", n.GrossAmount, err)
	}

	return &payment.CallbackData{
		OrderID:       n.OrderID,
		Status:        mapTransactionStatus(n.TransactionStatus, n.FraudStatus),
		Amount:        amount.IntPart(),
		TransactionID: n.TransactionID,
		PaymentType:   n.PaymentType,
		RawStatus:     n.TransactionStatus,
	}, nil
}

func mapTransactionStatus(status, fraud string) models.PaymentStatus {
	switch status {
	case "settlement":
		return models.StatusPaid
	case "capture":
		if fraud == "challenge" {
			return models.StatusPending
		}
		return models.StatusPaid
	case "expire":
		return models.StatusExpired
	case "deny", "cancel", "failure":
		return models.StatusFailed
	}
	return models.StatusPending
}
