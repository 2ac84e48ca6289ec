package duitku

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"

	"go-digistore/internal/models"
	"go-digistore/internal/payment"
)

// CallbackSignature computes MD5(merchantCode + amount + merchantOrderId + merchantKey)
func CallbackSignature(merchantCode, amount, orderID, merchantKey string) string {
	sum := md5.Sum([]byte(merchantCode + amount + orderID + merchantKey))
	return hex.EncodeToString(sum[:])
}

// HandleCallback verifies a form-encoded Duitku callback
func (g *Gateway) HandleCallback(cfg *models.GatewayConfig, r *http.Request) (*payment.CallbackData, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("duitku: invalid callback: %w", err)
	}

	merchantCode := r.PostForm.Get("merchantCode")
	amount := r.PostForm.Get("amount")
	orderID := r.PostForm.Get("merchantOrderId")
	signature := r.PostForm.Get("signature")

	if merchantCode != cfg.MerchantID {
		return nil, payment.ErrInvalidSignature
	}
	expected := CallbackSignature(merchantCode, amount, orderID, cfg.SecretKey)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return nil, payment.ErrInvalidSignature
	}

	value, err := strconv.ParseInt(amount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("duitku: invalid amount %q: %w", amount, err)
	}

	resultCode := r.PostForm.Get("resultCode")
	status := models.StatusPending
	switch resultCode {
	case "00":
		status = models.StatusPaid
	case "01", "02":
		status = models.StatusFailed
	}

	return &payment.CallbackData{
		OrderID:       orderID,
		Status:        status,
		Amount:        value,
		TransactionID: r.PostForm.Get("reference"),
		PaymentType:   r.PostForm.Get("paymentCode"),
		RawStatus:     resultCode,
	}, nil
}
