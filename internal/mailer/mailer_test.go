package mailer

import (
	"net/smtp"
	"testing"
	"time"

	"go-digistore/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMockModeSkipsSMTP(t *testing.T) {
	m := New(Config{})
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("smtp must not be used without a host")
		return nil
	}
	assert.NoError(t, m.Send("buyer@example.com", "Hello", "<p>hi</p>"))
}

func TestSendBuildsMessage(t *testing.T) {
	m := New(Config{Host: "smtp.example.com", Port: 2525, From: "shop@example.com"})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.Nil(t, a)
		return nil
	}

	require.NoError(t, m.Send("buyer@example.com", "Receipt", "<p>paid</p>"))
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.Equal(t, "shop@example.com", gotFrom)
	assert.Equal(t, []string{"buyer@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Receipt\r\n")
	assert.Contains(t, string(gotMsg), "<p>paid</p>")
}

func TestGeneratePaymentInstructionHTML(t *testing.T) {
	deadline := time.Date(2030, 1, 2, 3, 0, 0, 0, time.UTC)
	order := &models.Order{
		ID:              "ORD-1",
		CustomerName:    "Budi <script>",
		TotalAmount:     150000,
		PaymentStatus:   models.StatusPendingManual,
		PaymentDeadline: &deadline,
		ManualMethod:    &models.ManualPaymentMethod{ProviderName: "BCA", AccountName: "Toko", AccountNumber: "123456"},
	}

	body := GeneratePaymentInstructionHTML(order)
	assert.Contains(t, body, "Rp 150.000")
	assert.Contains(t, body, "123456")
	assert.Contains(t, body, "02/01/2030 10:00 WIB")
	assert.NotContains(t, body, "<script>")

	order.ManualMethod = nil
	order.PaymentMethod = "bca_va"
	order.PaymentCode = "12345678901"
	assert.Contains(t, GeneratePaymentInstructionHTML(order), "12345678901")
}
