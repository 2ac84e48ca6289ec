package lifecycle

import (
	"encoding/json"
	"testing"
	"time"

	"go-digistore/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitions(t *testing.T) {
	all := []models.PaymentStatus{
		models.StatusPending, models.StatusPendingManual, models.StatusPaid, models.StatusFailed, models.StatusExpired,
	}
	for _, from := range all {
		for _, to := range all {
			want := IsPending(from) && IsTerminal(to)
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.True(t, CanTransition(models.StatusPendingManual, models.StatusPaid))
	assert.False(t, CanTransition(models.StatusPaid, models.StatusFailed))
	assert.False(t, CanTransition(models.StatusExpired, models.StatusPaid))
	assert.False(t, CanTransition(models.StatusPending, models.StatusPendingManual))
}

func TestCountdown(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(10 * time.Second)

	// The countdown never grows and reaches zero exactly at the deadline
	prev := Countdown(&deadline, now)
	assert.Equal(t, 10*time.Second, prev)
	for i := 1; i <= 15; i++ {
		tick := now.Add(time.Duration(i) * time.Second)
		left := Countdown(&deadline, tick)
		assert.LessOrEqual(t, left, prev)
		assert.GreaterOrEqual(t, left, time.Duration(0))
		assert.Equal(t, i >= 10, IsExpired(&deadline, tick), "tick %d", i)
		prev = left
	}
	assert.Equal(t, time.Duration(0), prev)

	assert.Equal(t, time.Duration(0), Countdown(nil, now))
	assert.False(t, IsExpired(nil, now))
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	// Stored PENDING with an elapsed deadline reads as expired
	assert.Equal(t, models.StatusExpired, EffectiveStatus(models.StatusPending, &past, now))
	assert.Equal(t, models.StatusExpired, EffectiveStatus(models.StatusPendingManual, &past, now))
	assert.Equal(t, models.StatusPending, EffectiveStatus(models.StatusPending, &future, now))
	assert.Equal(t, models.StatusPending, EffectiveStatus(models.StatusPending, nil, now))

	// Terminal states win over the deadline
	assert.Equal(t, models.StatusPaid, EffectiveStatus(models.StatusPaid, &past, now))
	assert.Equal(t, models.StatusFailed, EffectiveStatus(models.StatusFailed, &past, now))
}

func TestInstructionViewFields(t *testing.T) {
	deadline := time.Date(2030, 1, 2, 10, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	order := &models.Order{
		ID:              "ORD-1",
		TotalAmount:     90000,
		OriginalTotal:   100000,
		DiscountAmount:  10000,
		PromoCode:       "HEMAT10",
		PaymentStatus:   models.StatusPendingManual,
		PaymentMode:     models.ModeManual,
		PaymentDeadline: &deadline,
		ManualMethod: &models.ManualPaymentMethod{
			ID: 3, Type: models.ManualBankTransfer, ProviderName: "BCA", AccountName: "Toko", AccountNumber: "123",
		},
	}

	view := NewInstructionView(order)
	assert.Equal(t, "2030-01-02T03:00:00Z", view.PaymentDeadline)
	require.NotNil(t, view.Deadline())
	assert.True(t, view.Deadline().Equal(deadline))

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))

	want := []string{
		"orderId", "totalAmount", "originalTotal", "discountAmount", "promoCode", "paymentStatus",
		"paymentDeadline", "paymentGateway", "paymentMethod", "paymentType", "paymentCode",
		"transactionId", "manualMethod",
	}
	assert.Len(t, fields, len(want))
	for _, key := range want {
		assert.Contains(t, fields, key)
	}
	manual := fields["manualMethod"].(map[string]interface{})
	assert.Equal(t, "BCA", manual["providerName"])
}

func TestInstructionViewGatewayOrder(t *testing.T) {
	view := NewInstructionView(&models.Order{
		ID:             "ORD-2",
		PaymentStatus:  models.StatusPending,
		PaymentGateway: "midtrans",
		PaymentCode:    "12345678901",
	})
	assert.Nil(t, view.ManualMethod)
	assert.Nil(t, view.Deadline())

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"manualMethod":null`)
}
