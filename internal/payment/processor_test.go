package payment_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go-digistore/internal/models"
	"go-digistore/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfigs struct {
	cfg *models.GatewayConfig
	err error
}

func (f *fakeConfigs) GetActivePaymentConfig(context.Context) (*models.GatewayConfig, error) {
	if f.cfg == nil {
		return nil, f.err
	}
	cp := *f.cfg
	return &cp, f.err
}

type fakeManual struct {
	methods []models.ManualPaymentMethod
	calls   int
}

func (f *fakeManual) ActiveMethods(context.Context) []models.ManualPaymentMethod {
	f.calls++
	return f.methods
}

type fakeGateway struct {
	name     models.GatewayName
	result   *payment.TransactionResult
	err      error
	calls    int
	lastCode string
	lastCfg  *models.GatewayConfig
}

func (f *fakeGateway) Name() models.GatewayName { return f.name }

func (f *fakeGateway) CreateTransaction(_ context.Context, cfg *models.GatewayConfig, _ payment.ChargeRequest, methodCode string) (*payment.TransactionResult, error) {
	f.calls++
	f.lastCode = methodCode
	f.lastCfg = cfg
	return f.result, f.err
}

func (f *fakeGateway) HandleCallback(*models.GatewayConfig, *http.Request) (*payment.CallbackData, error) {
	return nil, errors.New("not used")
}

func activeConfig(name models.GatewayName) *models.GatewayConfig {
	return &models.GatewayConfig{
		GatewayName: name,
		DisplayName: "Midtrans",
		APIKey:      "client",
		SecretKey:   "server",
		Environment: models.EnvironmentSandbox,
		IsActive:    true,
		PaymentMode: models.ModeGateway,
	}
}

func charge() payment.ChargeRequest {
	return payment.ChargeRequest{
		OrderID:     "ORD-1",
		GrossAmount: 150000,
		Items:       []payment.Item{{ID: "p1", Name: "E-book", Price: 150000, Quantity: 1}},
		Customer:    payment.Customer{Email: "buyer@example.com", FirstName: "Buyer"},
	}
}

func TestProcessPaymentGatewayMode(t *testing.T) {
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	mt := &fakeGateway{name: models.GatewayMidtrans, result: &payment.TransactionResult{
		TransactionID: "tx-1",
		PaymentType:   "bank_transfer",
		PaymentCode:   "12345678901",
		ExpiresAt:     &expires,
	}}
	manual := &fakeManual{}
	p := payment.NewProcessor(&fakeConfigs{cfg: activeConfig(models.GatewayMidtrans)}, manual, mt)

	res, err := p.ProcessPayment(context.Background(), charge(), "bca_va")
	require.NoError(t, err)

	assert.Equal(t, models.ModeGateway, res.Mode)
	assert.Equal(t, "ORD-1", res.OrderID)
	assert.Equal(t, models.GatewayMidtrans, res.GatewayName)
	assert.Equal(t, "12345678901", res.PaymentCode)
	assert.Equal(t, "bca_va", mt.lastCode)
	assert.Equal(t, "server", mt.lastCfg.SecretKey)
	assert.Equal(t, 1, mt.calls)
	assert.Zero(t, manual.calls)
	assert.Empty(t, res.ManualMethods)
}

func TestProcessPaymentManualModeMakesNoGatewayCall(t *testing.T) {
	mt := &fakeGateway{name: models.GatewayMidtrans}
	cfg := activeConfig(models.GatewayMidtrans)
	cfg.PaymentMode = models.ModeManual
	// Manual mode does not need gateway credentials
	cfg.APIKey, cfg.SecretKey = "", ""

	manual := &fakeManual{methods: []models.ManualPaymentMethod{
		{ID: 1, Type: models.ManualBankTransfer, ProviderName: "BCA", AccountName: "Toko", AccountNumber: "123", IsActive: true},
		{ID: 2, Type: models.ManualEWallet, ProviderName: "DANA", AccountName: "Toko", AccountNumber: "0812", IsActive: true},
	}}
	p := payment.NewProcessor(&fakeConfigs{cfg: cfg}, manual, mt)

	res, err := p.ProcessPayment(context.Background(), charge(), "")
	require.NoError(t, err)

	assert.Equal(t, models.ModeManual, res.Mode)
	assert.Equal(t, "ORD-1", res.OrderID)
	assert.Len(t, res.ManualMethods, 2)
	assert.Nil(t, res.TransactionResult)
	assert.Zero(t, mt.calls)
}

func TestProcessPaymentNoConfig(t *testing.T) {
	mt := &fakeGateway{name: models.GatewayMidtrans}
	p := payment.NewProcessor(&fakeConfigs{}, &fakeManual{}, mt)

	_, err := p.ProcessPayment(context.Background(), charge(), "bca_va")
	assert.ErrorIs(t, err, payment.ErrConfigNotSet)
	assert.Equal(t, "Configuration not set — contact admin", err.Error())
	assert.Zero(t, mt.calls)

	_, err = p.GetPaymentMode(context.Background())
	assert.ErrorIs(t, err, payment.ErrConfigNotSet)
}

func TestProcessPaymentStoreError(t *testing.T) {
	boom := errors.New("disk I/O error")
	p := payment.NewProcessor(&fakeConfigs{err: boom}, &fakeManual{})

	_, err := p.ProcessPayment(context.Background(), charge(), "bca_va")
	assert.ErrorIs(t, err, boom)
}

func TestProcessPaymentUnknownGateway(t *testing.T) {
	mt := &fakeGateway{name: models.GatewayMidtrans}
	cfg := activeConfig("xendit")
	p := payment.NewProcessor(&fakeConfigs{cfg: cfg}, &fakeManual{}, mt)

	_, err := p.ProcessPayment(context.Background(), charge(), "bca_va")
	var cerr *payment.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, err.Error(), "xendit")
	assert.Zero(t, mt.calls)
}

func TestProcessPaymentMissingCredentials(t *testing.T) {
	mt := &fakeGateway{name: models.GatewayMidtrans}
	cfg := activeConfig(models.GatewayMidtrans)
	cfg.SecretKey = ""
	p := payment.NewProcessor(&fakeConfigs{cfg: cfg}, &fakeManual{}, mt)

	_, err := p.ProcessPayment(context.Background(), charge(), "bca_va")
	var cerr *payment.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "Midtrans", cerr.Gateway)
	assert.Contains(t, err.Error(), "Midtrans")
	assert.Zero(t, mt.calls)
}

func TestProcessPaymentProviderErrorIsNotRetried(t *testing.T) {
	mt := &fakeGateway{name: models.GatewayMidtrans, err: &payment.ProviderError{
		Gateway: models.GatewayMidtrans, HTTPStatus: 200, Code: "406", Message: "Duplicate order ID",
	}}
	p := payment.NewProcessor(&fakeConfigs{cfg: activeConfig(models.GatewayMidtrans)}, &fakeManual{}, mt)

	_, err := p.ProcessPayment(context.Background(), charge(), "bca_va")
	var perr *payment.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 1, mt.calls)
}

func TestProcessPaymentUsesConfiguredGateway(t *testing.T) {
	mt := &fakeGateway{name: models.GatewayMidtrans, result: &payment.TransactionResult{}}
	dk := &fakeGateway{name: models.GatewayDuitku, result: &payment.TransactionResult{RedirectURL: "https://pay"}}
	cfg := activeConfig(models.GatewayDuitku)
	cfg.DisplayName = "Duitku"
	p := payment.NewProcessor(&fakeConfigs{cfg: cfg}, &fakeManual{}, mt, dk)

	res, err := p.ProcessPayment(context.Background(), charge(), "VC")
	require.NoError(t, err)
	assert.Equal(t, models.GatewayDuitku, res.GatewayName)
	assert.Equal(t, "https://pay", res.RedirectURL)
	assert.Zero(t, mt.calls)
	assert.Equal(t, 1, dk.calls)

	g, ok := p.Gateway(models.GatewayDuitku)
	require.True(t, ok)
	assert.Equal(t, models.GatewayDuitku, g.Name())
	_, ok = p.Gateway("xendit")
	assert.False(t, ok)
}

func TestGetPaymentMode(t *testing.T) {
	cfg := activeConfig(models.GatewayMidtrans)
	configs := &fakeConfigs{cfg: cfg}
	p := payment.NewProcessor(configs, &fakeManual{})

	mode, err := p.GetPaymentMode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ModeGateway, mode)

	cfg.PaymentMode = models.ModeManual
	mode, err = p.GetPaymentMode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ModeManual, mode)

	// Reading the config twice returns the same thing
	a, err := p.GetActivePaymentConfig(context.Background())
	require.NoError(t, err)
	b, err := p.GetActivePaymentConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", payment.Truncate("abc", 5))
	assert.Equal(t, "ab", payment.Truncate("abc", 2))
	assert.Equal(t, "Kopi ☕", payment.Truncate("Kopi ☕ Arabika", 6))
	assert.Equal(t, "", payment.Truncate("abc", 0))
}

func TestProviderErrorMessage(t *testing.T) {
	err := &payment.ProviderError{Gateway: models.GatewayDuitku}
	assert.Equal(t, "duitku error: charge failed", err.Error())

	err = &payment.ProviderError{Gateway: models.GatewayMidtrans, Code: "406", Message: "Duplicate order ID"}
	assert.Equal(t, "midtrans error (406): Duplicate order ID", err.Error())
}
