package whatsapp

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-digistore/internal/config"
	"go-digistore/internal/models"
)

// Client handles WhatsApp notifications
type Client struct {
	cfg  *config.Config
	http *http.Client
}

// New creates a new WhatsApp client
func New(cfg *config.Config) *Client {
	return &Client{cfg: cfg, http: &http.Client{Timeout: 10 * time.Second}}
}

// Send sends a WhatsApp message
func (c *Client) Send(phone, message string) error {
	if c.cfg.WAApiKey == "" {
		fmt.Printf("[MOCK WA] To: %s | Message: %s\n", phone, message)
		return nil
	}

	data := url.Values{}
	data.Set("target", NormalizePhone(phone))
	data.Set("message", message)

	req, err := http.NewRequest(http.MethodPost, c.cfg.WAProviderURL, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.cfg.WAApiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("whatsapp API error: %d", resp.StatusCode)
	}
	return nil
}

// NormalizePhone turns local 08xx numbers into 628xx
func NormalizePhone(phone string) string {
	p := strings.NewReplacer(" ", "", "-", "", "+", "").Replace(phone)
	if strings.HasPrefix(p, "0") {
		return "62" + p[1:]
	}
	return p
}

// Templates for common messages

func GeneratePaymentInstructionMessage(o *models.Order) string {
	var how string
	switch {
	case o.ManualMethod != nil:
		how = fmt.Sprintf("Transfer ke %s\nNo. Rekening: %s\na.n. %s\n\nPesanan diproses setelah admin mengonfirmasi transfer.",
			o.ManualMethod.ProviderName, o.ManualMethod.AccountNumber, o.ManualMethod.AccountName)
	case o.RedirectURL != "":
		how = "Selesaikan pembayaran di: " + o.RedirectURL
	default:
		how = fmt.Sprintf("Metode: %s\nKode Bayar: %s", o.PaymentMethod, o.PaymentCode)
	}

	deadline := "-"
	if o.PaymentDeadline != nil {
		deadline = o.PaymentDeadline.In(time.FixedZone("WIB", 7*60*60)).Format("02/01/2006 15:04") + " WIB"
	}

	return fmt.Sprintf("*Menunggu Pembayaran - Digistore*\n\nHalo %s,\nPesanan #%s sebesar %s menunggu pembayaran.\n\n%s\n\nBatas waktu: %s\nTerima kasih.",
		o.CustomerName, o.ID, models.FormatRupiah(o.TotalAmount), how, deadline)
}

func GeneratePaymentReceiptMessage(customerName, orderID, paymentDate, amount string) string {
	return fmt.Sprintf("*Pembayaran Diterima - Digistore*\n\nHalo %s,\nPembayaran pesanan #%s sebesar %s telah kami terima pada %s.\n\nFile Anda sudah bisa diunduh dari dashboard.\nTerima kasih.", customerName, orderID, amount, paymentDate)
}
