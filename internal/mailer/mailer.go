package mailer

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"
	"time"

	"go-digistore/internal/models"
)

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer handles email sending
type Mailer struct {
	config Config
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates a new Mailer
func New(config Config) *Mailer {
	return &Mailer{config: config, send: smtp.SendMail}
}

// Send sends an HTML email
func (m *Mailer) Send(to string, subject string, body string) error {
	// If no config, just log (mock mode)
	if m.config.Host == "" {
		fmt.Printf("[MOCK MAIL] To: %s | Subject: %s | Body length: %d\n", to, subject, len(body))
		return nil
	}

	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)

	msg := []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", m.config.From, to, subject, body))

	return m.send(addr, auth, m.config.From, []string{to}, msg)
}

// GeneratePaymentInstructionHTML renders what the customer must do to pay an open order
func GeneratePaymentInstructionHTML(o *models.Order) string {
	var how strings.Builder
	switch {
	case o.ManualMethod != nil:
		fmt.Fprintf(&how, `<p>Please transfer to <strong>%s</strong><br>Account: <strong>%s</strong> a.n. %s</p>
			<p>Your order will be processed once an admin confirms the transfer.</p>`,
			html.EscapeString(o.ManualMethod.ProviderName),
			html.EscapeString(o.ManualMethod.AccountNumber),
			html.EscapeString(o.ManualMethod.AccountName))
	case o.RedirectURL != "":
		fmt.Fprintf(&how, `<p>Complete your payment here: <a href="%s">%s</a></p>`,
			html.EscapeString(o.RedirectURL), html.EscapeString(o.RedirectURL))
	case o.PaymentCode != "":
		fmt.Fprintf(&how, `<p>Payment method: <strong>%s</strong><br>Payment code: <strong>%s</strong></p>`,
			html.EscapeString(o.PaymentMethod), html.EscapeString(o.PaymentCode))
	}

	deadline := "-"
	if o.PaymentDeadline != nil {
		deadline = o.PaymentDeadline.In(wib).Format("02/01/2006 15:04") + " WIB"
	}

	return fmt.Sprintf(`
		<html>
		<body>
			<h2>Payment Instructions</h2>
			<p>Dear %s,</p>
			<p>Thank you for your order <strong>%s</strong>.</p>
			<p><strong>Total Amount:</strong> %s</p>
			%s
			<p><strong>Pay before:</strong> %s</p>
			<br>
			<p>Thank you,<br>Digistore Team</p>
		</body>
		</html>
	`, html.EscapeString(o.CustomerName), o.ID, models.FormatRupiah(o.TotalAmount), how.String(), deadline)
}

// GeneratePaymentReceiptHTML generates HTML for payment receipt
func GeneratePaymentReceiptHTML(customerName, orderID, amount, paidDate string) string {
	return fmt.Sprintf(`
		<html>
		<body>
			<h2>Payment Receipt</h2>
			<p>Dear %s,</p>
			<p>We have received your payment for order <strong>%s</strong>.</p>
			<p><strong>Amount Paid:</strong> %s</p>
			<p><strong>Date:</strong> %s</p>
			<p>Your downloads are now available from your dashboard.</p>
			<br>
			<p>Thank you,<br>Digistore Team</p>
		</body>
		</html>
	`, html.EscapeString(customerName), orderID, amount, paidDate)
}

var wib = time.FixedZone("WIB", 7*60*60)
