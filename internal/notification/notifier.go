// Package notification fans order events out to customers and admins.
package notification

import (
	"context"
	"log"
	"sync"
	"time"

	"go-digistore/internal/mailer"
	"go-digistore/internal/models"
	"go-digistore/internal/notification/fcm"
	"go-digistore/internal/notification/whatsapp"
)

type EmailSender interface {
	Send(to, subject, body string) error
}

type WhatsAppSender interface {
	Send(phone, message string) error
}

type AdminChat interface {
	SendManualOrderAlert(o *models.Order) error
}

type PushSender interface {
	SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) error
}

// Notifier delivers messages in the background. Nil channels are skipped
// and delivery errors are only logged.
type Notifier struct {
	Mail     EmailSender
	WA       WhatsAppSender
	Telegram AdminChat
	Push     PushSender

	wg sync.WaitGroup
}

// OrderOpened sends payment instructions, and alerts admins for manual orders
func (n *Notifier) OrderOpened(o *models.Order) {
	if n == nil {
		return
	}
	order := *o

	if n.Mail != nil && order.CustomerEmail != "" {
		n.spawn("mail", order.ID, func() error {
			return n.Mail.Send(order.CustomerEmail, "Payment Instructions - Order "+order.ID, mailer.GeneratePaymentInstructionHTML(&order))
		})
	}
	if n.WA != nil && order.CustomerPhone != "" {
		n.spawn("whatsapp", order.ID, func() error {
			return n.WA.Send(order.CustomerPhone, whatsapp.GeneratePaymentInstructionMessage(&order))
		})
	}

	if order.PaymentStatus != models.StatusPendingManual {
		return
	}
	if n.Telegram != nil {
		n.spawn("telegram", order.ID, func() error {
			return n.Telegram.SendManualOrderAlert(&order)
		})
	}
	if n.Push != nil {
		n.spawn("fcm", order.ID, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return n.Push.SendToTopic(ctx, fcm.AdminTopic,
				"Manual payment waiting",
				order.ID+" - "+models.FormatRupiah(order.TotalAmount),
				map[string]string{"orderId": order.ID})
		})
	}
}

// OrderPaid sends the receipt
func (n *Notifier) OrderPaid(o *models.Order) {
	if n == nil {
		return
	}
	order := *o
	paidAt := time.Now()
	if order.PaidAt != nil {
		paidAt = *order.PaidAt
	}
	date := paidAt.In(time.FixedZone("WIB", 7*60*60)).Format("02/01/2006 15:04")
	amount := models.FormatRupiah(order.TotalAmount)

	if n.Mail != nil && order.CustomerEmail != "" {
		n.spawn("mail", order.ID, func() error {
			return n.Mail.Send(order.CustomerEmail, "Payment Receipt - Order "+order.ID,
				mailer.GeneratePaymentReceiptHTML(order.CustomerName, order.ID, amount, date))
		})
	}
	if n.WA != nil && order.CustomerPhone != "" {
		n.spawn("whatsapp", order.ID, func() error {
			return n.WA.Send(order.CustomerPhone,
				whatsapp.GeneratePaymentReceiptMessage(order.CustomerName, order.ID, date, amount))
		})
	}
}

// Wait blocks until every queued delivery has finished
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}

func (n *Notifier) spawn(channel, orderID string, send func() error) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := send(); err != nil {
			log.Printf("[NOTIFY] %s delivery failed for order %s: %v", channel, orderID, err)
		}
	}()
}
