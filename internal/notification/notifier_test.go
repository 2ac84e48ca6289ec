package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go-digistore/internal/models"

	"github.com/stretchr/testify/assert"
)

type outbox struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (o *outbox) add(kind string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, kind)
	if o.fail {
		return errors.New("provider down")
	}
	return nil
}

func (o *outbox) kinds() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.sent...)
}

type mailStub struct{ box *outbox }

func (m mailStub) Send(to, subject, body string) error { return m.box.add("mail:" + subject) }

type waStub struct{ box *outbox }

func (w waStub) Send(phone, message string) error { return w.box.add("wa:" + phone) }

type chatStub struct{ box *outbox }

func (c chatStub) SendManualOrderAlert(o *models.Order) error { return c.box.add("telegram:" + o.ID) }

type pushStub struct{ box *outbox }

func (p pushStub) SendToTopic(_ context.Context, topic, title, body string, data map[string]string) error {
	return p.box.add("push:" + data["orderId"])
}

func newNotifier(box *outbox) *Notifier {
	return &Notifier{Mail: mailStub{box}, WA: waStub{box}, Telegram: chatStub{box}, Push: pushStub{box}}
}

func TestOrderOpenedGateway(t *testing.T) {
	box := &outbox{}
	n := newNotifier(box)

	n.OrderOpened(&models.Order{ID: "ORD-1", CustomerEmail: "a@example.com", CustomerPhone: "0812", PaymentStatus: models.StatusPending})
	n.Wait()

	assert.ElementsMatch(t, []string{"mail:Payment Instructions - Order ORD-1", "wa:0812"}, box.kinds())
}

func TestOrderOpenedManualAlertsAdmins(t *testing.T) {
	box := &outbox{}
	n := newNotifier(box)

	n.OrderOpened(&models.Order{ID: "ORD-2", CustomerEmail: "a@example.com", PaymentStatus: models.StatusPendingManual})
	n.Wait()

	assert.ElementsMatch(t, []string{"mail:Payment Instructions - Order ORD-2", "telegram:ORD-2", "push:ORD-2"}, box.kinds())
}

func TestOrderPaidSendsReceipt(t *testing.T) {
	box := &outbox{fail: true}
	n := newNotifier(box)

	n.OrderPaid(&models.Order{ID: "ORD-3", CustomerEmail: "a@example.com", CustomerPhone: "0812", PaymentStatus: models.StatusPaid})
	n.Wait()

	assert.ElementsMatch(t, []string{"mail:Payment Receipt - Order ORD-3", "wa:0812"}, box.kinds())
}

func TestNilNotifier(t *testing.T) {
	var n *Notifier
	n.OrderOpened(&models.Order{ID: "ORD-4"})
	n.OrderPaid(&models.Order{ID: "ORD-4"})
	n.Wait()

	empty := &Notifier{}
	empty.OrderOpened(&models.Order{ID: "ORD-4", CustomerEmail: "a@example.com", PaymentStatus: models.StatusPendingManual})
	empty.Wait()
}
