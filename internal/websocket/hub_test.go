package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-digistore/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("orderId")
		hub.Serve(w, r, id, &StatusMessage{OrderID: id, PaymentStatus: models.StatusPending})
	}))
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, orderID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?orderId=" + orderID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readStatus(t *testing.T, conn *websocket.Conn) StatusMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg StatusMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServeSendsInitialStatus(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv, "ORD-1")

	msg := readStatus(t, conn)
	assert.Equal(t, "ORD-1", msg.OrderID)
	assert.Equal(t, models.StatusPending, msg.PaymentStatus)
}

func TestBroadcastReachesOnlyThatOrder(t *testing.T) {
	hub, srv := startHub(t)
	a := dial(t, srv, "ORD-A")
	b := dial(t, srv, "ORD-B")
	readStatus(t, a)
	readStatus(t, b)

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastStatus("ORD-A", models.StatusPaid)
	msg := readStatus(t, a)
	assert.Equal(t, "ORD-A", msg.OrderID)
	assert.Equal(t, models.StatusPaid, msg.PaymentStatus)

	require.NoError(t, b.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := b.ReadMessage()
	assert.Error(t, err, "subscriber of another order must not receive the update")
}

func TestClientCountDropsOnDisconnect(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "ORD-1")
	readStatus(t, conn)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastAfterCloseDoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Close()
	hub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			hub.BroadcastStatus("ORD-1", models.StatusExpired)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("BroadcastStatus blocked after Close")
	}
}
