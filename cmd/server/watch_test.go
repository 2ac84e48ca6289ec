package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go-digistore/internal/models"
	"go-digistore/internal/payment/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcherDrivesPoller(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payment-instruction", r.URL.Path)
		assert.Equal(t, "ORD-1", r.URL.Query().Get("orderId"))
		status := "PENDING"
		if atomic.AddInt32(&calls, 1) >= 3 {
			status = "PAID"
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"orderId":"ORD-1","paymentStatus":"` + status + `","paymentDeadline":"2099-01-01T00:00:00Z","manualMethod":null}`))
	}))
	defer srv.Close()

	p := &lifecycle.Poller{
		Fetcher:  &httpFetcher{baseURL: srv.URL + "/", client: srv.Client()},
		Interval: 5 * time.Millisecond,
	}
	final, err := p.Run(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, final.Status)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestHTTPFetcherErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := &httpFetcher{baseURL: srv.URL, client: srv.Client()}
	_, err := f.FetchInstruction(context.Background(), "ORD-x")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, lifecycle.ErrOrderNotFound)
}

func TestWatchStopsOnUnknownOrder(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":"Order not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	p := &lifecycle.Poller{
		Fetcher:  &httpFetcher{baseURL: srv.URL, client: srv.Client()},
		Interval: time.Millisecond,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := p.Run(ctx, "ORD-x")
	assert.ErrorIs(t, err, lifecycle.ErrOrderNotFound)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}
