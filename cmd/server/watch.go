package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go-digistore/internal/payment/lifecycle"
)

// httpFetcher reads the payment-instruction endpoint of a running store
type httpFetcher struct {
	baseURL string
	client  *http.Client
}

func (f *httpFetcher) FetchInstruction(ctx context.Context, orderID string) (lifecycle.InstructionView, error) {
	var view lifecycle.InstructionView
	endpoint := strings.TrimRight(f.baseURL, "/") + "/api/payment-instruction?orderId=" + url.QueryEscape(orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return view, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return view, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return view, fmt.Errorf("order %s: %w", orderID, lifecycle.ErrOrderNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return view, fmt.Errorf("status endpoint returned %s", resp.Status)
	}
	err = json.NewDecoder(resp.Body).Decode(&view)
	return view, err
}

func watchOrder(baseURL, orderID string, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller := &lifecycle.Poller{
		Fetcher:  &httpFetcher{baseURL: baseURL, client: &http.Client{Timeout: 10 * time.Second}},
		Interval: interval,
		OnUpdate: func(u lifecycle.Update) {
			fmt.Printf("%s  %-14s  remaining %s  code %q\n",
				time.Now().Format("15:04:05"), u.Status, u.Remaining.Round(time.Second), u.View.PaymentCode)
		},
	}

	final, err := poller.Run(ctx, orderID)
	if err != nil {
		return err
	}
	fmt.Printf("Order %s settled: %s\n", orderID, final.Status)
	return nil
}
