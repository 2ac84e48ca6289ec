package lifecycle

import (
	"context"
	"errors"
	"log"
	"time"

	"go-digistore/internal/models"
)

// DefaultPollInterval is how often clients re-read a pending order
const DefaultPollInterval = 5 * time.Second

// ErrOrderNotFound is returned by a Fetcher when the order does not exist.
// The Poller gives up on it instead of retrying.
var ErrOrderNotFound = errors.New("order not found")

// Fetcher reads the current instruction view of an order
type Fetcher interface {
	FetchInstruction(ctx context.Context, orderID string) (InstructionView, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, orderID string) (InstructionView, error)

func (f FetcherFunc) FetchInstruction(ctx context.Context, orderID string) (InstructionView, error) {
	return f(ctx, orderID)
}

// Update is one observation made by the Poller
type Update struct {
	View      InstructionView
	Status    models.PaymentStatus // effective status, deadline applied
	Remaining time.Duration
	Expired   bool
}

// Poller polls an order on a fixed interval until it reaches a terminal status
type Poller struct {
	Fetcher  Fetcher
	Interval time.Duration
	Now      func() time.Time
	OnUpdate func(Update)
}

// Observe evaluates a view against the current time
func (p *Poller) Observe(view InstructionView) Update {
	now := p.now()
	deadline := view.Deadline()
	return Update{
		View:      view,
		Status:    EffectiveStatus(models.PaymentStatus(view.PaymentStatus), deadline, now),
		Remaining: Countdown(deadline, now),
		Expired:   IsExpired(deadline, now),
	}
}

// Run polls orderID until a terminal status is observed or ctx is done.
// Fetch errors are logged and retried on the next tick, except ErrOrderNotFound.
func (p *Poller) Run(ctx context.Context, orderID string) (Update, error) {
	if p.Fetcher == nil {
		return Update{}, errors.New("lifecycle: poller has no fetcher")
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last Update
	for {
		if err := ctx.Err(); err != nil {
			return last, err
		}
		view, err := p.Fetcher.FetchInstruction(ctx, orderID)
		switch {
		case err != nil && ctx.Err() != nil:
			return last, ctx.Err()
		case errors.Is(err, ErrOrderNotFound):
			return last, err
		case err != nil:
			log.Printf("[POLL] Failed to fetch order %s: %v", orderID, err)
		default:
			last = p.Observe(view)
			if p.OnUpdate != nil {
				p.OnUpdate(last)
			}
			if IsTerminal(last.Status) {
				return last, nil
			}
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
