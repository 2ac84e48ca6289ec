package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Expirer flips overdue pending orders to EXPIRED
type Expirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) ([]string, error)
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	expirer  Expirer
	interval time.Duration
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// New creates a new Scheduler
func New(e Expirer, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		expirer:  e,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Payment expiry reconciliation
	ticker := time.NewTicker(s.interval)
	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.runExpiry()
			}
		}
	}()
}

// Stop halts the scheduler and waits for a running task to finish
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

// RunOnce runs the expiry reconciliation immediately
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	ids, err := s.expirer.ExpireOverdue(ctx, s.now())
	return len(ids), err
}

func (s *Scheduler) runExpiry() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	count, err := s.RunOnce(ctx)
	if err != nil {
		fmt.Printf("[SCHEDULER] Error expiring orders: %v\n", err)
		return
	}
	if count > 0 {
		fmt.Printf("[SCHEDULER] Expired %d orders\n", count)
	}
}
