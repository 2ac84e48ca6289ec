// Package lifecycle defines how an order's payment status moves and how
// clients should observe it while a payment is open.
package lifecycle

import (
	"time"

	"go-digistore/internal/models"
)

// IsTerminal reports whether no further transition is expected from s
func IsTerminal(s models.PaymentStatus) bool {
	switch s {
	case models.StatusPaid, models.StatusFailed, models.StatusExpired:
		return true
	}
	return false
}

// IsPending reports whether s is awaiting payment, in gateway or manual mode
func IsPending(s models.PaymentStatus) bool {
	return s == models.StatusPending || s == models.StatusPendingManual
}

// CanTransition reports whether a stored status may move from one state to another.
// Only pending orders move, and only into a terminal state.
func CanTransition(from, to models.PaymentStatus) bool {
	return IsPending(from) && IsTerminal(to)
}

// Countdown returns the time left until deadline, clamped to zero
func Countdown(deadline *time.Time, now time.Time) time.Duration {
	if deadline == nil {
		return 0
	}
	d := deadline.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// IsExpired reports whether the deadline has been reached.
// The deadline is authoritative even while the stored status still says pending.
func IsExpired(deadline *time.Time, now time.Time) bool {
	if deadline == nil {
		return false
	}
	return !now.Before(*deadline)
}

// EffectiveStatus is the status a client should display
func EffectiveStatus(stored models.PaymentStatus, deadline *time.Time, now time.Time) models.PaymentStatus {
	if IsPending(stored) && IsExpired(deadline, now) {
		return models.StatusExpired
	}
	return stored
}
