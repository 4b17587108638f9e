package service

import (
	"context"
	"time"

	"clipcast/internal/domain"
)

// PollPolicy is a caller-owned retry budget for driving Poll to a terminal
// result. The server holds no timers; exhausting the budget surfaces
// domain.ErrStillProcessing and leaves the job pollable indefinitely.
type PollPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

// DefaultPollPolicy checks every five seconds for up to two and a half
// minutes, which covers typical render times.
var DefaultPollPolicy = PollPolicy{MaxAttempts: 30, Interval: 5 * time.Second}

// Await invokes poll up to MaxAttempts times, sleeping Interval between
// attempts, and returns the first terminal result it observes.
func (p PollPolicy) Await(ctx context.Context, poll func(context.Context) (*PollResult, error)) (*PollResult, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		res, err := poll(ctx)
		if err != nil {
			return nil, err
		}
		if res.Done {
			return res, nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(p.Interval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, domain.ErrStillProcessing
}
