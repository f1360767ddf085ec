package transport

import (
	"context"
	"math/rand"
	"time"
)

// Delay is the wait before retry n (1-based). Each retry after the first
// scales the previous delay by Multiplier, capped at MaxDelay. Jitter
// spreads the result over [d/2, 3d/2).
func (b BackoffConfig) Delay(n int, rng *rand.Rand) time.Duration {
	if b.InitialDelay <= 0 {
		return 0
	}
	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(b.InitialDelay)
	for i := 1; i < n; i++ {
		d *= mult
		if b.MaxDelay > 0 && d >= float64(b.MaxDelay) {
			d = float64(b.MaxDelay)
			break
		}
	}
	if b.Jitter {
		spread := 0.5
		if rng != nil {
			spread = rng.Float64()
		}
		d *= 0.5 + spread
	}
	return time.Duration(d)
}

func sleepBackoff(ctx context.Context, b BackoffConfig, n int, rng *rand.Rand) error {
	delay := b.Delay(n, rng)
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
