package transport

import (
	"context"
	"math/rand"
	"net"
	"time"

	"github.com/danmuck/fishbowl/internal/observability"
)

// Dial connects to cfg.Address, retrying up to cfg.Retries times with the
// configured backoff between attempts.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	cfg = cfg.WithDefaults()
	addr := cfg.Address()
	dial := cfg.Dial
	if dial == nil {
		dialer := net.Dialer{Timeout: cfg.LoginTimeout}
		dial = dialer.DialContext
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	cfg.Logger.Info().Str("addr", addr).Msg("connecting")
	var attempt int
	for {
		attempt++
		raw, err := dialOnce(ctx, dial, addr, cfg.LoginTimeout)
		observability.RecordConnectAttempt(err == nil)
		if err == nil {
			return NewConn(raw, cfg), nil
		}
		if attempt > cfg.Retries || ctx.Err() != nil {
			cfg.Logger.Error().Err(err).Str("addr", addr).Int("attempt", attempt).Msg("connection failure, giving up")
			return nil, &ConnectionError{Addr: addr, Attempts: attempt, Err: err}
		}
		cfg.Logger.Warn().Err(err).Str("addr", addr).Int("attempt", attempt).Msg("connection failure, retrying")
		if err := sleepBackoff(ctx, cfg.Backoff, attempt, rng); err != nil {
			return nil, &ConnectionError{Addr: addr, Attempts: attempt, Err: err}
		}
	}
}

func dialOnce(ctx context.Context, dial DialFunc, addr string, timeout time.Duration) (net.Conn, error) {
	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return dial(dctx, "tcp", addr)
}
