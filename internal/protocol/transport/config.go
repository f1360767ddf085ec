package transport

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// BackoffConfig defines retry backoff behavior. A Multiplier of 1 gives a
// fixed delay between attempts.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// DialFunc opens the raw stream. net.Dialer.DialContext satisfies it.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Config holds connection parameters. It is copied into a Conn at dial time
// and never changes for the life of that connection.
type Config struct {
	Host string
	Port int
	// LoginTimeout bounds each TCP connect attempt.
	LoginTimeout time.Duration
	// Timeout is the per-operation read/write deadline once connected.
	Timeout         time.Duration
	Retries         int
	Backoff         BackoffConfig
	ChunkSize       int
	MaxPayloadBytes uint32
	Logger          zerolog.Logger
	Dial            DialFunc
}

func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         28192,
		LoginTimeout: 3 * time.Second,
		Timeout:      5 * time.Second,
		Retries:      3,
		Backoff: BackoffConfig{
			InitialDelay: 5 * time.Second,
			Multiplier:   1.0,
		},
		ChunkSize:       1024,
		MaxPayloadBytes: 16 * 1024 * 1024,
		Logger:          zerolog.Nop(),
	}
}

// WithDefaults fills unset fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = d.LoginTimeout
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.Backoff.Multiplier == 0 {
		c.Backoff.Multiplier = 1.0
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.MaxPayloadBytes == 0 {
		c.MaxPayloadBytes = d.MaxPayloadBytes
	}
	return c
}

func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
