package transport

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/fishbowl/internal/protocol/frame"
	"github.com/rs/zerolog"
)

// Conn is one framed stream. It carries a single in-flight exchange at a
// time; Close may be called from any goroutine to abandon it.
type Conn struct {
	raw     net.Conn
	limits  frame.Limits
	logger  zerolog.Logger
	timeout atomic.Int64
	closed  atomic.Bool
	once    sync.Once
}

// NewConn wraps an already established stream.
func NewConn(raw net.Conn, cfg Config) *Conn {
	cfg = cfg.WithDefaults()
	c := &Conn{
		raw: raw,
		limits: frame.Limits{
			MaxPayloadBytes: cfg.MaxPayloadBytes,
			ChunkSize:       cfg.ChunkSize,
		},
		logger: cfg.Logger,
	}
	c.timeout.Store(int64(cfg.Timeout))
	return c
}

func (c *Conn) Timeout() time.Duration {
	return time.Duration(c.timeout.Load())
}

func (c *Conn) SetTimeout(d time.Duration) {
	c.timeout.Store(int64(d))
}

func (c *Conn) Closed() bool {
	return c.closed.Load()
}

func (c *Conn) RemoteAddr() string {
	if c.raw == nil || c.raw.RemoteAddr() == nil {
		return ""
	}
	return c.raw.RemoteAddr().String()
}

// Close is idempotent; only the first call reaches the stream.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		c.closed.Store(true)
		err = c.raw.Close()
	})
	return err
}

// Send writes payload behind its length prefix.
func (c *Conn) Send(payload []byte) error {
	if c.Closed() {
		return ErrClosed
	}
	if err := c.raw.SetWriteDeadline(c.deadline()); err != nil {
		return c.fail(err, false)
	}
	c.logger.Trace().Int("bytes", len(payload)).Msg("transport send")
	if err := frame.WriteFrame(c.raw, payload, c.limits); err != nil {
		if errors.Is(err, frame.ErrPayloadTooLarge) {
			return err
		}
		return c.fail(err, false)
	}
	return nil
}

// Receive reads exactly one framed message.
func (c *Conn) Receive() ([]byte, error) {
	if c.Closed() {
		return nil, ErrClosed
	}
	if err := c.raw.SetReadDeadline(c.deadline()); err != nil {
		return nil, c.fail(err, false)
	}
	payload, err := frame.ReadFrame(c.raw, c.limits)
	if err != nil {
		var readErr *frame.ReadError
		lengthReceived := errors.As(err, &readErr) && readErr.LengthReceived
		return nil, c.fail(err, lengthReceived)
	}
	c.logger.Trace().Int("bytes", len(payload)).Msg("transport receive")
	return payload, nil
}

func (c *Conn) deadline() time.Time {
	d := c.Timeout()
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}

// fail force-closes the stream after any I/O error; a half-read frame leaves
// the stream unusable. Errors from the close are logged and dropped.
func (c *Conn) fail(err error, lengthReceived bool) error {
	if c.Closed() && errors.Is(err, net.ErrClosed) {
		return ErrClosed
	}
	if cerr := c.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
		c.logger.Warn().Err(cerr).Msg("transport close after failure")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		terr := &TimeoutError{LengthReceived: lengthReceived, Err: err}
		c.logger.Error().Err(err).Bool("length_received", lengthReceived).Msg(terr.Error())
		return terr
	}
	return err
}
