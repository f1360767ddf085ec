package transport

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/danmuck/fishbowl/internal/protocol/frame"
	"github.com/danmuck/fishbowl/internal/testutil/testlog"
)

func TestBackoffDelayFixed(t *testing.T) {
	testlog.Start(t)
	b := BackoffConfig{InitialDelay: 5 * time.Second, Multiplier: 1.0}
	for n := 1; n <= 4; n++ {
		if got := b.Delay(n, nil); got != 5*time.Second {
			t.Fatalf("retry%d got=%v want=5s", n, got)
		}
	}
	if got := (BackoffConfig{}).Delay(3, nil); got != 0 {
		t.Fatalf("zero config got=%v want=0", got)
	}
}

func TestBackoffDelayGrowsToCap(t *testing.T) {
	testlog.Start(t)
	b := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
	}
	if got := b.Delay(2, nil); got != 500*time.Millisecond {
		t.Fatalf("retry2 got=%v want=500ms", got)
	}
	if got := b.Delay(6, nil); got != 5*time.Second {
		t.Fatalf("retry6 got=%v want=5s", got)
	}
	b.Multiplier = 0.5
	if got := b.Delay(3, nil); got != 250*time.Millisecond {
		t.Fatalf("multiplier below one got=%v want=250ms", got)
	}
}

func TestBackoffDelayJitterRange(t *testing.T) {
	testlog.Start(t)
	b := BackoffConfig{InitialDelay: 250 * time.Millisecond, Multiplier: 2.0, Jitter: true}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		got := b.Delay(2, rng)
		if got < 250*time.Millisecond || got >= 750*time.Millisecond {
			t.Fatalf("jitter out of range: %v", got)
		}
	}
}

func TestDialRetriesThenConnectionError(t *testing.T) {
	logger := testlog.Start(t)
	refused := errors.New("connection refused")
	var attempts int
	cfg := Config{
		Host:    "127.0.0.1",
		Port:    1,
		Retries: 2,
		Backoff: BackoffConfig{InitialDelay: time.Millisecond, Multiplier: 1.0},
		Logger:  logger,
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			attempts++
			return nil, refused
		},
	}
	_, err := Dial(context.Background(), cfg)
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if attempts != 3 || connErr.Attempts != 3 {
		t.Fatalf("attempts got=%d reported=%d want=3", attempts, connErr.Attempts)
	}
	if !errors.Is(err, refused) {
		t.Fatalf("expected underlying socket error, got %v", err)
	}
}

func TestDialSucceedsAfterRetry(t *testing.T) {
	logger := testlog.Start(t)
	var attempts int
	cfg := Config{
		Retries: 3,
		Backoff: BackoffConfig{InitialDelay: time.Millisecond, Multiplier: 1.0},
		Logger:  logger,
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			attempts++
			if attempts < 2 {
				return nil, errors.New("refused")
			}
			client, server := net.Pipe()
			t.Cleanup(func() { _ = server.Close() })
			return client, nil
		},
	}
	conn, err := Dial(context.Background(), cfg)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if attempts != 2 {
		t.Fatalf("attempts got=%d want=2", attempts)
	}
	if conn.Timeout() != DefaultConfig().Timeout {
		t.Fatalf("operational timeout not applied: %v", conn.Timeout())
	}
}

func TestDialRealListener(t *testing.T) {
	logger := testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		payload, err := frame.ReadFrame(c, frame.DefaultLimits())
		if err != nil {
			return
		}
		_ = frame.WriteFrame(c, append([]byte("echo:"), payload...), frame.DefaultLimits())
	}()

	addr := ln.Addr().(*net.TCPAddr)
	conn, err := Dial(context.Background(), Config{Host: "127.0.0.1", Port: addr.Port, Logger: logger})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := conn.Send([]byte("ping")); err != nil {
		t.Fatalf("send: %v", err)
	}
	got, err := conn.Receive()
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if string(got) != "echo:ping" {
		t.Fatalf("unexpected response: %q", got)
	}
}

func TestReceiveFragmentedResponse(t *testing.T) {
	logger := testlog.Start(t)
	client, server := net.Pipe()
	conn := NewConn(client, Config{Logger: logger, ChunkSize: 8})
	defer conn.Close()

	payload := bytes.Repeat([]byte("<Row>a,1</Row>"), 40)
	packed, _ := frame.Pack(payload, frame.DefaultLimits())
	go func() {
		defer server.Close()
		for i := 0; i < len(packed); i += 3 {
			end := i + 3
			if end > len(packed) {
				end = len(packed)
			}
			if _, err := server.Write(packed[i:end]); err != nil {
				return
			}
		}
	}()
	got, err := conn.Receive()
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestReceiveTimeoutBeforeLength(t *testing.T) {
	logger := testlog.Start(t)
	client, server := net.Pipe()
	defer server.Close()
	conn := NewConn(client, Config{Logger: logger, Timeout: 30 * time.Millisecond})

	_, err := conn.Receive()
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if timeoutErr.LengthReceived {
		t.Fatalf("length should not be marked received")
	}
	if !conn.Closed() {
		t.Fatalf("timeout should close the stream")
	}
	if err := conn.Send([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after timeout, got %v", err)
	}
}

func TestReceiveTimeoutAfterLength(t *testing.T) {
	logger := testlog.Start(t)
	client, server := net.Pipe()
	defer server.Close()
	conn := NewConn(client, Config{Logger: logger, Timeout: 50 * time.Millisecond})

	go func() {
		prefix, _ := frame.EncodeLength(100)
		_, _ = server.Write(prefix[:])
		_, _ = server.Write([]byte("partial"))
	}()
	_, err := conn.Receive()
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if !timeoutErr.LengthReceived {
		t.Fatalf("length should be marked received")
	}
	if timeoutErr.Error() != "transport: connection timeout (after length received)" {
		t.Fatalf("unexpected message: %q", timeoutErr.Error())
	}
	if !conn.Closed() {
		t.Fatalf("timeout should close the stream")
	}
}

func TestSendWritesLengthPrefix(t *testing.T) {
	logger := testlog.Start(t)
	client, server := net.Pipe()
	conn := NewConn(client, Config{Logger: logger})
	defer conn.Close()

	done := make(chan []byte, 1)
	go func() {
		payload, err := frame.ReadFrame(server, frame.DefaultLimits())
		if err != nil {
			done <- nil
			return
		}
		done <- payload
	}()
	if err := conn.Send([]byte("<test></test>")); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := <-done; string(got) != "<test></test>" {
		t.Fatalf("server got=%q", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	testlog.Start(t)
	client, server := net.Pipe()
	defer server.Close()
	conn := NewConn(client, Config{})
	if err := conn.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := conn.Receive(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
