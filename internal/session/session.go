package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/danmuck/fishbowl/internal/observability"
	"github.com/danmuck/fishbowl/internal/protocol/codec"
	"github.com/danmuck/fishbowl/internal/protocol/transport"
	"github.com/rs/zerolog"
)

var (
	ErrNotConnected = errors.New("session: not connected")
	ErrNoLoginKey   = fmt.Errorf("%w: no login key in response", codec.ErrStatus)
)

// Config is everything a session needs to reach and authenticate with one
// server.
type Config struct {
	Transport transport.Config
	// Codec defaults to the tree (XML) wire form.
	Codec codec.Codec
	// TaskName distinguishes concurrently running clients at login.
	TaskName string
	Logger   zerolog.Logger
}

func DefaultConfig() Config {
	return Config{
		Transport: transport.DefaultConfig(),
		Codec:     codec.NewTreeCodec(),
		Logger:    zerolog.Nop(),
	}
}

// Session owns one authenticated stream and its key. Exchanges are strictly
// sequential: the mutex is held from send until the response is decoded.
type Session struct {
	cfg    Config
	logger zerolog.Logger

	mu        sync.Mutex
	conn      *transport.Conn
	connected bool
	key       string
	username  string
}

func New(cfg Config) *Session {
	if cfg.Codec == nil {
		cfg.Codec = codec.NewTreeCodec()
	}
	cfg.Transport = cfg.Transport.WithDefaults()
	return &Session{
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "session").Logger(),
	}
}

func (s *Session) Codec() codec.Codec { return s.cfg.Codec }

func (s *Session) Logger() zerolog.Logger { return s.logger }

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Key is the current session key, empty when not logged in.
func (s *Session) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// NewRequest returns a request builder carrying the current key.
func (s *Session) NewRequest() *codec.Request {
	return codec.NewRequest(s.Key())
}

// Connect dials the server and logs in. An existing connection is closed
// first. On any failure after the stream opens the session is torn down
// quietly and the login error returned.
func (s *Session) Connect(ctx context.Context, username, password string) error {
	hashed := codec.HashPassword(password)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		if err := s.closeLocked(); err != nil {
			return err
		}
	}

	conn, err := transport.Dial(ctx, s.cfg.Transport)
	if err != nil {
		return err
	}
	s.conn = conn
	s.connected = true
	s.key = ""

	if err := s.login(username, hashed); err != nil {
		s.logger.Error().Err(err).Msg("unexpected error while connecting, closing connection")
		if cerr := s.closeLocked(); cerr != nil {
			s.logger.Warn().Err(cerr).Msg("suppressed error while closing")
		}
		return err
	}
	s.username = username
	s.logger.Info().Str("user", username).Str("addr", conn.RemoteAddr()).Msg("logged in")
	return nil
}

func (s *Session) login(username, hashed string) error {
	root, err := s.exchange(codec.LoginRequest(username, hashed, s.cfg.TaskName))
	if err != nil {
		return err
	}
	var key string
	var statusErr error
	walk(root, func(el *etree.Element) bool {
		switch el.Tag {
		case codec.NodeKey:
			key = strings.TrimSpace(el.Text())
		case "loginRs", "LoginRs", codec.NodeResponses:
			if _, err := codec.CheckStatus(el, codec.Success, true); err != nil {
				statusErr = err
				return false
			}
		}
		return true
	})
	if statusErr != nil {
		return statusErr
	}
	if key == "" {
		return ErrNoLoginKey
	}
	s.key = key
	return nil
}

// walk visits el and its descendants in document order until fn returns
// false.
func walk(el *etree.Element, fn func(*etree.Element) bool) bool {
	if !fn(el) {
		return false
	}
	for _, child := range el.ChildElements() {
		if !walk(child, fn) {
			return false
		}
	}
	return true
}

// Close logs out when a key is held, then closes the stream. The key is
// dropped before the logout goes out so a failed logout is never retried
// with a stale key. The session always ends disconnected; with skipErrors
// any failure is logged and nil returned.
func (s *Session) Close(skipErrors bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.closeLocked()
	if err != nil && skipErrors {
		s.logger.Warn().Err(err).Msg("suppressed error while closing")
		return nil
	}
	return err
}

func (s *Session) closeLocked() error {
	var logoutErr error
	if key := s.key; key != "" {
		s.key = ""
		root, err := s.exchange(codec.LogoutRequest(key))
		if err != nil {
			logoutErr = err
		} else {
			_, logoutErr = codec.CheckStatus(root.SelectElement(codec.NodeResponses), codec.LoggedOff, false)
		}
	}

	if !s.connected {
		return errors.Join(logoutErr, ErrNotConnected)
	}
	s.connected = false
	var closeErr error
	if s.conn != nil {
		closeErr = s.conn.Close()
		s.conn = nil
	}
	if closeErr == nil && logoutErr == nil {
		s.logger.Info().Msg("connection closed")
	}
	return errors.Join(closeErr, logoutErr)
}

// Send encodes req, performs one exchange and returns the decoded root.
func (s *Session) Send(req *codec.Request) (*etree.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		s.logger.Error().Str("request", req.Label()).Msg("request issued on a session that is not connected")
		return nil, ErrNotConnected
	}
	root, err := s.exchange(req)
	if err != nil && s.conn != nil && s.conn.Closed() {
		// The transport abandons the stream on timeouts and I/O failures.
		s.key = ""
		s.connected = false
		s.conn = nil
	}
	return root, err
}

func (s *Session) exchange(req *codec.Request) (*etree.Element, error) {
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	label := req.Label()
	payload, err := s.cfg.Codec.Encode(req)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("request", label).Msg("sending request")
	if label != "LoginRq" {
		s.logger.Trace().Str("request", label).Bytes("payload", payload).Msg("request payload")
	}

	start := time.Now()
	resp, err := s.roundTrip(payload)
	if err != nil {
		observability.RecordRequest(label, outcomeFor(err), time.Since(start))
		return nil, err
	}
	s.logger.Trace().Str("request", label).Bytes("payload", resp).Msg("response payload")

	root, err := s.cfg.Codec.Decode(resp)
	if err != nil {
		observability.RecordRequest(label, observability.OutcomeError, time.Since(start))
		return nil, err
	}
	observability.RecordRequest(label, observability.OutcomeOK, time.Since(start))
	return root, nil
}

func (s *Session) roundTrip(payload []byte) ([]byte, error) {
	if err := s.conn.Send(payload); err != nil {
		return nil, err
	}
	return s.conn.Receive()
}

func outcomeFor(err error) string {
	var timeout *transport.TimeoutError
	switch {
	case errors.As(err, &timeout):
		return observability.OutcomeTimeout
	default:
		return observability.OutcomeError
	}
}
