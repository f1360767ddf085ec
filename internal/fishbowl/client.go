// Package fishbowl is the high level client: SQL queries through the
// server's query gateway and the typed inventory, customer, order and
// import/export operations built on a session.
package fishbowl

import (
	"context"
	"errors"
	"fmt"

	"github.com/beevik/etree"
	"github.com/danmuck/fishbowl/internal/protocol/codec"
	"github.com/danmuck/fishbowl/internal/protocol/transport"
	"github.com/danmuck/fishbowl/internal/records"
	"github.com/danmuck/fishbowl/internal/session"
	"github.com/rs/zerolog"
)

// ErrMissingNode is returned when a response lacks a node an operation
// needs to produce its result.
var ErrMissingNode = errors.New("fishbowl: response node missing")

type Options struct {
	// LazyErrors applies to records fetched on first access.
	LazyErrors records.LazyErrorPolicy
}

// Client runs domain operations over one session. It holds no state of its
// own beyond options; the session owns the stream and key.
type Client struct {
	sess   *session.Session
	opts   Options
	logger zerolog.Logger
}

func New(sess *session.Session, opts Options) *Client {
	return &Client{
		sess:   sess,
		opts:   opts,
		logger: sess.Logger().With().Str("component", "fishbowl").Logger(),
	}
}

func (c *Client) Session() *session.Session { return c.sess }

func (c *Client) Close(skipErrors bool) error { return c.sess.Close(skipErrors) }

// Open connects, runs fn and closes. When fn fails the close is quiet so
// fn's error is the one returned; a timeout while closing is ignored.
func Open(ctx context.Context, cfg session.Config, username, password string, fn func(*Client) error) error {
	sess := session.New(cfg)
	if err := sess.Connect(ctx, username, password); err != nil {
		return err
	}
	fnErr := fn(New(sess, Options{}))
	closeErr := sess.Close(fnErr != nil)
	var timeout *transport.TimeoutError
	if errors.As(closeErr, &timeout) {
		closeErr = nil
	}
	return errors.Join(fnErr, closeErr)
}

// Send issues a pre-built request and returns the raw response root.
func (c *Client) Send(req *codec.Request) (*etree.Element, error) {
	return c.sess.Send(req)
}

func (c *Client) SendRequest(call session.Call) (*etree.Element, error) {
	return c.sess.SendRequest(call)
}

// send issues req and status-checks the response envelope.
func (c *Client) send(req *codec.Request) (*etree.Element, error) {
	root, err := c.sess.Send(req)
	if err != nil {
		return nil, err
	}
	if _, err := codec.CheckStatus(root.SelectElement(codec.NodeResponses), codec.Success, false); err != nil {
		c.logger.Error().Err(err).Str("request", req.Label()).Msg("request failed")
		return nil, err
	}
	return root, nil
}

// list sends a parameterless request and returns every descendant of the
// response node named item.
func (c *Client) list(request, response, item string) ([]*etree.Element, error) {
	node, err := c.sess.SendRequest(session.Call{Name: request, ResponseNode: response, Multiple: true})
	if err != nil {
		return nil, err
	}
	return node.FindElements(".//" + item), nil
}

func texts(els []*etree.Element) []string {
	out := make([]string, 0, len(els))
	for _, el := range els {
		out = append(out, el.Text())
	}
	return out
}

func checkAll(root *etree.Element, path string) error {
	for _, el := range root.FindElements(path) {
		if _, err := codec.CheckStatus(el, codec.Success, true); err != nil {
			return err
		}
	}
	return nil
}

func missing(path string) error {
	return fmt.Errorf("%w: %s", ErrMissingNode, path)
}
