package session

import (
	"errors"

	"github.com/beevik/etree"
	"github.com/danmuck/fishbowl/internal/observability"
	"github.com/danmuck/fishbowl/internal/protocol/codec"
)

// Call describes one request and how to pick the interesting node out of
// its response.
type Call struct {
	// Name and Value build a single-operation request when Request is nil.
	Name    string
	Value   any
	Request *codec.Request
	// ResponseNode names the child of FbiMsgsRs to status-check and return.
	// Empty returns the whole response root.
	ResponseNode string
	// Multiple returns the response node itself rather than its first child.
	Multiple bool
	// SilenceErrors turns a status failure into the empty placeholder.
	SilenceErrors bool
}

// SendRequest sends call and returns the selected response node. A missing
// envelope or response node counts as no status and yields the empty
// placeholder rather than an error.
func (s *Session) SendRequest(call Call) (*etree.Element, error) {
	req := call.Request
	if req == nil {
		req = codec.SimpleRequest(s.Key(), call.Name, call.Value)
	}
	root, err := s.Send(req)
	if err != nil {
		return nil, err
	}
	if call.ResponseNode == "" {
		return root, nil
	}

	node, err := responseNode(root, call.ResponseNode)
	if err != nil {
		var statusErr *codec.StatusError
		if errors.As(err, &statusErr) {
			observability.RecordStatusError(req.Label(), statusErr.Code)
		}
		if call.SilenceErrors {
			s.logger.Debug().Err(err).Str("response", call.ResponseNode).Msg("status error silenced")
			return codec.Empty(), nil
		}
		s.logger.Error().Err(err).Str("response", call.ResponseNode).Msg("request failed")
		return nil, err
	}
	if node == nil {
		return codec.Empty(), nil
	}
	if call.Multiple {
		return node, nil
	}
	children := node.ChildElements()
	if len(children) == 0 {
		return codec.Empty(), nil
	}
	return children[0], nil
}

func responseNode(root *etree.Element, name string) (*etree.Element, error) {
	envelope := root.SelectElement(codec.NodeResponses)
	if _, err := codec.CheckStatus(envelope, codec.Success, true); err != nil {
		return nil, err
	}
	if envelope == nil {
		return nil, nil
	}
	node := envelope.SelectElement(name)
	if _, err := codec.CheckStatus(node, codec.Success, true); err != nil {
		return nil, err
	}
	return node, nil
}
