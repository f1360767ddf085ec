package codec

import "errors"

const (
	RootTree      = "FbiXml"
	RootObject    = "FbiJson"
	NodeTicket    = "Ticket"
	NodeKey       = "Key"
	NodeRequests  = "FbiMsgsRq"
	NodeResponses = "FbiMsgsRs"
)

var ErrEmptyRequestName = errors.New("codec: request name required")

// Message is one named operation inside the message-request section.
type Message struct {
	Name  string
	Value any
}

// Request is the logical request document shared by both wire forms: the
// session key plus an ordered list of operations.
type Request struct {
	Key      string
	Messages []Message
}

func NewRequest(key string) *Request {
	return &Request{Key: key}
}

// Add appends an operation. value may be nil, a scalar rendered as the node
// text, or a mapping/list rendered as child nodes.
func (r *Request) Add(name string, value any) *Request {
	r.Messages = append(r.Messages, Message{Name: name, Value: value})
	return r
}

// Names lists the operation names in order, for logging.
func (r *Request) Names() []string {
	names := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		names = append(names, m.Name)
	}
	return names
}

// Label is a short description of the request for logs and metrics.
func (r *Request) Label() string {
	if r == nil || len(r.Messages) == 0 {
		return "unknown"
	}
	return r.Messages[0].Name
}

func (r *Request) validate() error {
	for _, m := range r.Messages {
		if m.Name == "" {
			return ErrEmptyRequestName
		}
	}
	return nil
}

// SimpleRequest builds a single-operation request from a name and value.
func SimpleRequest(key, name string, value any) *Request {
	return NewRequest(key).Add(name, value)
}
