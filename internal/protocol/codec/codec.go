package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

const (
	FormatTree   = "xml"
	FormatObject = "json"
)

var (
	ErrUnknownFormat = errors.New("codec: unknown wire format")
	ErrEmptyDocument = errors.New("codec: response has no root node")
)

// Codec converts requests to wire payloads and wire payloads to a navigable
// tree. Both wire forms decode into the same tree shape so status checks and
// record mapping work identically on either.
type Codec interface {
	Name() string
	Encode(req *Request) ([]byte, error)
	Decode(payload []byte) (*etree.Element, error)
}

// ForFormat returns the codec for "xml" or "json".
func ForFormat(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FormatTree:
		return NewTreeCodec(), nil
	case FormatObject:
		return NewObjectCodec(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Render serialises a response node as indented XML for display.
func Render(el *etree.Element) string {
	if el == nil {
		return ""
	}
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return out
}

// Empty is the placeholder returned when a response has no usable node.
func Empty() *etree.Element {
	return etree.NewElement("empty")
}

// IsEmpty reports whether el is nil or the empty placeholder.
func IsEmpty(el *etree.Element) bool {
	return el == nil || (el.Tag == "empty" && len(el.ChildElements()) == 0)
}
