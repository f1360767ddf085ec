package codec

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"
)

// TreeCodec is the element-tree wire form: attribute-free request documents
// under FbiXml, single-byte text on the wire.
type TreeCodec struct {
	Charset *charmap.Charmap
}

func NewTreeCodec() *TreeCodec {
	return &TreeCodec{Charset: charmap.ISO8859_1}
}

func (c *TreeCodec) Name() string { return FormatTree }

// Build assembles the request document.
func (c *TreeCodec) Build(req *Request) (*etree.Document, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	// CSV import rows carry quotes; keep them literal in text nodes.
	doc.WriteSettings.CanonicalText = true
	root := doc.CreateElement(RootTree)
	root.CreateElement(NodeTicket).CreateElement(NodeKey).SetText(req.Key)
	msgs := root.CreateElement(NodeRequests)
	for _, m := range req.Messages {
		appendTree(msgs, m.Name, m.Value)
	}
	return doc, nil
}

func (c *TreeCodec) Encode(req *Request) ([]byte, error) {
	doc, err := c.Build(req)
	if err != nil {
		return nil, err
	}
	text, err := doc.WriteToString()
	if err != nil {
		return nil, fmt.Errorf("codec: write tree: %w", err)
	}
	return c.encodeText(text), nil
}

func (c *TreeCodec) Decode(payload []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	// Text is already decoded below; declared charsets are informational.
	doc.ReadSettings.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := doc.ReadFromString(c.decodeText(payload)); err != nil {
		return nil, fmt.Errorf("codec: parse tree: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, ErrEmptyDocument
	}
	return root, nil
}

// encodeText maps text onto the single-byte charset. Runes outside it are
// written as numeric character references.
func (c *TreeCodec) encodeText(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		if r < utf8.RuneSelf {
			out = append(out, byte(r))
			continue
		}
		if c.Charset != nil {
			if b, ok := c.Charset.EncodeRune(r); ok {
				out = append(out, b)
				continue
			}
		}
		out = append(out, "&#"+strconv.Itoa(int(r))+";"...)
	}
	return out
}

func (c *TreeCodec) decodeText(payload []byte) string {
	if c.Charset == nil {
		return string(payload)
	}
	var sb strings.Builder
	sb.Grow(len(payload))
	for _, b := range payload {
		sb.WriteRune(c.Charset.DecodeByte(b))
	}
	return sb.String()
}

func appendTree(parent *etree.Element, name string, v any) {
	fillTree(parent.CreateElement(name), name, v)
}

func fillTree(el *etree.Element, name string, v any) {
	kind, fields, items, elem := classify(v)
	switch kind {
	case kindNil:
	case kindElement:
		fillTree(el, name, elem.ElementValue())
	case kindFields:
		for _, f := range fields {
			appendTree(el, f.Name, f.Value)
		}
	case kindList:
		for _, item := range items {
			if k, _, _, _ := classify(item); k == kindNil {
				continue
			}
			appendTree(el, itemName(name, item), item)
		}
	default:
		el.SetText(FormatValue(v))
	}
}
