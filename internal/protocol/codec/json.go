package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/beevik/etree"
)

// ObjectCodec is the nested key/value wire form under FbiJson, UTF-8 text.
// Status members decode into the same attributes the tree form carries.
type ObjectCodec struct{}

func NewObjectCodec() *ObjectCodec { return &ObjectCodec{} }

func (c *ObjectCodec) Name() string { return FormatObject }

func (c *ObjectCodec) Encode(req *Request) ([]byte, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"` + RootObject + `":{"` + NodeTicket + `":{"` + NodeKey + `":`)
	writeJSONString(&buf, req.Key)
	buf.WriteString(`},"` + NodeRequests + `":{`)
	for i, m := range req.Messages {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(&buf, m.Name)
		buf.WriteByte(':')
		writeJSONValue(&buf, m.Name, m.Value)
	}
	buf.WriteString(`}}}`)
	return buf.Bytes(), nil
}

func (c *ObjectCodec) Decode(payload []byte) (*etree.Element, error) {
	v, err := DecodeOrderedJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("codec: parse object: %w", err)
	}
	fields, ok := v.(Fields)
	if !ok {
		return nil, ErrEmptyDocument
	}
	if len(fields) == 1 {
		return objectElement(fields[0].Name, fields[0].Value), nil
	}
	return objectElement(RootObject, fields), nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encoder terminates each value with a newline.
	buf.Truncate(buf.Len() - 1)
}

func writeJSONValue(buf *bytes.Buffer, name string, v any) {
	kind, fields, items, elem := classify(v)
	switch kind {
	case kindNil:
		buf.WriteString(`""`)
	case kindElement:
		writeJSONValue(buf, name, elem.ElementValue())
	case kindFields:
		buf.WriteByte('{')
		for i, f := range fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, f.Name)
			buf.WriteByte(':')
			writeJSONValue(buf, f.Name, f.Value)
		}
		buf.WriteByte('}')
	case kindList:
		writeJSONList(buf, name, items)
	default:
		writeJSONString(buf, FormatValue(v))
	}
}

// writeJSONList mirrors the tree form: a list node holds one array per item
// name, e.g. {"Rows": {"Row": [...]}}.
func writeJSONList(buf *bytes.Buffer, name string, items []any) {
	var order []string
	groups := make(map[string][]any)
	for _, item := range items {
		if k, _, _, _ := classify(item); k == kindNil {
			continue
		}
		n := itemName(name, item)
		if _, seen := groups[n]; !seen {
			order = append(order, n)
		}
		groups[n] = append(groups[n], item)
	}
	buf.WriteByte('{')
	for i, n := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(buf, n)
		buf.WriteString(":[")
		for j, item := range groups[n] {
			if j > 0 {
				buf.WriteByte(',')
			}
			writeJSONValue(buf, n, item)
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
}

// DecodeOrderedJSON decodes JSON keeping object member order: objects become
// Fields, arrays []any, numbers json.Number.
func DecodeOrderedJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("codec: trailing data after json value")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		out := Fields{}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := kt.(string)
			val, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			out = append(out, Field{Name: key, Value: val})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return out, nil
	case '[':
		out := []any{}
		for dec.More() {
			val, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("codec: unexpected json delimiter %q", delim)
	}
}

func objectElement(name string, v any) *etree.Element {
	el := etree.NewElement(name)
	switch val := v.(type) {
	case Fields:
		for _, f := range val {
			if (f.Name == AttrStatusCode || f.Name == AttrStatusMessage) && isJSONScalar(f.Value) {
				if f.Value == nil {
					continue
				}
				el.CreateAttr(f.Name, jsonScalarText(f.Value))
				continue
			}
			if arr, ok := f.Value.([]any); ok {
				for _, item := range arr {
					el.AddChild(objectElement(f.Name, item))
				}
				continue
			}
			el.AddChild(objectElement(f.Name, f.Value))
		}
	case []any:
		for _, item := range val {
			el.AddChild(objectElement(Singular(name), item))
		}
	default:
		if text := jsonScalarText(val); text != "" {
			el.SetText(text)
		}
	}
	return el
}

func isJSONScalar(v any) bool {
	switch v.(type) {
	case Fields, []any:
		return false
	}
	return true
}

func jsonScalarText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case json.Number:
		return val.String()
	default:
		return FormatValue(val)
	}
}
