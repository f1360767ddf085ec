package codec

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the wire form of datetime values.
const TimeLayout = "2006-01-02T15:04:05"

// Field is one named value in an ordered mapping.
type Field struct {
	Name  string
	Value any
}

// Fields is an ordered mapping; element order on the wire follows slice order.
type Fields []Field

// Get returns the first value stored under name.
func (f Fields) Get(name string) (any, bool) {
	for _, field := range f {
		if field.Name == name {
			return field.Value, true
		}
	}
	return nil, false
}

// Element is implemented by values that carry their own node name, such as
// records sent back to the server.
type Element interface {
	ElementName() string
	ElementValue() any
}

// FormatValue renders a scalar as wire text.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case time.Time:
		return val.Format(TimeLayout)
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.Format(TimeLayout)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Singular guesses the item name for a list node by stripping a trailing "s".
func Singular(name string) string {
	if strings.HasSuffix(name, "s") && len(name) > 1 {
		return name[:len(name)-1]
	}
	return name
}

type valueKind int

const (
	kindScalar valueKind = iota
	kindNil
	kindFields
	kindList
	kindElement
)

// classify normalises a value into one of the shapes both wire forms know.
func classify(v any) (valueKind, Fields, []any, Element) {
	switch val := v.(type) {
	case nil:
		return kindNil, nil, nil, nil
	case Element:
		return kindElement, nil, nil, val
	case Fields:
		return kindFields, val, nil, nil
	case map[string]any:
		return kindFields, sortedFields(val), nil, nil
	case map[string]string:
		m := make(map[string]any, len(val))
		for k, s := range val {
			m[k] = s
		}
		return kindFields, sortedFields(m), nil, nil
	case []byte:
		return kindScalar, nil, nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, rv.Index(i).Interface())
		}
		return kindList, nil, items, nil
	}
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return kindNil, nil, nil, nil
	}
	return kindScalar, nil, nil, nil
}

func sortedFields(m map[string]any) Fields {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(Fields, 0, len(keys))
	for _, k := range keys {
		out = append(out, Field{Name: k, Value: m[k]})
	}
	return out
}

// itemName is the child name used for one list item under a list node.
func itemName(listName string, item any) string {
	if el, ok := item.(Element); ok && el.ElementName() != "" {
		return el.ElementName()
	}
	return Singular(listName)
}
