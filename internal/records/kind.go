package records

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind selects how a source value is coerced.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindDecimal
	KindBool
	KindDateTime
	KindNested
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindBool:
		return "bool"
	case KindDateTime:
		return "datetime"
	case KindNested:
		return "nested"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// dateLayouts are tried in order. Fractional seconds are accepted after any
// layout that ends in seconds.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"01/02/2006",
}

// ParseBool reads the server's boolean spellings. Unknown tokens are false.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "t", "1", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func ParseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// coerce converts text to the value stored for kind. Text that does not
// parse as the declared kind is kept as a string.
func coerce(kind Kind, raw string) any {
	text := strings.TrimSpace(raw)
	switch kind {
	case KindInt:
		if n, err := strconv.Atoi(text); err == nil {
			return n
		}
		if d, err := decimal.NewFromString(text); err == nil && d.IsInteger() {
			return int(d.IntPart())
		}
	case KindDecimal:
		if d, err := decimal.NewFromString(text); err == nil {
			return d
		}
	case KindBool:
		return ParseBool(text)
	case KindDateTime:
		if t, ok := ParseTime(text); ok {
			return t
		}
	default:
		return raw
	}
	return raw
}
