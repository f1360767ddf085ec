package records

import (
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/danmuck/fishbowl/internal/protocol/codec"
	"github.com/shopspring/decimal"
)

// Fetch produces the source node for a lazy record.
type Fetch func() (*etree.Element, error)

// LazyErrorPolicy decides what a failed lazy fetch looks like to callers.
// Either way the record stays empty and the fetch is not retried.
type LazyErrorPolicy int

const (
	// LazySilent hides the failure; the record just reads as empty.
	LazySilent LazyErrorPolicy = iota
	// LazySurface reports the failure from Load and Err.
	LazySurface
)

type state int

const (
	unfetched state = iota
	fetched
)

// Record is a typed mapping parsed from a response node or query row. A lazy
// record holds a fetch function until a field is first read.
type Record struct {
	schema *Schema
	name   string

	mu      sync.Mutex
	state   state
	fetch   Fetch
	policy  LazyErrorPolicy
	err     error
	fields  map[string]any
	derived map[string]any
}

func newRecord(schema *Schema, name string) *Record {
	return &Record{
		schema:  schema,
		name:    name,
		state:   fetched,
		fields:  make(map[string]any),
		derived: make(map[string]any),
	}
}

// FromNode parses el. A nil node or the empty placeholder yields an empty
// record.
func FromNode(schema *Schema, el *etree.Element) *Record {
	r := newRecord(schema, "")
	r.parseNode(el)
	return r
}

// FromRow parses a query row keyed by column name.
func FromRow(schema *Schema, row map[string]string) *Record {
	r := newRecord(schema, "")
	lowered := make(map[string]string, len(row))
	for k, v := range row {
		lowered[strings.ToLower(k)] = v
	}
	for _, f := range schema.Fields {
		if f.Kind == KindNested || f.Kind == KindList {
			continue
		}
		raw, ok := f.matchRow(lowered)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		r.fields[f.Name] = coerce(f.Kind, raw)
	}
	return r
}

// Lazy returns a record named name whose fields come from fetch on first
// access.
func Lazy(schema *Schema, name string, fetch Fetch) *Record {
	r := newRecord(schema, name)
	r.state = unfetched
	r.fetch = fetch
	return r
}

// WithPolicy sets the lazy failure policy. It returns r for chaining.
func (r *Record) WithPolicy(p LazyErrorPolicy) *Record {
	r.mu.Lock()
	r.policy = p
	r.mu.Unlock()
	return r
}

func (r *Record) parseNode(el *etree.Element) {
	if codec.IsEmpty(el) {
		return
	}
	children := make(map[string]*etree.Element)
	for _, child := range el.ChildElements() {
		key := strings.ToLower(child.Tag)
		if _, seen := children[key]; !seen {
			children[key] = child
		}
	}
	for _, f := range r.schema.Fields {
		child := f.matchElement(children)
		if child == nil {
			continue
		}
		switch f.Kind {
		case KindNested:
			nested := FromNode(f.Schema, child)
			if !nested.IsEmpty() {
				r.fields[f.Name] = nested
			}
		case KindList:
			items := make([]*Record, 0, len(child.ChildElements()))
			for _, item := range child.ChildElements() {
				if f.Schema.Name != "" && !strings.EqualFold(item.Tag, f.Schema.Name) {
					continue
				}
				items = append(items, FromNode(f.Schema, item))
			}
			r.fields[f.Name] = items
		default:
			text := child.Text()
			if strings.TrimSpace(text) == "" {
				continue
			}
			r.fields[f.Name] = coerce(f.Kind, text)
		}
	}
}

// loadLocked runs the pending fetch, at most once.
func (r *Record) loadLocked() {
	if r.state == fetched {
		return
	}
	r.state = fetched
	fetch := r.fetch
	r.fetch = nil
	el, err := fetch()
	if err != nil {
		r.err = err
		return
	}
	r.parseNode(el)
}

// Load forces a pending fetch. Under LazySurface it returns the fetch error.
func (r *Record) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked()
	if r.policy == LazySurface {
		return r.err
	}
	return nil
}

// Err reports a failed lazy fetch under LazySurface.
func (r *Record) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.policy == LazySurface {
		return r.err
	}
	return nil
}

// Fetched reports whether the record's data is in place without triggering
// a fetch.
func (r *Record) Fetched() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == fetched
}

func (r *Record) Schema() *Schema { return r.schema }

// Name is the identifier given at construction, falling back to the
// schema's name field.
func (r *Record) Name() string {
	if r.name != "" {
		return r.name
	}
	if r.schema.NameField == "" {
		return ""
	}
	return r.String(r.schema.NameField)
}

// Get returns a parsed field, or a derived one when no parsed field exists.
func (r *Record) Get(name string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked()
	if v, ok := r.fields[name]; ok {
		return v, true
	}
	v, ok := r.derived[name]
	return v, ok
}

func (r *Record) String(name string) string {
	v, ok := r.Get(name)
	if !ok {
		return ""
	}
	return codec.FormatValue(v)
}

func (r *Record) Int(name string) (int, bool) {
	v, ok := r.Get(name)
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

func (r *Record) Decimal(name string) (decimal.Decimal, bool) {
	v, ok := r.Get(name)
	if !ok {
		return decimal.Zero, false
	}
	switch val := v.(type) {
	case decimal.Decimal:
		return val, true
	case int:
		return decimal.NewFromInt(int64(val)), true
	}
	return decimal.Zero, false
}

func (r *Record) Bool(name string) bool {
	v, _ := r.Get(name)
	b, _ := v.(bool)
	return b
}

func (r *Record) Time(name string) (time.Time, bool) {
	v, ok := r.Get(name)
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// Record returns a nested record field, or nil.
func (r *Record) Record(name string) *Record {
	v, _ := r.Get(name)
	nested, _ := v.(*Record)
	return nested
}

func (r *Record) Records(name string) []*Record {
	v, _ := r.Get(name)
	items, _ := v.([]*Record)
	return items
}

// Len counts parsed fields; derived fields do not count.
func (r *Record) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked()
	return len(r.fields)
}

// IsEmpty reports whether the record parsed to nothing usable.
func (r *Record) IsEmpty() bool {
	return r.Len() == 0
}

// SetDerived attaches a value that did not come from the source, such as a
// related record.
func (r *Record) SetDerived(name string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.derived[name] = v
}

func (r *Record) Derived(name string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.derived[name]
	return v, ok
}

// Fields lists parsed fields in schema order.
func (r *Record) Fields() codec.Fields {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked()
	out := make(codec.Fields, 0, len(r.fields))
	for _, f := range r.schema.Fields {
		if v, ok := r.fields[f.Name]; ok {
			out = append(out, codec.Field{Name: f.Name, Value: v})
		}
	}
	return out
}

// Set stores a parsed field, replacing any previous value.
func (r *Record) Set(name string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked()
	r.fields[name] = v
}

func (r *Record) ElementName() string { return r.schema.Name }

func (r *Record) ElementValue() any { return r.Fields() }
