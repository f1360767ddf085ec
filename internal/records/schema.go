package records

import (
	"strings"

	"github.com/beevik/etree"
)

// FieldSpec declares one canonical field and where it may come from.
type FieldSpec struct {
	Name string
	Kind Kind
	// Aliases are alternative source names, such as SQL column names.
	Aliases []string
	// Schema describes nested records for KindNested and KindList.
	Schema *Schema
}

// Schema maps source keys onto canonical typed fields. Source keys match
// case-insensitively since query columns come back upper case.
type Schema struct {
	Name string
	// NameField is the field used as the record name when none was given.
	NameField string
	Fields    []FieldSpec
}

func (s *Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// WithBools returns a copy of s with extra boolean fields, used for custom
// fields selected into a query under their own column name.
func (s *Schema) WithBools(names ...string) *Schema {
	out := &Schema{Name: s.Name, NameField: s.NameField}
	out.Fields = append(out.Fields, s.Fields...)
	for _, name := range names {
		if _, exists := s.Field(name); exists {
			continue
		}
		out.Fields = append(out.Fields, FieldSpec{Name: name, Kind: KindBool})
	}
	return out
}

func (f FieldSpec) keys() []string {
	return append([]string{f.Name}, f.Aliases...)
}

func (f FieldSpec) matchElement(children map[string]*etree.Element) *etree.Element {
	for _, k := range f.keys() {
		if el, ok := children[strings.ToLower(k)]; ok {
			return el
		}
	}
	return nil
}

func (f FieldSpec) matchRow(row map[string]string) (string, bool) {
	for _, k := range f.keys() {
		if v, ok := row[strings.ToLower(k)]; ok {
			return v, true
		}
	}
	return "", false
}
