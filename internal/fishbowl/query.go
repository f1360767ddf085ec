package fishbowl

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/danmuck/fishbowl/internal/protocol/codec"
	"github.com/danmuck/fishbowl/internal/records"
	"github.com/danmuck/fishbowl/internal/session"
)

// Row is one query result row. Columns keep the order the server sent.
type Row struct {
	columns []string
	values  []string
}

func (r Row) Columns() []string { return r.columns }

func (r Row) Values() []string { return r.values }

// Get looks up a column by exact name, then case-insensitively.
func (r Row) Get(column string) (string, bool) {
	idx := -1
	for i, c := range r.columns {
		if c == column {
			idx = i
			break
		}
		if idx < 0 && strings.EqualFold(c, column) {
			idx = i
		}
	}
	if idx < 0 || idx >= len(r.values) {
		return "", false
	}
	return r.values[idx], true
}

// Map returns the row keyed by column. Columns missing from a short row are
// absent.
func (r Row) Map() map[string]string {
	out := make(map[string]string, len(r.columns))
	for i, c := range r.columns {
		if i < len(r.values) {
			out[c] = r.values[i]
		}
	}
	return out
}

// Without returns a copy of r minus the named columns, matched
// case-insensitively.
func (r Row) Without(columns ...string) Row {
	out := Row{}
	for i, c := range r.columns {
		drop := false
		for _, name := range columns {
			if strings.EqualFold(c, name) {
				drop = true
				break
			}
		}
		if drop {
			continue
		}
		out.columns = append(out.columns, c)
		if i < len(r.values) {
			out.values = append(out.values, r.values[i])
		}
	}
	return out
}

// Rows is a single pass over a query result. The first line of the result
// is the header.
type Rows struct {
	reader  *csv.Reader
	columns []string
	cur     Row
	err     error
	done    bool
}

func newRows(text string) *Rows {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	// Descriptions carry unquoted inch marks such as 12" pipe.
	reader.LazyQuotes = true
	rows := &Rows{reader: reader}
	header, err := reader.Read()
	switch {
	case errors.Is(err, io.EOF):
		rows.done = true
	case err != nil:
		rows.err = err
		rows.done = true
	default:
		rows.columns = header
	}
	return rows
}

func (r *Rows) Columns() []string { return r.columns }

// Next advances to the next row. It returns false at the end of the result
// or on a parse error, which Err then reports.
func (r *Rows) Next() bool {
	if r.done {
		return false
	}
	record, err := r.reader.Read()
	if err != nil {
		r.done = true
		if !errors.Is(err, io.EOF) {
			r.err = err
		}
		return false
	}
	r.cur = Row{columns: r.columns, values: record}
	return true
}

func (r *Rows) Row() Row { return r.cur }

func (r *Rows) Err() error { return r.err }

// All drains the remaining rows.
func (r *Rows) All() ([]Row, error) {
	var out []Row
	for r.Next() {
		out = append(out, r.Row())
	}
	return out, r.Err()
}

// SendQuery runs sql on the server. Each Row node of the response carries
// one CSV line.
func (c *Client) SendQuery(sql string) (*Rows, error) {
	node, err := c.sess.SendRequest(session.Call{
		Name:         "ExecuteQueryRq",
		Value:        codec.Fields{{Name: "Query", Value: sql}},
		ResponseNode: "ExecuteQueryRs",
		Multiple:     true,
	})
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for _, row := range node.FindElements(".//Row") {
		sb.WriteString(row.Text())
		sb.WriteByte('\n')
	}
	return newRows(sb.String()), nil
}

// BasicQuery maps every row of sql through schema, dropping empty records.
func (c *Client) BasicQuery(sql string, schema *records.Schema) ([]*records.Record, error) {
	rows, err := c.SendQuery(sql)
	if err != nil {
		return nil, err
	}
	var out []*records.Record
	for rows.Next() {
		rec := records.FromRow(schema, rows.Row().Map())
		if rec.IsEmpty() {
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
