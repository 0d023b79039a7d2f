// Package unifier provides the dataset query surface: raw record queries,
// tabular frames, and snapshot-date discovery.
package unifier

import (
	"context"
	"sort"

	"github.com/xtech-analytics/data-unifier/unifiertypes"
)

// WithKey restricts the query to a single key.
func WithKey(key string) unifiertypes.QueryOption {
	return func(q *unifiertypes.QueryConfig) {
		q.Key = key
	}
}

// WithKeys restricts the query to a set of keys.
func WithKeys(keys ...string) unifiertypes.QueryOption {
	return func(q *unifiertypes.QueryConfig) {
		q.Keys = keys
	}
}

// WithLimit caps the number of returned rows.
func WithLimit(limit int) unifiertypes.QueryOption {
	return func(q *unifiertypes.QueryConfig) {
		if limit > 0 {
			q.Limit = limit
		}
	}
}

// WithAsofDate selects the snapshot date (YYYY-MM-DD).
func WithAsofDate(date string) unifiertypes.QueryOption {
	return func(q *unifiertypes.QueryConfig) {
		q.AsofDate = date
	}
}

// WithAsofBackTo selects the earliest snapshot date to include.
func WithAsofBackTo(date string) unifiertypes.QueryOption {
	return func(q *unifiertypes.QueryConfig) {
		q.AsofBackTo = date
	}
}

// WithBackTo sets the lower temporal bound.
func WithBackTo(date string) unifiertypes.QueryOption {
	return func(q *unifiertypes.QueryConfig) {
		q.BackTo = date
	}
}

// WithUpTo sets the upper temporal bound.
func WithUpTo(date string) unifiertypes.QueryOption {
	return func(q *unifiertypes.QueryConfig) {
		q.UpTo = date
	}
}

// WithDisableView bypasses the server-side view.
func WithDisableView() unifiertypes.QueryOption {
	return func(q *unifiertypes.QueryConfig) {
		q.DisableView = true
	}
}

// queryPayload is the request body of a dataset query.
type queryPayload struct {
	Name        string   `json:"name"`
	User        string   `json:"user"`
	Token       string   `json:"token"`
	DisableView bool     `json:"disable_view"`
	Limit       int      `json:"limit,omitempty"`
	Key         string   `json:"key,omitempty"`
	Keys        []string `json:"keys,omitempty"`
	AsofDate    string   `json:"asof_date,omitempty"`
	AsofBackTo  string   `json:"asof_back_to,omitempty"`
	BackTo      string   `json:"back_to,omitempty"`
	UpTo        string   `json:"up_to,omitempty"`
}

// rawRows is the service's row encoding: each row arrives as an array of
// single-entry column objects.
type rawRows [][]map[string]any

// mergeRows flattens each row's column objects into one record.
func mergeRows(rows rawRows) []unifiertypes.Record {
	records := make([]unifiertypes.Record, 0, len(rows))
	for _, row := range rows {
		record := make(unifiertypes.Record)
		for _, column := range row {
			for name, value := range column {
				record[name] = value
			}
		}
		records = append(records, record)
	}
	return records
}

// Query runs a dataset query and returns the matching rows as records.
func (c *Client) Query(
	ctx context.Context,
	name string,
	opts ...unifiertypes.QueryOption,
) ([]unifiertypes.Record, error) {
	qc := unifiertypes.QueryConfig{}
	for _, opt := range opts {
		opt(&qc)
	}

	payload := queryPayload{
		Name:        name,
		User:        c.cfg.User,
		Token:       c.cfg.Token,
		DisableView: qc.DisableView,
		Limit:       qc.Limit,
		Key:         qc.Key,
		Keys:        qc.Keys,
		AsofDate:    qc.AsofDate,
		AsofBackTo:  qc.AsofBackTo,
		BackTo:      qc.BackTo,
		UpTo:        qc.UpTo,
	}

	var rows rawRows
	if err := c.api.PostJSON(ctx, "query", "", payload, &rows); err != nil {
		return nil, err
	}
	return mergeRows(rows), nil
}

// QueryFrame runs a dataset query and returns the result as a Frame.
func (c *Client) QueryFrame(
	ctx context.Context,
	name string,
	opts ...unifiertypes.QueryOption,
) (*Frame, error) {
	records, err := c.Query(ctx, name, opts...)
	if err != nil {
		return nil, err
	}
	return NewFrame(records), nil
}

// AsofDates returns the snapshot dates available for a dataset.
func (c *Client) AsofDates(ctx context.Context, name string) ([]unifiertypes.Record, error) {
	payload := map[string]string{
		"name":  name,
		"user":  c.cfg.User,
		"token": c.cfg.Token,
	}

	var rows rawRows
	if err := c.api.PostJSON(ctx, "asof dates", "/get_asof_date", payload, &rows); err != nil {
		return nil, err
	}
	return mergeRows(rows), nil
}

// AsofDatesFrame returns the available snapshot dates as a Frame.
func (c *Client) AsofDatesFrame(ctx context.Context, name string) (*Frame, error) {
	records, err := c.AsofDates(ctx, name)
	if err != nil {
		return nil, err
	}
	return NewFrame(records), nil
}

// Frame is a tabular view over query records.
type Frame struct {
	records []unifiertypes.Record
}

// NewFrame creates a Frame over the given records.
func NewFrame(records []unifiertypes.Record) *Frame {
	return &Frame{records: records}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.records)
}

// Records returns the underlying rows.
func (f *Frame) Records() []unifiertypes.Record {
	return f.records
}

// Columns returns the sorted union of column names across all rows.
func (f *Frame) Columns() []string {
	seen := make(map[string]struct{})
	for _, record := range f.records {
		for name := range record {
			seen[name] = struct{}{}
		}
	}

	columns := make([]string, 0, len(seen))
	for name := range seen {
		columns = append(columns, name)
	}
	sort.Strings(columns)
	return columns
}

// Column returns one column's values in row order. Rows missing the column
// contribute a nil value.
func (f *Frame) Column(name string) []any {
	values := make([]any, len(f.records))
	for i, record := range f.records {
		values[i] = record[name]
	}
	return values
}
