package report

import (
	"github.com/shopspring/decimal"
)

// Row is one cleaned portfolio record. Cells holds every output column in
// Dataset.Headers order (pass-through columns included); the typed fields
// are the semantic values the pipeline computes with.
type Row struct {
	Cells []string

	Code         string
	MoraDays     int
	MoraKnown    bool // false when the delinquency column was unparseable
	Overdue      decimal.Decimal
	Coordination string
	Geolocation  string

	// Derived
	Par          string
	LinkText     string
	LinkURL      string
	Collaborator bool
	PhoneFlagged bool
}

// Dataset is the in-memory portfolio after cleaning. Field indexes point
// into Headers for the canonical columns the renderer needs to locate.
type Dataset struct {
	Headers []string
	Fields  map[string]int // canonical field -> column index, -1 semantics via absence
	Rows    []*Row
}

// Col returns the column index of a canonical field, or -1.
func (d *Dataset) Col(field string) int {
	if i, ok := d.Fields[field]; ok {
		return i
	}
	return -1
}

// clone copies the dataset structure sharing nothing mutable with the
// original. Row cell slices are copied; typed fields are value-copied.
func (d *Dataset) clone() *Dataset {
	nd := &Dataset{
		Headers: append([]string(nil), d.Headers...),
		Fields:  make(map[string]int, len(d.Fields)),
		Rows:    make([]*Row, len(d.Rows)),
	}
	for k, v := range d.Fields {
		nd.Fields[k] = v
	}
	for i, r := range d.Rows {
		nr := *r
		nr.Cells = append([]string(nil), r.Cells...)
		nd.Rows[i] = &nr
	}
	return nd
}

// subset builds a dataset over a filtered row selection. Rows are shared,
// not copied: partitions are read-only views consumed by the renderer
// within one run.
func (d *Dataset) subset(keep func(*Row) bool) *Dataset {
	nd := &Dataset{Headers: d.Headers, Fields: d.Fields}
	for _, r := range d.Rows {
		if keep(r) {
			nd.Rows = append(nd.Rows, r)
		}
	}
	return nd
}

// insertColumn adds a header at position idx and a value per row produced
// by valueFn. Field indexes at or past idx shift right.
func (d *Dataset) insertColumn(idx int, header string, valueFn func(*Row) string) {
	if idx < 0 || idx > len(d.Headers) {
		idx = len(d.Headers)
	}
	d.Headers = append(d.Headers, "")
	copy(d.Headers[idx+1:], d.Headers[idx:])
	d.Headers[idx] = header
	for f, i := range d.Fields {
		if i >= idx {
			d.Fields[f] = i + 1
		}
	}
	for _, r := range d.Rows {
		v := valueFn(r)
		r.Cells = append(r.Cells, "")
		copy(r.Cells[idx+1:], r.Cells[idx:])
		r.Cells[idx] = v
	}
}

// moveColumnFront reorders the dataset so the given canonical field is the
// first column. Used for the full-report view, where the account code
// leads and anchors the liquidation VLOOKUP range.
func (d *Dataset) moveColumnFront(field string) {
	src := d.Col(field)
	if src <= 0 {
		return
	}
	move := func(s []string) {
		v := s[src]
		copy(s[1:src+1], s[:src])
		s[0] = v
	}
	move(d.Headers)
	for _, r := range d.Rows {
		move(r.Cells)
	}
	for f, i := range d.Fields {
		switch {
		case i == src:
			d.Fields[f] = 0
		case i < src:
			d.Fields[f] = i + 1
		}
	}
}

// RunSummary is the informational result reported alongside a successful
// run. Counts here are never errors.
type RunSummary struct {
	RunID            string
	RowsLoaded       int
	DroppedNoCode    int
	FraudRemoved     int
	PhoneFlagged     int
	MoraUnparseable  int
	Coordinations    int
	CollaboratorRows int
}
