package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/holofood-data/holofood-go/pkg/holofood/errors"
)

// AccessionColumn is the primary key column present in every materialized row.
const AccessionColumn = "accession"

type missingValue struct{}

func (missingValue) String() string               { return "NA" }
func (missingValue) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Missing marks an attribute that was never observed for a row. Rows are
// never dropped for lacking a column; they carry this marker instead.
var Missing = missingValue{}

type Row map[string]any

// Table is a collection of rows keyed by accession. Row order follows the
// order accessions were first observed, and the column set is the union of
// all attribute names seen so far. Gaps are filled with Missing when rows
// are materialized, not when they are stored.
type Table struct {
	columns []string
	colSet  map[string]struct{}
	order   []string
	rows    map[string]Row
}

func New() *Table {
	return &Table{
		colSet: map[string]struct{}{},
		rows:   map[string]Row{},
	}
}

func (t *Table) addColumn(name string) {
	if _, found := t.colSet[name]; found {
		return
	}
	t.colSet[name] = struct{}{}
	t.columns = append(t.columns, name)
}

// Upsert stores a row under the given accession, extending the column set
// with any attribute names not seen before. Attribute names within a single
// row are registered in sorted order to keep column order deterministic.
//
// A row that is identical to the one already stored is silently ignored
// (this is what makes duplicated accession fetches idempotent). When the
// accessions match but the attributes differ, the first observed value wins
// and only attributes missing from the stored row are filled in.
//
// Returns true if the table changed.
func (t *Table) Upsert(accession string, row Row) bool {
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t.addColumn(name)
	}

	existing, found := t.rows[accession]
	if !found {
		stored := make(Row, len(row))
		for k, v := range row {
			stored[k] = v
		}
		t.rows[accession] = stored
		t.order = append(t.order, accession)
		return true
	}

	changed := false
	for _, name := range names {
		if _, has := existing[name]; !has {
			existing[name] = row[name]
			changed = true
		}
	}

	return changed
}

func (t *Table) Len() int {
	return len(t.order)
}

func (t *Table) Columns() []string {
	cols := make([]string, 0, len(t.columns)+1)
	cols = append(cols, AccessionColumn)
	cols = append(cols, t.columns...)
	return cols
}

func (t *Table) Accessions() []string {
	accs := make([]string, len(t.order))
	copy(accs, t.order)
	return accs
}

func (t *Table) Has(accession string) bool {
	_, found := t.rows[accession]
	return found
}

// Row returns a materialized copy of the row stored under accession, with
// every known column present and gaps filled with Missing.
func (t *Table) Row(accession string) (Row, bool) {
	stored, found := t.rows[accession]
	if !found {
		return nil, false
	}

	return t.materialize(accession, stored), true
}

func (t *Table) materialize(accession string, stored Row) Row {
	row := make(Row, len(t.columns)+1)
	row[AccessionColumn] = accession

	for _, col := range t.columns {
		if v, has := stored[col]; has {
			row[col] = v
		} else {
			row[col] = Missing
		}
	}

	return row
}

// StoredRow returns a copy of the row as stored, without gap filling and
// without the accession column.
func (t *Table) StoredRow(accession string) (Row, bool) {
	stored, found := t.rows[accession]
	if !found {
		return nil, false
	}

	row := make(Row, len(stored))
	for k, v := range stored {
		row[k] = v
	}
	return row, true
}

// Rows materializes the whole table in insertion order.
func (t *Table) Rows() []Row {
	rows := make([]Row, 0, len(t.order))
	for _, acc := range t.order {
		rows = append(rows, t.materialize(acc, t.rows[acc]))
	}
	return rows
}

// Truncate drops every row after the first n, keeping insertion order.
func (t *Table) Truncate(n int) {
	if n < 0 || n >= len(t.order) {
		return
	}

	for _, acc := range t.order[n:] {
		delete(t.rows, acc)
	}
	t.order = t.order[:n]
}

// WriteCSV writes the materialized table. Values that are not plain strings
// are rendered with %v, the Missing marker as NA.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	cols := t.Columns()
	if err := cw.Write(cols); err != nil {
		return err
	}

	for _, row := range t.Rows() {
		record := make([]string, len(cols))
		for i, col := range cols {
			switch v := row[col].(type) {
			case string:
				record[i] = v
			default:
				record[i] = fmt.Sprintf("%v", v)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// TableSet maps entity type names to their accumulated tables, preserving
// the order in which types were first added.
type TableSet struct {
	order  []string
	tables map[string]*Table
}

func NewSet() *TableSet {
	return &TableSet{
		tables: map[string]*Table{},
	}
}

func (s *TableSet) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

func (s *TableSet) Get(name string) (*Table, bool) {
	t, found := s.tables[name]
	return t, found
}

// Ensure returns the table stored under name, creating an empty one first
// if necessary.
func (s *TableSet) Ensure(name string) *Table {
	if t, found := s.tables[name]; found {
		return t
	}

	t := New()
	s.tables[name] = t
	s.order = append(s.order, name)
	return t
}

// Add stores a table under name. A name collision is resolved by suffixing
// the incoming name with a numeric disambiguator instead of overwriting.
// The name actually used is returned.
func (s *TableSet) Add(name string, t *Table) string {
	actual := name
	for n := 2; ; n++ {
		if _, taken := s.tables[actual]; !taken {
			break
		}
		actual = fmt.Sprintf("%s_%d", name, n)
	}

	s.tables[actual] = t
	s.order = append(s.order, actual)
	return actual
}

// Absorb merges every table of other into this set, upserting row by row
// into same-named tables.
func (s *TableSet) Absorb(other *TableSet) {
	for _, name := range other.Names() {
		src, _ := other.Get(name)
		dst := s.Ensure(name)

		for _, acc := range src.Accessions() {
			row, _ := src.StoredRow(acc)
			dst.Upsert(acc, row)
		}
	}
}

// Flatten joins the set into one wide table rooted at rootType. Every other
// table is grouped by its foreign key column referencing the root, and each
// group becomes a list valued column named after the child table.
func Flatten(s *TableSet, rootType, foreignKey string) (*Table, error) {
	root, found := s.Get(rootType)
	if !found {
		return nil, errors.NewEmptyResultError(fmt.Sprintf("no %s table to flatten around", rootType))
	}

	wide := New()

	children := map[string]map[string][]Row{}
	for _, name := range s.Names() {
		if name == rootType {
			continue
		}

		child, _ := s.Get(name)
		grouped := map[string][]Row{}

		for _, row := range child.Rows() {
			parent, ok := row[foreignKey].(string)
			if !ok {
				continue
			}
			delete(row, foreignKey)
			grouped[parent] = append(grouped[parent], row)
		}

		children[name] = grouped
	}

	for _, acc := range root.Accessions() {
		row, _ := root.Row(acc)
		delete(row, AccessionColumn)

		for name, grouped := range children {
			if rows, ok := grouped[acc]; ok {
				row[name] = rows
			} else {
				row[name] = []Row{}
			}
		}

		wide.Upsert(acc, row)
	}

	return wide, nil
}
