package db

import (
	"github.com/nickyhof/LineDB/core"
)

// Table is a named schema with its rows in insertion order. Every stored
// element is either null in a nullable column or holds a value parsed under
// its column's type.
type Table struct {
	name    string
	columns []core.Column
	schema  map[string]core.Column
	rows    []core.Row
}

// NewTable creates an empty table. Column names must be unique.
func NewTable(name string, columns []core.Column) (*Table, error) {
	schema := make(map[string]core.Column, len(columns))
	for _, column := range columns {
		if _, exists := schema[column.Name]; exists {
			return nil, core.Errorf(core.PreconditionError, "Column '%s' is declared more than once", column.Name)
		}
		schema[column.Name] = column
	}

	declared := make([]core.Column, len(columns))
	copy(declared, columns)

	return &Table{
		name:    name,
		columns: declared,
		schema:  schema,
	}, nil
}

func (t *Table) Name() string {
	return t.name
}

// Columns returns the schema in declared order.
func (t *Table) Columns() []core.Column {
	columns := make([]core.Column, len(t.columns))
	copy(columns, t.columns)
	return columns
}

// Column looks a column up by name.
func (t *Table) Column(name string) (core.Column, error) {
	column, ok := t.schema[name]
	if !ok {
		return core.Column{}, core.Errorf(core.SchemaError, "A column with the name '%s' doesn't exist", name)
	}
	return column, nil
}

// Len returns the number of stored rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns copies of every stored row.
func (t *Table) Rows() []core.Row {
	rows := make([]core.Row, len(t.rows))
	for i, row := range t.rows {
		rows[i] = row.Clone()
	}
	return rows
}

// Validate checks every element of row against the schema and stores the
// parsed values on success.
func (t *Table) Validate(row core.Row) error {
	for _, element := range row.Elements() {
		column, err := t.Column(element.Column())
		if err != nil {
			return err
		}
		if err := element.Validate(column); err != nil {
			return err
		}
	}
	return nil
}

// Insert appends a row holding values, with null for every column not
// given. Nothing is stored unless all values validate. The inserted row is
// returned as a copy.
func (t *Table) Insert(values map[core.Column]*string) (core.Row, error) {
	if err := t.checkKeys(values); err != nil {
		return core.Row{}, err
	}

	elements := make([]*core.Element, len(t.columns))
	for i, column := range t.columns {
		elements[i] = core.NewElement(column.Name, values[column])
	}
	row := core.NewRow(elements...)

	if err := t.Validate(row); err != nil {
		return core.Row{}, err
	}

	t.rows = append(t.rows, row)
	return row.Clone(), nil
}

// Update assigns values to every row matching predicate. All values are
// validated before any row changes, so a failure leaves the table as it
// was. The updated rows are returned as copies.
func (t *Table) Update(values map[core.Column]*string, predicate Predicate) ([]core.Row, error) {
	if err := t.checkKeys(values); err != nil {
		return nil, err
	}

	type change struct {
		column string
		raw    *string
		value  core.Value
	}
	var changes []change
	for _, column := range t.columns {
		raw, ok := values[column]
		if !ok {
			continue
		}
		value, err := core.Check(column, raw)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change{column: column.Name, raw: raw, value: value})
	}

	var updated []core.Row
	for _, row := range t.rows {
		if !predicate(row) {
			continue
		}
		for _, c := range changes {
			if element := row.Element(c.column); element != nil {
				element.Assign(c.raw, c.value)
			}
		}
		updated = append(updated, row.Clone())
	}
	return updated, nil
}

// Delete removes every row matching predicate and returns them.
func (t *Table) Delete(predicate Predicate) []core.Row {
	var deleted []core.Row
	kept := t.rows[:0]
	for _, row := range t.rows {
		if predicate(row) {
			deleted = append(deleted, row)
			continue
		}
		kept = append(kept, row)
	}
	for i := len(kept); i < len(t.rows); i++ {
		t.rows[i] = core.Row{}
	}
	t.rows = kept
	return deleted
}

// Select projects the rows matching predicate onto columns, in the order
// given. Repeated columns appear once. Elements a row does not carry are
// left out of its projection.
func (t *Table) Select(columns []core.Column, predicate Predicate) ([]core.Row, error) {
	if len(columns) == 0 {
		return nil, core.Errorf(core.PreconditionError, "Columns collection is not allowed to be empty in a select query")
	}

	var names []string
	seen := make(map[string]bool, len(columns))
	for _, column := range columns {
		if _, err := t.Column(column.Name); err != nil {
			return nil, err
		}
		if seen[column.Name] {
			continue
		}
		seen[column.Name] = true
		names = append(names, column.Name)
	}

	var selected []core.Row
	for _, row := range t.rows {
		if !predicate(row) {
			continue
		}
		elements := make([]*core.Element, 0, len(names))
		for _, name := range names {
			if element := row.Element(name); element != nil {
				elements = append(elements, element.Clone())
			}
		}
		selected = append(selected, core.NewRow(elements...))
	}
	return selected, nil
}

// CartesianProduct pairs every row of t with every row of other, left rows
// outermost. Elements are renamed "<table>.<column>" so the two sides never
// collide.
func (t *Table) CartesianProduct(other *Table) []core.Row {
	product := make([]core.Row, 0, len(t.rows)*len(other.rows))
	for _, left := range t.rows {
		for _, right := range other.rows {
			elements := make([]*core.Element, 0, left.Len()+right.Len())
			for _, element := range left.Elements() {
				elements = append(elements, element.Renamed(t.name+"."+element.Column()))
			}
			for _, element := range right.Elements() {
				elements = append(elements, element.Renamed(other.name+"."+element.Column()))
			}
			product = append(product, core.NewRow(elements...))
		}
	}
	return product
}

// load appends a row read from storage. Missing columns become null and the
// row must validate like an insert.
func (t *Table) load(row core.Row) error {
	elements := make([]*core.Element, len(t.columns))
	for i, column := range t.columns {
		if element := row.Element(column.Name); element != nil {
			elements[i] = element.Clone()
		} else {
			elements[i] = core.NewElement(column.Name, nil)
		}
	}
	for _, element := range row.Elements() {
		if _, err := t.Column(element.Column()); err != nil {
			return err
		}
	}

	full := core.NewRow(elements...)
	if err := t.Validate(full); err != nil {
		return err
	}
	t.rows = append(t.rows, full)
	return nil
}

func (t *Table) checkKeys(values map[core.Column]*string) error {
	for column := range values {
		declared, err := t.Column(column.Name)
		if err != nil {
			return err
		}
		if declared != column {
			return core.Errorf(core.SchemaError, "Column '%s' does not match the schema of table '%s'", column.Name, t.name)
		}
	}
	return nil
}
