package core

// Row is an ordered tuple of elements.
type Row struct {
	elements []*Element
}

func NewRow(elements ...*Element) Row {
	return Row{elements: elements}
}

func (r Row) Elements() []*Element {
	return r.elements
}

func (r Row) Len() int {
	return len(r.elements)
}

// Element returns the element for column, or nil when the row does not
// carry that column.
func (r Row) Element(column string) *Element {
	for _, e := range r.elements {
		if e.column == column {
			return e
		}
	}
	return nil
}

// Columns lists the column names in element order.
func (r Row) Columns() []string {
	names := make([]string, len(r.elements))
	for i, e := range r.elements {
		names[i] = e.column
	}
	return names
}

// Clone deep-copies the row so callers cannot reach stored elements.
func (r Row) Clone() Row {
	elements := make([]*Element, len(r.elements))
	for i, e := range r.elements {
		elements[i] = e.Clone()
	}
	return Row{elements: elements}
}

func (r Row) Equal(other Row) bool {
	if len(r.elements) != len(other.elements) {
		return false
	}
	for i := range r.elements {
		if !r.elements[i].Equal(other.elements[i]) {
			return false
		}
	}
	return true
}
