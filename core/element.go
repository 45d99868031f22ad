package core

// Text returns a pointer to s, for building non-null raw values.
func Text(s string) *string {
	return &s
}

// Element is one cell: a column name, its raw text (nil for null) and the
// value parsed from that text by the last successful Validate.
type Element struct {
	column string
	raw    *string
	value  Value
}

func NewElement(column string, raw *string) *Element {
	return &Element{column: column, raw: copyText(raw)}
}

func (e *Element) Column() string {
	return e.column
}

// Raw returns a copy of the raw text, or nil for a null element.
func (e *Element) Raw() *string {
	return copyText(e.raw)
}

func (e *Element) IsNull() bool {
	return e.raw == nil
}

// Text returns the raw text, rendering null as "null".
func (e *Element) Text() string {
	if e.raw == nil {
		return "null"
	}
	return *e.raw
}

// Value returns the parsed value. It is null until Validate succeeds.
func (e *Element) Value() Value {
	return e.value
}

// Validate checks the raw text against column and, on success, stores the
// parsed value.
func (e *Element) Validate(column Column) error {
	value, err := Check(column, e.raw)
	if err != nil {
		return err
	}
	e.value = value
	return nil
}

// Check validates raw against column without touching any element.
func Check(column Column, raw *string) (Value, error) {
	if raw == nil {
		if column.Nullable {
			return Value{}, nil
		}
		return Value{}, Errorf(ValidationError, "Null value is not allowed")
	}

	value, err := ParseValue(column.Type, *raw)
	if err != nil {
		return Value{}, Errorf(ValidationError, "Invalid element value '%s': %s", *raw, err.Error())
	}
	return value, nil
}

// Assign replaces the raw text and parsed value in place. value must come
// from Check on the same raw text.
func (e *Element) Assign(raw *string, value Value) {
	e.raw = copyText(raw)
	e.value = value
}

// EqualsString compares the raw text with other. A nil other matches only a
// null element, and a null element also equals the literal text "null".
func (e *Element) EqualsString(other *string) bool {
	if other == nil {
		return e.raw == nil
	}
	if e.raw == nil {
		return *other == "null"
	}
	return *e.raw == *other
}

// Equal reports whether both elements belong to the same column and hold
// the same raw text.
func (e *Element) Equal(other *Element) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.column != other.column {
		return false
	}
	if e.raw == nil || other.raw == nil {
		return e.raw == nil && other.raw == nil
	}
	return *e.raw == *other.raw
}

func (e *Element) Clone() *Element {
	return &Element{column: e.column, raw: copyText(e.raw), value: e.value}
}

// Renamed returns a copy of the element filed under another column name.
func (e *Element) Renamed(column string) *Element {
	clone := e.Clone()
	clone.column = column
	return clone
}

func copyText(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
