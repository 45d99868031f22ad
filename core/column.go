package core

import (
	"fmt"
	"strings"
)

type ColumnType int

const (
	IntType ColumnType = iota
	FloatType
	CharType
	StringType
	DateType
	DateRangeType
)

var columnTypeNames = map[ColumnType]string{
	IntType:       "INT",
	FloatType:     "FLOAT",
	CharType:      "CHAR",
	StringType:    "STR",
	DateType:      "DATE",
	DateRangeType: "DATE_RANGE",
}

func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ColumnType(%d)", int(t))
}

// ParseColumnType resolves a type keyword, ignoring case.
func ParseColumnType(name string) (ColumnType, error) {
	upper := strings.ToUpper(name)
	for t, n := range columnTypeNames {
		if n == upper {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown column type '%s' (expected INT, FLOAT, CHAR, STR, DATE or DATE_RANGE)", name)
}

func (t ColumnType) MarshalText() ([]byte, error) {
	if _, ok := columnTypeNames[t]; !ok {
		return nil, fmt.Errorf("invalid column type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *ColumnType) UnmarshalText(text []byte) error {
	parsed, err := ParseColumnType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Column describes one attribute of a table. Columns compare by value and
// can be used as map keys.
type Column struct {
	Name     string     `json:"name" bson:"name"`
	Type     ColumnType `json:"type" bson:"type"`
	Nullable bool       `json:"nullable" bson:"nullable"`
}

func (c Column) String() string {
	if c.Nullable {
		return c.Type.String() + " " + c.Name
	}
	return c.Type.String() + " " + c.Name + " NOT NULL"
}
