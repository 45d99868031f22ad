package db

import "github.com/nickyhof/LineDB/core"

// Predicate decides whether a row takes part in an update, delete or select.
type Predicate func(row core.Row) bool

// All matches every row.
func All(core.Row) bool {
	return true
}

// Condition is one column=value test. A nil Value only matches null
// elements.
type Condition struct {
	Column string
	Value  *string
}

// Where builds the AND of conditions. Rows lacking a condition's column never
// match. With no conditions it behaves like All.
func Where(conditions ...Condition) Predicate {
	if len(conditions) == 0 {
		return All
	}
	return func(row core.Row) bool {
		for _, condition := range conditions {
			element := row.Element(condition.Column)
			if element == nil || !element.EqualsString(condition.Value) {
				return false
			}
		}
		return true
	}
}
