// Package core provides the value model shared by every LineDB package.
//
// The package defines column metadata, typed cell values, elements, rows,
// the author identity used for persistence commits and the error taxonomy.
//
// # Column Types
//
// Supported column types:
//   - IntType: 32-bit signed integers (INT)
//   - FloatType: 32-bit floating point numbers (FLOAT)
//   - CharType: exactly one character (CHAR)
//   - StringType: free text (STR)
//   - DateType: calendar dates written dd-MM-yyyy (DATE)
//   - DateRangeType: two dates joined by "..." in non-decreasing order (DATE_RANGE)
//
// # Elements
//
// An Element remembers its column by name only. It is validated against a
// column once, at insert or update time, and then carries the parsed value:
//
//	column := core.Column{Name: "dates", Type: core.DateRangeType}
//	element := core.NewElement("dates", core.Text("01-01-2011...01-01-2012"))
//	if err := element.Validate(column); err != nil {
//	    log.Fatal(err)
//	}
//	r, _ := element.Value().DateRange()
//
// # Errors
//
// Every failure raised while answering a query is a *core.Error carrying
// one of ParseError, SchemaError, ValidationError or PreconditionError:
//
//	if kind, ok := core.KindOf(err); ok && kind == core.ValidationError {
//	    ...
//	}
package core
