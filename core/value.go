package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// DateLayout is the day-month-year layout of DATE values. Single-digit
// days and months are accepted; the year has four digits.
const DateLayout = "2-1-2006"

// DateRangeSeparator joins the two ends of a DATE_RANGE value.
const DateRangeSeparator = "..."

type DateRange struct {
	Start time.Time
	End   time.Time
}

// Value is a parsed cell value. The zero Value is null.
type Value struct {
	typ   ColumnType
	valid bool
	i     int32
	f     float32
	c     rune
	s     string
	d     time.Time
	r     DateRange
}

// Null reports whether the value is absent.
func (v Value) Null() bool {
	return !v.valid
}

// Type returns the column type the value was parsed under. Meaningless for
// null values.
func (v Value) Type() ColumnType {
	return v.typ
}

func (v Value) Int() (int32, bool) {
	return v.i, v.valid && v.typ == IntType
}

func (v Value) Float() (float32, bool) {
	return v.f, v.valid && v.typ == FloatType
}

func (v Value) Char() (rune, bool) {
	return v.c, v.valid && v.typ == CharType
}

func (v Value) Str() (string, bool) {
	return v.s, v.valid && v.typ == StringType
}

func (v Value) Date() (time.Time, bool) {
	return v.d, v.valid && v.typ == DateType
}

func (v Value) DateRange() (DateRange, bool) {
	return v.r, v.valid && v.typ == DateRangeType
}

func (v Value) String() string {
	if !v.valid {
		return "null"
	}
	switch v.typ {
	case IntType:
		return strconv.FormatInt(int64(v.i), 10)
	case FloatType:
		return strconv.FormatFloat(float64(v.f), 'g', -1, 32)
	case CharType:
		return string(v.c)
	case StringType:
		return v.s
	case DateType:
		return v.d.Format("02-01-2006")
	case DateRangeType:
		return v.r.Start.Format("02-01-2006") + DateRangeSeparator + v.r.End.Format("02-01-2006")
	default:
		return ""
	}
}

// ParseValue parses raw text under the given column type. The returned error
// is the bare reason; callers add the value context.
func ParseValue(t ColumnType, raw string) (Value, error) {
	v := Value{typ: t, valid: true}
	switch t {
	case IntType:
		i, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return Value{}, numberError(raw)
		}
		v.i = int32(i)
	case FloatType:
		// out of range input saturates to an infinity
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 32)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return Value{}, numberError(raw)
		}
		v.f = float32(f)
	case CharType:
		if utf8.RuneCountInString(raw) != 1 {
			return Value{}, errors.New("Invalid character value")
		}
		v.c, _ = utf8.DecodeRuneInString(raw)
	case StringType:
		v.s = raw
	case DateType:
		d, err := parseDate(raw)
		if err != nil {
			return Value{}, err
		}
		v.d = d
	case DateRangeType:
		r, err := parseDateRange(raw)
		if err != nil {
			return Value{}, err
		}
		v.r = r
	default:
		return Value{}, fmt.Errorf("unsupported column type %v", t)
	}
	return v, nil
}

func numberError(raw string) error {
	if raw == "" {
		return errors.New("empty String")
	}
	return fmt.Errorf("For input string: \"%s\"", raw)
}

func parseDate(raw string) (time.Time, error) {
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("Unparseable date: \"%s\"", raw)
	}
	return d, nil
}

func parseDateRange(raw string) (DateRange, error) {
	start, end, found := strings.Cut(raw, DateRangeSeparator)
	if !found || start == "" || end == "" || strings.ContainsAny(raw, " \t\r\n") {
		return DateRange{}, errors.New("Invalid time range value")
	}

	startDate, err := parseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	endDate, err := parseDate(end)
	if err != nil {
		return DateRange{}, err
	}

	if startDate.After(endDate) {
		return DateRange{}, errors.New("The two time stamps must be in non-decreasing order to form a range")
	}

	return DateRange{Start: startDate, End: endDate}, nil
}
