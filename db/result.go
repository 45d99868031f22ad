package db

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nickyhof/LineDB/core"
)

type Status int

const (
	OK Status = iota
	FAIL
)

func (s Status) String() string {
	if s == OK {
		return "OK"
	}
	return "FAIL"
}

// Result is what every query returns. Report is empty or an explanatory
// message on success and the failure reason otherwise. Err keeps the
// classified error behind a FAIL.
type Result struct {
	Status           Status
	Report           string
	Rows             []core.Row
	Err              error
	ExecutionTimeSec float64
}

func success(report string, rows []core.Row) Result {
	return Result{Status: OK, Report: report, Rows: rows}
}

func failure(err error) Result {
	return Result{Status: FAIL, Report: err.Error(), Err: err}
}

func (result Result) OK() bool {
	return result.Status == OK
}

// Columns lists the column names found across the result rows, in the order
// they first appear.
func (result Result) Columns() []string {
	var columns []string
	seen := make(map[string]bool)
	for _, row := range result.Rows {
		for _, name := range row.Columns() {
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
	}
	return columns
}

// Data renders the rows as text aligned with Columns. A cell is "null" for
// a null element and empty when the row does not carry the column.
func (result Result) Data() [][]string {
	columns := result.Columns()
	data := make([][]string, len(result.Rows))
	for i, row := range result.Rows {
		cells := make([]string, len(columns))
		for j, name := range columns {
			if element := row.Element(name); element != nil {
				cells[j] = element.Text()
			}
		}
		data[i] = cells
	}
	return data
}

func (result Result) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

// Display writes the result to stdout.
func (result Result) Display() {
	result.DisplayTo(os.Stdout)
}

func (result Result) DisplayTo(w io.Writer) {
	if result.Status == FAIL {
		fmt.Fprintf(w, "Result: FAIL (%s)\n%s\n", result.ExecutionTime(), result.Report)
		return
	}

	fmt.Fprintf(w, "Result: OK (%s)\n", result.ExecutionTime())
	if result.Report != "" {
		fmt.Fprintln(w, result.Report)
	}

	if len(result.Rows) == 0 {
		fmt.Fprintln(w, "Result rows empty")
		return
	}

	g := newGrid(w, result.Columns())
	g.add(result.Data()...)
	g.render()

	rows := "rows"
	if len(result.Rows) == 1 {
		rows = "row"
	}
	fmt.Fprintf(w, "%d %s\n", len(result.Rows), rows)
}

// formatDuration formats a duration in human-readable form
func formatDuration(secs float64) string {
	d := time.Duration(secs * float64(time.Second))
	switch {
	case d < time.Millisecond:
		return "<1ms"
	case d < 10*time.Millisecond:
		return fmt.Sprintf("%.1fms", secs*1000)
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < 10*time.Second:
		return fmt.Sprintf("%.1fs", secs)
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(secs))
	default:
		mins := int(secs / 60)
		if rest := int(secs) % 60; rest != 0 {
			return fmt.Sprintf("%dm%ds", mins, rest)
		}
		return fmt.Sprintf("%dm", mins)
	}
}
