package db

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// grid draws rows as a boxed ASCII table.
type grid struct {
	writer  io.Writer
	headers []string
	rows    [][]string
}

func newGrid(w io.Writer, headers []string) *grid {
	return &grid{writer: w, headers: headers}
}

func (g *grid) add(rows ...[]string) {
	g.rows = append(g.rows, rows...)
}

func (g *grid) render() {
	if len(g.headers) == 0 && len(g.rows) == 0 {
		return
	}

	widths := g.widths()
	separator := separatorLine(widths)

	fmt.Fprintln(g.writer, separator)
	if len(g.headers) > 0 {
		fmt.Fprintln(g.writer, formatLine(g.headers, widths))
		fmt.Fprintln(g.writer, separator)
	}
	for _, row := range g.rows {
		fmt.Fprintln(g.writer, formatLine(row, widths))
	}
	fmt.Fprintln(g.writer, separator)
}

func (g *grid) widths() []int {
	count := len(g.headers)
	for _, row := range g.rows {
		if len(row) > count {
			count = len(row)
		}
	}

	widths := make([]int, count)
	measure := func(cells []string) {
		for i, cell := range cells {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}
	measure(g.headers)
	for _, row := range g.rows {
		measure(row)
	}

	for i := range widths {
		if widths[i] < 1 {
			widths[i] = 1
		}
	}
	return widths
}

func separatorLine(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w+2)
	}
	return "+" + strings.Join(parts, "+") + "+"
}

func formatLine(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = " " + cell + strings.Repeat(" ", w-utf8.RuneCountInString(cell)+1)
	}
	return "|" + strings.Join(parts, "|") + "|"
}
