package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table renders aligned columns. Widths are measured in terminal cells so
// names with wide characters line up.
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a table with headers.
func NewTable(w io.Writer, headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	return &Table{writer: w, headers: headers, widths: widths}
}

// AddRow adds a row. Extra cells are dropped.
func (t *Table) AddRow(cols ...string) {
	if len(cols) > len(t.headers) {
		cols = cols[:len(t.headers)]
	}
	for i, c := range cols {
		if w := runewidth.StringWidth(c); w > t.widths[i] {
			t.widths[i] = w
		}
	}
	t.rows = append(t.rows, cols)
}

// Render writes the table.
func (t *Table) Render() error {
	if err := t.line(t.headers); err != nil {
		return err
	}
	seps := make([]string, len(t.widths))
	for i, w := range t.widths {
		seps[i] = strings.Repeat("-", w)
	}
	if err := t.line(seps); err != nil {
		return err
	}
	for _, row := range t.rows {
		if err := t.line(row); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) line(cells []string) error {
	var sb strings.Builder
	sb.WriteString("  ")
	for i, w := range t.widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i == len(t.widths)-1 {
			sb.WriteString(cell)
			break
		}
		sb.WriteString(runewidth.FillRight(cell, w))
		sb.WriteString("  ")
	}
	_, err := fmt.Fprintln(t.writer, strings.TrimRight(sb.String(), " "))
	return err
}

// Truncate shortens s to maxWidth cells, ending with "..." when cut.
func Truncate(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// Pluralize returns singular or plural form based on count.
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}
