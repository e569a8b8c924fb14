package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

var tableHeaderColor = color.New(color.Bold)

// writeTable prints rows in columns aligned by display width.
func writeTable(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}
	line := func(cells []string, paint func(a ...any) string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			if i < len(cells)-1 {
				cell = runewidth.FillRight(cell, widths[i])
			}
			if paint != nil {
				cell = paint(cell)
			}
			parts[i] = cell
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}
	if _, err := fmt.Fprintln(w, line(header, tableHeaderColor.Sprint)); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, line(row, nil)); err != nil {
			return err
		}
	}
	return nil
}
