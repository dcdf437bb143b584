package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/polyseed/internal/health"
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

// renderTable prints an aligned table. Column widths use display width,
// not byte length, so wide runes stay aligned.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && runewidth.StringWidth(cell) > widths[i] {
				widths[i] = runewidth.StringWidth(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = cell + strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell))
		}
		fmt.Fprintln(w, "  "+strings.Join(parts, "  "))
	}

	printRow(headers)
	separators := make([]string, len(headers))
	for i := range headers {
		separators[i] = strings.Repeat("-", widths[i])
	}
	printRow(separators)
	for _, row := range rows {
		printRow(row)
	}
}

// colorStatus renders a health status with its conventional color.
func colorStatus(status health.OverallStatus) string {
	switch status {
	case health.OverallHealthy:
		return color.Green.Sprint(string(status))
	case health.OverallDegraded:
		return color.Yellow.Sprint(string(status))
	default:
		return color.Red.Sprint(string(status))
	}
}

// colorBool renders a per-store check result.
func colorBool(ok bool) string {
	if ok {
		return color.Green.Sprint("ok")
	}
	return color.Red.Sprint("FAIL")
}
