package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// stdout receives all command output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// Table renders rows as aligned columns under a header.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow adds a row to the table. Missing trailing cells render empty.
func (t *Table) AddRow(cols ...string) {
	t.rows = append(t.rows, cols)
}

// Render writes the table to stdout.
func (t *Table) Render() {
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)

	sep := make([]string, len(t.headers))
	for i, h := range t.headers {
		sep[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(w, strings.Join(t.headers, "\t"))
	fmt.Fprintln(w, strings.Join(sep, "\t"))

	for _, row := range t.rows {
		cells := make([]string, len(t.headers))
		copy(cells, row)
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}

	w.Flush()
}

// Detail renders labelled values one per line, labels aligned.
type Detail struct {
	lines [][2]string
}

// Add appends a labelled value.
func (d *Detail) Add(label, value string) *Detail {
	d.lines = append(d.lines, [2]string{label, value})
	return d
}

// Render writes the details to stdout.
func (d *Detail) Render() {
	w := tabwriter.NewWriter(stdout, 0, 0, 1, ' ', 0)
	for _, l := range d.lines {
		fmt.Fprintf(w, "%s:\t%s\n", l[0], l[1])
	}
	w.Flush()
}

// printOutput encodes data as JSON or YAML. Table output is drawn by each command.
func printOutput(data interface{}) error {
	switch getOutputFormat() {
	case "yaml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
}

// printLine writes a plain line to stdout.
func printLine(a ...interface{}) {
	fmt.Fprintln(stdout, a...)
}

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// formatState marks a job or availability state.
func formatState(state string) string {
	switch strings.ToLower(state) {
	case "succeeded", "yes":
		return "[+] " + state
	case "failed", "no":
		return "[-] " + state
	case "submitted", "running":
		return "[*] " + state
	default:
		return state
	}
}

func yesNo(b bool) string {
	if b {
		return formatState("yes")
	}
	return formatState("no")
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
