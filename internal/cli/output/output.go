// Package output renders command results as text tables, markdown, JSON or
// YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Mode selects the output format.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto" // text on a terminal, markdown otherwise
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
	ModeYAML     Mode = "yaml"
)

// Modes lists the accepted mode names.
var Modes = []string{string(ModeAuto), string(ModeText), string(ModeMarkdown), string(ModeJSON), string(ModeYAML)}

// ParseMode validates a mode name. Empty means auto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeText, ModeMarkdown, ModeJSON, ModeYAML:
		return m, nil
	case "md":
		return ModeMarkdown, nil
	}
	return "", fmt.Errorf("unknown output format %q (want one of %s)", s, strings.Join(Modes, ", "))
}

// Result is what a command prints: an optional row set and, for statements
// that change data, the affected row count.
type Result struct {
	Columns  []string
	Rows     [][]any
	Affected *int64
}

// Renderer writes results in one mode.
type Renderer struct {
	out  io.Writer
	mode Mode
}

// NewRenderer creates a renderer. ModeAuto is resolved against out.
func NewRenderer(out io.Writer, mode Mode) *Renderer {
	if mode == ModeAuto || mode == "" {
		mode = ModeMarkdown
		if isTerminal(out) {
			mode = ModeText
		}
	}
	return &Renderer{out: out, mode: mode}
}

// Mode returns the resolved output mode.
func (r *Renderer) Mode() Mode { return r.mode }

// Render writes res.
func (r *Renderer) Render(res Result) error {
	switch r.mode {
	case ModeJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(structured(res))
	case ModeYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(structured(res)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return r.renderTable(res)
	}
}

func (r *Renderer) renderTable(res Result) error {
	if len(res.Columns) > 0 || res.Affected == nil {
		if len(res.Rows) == 0 {
			_, _ = fmt.Fprintln(r.out, "(0 rows)")
		} else {
			t := table.NewWriter()
			header := make(table.Row, len(res.Columns))
			for i, col := range res.Columns {
				header[i] = col
			}
			t.AppendHeader(header)
			for _, row := range res.Rows {
				tr := make(table.Row, len(row))
				for i, v := range row {
					tr[i] = formatValue(v)
				}
				t.AppendRow(tr)
			}

			var rendered string
			if r.mode == ModeMarkdown {
				rendered = t.RenderMarkdown()
			} else {
				t.SetStyle(table.StyleLight)
				rendered = t.Render()
			}
			_, _ = fmt.Fprintln(r.out, rendered)
			if res.Affected == nil {
				_, _ = fmt.Fprintf(r.out, "(%d rows)\n", len(res.Rows))
			}
		}
	}
	if res.Affected != nil {
		_, _ = fmt.Fprintf(r.out, "%d rows affected\n", *res.Affected)
	}
	return nil
}

// structured converts res into the value encoded in JSON and YAML modes:
// a list of row objects, wrapped with the affected count when present.
func structured(res Result) any {
	rows := make([]map[string]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		obj := make(map[string]any, len(res.Columns))
		for i, col := range res.Columns {
			if i < len(row) {
				obj[col] = plain(row[i])
			}
		}
		rows = append(rows, obj)
	}
	if res.Affected == nil {
		return rows
	}
	out := map[string]any{"affected": *res.Affected}
	if len(res.Columns) > 0 {
		out["rows"] = rows
	}
	return out
}

// plain turns driver values into ones both encoders print readably.
func plain(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	}
	return v
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", plain(v))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
