package format

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Tabular values choose their own columns in table output.
type Tabular interface {
	TableHeaders() []string
	TableRows() [][]string
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	hintStyle   = lipgloss.NewStyle().Faint(true)
)

// WriteTable renders the envelope's data as a table followed by its hints.
// Values that are not Tabular are rendered from their JSON form: a list of
// objects becomes one row per object, an object becomes key/value rows.
func WriteTable(w io.Writer, v any) error {
	data := v
	var hints []string
	if env, ok := v.(map[string]any); ok {
		if d, ok := env["data"]; ok {
			data = d
		}
		if h, ok := env["_hints"].([]string); ok {
			hints = h
		}
	}

	headers, rows, err := tableOf(data)
	if err != nil {
		return err
	}
	var b strings.Builder
	if len(headers) > 0 {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(headers...).
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		b.WriteString(t.String())
		b.WriteByte('\n')
	}
	for _, h := range hints {
		b.WriteString(hintStyle.Render("hint: " + h))
		b.WriteByte('\n')
	}
	_, err = io.WriteString(w, b.String())
	return err
}

func tableOf(data any) ([]string, [][]string, error) {
	if t, ok := data.(Tabular); ok {
		return t.TableHeaders(), t.TableRows(), nil
	}
	x, err := normalize(data)
	if err != nil {
		return nil, nil, err
	}
	switch t := x.(type) {
	case nil:
		return nil, nil, nil
	case []any:
		if len(t) == 0 {
			return nil, nil, nil
		}
		cols := map[string]struct{}{}
		for _, it := range t {
			if m, ok := it.(map[string]any); ok {
				for k, v := range m {
					if isScalar(v) {
						cols[k] = struct{}{}
					}
				}
			}
		}
		if len(cols) == 0 {
			rows := make([][]string, 0, len(t))
			for _, it := range t {
				rows = append(rows, []string{toString(it)})
			}
			return []string{"value"}, rows, nil
		}
		headers := make([]string, 0, len(cols))
		for k := range cols {
			headers = append(headers, k)
		}
		sort.Strings(headers)
		rows := make([][]string, 0, len(t))
		for _, it := range t {
			m, _ := it.(map[string]any)
			row := make([]string, len(headers))
			for i, h := range headers {
				row[i] = toString(m[h])
			}
			rows = append(rows, row)
		}
		return headers, rows, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, toString(t[k])})
		}
		return []string{"key", "value"}, rows, nil
	default:
		return []string{"value"}, [][]string{{toString(t)}}, nil
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, bool, string, float64:
		return true
	}
	return false
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(t))
		for _, it := range t {
			parts = append(parts, toString(it))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		return fmt.Sprintf("{%d fields}", len(t))
	default:
		return fmt.Sprintf("%v", v)
	}
}
