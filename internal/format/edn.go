package format

import (
	"io"
	"sort"
	"strconv"
	"strings"
)

// WriteEDN writes an EDN rendition of v.
//
// Only the subset the CLI emits is supported (maps, vectors, strings,
// numbers, booleans, nil). Structs go through their json tags first, and
// JSON keys become keywords.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	x, err := normalize(v)
	if err != nil {
		return err
	}
	e := ednWriter{pretty: pretty}
	e.value(x, 0)
	e.b.WriteByte('\n')
	_, err = io.WriteString(w, e.b.String())
	return err
}

type ednWriter struct {
	b      strings.Builder
	pretty bool
}

func (e *ednWriter) value(v any, level int) {
	switch t := v.(type) {
	case nil:
		e.b.WriteString("nil")
	case bool:
		e.b.WriteString(strconv.FormatBool(t))
	case string:
		e.b.WriteString(strconv.Quote(t))
	case float64:
		// JSON numbers decode as float64; print integral ones as ints.
		if t == float64(int64(t)) {
			e.b.WriteString(strconv.FormatInt(int64(t), 10))
			return
		}
		e.b.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
	case []any:
		e.seq('[', ']', len(t), level, func(i int) { e.value(t[i], level+1) })
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		e.seq('{', '}', len(keys), level, func(i int) {
			e.b.WriteByte(':')
			e.b.WriteString(keyword(keys[i]))
			e.b.WriteByte(' ')
			e.value(t[keys[i]], level+1)
		})
	default:
		e.b.WriteString(strconv.Quote(strings.TrimSpace(toString(v))))
	}
}

func (e *ednWriter) seq(open, close byte, n, level int, item func(i int)) {
	e.b.WriteByte(open)
	if n == 0 {
		e.b.WriteByte(close)
		return
	}
	for i := 0; i < n; i++ {
		switch {
		case e.pretty:
			e.b.WriteByte('\n')
			e.b.WriteString(strings.Repeat("  ", level+1))
		case i > 0:
			e.b.WriteByte(' ')
		}
		item(i)
	}
	if e.pretty {
		e.b.WriteByte('\n')
		e.b.WriteString(strings.Repeat("  ", level))
	}
	e.b.WriteByte(close)
}

func keyword(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "-")
}
