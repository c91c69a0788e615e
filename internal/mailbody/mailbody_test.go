package mailbody

import (
	"strings"
	"testing"
)

func TestPlainText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "  ", ""},
		{"plain text kept", "Olá,\r\nsegue o contrato.", "Olá,\nsegue o contrato."},
		{"paragraphs", "<p>Olá,</p><p>segue o <b>contrato</b>.</p>", "Olá,\nsegue o contrato."},
		{"line breaks", "a<br>b<br/>c", "a\nb\nc"},
		{"list items", "<ul><li>um</li><li>dois</li></ul>", "- um\n- dois"},
		{"entities", "<p>R&amp;D &lt;2025&gt;</p>", "R&D <2025>"},
		{"style and script dropped", "<head><style>p{color:red}</style></head><script>alert(1)</script><p>oi</p>", "oi"},
		{"blank runs collapsed", "a\n\n\n\n\nb", "a\n\nb"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PlainText(tc.in); got != tc.want {
				t.Fatalf("PlainText(%q):\n got: %q\nwant: %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestPlainText_RemovesTerminalEscapes(t *testing.T) {
	got := PlainText("hello \x1b[31mred\x1b[0m\x07 world")
	if strings.ContainsAny(got, "\x1b\x07") {
		t.Fatalf("expected control characters removed, got %q", got)
	}
	if !strings.Contains(got, "red") {
		t.Fatalf("expected text kept, got %q", got)
	}
}
