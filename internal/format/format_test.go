package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestWriteJSON_Envelope(t *testing.T) {
	var buf bytes.Buffer
	env := map[string]any{"data": map[string]any{"id": "1"}, "_hints": []string{"mailtasks tasks show 1"}}
	if err := Write(&buf, env, "json", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if _, ok := got["data"]; !ok {
		t.Fatalf("missing data: %s", buf.String())
	}
}

func TestWriteEDN(t *testing.T) {
	var buf bytes.Buffer
	v := struct {
		ID    string   `json:"id"`
		Count int      `json:"count"`
		Rate  float64  `json:"rate"`
		Tags  []string `json:"tags"`
		Done  bool     `json:"done"`
		Empty any      `json:"empty"`
	}{ID: "7", Count: 3, Rate: 0.5, Tags: []string{"a", "b"}, Done: true}
	if err := Write(&buf, v, "edn", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := `{:count 3 :done true :empty nil :id "7" :rate 0.5 :tags ["a" "b"]}` + "\n"
	if buf.String() != want {
		t.Fatalf("unexpected edn:\n got: %q\nwant: %q", buf.String(), want)
	}

	buf.Reset()
	if err := WriteEDN(&buf, map[string]any{"xs": []any{}}, true); err != nil {
		t.Fatalf("WriteEDN: %v", err)
	}
	if buf.String() != "{\n  :xs []\n}\n" {
		t.Fatalf("unexpected pretty edn: %q", buf.String())
	}
}

type rows struct{}

func (rows) TableHeaders() []string { return []string{"ID", "SUMMARY"} }
func (rows) TableRows() [][]string  { return [][]string{{"1", "Revisar contrato"}} }

func TestWriteTable(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": rows{}, "_hints": []string{"mailtasks tasks show 1"}}, "table", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ID", "SUMMARY", "Revisar contrato", "hint: mailtasks tasks show 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table output:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := Write(&buf, map[string]any{"data": []map[string]any{{"id": "1", "nested": map[string]any{}}, {"id": "2"}}}, "table", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "id") || strings.Contains(buf.String(), "nested") {
		t.Fatalf("expected scalar columns only:\n%s", buf.String())
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, nil, "yaml", false); err == nil {
		t.Fatalf("expected error")
	}
}
