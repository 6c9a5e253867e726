package render

import (
	"bytes"
	"strings"
	"testing"
)

type summaryRow struct {
	TransferID string `json:"transfer_id"`
	Status     string `json:"status"`
	FrameCount int    `json:"frame_count"`
}

// renderTo renders data in the given format and returns the output.
func renderTo(t *testing.T, format Format, data any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewRendererWithWriter(format, false, &buf).Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return buf.String()
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"json lowercase", "json", FormatJSON, false},
		{"json uppercase", "JSON", FormatJSON, false},
		{"table", "table", FormatTable, false},
		{"yaml", "yaml", FormatYAML, false},
		{"empty", "", "", false},
		{"invalid xml", "xml", "", true},
		{"invalid csv", "csv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormat_InvalidErrorMessage(t *testing.T) {
	_, err := ParseFormat("xml")
	if err == nil {
		t.Fatal("expected error for invalid format")
	}
	if !strings.Contains(err.Error(), "json, table, or yaml") {
		t.Errorf("error message should mention valid formats, got: %v", err)
	}
}

func TestRenderer_JSON(t *testing.T) {
	got := renderTo(t, FormatJSON, map[string]string{"key": "value"})
	if !strings.Contains(got, `"key"`) || !strings.Contains(got, `"value"`) {
		t.Errorf("JSON output missing expected content: %s", got)
	}
}

func TestRenderer_YAML(t *testing.T) {
	got := renderTo(t, FormatYAML, map[string]string{"key": "value"})
	if !strings.Contains(got, "key:") || !strings.Contains(got, "value") {
		t.Errorf("YAML output missing expected content: %s", got)
	}
}

func TestRenderer_Table_Struct(t *testing.T) {
	got := renderTo(t, FormatTable, summaryRow{TransferID: "t-1", Status: "ok", FrameCount: 42})

	// Single structs render as key/value rows using json tag names
	for _, want := range []string{"transfer_id:", "t-1", "frame_count:", "42"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q: %s", want, got)
		}
	}
}

func TestRenderer_Table_Slice(t *testing.T) {
	got := renderTo(t, FormatTable, []summaryRow{
		{TransferID: "t-1", Status: "ok", FrameCount: 3},
		{TransferID: "t-2", Status: "error", FrameCount: 1},
	})

	// Header row plus one row per element
	for _, want := range []string{"transfer_id", "status", "t-1", "t-2", "error"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q: %s", want, got)
		}
	}
}

func TestRenderer_Table_EmptySlice(t *testing.T) {
	got := renderTo(t, FormatTable, []summaryRow{})
	if !strings.Contains(got, "(no results)") {
		t.Errorf("empty slice should show '(no results)', got: %s", got)
	}
}

func TestRenderer_NoColor_DoesNotAffectJSON(t *testing.T) {
	var withColor, noColor bytes.Buffer
	data := map[string]string{"key": "value"}

	if err := NewRendererWithWriter(FormatJSON, false, &withColor).Render(data); err != nil {
		t.Fatalf("Render with color failed: %v", err)
	}
	if err := NewRendererWithWriter(FormatJSON, true, &noColor).Render(data); err != nil {
		t.Fatalf("Render without color failed: %v", err)
	}

	if withColor.String() != noColor.String() {
		t.Errorf("--no-color should not affect JSON output")
	}
}
