package db

import (
	"bytes"
	"strings"
	"testing"
)

func TestResultDisplay(t *testing.T) {
	d := setupTestDatabase(t)

	var buf bytes.Buffer
	d.Query("SELECT id, name FROM cats WHERE id=1").DisplayTo(&buf)
	out := buf.String()
	for _, want := range []string{"Result: OK", "| id | name |", "| 1  | Tom  |", "1 row\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	d.Query("SELECT id FROM cats WHERE id=99").DisplayTo(&buf)
	if !strings.Contains(buf.String(), "Result rows empty") {
		t.Errorf("Expected empty marker, got:\n%s", buf.String())
	}

	buf.Reset()
	d.Query("DROP TABLE birds").DisplayTo(&buf)
	if !strings.Contains(buf.String(), "Result: FAIL") || !strings.Contains(buf.String(), "Table 'birds' doesn't exist") {
		t.Errorf("Unexpected failure output:\n%s", buf.String())
	}
}

func TestResultData(t *testing.T) {
	d := setupTestDatabase(t)

	result := d.Query("SELECT * FROM cats WHERE id=2")
	data := result.Data()
	if len(data) != 1 || strings.Join(data[0], ",") != "2,null,null" {
		t.Errorf("Expected [2 null null], got %v", data)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs float64
		want string
	}{
		{0.0001, "<1ms"},
		{0.0025, "2.5ms"},
		{0.25, "250ms"},
		{2.5, "2.5s"},
		{42, "42s"},
		{120, "2m"},
		{125, "2m5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.secs); got != tt.want {
			t.Errorf("formatDuration(%v) = %s, expected %s", tt.secs, got, tt.want)
		}
	}
}
