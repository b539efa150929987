package tracker

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input    string
		expected Date
		err      bool
	}{
		{"2025-01-15", NewDate(2025, time.January, 15), false},
		{"2025-7-1", NewDate(2025, time.July, 1), false},
		{"invalid-date", Date{}, true},
		{"2025-13-01", Date{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.err {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.err)
			}
			if !tt.err && got != tt.expected {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDateSub(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2023-12-31", "2023-01-01", 364},
		{"2021-01-01", "2020-01-01", 366}, // leap year
		{"2023-01-01", "2023-01-01", 0},
		{"2023-01-01", "2023-01-02", -1},
	}
	for _, tt := range tests {
		if got := MustParseDate(tt.a).Sub(MustParseDate(tt.b)); got != tt.want {
			t.Errorf("%s.Sub(%s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDateAddNormalizes(t *testing.T) {
	if got := MustParseDate("2023-12-31").Add(1); got != MustParseDate("2024-01-01") {
		t.Errorf("Add(1) = %s, want 2024-01-01", got)
	}
	if got := MustParseDate("2024-03-01").Add(-1); got != MustParseDate("2024-02-29") {
		t.Errorf("Add(-1) = %s, want 2024-02-29", got)
	}
}

func TestYearBounds(t *testing.T) {
	if got := StartOfYear(2023); got != MustParseDate("2023-01-01") {
		t.Errorf("StartOfYear(2023) = %s", got)
	}
	if got := EndOfYear(2023); got != MustParseDate("2023-12-31") {
		t.Errorf("EndOfYear(2023) = %s", got)
	}
}

func TestDateJSON(t *testing.T) {
	d := MustParseDate("2023-06-15")
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"2023-06-15"` {
		t.Errorf("Marshal() = %s, want \"2023-06-15\"", data)
	}
	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != d {
		t.Errorf("round trip = %s, want %s", back, d)
	}
}
