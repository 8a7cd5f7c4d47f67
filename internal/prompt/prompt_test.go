package prompt

import (
	"bytes"
	"strings"
	"testing"
)

func TestSelect(t *testing.T) {
	options := []string{"first.csv", "second.csv", "third.csv"}

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "explicit selection", input: "2\n", want: 1},
		{name: "first option", input: "1\n", want: 0},
		{name: "last option", input: "3\n", want: 2},
		{name: "empty input defaults to first", input: "\n", want: 0},
		{name: "skip sentinel", input: "n\n", want: Skipped},
		{name: "skip sentinel uppercase", input: "N\n", want: Skipped},
		{name: "zero is out of range", input: "0\n", want: Skipped},
		{name: "above range", input: "4\n", want: Skipped},
		{name: "negative", input: "-1\n", want: Skipped},
		{name: "garbage input", input: "two\n", want: Skipped},
		{name: "whitespace only defaults to first", input: "   \n", want: 0},
		{name: "closed input skips", input: "", want: Skipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := Select(strings.NewReader(tt.input), &out, "Available datasets:", options)
			if got != tt.want {
				t.Errorf("Select() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSelectReportsOutOfRange(t *testing.T) {
	var out bytes.Buffer
	Select(strings.NewReader("9\n"), &out, "Pick:", []string{"a", "b"})
	if !strings.Contains(out.String(), "out of range") {
		t.Errorf("expected out-of-range report, got %q", out.String())
	}
}

func TestSelectEmptyOptions(t *testing.T) {
	var out bytes.Buffer
	if got := Select(strings.NewReader("1\n"), &out, "Pick:", nil); got != Skipped {
		t.Errorf("Select() with no options = %d, want Skipped", got)
	}
	if out.Len() != 0 {
		t.Errorf("expected no menu output for empty options, got %q", out.String())
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "Y\n", want: true},
		{input: "yes\n", want: true},
		{input: "n\n", want: false},
		{input: "\n", want: false},
		{input: "maybe\n", want: false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		if got := Confirm(strings.NewReader(tt.input), &out, "Proceed?"); got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
