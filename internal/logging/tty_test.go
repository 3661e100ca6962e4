package logging

import (
	"bytes"
	"os"
	"testing"
)

func TestAutoColor(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		isTTY bool
		want  bool
	}{
		{"terminal", nil, true, true},
		{"NO_COLOR", map[string]string{"NO_COLOR": ""}, true, false},
		{"TERM=dumb", map[string]string{"TERM": "dumb"}, true, false},
		{"pipe from cron", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TERM", "xterm-256color")
			t.Setenv("NO_COLOR", "")
			os.Unsetenv("NO_COLOR")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if got := autoColor(tt.isTTY); got != tt.want {
				t.Errorf("autoColor(%v) = %v, want %v", tt.isTTY, got, tt.want)
			}
		})
	}
}

func TestColorMode_Enabled(t *testing.T) {
	var buf bytes.Buffer

	if !ColorAlways.Enabled(&buf) {
		t.Error("always must color a buffer")
	}
	if ColorNever.Enabled(&buf) {
		t.Error("never must not color")
	}
	if ColorAuto.Enabled(&buf) || SupportsColor(&buf) {
		t.Error("auto must not color a non-terminal")
	}
}

func TestParseColorMode(t *testing.T) {
	for in, want := range map[string]ColorMode{
		"":       ColorAuto,
		"auto":   ColorAuto,
		"always": ColorAlways,
		"never":  ColorNever,
	} {
		got, err := ParseColorMode(in)
		if err != nil || got != want {
			t.Errorf("ParseColorMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseColorMode("sometimes"); err == nil {
		t.Error("ParseColorMode(sometimes) = nil error, want error")
	}
}

func TestIsTTY_NonFile(t *testing.T) {
	if IsTTY(&bytes.Buffer{}) {
		t.Error("IsTTY(buffer) = true, want false")
	}
}
