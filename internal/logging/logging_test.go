package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		l, err := New(lvl, false)
		if err != nil {
			t.Fatalf("New(%q): %v", lvl, err)
		}
		want, _ := zapcore.ParseLevel(lvl)
		if !l.Core().Enabled(want) {
			t.Errorf("level %q not enabled", lvl)
		}
	}
	if _, err := New("loud", false); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestRedactKey(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"abc":          "****",
		"0123456789ab": "****89ab",
	}
	for in, want := range tests {
		if got := RedactKey(in); got != want {
			t.Errorf("RedactKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
}
