package logger

import "testing"

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		l, err := New(level)
		if err != nil {
			t.Fatalf("New(%q): %v", level, err)
		}
		_ = l.Sync()
	}

	if _, err := New("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNamedNil(t *testing.T) {
	if Named(nil, "svc") == nil {
		t.Fatal("Named(nil) must return a usable logger")
	}
}
