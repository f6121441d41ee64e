package logging

import "testing"

func TestNew_Formats(t *testing.T) {
	t.Parallel()

	for _, f := range []string{"", "json", "console", "CONSOLE"} {
		l, err := New(Config{Format: f, Level: "debug"})
		if err != nil {
			t.Fatalf("New(format=%q) err=%v", f, err)
		}
		l.Debugw("ok", "format", f)
	}
}

func TestNew_RejectsUnknownFormatAndLevel(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestOrNop(t *testing.T) {
	t.Parallel()

	if OrNop(nil) == nil {
		t.Fatalf("OrNop(nil) returned nil")
	}
}
