package log

import (
	"bytes"
	"strings"
	"testing"
)

func newCaptureLogger(level Level, f Formatter) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(
		WithLevel(level),
		WithFormatter(f),
		WithOutput(NewWriterOutput(&buf)),
	)
	return l, &buf
}

func TestLevelGating(t *testing.T) {
	l, buf := newCaptureLogger(InfoLevel, &TextFormatter{})
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug entry should be suppressed at info level, got %q", buf.String())
	}
	l.Info("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("info entry missing: %q", buf.String())
	}
}

func TestTextFormatterSortsFields(t *testing.T) {
	l, buf := newCaptureLogger(DebugLevel, &TextFormatter{})
	l.Debug("evt", Str("zeta", "1"), Str("alpha", "2"))
	out := buf.String()
	if strings.Index(out, "alpha=") > strings.Index(out, "zeta=") {
		t.Fatalf("fields not sorted: %q", out)
	}
}

func TestWithCarriesFields(t *testing.T) {
	l, buf := newCaptureLogger(DebugLevel, &TextFormatter{})
	child := l.With(Component("tailer"))
	child.Info("tick")
	if !strings.Contains(buf.String(), "component=tailer") {
		t.Fatalf("component field missing: %q", buf.String())
	}
}

func TestJSONFormatterSingleLine(t *testing.T) {
	l, buf := newCaptureLogger(DebugLevel, &JSONFormatter{})
	l.Info("evt", Int("n", 3))
	out := buf.String()
	if strings.Count(out, "\n") != 1 || !strings.HasSuffix(out, "\n") {
		t.Fatalf("want one trailing newline, got %q", out)
	}
	if !strings.Contains(out, `"n":3`) {
		t.Fatalf("field missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug": DebugLevel,
		"INFO":  InfoLevel,
		"Warn":  WarnLevel,
		"error": ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
