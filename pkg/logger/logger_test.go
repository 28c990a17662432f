package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit_WritesJSONWithServiceAndComponent(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var buf bytes.Buffer
	Init(Options{Level: "debug", Output: &buf, Service: "sceh-portal"})

	l := For("auth")
	l.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json log line %q: %v", buf.String(), err)
	}
	if entry["service"] != "sceh-portal" || entry["component"] != "auth" || entry["message"] != "hello" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestInit_OnlyFirstCallApplies(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var first, second bytes.Buffer
	Init(Options{Output: &first})
	Init(Options{Output: &second})

	l := Get()
	l.Info().Msg("x")
	if first.Len() == 0 || second.Len() != 0 {
		t.Fatalf("expected output only on first writer")
	}
}

func TestGet_PanicsBeforeInit(t *testing.T) {
	Reset()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	Get()
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
