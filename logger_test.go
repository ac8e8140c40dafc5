package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zerolog.Level{
		"":        zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
		"trace":   zerolog.TraceLevel,
	} {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNamedJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log := named(newLogger(LogOptions{Level: "info", Format: "json", Writer: &buf}), "resolver")

	log.Debug().Msg("hidden")
	log.Info().Str("uaid", "U1").Msg("resolving")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected one json line, got %q: %v", buf.String(), err)
	}
	if line["component"] != "resolver" || line["uaid"] != "U1" || line["message"] != "resolving" {
		t.Fatalf("log line = %v", line)
	}
}
