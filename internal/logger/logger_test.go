package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestZapLoggerWritesStructuredObject(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", &buf)

	log.DebugObj("petfriends request completed", "petfriends_request", map[string]any{
		"method": "GET",
		"status": 200,
	})
	if err := log.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["msg"] != "petfriends request completed" || line["level"] != "debug" {
		t.Fatalf("unexpected log line %#v", line)
	}
	if _, ok := line["ts"]; !ok {
		t.Fatalf("missing ts field in %#v", line)
	}
	obj, ok := line["petfriends_request"].(map[string]any)
	if !ok || obj["method"] != "GET" {
		t.Fatalf("missing structured field in %#v", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", &buf)

	log.InfoObj("dropped", "k", 1)
	log.ErrorObj("kept", "error", errors.New("boom"))
	_ = log.Sync()

	if bytes.Contains(buf.Bytes(), []byte("dropped")) {
		t.Fatalf("info line should be filtered at warn level: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("kept")) {
		t.Fatalf("error line missing: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		" Warn ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"Error":   zapcore.ErrorLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"loud":    zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPackageHelpersBeforeInit(t *testing.T) {
	S = nil
	InfoObj("ignored", "k", 1)
	if err := Close(); err != nil {
		t.Fatalf("Close before Init: %v", err)
	}
}

func TestPackageHelpersAfterInit(t *testing.T) {
	var buf bytes.Buffer
	S = New("INFO", &buf).s
	t.Cleanup(func() { S = nil })

	InfoObj("starting", "config", map[string]any{"app_env": "test"})
	WarnObj("interrupted", "signal", "context canceled")
	ErrorObj("command failed", "error", "boom")
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var levels []string
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var line map[string]any
		if err := json.Unmarshal(raw, &line); err != nil {
			t.Fatalf("decode log line %q: %v", raw, err)
		}
		levels = append(levels, line["level"].(string))
	}
	if got := strings.Join(levels, ","); got != "info,warn,error" {
		t.Fatalf("levels = %s, want info,warn,error", got)
	}
}
