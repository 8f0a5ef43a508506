package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_InitAndGet(t *testing.T) {
	buf := &bytes.Buffer{}
	config := Config{
		Level:  LevelInfo,
		Format: FormatText,
		Outputs: []OutputConfig{
			{Type: OutputStdout, Writer: buf},
		},
	}

	err := Init(config)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Shutdown()

	logger := Get()
	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("log output missing message: %s", output)
	}
}

func TestLogger_NullLogger(t *testing.T) {
	Shutdown() // ensure uninitialized

	logger := Get()
	// must not panic
	logger.Info("should not crash")
	logger.Debug("should not crash")
	logger.Warn("should not crash")
	logger.Error("should not crash")
}

func TestLogger_With(t *testing.T) {
	buf := &bytes.Buffer{}
	config := Config{
		Level:  LevelInfo,
		Format: FormatText,
		Outputs: []OutputConfig{
			{Type: OutputStdout, Writer: buf},
		},
	}

	Init(config)
	defer Shutdown()

	childLogger := With("component", "walker")
	childLogger.Info("message")

	output := buf.String()
	if !strings.Contains(output, "component=walker") {
		t.Errorf("output missing context: %s", output)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	config := Config{
		Level:  LevelWarn,
		Format: FormatText,
		Outputs: []OutputConfig{
			{Type: OutputStdout, Writer: buf},
		},
	}

	Init(config)
	defer Shutdown()

	Get().Info("filtered out")
	Get().Warn("kept")

	output := buf.String()
	if strings.Contains(output, "filtered out") {
		t.Errorf("info record not filtered at warn level: %s", output)
	}
	if !strings.Contains(output, "kept") {
		t.Errorf("warn record missing: %s", output)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	config := Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Outputs: []OutputConfig{
			{Type: OutputStdout, Writer: buf},
		},
	}

	Init(config)
	defer Shutdown()

	Get().Info("structured", "path", "/etc/fstab")

	output := buf.String()
	if !strings.Contains(output, `"msg":"structured"`) {
		t.Errorf("output not JSON encoded: %s", output)
	}
	if !strings.Contains(output, `"path":"/etc/fstab"`) {
		t.Errorf("output missing attribute: %s", output)
	}
}

func TestLogger_Shutdown(t *testing.T) {
	buf := &bytes.Buffer{}
	config := Config{
		Level:  LevelInfo,
		Format: FormatText,
		Outputs: []OutputConfig{
			{Type: OutputStdout, Writer: buf},
		},
	}

	Init(config)
	Get().Info("before shutdown")

	err := Shutdown()
	if err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	// second call must be a no-op
	err = Shutdown()
	if err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"Warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
