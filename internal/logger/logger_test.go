package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dbsmedya/polyseed/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string // String representation of zapcore.Level
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"", "info"}, // empty defaults to info
		{"warn", "warn"},
		{"error", "error"},
		{"unknown", "info"}, // unknown defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level := parseLevel(tt.input)
			if level.String() != tt.expected {
				t.Errorf("parseLevel(%q) = %v, expected %v", tt.input, level.String(), tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.LoggingConfig
	}{
		{
			name: "json format info level",
			cfg: &config.LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
		},
		{
			name: "text format debug level",
			cfg: &config.LoggingConfig{
				Level:  "debug",
				Format: "text",
				Output: "stdout",
			},
		},
		{
			name: "stderr output",
			cfg: &config.LoggingConfig{
				Level:  "error",
				Format: "text",
				Output: "stderr",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if logger == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polyseed.log")
	logger, err := New(&config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: path,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Infow("hello", "store", "mysql")
	logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file missing entry, got: %s", data)
	}
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	if logger == nil {
		t.Fatal("NewDefault() returned nil")
	}
}

func TestContextMethods(t *testing.T) {
	logger := NewNop()

	if l := logger.WithStore("mysql"); l == nil {
		t.Error("WithStore returned nil")
	}
	if l := logger.WithExecution("exec-123"); l == nil {
		t.Error("WithExecution returned nil")
	}
	if l := logger.WithVersion("v1-base"); l == nil {
		t.Error("WithVersion returned nil")
	}
}

func TestContextMethodsDoNotMutateParent(t *testing.T) {
	logger := NewNop()
	child := logger.WithStore("redis")
	if child == logger {
		t.Error("WithStore should return a new logger")
	}
}
