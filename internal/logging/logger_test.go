package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xcam/internal/config"
	"xcam/internal/logging"
	"xcam/internal/transport"
)

func TestNewFromConfigWritesDaemonLog(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("daemon starting")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "xcam.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "daemon starting") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleHandlerFormatsComponentPrefix(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	component := logging.NewComponentLogger(logger, "dispatcher")
	component.Info("claimed action", logging.Int64("action_id", 7))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "[dispatcher]") {
		t.Fatalf("expected component prefix in %q", line)
	}
	if !strings.Contains(line, "action_id=7") {
		t.Fatalf("expected attribute in %q", line)
	}
	if !strings.Contains(line, "INFO") {
		t.Fatalf("expected level label in %q", line)
	}
}

func TestJSONHandlerEmitsStructuredRecord(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("action done", logging.String("command", "check_config"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &record); err != nil {
		t.Fatalf("unmarshal log record: %v", err)
	}
	if record["msg"] != "action done" {
		t.Fatalf("unexpected message: %v", record["msg"])
	}
	if record["command"] != "check_config" {
		t.Fatalf("unexpected command attribute: %v", record["command"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "filtered.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("visible")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "hidden") {
		t.Fatalf("expected debug record to be filtered, got %q", content)
	}
	if !strings.Contains(string(content), "visible") {
		t.Fatalf("expected info record, got %q", content)
	}
}

func TestWithContextAddsActionFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "context.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := transport.WithActionID(context.Background(), 21)
	ctx = transport.WithCommand(ctx, "capture_and_stitch")
	ctx = transport.WithRequestID(ctx, "req-9")

	logging.WithContext(ctx, logger).Info("handling")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, fragment := range []string{"action_id=21", "command=capture_and_stitch", "correlation_id=req-9"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
}
