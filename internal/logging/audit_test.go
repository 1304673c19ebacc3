package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/RowanDark/playfair/internal/redact"
)

func TestAuditLoggerEmit(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := NewAuditLogger("test", WithoutStdout(), WithWriter(buf))
	if err != nil {
		t.Fatalf("NewAuditLogger: %v", err)
	}

	event := AuditEvent{EventType: EventDecrypt, Decision: DecisionAllow}
	if err := logger.Emit(event); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	var decoded AuditEvent
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}

	if decoded.Component != "test" {
		t.Fatalf("expected component 'test', got %q", decoded.Component)
	}
	if decoded.EventType != EventDecrypt {
		t.Fatalf("expected event type %q, got %q", EventDecrypt, decoded.EventType)
	}
	if decoded.Decision != DecisionAllow {
		t.Fatalf("expected decision %q, got %q", DecisionAllow, decoded.Decision)
	}
	if decoded.Timestamp.IsZero() {
		t.Fatalf("expected timestamp to be set")
	}
	if _, err := uuid.Parse(decoded.ID); err != nil {
		t.Fatalf("expected uuid event id, got %q", decoded.ID)
	}
}

func TestAuditLoggerRedactsKeyword(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := NewAuditLogger("cipher", WithoutStdout(), WithWriter(buf))
	if err != nil {
		t.Fatalf("NewAuditLogger: %v", err)
	}

	err = logger.Emit(AuditEvent{
		EventType: EventEncrypt,
		Metadata:  map[string]any{"keyword": "SUPERSPY", "bigrams": 19},
		Reason:    "keyword=SUPERSPY rejected",
	})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	line := buf.String()
	if strings.Contains(line, "SUPERSPY") {
		t.Fatalf("keyword leaked into audit log: %s", line)
	}
	if !strings.Contains(line, redact.Fingerprint("SUPERSPY")) {
		t.Fatalf("expected keyword fingerprint in audit log: %s", line)
	}
}

func TestAuditLoggerWithComponentSharesOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := NewAuditLogger("root", WithoutStdout(), WithWriter(buf))
	if err != nil {
		t.Fatalf("NewAuditLogger: %v", err)
	}
	child := logger.WithComponent("api")
	if err := child.Emit(AuditEvent{EventType: EventPipeline}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := child.Close(); err != nil {
		t.Fatalf("child Close: %v", err)
	}
	if err := logger.Emit(AuditEvent{EventType: EventRecipeSaved}); err != nil {
		t.Fatalf("Emit after child close: %v", err)
	}

	scanner := bufio.NewScanner(buf)
	var components []string
	for scanner.Scan() {
		var ev AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		components = append(components, ev.Component)
	}
	if len(components) != 2 || components[0] != "api" || components[1] != "root" {
		t.Fatalf("unexpected components %v", components)
	}
}

func TestAuditLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := NewAuditLogger("file", WithoutStdout(), WithFile(path))
	if err != nil {
		t.Fatalf("NewAuditLogger: %v", err)
	}
	if err := logger.Emit(AuditEvent{EventType: EventServerLifecycle, Reason: "started"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	if !strings.Contains(string(data), string(EventServerLifecycle)) {
		t.Fatalf("audit file missing event: %s", data)
	}
}

func TestAuditLoggerOptionErrors(t *testing.T) {
	if _, err := NewAuditLogger("x", WithWriter(nil)); err == nil {
		t.Fatal("expected error for nil writer")
	}
	if _, err := NewAuditLogger("x", WithFile("  ")); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := NewAuditLogger("x", WithoutStdout()); err == nil {
		t.Fatal("expected error when no writers remain")
	}

	var nilLogger *AuditLogger
	if err := nilLogger.Emit(AuditEvent{}); err == nil {
		t.Fatal("expected error from nil logger")
	}
	if err := Discard().Emit(AuditEvent{EventType: EventDecrypt}); err != nil {
		t.Fatalf("discard logger: %v", err)
	}
}
