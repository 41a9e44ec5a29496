package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func parseEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal log entry: %v", err)
	}
	return entry
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	t.Run("debug not logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug message")
		if buf.Len() > 0 {
			t.Error("Debug message should not be logged at Info level")
		}
	})

	t.Run("info logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Info("info message")
		if buf.Len() == 0 {
			t.Fatal("Info message should be logged at Info level")
		}

		entry := parseEntry(t, &buf)
		if entry["level"] != "INFO" {
			t.Errorf("Expected level INFO, got %v", entry["level"])
		}
		if entry["msg"] != "info message" {
			t.Errorf("Expected message 'info message', got %v", entry["msg"])
		}
	})

	t.Run("error logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Error("error message")
		if buf.Len() == 0 {
			t.Error("Error message should be logged at Info level")
		}
	})
}

func TestLogger_WithField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("user_id", "op-user-1").Info("login complete")

	entry := parseEntry(t, &buf)
	if entry["user_id"] != "op-user-1" {
		t.Errorf("Expected user_id field, got %v", entry["user_id"])
	}
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithFields(map[string]interface{}{
		"method": "GET",
		"status": 200,
	}).Info("request handled")

	entry := parseEntry(t, &buf)
	if entry["method"] != "GET" {
		t.Errorf("Expected method field, got %v", entry["method"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("Expected status field, got %v", entry["status"])
	}
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithError(errors.New("boom")).Error("operation failed")

	entry := parseEntry(t, &buf)
	if entry["error"] != "boom" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}

	if got := logger.WithError(nil); got != logger {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestLogger_Formatted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(DebugLevel, &buf)

	logger.Infof("listening on %s", ":8080")

	entry := parseEntry(t, &buf)
	if entry["msg"] != "listening on :8080" {
		t.Errorf("Unexpected formatted message: %v", entry["msg"])
	}
}

func TestContext_RequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := GetRequestID(ctx); got != "req-1" {
		t.Errorf("Expected req-1, got %s", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("Expected empty request ID, got %s", got)
	}
}

func TestContext_UserID(t *testing.T) {
	ctx := WithUserID(context.Background(), "op-user-1")
	if got := GetUserID(ctx); got != "op-user-1" {
		t.Errorf("Expected op-user-1, got %s", got)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	ctx := WithLogger(context.Background(), logger)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithUserID(ctx, "op-user-1")

	FromContext(ctx).Info("contextual")

	entry := parseEntry(t, &buf)
	if entry["request_id"] != "req-1" {
		t.Errorf("Expected request_id field, got %v", entry["request_id"])
	}
	if entry["user_id"] != "op-user-1" {
		t.Errorf("Expected user_id field, got %v", entry["user_id"])
	}
}
