package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	return parsed
}

func TestWithSessionIDAttachesField(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	ctx := logg.WithSessionID(context.Background(), "3f0c2a1d")
	logg.Info(ctx, "billing.session_started")

	line := logLine(t, &buf)
	if got := line["session_id"]; got != "3f0c2a1d" {
		t.Fatalf("session_id = %v, want 3f0c2a1d", got)
	}
	if got := line["message"]; got != "billing.session_started" {
		t.Fatalf("message = %v, want billing.session_started", got)
	}
}

func TestWithInvoiceNoAttachesField(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	ctx := logg.WithSessionID(context.Background(), "3f0c2a1d")
	ctx = logg.WithInvoiceNo(ctx, "INV-20260830-0001")
	logg.Info(ctx, "billing.checkout_completed")

	line := logLine(t, &buf)
	if got := line["invoice_no"]; got != "INV-20260830-0001" {
		t.Fatalf("invoice_no = %v, want INV-20260830-0001", got)
	}
	if got := line["session_id"]; got != "3f0c2a1d" {
		t.Fatalf("session_id = %v, want 3f0c2a1d", got)
	}
}
