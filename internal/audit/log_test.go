package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"motordesk.io/internal/authz"
	"motordesk.io/internal/identity"
	"motordesk.io/internal/obs"
)

func TestLogEvent(t *testing.T) {
	var buf bytes.Buffer
	restore := obs.SetLogOutput(&buf)
	defer restore()

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = authz.WithResolved(ctx, authz.Context{
		ActorID:  "actor-42",
		TenantID: "tenant-7",
		Role:     identity.RoleManager,
	})

	if err := LogEvent(ctx, "audit.test", map[string]any{"foo": "bar"}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "audit.test" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["actor_id"] != "actor-42" {
		t.Fatalf("unexpected actor id: %v", entry["actor_id"])
	}
	if entry["tenant_id"] != "tenant-7" {
		t.Fatalf("unexpected tenant id: %v", entry["tenant_id"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["foo"] != "bar" {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogDecisionRecordsOverridePath(t *testing.T) {
	var buf bytes.Buffer
	restore := obs.SetLogOutput(&buf)
	defer restore()

	LogDecision(context.Background(), authz.Decision{
		ActorID:     "actor-1",
		TenantID:    "tenant-1",
		Capability:  authz.CapApproveCosts,
		Role:        identity.RoleSales,
		ViaOverride: true,
		Allowed:     true,
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	fields := entry["fields"].(map[string]any)
	if fields["via_override"] != true {
		t.Fatalf("expected via_override=true, got %v", fields["via_override"])
	}
	if fields["outcome"] != "granted" {
		t.Fatalf("expected granted outcome, got %v", fields["outcome"])
	}
}
