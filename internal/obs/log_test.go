package obs

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestEmitEnvelope(t *testing.T) {
	var buf bytes.Buffer
	restore := SetLogOutput(&buf)
	defer restore()

	Emit("audit", map[string]any{"event": "test.event"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["service"] != "motordesk" {
		t.Fatalf("unexpected service: %v", entry["service"])
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "test.event" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["ts"] == "" || entry["ts"] == nil {
		t.Fatal("missing timestamp")
	}
}

func TestEmitFieldsNeverOverrideEnvelope(t *testing.T) {
	var buf bytes.Buffer
	restore := SetLogOutput(&buf)
	defer restore()

	Emit("http_request", map[string]any{"service": "spoofed", "type": "spoofed"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["service"] != "motordesk" || entry["type"] != "http_request" {
		t.Fatalf("envelope overridden: service=%v type=%v", entry["service"], entry["type"])
	}
}
