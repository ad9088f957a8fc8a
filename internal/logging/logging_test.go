package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: JSONFormat, Level: WarnLevel, Output: &buf})

	l.Debug("should not appear", nil)
	l.Info("should not appear either", nil)
	l.Warn("visible", nil)

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("expected debug/info to be filtered, got: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("expected warn message, got: %s", out)
	}
}

func TestJSONShape(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: JSONFormat, Level: DebugLevel, Output: &buf})
	l.Info("migration started", map[string]interface{}{"library": "pydantic"})

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected valid JSON line, got error: %v (line: %s)", err, buf.String())
	}
	if decoded["message"] != "migration started" {
		t.Fatalf("unexpected message field: %v", decoded["message"])
	}
	fields, ok := decoded["fields"].(map[string]interface{})
	if !ok || fields["library"] != "pydantic" {
		t.Fatalf("expected fields.library=pydantic, got: %v", decoded["fields"])
	}
}

func TestWithMergesBaseFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: JSONFormat, Level: DebugLevel, Output: &buf}).With(map[string]interface{}{"session": "abc"})
	l.Info("patch rejected", map[string]interface{}{"file": "a.py"})

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	fields := decoded["fields"].(map[string]interface{})
	if fields["session"] != "abc" || fields["file"] != "a.py" {
		t.Fatalf("expected merged fields, got: %v", fields)
	}
}
