package adapters

import "testing"

func TestQuotaGateDeniesWithoutAPIKey(t *testing.T) {
	g := NewQuotaGate("", 10)
	if err := g.Allow(); err == nil {
		t.Fatal("expected Allow to deny a gate with no API key")
	}
}

func TestQuotaGateAllowsUpToLimit(t *testing.T) {
	g := NewQuotaGate("secret", 3)
	for i := 0; i < 3; i++ {
		if err := g.Allow(); err != nil {
			t.Fatalf("call %d: expected Allow, got %v", i, err)
		}
	}
	if err := g.Allow(); err == nil {
		t.Fatal("expected the 4th call within the window to be denied")
	}
}

func TestQuotaGateDefaultsMaxPerHour(t *testing.T) {
	g := NewQuotaGate("secret", 0)
	if g.maxPerHour != 60 {
		t.Fatalf("expected default maxPerHour of 60, got %d", g.maxPerHour)
	}
}

func TestQuotaGateAPIKey(t *testing.T) {
	g := NewQuotaGate("secret", 5)
	if g.APIKey() != "secret" {
		t.Fatalf("APIKey() = %q, want %q", g.APIKey(), "secret")
	}
}
