package color

import "testing"

func TestNewNoColorForcesNoop(t *testing.T) {
	c := New(true)
	if got := c.OK("status"); got != "status" {
		t.Fatalf("OK() = %q, want unchanged string from no-op colorizer", got)
	}
}

func TestNoopColorizerPassesThrough(t *testing.T) {
	c := noopColorizer{}
	if c.Warn("w") != "w" || c.Fail("f") != "f" {
		t.Fatal("noopColorizer must return input unchanged")
	}
}
