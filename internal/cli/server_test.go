package cli

import (
	"testing"

	"live-quiz-service/internal/config"
)

func TestResolvePort(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = "9000"

	t.Setenv("PORT", "")
	if got := resolvePort("", cfg); got != "9000" {
		t.Fatalf("expected config port, got %s", got)
	}
	t.Setenv("PORT", "7000")
	if got := resolvePort("", cfg); got != "7000" {
		t.Fatalf("expected env port, got %s", got)
	}
	if got := resolvePort("6000", cfg); got != "6000" {
		t.Fatalf("expected flag port, got %s", got)
	}
	cfg.Server.Port = ""
	t.Setenv("PORT", "")
	if got := resolvePort("", cfg); got != "8080" {
		t.Fatalf("expected fallback port, got %s", got)
	}
}
