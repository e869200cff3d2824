package app

import (
	"testing"

	"github.com/rs/zerolog"

	"interview-evaluator-service/internal/config"
)

func testConfig() *config.Configuration {
	return &config.Configuration{
		Service:       config.ServiceConfig{Name: "interview-evaluator", Env: "test"},
		Observability: config.ObservabilityConfig{LogLevel: "warn", LogFormat: "json"},
	}
}

func TestNew_AppliesLogLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	a := New(testConfig())
	if a.Cfg == nil {
		t.Fatal("expected configuration to be kept")
	}
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Errorf("expected warn level, got %s", zerolog.GlobalLevel())
	}
}

func TestStart_RecordsStartupTime(t *testing.T) {
	a := New(testConfig())
	if a.Uptime() != 0 {
		t.Error("expected zero uptime before start")
	}
	if err := a.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.StartupTime.IsZero() {
		t.Error("expected startup time to be set")
	}
	a.Shutdown()
}
