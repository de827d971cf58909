package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(map[string]any{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AETitle != "PACSD" {
		t.Errorf("AETitle = %q, want PACSD", cfg.AETitle)
	}
	if cfg.ListenPort != 11112 {
		t.Errorf("ListenPort = %d, want 11112", cfg.ListenPort)
	}
	if cfg.MaxConcurrentQueries != 4 {
		t.Errorf("MaxConcurrentQueries = %d, want 4", cfg.MaxConcurrentQueries)
	}
}

func TestLoadOverridesDefaultsAndParsesDuration(t *testing.T) {
	cfg, err := Load(map[string]any{
		"ae_title":               "MYPACS",
		"listen_port":            4242,
		"query_timeout":          "5s",
		"max_concurrent_queries": 8,
		"move_destinations":      map[string]any{"REMOTE": "10.0.0.5:104"},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AETitle != "MYPACS" {
		t.Errorf("AETitle = %q, want MYPACS", cfg.AETitle)
	}
	if cfg.ListenPort != 4242 {
		t.Errorf("ListenPort = %d, want 4242", cfg.ListenPort)
	}
	if cfg.QueryTimeout != 5*time.Second {
		t.Errorf("QueryTimeout = %s, want 5s", cfg.QueryTimeout)
	}
	if cfg.MoveDestinations["REMOTE"] != "10.0.0.5:104" {
		t.Errorf("MoveDestinations[REMOTE] = %q, want 10.0.0.5:104", cfg.MoveDestinations["REMOTE"])
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	_, err := Load(map[string]any{"listen_port": 99999})
	if err == nil {
		t.Fatalf("expected an error for an out-of-range port")
	}
}
