package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Dictionary.Source != "dir" {
		t.Errorf("Dictionary.Source = %q, want dir", cfg.Dictionary.Source)
	}
	if cfg.Kafka.Topics.DocumentAnnotate != "document-annotate" {
		t.Errorf("DocumentAnnotate topic = %q", cfg.Kafka.Topics.DocumentAnnotate)
	}
	if cfg.Annotator.MaxTextBytes != 1<<20 {
		t.Errorf("MaxTextBytes = %d, want %d", cfg.Annotator.MaxTextBytes, 1<<20)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: 9999\ndictionary:\n  source: postgres\n  table: custom_terms\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Dictionary.Source != "postgres" || cfg.Dictionary.Table != "custom_terms" {
		t.Errorf("Dictionary = %+v", cfg.Dictionary)
	}
	// Unset keys keep their defaults.
	if cfg.Server.RPCPort != 9000 {
		t.Errorf("Server.RPCPort = %d, want default 9000", cfg.Server.RPCPort)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AP_SERVER_PORT", "7070")
	t.Setenv("AP_DICTIONARY_DIR", "/srv/dictionaries")
	t.Setenv("AP_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Dictionary.Dir != "/srv/dictionaries" {
		t.Errorf("Dictionary.Dir = %q", cfg.Dictionary.Dir)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Kafka.Brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load accepted a missing config file")
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable",
	}
	want := "host=db port=5433 user=u password=p dbname=d sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
