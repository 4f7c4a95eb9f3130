package config

import (
	"strings"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Database.Driver != "memory" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Embedding.Provider != "hashing" || cfg.Embedding.Dimensions != 256 {
		t.Errorf("embedding defaults = %+v", cfg.Embedding)
	}
	if cfg.Index.ChunkSize != 1500 || cfg.Index.ChunkOverlap != 200 {
		t.Errorf("index defaults = %+v", cfg.Index)
	}
	if cfg.Query.TopK != 5 || cfg.Query.ConfidenceFloor != 0.25 || cfg.Query.SnippetChars != 240 {
		t.Errorf("query defaults = %+v", cfg.Query)
	}
	if cfg.Storage.KeyPrefix != "specdex:" {
		t.Errorf("key prefix = %q", cfg.Storage.KeyPrefix)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var cfg Config
		cfg.HTTP.Port = 8080
		cfg.ApplyDefaults()
		return cfg
	}

	cfg := valid()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg = valid()
	cfg.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("port 0 accepted")
	}

	cfg = valid()
	cfg.Database.Driver = "redis"
	if err := cfg.Validate(); err == nil {
		t.Error("redis without addrs accepted")
	}
	cfg.Database.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("redis with addrs rejected: %v", err)
	}

	cfg = valid()
	cfg.Database.Driver = "cassandra"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown driver accepted")
	}

	cfg = valid()
	cfg.Embedding.Provider = "openai"
	if err := cfg.Validate(); err == nil {
		t.Error("openai without model accepted")
	}

	cfg = valid()
	cfg.Query.ConfidenceFloor = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("confidence floor above 1 accepted")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SPECDEX_TEST_PORT", "9090")

	data := expandEnvVars([]byte("port: ${SPECDEX_TEST_PORT}\nlevel: ${SPECDEX_TEST_UNSET:-info}\n"))
	got := string(data)
	if !strings.Contains(got, "port: 9090") {
		t.Errorf("env var not substituted: %q", got)
	}
	if !strings.Contains(got, "level: info") {
		t.Errorf("default not applied: %q", got)
	}
}
