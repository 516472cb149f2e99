package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NoFile(t *testing.T) {
	t.Parallel()

	log := slog.Default()
	path, err := Load("/nonexistent/path/config.yaml", log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path, got %q", path)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
model:
  provider: openai
  temperature: 0.3
  router_model: gpt-4o-mini
  openai:
    model: gpt-4o
mongodb:
  uri: mongodb+srv://cluster0.example.net
  database: prewave
  collection: publications
  alerts_collection: alerts
vector:
  index: publications-vector-index
  field: embedding_vector
  num_candidates: 20
rag:
  context_chunks_limit: 3
logging:
  level: debug
  format: text
`)

	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	checks := map[string]string{
		"MODEL_PROVIDER":            "openai",
		"MODEL_TEMPERATURE":         "0.3",
		"ROUTER_MODEL":              "gpt-4o-mini",
		"OPENAI_MODEL":              "gpt-4o",
		"MONGODB_URI":               "mongodb+srv://cluster0.example.net",
		"MONGODB_DB":                "prewave",
		"MONGODB_COLLECTION":        "publications",
		"MONGODB_ALERTS_COLLECTION": "alerts",
		"MONGODB_VECTOR_INDEX":      "publications-vector-index",
		"MONGODB_VECTOR_FIELD":      "embedding_vector",
		"VECTOR_NUM_CANDIDATES":     "20",
		"RAG_CONTEXT_CHUNKS_LIMIT":  "3",
		"LOG_LEVEL":                 "debug",
		"LOG_FORMAT":                "text",
	}

	// Clear env vars that the YAML should set.
	for k := range checks {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	log := slog.Default()
	loaded, err := Load(cfgPath, log)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != cfgPath {
		t.Errorf("loaded path: got %q, want %q", loaded, cfgPath)
	}

	for k, want := range checks {
		if got := os.Getenv(k); got != want {
			t.Errorf("%s: got %q, want %q", k, got, want)
		}
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := []byte(`
mongodb:
  database: from-yaml
`)
	if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
		t.Fatal(err)
	}

	// Set env var BEFORE loading; it should NOT be overwritten.
	t.Setenv("MONGODB_DB", "from-env")

	log := slog.Default()
	if _, err := Load(cfgPath, log); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := os.Getenv("MONGODB_DB"); got != "from-env" {
		t.Errorf("MONGODB_DB: expected env override %q, got %q", "from-env", got)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(cfgPath, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	log := slog.Default()
	if _, err := Load(cfgPath, log); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("MONGODB_DB=dotenv-db\nMONGODB_URI=mongodb://dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MONGODB_URI", "mongodb://already-set")
	t.Setenv("MONGODB_DB", "")
	os.Unsetenv("MONGODB_DB")

	if err := LoadDotEnv(envPath); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("MONGODB_DB"); got != "dotenv-db" {
		t.Errorf("MONGODB_DB = %q, want %q", got, "dotenv-db")
	}
	if got := os.Getenv("MONGODB_URI"); got != "mongodb://already-set" {
		t.Errorf("MONGODB_URI = %q, want existing value preserved", got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	t.Parallel()

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}
}

func TestFloat32Str(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   float32
		want string
	}{
		{0.0, ""},
		{0.2, "0.2"},
		{0.3, "0.3"},
		{1.0, "1"},
	}
	for _, tt := range tests {
		if got := float32Str(tt.in); got != tt.want {
			t.Errorf("float32Str(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
