package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
)

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	testChdir(t, dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func TestLoadConfig_defaultsWithoutAnyFile(t *testing.T) {
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Skip("a system config exists at the default path")
	}
	testChdir(t, t.TempDir())
	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved = %q, want empty for built-in defaults", resolved)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestLoadConfig_explicitMissingFile(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit config")
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "kotae version dev") {
		t.Errorf("got %q", out)
	}
}

func TestAskCommand_requiresCollection(t *testing.T) {
	if _, err := runCLI(t, "ask", "what is a cell"); err == nil {
		t.Fatal("expected error without --collection")
	}
	if _, err := runCLI(t, "ask", "-c", "0", "what is a cell"); err == nil {
		t.Fatal("expected error for a non-positive collection")
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	if _, err := runCLI(t, "status", "-c", "1", "-o", "yaml"); err == nil {
		t.Fatal("expected error for unknown output format")
	}
}

func writeTestConfig(t *testing.T, llmURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/kotae.db"
  index_dir: "./data/indices"
llm:
  base_url: "` + llmURL + `"
  model: "test-model"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestAskStatusRemove(t *testing.T) {
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/chat/completions":
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"<think>hmm</think>Mitochondria produce ATP."}}]}`))
		case "/v1/models":
			_, _ = w.Write([]byte(`{"data":[{"id":"test-model"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer llm.Close()
	configPath := writeTestConfig(t, llm.URL)

	doc := filepath.Join(t.TempDir(), "biology.txt")
	if err := os.WriteFile(doc, []byte("The mitochondria is the powerhouse of the cell. It produces ATP through respiration."), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "--config", configPath, "ingest", "-c", "3", "-d", "7", doc)
	if err != nil {
		t.Fatalf("ingest: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Document 7 in collection 3: indexed") {
		t.Errorf("ingest output = %q", out)
	}

	out, err = runCLI(t, "--config", configPath, "-o", "json", "ask", "-c", "3", "what", "produces", "ATP")
	if err != nil {
		t.Fatalf("ask: %v\n%s", err, out)
	}
	var result models.QueryResult
	if err := json.Unmarshal([]byte(out[strings.Index(out, "{"):]), &result); err != nil {
		t.Fatalf("ask output is not JSON: %v\n%s", err, out)
	}
	if result.Answer != "Mitochondria produce ATP." {
		t.Errorf("answer = %q", result.Answer)
	}
	if len(result.Sources) == 0 || result.Sources[0].DocumentID != 7 {
		t.Errorf("sources = %+v", result.Sources)
	}

	out, err = runCLI(t, "--config", configPath, "status", "-c", "3")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	for _, sub := range []string{"Documents:            1", "LLM:                  connected", "test-model"} {
		if !strings.Contains(out, sub) {
			t.Errorf("status output missing %q:\n%s", sub, out)
		}
	}

	if out, err = runCLI(t, "--config", configPath, "remove", "-c", "3", "-d", "7"); err != nil {
		t.Fatalf("remove: %v\n%s", err, out)
	}
	out, err = runCLI(t, "--config", configPath, "ask", "-c", "3", "anything")
	if err != nil {
		t.Fatalf("ask after remove: %v", err)
	}
	if !strings.Contains(out, "No documents have been processed") {
		t.Errorf("ask after remove = %q", out)
	}
}

func TestRemoteClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/collections/5/answer":
			var req models.AnswerRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			_ = json.NewEncoder(w).Encode(models.QueryResult{Answer: "echo: " + req.Question, Sources: []models.Source{}})
		case "/api/v1/collections/5/status":
			_, _ = w.Write([]byte(`{"collectionId":5,"documentCount":2}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
		}
	}))
	defer srv.Close()

	out, err := runCLI(t, "ask", "--server", srv.URL+"/", "-c", "5", "hello", "there")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "echo: hello there") {
		t.Errorf("remote ask output = %q", out)
	}

	c := newRemoteClient(srv.URL)
	status, err := c.Status(testContext(t), 5)
	if err != nil {
		t.Fatal(err)
	}
	if status.DocumentCount != 2 {
		t.Errorf("status = %+v", status)
	}
	_, err = c.Status(testContext(t), 6)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected server error message, got %v", err)
	}
}

// testChdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func testChdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

// testContext mirrors testing.T.Context (Go 1.24+) for older toolchains.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
