package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/shard/internal/config"
	"github.com/hpungsan/shard/internal/db"
	"github.com/hpungsan/shard/internal/project"
	"github.com/hpungsan/shard/internal/remote"
)

// setupEnv creates an appEnv over a temporary base directory.
func setupEnv(t *testing.T) *appEnv {
	t.Helper()

	baseDir := t.TempDir()
	database, err := db.Init(baseDir)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return &appEnv{
		database: database,
		cfg:      config.DefaultConfig(),
		baseDir:  baseDir,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// runApp runs a CLI invocation with captured stdout and optional piped stdin.
func runApp(t *testing.T, env *appEnv, stdin string, args ...string) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	oldStdin := os.Stdin
	if stdin != "" {
		stdinR, stdinW, _ := os.Pipe()
		os.Stdin = stdinR
		go func() {
			_, _ = stdinW.WriteString(stdin)
			stdinW.Close()
		}()
	}

	err := newCLIApp(env).Run(append([]string{"shard"}, args...))

	os.Stdin = oldStdin
	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

// parseJSON unmarshals CLI output into a generic map.
func parseJSON(t *testing.T, out string) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	return payload
}

func TestCLINewAndList(t *testing.T) {
	env := setupEnv(t)

	out, err := runApp(t, env, "", "new")
	if err != nil {
		t.Fatalf("new command failed: %v", err)
	}
	created := parseJSON(t, out)["project"].(map[string]any)
	if created["id"] == "" {
		t.Error("expected non-empty project id")
	}

	out, err = runApp(t, env, "", "list")
	if err != nil {
		t.Fatalf("list command failed: %v", err)
	}
	payload := parseJSON(t, out)
	if payload["total"].(float64) != 1 {
		t.Errorf("total = %v, want 1", payload["total"])
	}
	first := payload["projects"].([]any)[0].(map[string]any)
	if first["id"] != created["id"] {
		t.Errorf("listed id = %v, want %v", first["id"], created["id"])
	}
	if current, _ := first["current"].(bool); !current {
		t.Error("new project not flagged current")
	}
}

func TestCLIEdit(t *testing.T) {
	env := setupEnv(t)

	out, err := runApp(t, env, "Meeting notes for the quarterly planning session", "edit")
	if err != nil {
		t.Fatalf("edit command failed: %v", err)
	}
	payload := parseJSON(t, out)
	proj := payload["project"].(map[string]any)

	if proj["text"] != "Meeting notes for the quarterly planning session" {
		t.Errorf("text = %q", proj["text"])
	}
	// First substantial text edit auto-titles the project.
	if proj["title"] != "Meeting notes for the qua..." {
		t.Errorf("title = %q", proj["title"])
	}
	if words := payload["words"].(float64); words != 7 {
		t.Errorf("words = %v, want 7", words)
	}
}

func TestCLISet(t *testing.T) {
	env := setupEnv(t)

	// No projects yet.
	if _, err := runApp(t, env, "", "set", "--split-length", "100"); err == nil {
		t.Error("expected error when no projects exist")
	}

	if _, err := runApp(t, env, "", "new"); err != nil {
		t.Fatalf("new command failed: %v", err)
	}

	// No flags.
	if _, err := runApp(t, env, "", "set"); err == nil {
		t.Error("expected error when nothing to set")
	}

	out, err := runApp(t, env, "", "set", "--split-length", "3", "--prefix", "[{i}] ")
	if err != nil {
		t.Fatalf("set command failed: %v", err)
	}
	settings := parseJSON(t, out)["project"].(map[string]any)["settings"].(map[string]any)
	if settings["split_length"].(float64) != 10 {
		t.Errorf("split_length = %v, want clamped to 10", settings["split_length"])
	}
	if settings["prefix"] != "[{i}] " {
		t.Errorf("prefix = %q", settings["prefix"])
	}
}

func TestCLIRename(t *testing.T) {
	env := setupEnv(t)

	out, err := runApp(t, env, "", "new")
	if err != nil {
		t.Fatalf("new command failed: %v", err)
	}
	id := parseJSON(t, out)["project"].(map[string]any)["id"].(string)

	// Single argument renames the current project.
	out, err = runApp(t, env, "", "rename", "My Draft")
	if err != nil {
		t.Fatalf("rename command failed: %v", err)
	}
	payload := parseJSON(t, out)
	if payload["id"] != id || payload["title"] != "My Draft" {
		t.Errorf("rename result = %v", payload)
	}

	// Explicit id form.
	out, err = runApp(t, env, "", "rename", id, "Final Draft")
	if err != nil {
		t.Fatalf("rename command failed: %v", err)
	}
	if parseJSON(t, out)["title"] != "Final Draft" {
		t.Errorf("rename result = %v", out)
	}

	if _, err := runApp(t, env, "", "rename", "no-such-id", "x"); err == nil {
		t.Error("expected error for unknown id")
	}
}

func TestCLIDelete(t *testing.T) {
	env := setupEnv(t)

	out, err := runApp(t, env, "", "new")
	if err != nil {
		t.Fatalf("new command failed: %v", err)
	}
	id := parseJSON(t, out)["project"].(map[string]any)["id"].(string)

	if _, err := runApp(t, env, "", "delete"); err == nil {
		t.Error("expected error for missing id")
	}
	if _, err := runApp(t, env, "", "delete", "no-such-id"); err == nil {
		t.Error("expected error for unknown id")
	}

	out, err = runApp(t, env, "", "delete", id)
	if err != nil {
		t.Fatalf("delete command failed: %v", err)
	}
	payload := parseJSON(t, out)
	if payload["deleted"] != id {
		t.Errorf("deleted = %v", payload["deleted"])
	}
	// The store never ends up without a current project.
	if newID, _ := payload["current_id"].(string); newID == "" || newID == id {
		t.Errorf("current_id = %q after deleting the only project", newID)
	}
}

func TestCLISplit(t *testing.T) {
	env := setupEnv(t)

	if _, err := runApp(t, env, "The quick brown fox jumps", "edit"); err != nil {
		t.Fatalf("edit command failed: %v", err)
	}
	if _, err := runApp(t, env, "", "set", "--split-length", "10"); err != nil {
		t.Fatalf("set command failed: %v", err)
	}

	out, err := runApp(t, env, "", "split")
	if err != nil {
		t.Fatalf("split command failed: %v", err)
	}
	payload := parseJSON(t, out)
	if payload["total"].(float64) != 3 {
		t.Errorf("total = %v, want 3", payload["total"])
	}
	pieces := payload["pieces"].([]any)
	if first := pieces[0].(map[string]any); first["text"] != "The quick " {
		t.Errorf("first piece = %q", first["text"])
	}

	out, err = runApp(t, env, "", "split", "--text")
	if err != nil {
		t.Fatalf("split --text failed: %v", err)
	}
	if !strings.Contains(out, "The quick \n") {
		t.Errorf("raw output = %q", out)
	}
}

func TestCLIExport(t *testing.T) {
	env := setupEnv(t)

	if _, err := runApp(t, env, "# Heading\n\nBody text here.", "edit"); err != nil {
		t.Fatalf("edit command failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.html")
	out, err := runApp(t, env, "", "export", "--format", "html", "--path", path)
	if err != nil {
		t.Fatalf("export command failed: %v", err)
	}
	payload := parseJSON(t, out)
	if payload["path"] != path {
		t.Errorf("path = %v", payload["path"])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
	if !strings.Contains(string(data), "<h1>Heading</h1>") {
		t.Errorf("exported HTML = %q", data)
	}

	if _, err := runApp(t, env, "", "export", "--format", "pdf"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestCLIUserFlagSelectsNamespace(t *testing.T) {
	env := setupEnv(t)

	if _, err := runApp(t, env, "guest text", "edit"); err != nil {
		t.Fatalf("edit command failed: %v", err)
	}

	// A different identity sees its own empty namespace.
	out, err := runApp(t, env, "", "--user", "alice", "list")
	if err != nil {
		t.Fatalf("list command failed: %v", err)
	}
	if total := parseJSON(t, out)["total"].(float64); total != 0 {
		t.Errorf("alice's total = %v, want 0", total)
	}

	out, err = runApp(t, env, "", "list")
	if err != nil {
		t.Fatalf("list command failed: %v", err)
	}
	if total := parseJSON(t, out)["total"].(float64); total != 1 {
		t.Errorf("guest total = %v, want 1", total)
	}
}

func TestCLISync(t *testing.T) {
	env := setupEnv(t)

	// The remote store runs against its own database, pre-seeded for alice.
	serverDB, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init server db: %v", err)
	}
	defer serverDB.Close()
	seed := []project.Project{{ID: "r1", Title: "Remote Notes", Timestamp: 99, Text: "from remote"}}
	if err := db.SaveHistory(serverDB, "user:alice", seed); err != nil {
		t.Fatalf("failed to seed server db: %v", err)
	}
	srv := httptest.NewServer(remote.NewServer(serverDB, env.logger).Router(false, ""))
	defer srv.Close()
	env.cfg.RemoteURL = srv.URL

	// Sync without a session fails.
	if _, err := runApp(t, env, "", "sync"); err == nil {
		t.Error("expected error when not signed in")
	}

	if _, err := runApp(t, env, "", "login", "--user", "alice"); err != nil {
		t.Fatalf("login command failed: %v", err)
	}

	out, err := runApp(t, env, "", "sync")
	if err != nil {
		t.Fatalf("sync command failed: %v", err)
	}
	if added := parseJSON(t, out)["added"].(float64); added != 1 {
		t.Errorf("added = %v, want 1", added)
	}

	// The saved session routes list to alice's namespace.
	out, err = runApp(t, env, "", "list")
	if err != nil {
		t.Fatalf("list command failed: %v", err)
	}
	if !strings.Contains(out, "Remote Notes") {
		t.Errorf("merged project missing from list: %s", out)
	}

	// Re-sync adds nothing.
	out, err = runApp(t, env, "", "sync")
	if err != nil {
		t.Fatalf("sync command failed: %v", err)
	}
	if added := parseJSON(t, out)["added"].(float64); added != 0 {
		t.Errorf("added on re-sync = %v, want 0", added)
	}

	// Logout falls back to the guest namespace.
	if _, err := runApp(t, env, "", "logout"); err != nil {
		t.Fatalf("logout command failed: %v", err)
	}
	out, err = runApp(t, env, "", "list")
	if err != nil {
		t.Fatalf("list command failed: %v", err)
	}
	if strings.Contains(out, "Remote Notes") {
		t.Errorf("guest list sees alice's projects: %s", out)
	}
}

func TestIsCLIMode(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"no args", []string{"shard"}, false},
		{"known command", []string{"shard", "list"}, true},
		{"help flag", []string{"shard", "--help"}, true},
		{"version flag", []string{"shard", "-v"}, true},
		{"unknown arg", []string{"shard", "bogus"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			if got := isCLIMode(); got != tt.want {
				t.Errorf("isCLIMode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsHelpOrVersion(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"shard"}, false},
		{[]string{"shard", "help"}, true},
		{[]string{"shard", "--version"}, true},
		{[]string{"shard", "list"}, false},
	}
	for _, tt := range tests {
		os.Args = tt.args
		if got := isHelpOrVersion(); got != tt.want {
			t.Errorf("isHelpOrVersion(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
