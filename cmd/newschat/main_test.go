package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/priyanshu2307/Newschat/internal/config"
	"github.com/priyanshu2307/Newschat/internal/stub"
	"github.com/priyanshu2307/Newschat/internal/transcript"
)

var testArticles = []stub.Article{
	{Title: "Central bank raises interest rates", Content: "The central bank raised interest rates by a quarter point. Markets were calm."},
	{Title: "Storm hits the coast", Content: "A strong storm brought flooding to coastal towns."},
}

func startStub(t *testing.T, offline bool) string {
	t.Helper()
	srv, err := stub.NewServer(stub.Opts{Corpus: stub.NewCorpus(testArticles), Offline: offline})
	if err != nil {
		t.Fatalf("stub.NewServer: %v", err)
	}
	hs := httptest.NewServer(srv.Router())
	t.Cleanup(hs.Close)
	return hs.URL
}

// writeConfig writes a config pointing at baseURL with logs and the journal
// kept in a temp dir.
func writeConfig(t *testing.T, baseURL string, journal bool) (path, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "transcript.db")
	content := fmt.Sprintf(`base_url: %s
retry:
  max_attempts: 1
log:
  file: %s
transcript:
  enabled: %t
  path: %s
`, baseURL, filepath.Join(dir, "newschat.log"), journal, dbPath)
	path = filepath.Join(dir, "newschat.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, dbPath
}

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// ---------------------------------------------------------------------------
// root / version
// ---------------------------------------------------------------------------

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, "", "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "newschat dev") {
		t.Errorf("expected output to contain 'newschat dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.0.0", "abc123", "2026-01-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	out, err := runCmd(t, "", "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	for _, want := range []string{"newschat 1.0.0", "commit: abc123", "built: 2026-01-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got: %s", want, out)
		}
	}
}

func TestRootCmdHelp(t *testing.T) {
	out, err := runCmd(t, "", "--help")
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}
	for _, sub := range []string{"chat", "status", "serve", "transcript", "version"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help output to list %q, got: %s", sub, out)
		}
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Stub.Port != 8000 {
		t.Errorf("Stub.Port = %d, want 8000", cfg.Stub.Port)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("base_url: ftp://x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected error for invalid base_url")
	}
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

func TestStatusCmd_Online(t *testing.T) {
	cfgPath, _ := writeConfig(t, startStub(t, false), false)
	out, err := runCmd(t, "", "status", "--config", cfgPath)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "Status:   online") {
		t.Errorf("expected online status, got: %s", out)
	}
	if !strings.Contains(out, "Articles: 2") {
		t.Errorf("expected article count, got: %s", out)
	}
}

func TestStatusCmd_Offline(t *testing.T) {
	cfgPath, _ := writeConfig(t, startStub(t, true), false)
	out, err := runCmd(t, "", "status", "--config", cfgPath)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "Status:   offline") {
		t.Errorf("expected offline status, got: %s", out)
	}
}

func TestStatusCmd_Unreachable(t *testing.T) {
	hs := httptest.NewServer(nil)
	url := hs.URL
	hs.Close()

	cfgPath, _ := writeConfig(t, url, false)
	out, err := runCmd(t, "", "status", "--config", cfgPath)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "Status:   offline") {
		t.Errorf("expected offline status, got: %s", out)
	}
}

// ---------------------------------------------------------------------------
// chat
// ---------------------------------------------------------------------------

func TestChatCmd_Offline(t *testing.T) {
	cfgPath, _ := writeConfig(t, startStub(t, true), false)
	out, err := runCmd(t, "hello\n", "chat", "--config", cfgPath, "--plain")
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if !strings.Contains(out, "The news service is offline.") {
		t.Errorf("expected offline message, got: %s", out)
	}
	if strings.Contains(out, "You: hello") {
		t.Errorf("offline chat accepted input: %s", out)
	}
}

func TestChatCmd_RoundTripIsJournaled(t *testing.T) {
	cfgPath, dbPath := writeConfig(t, startStub(t, false), true)

	out, err := runCmd(t, "central bank rates\n", "chat", "--config", cfgPath, "--plain", "--no-color")
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	for _, want := range []string{"Status: Online", "Welcome to NewsChat!", "You: central bank rates", "Central bank raises interest rates"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected chat output to contain %q, got: %s", want, out)
		}
	}

	db, err := transcript.Open(config.TranscriptConfig{Driver: "sqlite", Path: dbPath})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	j, err := transcript.NewJournal(transcript.JournalOpts{DB: db})
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	sessions, err := j.Sessions(context.Background(), 0)
	if sqlDB, dbErr := db.DB(); dbErr == nil {
		sqlDB.Close()
	}
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("len(sessions) = %d, want 1", len(sessions))
	}
	if sessions[0].Entries != 2 {
		t.Errorf("Entries = %d, want 2", sessions[0].Entries)
	}
	id := sessions[0].SessionID

	out, err = runCmd(t, "", "transcript", "list", "--config", cfgPath)
	if err != nil {
		t.Fatalf("transcript list failed: %v", err)
	}
	if !strings.Contains(out, id) || !strings.Contains(out, "SESSION") {
		t.Errorf("expected list to contain %s, got: %s", id, out)
	}

	out, err = runCmd(t, "", "transcript", "show", id, "--config", cfgPath)
	if err != nil {
		t.Fatalf("transcript show failed: %v", err)
	}
	if !strings.Contains(out, "[1]") || !strings.Contains(out, "user\ncentral bank rates") {
		t.Errorf("expected user entry first, got: %s", out)
	}
	if !strings.Contains(out, "[2]") || !strings.Contains(out, "assistant") {
		t.Errorf("expected assistant entry second, got: %s", out)
	}
}

// ---------------------------------------------------------------------------
// transcript
// ---------------------------------------------------------------------------

func TestTranscriptListCmd_Empty(t *testing.T) {
	cfgPath, _ := writeConfig(t, "http://localhost:8000", true)
	out, err := runCmd(t, "", "transcript", "list", "--config", cfgPath)
	if err != nil {
		t.Fatalf("transcript list failed: %v", err)
	}
	if !strings.Contains(out, "No sessions recorded.") {
		t.Errorf("expected empty message, got: %s", out)
	}
}

func TestTranscriptShowCmd_UnknownSession(t *testing.T) {
	cfgPath, _ := writeConfig(t, "http://localhost:8000", true)
	if _, err := runCmd(t, "", "transcript", "show", "nope", "--config", cfgPath); err == nil {
		t.Fatal("expected error for unknown session")
	}
}

func TestTranscriptShowCmd_RequiresID(t *testing.T) {
	if _, err := runCmd(t, "", "transcript", "show"); err == nil {
		t.Fatal("expected error without a session id")
	}
}

func TestRendererOpts_NotATerminal(t *testing.T) {
	opts := rendererOpts(config.UIConfig{Width: 100, PlainText: true}, new(bytes.Buffer))
	if !opts.NoColor {
		t.Error("NoColor = false, want true for a non-terminal writer")
	}
	if !opts.PlainText || opts.Width != 100 {
		t.Errorf("opts = %+v, want PlainText and Width 100 kept", opts)
	}
}
