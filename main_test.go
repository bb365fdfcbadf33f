package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/zalando/go-keyring"

	"github.com/fmuoria/interview-coach/internal/config"
	"github.com/fmuoria/interview-coach/internal/secrets"
	"github.com/fmuoria/interview-coach/internal/storage"
)

// execute runs the root command with args against an isolated config
// file and data dir.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) (configPath, dataDir string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "config.yml")
	dataDir = filepath.Join(dir, "data")
	t.Setenv("INTERVIEW_CONFIG", configPath)
	t.Setenv("INTERVIEW_DATA_DIR", dataDir)
	t.Setenv("GOOGLE_CLIENT_ID", "")
	return configPath, dataDir
}

func TestConfigInit(t *testing.T) {
	configPath, _ := isolate(t)

	out, err := execute(t, "", "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, configPath) {
		t.Errorf("output = %q, want the written path", out)
	}

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("written config should validate: %v", err)
	}

	if _, err := execute(t, "", "config", "init"); err == nil {
		t.Error("expected an error when the file exists")
	}
	if _, err := execute(t, "", "config", "init", "--force"); err != nil {
		t.Errorf("config init --force failed: %v", err)
	}
}

func TestGoogleSecretCommands(t *testing.T) {
	keyring.MockInit()
	isolate(t)

	if _, err := execute(t, "s3cret\n", "google-secret", "set"); err == nil {
		t.Error("expected an error without a client id")
	}

	if _, err := execute(t, "s3cret\n", "google-secret", "set", "--client-id", "client"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if got, err := secrets.GoogleClientSecret("client", ""); err != nil || got != "s3cret" {
		t.Errorf("stored secret = %q, %v", got, err)
	}

	// the client id falls back to the configured one
	t.Setenv("GOOGLE_CLIENT_ID", "client")
	if _, err := execute(t, "", "google-secret", "delete"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := secrets.GoogleClientSecret("client", ""); err == nil {
		t.Error("secret should be gone after delete")
	}

	if _, err := execute(t, "\n", "google-secret", "set", "--client-id", "client"); err == nil {
		t.Error("expected an error for an empty secret")
	}
}

func TestExportCommand(t *testing.T) {
	_, dataDir := isolate(t)
	out := filepath.Join(t.TempDir(), "results")

	if _, err := execute(t, "", "export", out); err == nil {
		t.Error("expected an error without a results database")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	db, err := storage.Open(filepath.Join(dataDir, "interview.db"))
	if err != nil {
		t.Fatal(err)
	}
	start := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	for _, rec := range []storage.InterviewRecord{
		{SessionID: "s-1", UserID: "7", FinalScore: 2, MaxScore: 4, Verdict: "Selected", StartedAt: start, FinishedAt: start.Add(time.Minute)},
		{SessionID: "s-2", UserID: "8", FinalScore: 0, MaxScore: 4, Verdict: "Needs Improvement", StartedAt: start, FinishedAt: start.Add(time.Minute)},
	} {
		if err := db.SaveInterview(context.Background(), rec); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	msg, err := execute(t, "", "export", out, "--user", "7")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(msg, "exported 1 interviews") {
		t.Errorf("output = %q", msg)
	}

	f, err := excelize.OpenFile(out + ".xlsx")
	if err != nil {
		t.Fatalf("OpenFile() failed: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Interviews")
	if err != nil {
		t.Fatal(err)
	}
	var found []string
	for _, row := range rows {
		if len(row) > 0 && strings.HasPrefix(row[0], "s-") {
			found = append(found, row[0])
		}
	}
	if len(found) != 1 || found[0] != "s-1" {
		t.Errorf("exported sessions = %v, want [s-1]", found)
	}
}
