package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseArgsLocalDefault(t *testing.T) {
	cfg, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Mode != ModeLocal {
		t.Fatalf("expected local mode, got %s", cfg.Mode)
	}
	if cfg.Command != CommandReport {
		t.Fatalf("expected report command, got %s", cfg.Command)
	}
	if cfg.ConfigPath != DefaultConfigPath {
		t.Fatalf("unexpected config path: %q", cfg.ConfigPath)
	}
}

func TestParseArgsRemoteTarget(t *testing.T) {
	cfg, err := ParseArgs([]string{"user@cluster.example.org"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Mode != ModeRemote {
		t.Fatalf("expected remote mode, got %s", cfg.Mode)
	}
	if cfg.Target != "user@cluster.example.org" {
		t.Fatalf("unexpected target: %q", cfg.Target)
	}
}

func TestParseArgsSubcommands(t *testing.T) {
	cfg, err := ParseArgs([]string{"doctor", "cluster_alias"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Command != CommandDoctor || cfg.Target != "cluster_alias" {
		t.Fatalf("unexpected command/target: %s/%s", cfg.Command, cfg.Target)
	}

	cfg, err = ParseArgs([]string{"dry-run"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Command != CommandDryRun {
		t.Fatalf("unexpected command: %s", cfg.Command)
	}
}

func TestParseArgsHideFlag(t *testing.T) {
	cfg, err := ParseArgs([]string{"--hide", "debug, interactive"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	ignore := cfg.IgnoreSet()
	if !ignore["debug"] || !ignore["interactive"] {
		t.Fatalf("unexpected ignore set: %v", ignore)
	}
}

func TestParseArgsSSHFlagsWithoutTarget(t *testing.T) {
	if _, err := ParseArgs([]string{"--ssh-config", "/tmp/x"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseArgsRejectExtraPositional(t *testing.T) {
	if _, err := ParseArgs([]string{"a", "b"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseArgsRejectsBadLogLevel(t *testing.T) {
	if _, err := ParseArgs([]string{"--log-level", "verbose"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseArgsHelpRequested(t *testing.T) {
	_, err := ParseArgs([]string{"--help"})
	if !errors.Is(err, ErrHelpRequested) {
		t.Fatalf("expected ErrHelpRequested, got %v", err)
	}
}

func TestApplyFileDefaultsWhenMissing(t *testing.T) {
	cfg, err := ParseArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.conf")})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	cfg, err = ApplyFile(cfg)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.StateFile != DefaultStateFile {
		t.Fatalf("expected default state file, got %q", cfg.StateFile)
	}
	if len(cfg.HidePartitions) != 0 {
		t.Fatalf("expected empty hide list, got %v", cfg.HidePartitions)
	}
}

func TestApplyFileReadsSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lssrv.conf")
	content := "[General]\nsqueue_state_file_path = /tmp/squeue.state\n\n[Partitions]\npartitions_to_hide = debug interactive\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := ParseArgs([]string{"--config", path, "--hide", "gpu"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	cfg, err = ApplyFile(cfg)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.StateFile != "/tmp/squeue.state" {
		t.Fatalf("unexpected state file: %q", cfg.StateFile)
	}
	ignore := cfg.IgnoreSet()
	for _, name := range []string{"debug", "interactive", "gpu"} {
		if !ignore[name] {
			t.Fatalf("expected %s in ignore set, got %v", name, ignore)
		}
	}
}

func TestApplyFileFlagOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lssrv.conf")
	if err := os.WriteFile(path, []byte("[General]\nsqueue_state_file_path = /from/file\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := ParseArgs([]string{"--config", path, "--state-file", "/from/flag"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	cfg, err = ApplyFile(cfg)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.StateFile != "/from/flag" {
		t.Fatalf("expected flag to win, got %q", cfg.StateFile)
	}
}

func TestHelpTextIncludesUsageAndExamples(t *testing.T) {
	text := HelpText()
	required := []string{
		"Usage:",
		"lssrv [flags] [ssh-target]",
		"Behavior:",
		"Examples:",
		"--state-file",
		"--hide",
	}
	for _, item := range required {
		if !strings.Contains(text, item) {
			t.Fatalf("help text missing %q", item)
		}
	}
}
