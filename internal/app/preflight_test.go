package app

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"lssrv/internal/config"
	"lssrv/internal/transport"
)

func passingDoctorDeps() doctorDeps {
	return doctorDeps{
		lookPath: func(name string) (string, error) {
			return "/usr/bin/" + name, nil
		},
		stat: os.Stat,
		buildTransport: func(config.Config) (transport.Transport, error) {
			return fakeTransport{}, nil
		},
		checkAvailability: func(context.Context, transport.Transport, time.Duration) error {
			return nil
		},
		checkLedger: func(context.Context, transport.Transport, string, time.Duration) error {
			return nil
		},
	}
}

func TestRunDoctorWithDepsLocalPass(t *testing.T) {
	cfg := config.Config{
		Mode:           config.ModeLocal,
		StateFile:      "/var/cache/lssrv/squeue.state",
		CommandTimeout: 2 * time.Second,
	}

	var out strings.Builder
	if err := runDoctorWithDeps(cfg, &out, passingDoctorDeps()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	text := out.String()
	required := []string{
		"lssrv doctor",
		"[ok] local tool bash",
		"[ok] local tool scontrol",
		"[ok] scheduler preflight",
		"[ok] squeue state file",
		"doctor result: PASS",
	}
	for _, item := range required {
		if !strings.Contains(text, item) {
			t.Fatalf("doctor output missing %q:\n%s", item, text)
		}
	}
}

func TestRunDoctorWithDepsRemoteFailure(t *testing.T) {
	cfg := config.Config{
		Mode:           config.ModeRemote,
		Target:         "cluster_alias",
		StateFile:      "/var/cache/lssrv/squeue.state",
		CommandTimeout: 2 * time.Second,
	}

	deps := passingDoctorDeps()
	deps.lookPath = func(name string) (string, error) {
		if name == "ssh" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + name, nil
	}
	deps.checkAvailability = func(context.Context, transport.Transport, time.Duration) error {
		return errors.New("remote check failed")
	}

	var out strings.Builder
	if err := runDoctorWithDeps(cfg, &out, deps); err == nil {
		t.Fatalf("expected failure")
	}

	text := out.String()
	required := []string{
		"[fail] local tool ssh",
		"[fail] scheduler preflight",
		"doctor result: FAIL",
	}
	for _, item := range required {
		if !strings.Contains(text, item) {
			t.Fatalf("doctor output missing %q:\n%s", item, text)
		}
	}
}

func TestRunDoctorReportsUnreadableStateFile(t *testing.T) {
	cfg := config.Config{
		Mode:           config.ModeLocal,
		StateFile:      "/var/cache/lssrv/squeue.state",
		CommandTimeout: 2 * time.Second,
	}

	deps := passingDoctorDeps()
	deps.checkLedger = func(context.Context, transport.Transport, string, time.Duration) error {
		return errors.New("not readable on local")
	}

	var out strings.Builder
	if err := runDoctorWithDeps(cfg, &out, deps); err == nil {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(out.String(), "[fail] squeue state file") {
		t.Fatalf("expected state file failure in output:\n%s", out.String())
	}
}

func TestCheckLedgerReadable(t *testing.T) {
	if err := checkLedgerReadable(context.Background(), fakeTransport{}, "/tmp/squeue.state", time.Second); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	failing := fakeTransport{err: errors.New("exit 1")}
	if err := checkLedgerReadable(context.Background(), failing, "/tmp/squeue.state", time.Second); err == nil {
		t.Fatalf("expected error for unreadable state file")
	}
}

func TestRunDryRunLocal(t *testing.T) {
	cfg := config.Config{
		Command:        config.CommandDryRun,
		Mode:           config.ModeLocal,
		ConfigPath:     config.DefaultConfigPath,
		StateFile:      config.DefaultStateFile,
		HidePartitions: []string{"debug"},
		ConnectTimeout: 10 * time.Second,
		CommandTimeout: 15 * time.Second,
	}

	var out strings.Builder
	if err := RunDryRun(cfg, &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	text := out.String()
	required := []string{
		"mode: local",
		"state file: /var/cache/lssrv/squeue.state",
		"hidden partitions: debug",
		"Check that bash and scontrol are available locally.",
		"no local or remote commands were executed",
	}
	for _, item := range required {
		if !strings.Contains(text, item) {
			t.Fatalf("dry-run output missing %q:\n%s", item, text)
		}
	}
}

func TestRunDryRunRemote(t *testing.T) {
	cfg := config.Config{
		Mode:           config.ModeRemote,
		Target:         "cluster_alias",
		ConfigPath:     config.DefaultConfigPath,
		StateFile:      config.DefaultStateFile,
		ConnectTimeout: 10 * time.Second,
		CommandTimeout: 15 * time.Second,
	}

	var out strings.Builder
	if err := RunDryRun(cfg, &out); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	text := out.String()
	required := []string{
		"mode: remote",
		"target: cluster_alias",
		"hidden partitions: (none)",
		"Connect over OpenSSH to the target and check scontrol remotely.",
	}
	for _, item := range required {
		if !strings.Contains(text, item) {
			t.Fatalf("dry-run output missing %q:\n%s", item, text)
		}
	}
}
