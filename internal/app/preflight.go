package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"lssrv/internal/config"
	"lssrv/internal/transport"
)

type doctorCheck struct {
	name   string
	detail string
	err    error
}

type doctorDeps struct {
	lookPath          func(string) (string, error)
	stat              func(string) (os.FileInfo, error)
	buildTransport    func(config.Config) (transport.Transport, error)
	checkAvailability func(context.Context, transport.Transport, time.Duration) error
	checkLedger       func(context.Context, transport.Transport, string, time.Duration) error
}

func defaultDoctorDeps() doctorDeps {
	return doctorDeps{
		lookPath:          exec.LookPath,
		stat:              os.Stat,
		buildTransport:    buildTransport,
		checkAvailability: checkSchedulerAvailability,
		checkLedger:       checkLedgerReadable,
	}
}

func RunDoctor(cfg config.Config, out io.Writer) error {
	return runDoctorWithDeps(cfg, out, defaultDoctorDeps())
}

func runDoctorWithDeps(cfg config.Config, out io.Writer, deps doctorDeps) error {
	target := "local"
	if cfg.Mode == config.ModeRemote {
		target = cfg.Target
	}

	fmt.Fprintln(out, "lssrv doctor")
	fmt.Fprintf(out, "mode: %s\n", cfg.Mode)
	fmt.Fprintf(out, "target: %s\n", target)
	fmt.Fprintf(out, "state file: %s\n\n", cfg.StateFile)

	checks := buildDoctorChecks(cfg, deps)
	failed := false
	for _, check := range checks {
		if check.err != nil {
			failed = true
			fmt.Fprintf(out, "[fail] %s: %v\n", check.name, check.err)
			continue
		}
		fmt.Fprintf(out, "[ok] %s: %s\n", check.name, check.detail)
	}

	if failed {
		fmt.Fprintln(out, "\ndoctor result: FAIL")
		return errors.New("doctor checks failed")
	}

	fmt.Fprintln(out, "\ndoctor result: PASS")
	return nil
}

func buildDoctorChecks(cfg config.Config, deps doctorDeps) []doctorCheck {
	checks := make([]doctorCheck, 0, 8)

	appendToolCheck := func(scope string, tool string) {
		if path, err := deps.lookPath(tool); err != nil {
			checks = append(checks, doctorCheck{
				name: scope + " tool " + tool,
				err:  fmt.Errorf("not found in PATH"),
			})
		} else {
			checks = append(checks, doctorCheck{
				name:   scope + " tool " + tool,
				detail: path,
			})
		}
	}

	appendFileCheck := func(name string, path string) {
		if strings.TrimSpace(path) == "" {
			return
		}
		resolved := resolveHomePath(path)
		info, err := deps.stat(resolved)
		if err != nil {
			checks = append(checks, doctorCheck{
				name: name,
				err:  fmt.Errorf("path is not readable: %s", resolved),
			})
			return
		}
		if info.IsDir() {
			checks = append(checks, doctorCheck{
				name: name,
				err:  fmt.Errorf("expected a file but found a directory: %s", resolved),
			})
			return
		}
		checks = append(checks, doctorCheck{
			name:   name,
			detail: resolved,
		})
	}

	if cfg.Mode == config.ModeLocal {
		for _, tool := range []string{"bash", "scontrol"} {
			appendToolCheck("local", tool)
		}
	} else {
		appendToolCheck("local", "ssh")
		appendFileCheck("ssh config file", cfg.SSHConfig)
		appendFileCheck("ssh identity file", cfg.IdentityFile)
	}

	tr, err := deps.buildTransport(cfg)
	if err != nil {
		checks = append(checks, doctorCheck{
			name: "transport initialization",
			err:  err,
		})
		return checks
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CommandTimeout)
	defer cancel()

	if err := deps.checkAvailability(ctx, tr, cfg.CommandTimeout); err != nil {
		checks = append(checks, doctorCheck{
			name: "scheduler preflight",
			err:  err,
		})
	} else {
		checks = append(checks, doctorCheck{
			name:   "scheduler preflight",
			detail: "scontrol is reachable on " + tr.Describe(),
		})
	}

	if err := deps.checkLedger(ctx, tr, cfg.StateFile, cfg.CommandTimeout); err != nil {
		checks = append(checks, doctorCheck{
			name: "squeue state file",
			err:  err,
		})
	} else {
		checks = append(checks, doctorCheck{
			name:   "squeue state file",
			detail: cfg.StateFile + " is readable on " + tr.Describe(),
		})
	}

	return checks
}

// checkLedgerReadable probes the snapshot where the collector will read it,
// which in remote mode is the cluster side of the transport.
func checkLedgerReadable(ctx context.Context, tr transport.Transport, path string, timeout time.Duration) error {
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := "test -r " + transport.ShellQuote(path)
	if _, err := tr.Run(checkCtx, cmd); err != nil {
		return fmt.Errorf("not readable on %s (is the refresh cron job running?)", tr.Describe())
	}
	return nil
}

func RunDryRun(cfg config.Config, out io.Writer) error {
	target := "local"
	if cfg.Mode == config.ModeRemote {
		target = cfg.Target
	}

	fmt.Fprintln(out, "lssrv dry-run")
	fmt.Fprintf(out, "mode: %s\n", cfg.Mode)
	fmt.Fprintf(out, "target: %s\n", target)
	fmt.Fprintf(out, "config: %s\n", cfg.ConfigPath)
	fmt.Fprintf(out, "state file: %s\n", cfg.StateFile)
	fmt.Fprintf(out, "hidden partitions: %s\n", formatHideList(cfg.HidePartitions))
	fmt.Fprintf(out, "connect-timeout: %s\n", cfg.ConnectTimeout)
	fmt.Fprintf(out, "command-timeout: %s\n", cfg.CommandTimeout)
	fmt.Fprintf(out, "plain: %t\n", cfg.Plain)
	fmt.Fprintf(out, "no-color: %t\n\n", cfg.NoColor)

	fmt.Fprintln(out, "planned sequence:")
	fmt.Fprintln(out, "1. Parse flags, merge the configuration file, and build the transport.")
	if cfg.Mode == config.ModeLocal {
		fmt.Fprintln(out, "2. Check that bash and scontrol are available locally.")
	} else {
		fmt.Fprintln(out, "2. Connect over OpenSSH to the target and check scontrol remotely.")
	}
	fmt.Fprintln(out, "3. Run scontrol show partition -o and read the cached squeue state file.")
	fmt.Fprintln(out, "4. Fold job counts into the partition catalog and render the table.")
	fmt.Fprintln(out, "5. Exit without mutating any scheduler state.")
	fmt.Fprintln(out, "\ndry-run only: no local or remote commands were executed.")

	return nil
}

func formatHideList(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

func resolveHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil && strings.TrimSpace(home) != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return path
}
