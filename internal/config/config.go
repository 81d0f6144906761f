package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

type Command string

const (
	CommandReport Command = "report"
	CommandDoctor Command = "doctor"
	CommandDryRun Command = "dry-run"
)

const (
	DefaultConfigPath = "/etc/lssrv.conf"
	DefaultStateFile  = "/var/cache/lssrv/squeue.state"
)

type Config struct {
	Command        Command
	Mode           Mode
	Target         string
	ConfigPath     string
	StateFile      string
	HidePartitions []string
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
	SSHConfig      string
	IdentityFile   string
	Port           int
	NoColor        bool
	Plain          bool
	LogLevel       string
}

var ErrHelpRequested = errors.New("help requested")

func defaultConfig() Config {
	return Config{
		Command:        CommandReport,
		ConfigPath:     DefaultConfigPath,
		ConnectTimeout: 10 * time.Second,
		CommandTimeout: 15 * time.Second,
		LogLevel:       "error",
	}
}

func newFlagSet(cfg *Config, hide *string) *flag.FlagSet {
	fs := flag.NewFlagSet("lssrv", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "path to the lssrv configuration file")
	fs.StringVar(&cfg.StateFile, "state-file", "", "squeue state file path (overrides the configuration file)")
	fs.StringVar(hide, "hide", "", "extra partitions to hide, comma separated (added to the configuration file's list)")
	fs.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "max SSH connection setup time (remote mode)")
	fs.DurationVar(&cfg.CommandTimeout, "command-timeout", cfg.CommandTimeout, "max runtime for the scheduler query")
	fs.StringVar(&cfg.SSHConfig, "ssh-config", "", "alternate OpenSSH config path (remote mode)")
	fs.StringVar(&cfg.IdentityFile, "identity-file", "", "explicit SSH private key path passed to ssh -i (remote mode)")
	fs.IntVar(&cfg.Port, "port", 0, "override SSH port for remote target (remote mode)")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "disable ANSI color styling")
	fs.BoolVar(&cfg.Plain, "plain", false, "print a plain-text summary instead of the table")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, or error")

	return fs
}

func HelpText() string {
	cfg := defaultConfig()
	var hide string
	fs := newFlagSet(&cfg, &hide)

	var b strings.Builder
	b.WriteString("lssrv: list free resources across Slurm partitions\n\n")
	b.WriteString("Usage:\n")
	b.WriteString("  lssrv [flags] [ssh-target]\n")
	b.WriteString("  lssrv doctor [flags] [ssh-target]\n")
	b.WriteString("  lssrv dry-run [flags] [ssh-target]\n\n")
	b.WriteString("Commands:\n")
	b.WriteString("  report   Show the partition availability table (default).\n")
	b.WriteString("  doctor   Run non-mutating preflight checks and exit.\n")
	b.WriteString("  dry-run  Print planned execution order and exit.\n\n")
	b.WriteString("Positional target:\n")
	b.WriteString("  ssh-target is optional.\n")
	b.WriteString("  - omitted: query the local host (requires local scontrol)\n")
	b.WriteString("  - provided: query a cluster remotely through OpenSSH\n\n")
	b.WriteString("Behavior:\n")
	b.WriteString("  - one snapshot per invocation; lssrv never mutates Slurm state\n")
	b.WriteString("  - free CPUs are computed from the cached squeue state file,\n")
	b.WriteString("    refreshed out-of-band (see squeue_state_file_path in lssrv.conf)\n")
	b.WriteString("  - partitions listed in partitions_to_hide are excluded from\n")
	b.WriteString("    both counting and display\n\n")
	b.WriteString("Flags:\n")
	fs.SetOutput(&b)
	fs.PrintDefaults()
	b.WriteString("\nExamples:\n")
	b.WriteString("  lssrv\n")
	b.WriteString("  lssrv cluster_alias\n")
	b.WriteString("  lssrv --plain --hide debug,interactive\n")
	b.WriteString("  lssrv --state-file /tmp/squeue.state\n")
	b.WriteString("  lssrv doctor cluster_alias\n")

	return b.String()
}

func splitCommand(args []string) (Command, []string) {
	if len(args) == 0 {
		return CommandReport, args
	}

	switch strings.TrimSpace(args[0]) {
	case string(CommandDoctor):
		return CommandDoctor, args[1:]
	case string(CommandDryRun):
		return CommandDryRun, args[1:]
	case string(CommandReport):
		return CommandReport, args[1:]
	default:
		return CommandReport, args
	}
}

func ParseArgs(args []string) (Config, error) {
	cfg := defaultConfig()
	cfg.Command, args = splitCommand(args)

	var hide string
	fs := newFlagSet(&cfg, &hide)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Config{}, ErrHelpRequested
		}
		return Config{}, err
	}

	for _, name := range strings.Split(hide, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			cfg.HidePartitions = append(cfg.HidePartitions, name)
		}
	}

	pos := fs.Args()
	if len(pos) > 1 {
		return Config{}, fmt.Errorf("expected zero or one positional target, got %d", len(pos))
	}
	if len(pos) == 1 {
		cfg.Target = strings.TrimSpace(pos[0])
	}

	if cfg.Target == "" {
		cfg.Mode = ModeLocal
	} else {
		cfg.Mode = ModeRemote
	}

	if cfg.ConnectTimeout <= 0 {
		return Config{}, fmt.Errorf("--connect-timeout must be > 0")
	}
	if cfg.CommandTimeout <= 0 {
		return Config{}, fmt.Errorf("--command-timeout must be > 0")
	}
	if cfg.Port < 0 {
		return Config{}, fmt.Errorf("--port must be >= 0")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("--log-level must be debug, info, warn, or error")
	}

	if cfg.Mode == ModeLocal {
		if cfg.SSHConfig != "" || cfg.IdentityFile != "" || cfg.Port != 0 {
			return Config{}, fmt.Errorf("ssh-specific flags require a remote target")
		}
	}

	return cfg, nil
}

// ApplyFile merges /etc/lssrv.conf (or the --config override) into the
// parsed flags. A missing file is not an error; everything falls back to
// defaults. Flag values win over file values.
func ApplyFile(cfg Config) (Config, error) {
	fileState := ""
	var fileHide []string

	if _, err := os.Stat(cfg.ConfigPath); err == nil {
		file, err := ini.Load(cfg.ConfigPath)
		if err != nil {
			return Config{}, fmt.Errorf("read configuration file %s: %w", cfg.ConfigPath, err)
		}
		fileState = strings.TrimSpace(file.Section("General").Key("squeue_state_file_path").String())
		fileHide = strings.Fields(file.Section("Partitions").Key("partitions_to_hide").String())
	}

	if cfg.StateFile == "" {
		cfg.StateFile = fileState
	}
	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFile
	}
	cfg.HidePartitions = append(fileHide, cfg.HidePartitions...)

	return cfg, nil
}

// IgnoreSet is the aggregator-facing view of HidePartitions.
func (c Config) IgnoreSet() map[string]bool {
	if len(c.HidePartitions) == 0 {
		return nil
	}
	out := make(map[string]bool, len(c.HidePartitions))
	for _, name := range c.HidePartitions {
		out[name] = true
	}
	return out
}
