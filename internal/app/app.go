package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lssrv/internal/config"
	"lssrv/internal/slurm"
	"lssrv/internal/transport"
	"lssrv/internal/tui"
	"lssrv/internal/uifmt"
)

// missingSchedulerCommandError is typed so callers can tell "scontrol is not
// installed there" from transport failures.
type missingSchedulerCommandError struct {
	source  string
	missing string
}

func (e *missingSchedulerCommandError) Error() string {
	return fmt.Sprintf("missing required scheduler commands on %s: %s", e.source, e.missing)
}

func Run(cfg config.Config) error {
	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Sugar()

	tr, err := buildTransport(cfg)
	if err != nil {
		return err
	}
	log.Debugf("Transport is %s.", tr.Describe())

	ctx := context.Background()
	if err := checkSchedulerAvailability(ctx, tr, cfg.CommandTimeout); err != nil {
		return err
	}

	collector := slurm.NewCollector(tr, cfg.StateFile, cfg.CommandTimeout, log)
	snapshot, err := collector.Collect(ctx, cfg.IgnoreSet())
	if err != nil {
		return err
	}
	log.Debugf("Collected %d partition(s).", len(snapshot.Catalog))

	if cfg.Plain {
		return printPlain(os.Stdout, snapshot, cfg.IgnoreSet(), tr.Describe())
	}

	model := tui.NewModel(tui.Options{
		Snapshot: snapshot,
		Hide:     cfg.IgnoreSet(),
		NoColor:  cfg.NoColor,
	})
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return err
	}
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(parsed)
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}

func buildTransport(cfg config.Config) (transport.Transport, error) {
	switch cfg.Mode {
	case config.ModeLocal:
		return transport.NewLocalTransport(), nil
	case config.ModeRemote:
		return transport.NewSSHTransport(transport.SSHOptions{
			Target:         cfg.Target,
			ConfigPath:     cfg.SSHConfig,
			IdentityFile:   cfg.IdentityFile,
			Port:           cfg.Port,
			ConnectTimeout: cfg.ConnectTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported mode: %s", cfg.Mode)
	}
}

func checkSchedulerAvailability(ctx context.Context, tr transport.Transport, timeout time.Duration) error {
	const checkCmd = `missing=""; for c in scontrol; do if ! command -v "$c" >/dev/null 2>&1; then missing="$missing $c"; fi; done; if [ -n "$missing" ]; then echo "$missing"; exit 7; fi`

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := tr.Run(checkCtx, checkCmd)
	if err != nil {
		if missing := strings.TrimSpace(res.Stdout); missing != "" {
			return &missingSchedulerCommandError{
				source:  tr.Describe(),
				missing: missing,
			}
		}
		var runErr *transport.RunError
		if errors.As(err, &runErr) && runErr.Timeout {
			return fmt.Errorf("scheduler capability check timed out on %s; consider increasing --command-timeout", tr.Describe())
		}
		return fmt.Errorf("failed scheduler capability check on %s: %w", tr.Describe(), err)
	}
	return nil
}

func printPlain(out io.Writer, snapshot slurm.Snapshot, hide map[string]bool, source string) error {
	fmt.Fprintf(out, "source: %s\n", source)
	fmt.Fprintf(out, "collected_at: %s\n", snapshot.CollectedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "state_file_updated: %s\n", uifmt.Timestamp(snapshot.LedgerUpdatedAt))

	names := snapshot.Catalog.Names()
	fmt.Fprintln(out, "partitions:")
	for _, name := range names {
		if hide[name] {
			continue
		}
		p := snapshot.Catalog[name]
		cores, homogeneous := p.CoresPerNode()
		fmt.Fprintf(
			out,
			"  - %s free_cpus=%d total_cpus=%d waiting_resources=%d waiting_total=%d nodes=%d max_time=%s min_nodes=%s max_nodes=%s cores_per_node=%s mem_per_core=%s\n",
			p.Name,
			p.FreeCPUs(),
			p.TotalCPUs,
			p.PendingByReason[slurm.ReasonResources],
			p.PendingTotal,
			p.TotalNodes,
			p.MaxTime,
			p.MinNodes,
			p.MaxNodes,
			uifmt.CoresPerNode(cores, homogeneous),
			uifmt.MemPerCore(p.DefMemPerCPU),
		)
	}

	return nil
}
