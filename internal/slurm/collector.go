package slurm

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"lssrv/internal/transport"
)

const (
	splitMarker  = "__LSSRV_SPLIT__"
	ledgerEOF    = "__LSSRV_LEDGER_EOF__"
	scontrolTail = `scontrol show partition -o`
)

// Collector gathers one snapshot: the partition descriptors from scontrol
// and the cached squeue state file, fetched over the same transport so
// remote mode reads the cluster's cache rather than a local one.
type Collector struct {
	transport      transport.Transport
	ledgerPath     string
	commandTimeout time.Duration
	log            *zap.SugaredLogger

	// partitionCommand is scontrolTail unless a test substitutes it.
	partitionCommand string
}

func NewCollector(t transport.Transport, ledgerPath string, commandTimeout time.Duration, log *zap.SugaredLogger) *Collector {
	return &Collector{
		transport:        t,
		ledgerPath:       ledgerPath,
		commandTimeout:   commandTimeout,
		log:              log,
		partitionCommand: scontrolTail,
	}
}

// collectCommand emits three marker-separated sections: descriptor lines,
// the ledger's mtime in epoch seconds, and the ledger body. The trailing EOF
// marker only appears when cat succeeded, which is how a missing snapshot is
// told apart from an empty one. The final `true` pins the shell's exit
// status to 0: a missing ledger must surface through the absent marker as
// LedgerUnavailableError, not as a bare nonzero-exit transport error.
func (c *Collector) collectCommand() string {
	quoted := transport.ShellQuote(c.ledgerPath)
	return fmt.Sprintf(
		`%s; echo "%s"; stat -c %%Y -- %s 2>/dev/null; echo "%s"; cat -- %s 2>/dev/null && echo "%s"; true`,
		c.partitionCommand, splitMarker, quoted, splitMarker, quoted, ledgerEOF,
	)
}

func (c *Collector) Collect(ctx context.Context, ignore map[string]bool) (Snapshot, error) {
	raw, err := c.run(ctx, c.collectCommand())
	if err != nil {
		return Snapshot{}, fmt.Errorf("collect partition state: %w", err)
	}

	descRaw, mtimeRaw, ledgerRaw, err := splitCollectOutput(raw)
	if err != nil {
		return Snapshot{}, err
	}

	// With the combined command's exit status pinned to 0, a dead or absent
	// scontrol shows up as an empty descriptor section. An empty catalog
	// must never reach the rendering stage looking like a healthy run.
	if descRaw == "" {
		return Snapshot{}, fmt.Errorf("scontrol returned no partition descriptors on %s", c.transport.Describe())
	}

	ledgerLines, updatedAt, err := c.parseLedgerSection(mtimeRaw, ledgerRaw)
	if err != nil {
		return Snapshot{}, err
	}

	catalog, err := LoadCatalog(strings.Split(descRaw, "\n"), c.log)
	if err != nil {
		return Snapshot{}, err
	}

	if err := AggregateLedger(catalog, ignore, ledgerLines, c.log); err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Catalog:         catalog,
		LedgerUpdatedAt: updatedAt,
		CollectedAt:     time.Now(),
	}, nil
}

func (c *Collector) run(ctx context.Context, command string) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, c.commandTimeout)
	defer cancel()

	res, err := c.transport.Run(cmdCtx, command)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// parseLedgerSection validates the cat/stat halves of the combined output.
// No EOF marker means the snapshot could not be read where it was expected.
func (c *Collector) parseLedgerSection(mtimeRaw, ledgerRaw string) ([]string, time.Time, error) {
	body, ok := strings.CutSuffix(strings.TrimRight(ledgerRaw, "\n"), ledgerEOF)
	if !ok {
		return nil, time.Time{}, &LedgerUnavailableError{Path: c.ledgerPath}
	}

	var updatedAt time.Time
	if mtimeRaw != "" {
		epoch, err := strconv.ParseInt(mtimeRaw, 10, 64)
		if err != nil {
			c.log.Warnf("Cannot parse ledger mtime %q, leaving the last-update stamp empty.", mtimeRaw)
		} else {
			updatedAt = time.Unix(epoch, 0)
		}
	}

	body = strings.TrimRight(body, "\n")
	if body == "" {
		return nil, updatedAt, nil
	}
	return strings.Split(body, "\n"), updatedAt, nil
}

func splitCollectOutput(raw string) (desc string, mtime string, ledger string, err error) {
	parts := strings.SplitN(raw, splitMarker, 3)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("unexpected collector output format: split marker missing")
	}
	desc = strings.TrimSpace(parts[0])
	mtime = strings.TrimSpace(parts[1])
	ledger = strings.TrimLeft(parts[2], "\n")
	return desc, mtime, ledger, nil
}
