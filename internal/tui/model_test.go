package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"lssrv/internal/slurm"
)

func testSnapshot(t *testing.T) slurm.Snapshot {
	t.Helper()
	log := zap.NewNop().Sugar()
	catalog, err := slurm.LoadCatalog([]string{
		"PartitionName=batch Nodes=n[001-004] TotalCPUs=224 TotalNodes=4 MinNodes=1 MaxNodes=4 MaxTime=1-00:00:00 DefMemPerCPU=2000",
		"PartitionName=hidden Nodes=x1 TotalCPUs=8 TotalNodes=1 MinNodes=1 MaxNodes=1 MaxTime=1:00:00 DefMemPerCPU=1000",
	}, log)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if err := slurm.AggregateLedger(catalog, nil, []string{"batch 24 RUNNING None", "batch 1 PENDING Resources"}, log); err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	return slurm.Snapshot{
		Catalog:         catalog,
		LedgerUpdatedAt: time.Date(2024, 8, 29, 12, 0, 0, 0, time.UTC),
		CollectedAt:     time.Now(),
	}
}

func TestBuildRowsSkipsHiddenPartitions(t *testing.T) {
	rows := buildRows(testSnapshot(t), map[string]bool{"hidden": true})
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	row := rows[0]
	if row[0] != "batch" {
		t.Fatalf("unexpected partition: %q", row[0])
	}
	if row[1] != "200" || row[2] != "224" {
		t.Fatalf("unexpected free/total cells: %q/%q", row[1], row[2])
	}
	if row[3] != "1" || row[4] != "1" {
		t.Fatalf("unexpected waiting cells: %q/%q", row[3], row[4])
	}
	if row[9] != "56" {
		t.Fatalf("unexpected cores-per-node cell: %q", row[9])
	}
	if row[10] != "2000 MB" {
		t.Fatalf("unexpected memory cell: %q", row[10])
	}
}

func TestViewContainsTableAndFooter(t *testing.T) {
	model := NewModel(Options{Snapshot: testSnapshot(t), NoColor: true})
	view := model.View()
	for _, want := range []string{"Partition", "batch", "Last update: 2024-08-29 12:00:00"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModelQuitsOnTick(t *testing.T) {
	model := NewModel(Options{Snapshot: testSnapshot(t), NoColor: true})
	_, cmd := model.Update(tickMsg{})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Fatalf("expected tea.Quit, got %T", msg)
	}
}

func TestModelQuitsOnKeyPress(t *testing.T) {
	model := NewModel(Options{Snapshot: testSnapshot(t), NoColor: true})
	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("expected quit command for q")
	}
}
