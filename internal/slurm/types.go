package slurm

import (
	"sort"
	"time"
)

// Partition holds the static configuration of one scheduler partition plus
// the per-run job counters folded in by AggregateLedger.
type Partition struct {
	Name string

	// Static attributes from the scontrol descriptor.
	Nodes        string
	TotalCPUs    int
	TotalNodes   int
	MinNodes     string
	MaxNodes     string
	MaxTime      string
	DefMemPerCPU string

	// Descriptor keys we do not model explicitly, kept verbatim so unknown
	// scontrol fields never break a load.
	Extra map[string]string

	// True when the Nodes list names a single node group. Computed once at
	// creation, never revisited.
	Homogeneous bool

	// Counters below start at zero and are only touched by AggregateLedger.
	BusyCPUs        int
	PendingTotal    int
	PendingByReason map[string]int
}

// FreeCPUs is the headline number of the report.
func (p *Partition) FreeCPUs() int {
	return p.TotalCPUs - p.BusyCPUs
}

// CoresPerNode is only meaningful for homogeneous partitions; callers render
// a placeholder otherwise.
func (p *Partition) CoresPerNode() (int, bool) {
	if !p.Homogeneous || p.TotalNodes == 0 {
		return 0, false
	}
	return p.TotalCPUs / p.TotalNodes, true
}

// Catalog indexes partitions by name. It is built in one pass by LoadCatalog
// and read-only afterwards except for the per-partition counters.
type Catalog map[string]*Partition

// Names returns the partition names sorted for stable presentation.
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c))
	for name := range c {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Snapshot is one finished aggregation run handed to the rendering stage.
type Snapshot struct {
	Catalog         Catalog
	LedgerUpdatedAt time.Time
	CollectedAt     time.Time
}
