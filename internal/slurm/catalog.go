package slurm

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Descriptor keys that land in typed Partition fields. Everything else goes
// to Extra.
const (
	keyPartitionName = "PartitionName"
	keyNodes         = "Nodes"
	keyTotalCPUs     = "TotalCPUs"
	keyTotalNodes    = "TotalNodes"
	keyMinNodes      = "MinNodes"
	keyMaxNodes      = "MaxNodes"
	keyMaxTime       = "MaxTime"
	keyDefMemPerCPU  = "DefMemPerCPU"
)

// LoadCatalog parses `scontrol show partition -o` output, one descriptor
// per line, into a Catalog. Blank lines are skipped. A token without "=" or
// a line missing PartitionName or Nodes aborts the load.
func LoadCatalog(lines []string, log *zap.SugaredLogger) (Catalog, error) {
	catalog := make(Catalog, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		partition, err := parseDescriptorLine(line)
		if err != nil {
			return nil, err
		}
		if _, exists := catalog[partition.Name]; exists {
			log.Warnf("Duplicate descriptor for partition %s, keeping the later one.", partition.Name)
		}
		catalog[partition.Name] = partition
	}

	log.Debugf("Loaded %d partition(s) into the catalog.", len(catalog))
	return catalog, nil
}

func parseDescriptorLine(line string) (*Partition, error) {
	partition := &Partition{
		Extra:           make(map[string]string),
		PendingByReason: map[string]int{ReasonResources: 0},
	}

	sawNodes := false
	for _, token := range strings.Fields(line) {
		key, value, found := strings.Cut(token, "=")
		if !found {
			return nil, &MalformedDescriptorError{Line: line, Reason: "token " + token + " has no value"}
		}

		switch key {
		case keyPartitionName:
			partition.Name = value
		case keyNodes:
			partition.Nodes = value
			sawNodes = true
		case keyTotalCPUs:
			partition.TotalCPUs = atoiOrZero(value)
		case keyTotalNodes:
			partition.TotalNodes = atoiOrZero(value)
		case keyMinNodes:
			partition.MinNodes = value
		case keyMaxNodes:
			partition.MaxNodes = value
		case keyMaxTime:
			partition.MaxTime = value
		case keyDefMemPerCPU:
			partition.DefMemPerCPU = value
		default:
			partition.Extra[key] = value
		}
	}

	if partition.Name == "" {
		return nil, &MalformedDescriptorError{Line: line, Reason: "missing PartitionName"}
	}
	if !sawNodes {
		return nil, &MalformedDescriptorError{Line: line, Reason: "missing Nodes"}
	}

	// A comma in the node list means the partition mixes node groups, and a
	// flat cores-per-node figure would be wrong for it.
	partition.Homogeneous = !strings.Contains(partition.Nodes, ",")

	return partition, nil
}

func atoiOrZero(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
