package slurm

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Job states we act on; every other state token is ignored.
const (
	stateRunning = "RUNNING"
	statePending = "PENDING"
)

// ReasonResources is pre-seeded in every partition's PendingByReason map so
// the report can always show a "waiting for resources" column, zero or not.
const ReasonResources = "Resources"

// AggregateLedger folds the cached squeue snapshot into the catalog's
// per-partition counters. Each line is `<partition> <cores> <state>
// <reason>`, whitespace-delimited; trailing fields are ignored. The first
// short or non-numeric line aborts the whole run.
//
// Lines for partitions in the ignore set, or for partitions absent from the
// catalog (the caller has no visibility into them), are skipped before any
// state handling.
func AggregateLedger(catalog Catalog, ignore map[string]bool, lines []string, log *zap.SugaredLogger) error {
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			return &MalformedJobRecordError{
				LineNumber: i + 1,
				Line:       line,
				Reason:     "expected at least 4 fields, got " + strconv.Itoa(len(fields)),
			}
		}

		name := fields[0]
		cores, err := strconv.Atoi(fields[1])
		if err != nil || cores < 0 {
			return &MalformedJobRecordError{
				LineNumber: i + 1,
				Line:       line,
				Reason:     "core count " + fields[1] + " is not a non-negative integer",
			}
		}
		state := fields[2]
		reason := fields[3]

		if ignore[name] {
			continue
		}
		partition, ok := catalog[name]
		if !ok {
			log.Debugf("Skipping job on partition %s, which is not visible in the catalog.", name)
			continue
		}

		switch state {
		case stateRunning:
			partition.BusyCPUs += cores
		case statePending:
			partition.PendingTotal++
			partition.PendingByReason[reason]++
		}
	}

	return nil
}
