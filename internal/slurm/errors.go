package slurm

import "fmt"

// MalformedDescriptorError reports a partition descriptor line that violates
// the key=value contract or lacks a required field.
type MalformedDescriptorError struct {
	Line   string
	Reason string
}

func (e *MalformedDescriptorError) Error() string {
	return fmt.Sprintf("malformed partition descriptor (%s): %s", e.Reason, e.Line)
}

// MalformedJobRecordError reports a queue snapshot line that cannot be
// aggregated. Aggregation aborts on the first such line; partial counters
// must never reach the rendering stage.
type MalformedJobRecordError struct {
	LineNumber int
	Line       string
	Reason     string
}

func (e *MalformedJobRecordError) Error() string {
	return fmt.Sprintf("malformed job record at line %d (%s): %s", e.LineNumber, e.Reason, e.Line)
}

// LedgerUnavailableError reports a missing or unreadable queue snapshot
// file. This is a defined failure, not an empty result.
type LedgerUnavailableError struct {
	Path string
	Err  error
}

func (e *LedgerUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("queue state file %s is unavailable: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("queue state file %s is unavailable", e.Path)
}

func (e *LedgerUnavailableError) Unwrap() error {
	return e.Err
}
