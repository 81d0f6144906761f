package uifmt

import (
	"strconv"
	"time"
)

func Count(n int) string {
	return strconv.Itoa(n)
}

// CoresPerNode renders "-" for heterogeneous partitions, where a flat
// per-node figure would be misleading.
func CoresPerNode(cores int, ok bool) string {
	if !ok {
		return "-"
	}
	return strconv.Itoa(cores)
}

// MemPerCore appends the MB unit scontrol leaves implicit. Non-numeric
// values (UNLIMITED and friends) pass through untouched.
func MemPerCore(v string) string {
	if v == "" {
		return "-"
	}
	if _, err := strconv.Atoi(v); err != nil {
		return v
	}
	return v + " MB"
}

func Timestamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("2006-01-02 15:04:05")
}
