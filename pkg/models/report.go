package models

import (
	"time"
)

// ScanReport represents the results of a scan operation
type ScanReport struct {
	// Operation details
	OperationID string
	Root        string

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// FromCache is true when the ownership map came from the scan cache
	FromCache bool

	// Statistics
	Stats Statistics

	// Errors encountered while enumerating mods
	Errors []ScanError

	// Overall status
	Status ScanStatus
}

// Statistics holds scan metrics
type Statistics struct {
	ModsScanned    int
	ModsFailed     int
	FilesScanned   int // (mod, path) pairs
	UniquePaths    int
	ConflictsFound int
}

// ScanStatus represents the overall result
type ScanStatus string

const (
	// StatusSuccess indicates every mod was enumerated
	StatusSuccess ScanStatus = "success"
	// StatusPartial indicates some mods could not be enumerated
	StatusPartial ScanStatus = "partial"
	// StatusFailed indicates the scan did not produce an index
	StatusFailed ScanStatus = "failed"
	// StatusCancelled indicates the scan was cancelled
	StatusCancelled ScanStatus = "cancelled"
)

// ScanError records a mod that could not be enumerated
type ScanError struct {
	Mod       string
	Error     string
	Timestamp time.Time
}

// ExitCode returns the appropriate exit code for the scan status
func (s ScanStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}
