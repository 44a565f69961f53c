package models

import (
	"time"
)

// ScanOperation represents the parameters of one scan of a mod root
type ScanOperation struct {
	ID             string
	Root           string
	MaxWorkers     int
	IgnorePatterns []string
	// Refresh bypasses the scan cache and always walks the tree
	Refresh   bool
	CreatedAt time.Time
}

// Validate checks if the operation configuration is valid
func (op *ScanOperation) Validate() error {
	if op.Root == "" {
		return &ValidationError{Field: "Root", Message: "root path is required"}
	}
	if op.MaxWorkers < 1 {
		return &ValidationError{Field: "MaxWorkers", Message: "max workers must be at least 1"}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
