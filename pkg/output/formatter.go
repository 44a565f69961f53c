package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sdejongh/modclash/pkg/conflict"
	"github.com/sdejongh/modclash/pkg/models"
)

// Report is everything a formatter renders about one scan
type Report struct {
	Generated time.Time
	Root      string
	Scan      *models.ScanReport
	Summary   *conflict.Summary
	Active    []models.Conflict
	Excluded  []models.Conflict
	Groups    []conflict.TypeGroup
	// Duplicates marks active paths whose copies are all identical
	Duplicates map[string]bool
}

// Formatter renders a Report
// Implementations include human-readable, text, JSON and HTML formatters
type Formatter interface {
	// Write renders r to w
	Write(w io.Writer, r *Report) error

	// Name returns the formatter name
	Name() string
}

// Options tune the human formatter
type Options struct {
	Color bool
	// Width overrides terminal detection when positive
	Width int
}

// NewFormatter returns the formatter registered under name
func NewFormatter(name string, opts Options) (Formatter, error) {
	switch name {
	case "human", "":
		return NewHumanFormatter(opts), nil
	case "text", "txt":
		return NewTextFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "html":
		return NewHTMLFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s (use: human, text, json, html)", name)
	}
}

// FormatForPath picks a report format from a file extension, falling back
// to text
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".html", ".htm":
		return "html"
	default:
		return "text"
	}
}

// WriteReportFile writes r to path in the given format ("" picks one from
// the extension)
func WriteReportFile(r *Report, path, format string) error {
	if format == "" {
		format = FormatForPath(path)
	}
	f, err := NewFormatter(format, Options{})
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if err := f.Write(file, r); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return file.Close()
}

// formatBytes formats bytes in human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatBytes is the exported form of formatBytes
func FormatBytes(bytes int64) string {
	return formatBytes(bytes)
}

// formatDuration formats duration in human-readable format
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
