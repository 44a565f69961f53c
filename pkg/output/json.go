package output

import (
	"encoding/json"
	"io"
	"time"
)

// JSONFormatter formats output as JSON for automation and scripting
type JSONFormatter struct{}

// JSONReport is the document written by JSONFormatter
type JSONReport struct {
	Metadata        JSONMetadata            `json:"metadata"`
	Summary         *JSONSummary            `json:"summary,omitempty"`
	ActiveConflicts map[string]JSONConflict `json:"active_conflicts"`
	ExcludedFiles   map[string]JSONConflict `json:"excluded_files"`
	Errors          []JSONErrorData         `json:"errors,omitempty"`
}

// JSONMetadata describes the scan
type JSONMetadata struct {
	Generated      string `json:"generated"`
	LMLDirectory   string `json:"lml_directory"`
	TotalConflicts int    `json:"total_conflicts"`
	ExcludedFiles  int    `json:"excluded_files"`
	ScanID         string `json:"scan_id,omitempty"`
	Status         string `json:"status,omitempty"`
	FromCache      bool   `json:"from_cache"`
	DurationMs     int64  `json:"duration_ms"`
}

// JSONSummary mirrors the summary line
type JSONSummary struct {
	AffectedMods     int            `json:"affected_mods"`
	HighSeverity     int            `json:"high_severity"`
	TextureConflicts int            `json:"texture_conflicts"`
	GXT2Conflicts    int            `json:"gxt2_conflicts"`
	BySeverity       map[string]int `json:"by_severity"`
	FileTypes        map[string]int `json:"file_types,omitempty"`
}

// JSONConflict is one path entry
type JSONConflict struct {
	Mods      []string `json:"mods"`
	Count     int      `json:"count"`
	Severity  string   `json:"severity"`
	Identical *bool    `json:"identical,omitempty"`
}

// JSONErrorData represents a mod that could not be scanned
type JSONErrorData struct {
	Mod   string `json:"mod"`
	Error string `json:"error"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Build converts r into the JSON document
func (f *JSONFormatter) Build(r *Report) *JSONReport {
	generated := r.Generated
	if generated.IsZero() {
		generated = time.Now()
	}

	doc := &JSONReport{
		Metadata: JSONMetadata{
			Generated:      generated.Format("2006-01-02 15:04:05"),
			LMLDirectory:   r.Root,
			TotalConflicts: len(r.Active),
			ExcludedFiles:  excludedCount(r),
		},
		ActiveConflicts: make(map[string]JSONConflict, len(r.Active)),
		ExcludedFiles:   make(map[string]JSONConflict, len(r.Excluded)),
	}

	if r.Scan != nil {
		doc.Metadata.ScanID = r.Scan.OperationID
		doc.Metadata.Status = string(r.Scan.Status)
		doc.Metadata.FromCache = r.Scan.FromCache
		doc.Metadata.DurationMs = r.Scan.Duration.Milliseconds()
		for _, e := range r.Scan.Errors {
			doc.Errors = append(doc.Errors, JSONErrorData{Mod: e.Mod, Error: e.Error})
		}
	}

	if s := r.Summary; s != nil {
		js := &JSONSummary{
			AffectedMods:     s.AffectedMods,
			HighSeverity:     s.HighSeverity,
			TextureConflicts: s.TextureConflicts,
			GXT2Conflicts:    s.TextConflicts,
			BySeverity:       make(map[string]int, len(s.BySeverity)),
		}
		for sev, n := range s.BySeverity {
			js.BySeverity[string(sev)] = n
		}
		if len(r.Groups) > 0 {
			js.FileTypes = make(map[string]int, len(r.Groups))
			for _, g := range r.Groups {
				js.FileTypes[g.Extension] = g.Count
			}
		}
		doc.Summary = js
	}

	for _, c := range r.Active {
		entry := JSONConflict{Mods: c.Mods, Count: c.Count(), Severity: string(c.Severity)}
		if r.Duplicates != nil {
			identical, ok := r.Duplicates[c.Path]
			if ok {
				entry.Identical = &identical
			}
		}
		doc.ActiveConflicts[c.Path] = entry
	}
	for _, c := range r.Excluded {
		doc.ExcludedFiles[c.Path] = JSONConflict{Mods: c.Mods, Count: c.Count(), Severity: string(c.Severity)}
	}

	return doc
}

// Write encodes the report with four-space indentation
func (f *JSONFormatter) Write(w io.Writer, r *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "    ")
	return encoder.Encode(f.Build(r))
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
