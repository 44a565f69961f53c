package output

import (
	"html/template"
	"io"
	"time"

	"github.com/sdejongh/modclash/pkg/conflict"
	"github.com/sdejongh/modclash/pkg/models"
)

// HTMLFormatter writes a standalone report page
type HTMLFormatter struct {
	tmpl *template.Template
}

// NewHTMLFormatter creates a new HTML formatter
func NewHTMLFormatter() *HTMLFormatter {
	return &HTMLFormatter{tmpl: template.Must(template.New("report").Funcs(template.FuncMap{
		"lower": func(s models.Severity) string {
			switch s {
			case models.SeverityHigh:
				return "high"
			case models.SeverityMedium:
				return "medium"
			default:
				return "low"
			}
		},
	}).Parse(htmlTemplate))}
}

type htmlGroup struct {
	Extension string
	Conflicts []models.Conflict
}

type htmlData struct {
	Generated string
	Root      string
	Summary   *conflict.Summary
	Active    []htmlGroup
	Excluded  []htmlGroup
}

// groupByExtension keeps the first-seen extension order of rows
func groupByExtension(rows []models.Conflict) []htmlGroup {
	var groups []htmlGroup
	pos := make(map[string]int)
	for _, c := range sortedByPath(rows) {
		ext := conflict.Extension(c.Path)
		i, ok := pos[ext]
		if !ok {
			i = len(groups)
			pos[ext] = i
			groups = append(groups, htmlGroup{Extension: ext})
		}
		groups[i].Conflicts = append(groups[i].Conflicts, c)
	}
	return groups
}

// Write renders the page
func (f *HTMLFormatter) Write(w io.Writer, r *Report) error {
	generated := r.Generated
	if generated.IsZero() {
		generated = time.Now()
	}
	summary := r.Summary
	if summary == nil {
		summary = &conflict.Summary{ActiveConflicts: len(r.Active), Excluded: len(r.Excluded)}
	}
	return f.tmpl.Execute(w, htmlData{
		Generated: generated.Format("2006-01-02 15:04:05"),
		Root:      r.Root,
		Summary:   summary,
		Active:    groupByExtension(r.Active),
		Excluded:  groupByExtension(r.Excluded),
	})
}

// Name returns the formatter name
func (f *HTMLFormatter) Name() string {
	return "html"
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>RDR2 LML Mod Conflict Report</title>
<style>
body { font-family: 'Segoe UI', Tahoma, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; }
.container { max-width: 1200px; margin: 0 auto; background: white; padding: 30px; border-radius: 10px; }
h1, h2 { color: #333; border-bottom: 3px solid #4a9eff; padding-bottom: 10px; }
.summary { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 16px; }
.card { background: #f8f9fa; padding: 16px; border-radius: 8px; text-align: center; border-left: 4px solid #4a9eff; }
.card .number { font-size: 2em; font-weight: bold; color: #4a9eff; }
.group h3 { background: #4a9eff; color: white; padding: 10px; border-radius: 8px 8px 0 0; margin-bottom: 0; }
.item { padding: 10px 15px; border: 1px solid #eee; border-top: none; }
.path { font-family: monospace; font-weight: bold; }
.high { color: #d32f2f; } .medium { color: #f57c00; } .low { color: #388e3c; }
.note { color: #666; font-style: italic; }
</style>
</head>
<body>
<div class="container">
<h1>RDR2 LML Mod Conflict Report</h1>
<p>Generated: {{.Generated}}<br>LML Directory: {{.Root}}</p>
<div class="summary">
<div class="card"><h3>Conflicts</h3><div class="number">{{.Summary.ActiveConflicts}}</div></div>
<div class="card"><h3>Affected Mods</h3><div class="number">{{.Summary.AffectedMods}}</div></div>
<div class="card"><h3>High Severity</h3><div class="number">{{.Summary.HighSeverity}}</div></div>
<div class="card"><h3>Textures (.ytd)</h3><div class="number">{{.Summary.TextureConflicts}}</div></div>
<div class="card"><h3>Excluded</h3><div class="number">{{.Summary.Excluded}}</div></div>
</div>
{{if .Summary.HasTextConflicts}}<p class="note">{{.Summary.TextConflicts}} .gxt2 conflicts are usually harmless string table overlaps.</p>{{end}}
<h2>Active Conflicts</h2>
{{range .Active}}<div class="group">
<h3>{{.Extension}} ({{len .Conflicts}})</h3>
{{range .Conflicts}}<div class="item"><span class="path">{{.Path}}</span> <span class="{{lower .Severity}}">{{.Severity}}</span><br>{{range $i, $m := .Mods}}{{if $i}}, {{end}}{{$m}}{{end}}</div>
{{end}}</div>
{{else}}<p>No conflicts found</p>
{{end}}
{{if .Excluded}}<h2>Excluded Files</h2>
{{range .Excluded}}<div class="group">
<h3>{{.Extension}} ({{len .Conflicts}})</h3>
{{range .Conflicts}}<div class="item"><span class="path">{{.Path}}</span> <span class="{{lower .Severity}}">{{.Severity}}</span><br>{{range $i, $m := .Mods}}{{if $i}}, {{end}}{{$m}}{{end}}</div>
{{end}}</div>
{{end}}{{end}}
</div>
</body>
</html>
`
