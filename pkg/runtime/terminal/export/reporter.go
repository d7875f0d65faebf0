package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

type TableConfig struct {
	NameWidth  int
	ValueWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		NameWidth:  32,
		ValueWidth: 48,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
	asJSON bool
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

// SetJSON switches the reporter to machine-readable output.
func (c *Reporter) SetJSON(asJSON bool) {
	c.asJSON = asJSON
}

func (c *Reporter) Handle(report *domain.Report) error {
	if c.asJSON {
		enc := json.NewEncoder(c.writer)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	funcMap := template.FuncMap{
		"formatRow": func(name string, value interface{}) string {
			return fmt.Sprintf("| %-*s | %-*v |",
				c.config.NameWidth, name,
				c.config.ValueWidth, value)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+",
				strings.Repeat("-", c.config.NameWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2))
		},
		"sortedKeys": func(m map[string]any) []string {
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return keys
		},
		"recordKeys": func(rec domain.Record) []string {
			keys := make([]string, 0, len(rec))
			for k := range rec {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return keys
		},
		"get": func(m map[string]any, key string) any {
			return m[key]
		},
		"recordGet": func(rec domain.Record, key string) any {
			return rec[key]
		},
	}

	tmpl := `
Policy: {{.Policy}}

{{separator}}
{{formatRow "Total records" .Stats.Total}}
{{formatRow "Matched" .Stats.Matched}}
{{formatRow "Matched %" .Stats.MatchedPercentage}}
{{separator}}
{{if .Thresholds}}
Thresholds:
{{range sortedKeys .Thresholds}}  {{.}}: {{get $.Thresholds .}}
{{end}}{{end}}
{{if .Matched}}Findings:
{{range $idx, $rec := .Matched}}
--- finding {{$idx}} ---
{{range recordKeys $rec}}  {{.}}: {{recordGet $rec .}}
{{end}}{{end}}{{else}}No findings.
{{end}}
`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}
