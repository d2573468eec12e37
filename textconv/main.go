// Command textconv formats lapswim data in a human-readable way suitable for
// use with "git diff". The output may not be stable across versions.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/template"

	"github.com/lapswim/lapswim/internal/schedule"
	"github.com/lapswim/lapswim/schema"
	"github.com/mitchellh/go-wordwrap"
)

var funcs = template.FuncMap{
	"wrap": func(n uint, s string) string {
		return wordwrap.WrapString(s, n)
	},
	"prefix": func(p, s string) string {
		var b strings.Builder
		for l := range strings.Lines(s) {
			if strings.TrimSpace(l) != "" {
				b.WriteString(p)
			}
			b.WriteString(l)
		}
		return b.String()
	},
	"timeline": timeline,
	"trim":     strings.TrimSpace,
	"quote":    strconv.Quote,
	"upper":    strings.ToUpper,
}

var scheduleTmpl = template.Must(template.New("").Funcs(funcs).Parse(`
{{- "generated " }}{{ .GeneratedAt }}
{{"days"}}{{ range .Days }} {{ quote . }}{{ end }}

{{- range $bi, $b := .Branches }}
{{- "\n\n======\n\n" -}}

{{ $b.Name }} ({{ $b.Key }}){{ with $b.ID }} #{{ . }}{{ end }}

{{- if not $b.Days }}
{{"  "}}NO SESSIONS
{{- end }}

{{- range $di, $d := $b.Days }}
{{"\n+ "}}{{ upper $d }} ({{ $b.Key }})
{{- range timeline (index $b.Schedule $d) }}
{{"  ~ "}}[{{ .StartTime }} - {{ .EndTime }}]{{ if eq .Label "closed" }} --{{ else }}{{ with .Label }} {{ quote . }}{{ end }}{{ end }} ({{ $b.Key }})
{{- end }}
{{- end }}

{{- end }}
`))

var branchesTmpl = template.Must(template.New("").Funcs(funcs).Parse(`
{{- range $i, $c := . }}{{ if $i }}{{ "\n\n" }}{{ end -}}
{{ $c.Name }} ({{ $c.Key }})
{{ $c.Address | trim | wrap 60 | prefix "  " }}
{{"  "}}{{ $c.Lng }}, {{ $c.Lat }}
{{- end }}
`))

// timeline interleaves the closed periods between sessions.
func timeline(merged []schema.Session) []schema.Session {
	ss := slices.Concat(merged, schedule.Gaps(merged))
	slices.SortStableFunc(ss, func(a, b schema.Session) int {
		return int(a.Start() - b.Start())
	})
	return ss
}

func main() {
	input := os.Stdin
	if len(os.Args) > 1 {
		f, err := os.Open(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		input = f
	}
	if len(os.Args) > 2 {
		fmt.Fprintf(os.Stderr, "error: too many arguments\n")
		os.Exit(1)
	}

	buf, err := io.ReadAll(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := format(os.Stdout, buf); err != nil {
		fmt.Println()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// format writes a schedule document or a list of branch coordinates.
func format(w io.Writer, buf []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(buf), []byte("[")) {
		var cs []schema.BranchCoordinate
		if err := json.Unmarshal(buf, &cs); err != nil {
			return err
		}
		return branchesTmpl.Execute(w, cs)
	}
	var doc schema.Document
	if err := json.Unmarshal(buf, &doc); err != nil {
		return err
	}
	return scheduleTmpl.Execute(w, &doc)
}
