// Package report renders ranked items into the Markdown digest.
package report

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"NewsDigest/internal/domain"
)

// Meta carries run-level facts shown in the document frame.
type Meta struct {
	Name        string
	Date        time.Time
	SourceNames []string
}

const digestTemplate = `# {{ .Name }} - {{ .Date }}

{{ range .Items -}}
## [{{ .Title }}]({{ .URL }})

*{{ .SourceLabel }}* | relevance {{ printf "%.2f" .Score }}{{ if .PublishedAt }} | {{ .PublishedAt }}{{ end }}

{{ if .Excerpt }}{{ .Excerpt }}

{{ end }}{{ end -}}
---

Sources: {{ .Sources }}

Generated at {{ .GeneratedAt }}
`

var tmpl = template.Must(template.New("digest").Parse(digestTemplate))

type itemView struct {
	Title       string
	URL         string
	SourceLabel string
	Score       float64
	PublishedAt string
	Excerpt     string
}

// Compose renders the ordered items into a Markdown document. The
// second return value is false when there is nothing to report, in
// which case publishing must be suppressed. Composition does no I/O
// and is deterministic for fixed inputs.
func Compose(items []domain.Item, meta Meta) (string, bool) {
	if len(items) == 0 {
		return "", false
	}

	views := make([]itemView, 0, len(items))
	for _, item := range items {
		published := ""
		if !item.PublishedAt.IsZero() {
			published = item.PublishedAt.UTC().Format("2006-01-02 15:04")
		}
		views = append(views, itemView{
			Title:       sanitizeTitle(item.Title),
			URL:         item.URL,
			SourceLabel: item.SourceLabel,
			Score:       item.ScoreValue(),
			PublishedAt: published,
			Excerpt:     item.Excerpt,
		})
	}

	data := struct {
		Name        string
		Date        string
		Items       []itemView
		Sources     string
		GeneratedAt string
	}{
		Name:        meta.Name,
		Date:        meta.Date.Format("2006-01-02"),
		Items:       views,
		Sources:     strings.Join(meta.SourceNames, ", "),
		GeneratedAt: meta.Date.UTC().Format("2006-01-02 15:04"),
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		// The template is static and the data contains no methods that
		// can fail, so execution cannot error at runtime.
		panic(fmt.Sprintf("render digest: %v", err))
	}

	return sb.String(), true
}

// sanitizeTitle keeps item titles from breaking the Markdown link syntax.
func sanitizeTitle(title string) string {
	title = strings.ReplaceAll(title, "[", "(")
	title = strings.ReplaceAll(title, "]", ")")
	return strings.TrimSpace(title)
}
