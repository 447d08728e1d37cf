package dashboard

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kognitos/mission-control/internal/k8s"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var headingCaser = cases.Title(language.English)

// Views renders the dashboard templates.
type Views struct {
	templates *template.Template
}

// NewViews parses the embedded templates.
func NewViews() (*Views, error) {
	funcs := template.FuncMap{
		"heading":   headingFromSlug,
		"timestamp": formatTimestamp,
		"cpu":       formatCPU,
		"memory":    formatMemory,
	}

	tmpl, err := template.New("dashboard").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Views{templates: tmpl}, nil
}

// Render executes the named template into w.
func (v *Views) Render(w io.Writer, name string, data any) error {
	if err := v.templates.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return nil
}

// RenderPage wraps the named content template in the full page layout.
func (v *Views) RenderPage(w io.Writer, name string, data any, contexts []k8s.ContextInfo, current string) error {
	var content bytes.Buffer
	if err := v.Render(&content, name, data); err != nil {
		return err
	}

	return v.Render(w, "layout", layoutData{
		Title:    "Mission Control",
		Contexts: contexts,
		Current:  current,
		Content:  template.HTML(content.String()),
	})
}

// layoutData feeds the full page layout template.
type layoutData struct {
	Title    string
	Contexts []k8s.ContextInfo
	Current  string
	Content  template.HTML
}

// Dropdown exposes the context dropdown data to the layout template.
func (d layoutData) Dropdown() dropdownData {
	return dropdownData{Contexts: d.Contexts, Current: d.Current}
}

// dropdownData feeds the context dropdown template. OOB marks the
// rendering as an htmx out-of-band swap.
type dropdownData struct {
	Contexts []k8s.ContextInfo
	Current  string
	OOB      bool
}

// booksPage feeds the books list template.
type booksPage struct {
	Slug      string
	Namespace string
	Books     []k8s.BookSummary
	Error     string
}

// bookConnectionsPage feeds the book connections list template.
type bookConnectionsPage struct {
	Slug           string
	Namespace      string
	URL            string
	CurrentContext string
	Connections    []k8s.BookConnectionSummary
	Error          string
	URLError       string
}

// bookConnectionPodData feeds the expanded book connection row. A nil
// Pod renders the "no associated pod" variant; nil Metrics renders
// "Metrics not available".
type bookConnectionPodData struct {
	Namespace string
	Name      string
	Pod       *k8s.PodInfo
	Metrics   *k8s.PodMetrics
}

// triggerInstancesPage feeds the trigger instances list template.
type triggerInstancesPage struct {
	Slug      string
	Namespace string
	Instances []k8s.TriggerInstanceSummary
	Error     string
}

// deploymentsPage feeds the deployments list template.
type deploymentsPage struct {
	Slug        string
	Namespace   string
	Deployments []k8s.DeploymentSummary
	Error       string
}

// secretsPage feeds the secrets list template.
type secretsPage struct {
	Slug      string
	Namespace string
	Secrets   []k8s.SecretSummary
	Error     string
}

// modalData feeds the manifest modal template. Content is preformatted
// text, typically a YAML manifest or pod logs.
type modalData struct {
	Title   string
	Content string
}

// headingFromSlug turns a route slug like "book-connections" into a
// page heading like "Book Connections".
func headingFromSlug(slug string) string {
	return headingCaser.String(strings.ReplaceAll(slug, "-", " "))
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatCPU(millicores int64) string {
	return fmt.Sprintf("%dm", millicores)
}

func formatMemory(mb float64) string {
	return fmt.Sprintf("%.1fMB", mb)
}
