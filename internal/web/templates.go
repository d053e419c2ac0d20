package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/justestif/emolyrics/internal/emotion"
)

// Templates manages HTML template rendering.
type Templates struct {
	templates map[string]*template.Template
	partials  map[string]*template.Template
	funcs     template.FuncMap
}

// NewTemplates creates a new template manager by loading templates from the given filesystem.
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{
		templates: make(map[string]*template.Template),
		partials:  make(map[string]*template.Template),
		funcs:     defaultFuncs(),
	}

	if err := t.load(templatesFS); err != nil {
		return nil, err
	}

	return t, nil
}

// Render renders a page template with the given data.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.templates[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}

	// Execute the "base" template which includes the page content
	return tmpl.ExecuteTemplate(w, "base", data)
}

// RenderPartial renders a partial template (without base layout) with the given data.
func (t *Templates) RenderPartial(w io.Writer, partial string, data any) error {
	tmpl, ok := t.partials[partial]
	if !ok {
		return fmt.Errorf("partial %q not found", partial)
	}
	return tmpl.ExecuteTemplate(w, partial, data)
}

// RenderPartialString renders a partial into a string.
func (t *Templates) RenderPartialString(partial string, data any) (string, error) {
	var sb strings.Builder
	if err := t.RenderPartial(&sb, partial, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// load parses all templates from the filesystem.
func (t *Templates) load(templatesFS fs.FS) error {
	layouts, err := fs.Glob(templatesFS, "layouts/*.html")
	if err != nil {
		return fmt.Errorf("finding layouts: %w", err)
	}

	partials, err := fs.Glob(templatesFS, "partials/*.html")
	if err != nil {
		return fmt.Errorf("finding partials: %w", err)
	}

	pages, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return fmt.Errorf("finding pages: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no page templates found")
	}

	// Common files to include with every page
	commonFiles := append(append([]string{}, layouts...), partials...)

	for _, page := range pages {
		name := templateName(page)
		files := append([]string{page}, commonFiles...)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.templates[name] = tmpl
	}

	// Partials are also rendered on their own for websocket results.
	// Each partial file defines a template named after the file.
	for _, partial := range partials {
		name := templateName(partial)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, partial)
		if err != nil {
			return fmt.Errorf("parsing partial %s: %w", name, err)
		}
		t.partials[name] = tmpl
	}

	return nil
}

// templateName strips the directory and .html extension.
func templateName(file string) string {
	return strings.TrimSuffix(path.Base(file), ".html")
}

// defaultFuncs returns the default template functions.
func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		// percent formats a 0-1 score as "42.0%"
		"percent": emotion.FormatPercent,

		// emotionColor returns the fixed chart color of an emotion label
		"emotionColor": func(label emotion.Label) string {
			return label.Color()
		},

		// formatTime formats a time as "Jan 2, 15:04"
		"formatTime": func(t time.Time) string {
			return t.Format("Jan 2, 15:04")
		},

		// safeHTML marks a string as safe HTML (use with caution)
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec // Block markup is trusted content
		},

		// add adds two integers (for 1-based indexing in loops)
		"add": func(a, b int) int {
			return a + b
		},
	}
}

// PageData contains common data passed to all page templates.
type PageData struct {
	Title       string
	Header      string
	Flash       *FlashMessage
	CurrentPath string
}

// FlashMessage represents a temporary notification message.
type FlashMessage struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

func flash(kind, msg string) *FlashMessage {
	return &FlashMessage{Type: kind, Message: msg}
}

// HomePageData contains data for the analyze page template.
type HomePageData struct {
	PageData
	Lyrics       string
	Chart        ChartData
	ResultCard   string
	DefaultTitle string
	Versions     []VersionData
}

// ChartData is the horizontal bar chart of one score snapshot.
type ChartData struct {
	AxisLimit float64
	Bars      []BarData
}

// BarData is a single emotion bar. Width is a CSS percentage of the axis.
type BarData struct {
	Label emotion.Label
	Color string
	Score float64
	Width float64
}

// VersionData is a saved version as listed in templates.
type VersionData struct {
	ID         string
	Title      string
	TopEmotion emotion.Label
	TopScore   float64
	SavedAt    time.Time
	Selected   bool
}

// ComparePageData contains data for the compare page template.
type ComparePageData struct {
	PageData
	Versions  []VersionData
	Table     *TableData
	Scatter   *ScatterData
	Distances []DistanceData
	Groups    [][]string
}

// TableData is the wide comparison table.
type TableData struct {
	Columns []string
	Rows    []TableRow
}

// TableRow is one emotion row of the comparison table.
type TableRow struct {
	Emotion emotion.Label
	Color   string
	Cells   []string
}

// DistanceData is one version's distance from the first selected version.
type DistanceData struct {
	Title    string
	Distance float64
}

// ScatterData is an SVG line-and-point plot: emotions on x, score on y,
// one series per version.
type ScatterData struct {
	Width, Height int
	Axis          []AxisTick
	Gridlines     []Gridline
	Series        []SeriesData
}

// AxisTick labels one emotion column.
type AxisTick struct {
	X     float64
	Label emotion.Label
}

// Gridline is a horizontal score guide.
type Gridline struct {
	Y     float64
	Label string
}

// SeriesData is one version's points joined by a line.
type SeriesData struct {
	Title  string
	Color  string
	Path   string
	Points []PlotPoint
}

// PlotPoint is a single plotted score.
type PlotPoint struct {
	X, Y    float64
	Emotion emotion.Label
	Score   float64
}
