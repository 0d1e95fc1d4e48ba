package viz

import (
	"bytes"
	"fmt"
	"html/template"
	"slices"
	"strings"

	"github.com/matsen/crimedash/internal/sankey"
)

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate *template.Template

func init() {
	compiledTemplate = template.Must(template.New("viz").Parse(htmlTemplate))
}

// PlotlyCDN is the script loaded by generated pages.
const PlotlyCDN = "https://cdn.plot.ly/plotly-2.35.2.min.js"

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Title       string
	Orientation string // "h" or "v"
	Height      int    // pixels; zero lets Plotly choose
}

// DefaultOptions returns default HTML generation options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{
		Title:       "Crime flow by district, year and category",
		Orientation: "h",
		Height:      800,
	}
}

// ValidOrientations lists the supported diagram orientations.
var ValidOrientations = []string{"h", "v"}

// GenerateHTML generates a self-contained HTML page for the flow graph.
func GenerateHTML(g *sankey.Graph, opts HTMLOptions) (string, error) {
	if g == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}

	if err := validateOrientation(opts.Orientation); err != nil {
		return "", err
	}

	if g.IsEmpty() {
		return generateEmptyHTML(opts.Title), nil
	}

	figJSON, err := ToPlotlyJSON(g, opts)
	if err != nil {
		return "", err
	}

	data := templateData{
		Title:      pageTitle(opts.Title),
		ScriptURL:  PlotlyCDN,
		FigureJSON: template.JS(figJSON),
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// validateOrientation checks if the orientation option is valid.
func validateOrientation(o string) error {
	if o == "" || slices.Contains(ValidOrientations, o) {
		return nil
	}
	return fmt.Errorf("invalid orientation %q: must be one of %s", o, strings.Join(ValidOrientations, ", "))
}

// templateData holds data for the HTML template.
type templateData struct {
	Title      string
	ScriptURL  string
	FigureJSON template.JS
}

func pageTitle(title string) string {
	if title == "" {
		return "Crime flow"
	}
	return title
}

// generateEmptyHTML returns HTML for an empty graph state.
func generateEmptyHTML(title string) string {
	var buf bytes.Buffer
	// The template is static apart from the escaped title.
	_ = emptyTemplate.Execute(&buf, pageTitle(title))
	return buf.String()
}

var emptyTemplate = template.Must(template.New("empty").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.}} - Empty</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      display: flex;
      justify-content: center;
      align-items: center;
      height: 100vh;
      margin: 0;
      background: #f5f5f5;
    }
    .empty-state {
      text-align: center;
      color: #666;
    }
    .empty-state h2 {
      margin-bottom: 0.5em;
      color: #333;
    }
    .empty-state code {
      background: #e0e0e0;
      padding: 2px 6px;
      border-radius: 3px;
    }
  </style>
</head>
<body>
  <div class="empty-state">
    <h2>No flow data</h2>
    <p>No incidents matched the selected years.</p>
    <p>Load data using <code>cdash import</code></p>
  </div>
</body>
</html>`))

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <script src="{{.ScriptURL}}"></script>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      padding: 0;
      background: #f5f5f5;
    }
    #sankey {
      width: 100%;
      min-height: 100vh;
      background: white;
    }
  </style>
</head>
<body>
  <div id="sankey"></div>
  <script>
    (function() {
      const fig = {{.FigureJSON}};
      Plotly.newPlot('sankey', fig.data, fig.layout, {responsive: true});
    })();
  </script>
</body>
</html>`
