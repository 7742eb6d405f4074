package visualization

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"github.com/nvandessel/countconf/internal/report"
	"github.com/nvandessel/countconf/internal/simulation"
	"github.com/nvandessel/countconf/internal/stats"
)

// htmlTemplateData holds data passed to the HTML template.
// Chart is SVG produced by the chart renderer from numeric data only.
type htmlTemplateData struct {
	Summary    report.Summary
	StdDev     string
	Confidence string
	Interval   string
	Warning    string
	Chart      template.HTML
}

// RenderHTML produces a self-contained HTML page with the result summary and
// an inline SVG histogram. A result without valid counts renders the summary
// and a warning in place of the chart.
func RenderHTML(res *simulation.Result, bins int) ([]byte, error) {
	tmplBytes, err := templates.ReadFile("templates/results.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("read HTML template: %w", err)
	}

	tmpl, err := template.New("results").Parse(string(tmplBytes))
	if err != nil {
		return nil, fmt.Errorf("parse HTML template: %w", err)
	}

	summary := report.NewSummary(res, report.Options{})
	data := htmlTemplateData{
		Summary:    summary,
		StdDev:     summary.StdDevCountEstimate.Fixed(4),
		Confidence: percent(summary.ConfidenceLevel),
	}
	if iv := summary.ConfidenceInterval; iv.Lower.OK && iv.Upper.OK {
		data.Interval = percent(iv.Lower) + " to " + percent(iv.Upper)
	}

	svg, err := RenderSVG(res, bins)
	switch {
	case errors.Is(err, ErrNoData):
		data.Warning = report.NoValidCountsWarning
	case err != nil:
		return nil, err
	default:
		data.Chart = template.HTML(svg) // #nosec G203
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute HTML template: %w", err)
	}
	return buf.Bytes(), nil
}

func percent(v stats.Value) string {
	if !v.OK {
		return "undefined"
	}
	return v.Fixed(2) + "%"
}
