// Package visualization renders simulation results as charts and HTML pages.
package visualization

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/nvandessel/countconf/internal/constants"
	"github.com/nvandessel/countconf/internal/simulation"
	"github.com/nvandessel/countconf/internal/stats"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format specifies the output format for chart rendering.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatHTML Format = "html"
)

var (
	// ErrNoData is returned when a result has no valid counts to plot.
	ErrNoData = errors.New("no valid simulated counts to plot")

	// ErrBinCount is returned for a bin count outside [0, constants.MaxHistogramBins].
	ErrBinCount = errors.New("histogram bin count out of range")
)

// ValidateBins checks a caller-supplied bin count. Zero means automatic.
func ValidateBins(bins int) error {
	if bins < 0 || bins > constants.MaxHistogramBins {
		return fmt.Errorf("%w: %d (valid: 0 to %d)", ErrBinCount, bins, constants.MaxHistogramBins)
	}
	return nil
}

// ParseFormat converts a format name into a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatSVG, FormatPNG, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown chart format %q (want svg, png or html)", s)
	}
}

// FormatFromPath picks a Format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer chart format from %q: no extension", path)
	}
	if ext == "htm" {
		ext = "html"
	}
	return ParseFormat(ext)
}

const (
	chartWidth  = 900
	chartHeight = 500
)

var (
	histogramFill   = drawing.ColorFromHex("2e8b57").WithAlpha(140)
	histogramStroke = drawing.ColorFromHex("006400")
)

// Legend names for the reference lines.
const (
	countedLineName  = "Displayed Count (N)"
	requiredLineName = "N_required Lower Bound (x)"
)

// RenderHistogram writes the density histogram of the valid simulated counts
// in the given format. bins == 0 selects the bin count automatically.
func RenderHistogram(w io.Writer, res *simulation.Result, format Format, bins int) error {
	if err := ValidateBins(bins); err != nil {
		return err
	}
	if format == FormatHTML {
		page, err := RenderHTML(res, bins)
		if err != nil {
			return err
		}
		_, err = w.Write(page)
		return err
	}

	ch, err := histogramChart(res, bins)
	if err != nil {
		return err
	}

	var provider chart.RendererProvider
	switch format {
	case FormatSVG:
		provider = chart.SVG
	case FormatPNG:
		provider = chart.PNG
	default:
		return fmt.Errorf("unsupported chart format %q", format)
	}

	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("render %s chart: %w", format, err)
	}
	return nil
}

// RenderSVG returns the histogram as SVG markup.
func RenderSVG(res *simulation.Result, bins int) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderHistogram(&buf, res, FormatSVG, bins); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// histogramChart builds the chart: a filled step outline of the density
// histogram plus vertical reference lines at the displayed count and at the
// continuity-corrected required count.
func histogramChart(res *simulation.Result, bins int) (*chart.Chart, error) {
	hist := stats.DensityHistogram(res.SimulatedCountsValid, bins)
	if len(hist) == 0 {
		return nil, ErrNoData
	}

	xs, ys := stepOutline(hist)

	counted := float64(res.Params.NCounted)
	required := res.Threshold

	xMin := math.Min(hist[0].Lo, math.Min(counted, required))
	xMax := math.Max(hist[len(hist)-1].Hi, math.Max(counted, required))
	pad := (xMax - xMin) * 0.05
	if pad == 0 {
		pad = 1
	}
	yMax := 0.0
	for _, b := range hist {
		yMax = math.Max(yMax, b.Density)
	}
	yMax *= 1.1

	ch := &chart.Chart{
		Title:      fmt.Sprintf("Distribution of Simulated Count Estimates (%d valid trials)", res.ValidCount()),
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "Estimated Count",
			Range: &chart.ContinuousRange{Min: xMin - pad, Max: xMax + pad},
		},
		YAxis: chart.YAxis{
			Name:  "Density",
			Range: &chart.ContinuousRange{Min: 0, Max: yMax},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Simulated Counts",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: histogramStroke,
					StrokeWidth: 1.5,
					FillColor:   histogramFill,
				},
			},
			referenceLine(countedLineName, counted, yMax, chart.ColorRed),
			referenceLine(requiredLineName, required, yMax, chart.ColorBlue),
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(ch)}
	return ch, nil
}

// stepOutline converts bins into the vertices of a closed step line that
// starts and ends on the x axis.
func stepOutline(hist []stats.Bin) (xs, ys []float64) {
	xs = make([]float64, 0, 2*len(hist)+2)
	ys = make([]float64, 0, 2*len(hist)+2)

	xs = append(xs, hist[0].Lo)
	ys = append(ys, 0)
	for _, b := range hist {
		xs = append(xs, b.Lo, b.Hi)
		ys = append(ys, b.Density, b.Density)
	}
	xs = append(xs, hist[len(hist)-1].Hi)
	ys = append(ys, 0)
	return xs, ys
}

func referenceLine(name string, x, height float64, col drawing.Color) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: []float64{x, x},
		YValues: []float64{0, height},
		Style: chart.Style{
			StrokeColor:     col,
			StrokeWidth:     2,
			StrokeDashArray: []float64{6, 4},
		},
	}
}
