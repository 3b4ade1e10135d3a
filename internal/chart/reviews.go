// Package chart renders analytic charts as PNG images.
package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strconv"

	"github.com/actuallystonmai/movie-search-service/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
)

const (
	width  = 10 * vg.Inch
	height = 6 * vg.Inch
)

var (
	barFill    = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	barOutline = color.Black
)

// ReviewsPerYear draws one bar per year, in the order given. An empty series
// still yields a titled, empty chart.
func ReviewsPerYear(counts []domain.YearCount) ([]byte, error) {
	p := plot.New()
	p.Title.Text = "Number of Reviews Per Year"
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Year"
	p.X.Label.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.Text = "Number of Reviews"
	p.Y.Label.TextStyle.Font.Size = vg.Points(14)
	p.Y.Min = 0

	if len(counts) > 0 {
		values := make(plotter.Values, len(counts))
		labels := make([]string, len(counts))
		for i, c := range counts {
			values[i] = float64(c.Count)
			labels[i] = strconv.Itoa(c.Year)
		}

		bars, err := plotter.NewBarChart(values, vg.Points(20))
		if err != nil {
			return nil, fmt.Errorf("build bar chart: %w", err)
		}
		bars.Color = barFill
		bars.LineStyle.Color = barOutline
		bars.LineStyle.Width = vg.Length(1)

		p.Add(bars)
		p.NominalX(labels...)
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = text.XRight
		p.X.Tick.Label.YAlign = text.YCenter
		p.X.Tick.Label.Font.Size = vg.Points(12)
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("create png writer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render png: %w", err)
	}
	return buf.Bytes(), nil
}
