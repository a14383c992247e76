// Package chart renders dashboard tables as static images.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/baylab/nitrogen-dashboard/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const ContentType = "image/png"

const (
	width  = 8 * vg.Inch
	height = 5 * vg.Inch
)

// LossBars writes a PNG bar chart of the nitrogen-loss table, one bar per
// loss category. The total row is left out.
func LossBars(w io.Writer, d *domain.Dashboard) error {
	rows := d.NitrogenLossTable.Rows
	if len(rows) < len(domain.LossCategories) {
		return errors.New("loss table has fewer rows than loss categories")
	}

	values := make(plotter.Values, len(domain.LossCategories))
	labels := make([]string, len(domain.LossCategories))
	for i, c := range domain.LossCategories {
		values[i] = rows[i].Total.Float64()
		labels[i] = fmt.Sprintf("Stage %d", c.Stage)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Nitrogen Loss by Category (%s)", d.Scenario.Label)
	p.Y.Label.Text = d.NitrogenLossTable.Columns[len(d.NitrogenLossTable.Columns)-1]
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars, plotter.NewGrid())

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = draw.XRight

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("png canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
