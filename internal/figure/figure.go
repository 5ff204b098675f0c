// Package figure renders the sphere sample and its embeddings as a tiled
// PNG.
package figure

import (
	"fmt"
	"image/color"
	"io"
	"log"
	"math"
	"os"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	rows = 2
	cols = 4

	// DefaultElevation and DefaultAzimuth are the 3D view angles in degrees.
	DefaultElevation = 40.0
	DefaultAzimuth   = -10.0
)

// Panel is one embedding to plot.
type Panel struct {
	Label   string
	Points  [][]float64 // n x 2
	Elapsed time.Duration
}

// Figure is a 2x4 grid: the 3D sample first, then one scatter per panel.
// Unused slots stay empty.
type Figure struct {
	Title  string
	Points [][]float64 // n x 3, shown in the first slot
	Colors []float64   // one scalar per point, mapped onto a rainbow
	Panels []Panel

	Width, Height vg.Length

	elevation, azimuth float64
}

// New returns a 15x8 inch figure of points with the default view angles.
func New(title string, points [][]float64, colors []float64) *Figure {
	return &Figure{
		Title:     title,
		Points:    points,
		Colors:    colors,
		Width:     15 * vg.Inch,
		Height:    8 * vg.Inch,
		elevation: DefaultElevation,
		azimuth:   DefaultAzimuth,
	}
}

// SetView sets the 3D view angles in degrees. Angles that cannot be applied
// leave the current view in place and are logged.
func (f *Figure) SetView(elevation, azimuth float64) {
	if !finite(elevation) || !finite(azimuth) {
		log.Printf("figure: ignoring view angles elevation=%g azimuth=%g; keeping %g, %g",
			elevation, azimuth, f.elevation, f.azimuth)
		return
	}
	f.elevation, f.azimuth = elevation, azimuth
}

// View returns the current 3D view angles in degrees.
func (f *Figure) View() (elevation, azimuth float64) {
	return f.elevation, f.azimuth
}

// Add appends an embedding panel.
func (f *Figure) Add(p Panel) {
	f.Panels = append(f.Panels, p)
}

// Render draws the figure and writes it to w as PNG.
func (f *Figure) Render(w io.Writer) error {
	if len(f.Panels) > rows*cols-1 {
		return fmt.Errorf("figure: %d panels do not fit in %d slots", len(f.Panels), rows*cols-1)
	}
	if len(f.Colors) != len(f.Points) {
		return fmt.Errorf("figure: %d colors for %d points", len(f.Colors), len(f.Points))
	}
	for _, p := range f.Panels {
		if len(p.Points) != len(f.Points) {
			return fmt.Errorf("figure: panel %q has %d points, want %d", p.Label, len(p.Points), len(f.Points))
		}
	}

	plots := make([]*plot.Plot, 0, rows*cols)
	sample, err := f.samplePlot()
	if err != nil {
		return err
	}
	plots = append(plots, sample)
	for _, p := range f.Panels {
		pl, err := f.panelPlot(p)
		if err != nil {
			return err
		}
		plots = append(plots, pl)
	}

	img := vgimg.New(f.Width, f.Height)
	dc := draw.New(img)

	titleStyle := plot.New().Title.TextStyle
	titleStyle.Font.Size = vg.Points(16)
	titleStyle.XAlign = text.XCenter
	titleStyle.YAlign = text.YTop
	titleHeight := titleStyle.Height(f.Title) + vg.Points(12)
	dc.FillText(titleStyle, vg.Point{
		X: (dc.Min.X + dc.Max.X) / 2,
		Y: dc.Max.Y - vg.Points(6),
	}, f.Title)

	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Points(12),
		PadY:      vg.Points(12),
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}
	grid := draw.Crop(dc, 0, 0, 0, -titleHeight)
	for i, pl := range plots {
		pl.Draw(tiles.At(grid, i%cols, i/cols))
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("figure: writing png: %w", err)
	}
	return nil
}

// Save renders the figure to a PNG file at path.
func (f *Figure) Save(path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("figure: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("figure: %w", cerr)
		}
	}()
	return f.Render(file)
}

// samplePlot is the orthographic view of the 3D points, drawn back to front.
func (f *Figure) samplePlot() (*plot.Plot, error) {
	xys, order := project(f.Points, f.elevation, f.azimuth)
	sorted := make(plotter.XYs, len(order))
	colors := make([]color.Color, len(order))
	shades := f.shades()
	for a, i := range order {
		sorted[a] = xys[i]
		colors[a] = shades[i]
	}

	p := plot.New()
	p.Title.Text = "Original data"
	hideTicks(p)
	if len(sorted) == 0 {
		return p, nil
	}
	s, err := plotter.NewScatter(sorted)
	if err != nil {
		return nil, fmt.Errorf("figure: sample scatter: %w", err)
	}
	s.GlyphStyleFunc = glyphs(colors)
	p.Add(s)
	return p, nil
}

func (f *Figure) panelPlot(panel Panel) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%.2g sec)", panel.Label, panel.Elapsed.Seconds())
	hideTicks(p)
	if len(panel.Points) == 0 {
		return p, nil
	}

	xys := make(plotter.XYs, len(panel.Points))
	for i, pt := range panel.Points {
		if len(pt) < 2 {
			return nil, fmt.Errorf("figure: panel %q point %d has %d coordinates, want 2", panel.Label, i, len(pt))
		}
		xys[i] = plotter.XY{X: pt[0], Y: pt[1]}
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("figure: panel %q: %w", panel.Label, err)
	}
	s.GlyphStyleFunc = glyphs(f.shades())
	p.Add(s)
	return p, nil
}

// shades maps Colors linearly onto a red-to-violet rainbow.
func (f *Figure) shades() []color.Color {
	pal := palette.Rainbow(256, 0, 0.8, 1, 1, 1).Colors()
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range f.Colors {
		lo, hi = math.Min(lo, c), math.Max(hi, c)
	}
	out := make([]color.Color, len(f.Colors))
	for i, c := range f.Colors {
		t := 0.5
		if hi > lo {
			t = (c - lo) / (hi - lo)
		}
		out[i] = pal[int(t*float64(len(pal)-1))]
	}
	return out
}

func glyphs(colors []color.Color) func(int) draw.GlyphStyle {
	return func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  colors[i],
			Radius: vg.Points(1.5),
			Shape:  draw.CircleGlyph{},
		}
	}
}

func hideTicks(p *plot.Plot) {
	p.X.Tick.Marker = plot.ConstantTicks(nil)
	p.Y.Tick.Marker = plot.ConstantTicks(nil)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
