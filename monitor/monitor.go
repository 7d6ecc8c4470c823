// Package monitor renders diagnostic plots of a detection run: heatmaps of
// the per-scale filter responses and overlays of the detected blobs on the
// source frame. Output is written as PNG files into a per-run directory so
// successive runs never clobber each other.
//
// This is a debugging aid for tuning sigma tables and neighborhood sizes,
// not an image I/O layer.
package monitor

import (
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/photonlab/boxxer"
	"github.com/photonlab/boxxer/img"
)

// Run is one plotting session. All output lands in a directory named by
// the start timestamp and a short run ID.
type Run struct {
	mu  sync.Mutex
	dir string
	id  string
}

// NewRun creates the output directory under baseDir and returns the run.
func NewRun(baseDir string) (*Run, error) {
	id := uuid.NewString()[:8]
	dir := filepath.Join(baseDir, time.Now().Format("20060102_150405")+"_"+id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	log.Printf("monitor: run %s writing to %s", id, dir)
	return &Run{dir: dir, id: id}, nil
}

// Dir returns the run's output directory.
func (r *Run) Dir() string { return r.dir }

// ID returns the short run identifier.
func (r *Run) ID() string { return r.id }

func (r *Run) save(p *plot.Plot, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	path := filepath.Join(r.dir, name)
	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}

// imageGrid adapts a column-major image to the plotter grid interface.
// The plot X axis carries the image's Y (column) coordinate and the plot
// Y axis the image's X (row) coordinate.
type imageGrid[T img.Float] struct {
	im *img.Image[T]
}

func (g imageGrid[T]) Dims() (c, r int)   { return g.im.SizeY, g.im.SizeX }
func (g imageGrid[T]) Z(c, r int) float64 { return float64(g.im.At(r, c)) }
func (g imageGrid[T]) X(c int) float64    { return float64(c) }
func (g imageGrid[T]) Y(r int) float64    { return float64(r) }

func valueRange[T img.Float](pix []T) (lo, hi float64) {
	vals := make([]float64, len(pix))
	for i, v := range pix {
		vals[i] = float64(v)
	}
	return floats.Min(vals), floats.Max(vals)
}

func heatmapPlot[T img.Float](im *img.Image[T], title string) *plot.Plot {
	p := plot.New()
	lo, hi := valueRange(im.Pix)
	p.Title.Text = fmt.Sprintf("%s [%.4g, %.4g]", title, lo, hi)
	p.X.Label.Text = "y"
	p.Y.Label.Text = "x"
	hm := plotter.NewHeatMap(imageGrid[T]{im: im}, palette.Heat(12, 1))
	p.Add(hm)
	return p
}

// SaveScaleHeatmaps writes one heatmap PNG per scale of a filtered frame.
func SaveScaleHeatmaps[T img.Float](r *Run, sim *img.ScaledImage[T], prefix string) error {
	for s := 0; s < sim.Scales; s++ {
		p := heatmapPlot(sim.Scale(s), fmt.Sprintf("%s scale %d", prefix, s))
		if err := r.save(p, fmt.Sprintf("%s_scale_%02d.png", prefix, s)); err != nil {
			return err
		}
	}
	return nil
}

// SaveBlobOverlay writes a heatmap of one frame with the blobs detected on
// it marked as scatter points.
func SaveBlobOverlay[T img.Float](r *Run, im *img.Image[T], blobs []boxxer.Blob2D[T], name string) error {
	p := heatmapPlot(im, fmt.Sprintf("%s (%d blobs)", name, len(blobs)))
	pts := make(plotter.XYs, len(blobs))
	for i, b := range blobs {
		pts[i].X = float64(b.Y)
		pts[i].Y = float64(b.X)
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to build scatter: %w", err)
	}
	sc.GlyphStyle.Color = color.RGBA{G: 255, A: 255}
	sc.GlyphStyle.Radius = vg.Points(3)
	p.Add(sc)
	return r.save(p, name+".png")
}
