package sim

import (
	"fmt"
	"image/color"
	"math"

	"github.com/milosgajdos/go-vloc/smap"
	"github.com/milosgajdos/go-vloc/transf"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Chi2Conf95 is the 95% quantile of the chi-square distribution with 2 degrees of freedom
const Chi2Conf95 = 5.991464547107979

// NewMapPlot creates new plot of a localization run from the following data:
// m:     segment map
// truth: true robot path
// est:   estimated robot path
// scan:  laser points in the world frame
// cov:   covariance of the last estimate
// Paths, scan and covariance may be empty or nil.
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * the map is nil
// * the covariance ellipse can not be computed
// * gonum plot fails to be created
func NewMapPlot(m *smap.Map, truth, est []transf.Transf, scan plotter.XYs, cov mat.Symmetric) (*plot.Plot, error) {
	if m == nil {
		return nil, fmt.Errorf("invalid map supplied")
	}

	p := plot.New()

	p.Title.Text = "Localization"
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	// Make a line plotter for every map segment
	for i := 0; i < m.Len(); i++ {
		x1, y1, x2, y2 := m.Endpoints(i)
		seg, err := plotter.NewLine(plotter.XYs{{X: x1, Y: y1}, {X: x2, Y: y2}})
		if err != nil {
			return nil, err
		}
		seg.LineStyle.Width = vg.Points(2)
		seg.LineStyle.Color = color.Black

		p.Add(seg)
		if i == 0 {
			p.Legend.Add("map", seg)
		}
	}

	// Make a scatter plotter for laser points
	if len(scan) > 0 {
		scanScatter, err := plotter.NewScatter(scan)
		if err != nil {
			return nil, err
		}
		scanScatter.GlyphStyle.Color = color.RGBA{B: 255, A: 128}
		scanScatter.GlyphStyle.Radius = vg.Points(1)

		p.Add(scanScatter)
		p.Legend.Add("scan", scanScatter)
	}

	// Make a line plotter for the true path
	if len(truth) > 0 {
		truthLine, err := plotter.NewLine(makePoints(truth))
		if err != nil {
			return nil, err
		}
		truthLine.LineStyle.Color = color.RGBA{G: 160, A: 255}

		p.Add(truthLine)
		p.Legend.Add("truth", truthLine)
	}

	// Make a line plotter for the estimated path
	if len(est) > 0 {
		estLine, err := plotter.NewLine(makePoints(est))
		if err != nil {
			return nil, fmt.Errorf("failed to create line: %v", err)
		}
		estLine.LineStyle.Color = color.RGBA{R: 255, A: 255}
		estLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

		p.Add(estLine)
		p.Legend.Add("estimate", estLine)

		last := est[len(est)-1]
		pose, err := plotter.NewScatter(plotter.XYs{{X: last.X, Y: last.Y}})
		if err != nil {
			return nil, err
		}
		pose.GlyphStyle.Color = color.RGBA{R: 255, A: 255}
		pose.Shape = draw.CrossGlyph{}
		pose.GlyphStyle.Radius = vg.Points(3)
		p.Add(pose)

		// Make a line plotter for 95% confidence ellipse of the last estimate
		if cov != nil {
			pts, err := Ellipse(last, cov, Chi2Conf95, 64)
			if err != nil {
				return nil, err
			}
			ellipse, err := plotter.NewLine(pts)
			if err != nil {
				return nil, err
			}
			ellipse.LineStyle.Color = color.RGBA{R: 169, G: 169, B: 169, A: 255}

			p.Add(ellipse)
			p.Legend.Add("95% confidence", ellipse)
		}
	}

	p.Add(plotter.NewGrid())

	return p, nil
}

// Ellipse returns n points of the confidence ellipse x'*C^-1*x = k centered at c,
// where C is the position block of cov. The first and the last point coincide.
// It returns error if cov is smaller than 2x2, n is smaller than 3 or C fails to factorize.
func Ellipse(c transf.Transf, cov mat.Symmetric, k float64, n int) (plotter.XYs, error) {
	if cov == nil || cov.SymmetricDim() < 2 {
		return nil, fmt.Errorf("invalid covariance supplied")
	}

	if n < 3 {
		return nil, fmt.Errorf("invalid number of ellipse points: %d", n)
	}

	xy := mat.NewSymDense(2, []float64{
		cov.At(0, 0), cov.At(0, 1),
		cov.At(1, 0), cov.At(1, 1),
	})

	var es mat.EigenSym
	if ok := es.Factorize(xy, true); !ok {
		return nil, fmt.Errorf("failed to factorize covariance")
	}

	vals := es.Values(nil)
	vecs := &mat.Dense{}
	es.VectorsTo(vecs)

	// semi-axes
	a := math.Sqrt(k * math.Max(vals[0], 0))
	b := math.Sqrt(k * math.Max(vals[1], 0))

	pts := make(plotter.XYs, n)
	for i := range pts {
		s, co := math.Sincos(2 * math.Pi * float64(i) / float64(n-1))
		pts[i].X = c.X + a*co*vecs.At(0, 0) + b*s*vecs.At(0, 1)
		pts[i].Y = c.Y + a*co*vecs.At(1, 0) + b*s*vecs.At(1, 1)
	}

	return pts, nil
}

// ScanPoints returns the laser readings shorter than maxRange as points in the world frame
// given the robot pose and the laser mount pose.
func ScanPoints(pose, laser transf.Transf, ranges, bearings []float64, maxRange float64) plotter.XYs {
	wl := transf.Compose(pose, laser)

	pts := make(plotter.XYs, 0, len(ranges))
	for i, rho := range ranges {
		if i >= len(bearings) || !(rho < maxRange) {
			continue
		}
		s, c := math.Sincos(bearings[i])
		wp := transf.Compose(wl, transf.New(rho*c, rho*s, 0))
		pts = append(pts, plotter.XY{X: wp.X, Y: wp.Y})
	}

	return pts
}

func makePoints(path []transf.Transf) plotter.XYs {
	pts := make(plotter.XYs, len(path))
	for i, t := range path {
		pts[i].X = t.X
		pts[i].Y = t.Y
	}

	return pts
}
