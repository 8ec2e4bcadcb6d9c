package mmt

import (
	"fmt"
	"path/filepath"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// roiGrid exposes the theta of the slope to ROI table as a plotter.GridXYZ.
type roiGrid struct {
	par *Parameters
}

func (g roiGrid) Dims() (int, int) {
	return g.par.NX, g.par.NY
}

func (g roiGrid) Z(c, r int) float64 {
	cell, _ := g.par.ROIAt(c, r)
	return cell.Theta
}

func (g roiGrid) X(c int) float64 {
	mx, _ := g.par.ROISlopes(c, 0)
	return mx
}

func (g roiGrid) Y(r int) float64 {
	_, my := g.par.ROISlopes(1, r)
	return my
}

// PlotROITheta draws the theta of every slope cell, zero outside the
// acceptance.
func PlotROITheta(par *Parameters, path string) error {
	if len(par.roi) == 0 {
		return fmt.Errorf("slope to ROI table is not filled")
	}
	p := plot.New()
	p.Title.Text = "slope to ROI theta"
	p.X.Label.Text = "M_x"
	p.Y.Label.Text = "M_y"

	colorMap := moreland.ExtendedBlackBody()
	colorMap.SetMin(0)
	colorMap.SetMax(par.MaximumLargeTheta)
	heatMap := plotter.NewHeatMap(roiGrid{par: par}, colorMap.Palette(256))
	heatMap.Min = 0
	heatMap.Max = par.MaximumLargeTheta
	p.Add(heatMap)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("error saving %s: %w", path, err)
	}
	return nil
}

func PlotDTFactors(par *Parameters, path string) error {
	if len(par.dtFactors) == 0 {
		return fmt.Errorf("delta theta table is not filled")
	}
	pts := make(plotter.XYs, len(par.dtFactors))
	for i, f := range par.dtFactors {
		pts[i] = plotter.XY{X: f.LG, Y: f.Mult}
	}
	p := plot.New()
	p.Title.Text = "delta theta multiplier"
	p.X.Label.Text = "LG"
	p.Y.Label.Text = "multiplier"
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("error creating line: %w", err)
	}
	line.Width = vg.Points(1)
	p.Add(line, plotter.NewGrid())

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("error saving %s: %w", path, err)
	}
	return nil
}

// PlotHitSummary writes one slope histogram per plane into dir.
func PlotHitSummary(s *HitSummary, dir string) error {
	for i, h := range s.Slopes {
		if h.Entries() == 0 {
			continue
		}
		p := plot.New()
		p.Title.Text = fmt.Sprintf("plane %d", i)
		p.X.Label.Text = "slope"
		p.Add(hplot.NewH1D(h))
		path := filepath.Join(dir, fmt.Sprintf("slope_plane%d.png", i))
		if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
			return fmt.Errorf("error saving %s: %w", path, err)
		}
	}
	return nil
}
