package mmt

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	roiPhiSentinel   = 999.
	roiThetaSentinel = 0.

	numberLGRegions = 256
	lgMin           = 0.
	lgMax           = 0.5
)

// ROIPoint is one cell of the slope to angle table. Phi is 999 and theta
// is 0 where the slope falls outside the wedge acceptance.
type ROIPoint struct {
	Theta float64
	Phi   float64
}

func (r ROIPoint) InAcceptance() bool {
	return r.Theta != roiThetaSentinel && r.Phi != roiPhiSentinel
}

// DTFactor is one delta-theta bucket: the lower LG bound and the multiplier
// that replaces the division.
type DTFactor struct {
	LG   float64
	Mult float64
}

// slopeComponentsROI fills the (M_x, M_y) grid. M_x is the slope across the
// wedge and M_y the radial slope, so phi = atan2(M_x, M_y) is measured from
// the wedge centre line. Swapping the arguments puts every cell outside the
// phi acceptance.
func (p *Parameters) slopeComponentsROI() {
	p.roi = make([]ROIPoint, p.NX*p.NY)
	for ix := 0; ix < p.NX; ix++ {
		for jy := 0; jy < p.NY; jy++ {
			xdex, ydex := ix, jy+1
			if xdex == 0 {
				xdex++
			}
			mx := p.MXMin + p.HMx*float64(xdex)
			my := p.MYMin + p.HMy*float64(ydex)

			theta := math.Atan(math.Sqrt(mx*mx + my*my))
			phi := math.Atan2(mx, my)
			if p.MinimumLargePhi > phi || p.MaximumLargePhi < phi {
				phi = roiPhiSentinel
			}
			if p.MinimumLargeTheta > theta || p.MaximumLargeTheta < theta {
				theta = roiThetaSentinel
			}
			p.roi[jy*p.NX+ix] = ROIPoint{Theta: theta, Phi: phi}
		}
	}
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("slope to ROI table: %d x %d", p.NY, p.NX), "roi")
	}
}

// ROIAt returns the cell at x index ix and y index jy.
func (p *Parameters) ROIAt(ix, jy int) (ROIPoint, bool) {
	if ix < 0 || ix >= p.NX || jy < 0 || jy >= p.NY || len(p.roi) == 0 {
		return ROIPoint{}, false
	}
	return p.roi[jy*p.NX+ix], true
}

// ROIIndex returns the grid indices of the cell nearest to (mx, my).
func (p *Parameters) ROIIndex(mx, my float64) (ix, jy int, ok bool) {
	ix = int(math.Round((mx - p.MXMin) / p.HMx))
	jy = int(math.Round((my-p.MYMin)/p.HMy)) - 1
	if ix < 0 || ix >= p.NX || jy < 0 || jy >= p.NY {
		return 0, 0, false
	}
	return ix, jy, true
}

// ROISlopes returns the (M_x, M_y) a cell was computed at.
func (p *Parameters) ROISlopes(ix, jy int) (mx, my float64) {
	if ix == 0 {
		ix++
	}
	return p.MXMin + p.HMx*float64(ix), p.MYMin + p.HMy*float64(jy+1)
}

func (p *Parameters) deltaThetaOptimizationLG() {
	a := 1.
	width := (lgMax - lgMin) / numberLGRegions
	p.dtFactors = make([]DTFactor, numberLGRegions)
	for i := range p.dtFactors {
		lg := lgMin + width*float64(i)
		p.dtFactors[i] = DTFactor{LG: lg, Mult: 1. / (lg/a + a)}
	}
}

func (p *Parameters) DTFactors() []DTFactor {
	return append([]DTFactor(nil), p.dtFactors...)
}

// DTMultiplier returns the multiplier of the bucket holding lg. Values
// outside [0, 0.5) use the first or last bucket.
func (p *Parameters) DTMultiplier(lg float64) float64 {
	if len(p.dtFactors) == 0 {
		return 0
	}
	i := int(math.Floor((lg - lgMin) / ((lgMax - lgMin) / numberLGRegions)))
	i = max(0, min(i, len(p.dtFactors)-1))
	return p.dtFactors[i].Mult
}

func (p *Parameters) crepOffset(eta, phi, k int) int {
	return ((eta*p.NPhiBins+phi)*p.NSimMax1D() + k) * 3
}

func (p *Parameters) crepFileName(dir, tag string) string {
	bill := p.ParamPar()
	bill.CTX = 2
	bill.CTUV = 1
	bill.Corr.Type = Nominal
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return dir + "pcrep" + bill.PrintPars(nil) + "_" + tag + ".txt"
}

// fillCrepTable reads the simulation based correction table. Every entry is
// a title followed by theta, phi and dtheta. A missing file leaves the table
// zero.
func (p *Parameters) fillCrepTable(dir, tag string) error {
	nk := p.NSimMax1D()
	p.crep = make([]float32, p.NEtaBins*p.NPhiBins*nk*3)
	fudge := 1.
	if p.Correct.Translate.Z != 0 || p.Correct.Rotate.X != 0 {
		fudge = 0.5
	}

	filename := p.crepFileName(dir, tag)
	f, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warning(fmt.Sprintf("no simulation correction table %s, using zeros", filename), "roi")
		return nil
	}
	if err != nil {
		return &ErrOpenFile{Filename: filename, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Split(bufio.ScanWords)
	next := func() (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("unexpected end of %s", filename)
		}
		return scanner.Text(), nil
	}
	nextFloat := func() (float64, error) {
		token, err := next()
		if err != nil {
			return 0, err
		}
		return strconv.ParseFloat(token, 64)
	}

	for i := 0; i < p.NEtaBins; i++ {
		estr := p.EtaStr(i)
		for j := 0; j < p.NPhiBins; j++ {
			pstr := p.PhiStr(j)
			for k := 0; k < nk; k++ {
				want := estr + pstr + p.IndexToHitStr(k)
				title, err := next()
				if err != nil {
					return err
				}
				if title != want {
					return fmt.Errorf("wrong entry in %s: want %s, got %s", filename, want, title)
				}
				var vals [3]float64
				for v := range vals {
					if vals[v], err = nextFloat(); err != nil {
						return fmt.Errorf("error reading %s for %s: %w", filename, want, err)
					}
				}
				off := p.crepOffset(i, j, k)
				p.crep[off] = float32(vals[0] * fudge)
				p.crep[off+1] = float32(vals[1])
				p.crep[off+2] = float32(vals[2] * fudge)
			}
		}
	}
	p.crepFound = true
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("read simulation correction table %s", filename), "roi")
	}
	return nil
}

// CrepEntry returns (theta, phi, dtheta) for an eta bin, phi bin and plane
// occupancy index.
func (p *Parameters) CrepEntry(eta, phi, k int) ([3]float32, bool) {
	if len(p.crep) == 0 || eta < 0 || eta >= p.NEtaBins || phi < 0 || phi >= p.NPhiBins || k < 0 || k >= p.NSimMax1D() {
		return [3]float32{}, false
	}
	off := p.crepOffset(eta, phi, k)
	return [3]float32{p.crep[off], p.crep[off+1], p.crep[off+2]}, true
}

// CrepLoaded reports whether a correction table file was read.
func (p *Parameters) CrepLoaded() bool {
	return p.crepFound
}

// fillYZMod computes the y and z shifts of the front multiplet X planes for
// a corrected alignment, at the low eta edge and phi centre of each bin.
func (p *Parameters) fillYZMod() {
	nxp := len(p.planesX)
	p.ymod = make([]float64, p.NEtaBins*p.NPhiBins*nxp)
	p.zmod = make([]float64, p.NEtaBins*p.NPhiBins*nxp)
	if p.Correct.Type != Corrected {
		return
	}
	pbump := 0.5 * (p.MaximumLargePhi - p.MinimumLargePhi) / float64(p.NPhiBins)
	alpha := p.Correct.Rotate.Z
	beta := p.Correct.Rotate.Y
	for et := 0; et < p.NEtaBins; et++ {
		theta := 2 * math.Atan(math.Exp(-p.etaBins[et]))
		for ph := 0; ph < p.NPhiBins; ph++ {
			phi := p.phiBins[ph] + pbump
			for pl, plane := range p.planesX {
				if plane >= layersPerMultiplet {
					continue
				}
				zflt := p.ZNominal[plane]
				x := zflt * math.Tan(theta) * math.Sin(phi)
				yflt := zflt * math.Tan(theta) * math.Cos(phi)
				yup := yflt - p.ybases[plane][0]

				// beta: rotation around y, scales z and y with the x offset
				zadd := -math.Tan(beta) * math.Tan(theta) * math.Sin(phi) * zflt / mmtStructConst
				yadd := -math.Tan(beta) * math.Tan(theta) * math.Sin(phi) * yflt / mmtStructConst
				// alpha: rotation around z, z unchanged
				yadd += ((math.Cos(alpha)-1.)*yup + x*math.Sin(alpha)) / mmtStructConst

				off := (et*p.NPhiBins+ph)*nxp + pl
				p.ymod[off] = yadd
				p.zmod[off] = zadd
			}
		}
	}
}

// YZMod returns the y and z modification of X plane index xplane (an index
// into the X planes, not a plane number).
func (p *Parameters) YZMod(eta, phi, xplane int) (y, z float64, ok bool) {
	nxp := len(p.planesX)
	if len(p.ymod) == 0 || eta < 0 || eta >= p.NEtaBins || phi < 0 || phi >= p.NPhiBins || xplane < 0 || xplane >= nxp {
		return 0, 0, false
	}
	off := (eta*p.NPhiBins+phi)*nxp + xplane
	return p.ymod[off], p.zmod[off], true
}
