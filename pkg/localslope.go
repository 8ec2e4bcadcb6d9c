package mmt

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ABk is the least-squares coefficient pair of one hit-bin combination.
// A is the number of hits over the summed scaled z, B is the summed scaled
// z over the regression denominator.
type ABk struct {
	A float64
	B float64
}

// toggleKey advances key like an odometer over [lo, hi], rightmost digit
// fastest. It returns true once every position already holds hi, leaving
// key untouched.
func toggleKey(key []int, lo, hi int) bool {
	for idx := len(key) - 1; idx >= 0; idx-- {
		if key[idx] == hi {
			continue
		}
		key[idx]++
		for reset := idx + 1; reset < len(key); reset++ {
			key[reset] = lo
		}
		return false
	}
	return true
}

// AkBkHitBins computes the coefficient pair for one entry per X plane.
// Entries outside [0, ybins) mean the plane has no hit. Denominators and
// sums below 1e-10 in magnitude are replaced by 1e-10.
func (p *Parameters) AkBkHitBins(hits []int) (ABk, error) {
	if len(hits) != len(p.planesX) {
		return ABk{}, &ErrXPlaneCount{Want: len(p.planesX), Got: len(hits)}
	}
	xs := make([]float64, 0, len(hits))
	for i, bin := range hits {
		if bin < 0 || bin >= p.YBins {
			continue
		}
		xs = append(xs, p.ZLarge(bin, p.planesX[i])/mmtStructConst)
	}
	nhits := float64(len(xs))
	sumX := floats.Sum(xs)
	sumXX := floats.Dot(xs, xs)

	diff := nhits*sumXX - sumX*sumX
	if math.Abs(diff) < 1e-10 {
		p.Diag.DenominatorClamps.Add(1)
		if configuration.Verbosity > 1 {
			logger.Warning(fmt.Sprintf("diff is too small: %g, 1e-10 will be used instead", diff), "localslope")
		}
		diff = 1e-10
	}
	if math.Abs(sumX) < 1e-10 {
		p.Diag.NumeratorClamps.Add(1)
		if configuration.Verbosity > 1 {
			logger.Warning(fmt.Sprintf("sum_x is too small: %g, 1e-10 will be used instead", sumX), "localslope")
		}
		sumX = 1e-10
	}
	return ABk{A: nhits / sumX, B: sumX / diff}, nil
}

func (p *Parameters) localSlopeAB() error {
	if len(p.planesX) != layersPerMultiplet {
		return &ErrXPlaneCount{Want: layersPerMultiplet, Got: len(p.planesX)}
	}
	if err := p.fillFullAkBk(); err != nil {
		return err
	}
	return p.fillSlims()
}

// fullKeyOffset maps a key with digits in [-1, ybins-1] to its row in the
// flat full table.
func (p *Parameters) fullKeyOffset(key []int) (int, bool) {
	if len(key) != len(p.planesX) {
		return 0, false
	}
	offset := 0
	for _, k := range key {
		if k < -1 || k >= p.YBins {
			return 0, false
		}
		offset = offset*(p.YBins+1) + k + 1
	}
	return offset, true
}

func (p *Parameters) fillFullAkBk() error {
	nx := len(p.planesX)
	size := 1
	for i := 0; i < nx; i++ {
		size *= p.YBins + 1
	}
	p.abFull = make([]ABk, size)
	key := make([]int, nx)
	for i := range key {
		key[i] = -1
	}
	for {
		ab, err := p.AkBkHitBins(key)
		if err != nil {
			return err
		}
		offset, _ := p.fullKeyOffset(key)
		p.abFull[offset] = ab
		if toggleKey(key, -1, p.YBins-1) {
			break
		}
	}
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("full local slope table: %d hit bin combinations", size), "localslope")
	}
	return nil
}

func (p *Parameters) slimOffset(xdex, ybin, which int) int {
	return (xdex*p.YBins+ybin)*maxWhich + which
}

func (p *Parameters) fillSlims() error {
	p.akSlim = make([]float64, nLocalPatterns*p.YBins*maxWhich)
	p.bkSlim = make([]float64, nLocalPatterns*p.YBins*maxWhich)
	p.slimCount = make([]int, nLocalPatterns*p.YBins)
	for xdex := 0; xdex < nLocalPatterns; xdex++ {
		xhits, err := LclIntToXhits(xdex)
		if err != nil {
			return err
		}
		ntru := 0
		for _, hit := range xhits {
			if hit {
				ntru++
			}
		}
		for ybin := 0; ybin < p.YBins; ybin++ {
			// no upper neighbour to straddle into
			if ybin == p.YBins-1 {
				ntru = 1
			}
			for which := 0; which < ntru; which++ {
				key, err := p.IndicesToKey(xdex, ybin, which)
				if err != nil {
					return err
				}
				ab, err := p.AkBkHitBins(key)
				if err != nil {
					return err
				}
				if configuration.Verbosity > 2 {
					message := fmt.Sprintf("xdex=%d ybin=%d which=%d key=%v ak=%.8g bk=%.8g", xdex, ybin, which, key, ab.A, ab.B)
					logger.Info(message, "localslope")
				}
				off := p.slimOffset(xdex, ybin, which)
				p.akSlim[off] = ab.A
				p.bkSlim[off] = ab.B
			}
			p.slimCount[xdex*p.YBins+ybin] = ntru
		}
	}
	return nil
}

// IndicesToKey expands a slim table address into a full hit-bin key. Planes
// absent from pattern xdex get -1; the hits from position which onwards sit
// one bin higher. which 0 keeps every hit in ybin.
func (p *Parameters) IndicesToKey(xdex, ybin, which int) ([]int, error) {
	xhits, err := LclIntToXhits(xdex)
	if err != nil {
		return nil, err
	}
	key := make([]int, len(xhits))
	raiseIt := which
	if which == 0 {
		raiseIt = len(xhits)
	}
	count := 0
	for i, hit := range xhits {
		key[i] = -1
		if !hit {
			continue
		}
		key[i] = ybin
		if count >= raiseIt {
			key[i]++
		}
		count++
	}
	return key, nil
}

// KeyToIndices is the inverse of IndicesToKey. Keys that are not a single
// upward step between two adjacent bins are read as all hits in the bin of
// the first hit. xdex is -999 for a hit pattern outside the eleven coded
// ones and ybin is -999 for a key with no hits.
func (p *Parameters) KeyToIndices(key []int) (xdex, ybin, which int) {
	hit := make([]bool, len(key))
	wasHit := make([]int, 0, len(key))
	for i, k := range key {
		hit[i] = k >= 0 && k < p.YBins
		if hit[i] {
			wasHit = append(wasHit, k)
		}
	}
	even := true
	devPos, devBin := 0, -1
	for i, k := range wasHit {
		if k == wasHit[0] {
			continue
		}
		if even {
			devPos = i
			if k != wasHit[0]+1 {
				devPos = -2
				break
			}
			devBin = k
		} else if k != devBin {
			devPos = -2
			break
		}
		even = false
	}
	if devPos < 0 || devPos >= len(hit) {
		which = 0
	} else {
		which = devPos
	}
	xdex = XhitsToLclInt(hit)
	ybin = -999
	if len(wasHit) > 0 {
		ybin = wasHit[0]
	}
	return xdex, ybin, which
}

// LclIntToXhits decodes one of the eleven X-plane hit patterns: 0 is all
// four planes, 1-4 miss one plane and 5-10 miss two.
func LclIntToXhits(lclInt int) ([]bool, error) {
	xhits := []bool{true, true, true, true}
	if lclInt < 0 || lclInt > 10 {
		return nil, &ErrLocalIndex{Index: lclInt}
	}
	switch lclInt {
	case 1, 5, 6, 8:
		xhits[3] = false
	}
	switch lclInt {
	case 2, 5, 7, 9:
		xhits[2] = false
	}
	switch lclInt {
	case 3, 6, 7, 10:
		xhits[1] = false
	}
	switch lclInt {
	case 4, 8, 9, 10:
		xhits[0] = false
	}
	return xhits, nil
}

var lclPatterns = [nLocalPatterns][4]bool{
	{true, true, true, true},
	{true, true, true, false},
	{true, true, false, true},
	{true, false, true, true},
	{false, true, true, true},
	{true, true, false, false},
	{true, false, true, false},
	{true, false, false, true},
	{false, true, true, false},
	{false, true, false, true},
	{false, false, true, true},
}

// XhitsToLclInt encodes a four entry X-plane hit pattern. It returns -999
// for the wrong length or for a pattern with fewer than two hits.
func XhitsToLclInt(xhits []bool) int {
	if len(xhits) != 4 {
		logger.Warning(fmt.Sprintf("there should be 4 x planes, got %d", len(xhits)), "localslope")
		return -999
	}
	for i, pattern := range lclPatterns {
		if pattern[0] == xhits[0] && pattern[1] == xhits[1] && pattern[2] == xhits[2] && pattern[3] == xhits[3] {
			return i
		}
	}
	return -999
}

func LclIntToXhitStr(lclInt int) (string, error) {
	xhits, err := LclIntToXhits(lclInt)
	if err != nil {
		return "", err
	}
	return "_x" + hitStr(xhits), nil
}

// FullAkBk looks up the full table, built only when tables are filled.
func (p *Parameters) FullAkBk(key []int) (ABk, bool) {
	offset, ok := p.fullKeyOffset(key)
	if !ok || offset >= len(p.abFull) {
		return ABk{}, false
	}
	return p.abFull[offset], true
}

// LocalAkBk reads the slim tables. ok is false for an address that was never
// filled.
func (p *Parameters) LocalAkBk(xdex, ybin, which int) (ABk, bool) {
	if xdex < 0 || xdex >= nLocalPatterns || ybin < 0 || ybin >= p.YBins || p.slimCount == nil {
		return ABk{}, false
	}
	if which < 0 || which >= p.slimCount[xdex*p.YBins+ybin] {
		return ABk{}, false
	}
	off := p.slimOffset(xdex, ybin, which)
	return ABk{A: p.akSlim[off], B: p.bkSlim[off]}, true
}

// LocalSlope fits y against z over the X planes with a hit, using the slim
// table for the hit-bin key. ys holds the hit y per X plane in mm and is
// ignored where bins has no hit.
func (p *Parameters) LocalSlope(bins []int, ys []float64) (float64, error) {
	if len(bins) != layersPerMultiplet || len(bins) != len(p.planesX) {
		return 0, &ErrXPlaneCount{Want: len(p.planesX), Got: len(bins)}
	}
	if len(ys) != len(bins) {
		return 0, &ErrXPlaneCount{Want: len(bins), Got: len(ys)}
	}
	xdex, ybin, which := p.KeyToIndices(bins)
	if xdex < 0 {
		return 0, &ErrLocalIndex{Index: xdex}
	}
	ab, ok := p.LocalAkBk(xdex, ybin, which)
	if !ok {
		return 0, fmt.Errorf("no local slope entry for pattern %d, ybin %d, which %d", xdex, ybin, which)
	}
	key, err := p.IndicesToKey(xdex, ybin, which)
	if err != nil {
		return 0, err
	}
	sumY, sumXY := 0., 0.
	for i, bin := range key {
		if bin < 0 {
			continue
		}
		y := ys[i] / mmtStructConst
		sumY += y
		sumXY += y * p.ZLarge(bin, p.planesX[i]) / mmtStructConst
	}
	return ab.B * (ab.A*sumXY - sumY), nil
}
