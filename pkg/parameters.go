package mmt

import (
	"fmt"
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// fixed point length scale of the trigger processor
	mmtStructConst = 8192.

	nEtaStations       = 2
	layersPerMultiplet = 4
	nLocalPatterns     = 11
	maxWhich           = 4

	defaultYBins   = 8
	defaultROIStep = 0.0001
)

// Diagnostics counts the clamps applied instead of failing. The counters are
// safe to bump from concurrent hit conversions.
type Diagnostics struct {
	DenominatorClamps atomic.Int64
	NumeratorClamps   atomic.Int64
	StripClamps       atomic.Int64
	BelowThreshold    atomic.Int64
}

// Parameters holds the derived wedge geometry and every lookup table the
// trigger emulation reads. It is built once by NewParameters and is
// read-only afterwards.
type Parameters struct {
	Sector byte
	Setup  string

	H               float64
	CTX, CTUV       int
	CTU, CTV, CT    int
	UVError         float64
	XError          float64
	IsLarge         bool
	DLMNew          bool
	GenBG           bool
	ChargeThreshold float64
	Misal           Align
	Misalign        bool
	Correct         Align
	FillTables      bool

	NStationsEta int
	YBins        int
	NEtaBins     int
	NPhiBins     int
	NThetaROIs   int
	NPhiROIs     int
	DThetaCut    float64
	BCWindow     int

	// wedge shape, mm
	W1, W2, W3, H1    float64
	WedgeOpeningAngle float64 // degrees
	InnerRadius       float64
	InnerRadiusNom    float64
	Pitch             float64
	LWidth            float64
	MissedBottomEta   int
	MissedBottomSt    int

	StripWidth             float64
	StereoDegree           float64
	VerticalStripWidthUV   float64
	ZNominal               []float64
	MidPlaneLarge          float64
	MidPlaneLargeX         float64
	MidPlaneLargeUV        float64
	MinimumLargeTheta      float64
	MaximumLargeTheta      float64
	MinimumLargePhi        float64
	MaximumLargePhi        float64
	SlopeMin, SlopeMax     float64
	HMx, HMy               float64
	MXMin, MXMax           float64
	MYMin, MYMax           float64
	NX, NY                 int
	planesX, planesU       []int
	planesV                []int
	ybases                 [][nEtaStations]float64
	zLarge                 []float64 // [ybin][plane]
	etaBins                []float64
	phiBins                []float64
	pcrepDir, tag          string
	colSkip                int
	acceptanceTol          float64
	Diag                   *Diagnostics
	abFull                 []ABk     // [(ybins+1)^nx], see fullKeyOffset
	akSlim, bkSlim         []float64 // [pattern][ybin][which]
	slimCount              []int     // [pattern][ybin]
	roi                    []ROIPoint
	dtFactors              []DTFactor
	crep                   []float32 // [eta][phi][hits][3]
	ymod, zmod             []float64 // [eta][phi][xplane]
	tablesBuilt, crepFound bool
}

// NewParameters derives the wedge constants from par and the geometry
// provider and, when par.FillVal is set, builds all lookup tables.
// wedgeSize is 'L' or 'S'.
func NewParameters(par ParPar, wedgeSize byte, geo GeometryProvider) (*Parameters, error) {
	if err := par.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if par.Misal.IsNominal() {
		par.Misal.Type = Nominal
	}
	// can still do simulation corrections for nominal
	if par.Corr.IsNominal() && par.Corr.Type == Corrected {
		par.Corr.Type = Nominal
	}
	// a nominal alignment carries no offsets whatever the fields say
	if par.Misal.Type == Nominal {
		par.Misal = NewAlign(Nominal, r3.Vec{}, r3.Vec{})
	}
	if par.Corr.Type == Nominal {
		par.Corr = NewAlign(Nominal, r3.Vec{}, r3.Vec{})
	}

	p := &Parameters{
		Sector:          wedgeSize,
		Setup:           par.Setup,
		H:               par.H,
		CTX:             par.CTX,
		CTUV:            par.CTUV,
		UVError:         par.UVError,
		IsLarge:         par.IsLarge,
		DLMNew:          par.DLM,
		GenBG:           par.GenBG,
		ChargeThreshold: par.Qt,
		Misal:           par.Misal,
		Misalign:        par.Misal.Type == Misaligned,
		Correct:         par.Corr,
		FillTables:      par.FillVal,
		NEtaBins:        10,
		NPhiBins:        10,
		DThetaCut:       0.016,
		YBins:           par.YBins,
		pcrepDir:        par.PcrepDir,
		tag:             par.Tag,
		colSkip:         par.ColSkip,
		acceptanceTol:   par.AcceptanceTol,
		Diag:            &Diagnostics{},
	}
	if p.YBins <= 0 {
		p.YBins = defaultYBins
	}
	p.NStationsEta = 4
	if p.DLMNew {
		p.NStationsEta = 2
	}
	p.planesX, _ = qPlanes(p.Setup, "x")
	p.planesU, _ = qPlanes(p.Setup, "u")
	p.planesV, _ = qPlanes(p.Setup, "v")

	wedge := wedgeName(wedgeSize)
	if !p.IsLarge {
		logger.Warning("small wedge parameters are not validated yet", "parameters")
	}

	roBottom, err := readoutParameters(geo, wedge, 1)
	if err != nil {
		return nil, err
	}
	roTop, err := readoutParameters(geo, wedge, 2)
	if err != nil {
		return nil, err
	}
	p.Pitch = roBottom.StripPitch
	p.LWidth = roTop.LWidth
	p.MissedBottomEta = roBottom.NMissedBottomEta
	p.MissedBottomSt = roBottom.NMissedBottomStereo
	if configuration.Verbosity > 1 {
		message := fmt.Sprintf("%s bottom: pitch %g, (top, bottom, length) (%g, %g, %g), distance from z axis %g",
			wedge, roBottom.StripPitch, roBottom.LWidth, roBottom.SWidth, roBottom.RoLength, roBottom.DistanceFromZAxis)
		logger.Info(message, "parameters")
		message = fmt.Sprintf("%s top: pitch %g, (top, bottom, length) (%g, %g, %g), stereo %v",
			wedge, roTop.StripPitch, roTop.LWidth, roTop.SWidth, roTop.RoLength, roTop.StereoAngle)
		logger.Info(message, "parameters")
	}

	p.W1 = roTop.LWidth
	p.W2 = roTop.LWidth / math.Cos(roTop.StereoAngle[3])
	p.W3 = roBottom.SWidth
	p.H1 = roTop.RoLength + roBottom.RoLength + 5.0
	p.WedgeOpeningAngle = 33.

	positions, err := geo.FirstStripPositions(wedge, 1)
	if err != nil {
		return nil, &ErrGeometry{Wedge: wedge, Eta: 1, Err: err}
	}
	p.ZNominal = make([]float64, len(positions))
	for i, pos := range positions {
		p.ZNominal[i] = pos.Z
	}
	if len(p.ZNominal) != len(p.Setup) {
		logger.Warning(fmt.Sprintf("number of planes in setup is %d, but we have %d nominal planes",
			len(p.Setup), len(p.ZNominal)), "parameters")
		return nil, &ErrPlaneCount{Setup: p.Setup, Planes: len(p.ZNominal)}
	}

	p.MidPlaneLarge = mean(p.ZNominal, nil)
	p.MidPlaneLargeX = mean(p.ZNominal, p.planesX)
	p.MidPlaneLargeUV = mean(p.ZNominal, append(append([]int{}, p.planesU...), p.planesV...))

	p.InnerRadius = roBottom.DistanceFromZAxis
	p.InnerRadiusNom = roBottom.DistanceFromZAxis

	p.StripWidth = roTop.StripPitch
	p.StereoDegree = roTop.StereoAngle[2] * 180. / math.Pi
	p.VerticalStripWidthUV = p.StripWidth / math.Cos(roTop.StereoAngle[2])

	xeta, err := p.fillYBases(geo, wedge)
	if err != nil {
		return nil, err
	}
	p.fillZLarge()

	// table generator steps, mm/mm
	step := par.ROIStep
	if step <= 0 {
		step = defaultROIStep
	}
	p.HMx, p.HMy = step, step
	front, back := p.ZNominal[0], p.ZNominal[len(p.ZNominal)-1]
	p.MYMax = (p.InnerRadiusNom + p.H1) / front
	p.MYMin = p.InnerRadius / back
	p.MXMax = (p.W2 / 2.) / front
	p.MXMin = (p.W2 / -2.) / back
	p.NX = int(math.Ceil((p.MXMax - p.MXMin) / p.HMx))
	p.NY = int(math.Ceil((p.MYMax - p.MYMin) / p.HMy))

	tol := par.AcceptanceTol
	p.MinimumLargeTheta = math.Atan(p.InnerRadius/back) + tol
	p.MaximumLargeTheta = math.Atan(math.Sqrt(math.Pow(p.InnerRadiusNom+p.H1, 2)+0.25*math.Pow(p.W1, 2))/back) - tol
	p.MinimumLargePhi = -math.Pi/180.*0.5*p.WedgeOpeningAngle + tol
	p.MaximumLargePhi = math.Pi/180.*(0.5*p.WedgeOpeningAngle) - tol

	p.fillEtaPhiBins(par.PlaneEtaBins, xeta)

	p.NThetaROIs = 32
	p.NPhiROIs = 16

	p.SlopeMax = math.Tan(p.MaximumLargeTheta)
	p.SlopeMin = math.Tan(p.MinimumLargeTheta)

	p.CTU = 0
	p.CTV = 0
	p.CT = p.CTX + p.CTUV
	p.XError = .0035
	p.BCWindow = 2

	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("wedge %c: %d planes %q, theta [%g, %g], phi [%g, %g], slope grid %dx%d",
			wedgeSize, len(p.Setup), p.Setup, p.MinimumLargeTheta, p.MaximumLargeTheta,
			p.MinimumLargePhi, p.MaximumLargePhi, p.NX, p.NY)
		logger.Info(message, "parameters")
	}

	if p.FillTables {
		if err := p.localSlopeAB(); err != nil {
			return nil, fmt.Errorf("error building local slope tables: %w", err)
		}
		p.slopeComponentsROI()
		p.deltaThetaOptimizationLG()
		if p.Correct.Type == CorrectedSim {
			if err := p.fillCrepTable(p.pcrepDir, p.tag); err != nil {
				return nil, fmt.Errorf("error reading simulation correction table: %w", err)
			}
		}
		p.fillYZMod()
		p.tablesBuilt = true
	}
	return p, nil
}

func readoutParameters(geo GeometryProvider, wedge string, eta int) (ReadoutParameters, error) {
	ro, err := geo.ReadoutParameters(wedge, eta)
	if err != nil {
		return ro, &ErrGeometry{Wedge: wedge, Eta: eta, Err: err}
	}
	if len(ro.StereoAngle) < layersPerMultiplet {
		return ro, &ErrReadoutParameters{Wedge: wedge, Eta: eta,
			Reason: fmt.Sprintf("%d stereo angles, need %d", len(ro.StereoAngle), layersPerMultiplet)}
	}
	if math.Cos(ro.StereoAngle[2]) == 0 || math.Cos(ro.StereoAngle[3]) == 0 {
		return ro, &ErrReadoutParameters{Wedge: wedge, Eta: eta, Reason: "stereo angle of 90 degrees"}
	}
	return ro, nil
}

func mean(values []float64, idx []int) float64 {
	if idx == nil {
		if len(values) == 0 {
			return 0
		}
		sum := 0.
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	}
	if len(idx) == 0 {
		return 0
	}
	sum := 0.
	for _, i := range idx {
		sum += values[i]
	}
	return sum / float64(len(idx))
}

// fillYBases stores the radial position of every plane's first strip at the
// wedge centre line, per eta station. The returned slice holds the x-plane
// radial position of each station, bottom first.
func (p *Parameters) fillYBases(geo GeometryProvider, wedge string) ([]float64, error) {
	p.ybases = make([][nEtaStations]float64, len(p.Setup))
	// positions are given for phi sector 1; small sectors are rotated back
	// by 1/16 of a turn so x runs up the wedge
	cosRot := math.Cos(-2 * math.Pi / 16.)
	sinRot := math.Sin(-2 * math.Pi / 16.)

	xeta := make([]float64, 0, nEtaStations)
	for eta := 1; eta <= nEtaStations; eta++ {
		positions, err := geo.FirstStripPositions(wedge, eta)
		if err != nil {
			return nil, &ErrGeometry{Wedge: wedge, Eta: eta, Err: err}
		}
		if len(positions) != len(p.Setup) {
			return nil, &ErrPlaneCount{Setup: p.Setup, Planes: len(positions)}
		}
		firstX := true
		for plane, pos := range positions {
			x, y := pos.X, pos.Y
			if wedge == "MMS" {
				x = pos.X*cosRot - pos.Y*sinRot
				y = pos.X*sinRot + pos.Y*cosRot
			}
			stAngle := 0.
			switch {
			case p.IsU(plane):
				stAngle = -math.Abs(p.StereoDegree)
			case p.IsV(plane):
				stAngle = math.Abs(p.StereoDegree)
			}
			// walk from the strip centre to the wedge centre line
			radial := math.Abs(x - y*math.Tan(stAngle*math.Pi/180.))
			p.ybases[plane][eta-1] = radial
			if p.IsX(plane) && firstX {
				xeta = append(xeta, radial)
				firstX = false
			}
		}
	}
	return xeta, nil
}

// fillZLarge puts the plane z positions at evenly spaced y points so a
// rotation about the local x axis gives a y dependent z.
func (p *Parameters) fillZLarge() {
	nplanes := len(p.ZNominal)
	p.zLarge = make([]float64, p.YBins*nplanes)
	pitchF := math.Sin(p.Correct.Rotate.X) * p.H1 / float64(p.YBins)
	if configuration.Verbosity > 1 {
		message := fmt.Sprintf("correct.rotate.X=%g, correct.translate.Z=%g, pitch_f=%g",
			p.Correct.Rotate.X, p.Correct.Translate.Z, pitchF)
		logger.Info(message, "parameters")
	}
	for iy := 0; iy < p.YBins; iy++ {
		// the misalignment z axis points against the wedge z axis
		overF := pitchF*float64(iy) - p.Correct.Translate.Z
		overB := 0.
		for jp := 0; jp < nplanes; jp++ {
			z := p.ZNominal[jp]
			if jp < layersPerMultiplet {
				z += overF
			} else {
				z += overB
			}
			p.zLarge[iy*nplanes+jp] = z
		}
	}
}

func (p *Parameters) fillEtaPhiBins(planeBased bool, xeta []float64) {
	phiseg := (p.MaximumLargePhi - p.MinimumLargePhi) / float64(p.NPhiBins)
	p.phiBins = make([]float64, 0, p.NPhiBins+1)
	for i := 0; i <= p.NPhiBins; i++ {
		p.phiBins = append(p.phiBins, p.MinimumLargePhi+phiseg*float64(i))
	}

	etalo := -math.Log(math.Tan(0.5 * p.MaximumLargeTheta))
	etahi := -math.Log(math.Tan(0.5 * p.MinimumLargeTheta))
	if planeBased && len(xeta) > 0 {
		p.NEtaBins = len(xeta)
		p.etaBins = []float64{etalo}
		for i := len(xeta) - 1; i >= 0; i-- {
			p.etaBins = append(p.etaBins, math.Asinh(p.ZNominal[0]/xeta[i]))
		}
		return
	}
	increment := (etahi - etalo) / float64(p.NEtaBins)
	p.etaBins = make([]float64, 0, p.NEtaBins+1)
	for i := 0; i <= p.NEtaBins; i++ {
		p.etaBins = append(p.etaBins, etalo+increment*float64(i))
	}
}

func (p *Parameters) IsX(plane int) bool { return contains(p.planesX, plane) }
func (p *Parameters) IsU(plane int) bool { return contains(p.planesU, plane) }
func (p *Parameters) IsV(plane int) bool { return contains(p.planesV, plane) }

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func (p *Parameters) QPlanes(planeType string) ([]int, error) {
	return qPlanes(p.Setup, planeType)
}

func (p *Parameters) NPlanes() int {
	return len(p.Setup)
}

// ParamPar rebuilds the configuration record the parameters describe.
func (p *Parameters) ParamPar() ParPar {
	return ParPar{
		H:        p.H,
		CTX:      p.CTX,
		CTUV:     p.CTUV,
		UVError:  p.UVError,
		Setup:    p.Setup,
		IsLarge:  p.IsLarge,
		DLM:      p.DLMNew,
		GenBG:    p.GenBG,
		Qt:       p.ChargeThreshold,
		Misal:    p.Misal,
		Corr:     p.Correct,
		FillVal:  p.FillTables,
		ColSkip:  p.colSkip,
		PcrepDir: p.pcrepDir,
		Tag:      p.tag,
		YBins:    p.YBins,
		ROIStep:  p.HMx,

		AcceptanceTol: p.acceptanceTol,
	}
}

// YFromEtaWedge assumes the wedge shape: the average x^2 is 1/3 y^2 tan^2(stereo).
func (p *Parameters) YFromEtaWedge(eta float64, plane int) float64 {
	z := p.ZNominal[plane]
	zeta := math.Pi / 180. * (0.5 * p.StereoDegree)
	return z * math.Tan(2*math.Atan(math.Exp(-eta))) / math.Sqrt(1+math.Tan(zeta)*math.Tan(zeta)/3.)
}

func (p *Parameters) EtaWedgeFromY(y float64, plane int) float64 {
	z := p.ZNominal[plane]
	zeta := math.Pi / 180. * (0.5 * p.StereoDegree)
	return -math.Log(math.Tan(0.5 * math.Atan(y/z*math.Sqrt(1+math.Tan(zeta)*math.Tan(zeta)/3.))))
}

// YBin returns the vertical bin of y on plane. Values below the plane base
// go to bin 0 and values at or above the top go to the last bin.
func (p *Parameters) YBin(y float64, plane int) int {
	if plane < 0 || plane >= len(p.ybases) {
		return 0
	}
	base := p.ybases[plane][0]
	segLen := p.H1 / float64(p.YBins)
	for i := 0; i <= p.YBins; i++ {
		if y < base+segLen*float64(i) {
			if i == 0 {
				return 0
			}
			return i - 1
		}
	}
	return p.YBins - 1
}

// EtaBin is binned on theta at the interaction point. The sentinels -999 and
// -16 give -1.
func (p *Parameters) EtaBin(theta float64) int {
	if theta == -999 || theta == -16 {
		return -1
	}
	eta := -math.Log(math.Tan(0.5 * theta))
	ebin := -999
	for i := 0; i <= p.NEtaBins; i++ {
		if eta < p.etaBins[i] {
			ebin = i - 1
			break
		}
	}
	switch ebin {
	case -1:
		return 0
	case -999:
		return p.NEtaBins - 1
	}
	return ebin
}

func (p *Parameters) EtaStr(eta int) string {
	if eta >= 0 && eta < p.NEtaBins {
		return "_eta" + formatG(p.etaBins[eta]) + "_" + formatG(p.etaBins[eta+1])
	}
	return "_etaall"
}

// PhiBin sends the sentinels -999 and -16 to the middle bin.
func (p *Parameters) PhiBin(phi float64) int {
	if phi == -999 || phi == -16 {
		return p.NPhiBins / 2
	}
	pbin := -999
	for i := 0; i <= p.NPhiBins; i++ {
		if phi < p.phiBins[i] {
			pbin = i - 1
			break
		}
	}
	switch pbin {
	case -1:
		return 0
	case -999:
		return p.NPhiBins - 1
	}
	return pbin
}

func (p *Parameters) PhiStr(phi int) string {
	if phi >= 0 && phi < p.NPhiBins {
		return "_phi" + formatG(p.phiBins[phi]) + "_" + formatG(p.phiBins[phi+1])
	}
	return "_phiall"
}

func (p *Parameters) EtaBins() []float64 {
	return append([]float64(nil), p.etaBins...)
}

func (p *Parameters) PhiBins() []float64 {
	return append([]float64(nil), p.phiBins...)
}

// ZLarge returns the y-bin dependent z of a plane.
func (p *Parameters) ZLarge(ybin, plane int) float64 {
	return p.zLarge[ybin*len(p.ZNominal)+plane]
}

// YBase returns the radial offset of a plane for eta station index 0 or 1.
func (p *Parameters) YBase(plane, eta int) float64 {
	return p.ybases[plane][eta]
}

func (p *Parameters) TablesBuilt() bool {
	return p.tablesBuilt
}
