package mmt

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// HitKey identifies a hit in time. Keys order by BC time, time, global
// time, VMM chip and event, in that order.
type HitKey struct {
	BCTime  int     `json:"bc_time"`
	Time    float64 `json:"time"`
	GTime   float64 `json:"gtime"`
	VMMChip int     `json:"vmm_chip"`
	Event   int     `json:"event"`
}

func (k HitKey) Compare(o HitKey) int {
	switch {
	case k.BCTime != o.BCTime:
		return cmpOrder(k.BCTime < o.BCTime)
	case k.Time != o.Time:
		return cmpOrder(k.Time < o.Time)
	case k.GTime != o.GTime:
		return cmpOrder(k.GTime < o.GTime)
	case k.VMMChip != o.VMMChip:
		return cmpOrder(k.VMMChip < o.VMMChip)
	case k.Event != o.Event:
		return cmpOrder(k.Event < o.Event)
	}
	return 0
}

func cmpOrder(less bool) int {
	if less {
		return -1
	}
	return 1
}

func (k HitKey) Less(o HitKey) bool  { return k.Compare(o) < 0 }
func (k HitKey) Equal(o HitKey) bool { return k.Compare(o) == 0 }

func (k HitKey) Hdr() string {
	return fmt.Sprintf("%12s%12s%12s%12s%12s", "BC_t", "t", "g_t", "VMM", "event")
}

func (k HitKey) String() string {
	return fmt.Sprintf("%12d%12g%12g%12d%12d", k.BCTime, k.Time, k.GTime, k.VMMChip, k.Event)
}

// HitInfo is the geometry of a hit: y and z in mm and slope = y/z.
type HitInfo struct {
	Plane int     `json:"plane"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Slope float64 `json:"slope"`
}

// NewHitInfo places a fired strip on the wedge. thetaPos and phiPos are the
// track angles used for the misalignment shift of the front multiplet.
// A plane outside the setup gives y, z and slope of -999.
func NewHitInfo(plane, stationEta, strip int, par *Parameters, thetaPos, phiPos float64) HitInfo {
	if plane < 0 || plane >= len(par.Setup) {
		return HitInfo{Plane: plane, Y: -999, Z: -999, Slope: -999}
	}
	swidth := par.StripWidth
	if !par.IsX(plane) {
		swidth /= math.Cos(math.Pi / 180. * par.StereoDegree)
	}
	eta := max(0, min(abs(stationEta)-1, nEtaStations-1))
	base := par.ybases[plane][eta]

	deltaY := misDy(plane, par, thetaPos, phiPos)
	y := base + float64(strip)*swidth + deltaY
	// binned on the misaligned y
	bin := par.YBin(y, plane)
	z := par.ZLarge(bin, plane)
	slope := 0.
	if z != 0 {
		slope = y / z
	}
	return HitInfo{Plane: plane, Y: y, Z: z, Slope: slope}
}

// NewHitInfoYZ keeps y and z as given. The slope is -999 when z is 0 or -999.
func NewHitInfoYZ(plane int, y, z float64) HitInfo {
	slope := -999.
	if z != 0 && z != -999 {
		slope = y / z
	}
	return HitInfo{Plane: plane, Y: y, Z: z, Slope: slope}
}

func (h HitInfo) Hdr() string {
	return fmt.Sprintf("%12s%12s%12s%12s", "plane", "y", "z", "slope")
}

func (h HitInfo) String() string {
	return fmt.Sprintf("%12d%12.4g%12.4g%12.4g", h.Plane, h.Y, h.Z, h.Slope)
}

func (h HitInfo) Equal(o HitInfo) bool {
	return h.Plane == o.Plane && h.Y == o.Y && h.Z == o.Z && h.Slope == o.Slope
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// misDy is the y shift, in the wedge local frame, that a rigid misalignment
// of the front multiplet gives a track at (tpos, ppos).
func misDy(plane int, par *Parameters, tpos, ppos float64) float64 {
	if par.Misal.Type != Misaligned || plane >= layersPerMultiplet {
		return 0.
	}
	zplane := par.ZNominal[plane]
	base := par.ybases[plane][0]

	sX0 := zplane * math.Tan(tpos) * math.Sin(ppos)
	sY0 := zplane * math.Tan(tpos) * math.Cos(ppos)

	// track direction
	hatsZ0 := math.Cos(tpos)
	hatsX0 := math.Sin(tpos) * math.Sin(ppos)
	hatsY0 := math.Sin(tpos) * math.Cos(ppos)
	zetaY0 := sY0 - base

	alpha := par.Misal.Rotate.Z
	beta := par.Misal.Rotate.Y
	gamma := par.Misal.Rotate.X
	ds := par.Misal.Translate.X
	dz := par.Misal.Translate.Y
	dt := -par.Misal.Translate.Z // t points along -z

	// bottom of the wedge, global frame
	oBxf := ds
	oByf := base + dz
	oBzf := zplane + dt

	sa, ca := math.Sincos(alpha)
	sb, cb := math.Sincos(beta)
	sg, cg := math.Sincos(gamma)

	yhatX := -sa * cb
	yhatY := ca*cg - sa*sb*sg
	yhatZ := ca*sg + sa*sb*cg
	if !par.IsX(plane) {
		so, co := math.Sincos(math.Pi / 180. * par.StereoDegree)
		pm := -1.
		if par.IsU(plane) {
			pm = 1.
		}
		yhatX = pm*ca*cb*so - sa*cb*co
		yhatY = pm*so*(sa*cg+ca*sb*sg) + co*(ca*cg-sa*sb*sg)
		yhatZ = pm*so*(sa*sg-ca*sb*cg) + co*(ca*sg+sa*sb*cg)
		zetaY0 = pm*so*sX0 + co*(sY0-base)
	}
	normal := r3.Vec{X: sb, Y: -cb * sg, Z: cb * cg}
	origin := r3.Vec{X: oBxf, Y: oByf, Z: oBzf}
	hats := r3.Vec{X: hatsX0, Y: hatsY0, Z: hatsZ0}
	kprime := r3.Dot(normal, origin) / r3.Dot(normal, hats)

	zetaF := r3.Sub(r3.Scale(kprime, hats), origin)
	return r3.Dot(zetaF, r3.Vec{X: yhatX, Y: yhatY, Z: yhatZ}) - zetaY0
}

// Hit joins a time key and the hit geometry.
type Hit struct {
	Key  HitKey  `json:"key"`
	Info HitInfo `json:"info"`
}

func (h Hit) Equal(o Hit) bool {
	return h.Key.Equal(o.Key) && h.Info.Equal(o.Info)
}

// HitEntry is the full record of a fired strip: raw readout, truth and the
// fit results filled in later by FitFill.
type HitEntry struct {
	Event      int     `json:"event"`
	GTime      float64 `json:"gtime"`
	Charge     float64 `json:"charge"`
	VMMChip    int     `json:"vmm_chip"`
	MMFEVMM    int     `json:"mmfe_vmm"`
	Plane      int     `json:"plane"`
	Strip      int     `json:"strip"`
	StationEta int     `json:"station_eta"`
	StationPhi int     `json:"station_phi"`
	Multiplet  int     `json:"multiplet"`
	GasGap     int     `json:"gas_gap"`
	LocalX     float64 `json:"local_x"`
	TruThetaIP float64 `json:"tru_theta_ip"`
	TruPhiIP   float64 `json:"tru_phi_ip"`
	TruthNBG   bool    `json:"truth_nbg"`
	BCTime     int     `json:"bc_time"`
	Time       float64 `json:"time"`
	Truth      r3.Vec  `json:"truth"`
	Recon      r3.Vec  `json:"recon"`

	FitTheta  float64 `json:"fit_theta"`
	FitPhi    float64 `json:"fit_phi"`
	FitDTheta float64 `json:"fit_dtheta"`
	TruDTheta float64 `json:"tru_dtheta"`
	MXGlobal  float64 `json:"mx_global"`
	MUGlobal  float64 `json:"mu_global"`
	MVGlobal  float64 `json:"mv_global"`
	MXLocal   float64 `json:"mx_local"`
	MX        float64 `json:"mx"`
	MY        float64 `json:"my"`
	ROI       int     `json:"roi"`
}

// NewHitEntry sets the raw part of an entry. Fit fields start at zero.
func NewHitEntry(event int, gtime, charge float64, vmm, mmfe, plane, strip, stationEta, stationPhi, multiplet, gasGap int,
	localX, truTheta, truPhi float64, truthNBG bool, bcTime int, time float64, truth, recon r3.Vec) HitEntry {
	return HitEntry{
		Event:      event,
		GTime:      gtime,
		Charge:     charge,
		VMMChip:    vmm,
		MMFEVMM:    mmfe,
		Plane:      plane,
		Strip:      strip,
		StationEta: stationEta,
		StationPhi: stationPhi,
		Multiplet:  multiplet,
		GasGap:     gasGap,
		LocalX:     localX,
		TruThetaIP: truTheta,
		TruPhiIP:   truPhi,
		TruthNBG:   truthNBG,
		BCTime:     bcTime,
		Time:       time,
		Truth:      truth,
		Recon:      recon,
	}
}

// NewHitEntryFromRecord builds an entry from a readout record. The front-end
// addressing comes from the strip when the record does not carry it.
func NewHitEntryFromRecord(rec StripRecord) HitEntry {
	vmm, mmfe := rec.VMMChip, rec.MMFEBoard
	if vmm < 0 {
		vmm = clampStrip(rec.Strip, nil) / stripsPerVMM
	}
	if mmfe < 0 {
		mmfe = clampStrip(rec.Strip, nil) / stripsPerMMFE
	}
	return NewHitEntry(rec.EventID, rec.GlobalTime, rec.Charge, vmm, mmfe, rec.Plane, rec.Strip,
		rec.StationEta, rec.StationPhi, rec.Multiplet, rec.GasGap, rec.LocalX, rec.TruthTheta, rec.TruthPhi,
		rec.TruthNBG, rec.BCTime, rec.Time, rec.Truth, rec.Recon)
}

func (e HitEntry) EntryKey() HitKey {
	return HitKey{BCTime: e.BCTime, Time: e.Time, GTime: e.GTime, VMMChip: e.VMMChip, Event: e.Event}
}

// EntryInfo uses the truth angles at the interaction point for the
// misalignment shift.
func (e HitEntry) EntryInfo(par *Parameters) HitInfo {
	return NewHitInfo(e.Plane, e.StationEta, e.Strip, par, e.TruThetaIP, e.TruPhiIP)
}

func (e HitEntry) EntryHit(par *Parameters) Hit {
	return Hit{Key: e.EntryKey(), Info: e.EntryInfo(par)}
}

// FitFill records the result of the track fit.
func (e *HitEntry) FitFill(theta, phi, dtheta, mxg, mug, mvg, mxl, mx, my float64, roi int) {
	e.FitTheta = theta
	e.FitPhi = phi
	e.FitDTheta = dtheta
	e.MXGlobal = mxg
	e.MUGlobal = mug
	e.MVGlobal = mvg
	e.MXLocal = mxl
	e.MX = mx
	e.MY = my
	e.ROI = roi
}

// ROI is a fitted region of interest.
type ROI struct {
	Theta float64 `json:"theta"`
	Phi   float64 `json:"phi"`
	MX    float64 `json:"m_x"`
	MY    float64 `json:"m_y"`
	ROI   int     `json:"roi"`
}

// FinderEntry is one slot of the road finder buffer.
type FinderEntry struct {
	IsHit bool
	Clock int
	Hit   Hit
}

func (f FinderEntry) Equal(o FinderEntry) bool {
	return f.IsHit == o.IsHit && f.Clock == o.Clock && f.Hit.Equal(o.Hit)
}
