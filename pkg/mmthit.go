package mmt

import "math"

const (
	stripsPerVMM  = 64
	vmmsPerMMFE   = 8
	stripsPerMMFE = stripsPerVMM * vmmsPerMMFE
	stripsPerART  = stripsPerMMFE / 2
	maxStrip      = 8191
)

// MMTHit is the trigger processor view of a fired strip: front-end address
// and the geometry the road finder works with. Lengths are in mm.
type MMTHit struct {
	SectorType byte
	StationEta int
	StationPhi int
	Multiplet  int
	GasGap     int
	Plane      int
	Strip      int
	LocalX     float64
	Charge     float64
	BCTime     int
	Time       float64
	GlobalTime float64
	Event      int

	VMMChip int
	MMFEVMM int
	ARTASIC int

	Y      float64 // radial position of the strip on the centre line
	Z      float64
	R      float64
	RPrime float64 // radial position corrected for the stereo shift
	Slope  float64
	Shift  float64

	Age     int
	IsNoise bool
}

// clampStrip sends strips outside [0, 8191] to 0.
func clampStrip(strip int, diag *Diagnostics) int {
	if strip < 0 || strip > maxStrip {
		if diag != nil {
			diag.StripClamps.Add(1)
		}
		return 0
	}
	return strip
}

// artASIC returns the ART of a strip. Each MMFE board carries two ARTs;
// odd planes are mounted flipped so their halves swap.
func artASIC(strip, plane int) int {
	board := strip / stripsPerMMFE
	half := (strip % stripsPerMMFE) / stripsPerART
	if plane%2 == 1 {
		half = 1 - half
	}
	return 2*board + half
}

// NewMMTHit converts a readout record. It never fails: out of range strips
// are clamped and counted in par.Diag.
func NewMMTHit(rec StripRecord, par *Parameters) MMTHit {
	strip := clampStrip(rec.Strip, par.Diag)
	hit := MMTHit{
		SectorType: par.Sector,
		StationEta: rec.StationEta,
		StationPhi: rec.StationPhi,
		Multiplet:  rec.Multiplet,
		GasGap:     rec.GasGap,
		Plane:      rec.Plane,
		Strip:      strip,
		LocalX:     rec.LocalX,
		Charge:     rec.Charge,
		BCTime:     rec.BCTime,
		Time:       rec.Time,
		GlobalTime: rec.GlobalTime,
		Event:      rec.EventID,
		VMMChip:    strip / stripsPerVMM,
		MMFEVMM:    strip / stripsPerMMFE,
		ARTASIC:    artASIC(strip, rec.Plane),
		IsNoise:    !rec.TruthNBG,
	}
	if rec.Plane < 0 || rec.Plane >= len(par.Setup) {
		hit.Y, hit.Z, hit.Slope = -999, -999, -999
		return hit
	}

	eta := max(0, min(abs(rec.StationEta)-1, nEtaStations-1))
	pitch := par.StripWidth
	stereo := 0.
	switch {
	case par.IsU(rec.Plane):
		stereo = math.Pi / 180. * math.Abs(par.StereoDegree)
		pitch /= math.Cos(stereo)
	case par.IsV(rec.Plane):
		stereo = -math.Pi / 180. * math.Abs(par.StereoDegree)
		pitch /= math.Cos(stereo)
	}
	hit.Y = par.ybases[rec.Plane][eta] + float64(strip)*pitch
	hit.Z = par.ZNominal[rec.Plane]
	hit.Shift = rec.LocalX * math.Tan(stereo)
	hit.R = math.Hypot(hit.Y, rec.LocalX)
	hit.RPrime = hit.Y + hit.Shift
	if hit.Z != 0 {
		hit.Slope = hit.RPrime / hit.Z
	}
	return hit
}

// UpdateAge sets the number of bunch crossings since the hit, as seen at
// BC currentBC.
func (h *MMTHit) UpdateAge(currentBC int) {
	h.Age = currentBC - h.BCTime
}

// IsX reports whether the hit is on a precision plane.
func (h MMTHit) IsX(par *Parameters) bool {
	return par.IsX(h.Plane)
}
