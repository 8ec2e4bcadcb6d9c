package mmt

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// ReadoutParameters are the per-station readout constants of one wedge.
// Stereo angles are in radians, one per layer of a multiplet.
type ReadoutParameters struct {
	StripPitch          float64   `json:"strip_pitch" db:"StripPitch"`
	DistanceFromZAxis   float64   `json:"distance_from_z_axis" db:"DistanceFromZAxis"`
	RoLength            float64   `json:"ro_length" db:"RoLength"`
	LWidth              float64   `json:"l_width" db:"LWidth"`
	SWidth              float64   `json:"s_width" db:"SWidth"`
	NMissedBottomEta    int       `json:"n_missed_bottom_eta" db:"NMissedBottomEta"`
	NMissedBottomStereo int       `json:"n_missed_bottom_stereo" db:"NMissedBottomStereo"`
	StereoAngle         []float64 `json:"stereo_angle" db:"-"`
}

// GeometryProvider is the read-only detector description the parameter
// builder is constructed from. Wedge is "MML" or "MMS", eta is 1 or 2.
type GeometryProvider interface {
	// FirstStripPositions returns one global position per plane, ordered
	// multiplet-major then layer.
	FirstStripPositions(wedge string, eta int) ([]r3.Vec, error)
	ReadoutParameters(wedge string, eta int) (ReadoutParameters, error)
}

// StationGeometry holds what StaticGeometry knows about one (wedge, eta) station.
type StationGeometry struct {
	Wedge     string            `json:"wedge"`
	Eta       int               `json:"eta"`
	Positions []r3.Vec          `json:"positions"`
	Readout   ReadoutParameters `json:"readout"`
}

// StaticGeometry is an in-memory GeometryProvider. It is loaded from the
// configuration file or from the conditions database.
type StaticGeometry struct {
	Stations []StationGeometry `json:"stations"`
}

func (g *StaticGeometry) station(wedge string, eta int) (*StationGeometry, error) {
	for i := range g.Stations {
		if g.Stations[i].Wedge == wedge && g.Stations[i].Eta == eta {
			return &g.Stations[i], nil
		}
	}
	return nil, fmt.Errorf("no station %s eta %d", wedge, eta)
}

func (g *StaticGeometry) FirstStripPositions(wedge string, eta int) ([]r3.Vec, error) {
	st, err := g.station(wedge, eta)
	if err != nil {
		return nil, err
	}
	positions := make([]r3.Vec, len(st.Positions))
	copy(positions, st.Positions)
	return positions, nil
}

func (g *StaticGeometry) ReadoutParameters(wedge string, eta int) (ReadoutParameters, error) {
	st, err := g.station(wedge, eta)
	if err != nil {
		return ReadoutParameters{}, err
	}
	ro := st.Readout
	ro.StereoAngle = append([]float64(nil), st.Readout.StereoAngle...)
	return ro, nil
}

// SetStation adds or replaces a station.
func (g *StaticGeometry) SetStation(st StationGeometry) {
	for i := range g.Stations {
		if g.Stations[i].Wedge == st.Wedge && g.Stations[i].Eta == st.Eta {
			g.Stations[i] = st
			return
		}
	}
	g.Stations = append(g.Stations, st)
}

func wedgeName(wedgeSize byte) string {
	if wedgeSize == 'L' {
		return "MML"
	}
	return "MMS"
}
