package mmt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var testZ = []float64{1000, 1010, 1100, 1110, 1120, 1130, 1200, 1210}

const testStereo = 1.5 * math.Pi / 180.

func testReadout() ReadoutParameters {
	return ReadoutParameters{
		StripPitch:        0.445,
		DistanceFromZAxis: 100,
		RoLength:          200,
		LWidth:            300,
		SWidth:            100,
		StereoAngle:       []float64{0, 0, testStereo, -testStereo},
	}
}

// geometryFor places the first strip of every plane at x = 100 mm (eta 1)
// and x = 250 mm (eta 2) of a large wedge.
func geometryFor(z []float64) *StaticGeometry {
	geo := &StaticGeometry{}
	for eta, x := range []float64{100, 250} {
		positions := make([]r3.Vec, len(z))
		for i, zi := range z {
			positions[i] = r3.Vec{X: x, Y: 0, Z: zi}
		}
		geo.SetStation(StationGeometry{Wedge: "MML", Eta: eta + 1, Positions: positions, Readout: testReadout()})
	}
	return geo
}

func testGeometry() *StaticGeometry {
	return geometryFor(testZ)
}

func testParPar() ParPar {
	return ParPar{
		H:       0.0009,
		CTX:     2,
		CTUV:    1,
		UVError: 0.0035,
		Setup:   "xxuvvuxx",
		IsLarge: true,
		DLM:     true,
		ROIStep: 0.001,
		Tag:     "test",
	}
}

func newTestParameters(t *testing.T, par ParPar) *Parameters {
	t.Helper()
	p, err := NewParameters(par, 'L', testGeometry())
	require.NoError(t, err)
	return p
}
