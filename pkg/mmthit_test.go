package mmt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMMTHitAddressing(t *testing.T) {
	p := newTestParameters(t, testParPar())

	for _, tc := range []struct {
		name        string
		plane       int
		strip       int
		vmm, mmfe   int
		art         int
		wantStrip   int
		wantClamped int64
	}{
		{"first strip", 0, 0, 0, 0, 0, 0, 0},
		{"lower half", 0, 700, 10, 1, 2, 700, 0},
		{"upper half", 0, 800, 12, 1, 3, 800, 0},
		{"odd plane swaps halves", 1, 700, 10, 1, 3, 700, 0},
		{"last strip", 2, 8191, 127, 15, 31, 8191, 0},
		{"out of range", 0, 8192, 0, 0, 0, 0, 1},
		{"negative", 3, -4, 0, 0, 1, 0, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			before := p.Diag.StripClamps.Load()
			hit := NewMMTHit(StripRecord{Plane: tc.plane, Strip: tc.strip, StationEta: 1}, p)
			assert.Equal(t, tc.wantStrip, hit.Strip)
			assert.Equal(t, tc.vmm, hit.VMMChip)
			assert.Equal(t, tc.mmfe, hit.MMFEVMM)
			assert.Equal(t, tc.art, hit.ARTASIC)
			assert.Equal(t, tc.wantClamped, p.Diag.StripClamps.Load()-before)
		})
	}
}

func TestMMTHitGeometry(t *testing.T) {
	p := newTestParameters(t, testParPar())
	rec := StripRecord{Strip: 100, StationEta: 1, LocalX: 50, TruthNBG: true}

	rec.Plane = 0
	x := NewMMTHit(rec, p)
	assert.InDelta(t, 100+100*0.445, x.Y, 1e-9)
	assert.Equal(t, 0., x.Shift)
	assert.Equal(t, x.Y, x.RPrime)
	assert.InDelta(t, math.Hypot(x.Y, 50), x.R, 1e-9)
	assert.InDelta(t, x.RPrime/1000, x.Slope, 1e-15)
	assert.True(t, x.IsX(p))
	assert.False(t, x.IsNoise)
	assert.Equal(t, byte('L'), x.SectorType)

	rec.Plane = 2
	u := NewMMTHit(rec, p)
	assert.InDelta(t, 50*math.Tan(testStereo), u.Shift, 1e-12)
	assert.InDelta(t, 100+100*0.445/math.Cos(testStereo), u.Y, 1e-9)
	assert.False(t, u.IsX(p))

	rec.Plane = 3
	v := NewMMTHit(rec, p)
	assert.InDelta(t, -u.Shift, v.Shift, 1e-12)
	assert.Equal(t, u.Y, v.Y)
	assert.Equal(t, 1110., v.Z)

	rec.Plane = 9
	rec.TruthNBG = false
	bad := NewMMTHit(rec, p)
	assert.Equal(t, -999., bad.Y)
	assert.Equal(t, -999., bad.Slope)
	assert.True(t, bad.IsNoise)

	x.BCTime = 10
	x.UpdateAge(13)
	assert.Equal(t, 3, x.Age)
}
