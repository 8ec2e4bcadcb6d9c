package mmt

import (
	"math"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestHitKeyOrdering(t *testing.T) {
	keys := []HitKey{
		{BCTime: 2, Time: 1, GTime: 1, VMMChip: 1, Event: 1},
		{BCTime: 1, Time: 5, GTime: 0, VMMChip: 0, Event: 9},
		{BCTime: 1, Time: 1, GTime: 3, VMMChip: 0, Event: 0},
		{BCTime: 1, Time: 1, GTime: 2, VMMChip: 7, Event: 0},
		{BCTime: 1, Time: 1, GTime: 2, VMMChip: 3, Event: 4},
		{BCTime: 1, Time: 1, GTime: 2, VMMChip: 3, Event: 2},
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	want := []HitKey{
		{BCTime: 1, Time: 1, GTime: 2, VMMChip: 3, Event: 2},
		{BCTime: 1, Time: 1, GTime: 2, VMMChip: 3, Event: 4},
		{BCTime: 1, Time: 1, GTime: 2, VMMChip: 7, Event: 0},
		{BCTime: 1, Time: 1, GTime: 3, VMMChip: 0, Event: 0},
		{BCTime: 1, Time: 5, GTime: 0, VMMChip: 0, Event: 9},
		{BCTime: 2, Time: 1, GTime: 1, VMMChip: 1, Event: 1},
	}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("sorted keys mismatch (-want +got):\n%s", diff)
	}

	assert.True(t, keys[0].Equal(keys[0]))
	assert.Equal(t, 0, keys[3].Compare(keys[3]))
	assert.Equal(t, 1, keys[5].Compare(keys[0]))
	assert.Len(t, keys[0].Hdr(), 60)
	assert.Len(t, keys[0].String(), 60)
}

func TestNewHitInfoYZ(t *testing.T) {
	assert.Equal(t, HitInfo{Plane: 1, Y: 300, Z: 1500, Slope: 0.2}, NewHitInfoYZ(1, 300, 1500))
	assert.Equal(t, -999., NewHitInfoYZ(1, 300, 0).Slope)
	assert.Equal(t, -999., NewHitInfoYZ(1, 300, -999).Slope)
}

func TestNewHitInfo(t *testing.T) {
	p := newTestParameters(t, testParPar())

	t.Run("x plane", func(t *testing.T) {
		info := NewHitInfo(0, 1, 10, p, 0, 0)
		assert.Equal(t, 0, info.Plane)
		assert.InDelta(t, 100+10*0.445, info.Y, 1e-9)
		assert.Equal(t, 1000., info.Z)
		assert.InDelta(t, info.Y/info.Z, info.Slope, 1e-15)
	})

	t.Run("stereo plane uses the wider pitch", func(t *testing.T) {
		info := NewHitInfo(2, 1, 100, p, 0, 0)
		assert.InDelta(t, 100+100*0.445/math.Cos(testStereo), info.Y, 1e-9)
		assert.Equal(t, 1100., info.Z)
	})

	t.Run("upper station", func(t *testing.T) {
		info := NewHitInfo(7, -2, 0, p, 0, 0)
		assert.InDelta(t, 250., info.Y, 1e-9)
	})

	t.Run("station eta is clamped", func(t *testing.T) {
		assert.Equal(t, NewHitInfo(0, 2, 5, p, 0, 0), NewHitInfo(0, 4, 5, p, 0, 0))
		assert.Equal(t, NewHitInfo(0, 1, 5, p, 0, 0), NewHitInfo(0, 0, 5, p, 0, 0))
	})

	t.Run("invalid plane", func(t *testing.T) {
		info := NewHitInfo(8, 1, 10, p, 0, 0)
		assert.Equal(t, HitInfo{Plane: 8, Y: -999, Z: -999, Slope: -999}, info)
	})
}

func TestMisDy(t *testing.T) {
	p := newTestParameters(t, testParPar())
	assert.Equal(t, 0., misDy(0, p, 0.3, 0.1))

	misaligned := func(translate, rotate r3.Vec) *Parameters {
		par := testParPar()
		par.Misal = NewAlign(Misaligned, translate, rotate)
		mis := newTestParameters(t, par)
		require.True(t, mis.Misalign)
		return mis
	}
	so := math.Sin(testStereo)
	base := p.YBase(0, 0)

	for _, tc := range []struct {
		name       string
		translate  r3.Vec
		rotate     r3.Vec
		plane      int
		tpos, ppos float64
		want       float64
	}{
		// the plane moves against z, so a track at tpos meets it lower
		{"translate t", r3.Vec{Z: 0.5}, r3.Vec{}, 0, 0.3, 0, -0.5 * math.Tan(0.3)},
		{"translate t off axis", r3.Vec{Z: 0.5}, r3.Vec{}, 1, 0.3, 0.2, -0.5 * math.Tan(0.3) * math.Cos(0.2)},
		{"translate z", r3.Vec{Y: 0.7}, r3.Vec{}, 0, 0.3, 0.1, -0.7},
		{"translate s on x plane", r3.Vec{X: 0.4}, r3.Vec{}, 1, 0.3, 0.1, 0},
		{"translate s on u plane", r3.Vec{X: 0.4}, r3.Vec{}, 2, 0.3, 0.1, -0.4 * so},
		{"translate s on v plane", r3.Vec{X: 0.4}, r3.Vec{}, 3, 0.3, 0.1, 0.4 * so},
		{"rotate s at normal incidence", r3.Vec{}, r3.Vec{X: 0.01}, 0, 0, 0, base * (1 - 1/math.Cos(0.01))},
		{"back multiplet", r3.Vec{X: 0.4, Y: 0.7, Z: 0.5}, r3.Vec{X: 0.01, Z: 0.001}, 5, 0.3, 0.1, 0},
		{"last plane", r3.Vec{Z: 0.5}, r3.Vec{}, 7, 0.3, 0, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mis := misaligned(tc.translate, tc.rotate)
			assert.InDelta(t, tc.want, misDy(tc.plane, mis, tc.tpos, tc.ppos), 1e-9)
		})
	}

	t.Run("hit is shifted", func(t *testing.T) {
		mis := misaligned(r3.Vec{Y: 0.7}, r3.Vec{})
		shifted := NewHitInfo(0, 1, 10, mis, 0.3, 0.1)
		nominal := NewHitInfo(0, 1, 10, p, 0.3, 0.1)
		assert.InDelta(t, nominal.Y-0.7, shifted.Y, 1e-9)
	})
}

func TestHitEntry(t *testing.T) {
	p := newTestParameters(t, testParPar())
	rec := StripRecord{
		EventID: 4, BCTime: 12, Time: 3.5, GlobalTime: 25.1, Charge: 1.2,
		VMMChip: -1, MMFEBoard: -1, Plane: 1, Strip: 700, StationEta: 1,
		TruthTheta: 0.2, TruthPhi: 0.05, TruthNBG: true,
	}
	entry := NewHitEntryFromRecord(rec)
	assert.Equal(t, 700/64, entry.VMMChip)
	assert.Equal(t, 1, entry.MMFEVMM)
	assert.Equal(t, HitKey{BCTime: 12, Time: 3.5, GTime: 25.1, VMMChip: 10, Event: 4}, entry.EntryKey())

	hit := entry.EntryHit(p)
	assert.True(t, hit.Equal(Hit{Key: entry.EntryKey(), Info: NewHitInfo(1, 1, 700, p, 0.2, 0.05)}))

	rec.VMMChip, rec.MMFEBoard = 3, 0
	assert.Equal(t, 3, NewHitEntryFromRecord(rec).VMMChip)

	entry.FitFill(0.2, 0.01, 0.001, 1, 2, 3, 4, 0.01, 0.2, 17)
	assert.Equal(t, 17, entry.ROI)
	assert.Equal(t, 0.2, entry.MY)

	a := FinderEntry{IsHit: true, Clock: 3, Hit: hit}
	b := a
	assert.True(t, a.Equal(b))
	b.Clock = 4
	assert.False(t, a.Equal(b))
}
