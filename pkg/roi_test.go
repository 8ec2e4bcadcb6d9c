package mmt

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func tablesParameters(t *testing.T) *Parameters {
	t.Helper()
	par := testParPar()
	par.FillVal = true
	return newTestParameters(t, par)
}

func TestSlopeComponentsROI(t *testing.T) {
	p := tablesParameters(t)
	require.Len(t, p.roi, p.NX*p.NY)

	t.Run("centre line", func(t *testing.T) {
		ix, jy, ok := p.ROIIndex(0, 0.2)
		require.True(t, ok)
		mx, my := p.ROISlopes(ix, jy)
		assert.InDelta(t, 0., mx, p.HMx)
		assert.InDelta(t, 0.2, my, p.HMy)

		cell, ok := p.ROIAt(ix, jy)
		require.True(t, ok)
		require.True(t, cell.InAcceptance())
		assert.InDelta(t, math.Atan(math.Hypot(mx, my)), cell.Theta, 1e-12)
		assert.InDelta(t, math.Atan2(mx, my), cell.Phi, 1e-12)

		// the slope components come back from the angles
		tan := math.Tan(cell.Theta)
		assert.InDelta(t, mx, tan*math.Sin(cell.Phi), 1e-9)
		assert.InDelta(t, my, tan*math.Cos(cell.Phi), 1e-9)
	})

	t.Run("outside acceptance", func(t *testing.T) {
		cell, ok := p.ROIAt(0, 0)
		require.True(t, ok)
		assert.Equal(t, roiPhiSentinel, cell.Phi)
		assert.False(t, cell.InAcceptance())

		// steeper than the top of the wedge
		ix, jy, ok := p.ROIIndex(0, 0.5)
		require.True(t, ok)
		cell, _ = p.ROIAt(ix, jy)
		assert.Equal(t, roiThetaSentinel, cell.Theta)
	})

	t.Run("every cell is in range or a sentinel", func(t *testing.T) {
		for _, cell := range p.roi {
			if cell.Theta != roiThetaSentinel {
				assert.GreaterOrEqual(t, cell.Theta, p.MinimumLargeTheta)
				assert.LessOrEqual(t, cell.Theta, p.MaximumLargeTheta)
			}
			if cell.Phi != roiPhiSentinel {
				assert.GreaterOrEqual(t, cell.Phi, p.MinimumLargePhi)
				assert.LessOrEqual(t, cell.Phi, p.MaximumLargePhi)
			}
		}
	})

	_, ok := p.ROIAt(p.NX, 0)
	assert.False(t, ok)
	_, _, ok = p.ROIIndex(10, 10)
	assert.False(t, ok)
}

func TestDeltaThetaFactors(t *testing.T) {
	p := tablesParameters(t)
	factors := p.DTFactors()
	require.Len(t, factors, numberLGRegions)
	assert.Equal(t, DTFactor{LG: 0, Mult: 1}, factors[0])

	for i := 1; i < len(factors); i++ {
		assert.Greater(t, factors[i].LG, factors[i-1].LG)
		assert.Less(t, factors[i].Mult, factors[i-1].Mult)
	}

	assert.Equal(t, 1., p.DTMultiplier(-1))
	assert.Equal(t, factors[len(factors)-1].Mult, p.DTMultiplier(3))
	assert.Equal(t, factors[128].Mult, p.DTMultiplier(0.25))
}

func TestYZMod(t *testing.T) {
	t.Run("nominal is zero", func(t *testing.T) {
		p := tablesParameters(t)
		y, z, ok := p.YZMod(3, 3, 0)
		require.True(t, ok)
		assert.Equal(t, 0., y)
		assert.Equal(t, 0., z)
	})

	t.Run("corrected front multiplet only", func(t *testing.T) {
		par := testParPar()
		par.FillVal = true
		par.Corr = NewAlign(Corrected, r3.Vec{}, r3.Vec{Y: 0.001, Z: 0.002})
		p := newTestParameters(t, par)

		y, _, ok := p.YZMod(5, 5, 0)
		require.True(t, ok)
		assert.NotEqual(t, 0., y)

		// x planes 6 and 7 sit on the back multiplet
		y, z, ok := p.YZMod(5, 5, 2)
		require.True(t, ok)
		assert.Equal(t, 0., y)
		assert.Equal(t, 0., z)

		_, _, ok = p.YZMod(5, 5, 4)
		assert.False(t, ok)
	})
}

func writeCrepFile(t *testing.T, p *Parameters, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := bufio.NewWriter(f)
	for i := 0; i < p.NEtaBins; i++ {
		for j := 0; j < p.NPhiBins; j++ {
			for k := 0; k < p.NSimMax1D(); k++ {
				_, err := fmt.Fprintf(w, "%s%s%s %d.25 %d.5 %d.75\n", p.EtaStr(i), p.PhiStr(j), p.IndexToHitStr(k), i, j, k)
				require.NoError(t, err)
			}
		}
	}
	require.NoError(t, w.Flush())
}

func TestCrepTable(t *testing.T) {
	dir := t.TempDir()
	par := testParPar()
	par.PcrepDir = dir
	par.Corr = NewAlign(CorrectedSim, r3.Vec{}, r3.Vec{})

	t.Run("missing file gives zeros", func(t *testing.T) {
		par := par
		par.FillVal = true
		p := newTestParameters(t, par)
		assert.False(t, p.CrepLoaded())
		entry, ok := p.CrepEntry(1, 2, 3)
		require.True(t, ok)
		assert.Equal(t, [3]float32{}, entry)
	})

	t.Run("file is read", func(t *testing.T) {
		names := newTestParameters(t, par)
		filename := names.crepFileName(dir, par.Tag)
		assert.Equal(t, filepath.Join(dir, "pcrep_h0.0009_ctx2_ctuv1_uverr0.0035_setxxuvvuxx_ql1_qdlm1_qbg0_qt0_NOM_NOM_test.txt"), filename)
		writeCrepFile(t, names, filename)

		par := par
		par.FillVal = true
		p := newTestParameters(t, par)
		require.True(t, p.CrepLoaded())

		entry, ok := p.CrepEntry(1, 2, 3)
		require.True(t, ok)
		assert.Equal(t, [3]float32{1.25, 2.5, 3.75}, entry)
		entry, ok = p.CrepEntry(9, 9, 255)
		require.True(t, ok)
		assert.Equal(t, [3]float32{9.25, 9.5, 255.75}, entry)

		_, ok = p.CrepEntry(0, 0, p.NSimMax1D())
		assert.False(t, ok)
	})

	t.Run("wrong title", func(t *testing.T) {
		dir := t.TempDir()
		par := par
		par.PcrepDir = dir
		names := newTestParameters(t, par)
		filename := names.crepFileName(dir, par.Tag)
		require.NoError(t, os.WriteFile(filename, []byte("_etawrong 0 0 0\n"), 0o644))

		par.FillVal = true
		_, err := NewParameters(par, 'L', testGeometry())
		assert.ErrorContains(t, err, "wrong entry")
	})
}
