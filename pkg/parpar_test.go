package mmt

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParParValidate(t *testing.T) {
	par := ParPar{Setup: "XXUVvuxx"}
	require.NoError(t, par.Validate())
	assert.Equal(t, "xxuvvuxx", par.Setup)

	for _, setup := range []string{"", "xxy", "xx uv"} {
		par := ParPar{Setup: setup}
		var typeErr *ErrPlaneType
		assert.ErrorAs(t, par.Validate(), &typeErr, "setup %q", setup)
	}
}

func TestQPlanes(t *testing.T) {
	par := ParPar{Setup: "xxuvvuxx"}
	for _, tc := range []struct {
		planeType string
		want      []int
	}{
		{"x", []int{0, 1, 6, 7}},
		{"U", []int{2, 5}},
		{"v", []int{3, 4}},
	} {
		got, err := par.QPlanes(tc.planeType)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	for _, bad := range []string{"", "w", "xu"} {
		_, err := par.QPlanes(bad)
		assert.Error(t, err)
	}
}

func TestPrintPars(t *testing.T) {
	par := testParPar()
	assert.Equal(t, "_h0.0009_ctx2_ctuv1_uverr0.0035_setxxuvvuxx_ql1_qdlm1_qbg0_qt0_NOM_NOM", par.PrintPars(nil))
	assert.Equal(t, "_h0.0009_ctx2_ctuv1_uverr0.0035_setxxuvvuxx_ql1_qdlm1_qbg0", par.PrintPars([]int{gcmQt}))
	assert.Equal(t, "_setxxuvvuxx_ql1_qdlm1_qt0", par.PrintPars([]int{gcmBG, gcmCT}))
	assert.Equal(t, "nominal; nominal", par.Detail())
}

func TestGcmKey(t *testing.T) {
	keys := []GcmKey{
		{Pt: 1, CT: 2},
		{Pt: 0, CT: 3, BGCode: 1},
		{Pt: 1, CT: 1, Qt: 4},
		{Pt: 0, CT: 3},
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	assert.Equal(t, []GcmKey{
		{Pt: 0, CT: 3},
		{Pt: 0, CT: 3, BGCode: 1},
		{Pt: 1, CT: 1, Qt: 4},
		{Pt: 1, CT: 2},
	}, keys)

	var k GcmKey
	for v := 0; v < k.VarMax(); v++ {
		k.SetVar(v, v+1)
		assert.Equal(t, v+1, k.GetVar(v))
	}
	assert.Equal(t, -999, k.GetVar(k.VarMax()))
	assert.Equal(t, "(p1,C2,m3,c4,e5,q6,b7)", k.String())
	assert.Equal(t, 0, k.Compare(k))
}
