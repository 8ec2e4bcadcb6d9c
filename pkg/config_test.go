package mmt

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestConfigurationFromJSON(t *testing.T) {
	geo, err := json.Marshal(testGeometry())
	require.NoError(t, err)
	data := `{
		"setup": "xxuvvuxx",
		"wedge_size": "L",
		"is_large": true,
		"dlm": true,
		"h": 0.0009,
		"ctx": 2,
		"ctuv": 1,
		"uv_error": 0.0035,
		"roi_step": 0.001,
		"tag": "test",
		"misal": {"type": 1, "translate": {"X": 0, "Y": 0, "Z": 0.1}, "rotate": {"X": 0, "Y": 0, "Z": 0}},
		"no_db": true,
		"geometry": ` + string(geo) + `
	}`

	var config Configuration
	require.NoError(t, json.Unmarshal([]byte(data), &config))
	assert.Equal(t, byte('L'), config.Wedge())
	if diff := cmp.Diff(testGeometry(), config.Geometry); diff != "" {
		t.Errorf("geometry mismatch (-want +got):\n%s", diff)
	}

	par := config.ParPar()
	assert.Equal(t, NewAlign(Misaligned, r3.Vec{Z: 0.1}, r3.Vec{}), par.Misal)
	assert.Equal(t, Nominal, par.Corr.Type)

	want := testParPar()
	want.Misal = par.Misal
	assert.Equal(t, want, par)

	p, err := NewParameters(par, config.Wedge(), config.Geometry)
	require.NoError(t, err)
	assert.True(t, p.Misalign)
}

func TestConfigurationWedge(t *testing.T) {
	assert.Equal(t, byte('S'), Configuration{WedgeSize: "s"}.Wedge())
	assert.Equal(t, byte('L'), Configuration{}.Wedge())

	old := GetConfiguration()
	defer SetConfiguration(old)
	SetConfiguration(Configuration{Verbosity: 3})
	assert.Equal(t, 3, GetConfiguration().Verbosity)
}
