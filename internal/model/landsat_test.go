package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etstream/ssebop-tcorr-etl/internal/expr"
)

func TestPrepTOA_BandMapping(t *testing.T) {
	tests := []struct {
		spacecraft string
		thermal    string
		k1         string
	}{
		{"LANDSAT_5", `"B6"`, `"value":607.76`},
		{"LANDSAT_7", `"B6_VCID_1"`, `"value":666.09`},
		{"LANDSAT_8", `"B10"`, `"value":774.8853`},
		{"LANDSAT_9", `"B10"`, `"value":799.0284`},
	}

	for _, tc := range tests {
		t.Run(tc.spacecraft, func(t *testing.T) {
			prepped, err := PrepTOA(expr.Asset("scenes/raw"), tc.spacecraft)
			require.NoError(t, err)

			g := graphString(t, prepped)
			assert.Contains(t, g, tc.thermal)
			assert.Contains(t, g, tc.k1)

			// Output always stacks lst then ndvi.
			var m map[string]any
			require.NoError(t, json.Unmarshal([]byte(g), &m))
			assert.Equal(t, "stack", m["op"])
			inputs, ok := m["inputs"].([]any)
			require.True(t, ok)
			require.Len(t, inputs, 2)
		})
	}
}

func TestPrepSR_UsesPixelQA(t *testing.T) {
	prepped, err := PrepSR(expr.Asset("scenes/raw"), "LANDSAT_8")
	require.NoError(t, err)

	g := graphString(t, prepped)
	assert.Contains(t, g, "pixel_qa")
	assert.NotContains(t, g, "BQA")
}

func TestPrep_UnsupportedSpacecraft(t *testing.T) {
	_, err := PrepTOA(expr.Asset("scenes/raw"), "SENTINEL_2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported spacecraft")
}

func TestNDVI(t *testing.T) {
	g := graphString(t, NDVI(expr.Asset("scenes/prepped")))
	assert.Contains(t, g, `"op":"normalized_difference"`)
	assert.Contains(t, g, `"from":["nir","red"]`)
	assert.Contains(t, g, `"bands":["ndvi"]`)
}

func TestEmissivity_RangesAndClamp(t *testing.T) {
	g := graphString(t, Emissivity(expr.Asset("scenes/prepped")))

	// Fixed emissivities for water, soil, and dense vegetation.
	assert.Contains(t, g, `"value":0.985`)
	assert.Contains(t, g, `"value":0.977`)
	assert.Contains(t, g, `"value":0.99`)
	// Mixed-pixel expression and final clamp.
	assert.Contains(t, g, "((ndvi - 0.2) / 0.3) ** 2")
	assert.Contains(t, g, `"min":0.977`)
	assert.Contains(t, g, `"max":0.99`)
}

func TestLST_RadiativeTransferCorrection(t *testing.T) {
	g := graphString(t, LST(expr.Asset("scenes/prepped"), 774.8853, 1321.0789))

	assert.Contains(t, g, "k1 / (exp(k2 / ts) - 1)")
	assert.Contains(t, g, "((rad - rp) / tnb) - ((1.0 - emiss) * rsky)")
	assert.Contains(t, g, "k2 / log(emiss * k1 / rc + 1)")
	// Path radiance, transmissivity, and sky radiation coefficients.
	assert.Contains(t, g, `"value":0.91`)
	assert.Contains(t, g, `"value":0.866`)
	assert.Contains(t, g, `"value":1.32`)
}

func TestLapseAdjust(t *testing.T) {
	g := graphString(t, LapseAdjust(expr.Constant(300), expr.Asset("topography/srtm_30m")))

	assert.Contains(t, g, "t - (0.003 * (elev - threshold))")
	assert.Contains(t, g, `"value":1500`)
	// Adjustment only applies above the threshold.
	assert.Contains(t, g, `"op":"where"`)
	assert.Contains(t, g, `"op":"gt"`)
}
