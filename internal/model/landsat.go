package model

import (
	"fmt"

	"github.com/etstream/ssebop-tcorr-etl/internal/expr"
)

// Band mappings from raw archive band names to the generic names the model
// expects. The thermal band lands in "lst" and is corrected by LST below.
var (
	toaInputBands = map[string][]string{
		"LANDSAT_4": {"B1", "B2", "B3", "B4", "B5", "B7", "B6", "BQA"},
		"LANDSAT_5": {"B1", "B2", "B3", "B4", "B5", "B7", "B6", "BQA"},
		"LANDSAT_7": {"B1", "B2", "B3", "B4", "B5", "B7", "B6_VCID_1", "BQA"},
		"LANDSAT_8": {"B2", "B3", "B4", "B5", "B6", "B7", "B10", "BQA"},
		"LANDSAT_9": {"B2", "B3", "B4", "B5", "B6", "B7", "B10", "BQA"},
	}
	srInputBands = map[string][]string{
		"LANDSAT_4": {"B1", "B2", "B3", "B4", "B5", "B7", "B6", "pixel_qa"},
		"LANDSAT_5": {"B1", "B2", "B3", "B4", "B5", "B7", "B6", "pixel_qa"},
		"LANDSAT_7": {"B1", "B2", "B3", "B4", "B5", "B7", "B6", "pixel_qa"},
		"LANDSAT_8": {"B2", "B3", "B4", "B5", "B6", "B7", "B10", "pixel_qa"},
		"LANDSAT_9": {"B2", "B3", "B4", "B5", "B6", "B7", "B10", "pixel_qa"},
	}
	outputBands = []string{"blue", "green", "red", "nir", "swir1", "swir2", "lst", "qa"}
)

// Thermal band calibration constants per spacecraft, used to convert
// brightness temperature to radiance and back.
var thermalConstants = map[string]struct{ K1, K2 float64 }{
	"LANDSAT_4": {671.62, 1284.30},
	"LANDSAT_5": {607.76, 1260.56},
	"LANDSAT_7": {666.09, 1282.71},
	"LANDSAT_8": {774.8853, 1321.0789},
	"LANDSAT_9": {799.0284, 1329.2405},
}

// PrepTOA builds the model input image from a raw top-of-atmosphere scene:
// bands renamed to generic names, emissivity-corrected LST, and NDVI,
// stacked as a two-band "lst"/"ndvi" image.
func PrepTOA(raw expr.Image, spacecraftID string) (expr.Image, error) {
	return prep(raw, spacecraftID, toaInputBands)
}

// PrepSR builds the model input image from a raw surface-reflectance scene.
func PrepSR(raw expr.Image, spacecraftID string) (expr.Image, error) {
	return prep(raw, spacecraftID, srInputBands)
}

func prep(raw expr.Image, spacecraftID string, inputBands map[string][]string) (expr.Image, error) {
	bands, ok := inputBands[spacecraftID]
	if !ok {
		return expr.Image{}, fmt.Errorf("prep scene: unsupported spacecraft %q", spacecraftID)
	}
	k := thermalConstants[spacecraftID]

	renamed := raw.SelectAs(bands, outputBands)
	return expr.Stack(LST(renamed, k.K1, k.K2), NDVI(renamed)), nil
}

// NDVI computes the normalized difference vegetation index from the nir
// and red bands.
func NDVI(prepped expr.Image) expr.Image {
	return prepped.NormalizedDifference("nir", "red").Rename("ndvi")
}

// Emissivity derives surface emissivity from NDVI following Sobrino's
// vegetation-proportion method: fixed values for water, bare soil, and
// dense vegetation, and a mixed-pixel expression in between.
//
// References:
//
//	Sobrino, J., J. Jimenez-Munoz, & L. Paolini (2004). Land surface
//	temperature retrieval from LANDSAT TM 5. Remote Sensing of
//	Environment, 90(4), 434-440.
func Emissivity(prepped expr.Image) expr.Image {
	ndvi := NDVI(prepped)

	pv := expr.Expression("((ndvi - 0.2) / 0.3) ** 2", map[string]expr.Image{"ndvi": ndvi})

	// Soil emissivity 0.97, vegetation emissivity 0.99, shape factor 0.553.
	de := expr.Expression("(1 - 0.97) * (1 - Pv) * (0.55 * 0.99)", map[string]expr.Image{"Pv": pv})
	rangeEmiss := expr.Expression("(0.99 * Pv) + (0.97 * (1 - Pv)) + dE", map[string]expr.Image{
		"Pv": pv,
		"dE": de,
	})

	return ndvi.
		WhereValue(ndvi.Lt(0), 0.985).
		WhereValue(ndvi.Gte(0).And(ndvi.Lt(0.2)), 0.977).
		WhereValue(ndvi.Gt(0.5), 0.99).
		Where(ndvi.Gte(0.2).And(ndvi.Lte(0.5)), rangeEmiss).
		Clamp(0.977, 0.99).
		Rename("emissivity")
}

// LST computes emissivity-corrected land surface temperature from the
// thermal brightness band. Radiance is backed out of the brightness
// temperature, corrected for path radiance and narrow-band transmissivity,
// and converted back to temperature with the emissivity applied.
//
// The correction coefficients (rp 0.91, tnb 0.866, rsky 1.32) were derived
// over southern Idaho and may not hold elsewhere.
//
// References:
//
//	Allen, R., M. Tasumi, R. Trezza (2007). Satellite-Based Energy
//	Balance for Mapping Evapotranspiration with Internalized Calibration
//	(METRIC) Model. Journal of Irrigation and Drainage Engineering 133(4).
func LST(prepped expr.Image, k1, k2 float64) expr.Image {
	brightness := prepped.Select("lst")
	emissivity := Emissivity(prepped)

	radiance := expr.Expression("k1 / (exp(k2 / ts) - 1)", map[string]expr.Image{
		"ts": brightness,
		"k1": expr.Constant(k1),
		"k2": expr.Constant(k2),
	})
	corrected := expr.Expression("((rad - rp) / tnb) - ((1.0 - emiss) * rsky)", map[string]expr.Image{
		"rad":   radiance,
		"emiss": emissivity,
		"rp":    expr.Constant(0.91),
		"tnb":   expr.Constant(0.866),
		"rsky":  expr.Constant(1.32),
	})
	lst := expr.Expression("k2 / log(emiss * k1 / rc + 1)", map[string]expr.Image{
		"emiss": emissivity,
		"rc":    corrected,
		"k1":    expr.Constant(k1),
		"k2":    expr.Constant(k2),
	})

	return lst.Rename("lst")
}

// lapseThreshold is the minimum elevation [m] above which air temperature
// is lapse-adjusted.
const lapseThreshold = 1500

// LapseAdjust lowers air temperature by the elevation lapse rate
// (0.003 K/m) above the lapse threshold.
func LapseAdjust(temperature, elev expr.Image) expr.Image {
	adjusted := expr.Expression("t - (0.003 * (elev - threshold))", map[string]expr.Image{
		"t":         temperature,
		"elev":      elev,
		"threshold": expr.Constant(lapseThreshold),
	})
	return temperature.Where(elev.Gt(lapseThreshold), adjusted)
}
