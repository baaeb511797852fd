// Package model expresses the SSEBop evapotranspiration formulation as
// server-side evaluation graphs.
//
// SSEBop estimates the fraction of reference evapotranspiration (ETf) per
// pixel from land surface temperature, a temperature difference between the
// hot and cold limiting conditions (dT), maximum air temperature, and the
// temperature correction coefficient (Tcorr). All operations are symbolic;
// nothing is computed locally.
package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/etstream/ssebop-tcorr-etl/internal/domain"
	"github.com/etstream/ssebop-tcorr-etl/internal/expr"
	"github.com/etstream/ssebop-tcorr-etl/internal/tcorr"
)

// Climatology and topography asset references on the compute platform.
// dT and Tmax median assets are day-of-year indexed collections.
var (
	dtAssets = map[string]string{
		"daymet_median_v0": "climatology/dt/daymet_median_v0",
		"daymet_median_v1": "climatology/dt/daymet_median_v1",
	}
	tmaxMedianAssets = map[string]string{
		"cimis_median_v1":   "climatology/tmax/cimis_median_v1",
		"daymet_median_v0":  "climatology/tmax/daymet_median_v0",
		"daymet_median_v1":  "climatology/tmax/daymet_median_v1",
		"gridmet_median_v1": "climatology/tmax/gridmet_median_v1",
		"topowx_median_v0":  "climatology/tmax/topowx_median_v0",
	}
	// Daily Tmax sources fall back to their median climatology when the
	// daily image does not exist yet.
	tmaxDailySources = map[string]struct {
		collection string
		band       string
		median     string
	}{
		"cimis":   {"meteorology/cimis/daily", "Tx", "climatology/tmax/cimis_median_v1"},
		"daymet":  {"meteorology/daymet/daily", "tmax", "climatology/tmax/daymet_median_v0"},
		"gridmet": {"meteorology/gridmet/daily", "tmmx", "climatology/tmax/gridmet_median_v1"},
	}
	elevAssets = map[string]string{
		"gtopo": "topography/gtopo30",
		"ned":   "topography/ned",
		"srtm":  "topography/srtm_30m",
	}
)

// Params holds the model's tunable inputs. Source fields accept a keyword
// or a numeric literal; numeric literals become constant images.
type Params struct {
	DTSource       string
	ElevSource     string
	TmaxSource     string
	TdiffThreshold float64 // cloud mask buffer [K]
	DTMin          float64 // minimum allowable dT [K]
	DTMax          float64 // maximum allowable dT [K]
	ELRFlag        bool    // apply elevation lapse rate adjustment
}

// DefaultParams returns the operational parameter set.
func DefaultParams() Params {
	return Params{
		DTSource:       "daymet_median_v1",
		ElevSource:     "srtm",
		TmaxSource:     "topowx_median_v0",
		TdiffThreshold: 15,
		DTMin:          6,
		DTMax:          25,
	}
}

// SceneImage binds a prepped scene to the model. The prepped image must
// carry "lst" and "ndvi" bands (see PrepTOA / PrepSR).
type SceneImage struct {
	lst    expr.Image
	ndvi   expr.Image
	scene  domain.Scene
	params Params
}

// New wraps a prepped input image for a scene.
func New(prepped expr.Image, scene domain.Scene, params Params) *SceneImage {
	return &SceneImage{
		lst:    prepped.Select("lst"),
		ndvi:   prepped.Select("ndvi"),
		scene:  scene,
		params: params,
	}
}

// LST returns the scene's land surface temperature band.
func (s *SceneImage) LST() expr.Image { return s.lst }

// NDVI returns the scene's vegetation index band.
func (s *SceneImage) NDVI() expr.Image { return s.ndvi }

// DT builds the hot/cold temperature difference image for the scene's day
// of year, clamped to the allowable range.
func (s *SceneImage) DT() (expr.Image, error) {
	if v, ok := parseNumber(s.params.DTSource); ok {
		return expr.Constant(v).Clamp(s.params.DTMin, s.params.DTMax), nil
	}

	ref, ok := dtAssets[strings.ToLower(s.params.DTSource)]
	if !ok {
		return expr.Image{}, fmt.Errorf("build dt: unsupported source %q", s.params.DTSource)
	}
	dt := expr.Collection(ref).
		FilterDayOfYear(s.scene.DayOfYear()).
		First()
	return dt.Clamp(s.params.DTMin, s.params.DTMax), nil
}

// Elev builds the elevation image.
func (s *SceneImage) Elev() (expr.Image, error) {
	src := strings.ToLower(s.params.ElevSource)
	if v, ok := parseNumber(src); ok {
		return expr.Constant(v).Rename("elev"), nil
	}
	if ref, ok := elevAssets[src]; ok {
		return expr.Asset(ref).Select("elev"), nil
	}
	// Any path-like source is treated as a direct asset reference.
	if strings.Contains(src, "/") {
		return expr.Asset(s.params.ElevSource).Select("elev"), nil
	}
	return expr.Image{}, fmt.Errorf("build elev: unsupported source %q", s.params.ElevSource)
}

// Tmax builds the maximum air temperature image. Daily sources fall back
// to their day-of-year median climatology when no daily image exists for
// the acquisition date.
func (s *SceneImage) Tmax() (expr.Image, error) {
	src := strings.ToLower(s.params.TmaxSource)

	if v, ok := parseNumber(src); ok {
		return expr.Constant(v).Rename("tmax"), nil
	}

	if daily, ok := tmaxDailySources[src]; ok {
		start := s.scene.Acquired.Format("2006-01-02")
		end := s.scene.Acquired.AddDate(0, 0, 1).Format("2006-01-02")
		dailyImg := expr.Collection(daily.collection).
			FilterDate(start, end).
			SelectAs([]string{daily.band}, []string{"tmax"}).
			First()
		medianImg := expr.Collection(daily.median).
			FilterDayOfYear(s.scene.DayOfYear()).
			First()
		return expr.Fallback(dailyImg, medianImg), nil
	}

	if ref, ok := tmaxMedianAssets[src]; ok {
		return expr.Collection(ref).
			FilterDayOfYear(s.scene.DayOfYear()).
			First(), nil
	}

	return expr.Image{}, fmt.Errorf("build tmax: unsupported source %q", s.params.TmaxSource)
}

// ETf builds the ET fraction graph for the scene using a resolved Tcorr
// coefficient. Values at or above 1.3 are masked as contaminated, the rest
// clamped to [0, 1.05], and a Tdiff buffer masks residual cloud edges.
func (s *SceneImage) ETf(coeff tcorr.Coefficient) (expr.Image, error) {
	tmax, err := s.Tmax()
	if err != nil {
		return expr.Image{}, err
	}
	dt, err := s.DT()
	if err != nil {
		return expr.Image{}, err
	}

	if s.params.ELRFlag {
		elev, err := s.Elev()
		if err != nil {
			return expr.Image{}, err
		}
		tmax = LapseAdjust(tmax, elev)
	}

	etf := expr.Expression("(lst * (-1) + tmax * tcorr + dt) / dt", map[string]expr.Image{
		"lst":   s.lst,
		"tmax":  tmax,
		"tcorr": expr.Constant(coeff.Value),
		"dt":    dt,
	})
	etf = etf.
		UpdateMask(etf.Lt(1.3)).
		Clamp(0, 1.05).
		UpdateMask(tmax.Subtract(s.lst).Lte(s.params.TdiffThreshold)).
		Set(map[string]any{
			"scene_id":    s.scene.ID,
			"tcorr":       coeff.Value,
			"tcorr_index": int(coeff.Source),
		})

	return etf.Rename("etf"), nil
}

// TcorrImage builds the per-pixel Tcorr graph: LST over Tmax, restricted
// to cold, densely vegetated pixels with a plausible Tdiff.
func (s *SceneImage) TcorrImage() (expr.Image, error) {
	tmax, err := s.Tmax()
	if err != nil {
		return expr.Image{}, err
	}

	ratio := s.lst.Divide(tmax)

	tdiff := tmax.Subtract(s.lst)
	mask := s.lst.Gt(270).
		And(s.ndvi.Gt(0.7)).
		And(tdiff.Gt(0)).
		And(tdiff.Lte(s.params.TdiffThreshold))

	return ratio.
		UpdateMask(mask).
		Rename("tcorr").
		Set(map[string]any{"scene_id": s.scene.ID}), nil
}

// TcorrStats builds the graph reducing the Tcorr image to its 5th
// percentile and qualifying pixel count, the statistics exported to the
// per-scene coefficient table.
func (s *SceneImage) TcorrStats() (expr.Image, error) {
	img, err := s.TcorrImage()
	if err != nil {
		return expr.Image{}, err
	}
	return img.ReduceRegion(expr.Percentile(5).Combine(expr.Count())), nil
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}
