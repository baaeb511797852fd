// Package tcorr resolves the SSEBop temperature correction coefficient
// (Tcorr, also called the c-factor) for a Landsat scene.
//
// Tcorr scales maximum air temperature toward the cold/wet limiting
// condition of the surface energy balance. A per-scene value computed from
// well-vegetated pixels is preferred; when a scene has too few qualifying
// pixels to produce one, a long-term monthly median for the scene's WRS-2
// tile is used; when no climatology exists either, a fixed global default
// applies. Resolution is total: every well-formed input yields exactly one
// coefficient, and absence at a tier is expected rather than exceptional.
package tcorr

// DefaultTcorr is the terminal fallback coefficient. It guarantees that
// resolution always produces a value.
const DefaultTcorr = 0.978

// Source identifies which fallback tier produced a coefficient. The numeric
// values are published downstream and must stay stable.
type Source int

const (
	SourceScene   Source = 0 // scene-specific value from the per-scene table
	SourceMonth   Source = 1 // monthly median for the scene's WRS-2 tile
	SourceDefault Source = 2 // global default
	SourceUser    Source = 3 // caller-supplied fixed value
)

// String returns the label published in the tcorr_source record field.
func (s Source) String() string {
	switch s {
	case SourceScene:
		return "scene"
	case SourceMonth:
		return "month"
	case SourceDefault:
		return "default"
	case SourceUser:
		return "user"
	default:
		return "unknown"
	}
}

// Coefficient is a resolved Tcorr value with its provenance.
type Coefficient struct {
	Value  float64
	Source Source
}

// SceneTable looks up a scene-specific coefficient by scene identifier.
type SceneTable interface {
	SceneTcorr(sceneID string) (float64, bool)
}

// ClimatologyTable looks up a monthly median coefficient by WRS-2 tile.
type ClimatologyTable interface {
	MonthlyTcorr(wrs2Tile string, month int) (float64, bool)
}

// Resolver resolves coefficients through the fixed fallback chain:
// scene value, then monthly climatology, then the default. A fixed
// user value short-circuits the chain entirely.
type Resolver struct {
	scenes       SceneTable
	climatology  ClimatologyTable
	defaultValue float64
	fixed        *float64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDefault overrides the terminal fallback value.
func WithDefault(v float64) Option {
	return func(r *Resolver) { r.defaultValue = v }
}

// WithFixed makes every resolution return v with user provenance,
// bypassing the tables.
func WithFixed(v float64) Option {
	return func(r *Resolver) { r.fixed = &v }
}

// NewResolver creates a Resolver over the given tables. Either table may be
// nil, in which case its tier never matches.
func NewResolver(scenes SceneTable, climatology ClimatologyTable, opts ...Option) *Resolver {
	r := &Resolver{
		scenes:       scenes,
		climatology:  climatology,
		defaultValue: DefaultTcorr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the coefficient for a scene. It is a pure function of the
// resolver's tables: no side effects, no error conditions, and repeated
// calls with identical inputs return identical results.
func (r *Resolver) Resolve(sceneID, wrs2Tile string, month int) Coefficient {
	if r.fixed != nil {
		return Coefficient{Value: *r.fixed, Source: SourceUser}
	}

	if r.scenes != nil {
		if v, ok := r.scenes.SceneTcorr(sceneID); ok {
			return Coefficient{Value: v, Source: SourceScene}
		}
	}

	if r.climatology != nil {
		if v, ok := r.climatology.MonthlyTcorr(wrs2Tile, month); ok {
			return Coefficient{Value: v, Source: SourceMonth}
		}
	}

	return Coefficient{Value: r.defaultValue, Source: SourceDefault}
}
