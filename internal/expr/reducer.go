package expr

// Reducer describes a server-side regional aggregation.
type Reducer struct {
	Name        string    `json:"name"`
	Percentiles []int     `json:"percentiles,omitempty"`
	Combined    []Reducer `json:"combined,omitempty"`
}

// Percentile returns a reducer computing the given percentiles.
func Percentile(percentiles ...int) Reducer {
	return Reducer{Name: "percentile", Percentiles: percentiles}
}

// Count returns a reducer counting unmasked pixels.
func Count() Reducer {
	return Reducer{Name: "count"}
}

// Mean returns a reducer computing the unmasked pixel mean.
func Mean() Reducer {
	return Reducer{Name: "mean"}
}

// Combine runs both reducers in a single pass over the region.
func (r Reducer) Combine(other Reducer) Reducer {
	return Reducer{Name: "combine", Combined: []Reducer{r, other}}
}
