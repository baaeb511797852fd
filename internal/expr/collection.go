package expr

// ImageCollection is a handle on a date-indexed platform collection.
// Filters narrow the collection server side; First materializes the
// earliest remaining image.
type ImageCollection struct {
	node *node
}

// Collection returns a reference to a platform image collection asset.
func Collection(ref string) ImageCollection {
	return ImageCollection{node: &node{Op: "collection", Ref: ref}}
}

// FilterDate narrows the collection to [start, end). Dates are ISO format
// (YYYY-MM-DD), end exclusive, matching the platform convention.
func (c ImageCollection) FilterDate(start, end string) ImageCollection {
	return ImageCollection{node: &node{Op: "filter_date", Input: c.node, Start: start, End: end}}
}

// FilterDayOfYear narrows the collection to images whose calendar day of
// year equals doy, the join key for day-indexed climatology collections.
func (c ImageCollection) FilterDayOfYear(doy int) ImageCollection {
	return ImageCollection{node: &node{Op: "filter_doy", Input: c.node, DayOfYear: doy}}
}

// Select narrows every image in the collection to the named bands.
func (c ImageCollection) Select(bands ...string) ImageCollection {
	return ImageCollection{node: &node{Op: "select", Input: c.node, Bands: bands}}
}

// SelectAs narrows every image in the collection to the from bands and
// renames them to the to bands.
func (c ImageCollection) SelectAs(from, to []string) ImageCollection {
	return ImageCollection{node: &node{Op: "select", Input: c.node, From: from, Bands: to}}
}

// First returns the first image of the filtered collection. Evaluating a
// First over an empty collection yields an undefined image; pair it with
// Fallback when a tier may be empty.
func (c ImageCollection) First() Image {
	return Image{node: &node{Op: "first", Input: c.node}}
}
