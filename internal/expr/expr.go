// Package expr assembles server-side evaluation graphs for the remote
// raster computation platform.
//
// Every operation is symbolic: an Image is an immutable handle on a node in
// a graph of per-pixel image-algebra operations (band math, masking,
// reducers, date-indexed collection lookups). No raster data is touched
// locally; the serialized graph is submitted to the platform, which
// performs the actual computation, tiling, and distributed execution.
//
// Operations return new Images and never mutate their receiver, so partial
// graphs can be shared freely between expressions.
package expr

import (
	"encoding/json"
	"fmt"
)

// Image is an immutable handle on an evaluation graph node.
type Image struct {
	node *node
}

// node is the wire representation of a graph operation. Fields are
// populated per op and omitted otherwise.
type node struct {
	Op         string           `json:"op"`
	Value      *float64         `json:"value,omitempty"`
	Ref        string           `json:"ref,omitempty"`
	Bands      []string         `json:"bands,omitempty"`
	From       []string         `json:"from,omitempty"`
	Formula    string           `json:"formula,omitempty"`
	Args       map[string]*node `json:"args,omitempty"`
	Input      *node            `json:"input,omitempty"`
	Inputs     []*node          `json:"inputs,omitempty"`
	Left       *node            `json:"left,omitempty"`
	Right      *node            `json:"right,omitempty"`
	Mask       *node            `json:"mask,omitempty"`
	Test       *node            `json:"test,omitempty"`
	Min        *float64         `json:"min,omitempty"`
	Max        *float64         `json:"max,omitempty"`
	Start      string           `json:"start,omitempty"`
	End        string           `json:"end,omitempty"`
	DayOfYear  int              `json:"day_of_year,omitempty"`
	Reducer    *Reducer         `json:"reducer,omitempty"`
	Properties map[string]any   `json:"properties,omitempty"`
}

func ptr(v float64) *float64 { return &v }

// Constant returns an image where every pixel holds v.
func Constant(v float64) Image {
	return Image{node: &node{Op: "constant", Value: ptr(v)}}
}

// Asset returns a reference to a single platform image asset.
func Asset(ref string) Image {
	return Image{node: &node{Op: "asset", Ref: ref}}
}

// Stack combines single-band images into one multi-band image, preserving
// band order.
func Stack(images ...Image) Image {
	n := &node{Op: "stack", Inputs: make([]*node, len(images))}
	for i, img := range images {
		n.Inputs[i] = img.node
	}
	return Image{node: n}
}

// Expression binds named images into a per-pixel formula, e.g.
//
//	Expression("(lst * (-1) + tmax * tcorr + dt) / dt", map[string]Image{...})
//
// The formula syntax is evaluated by the platform; names must match the
// keys of args.
func Expression(formula string, args map[string]Image) Image {
	n := &node{Op: "expression", Formula: formula, Args: make(map[string]*node, len(args))}
	for name, img := range args {
		n.Args[name] = img.node
	}
	return Image{node: n}
}

// Fallback evaluates to primary where primary is defined and secondary
// elsewhere, covering date-indexed lookups that may come back empty.
func Fallback(primary, secondary Image) Image {
	return Image{node: &node{Op: "fallback", Left: primary.node, Right: secondary.node}}
}

// Select narrows the image to the named bands.
func (img Image) Select(bands ...string) Image {
	return Image{node: &node{Op: "select", Input: img.node, Bands: bands}}
}

// SelectAs narrows the image to the from bands and renames them to the
// to bands in one step.
func (img Image) SelectAs(from, to []string) Image {
	return Image{node: &node{Op: "select", Input: img.node, From: from, Bands: to}}
}

// Rename renames the image's bands in order.
func (img Image) Rename(bands ...string) Image {
	return Image{node: &node{Op: "rename", Input: img.node, Bands: bands}}
}

// NormalizedDifference computes (b1 - b2) / (b1 + b2) per pixel.
func (img Image) NormalizedDifference(b1, b2 string) Image {
	return Image{node: &node{Op: "normalized_difference", Input: img.node, From: []string{b1, b2}}}
}

func (img Image) binary(op string, other Image) Image {
	return Image{node: &node{Op: op, Left: img.node, Right: other.node}}
}

// Add returns img + other per pixel.
func (img Image) Add(other Image) Image { return img.binary("add", other) }

// Subtract returns img - other per pixel.
func (img Image) Subtract(other Image) Image { return img.binary("subtract", other) }

// Multiply returns img * other per pixel.
func (img Image) Multiply(other Image) Image { return img.binary("multiply", other) }

// Divide returns img / other per pixel.
func (img Image) Divide(other Image) Image { return img.binary("divide", other) }

// And returns the logical conjunction of two mask images.
func (img Image) And(other Image) Image { return img.binary("and", other) }

// Or returns the logical disjunction of two mask images.
func (img Image) Or(other Image) Image { return img.binary("or", other) }

// Gt returns a mask of pixels greater than v.
func (img Image) Gt(v float64) Image { return img.binary("gt", Constant(v)) }

// Gte returns a mask of pixels greater than or equal to v.
func (img Image) Gte(v float64) Image { return img.binary("gte", Constant(v)) }

// Lt returns a mask of pixels less than v.
func (img Image) Lt(v float64) Image { return img.binary("lt", Constant(v)) }

// Lte returns a mask of pixels less than or equal to v.
func (img Image) Lte(v float64) Image { return img.binary("lte", Constant(v)) }

// UpdateMask hides pixels where mask evaluates to zero.
func (img Image) UpdateMask(mask Image) Image {
	return Image{node: &node{Op: "update_mask", Input: img.node, Mask: mask.node}}
}

// Clamp limits pixel values to [min, max].
func (img Image) Clamp(min, max float64) Image {
	return Image{node: &node{Op: "clamp", Input: img.node, Min: ptr(min), Max: ptr(max)}}
}

// Where replaces pixels where test is non-zero with the corresponding
// pixels of value.
func (img Image) Where(test, value Image) Image {
	return Image{node: &node{Op: "where", Input: img.node, Test: test.node, Right: value.node}}
}

// WhereValue replaces pixels where test is non-zero with the constant v.
func (img Image) WhereValue(test Image, v float64) Image {
	return img.Where(test, Constant(v))
}

// Set attaches metadata properties to the image.
func (img Image) Set(properties map[string]any) Image {
	return Image{node: &node{Op: "set", Input: img.node, Properties: properties}}
}

// ReduceRegion aggregates the image over its footprint with the given
// reducer. The result is itself a graph node: the platform returns the
// reduced dictionary when the graph is evaluated.
func (img Image) ReduceRegion(r Reducer) Image {
	return Image{node: &node{Op: "reduce_region", Input: img.node, Reducer: &r}}
}

// Graph serializes the evaluation graph for submission to the platform.
func (img Image) Graph() ([]byte, error) {
	if img.node == nil {
		return nil, fmt.Errorf("serialize graph: empty image")
	}
	data, err := json.Marshal(img.node)
	if err != nil {
		return nil, fmt.Errorf("serialize graph: %w", err)
	}
	return data, nil
}

// MarshalJSON serializes the image's graph node.
func (img Image) MarshalJSON() ([]byte, error) {
	return json.Marshal(img.node)
}
