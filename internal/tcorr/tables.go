package tcorr

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// SceneFeature is one row of a per-scene coefficient table asset.
type SceneFeature struct {
	SceneID string  `json:"scene_id"`
	Tcorr   float64 `json:"tcorr"`
}

// ClimatologyFeature is one row of a monthly climatology table asset.
type ClimatologyFeature struct {
	WRS2Tile string  `json:"wrs2_tile"`
	Month    int     `json:"month"`
	Tcorr    float64 `json:"tcorr"`
}

// MapSceneTable is an in-memory SceneTable.
type MapSceneTable map[string]float64

// SceneTcorr implements SceneTable.
func (t MapSceneTable) SceneTcorr(sceneID string) (float64, bool) {
	v, ok := t[sceneID]
	return v, ok
}

// MapClimatologyTable is an in-memory ClimatologyTable keyed by WRS-2 tile
// and month.
type MapClimatologyTable map[string]float64

// ClimatologyKey builds the composite lookup key for a tile and month.
func ClimatologyKey(wrs2Tile string, month int) string {
	return fmt.Sprintf("%s|%02d", wrs2Tile, month)
}

// MonthlyTcorr implements ClimatologyTable.
func (t MapClimatologyTable) MonthlyTcorr(wrs2Tile string, month int) (float64, bool) {
	v, ok := t[ClimatologyKey(wrs2Tile, month)]
	return v, ok
}

// NewSceneTable builds an in-memory table from features. Later duplicates
// win, matching the export convention where reruns overwrite earlier rows.
func NewSceneTable(features []SceneFeature) MapSceneTable {
	t := make(MapSceneTable, len(features))
	for _, f := range features {
		t[f.SceneID] = f.Tcorr
	}
	return t
}

// NewClimatologyTable builds an in-memory table from features.
func NewClimatologyTable(features []ClimatologyFeature) MapClimatologyTable {
	t := make(MapClimatologyTable, len(features))
	for _, f := range features {
		t[ClimatologyKey(f.WRS2Tile, f.Month)] = f.Tcorr
	}
	return t
}

// featureFile is the JSON envelope shared by exported table assets.
type featureFile[F any] struct {
	Features []F `json:"features"`
}

func decodeFeatures[F any](r io.Reader) ([]F, error) {
	var file featureFile[F]
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode feature table: %w", err)
	}
	return file.Features, nil
}

// ReadSceneTable decodes a per-scene table asset from r.
func ReadSceneTable(r io.Reader) (MapSceneTable, error) {
	features, err := decodeFeatures[SceneFeature](r)
	if err != nil {
		return nil, err
	}
	return NewSceneTable(features), nil
}

// ReadClimatologyTable decodes a monthly climatology asset from r.
func ReadClimatologyTable(r io.Reader) (MapClimatologyTable, error) {
	features, err := decodeFeatures[ClimatologyFeature](r)
	if err != nil {
		return nil, err
	}
	return NewClimatologyTable(features), nil
}

// LoadSceneTable reads a per-scene table asset from a file.
func LoadSceneTable(path string) (MapSceneTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene table: %w", err)
	}
	defer f.Close()
	return ReadSceneTable(f)
}

// LoadClimatologyTable reads a monthly climatology asset from a file.
func LoadClimatologyTable(path string) (MapClimatologyTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open climatology table: %w", err)
	}
	defer f.Close()
	return ReadClimatologyTable(f)
}
