package domain

import (
	"context"
	"encoding/json"
	"time"
)

// RawSceneRecord represents the flat JSON structure produced by the
// collector for each new Landsat acquisition.
type RawSceneRecord struct {
	SceneID    string  `json:"scene_id"`
	Collection string  `json:"collection,omitempty"`  // archive collection, e.g. "LANDSAT/LC08/C02/T1_L2"
	CloudCover float64 `json:"cloud_cover,omitempty"` // scene-wide cloud cover percent
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// SceneEvent is the domain-rich representation after parsing.
type SceneEvent struct {
	Scene      Scene
	Collection string
	CloudCover float64

	RawPayload []byte
}

// TcorrRecord is the resolved coefficient record destined for the sink topic.
type TcorrRecord struct {
	ID          string  `json:"id"`
	SceneID     string  `json:"scene_id"`
	Sensor      string  `json:"sensor"`
	WRS2Tile    string  `json:"wrs2_tile"`
	Month       int     `json:"month"`
	Year        int     `json:"year"`
	Tcorr       float64 `json:"tcorr"`
	TcorrIndex  int     `json:"tcorr_index"`
	TcorrSource string  `json:"tcorr_source"`
	Collection  string  `json:"collection,omitempty"`
	CloudCover  float64 `json:"cloud_cover,omitempty"`

	// ETfGraph holds the serialized server-side evaluation graph for the
	// scene's ET fraction, ready for submission to the compute platform.
	ETfGraph json.RawMessage `json:"etf_graph,omitempty"`

	// Scene statistics enrichment fields, populated when the platform
	// evaluator is enabled.
	SceneTcorrP5    *float64 `json:"scene_tcorr_p5,omitempty"`
	SceneTcorrCount *int64   `json:"scene_tcorr_count,omitempty"`
	StatsSource     string   `json:"stats_source,omitempty"` // "platform", "failed", "skipped"

	RawPayload  []byte    `json:"-"`
	ProcessedAt time.Time `json:"processed_at"`
}
