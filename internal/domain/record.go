package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseRawEvent deserializes a RawEvent's value into a SceneEvent.
// It expects the flat JSON produced by the collector service and requires a
// well-formed scene identifier; anything else is a poison message.
func ParseRawEvent(raw RawEvent) (SceneEvent, error) {
	var rec RawSceneRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return SceneEvent{}, fmt.Errorf("parse raw event: %w", err)
	}

	scene, err := ParseSceneID(strings.TrimSpace(rec.SceneID))
	if err != nil {
		return SceneEvent{}, fmt.Errorf("parse raw event: %w", err)
	}

	return SceneEvent{
		Scene:      scene,
		Collection: rec.Collection,
		CloudCover: rec.CloudCover,

		RawPayload: raw.Value,
	}, nil
}

// NewTcorrRecord builds the base record for a scene event. The coefficient
// fields are filled in by the transformer after resolution.
func NewTcorrRecord(event SceneEvent) TcorrRecord {
	scene := event.Scene
	return TcorrRecord{
		ID:          generateID(scene),
		SceneID:     scene.ID,
		Sensor:      scene.Sensor,
		WRS2Tile:    scene.WRS2Tile(),
		Month:       scene.Month(),
		Year:        scene.Year(),
		Collection:  event.Collection,
		CloudCover:  event.CloudCover,
		RawPayload:  event.RawPayload,
		ProcessedAt: clock.Now(),
	}
}

// generateID produces a deterministic ID from the scene's key fields.
// Deterministic IDs enable idempotent upserts downstream: reprocessing the
// same scene produces the same ID.
func generateID(scene Scene) string {
	input := fmt.Sprintf("%s|%s|%s", scene.ID, scene.WRS2Tile(), scene.Acquired.Format("20060102"))
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if scene.Sensor == "" {
		return short
	}
	return strings.ToLower(scene.Sensor) + "-" + short
}
