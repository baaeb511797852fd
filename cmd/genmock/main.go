// Command genmock generates mock scene-event fixtures and their expected
// coefficient records for test suites. It runs the actual transformer so the
// expected output matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -scene-table data/mock/tcorr_scene.json \
//	  -climatology data/mock/tcorr_month.json \
//	  -events-out data/mock/scene_events.json \
//	  -records-out data/mock/tcorr_records.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/etstream/ssebop-tcorr-etl/internal/domain"
	"github.com/etstream/ssebop-tcorr-etl/internal/model"
	"github.com/etstream/ssebop-tcorr-etl/internal/observability"
	"github.com/etstream/ssebop-tcorr-etl/internal/pipeline"
	"github.com/etstream/ssebop-tcorr-etl/internal/tcorr"
)

// defaultScenes covers every supported sensor and a spread of months, so the
// fixtures exercise each fallback tier against the mock tables.
var defaultScenes = []string{
	"LT05_044033_20110716",
	"LE07_044033_20170708",
	"LC08_044033_20170716",
	"LC08_042035_20171115",
	"LC09_044033_20220421",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	sceneTablePath := flag.String("scene-table", "", "path to scene coefficient table JSON (optional)")
	climatologyPath := flag.String("climatology", "", "path to monthly climatology table JSON (optional)")
	sceneList := flag.String("scenes", strings.Join(defaultScenes, ","), "comma-separated Landsat scene IDs")
	eventsOut := flag.String("events-out", "", "output path for raw scene event fixture")
	recordsOut := flag.String("records-out", "", "output path for expected coefficient record fixture")
	flag.Parse()

	if *eventsOut == "" || *recordsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -events-out, -records-out")
	}

	// Set a fixed clock for reproducible ProcessedAt timestamps and record IDs.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2023, time.January, 15, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	var scenes tcorr.MapSceneTable
	var climatology tcorr.MapClimatologyTable
	var err error
	if *sceneTablePath != "" {
		if scenes, err = tcorr.LoadSceneTable(*sceneTablePath); err != nil {
			return err
		}
	}
	if *climatologyPath != "" {
		if climatology, err = tcorr.LoadClimatologyTable(*climatologyPath); err != nil {
			return err
		}
	}

	resolver := tcorr.NewResolver(scenes, climatology)
	tfm := pipeline.NewTransformer(resolver, model.DefaultParams(), nil,
		slog.Default(), observability.NewMetricsForTesting())

	var events []domain.RawSceneRecord
	var records []domain.TcorrRecord
	tierCounts := map[string]int{}

	for _, id := range strings.Split(*sceneList, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}

		event := domain.RawSceneRecord{
			SceneID:    id,
			Collection: "landsat/c02/t1_toa",
			CloudCover: 12.5,
		}

		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}

		record, err := tfm.Transform(context.Background(), domain.RawEvent{
			Key:   []byte(id),
			Value: payload,
		})
		if err != nil {
			return fmt.Errorf("transform %s: %w", id, err)
		}

		events = append(events, event)
		records = append(records, record)
		tierCounts[record.TcorrSource]++
	}

	if err := writeJSON(*eventsOut, events); err != nil {
		return fmt.Errorf("writing event fixture: %w", err)
	}
	log.Printf("wrote event fixture: %s", *eventsOut)

	if err := writeJSON(*recordsOut, records); err != nil {
		return fmt.Errorf("writing record fixture: %w", err)
	}
	log.Printf("wrote record fixture: %s", *recordsOut)

	log.Printf("total: %d scenes (scene=%d month=%d default=%d user=%d)",
		len(records), tierCounts["scene"], tierCounts["month"],
		tierCounts["default"], tierCounts["user"])
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
