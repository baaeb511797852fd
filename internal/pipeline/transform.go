package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/etstream/ssebop-tcorr-etl/internal/domain"
	"github.com/etstream/ssebop-tcorr-etl/internal/expr"
	"github.com/etstream/ssebop-tcorr-etl/internal/model"
	"github.com/etstream/ssebop-tcorr-etl/internal/observability"
	"github.com/etstream/ssebop-tcorr-etl/internal/platform"
	"github.com/etstream/ssebop-tcorr-etl/internal/tcorr"
)

// Statistics enrichment outcomes recorded on each coefficient record.
const (
	statsSourcePlatform = "platform"
	statsSourceFailed   = "failed"
	statsSourceSkipped  = "skipped"
)

// SceneTransformer implements Transformer: it resolves the Tcorr coefficient
// for each scene, builds the ETf evaluation graph, and optionally enriches
// the record with scene Tcorr statistics from the compute platform.
type SceneTransformer struct {
	resolver  *tcorr.Resolver
	params    model.Params
	evaluator platform.Evaluator
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewTransformer creates a SceneTransformer. Pass a nil evaluator to disable
// statistics enrichment.
func NewTransformer(resolver *tcorr.Resolver, params model.Params, evaluator platform.Evaluator, logger *slog.Logger, metrics *observability.Metrics) *SceneTransformer {
	return &SceneTransformer{
		resolver:  resolver,
		params:    params,
		evaluator: evaluator,
		logger:    logger,
		metrics:   metrics,
	}
}

func (t *SceneTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.TcorrRecord, error) {
	event, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.TcorrRecord{}, err
	}

	record := domain.NewTcorrRecord(event)
	scene := event.Scene

	coeff := t.resolver.Resolve(scene.ID, scene.WRS2Tile(), scene.Month())
	record.Tcorr = coeff.Value
	record.TcorrIndex = int(coeff.Source)
	record.TcorrSource = coeff.Source.String()
	t.metrics.TcorrResolved.WithLabelValues(coeff.Source.String()).Inc()

	prepped, err := prepScene(event)
	if err != nil {
		return domain.TcorrRecord{}, err
	}
	img := model.New(prepped, scene, t.params)

	etf, err := img.ETf(coeff)
	if err != nil {
		return domain.TcorrRecord{}, err
	}
	graph, err := etf.Graph()
	if err != nil {
		return domain.TcorrRecord{}, err
	}
	record.ETfGraph = graph

	t.enrichStats(ctx, &record, img)

	return record, nil
}

// prepScene builds the renamed lst/ndvi input image for the event's
// collection. Surface reflectance collections carry "SR" in their name.
func prepScene(event domain.SceneEvent) (expr.Image, error) {
	asset := expr.Asset(event.Collection + "/" + event.Scene.ID)
	if strings.Contains(strings.ToUpper(event.Collection), "SR") {
		return model.PrepSR(asset, event.Scene.SpacecraftID())
	}
	return model.PrepTOA(asset, event.Scene.SpacecraftID())
}

// enrichStats evaluates the scene's Tcorr statistics graph on the compute
// platform. Failures degrade the record rather than dropping it.
func (t *SceneTransformer) enrichStats(ctx context.Context, record *domain.TcorrRecord, img *model.SceneImage) {
	if t.evaluator == nil {
		record.StatsSource = statsSourceSkipped
		return
	}

	stats, err := img.TcorrStats()
	if err != nil {
		t.logger.Warn("build tcorr stats graph failed", "error", err, "scene_id", record.SceneID)
		record.StatsSource = statsSourceFailed
		return
	}
	graph, err := stats.Graph()
	if err != nil {
		t.logger.Warn("serialize tcorr stats graph failed", "error", err, "scene_id", record.SceneID)
		record.StatsSource = statsSourceFailed
		return
	}

	values, err := t.evaluator.Evaluate(ctx, graph)
	if err != nil {
		t.logger.Warn("evaluate tcorr stats failed", "error", err, "scene_id", record.SceneID)
		record.StatsSource = statsSourceFailed
		return
	}

	p5 := values["tcorr_p5"]
	count := int64(values["count"])
	record.SceneTcorrP5 = &p5
	record.SceneTcorrCount = &count
	record.StatsSource = statsSourcePlatform
}
