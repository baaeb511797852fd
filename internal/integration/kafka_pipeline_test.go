//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/etstream/ssebop-tcorr-etl/internal/adapter/kafka"
	"github.com/etstream/ssebop-tcorr-etl/internal/config"
	"github.com/etstream/ssebop-tcorr-etl/internal/domain"
	"github.com/etstream/ssebop-tcorr-etl/internal/model"
	"github.com/etstream/ssebop-tcorr-etl/internal/observability"
	"github.com/etstream/ssebop-tcorr-etl/internal/pipeline"
	"github.com/etstream/ssebop-tcorr-etl/internal/tcorr"
)

const (
	testSourceTopic = "test-scene-events"
	testSinkTopic   = "test-tcorr-records"
)

// recordMessage holds a deserialized message read from the sink topic.
type recordMessage struct {
	Record  domain.TcorrRecord
	Key     string
	Headers map[string]string
}

// readRecord reads a single message from the sink consumer and deserializes it.
func readRecord(ctx context.Context, t *testing.T, consumer *kafkago.Reader) recordMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var record domain.TcorrRecord
	require.NoError(t, json.Unmarshal(msg.Value, &record), "unmarshal sink message")

	return recordMessage{
		Record:  record,
		Key:     string(msg.Key),
		Headers: headers,
	}
}

func testTransformer() *pipeline.SceneTransformer {
	scenes := tcorr.MapSceneTable{"LC08_044033_20170716": 0.9738}
	climatology := tcorr.NewClimatologyTable([]tcorr.ClimatologyFeature{
		{WRS2Tile: "p044r033", Month: 7, Tcorr: 0.9724},
	})
	resolver := tcorr.NewResolver(scenes, climatology)
	return pipeline.NewTransformer(resolver, model.DefaultParams(), nil,
		discardLogger(), observability.NewMetricsForTesting())
}

func makeScenePayload(t *testing.T, sceneID string) []byte {
	t.Helper()
	payload, err := json.Marshal(domain.RawSceneRecord{
		SceneID:    sceneID,
		Collection: "landsat/c02/t1_toa",
		CloudCover: 12.5,
	})
	require.NoError(t, err)
	return payload
}

// TestKafkaReaderWriter verifies the adapter layer: kafkaadapter.Reader
// (Extractor) and kafkaadapter.Writer (Loader) correctly round-trip a scene
// event through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-reader-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	payload := makeScenePayload(t, "LC08_044033_20170716")

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("LC08_044033_20170716"),
		Value: payload,
	}))

	// Extract via kafkaadapter.Reader.
	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafkaadapter.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("LC08_044033_20170716"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")

	// Commit the offset.
	require.NoError(t, raw.Commit(ctx))

	// Transform the raw event into a coefficient record.
	record, err := testTransformer().Transform(ctx, raw)
	require.NoError(t, err)

	// Load via kafkaadapter.Writer.
	writer := kafkaadapter.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, []domain.TcorrRecord{record}))

	// Read from the sink topic and verify headers + value.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	rm := readRecord(ctx, t, consumer)
	assert.Equal(t, "LC08_044033_20170716", rm.Key)
	assert.Equal(t, "scene", rm.Headers["tcorr_source"])
	assert.Contains(t, rm.Headers, "processed_at")
	_, err = time.Parse(time.RFC3339, rm.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.Equal(t, "LC08_044033_20170716", rm.Record.SceneID)
	assert.Equal(t, "p044r033", rm.Record.WRS2Tile)
	assert.Equal(t, 0.9738, rm.Record.Tcorr)
	assert.Equal(t, 0, rm.Record.TcorrIndex)
	assert.NotEmpty(t, rm.Record.ETfGraph)
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Transformer → Writer)
// with real Kafka and verifies all fallback tiers resolve correctly.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	// One scene per fallback tier: table hit, climatology hit, default.
	sceneIDs := []string{
		"LC08_044033_20170716", // scene table
		"LE07_044033_20170708", // July climatology for p044r033
		"LC08_042035_20171115", // nothing matches, default
	}

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(sceneIDs))
	for _, id := range sceneIDs {
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(id),
			Value: makeScenePayload(t, id),
		})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	// Wire up the pipeline.
	reader := kafkaadapter.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	writer := kafkaadapter.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, testTransformer(), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make(map[string]recordMessage, len(sceneIDs))
	for len(received) < len(sceneIDs) {
		rm := readRecord(ctx, t, consumer)
		received[rm.Record.SceneID] = rm
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	for _, rm := range received {
		assert.NotEmpty(t, rm.Headers["tcorr_source"], "missing tcorr_source header")
		assert.Contains(t, rm.Headers, "processed_at", "missing processed_at header")
		assert.NotEmpty(t, rm.Record.ETfGraph, "missing etf graph")
		assert.False(t, rm.Record.ProcessedAt.IsZero(), "missing processed_at")
	}

	sceneHit := received["LC08_044033_20170716"].Record
	assert.Equal(t, 0.9738, sceneHit.Tcorr)
	assert.Equal(t, "scene", sceneHit.TcorrSource)
	assert.Equal(t, 0, sceneHit.TcorrIndex)

	monthHit := received["LE07_044033_20170708"].Record
	assert.Equal(t, 0.9724, monthHit.Tcorr)
	assert.Equal(t, "month", monthHit.TcorrSource)
	assert.Equal(t, 1, monthHit.TcorrIndex)

	fallback := received["LC08_042035_20171115"].Record
	assert.Equal(t, tcorr.DefaultTcorr, fallback.Tcorr)
	assert.Equal(t, "default", fallback.TcorrSource)
	assert.Equal(t, 2, fallback.TcorrIndex)
	assert.Equal(t, "p042r035", fallback.WRS2Tile)
}

// TestPipelineTransformError verifies that an invalid message (poison pill) is
// skipped and the pipeline continues processing valid scenes.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("test-poison-%d", time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good"), Value: makeScenePayload(t, "LC08_044033_20170716")},
	))

	reader := kafkaadapter.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	writer := kafkaadapter.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, testTransformer(), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Only the valid scene should appear on the sink topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	rm := readRecord(ctx, t, consumer)
	assert.Equal(t, "LC08_044033_20170716", rm.Record.SceneID)

	// Verify no second message arrives (the poison pill was skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}

// --- container helpers ---

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "get kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial kafka")
	defer conn.Close()

	require.NoError(t, conn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
