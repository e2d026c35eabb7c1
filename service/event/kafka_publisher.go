/*
 * @module service/event/kafka_publisher
 * @description Kafka publisher for inspection result events consumed by downstream analytics
 * @architecture adapter pattern - wraps the kafka-go writer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow result persisted -> event serialized -> async write to topic
 * @rules publishing is best-effort; a broker outage never fails a scoring call
 * @dependencies github.com/segmentio/kafka-go, encoding/json
 * @refs service/etiqueta/service.go
 */

package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"controlflow-service/service/models"

	"github.com/segmentio/kafka-go"
)

// ResultTopic is where inspection result events are published.
const ResultTopic = "controlflow.inspection.results"

// KafkaPublisher writes inspection result events to Kafka.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher from the KAFKA_BROKERS environment
// variable (comma-separated). Returns nil when no brokers are configured.
func NewKafkaPublisher() *KafkaPublisher {
	brokersEnv := strings.TrimSpace(getEnvWithDefault("KAFKA_BROKERS", ""))
	if brokersEnv == "" {
		return nil
	}

	brokers := strings.Split(brokersEnv, ",")
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        ResultTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchTimeout: 100 * time.Millisecond,
	}

	slog.Info("kafka result publisher enabled", "brokers", brokers, "topic", ResultTopic)
	return &KafkaPublisher{writer: writer}
}

// PublishResult implements the etiqueta result-publisher hook.
func (p *KafkaPublisher) PublishResult(event models.ResultEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to serialize result event", "result_id", event.ResultID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.QuestionID),
		Value: payload,
	})
	if err != nil {
		slog.Error("failed to publish result event", "result_id", event.ResultID, "error", err)
	}
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
