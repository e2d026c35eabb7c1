/*
 * @module service/intake/mqtt_intake
 * @description MQTT intake for inspection-station submissions: stations publish label photos, the service scores them
 * @architecture publish-subscribe - MQTT client subscribed to station topics
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow connect -> subscribe controlflow/stations/+/submissions -> decode -> score -> publish outcome back
 * @rules submissions are processed off the MQTT callback goroutine; malformed payloads are rejected, not retried
 * @dependencies github.com/eclipse/paho.mqtt.golang, controlflow-service/service/etiqueta
 * @refs service/etiqueta/service.go
 */

package intake

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"controlflow-service/service/etiqueta"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	submissionTopic = "controlflow/stations/+/submissions"
	resultTopicFmt  = "controlflow/stations/%s/results"
)

// StationSubmission is the payload stations publish.
type StationSubmission struct {
	QuestionID  string `json:"question_id"`
	StationID   string `json:"station_id"`
	ImageBase64 string `json:"image_base64"`
}

// StationOutcome is published back to the station after scoring.
type StationOutcome struct {
	QuestionID      string  `json:"question_id"`
	ResultID        string  `json:"result_id,omitempty"`
	SimilarityScore float64 `json:"similarity_score,omitempty"`
	Passed          bool    `json:"passed,omitempty"`
	Error           string  `json:"error,omitempty"`
	ErrorCode       string  `json:"error_code,omitempty"`
}

// MQTTIntake subscribes to station submissions and runs them through the
// scoring pipeline.
type MQTTIntake struct {
	client      mqtt.Client
	etiquetaSvc *etiqueta.Service
	submissions chan submission
	ctx         context.Context
	cancel      context.CancelFunc
}

type submission struct {
	station string
	payload []byte
}

// NewMQTTIntake creates the intake from MQTT_BROKER (host:port). Returns nil
// when no broker is configured.
func NewMQTTIntake(etiquetaSvc *etiqueta.Service) *MQTTIntake {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	intake := &MQTTIntake{
		etiquetaSvc: etiquetaSvc,
		submissions: make(chan submission, 100),
		ctx:         ctx,
		cancel:      cancel,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s", broker)).
		SetClientID("controlflow-intake").
		SetUsername(os.Getenv("MQTT_USERNAME")).
		SetPassword(os.Getenv("MQTT_PASSWORD")).
		SetKeepAlive(60 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			token := c.Subscribe(submissionTopic, 1, intake.onMessage)
			token.Wait()
			if token.Error() != nil {
				slog.Error("failed to subscribe to station submissions", "error", token.Error())
				return
			}
			slog.Info("subscribed to station submissions", "topic", submissionTopic)
		})

	intake.client = mqtt.NewClient(opts)
	return intake
}

// Start connects the client and launches the worker.
func (m *MQTTIntake) Start() error {
	token := m.client.Connect()
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	go m.worker()
	return nil
}

// Stop disconnects and drains the worker.
func (m *MQTTIntake) Stop() {
	m.cancel()
	m.client.Disconnect(250)
}

// onMessage queues one submission. Scoring runs on the worker goroutine;
// OCR latency must not stall the paho callback dispatcher.
func (m *MQTTIntake) onMessage(_ mqtt.Client, msg mqtt.Message) {
	station := stationFromTopic(msg.Topic())

	select {
	case m.submissions <- submission{station: station, payload: msg.Payload()}:
	default:
		slog.Warn("submission queue full, dropping message", "station", station)
	}
}

func (m *MQTTIntake) worker() {
	for {
		select {
		case sub := <-m.submissions:
			m.process(sub)
		case <-m.ctx.Done():
			return
		}
	}
}

// process decodes and scores one station submission.
func (m *MQTTIntake) process(sub submission) {
	var payload StationSubmission
	if err := json.Unmarshal(sub.payload, &payload); err != nil {
		slog.Error("malformed station submission", "station", sub.station, "error", err)
		m.reply(sub.station, StationOutcome{Error: "malformed submission payload", ErrorCode: "validation_error"})
		return
	}
	if payload.StationID == "" {
		payload.StationID = sub.station
	}

	imgBytes, err := base64.StdEncoding.DecodeString(payload.ImageBase64)
	if err != nil {
		m.reply(sub.station, StationOutcome{QuestionID: payload.QuestionID, Error: "image_base64 is not valid base64", ErrorCode: "validation_error"})
		return
	}

	result, err := m.etiquetaSvc.Score(m.ctx, payload.QuestionID, bytes.NewReader(imgBytes), payload.StationID)
	if err != nil {
		m.reply(sub.station, StationOutcome{
			QuestionID: payload.QuestionID,
			Error:      err.Error(),
			ErrorCode:  errorCode(err),
		})
		return
	}

	m.reply(sub.station, StationOutcome{
		QuestionID:      payload.QuestionID,
		ResultID:        result.ID,
		SimilarityScore: result.SimilarityScore,
		Passed:          result.Passed,
	})
}

// reply publishes the outcome back to the station.
func (m *MQTTIntake) reply(station string, outcome StationOutcome) {
	payload, err := json.Marshal(outcome)
	if err != nil {
		slog.Error("failed to serialize station outcome", "station", station, "error", err)
		return
	}

	topic := fmt.Sprintf(resultTopicFmt, station)
	token := m.client.Publish(topic, 1, false, payload)
	token.Wait()
	if token.Error() != nil {
		slog.Error("failed to publish station outcome", "station", station, "error", token.Error())
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, etiqueta.ErrNotFound):
		return "not_found"
	case errors.Is(err, etiqueta.ErrOcrExtraction):
		return "ocr_extraction_failed"
	case errors.Is(err, etiqueta.ErrValidation):
		return "validation_error"
	default:
		return "internal_error"
	}
}

// stationFromTopic extracts the station id from
// controlflow/stations/<station>/submissions.
func stationFromTopic(topic string) string {
	parts := bytes.Split([]byte(topic), []byte("/"))
	if len(parts) >= 3 {
		return string(parts[2])
	}
	return "unknown"
}
