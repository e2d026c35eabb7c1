/*
 * @module service/event/event_service
 * @description Event service: SSE push to dashboard clients, fed by Postgres LISTEN/NOTIFY on inspection results
 * @architecture event-driven - business service layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow result row inserted -> trigger NOTIFY -> listener -> broadcast to SSE clients
 * @rules SSE delivery is best-effort; a full client queue drops the event rather than blocking scoring
 * @dependencies controlflow-service/service/models, gorm.io/gorm, github.com/lib/pq
 * @refs api/controllers/event_controller.go
 */

package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"controlflow-service/service/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const notifyChannel = "controlflow_events"

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// EventService manages SSE client connections and the database listener.
type EventService struct {
	db          *gorm.DB
	connections map[string]map[string]*SSEClient // userName -> connectionID -> client
	mu          sync.RWMutex
	dbListener  *pq.Listener
	ctx         context.Context
	cancel      context.CancelFunc
}

// SSEClient is one connected dashboard client.
type SSEClient struct {
	ID       string
	UserName string
	Channel  chan *models.SSEEvent
	Done     chan bool
	ClientIP string
}

// NewEventService creates the event service and starts the DB listener when
// running against Postgres. withListener is false in tests (sqlite).
func NewEventService(db *gorm.DB, withListener bool) *EventService {
	ctx, cancel := context.WithCancel(context.Background())

	service := &EventService{
		db:          db,
		connections: make(map[string]map[string]*SSEClient),
		ctx:         ctx,
		cancel:      cancel,
	}

	if withListener {
		go service.startDBListener()
	}

	return service
}

// Stop shuts the listener down.
func (s *EventService) Stop() {
	s.cancel()
	if s.dbListener != nil {
		s.dbListener.Close()
	}
}

// AddSSEConnection registers a new client connection.
func (s *EventService) AddSSEConnection(userName, connectionID, clientIP string) *SSEClient {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connections[userName] == nil {
		s.connections[userName] = make(map[string]*SSEClient)
	}

	client := &SSEClient{
		ID:       connectionID,
		UserName: userName,
		Channel:  make(chan *models.SSEEvent, 100),
		Done:     make(chan bool),
		ClientIP: clientIP,
	}

	s.connections[userName][connectionID] = client
	slog.Info("SSE connection established", "user", userName, "connection_id", connectionID, "ip", clientIP)
	return client
}

// RemoveSSEConnection unregisters a client connection.
func (s *EventService) RemoveSSEConnection(userName, connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userConnections, exists := s.connections[userName]; exists {
		if client, exists := userConnections[connectionID]; exists {
			close(client.Done)
			delete(userConnections, connectionID)
			if len(userConnections) == 0 {
				delete(s.connections, userName)
			}
			slog.Info("SSE connection closed", "user", userName, "connection_id", connectionID)
		}
	}
}

// BroadcastEvent persists the event and pushes it to every connected client.
func (s *EventService) BroadcastEvent(event *models.SSEEvent) error {
	if err := s.db.Create(event).Error; err != nil {
		slog.Error("failed to persist SSE event", "error", err)
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for userName, userConnections := range s.connections {
		for _, client := range userConnections {
			eventCopy := *event
			eventCopy.UserName = userName

			select {
			case client.Channel <- &eventCopy:
			default:
				slog.Warn("SSE client queue full, dropping event", "user", userName, "connection_id", client.ID)
			}
		}
	}

	return nil
}

// GetEventHistory lists persisted events, newest first.
func (s *EventService) GetEventHistory(page, size int, eventType string) ([]models.SSEEvent, int64, error) {
	query := s.db.Model(&models.SSEEvent{})
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	events := []models.SSEEvent{}
	err := query.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// PublishResult implements the etiqueta result-publisher hook by broadcasting
// an SSE event to all dashboard clients.
func (s *EventService) PublishResult(event models.ResultEvent) {
	sse := &models.SSEEvent{
		EventType: event.EventType,
		UserName:  "broadcast",
		Data: models.JSONB{
			"result_id":        event.ResultID,
			"question_id":      event.QuestionID,
			"similarity_score": event.SimilarityScore,
			"passed":           event.Passed,
			"station_id":       event.StationID,
			"computed_at":      event.ComputedAt,
		},
	}
	if err := s.BroadcastEvent(sse); err != nil {
		slog.Error("failed to broadcast inspection result", "result_id", event.ResultID, "error", err)
	}
}

// startDBListener connects a pq listener and installs the notify trigger.
func (s *EventService) startDBListener() {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")

		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	s.ensureNotifyTrigger()

	s.dbListener = pq.NewListener(connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			slog.Warn("postgres listener event", "event", ev, "error", err)
		}
	})

	if err := s.dbListener.Listen(notifyChannel); err != nil {
		slog.Error("failed to LISTEN on notify channel", "channel", notifyChannel, "error", err)
		return
	}

	slog.Info("database listener started", "channel", notifyChannel)

	for {
		select {
		case notification := <-s.dbListener.Notify:
			if notification != nil {
				s.handleDBNotification(notification)
			}
		case <-s.ctx.Done():
			slog.Info("database listener stopped")
			return
		}
	}
}

// ensureNotifyTrigger installs the NOTIFY function and trigger on
// inspection_results. Idempotent.
func (s *EventService) ensureNotifyTrigger() {
	const fn = `
CREATE OR REPLACE FUNCTION controlflow_notify_change() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('controlflow_events', json_build_object(
		'table', TG_TABLE_NAME,
		'operation', TG_OP,
		'record', row_to_json(NEW)
	)::text);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;`

	const trigger = `
DROP TRIGGER IF EXISTS inspection_results_notify ON inspection_results;
CREATE TRIGGER inspection_results_notify
	AFTER INSERT ON inspection_results
	FOR EACH ROW EXECUTE FUNCTION controlflow_notify_change();`

	if err := s.db.Exec(fn).Error; err != nil {
		slog.Warn("failed to create notify function", "error", err)
		return
	}
	if err := s.db.Exec(trigger).Error; err != nil {
		slog.Warn("failed to create notify trigger", "error", err)
	}
}

// handleDBNotification turns a NOTIFY payload into a broadcast event.
func (s *EventService) handleDBNotification(notification *pq.Notification) {
	var change models.DBChangeEvent
	if err := json.Unmarshal([]byte(notification.Extra), &change); err != nil {
		slog.Error("failed to parse database notification", "error", err)
		return
	}

	event := &models.SSEEvent{
		EventType: "data_change",
		UserName:  "broadcast",
		Data: models.JSONB{
			"table":     change.Table,
			"operation": change.Operation,
			"record":    change.Record,
		},
	}

	if err := s.BroadcastEvent(event); err != nil {
		slog.Error("failed to broadcast database change", "table", change.Table, "error", err)
	}
}
