/*
 * @module api/controllers/event_controller
 * @description Event API: SSE stream for dashboards, broadcast endpoint, event history
 * @architecture RESTful API - controller layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow SSE: register connection -> stream events until client disconnect
 * @rules every SSE connection is removed on handler exit; events are flushed immediately
 * @dependencies controlflow-service/service, github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/event/event_service.go
 */

package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"controlflow-service/service"
	"controlflow-service/service/event"
	"controlflow-service/service/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// EventController handles SSE connections and event queries.
type EventController struct {
	eventService *event.EventService
}

// NewEventController creates the controller instance.
func NewEventController() *EventController {
	return &EventController{eventService: service.GlobalEventService}
}

// HandleSSE streams events to a dashboard client
// @Summary Open an SSE stream
// @Description Dashboards connect here to receive inspection results and data changes in real time.
// @Tags events
// @Param user_name path string true "User name"
// @Success 200 {string} string "SSE event stream"
// @Router /sse/{user_name} [get]
func (c *EventController) HandleSSE(w http.ResponseWriter, r *http.Request) {
	userName := chi.URLParam(r, "user_name")
	if userName == "" {
		http.Error(w, "user_name is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Cache-Control")

	connectionID := uuid.New().String()
	clientIP := r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		clientIP = forwarded
	}

	client := c.eventService.AddSSEConnection(userName, connectionID, clientIP)
	defer c.eventService.RemoveSSEConnection(userName, connectionID)

	fmt.Fprintf(w, "data: {\"type\":\"connected\",\"connection_id\":\"%s\",\"timestamp\":\"%s\"}\n\n",
		connectionID, time.Now().Format(time.RFC3339))
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	for {
		select {
		case ev := <-client.Channel:
			fmt.Fprintf(w, "data: %s\n\n", toJSON(ev))
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-client.Done:
			return

		case <-r.Context().Done():
			return
		}
	}
}

// BroadcastEvent pushes an event to every connected client
// @Summary Broadcast an event
// @Tags events
// @Accept json
// @Produce json
// @Param request body BroadcastEventRequest true "Event to broadcast"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /api/events/broadcast [post]
func (c *EventController) BroadcastEvent(w http.ResponseWriter, r *http.Request) {
	var req BroadcastEventRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse(fmt.Sprintf("invalid request body: %s", err.Error()), nil))
		return
	}
	if req.EventType == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("event_type is required", nil))
		return
	}

	ev := &models.SSEEvent{
		EventType: req.EventType,
		UserName:  "broadcast",
		Data:      models.JSONB(req.Data),
		CreatedAt: time.Now(),
	}
	if err := c.eventService.BroadcastEvent(ev); err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("failed to broadcast event", nil))
		return
	}

	render.JSON(w, r, SuccessResponse("event broadcast", map[string]interface{}{
		"event_id": ev.ID,
	}))
}

// GetEventHistory lists persisted events
// @Summary List event history
// @Tags events
// @Produce json
// @Param page query int false "Page, starting at 1"
// @Param size query int false "Page size"
// @Param event_type query string false "Filter by event type"
// @Success 200 {object} PaginatedResponse{data=[]models.SSEEvent}
// @Router /api/events/history [get]
func (c *EventController) GetEventHistory(w http.ResponseWriter, r *http.Request) {
	page := cast.ToInt(r.URL.Query().Get("page"))
	size := cast.ToInt(r.URL.Query().Get("size"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	events, total, err := c.eventService.GetEventHistory(page, size, r.URL.Query().Get("event_type"))
	if err != nil {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("failed to list event history", nil))
		return
	}

	render.JSON(w, r, SuccessPaginatedResponse("ok", events, total, page, size))
}

// BroadcastEventRequest is the broadcast endpoint payload.
type BroadcastEventRequest struct {
	EventType string                 `json:"event_type" example:"system_notification"`
	Data      map[string]interface{} `json:"data"`
}

func toJSON(v interface{}) string {
	data, _ := json.Marshal(v)
	return string(data)
}
