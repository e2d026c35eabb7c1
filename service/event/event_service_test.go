/*
 * @module service/event/event_service_test
 * @description Unit tests for SSE connection management and event broadcast
 * @architecture test layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow register clients -> broadcast -> channel assertions
 * @rules the database listener stays off in tests; sqlite has no LISTEN/NOTIFY
 * @dependencies testing, stretchr/testify, controlflow-service/testutil
 */

package event

import (
	"testing"
	"time"

	"controlflow-service/service/models"
	"controlflow-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEventService(t *testing.T) *EventService {
	t.Helper()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	svc := NewEventService(tdb.DB, false)
	t.Cleanup(svc.Stop)
	return svc
}

func TestAddAndRemoveSSEConnection(t *testing.T) {
	svc := setupEventService(t)

	client := svc.AddSSEConnection("inspector", "conn-1", "10.0.0.1")
	require.NotNil(t, client)
	assert.Equal(t, "inspector", client.UserName)

	svc.RemoveSSEConnection("inspector", "conn-1")

	select {
	case <-client.Done:
	case <-time.After(time.Second):
		t.Fatal("Done channel not closed on removal")
	}
}

func TestBroadcastEventReachesAllClients(t *testing.T) {
	svc := setupEventService(t)

	first := svc.AddSSEConnection("inspector", "conn-1", "10.0.0.1")
	second := svc.AddSSEConnection("supervisor", "conn-2", "10.0.0.2")

	err := svc.BroadcastEvent(&models.SSEEvent{
		EventType: "system_notification",
		UserName:  "broadcast",
		Data:      models.JSONB{"message": "shift change"},
	})
	require.NoError(t, err)

	for _, client := range []*SSEClient{first, second} {
		select {
		case ev := <-client.Channel:
			assert.Equal(t, "system_notification", ev.EventType)
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive the event", client.ID)
		}
	}
}

func TestBroadcastEventPersists(t *testing.T) {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	svc := NewEventService(tdb.DB, false)
	t.Cleanup(svc.Stop)

	require.NoError(t, svc.BroadcastEvent(&models.SSEEvent{
		EventType: "system_notification",
		UserName:  "broadcast",
		Data:      models.JSONB{},
	}))

	var count int64
	tdb.DB.Model(&models.SSEEvent{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestBroadcastDropsWhenClientQueueFull(t *testing.T) {
	svc := setupEventService(t)
	client := svc.AddSSEConnection("inspector", "conn-1", "10.0.0.1")

	// Fill the client queue without draining it.
	for i := 0; i < 150; i++ {
		err := svc.BroadcastEvent(&models.SSEEvent{
			EventType: "system_notification",
			UserName:  "broadcast",
			Data:      models.JSONB{},
		})
		require.NoError(t, err)
	}

	// The queue holds at most its buffer; broadcasting never blocked.
	assert.Equal(t, 100, len(client.Channel))
}

func TestPublishResultBroadcasts(t *testing.T) {
	svc := setupEventService(t)
	client := svc.AddSSEConnection("inspector", "conn-1", "10.0.0.1")

	svc.PublishResult(models.ResultEvent{
		EventType:       "inspection_result.created",
		ResultID:        "result-1",
		QuestionID:      "question-1",
		SimilarityScore: 97.5,
		Passed:          true,
		StationID:       "station-01",
		ComputedAt:      time.Now(),
	})

	select {
	case ev := <-client.Channel:
		assert.Equal(t, "inspection_result.created", ev.EventType)
		assert.Equal(t, "result-1", ev.Data["result_id"])
		assert.Equal(t, 97.5, ev.Data["similarity_score"])
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestGetEventHistoryFiltersByType(t *testing.T) {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	svc := NewEventService(tdb.DB, false)
	t.Cleanup(svc.Stop)

	require.NoError(t, svc.BroadcastEvent(&models.SSEEvent{EventType: "inspection_result.created", UserName: "broadcast", Data: models.JSONB{}}))
	require.NoError(t, svc.BroadcastEvent(&models.SSEEvent{EventType: "system_notification", UserName: "broadcast", Data: models.JSONB{}}))

	events, total, err := svc.GetEventHistory(1, 20, "system_notification")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, events, 1)
	assert.Equal(t, "system_notification", events[0].EventType)
}
