package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bohm/libris/pkg/catalog"
	"github.com/bohm/libris/pkg/search"
)

func dialSearchWS(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(env.mux)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/search/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestSearchWSStreamsEvents(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, "POST", "/api/categories", AddCategoryRequest{Type: catalog.Books, Name: "Programming"})
	created := decodeJSON[AddCategoryResponse](t, w)
	pub := &catalog.Publication{Title: "Effective Go", CategoryID: created.ID, CategoryType: catalog.Books}
	if err := env.store.AddPublication(pub); err != nil {
		t.Fatalf("Failed to add publication: %v", err)
	}
	if err := catalog.WriteDescription(env.assetsDir, pub.ID, "Style notes."); err != nil {
		t.Fatalf("Failed to write description: %v", err)
	}

	conn := dialSearchWS(t, env)
	if err := conn.WriteJSON(search.Request{Query: "effective", Titles: true, Descriptions: true}); err != nil {
		t.Fatalf("Failed to send search request: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	_ = conn.SetReadDeadline(deadline)

	var progress int
	var terminal search.Event
	for {
		var ev search.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("Failed to read event: %v", err)
		}
		if ev.Kind == search.EventProgress {
			progress++
			continue
		}
		terminal = ev
		break
	}

	if progress != 2 {
		t.Errorf("Expected 2 progress events, got %d", progress)
	}
	if terminal.Kind != search.EventCompleted {
		t.Fatalf("Expected completed event, got %+v", terminal)
	}
	if len(terminal.Matches) != 1 {
		t.Errorf("Expected 1 title match, got %+v", terminal.Matches)
	}
}

func TestSearchWSInvalidRequest(t *testing.T) {
	env := setupTestServer(t)

	conn := dialSearchWS(t, env)
	if err := conn.WriteJSON(search.Request{Titles: true}); err != nil {
		t.Fatalf("Failed to send search request: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var ev search.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}
	if ev.Kind != search.EventFailed {
		t.Errorf("Expected failed event for empty query, got %+v", ev)
	}
	if ev.Err == "" {
		t.Error("Expected an error message in the failed event")
	}
}

func TestSearchWSCancel(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, "POST", "/api/categories", AddCategoryRequest{Type: catalog.Books, Name: "Programming"})
	created := decodeJSON[AddCategoryResponse](t, w)
	pub := &catalog.Publication{Title: "Searchable", CategoryID: created.ID, CategoryType: catalog.Books}
	if err := env.store.AddPublication(pub); err != nil {
		t.Fatalf("Failed to add publication: %v", err)
	}

	conn := dialSearchWS(t, env)
	if err := conn.WriteJSON(search.Request{Query: "searchable", Titles: true, Descriptions: true, PDF: true}); err != nil {
		t.Fatalf("Failed to send search request: %v", err)
	}
	if err := conn.WriteJSON(map[string]bool{"cancel": true}); err != nil {
		t.Fatalf("Failed to send cancel: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var terminal search.Event
	for {
		var ev search.Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("Failed to read event: %v", err)
		}
		if ev.Kind != search.EventProgress {
			terminal = ev
			break
		}
	}

	// The cancel races the (tiny) search; either it lands in time or the
	// search completes first. Both are valid terminal events.
	if terminal.Kind != search.EventCancelled && terminal.Kind != search.EventCompleted {
		t.Errorf("Expected cancelled or completed, got %+v", terminal)
	}
}
