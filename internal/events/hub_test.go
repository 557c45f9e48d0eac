package events

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anycomp/internal/draft"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(msg, &out))
	return out
}

func TestHub_NavigateReachesEveryone(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	a := dial(t, srv, "")
	b := dial(t, srv, "?topic=draft:s1")
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)

	NewNavigator(hub).ToLogin()

	for _, c := range []*websocket.Conn{a, b} {
		ev := readEvent(t, c)
		assert.Equal(t, TypeNavigate, ev["type"])
		assert.Equal(t, "/login", ev["payload"].(map[string]any)["path"])
	}
}

func TestHub_UploadEventsFollowTopics(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	watcher := dial(t, srv, "?topic="+DraftTopic("s1"))
	late := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, late.WriteJSON(map[string]string{"type": "subscribe", "topic": DraftTopic("s2")}))
	time.Sleep(50 * time.Millisecond)

	observe := hub.UploadObserver()
	observe(draft.Event{SpecialistID: "s1", FileID: "f1", Name: "a.png", State: draft.Failed, Err: "boom"})
	observe(draft.Event{SpecialistID: "s2", FileID: "f2", Name: "b.png", State: draft.Uploaded})

	ev := readEvent(t, watcher)
	assert.Equal(t, TypeUpload, ev["type"])
	payload := ev["payload"].(map[string]any)
	assert.Equal(t, "f1", payload["fileId"])
	assert.Equal(t, "failed", payload["state"])

	ev = readEvent(t, late)
	assert.Equal(t, "f2", ev["payload"].(map[string]any)["fileId"])
	assert.Equal(t, "uploaded", ev["payload"].(map[string]any)["state"])
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	c := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)
	c.Close()
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
