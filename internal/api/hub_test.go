package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedeck/filedeck/internal/logging"
	"github.com/filedeck/filedeck/internal/models"
)

func startHubServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(logging.Discard())
	e := echo.New()
	e.GET("/api/ws/files", hub.HandleWebSocket)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/files"
}

func TestHub_BroadcastsToSubscribers(t *testing.T) {
	hub, url := startHubServer(t)

	var conns []*websocket.Conn
	for i := 0; i < 2; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()
		conns = append(conns, conn)
	}
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	rec := models.FileRecord{ID: 7, FileName: "k.txt", OriginalFileName: "notes.txt"}
	hub.Publish(models.NewFileEvent(models.EventFileUploaded, rec))

	for _, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev models.FileEvent
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, models.EventFileUploaded, ev.Type)
		assert.Equal(t, int64(7), ev.File.ID)
		assert.NotZero(t, ev.Timestamp)
	}
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, url := startHubServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	// Publishing with no subscribers is a no-op
	hub.Publish(models.NewFileEvent(models.EventFileDeleted, models.FileRecord{}))
}

func TestHub_CloseDisconnectsSubscribers(t *testing.T) {
	hub, url := startHubServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
