package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/filedeck/filedeck/internal/models"
	"github.com/gorilla/websocket"
)

// Watch subscribes to the backend's file event stream. The channel is
// closed when ctx ends or the connection drops.
func (s *HTTPService) Watch(ctx context.Context) (<-chan models.FileEvent, error) {
	wsURL := s.baseURL + "/ws/files"
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}

	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, &TransportError{Op: "watch files", StatusCode: status, Err: err}
	}

	events := make(chan models.FileEvent, 16)
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	go func() {
		defer close(done)
		defer close(events)
		defer conn.Close()
		for {
			var ev models.FileEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// String describes the service for log lines.
func (s *HTTPService) String() string {
	return fmt.Sprintf("http(%s)", s.baseURL)
}
