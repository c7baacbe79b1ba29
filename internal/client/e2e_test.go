package client_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedeck/filedeck/internal/api"
	"github.com/filedeck/filedeck/internal/client"
	"github.com/filedeck/filedeck/internal/config"
	"github.com/filedeck/filedeck/internal/logging"
	"github.com/filedeck/filedeck/internal/models"
	"github.com/filedeck/filedeck/internal/storage"
)

type backend struct {
	url    string
	issuer *api.TokenIssuer
}

func startBackend(t *testing.T, withAuth bool) backend {
	t.Helper()
	dir := t.TempDir()

	index, err := storage.NewMemoryIndex(filepath.Join(dir, "index.msgpack"))
	require.NoError(t, err)
	store, err := storage.NewLocalStore(filepath.Join(dir, "uploads"), index)
	require.NoError(t, err)

	var issuer *api.TokenIssuer
	if withAuth {
		issuer, err = api.NewTokenIssuer("e2e-secret", time.Hour)
		require.NoError(t, err)
	}

	e := echo.New()
	cfg := config.DefaultConfig().Server
	cfg.EnableRequestLogging = false
	api.SetupMiddleware(e, &cfg, false)

	hub := api.NewHub(logging.Discard())
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:       store,
		Hub:         hub,
		Auth:        issuer,
		AllowDelete: true,
		Version:     "e2e",
		Logger:      logging.Discard(),
	}))

	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return backend{url: srv.URL + "/api", issuer: issuer}
}

func TestLiveClientRoundTrip(t *testing.T) {
	be := startBackend(t, false)
	ctx := context.Background()

	for _, msgpack := range []bool{false, true} {
		name := "json"
		if msgpack {
			name = "msgpack"
		}
		t.Run(name, func(t *testing.T) {
			svc := client.New(client.Options{BaseURL: be.url, Mode: client.ModeFailClosed, Msgpack: msgpack})

			rec, err := svc.UploadFile(ctx, models.NewLocalFileFromBytes("hello.txt", "text/plain", []byte("hello, world")))
			require.NoError(t, err)
			assert.NotEqual(t, "hello.txt", rec.FileName, "server assigns the storage key")
			assert.Equal(t, "hello.txt", rec.OriginalFileName)
			assert.Equal(t, int64(12), rec.FileSize)

			files, err := svc.ListFiles(ctx)
			require.NoError(t, err)
			require.NotEmpty(t, files)
			assert.Equal(t, rec.FileName, files[0].FileName)
			assert.Equal(t, rec.Checksum, files[0].Checksum)

			blob, err := svc.DownloadFile(ctx, rec.FileName)
			require.NoError(t, err)
			assert.Equal(t, "hello, world", string(blob.Data))
			assert.Equal(t, "text/plain", blob.ContentType)

			require.NoError(t, svc.DeleteFile(ctx, rec.FileName))

			err = svc.DeleteFile(ctx, rec.FileName)
			assert.True(t, client.IsTransport(err), "second delete should 404")
		})
	}
}

func TestLiveClientRejectedUploadIsTransport(t *testing.T) {
	be := startBackend(t, false)
	svc := client.New(client.Options{BaseURL: be.url, Mode: client.ModeFailClosed})

	_, err := svc.UploadFile(context.Background(), models.NewLocalFileFromBytes("virus.exe", "", []byte("MZ")))
	var te *client.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 400, te.StatusCode)
	assert.Contains(t, te.Error(), "File type not supported")
}

func TestLiveClientWithToken(t *testing.T) {
	be := startBackend(t, true)
	ctx := context.Background()

	anonymous := client.New(client.Options{BaseURL: be.url, Mode: client.ModeFailClosed})
	_, err := anonymous.ListFiles(ctx)
	var te *client.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 401, te.StatusCode)

	token, _, err := be.issuer.GenerateToken("e2e")
	require.NoError(t, err)
	authed := client.New(client.Options{BaseURL: be.url, Mode: client.ModeFailClosed, Token: token})
	files, err := authed.ListFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWatchReceivesEvents(t *testing.T) {
	be := startBackend(t, false)
	live := client.NewLive(client.Options{BaseURL: be.url})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := live.Watch(ctx)
	require.NoError(t, err)

	// The subscriber registers asynchronously; keep uploading until one arrives.
	var rec *models.FileRecord
	var got models.FileEvent
	require.Eventually(t, func() bool {
		r, err := live.UploadFile(ctx, models.NewLocalFileFromBytes("w.md", "text/markdown", []byte("# w")))
		if err != nil {
			return false
		}
		select {
		case ev := <-events:
			rec, got = r, ev
			return true
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, models.EventFileUploaded, got.Type)
	assert.Equal(t, "w.md", got.File.OriginalFileName)

	require.NoError(t, live.DeleteFile(ctx, rec.FileName))
	for {
		select {
		case ev := <-events:
			if ev.Type == models.EventFileDeleted {
				assert.Equal(t, rec.FileName, ev.File.FileName)
				cancel()
				// Channel closes once the context ends
				for range events {
				}
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no delete event")
		}
	}
}
