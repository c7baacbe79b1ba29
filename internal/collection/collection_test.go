package collection

import (
	"context"
	"testing"
	"time"

	"github.com/filedeck/filedeck/internal/client"
	"github.com/filedeck/filedeck/internal/logging"
	"github.com/filedeck/filedeck/internal/models"
	"github.com/filedeck/filedeck/internal/testutil"
	"github.com/filedeck/filedeck/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollection(svc client.Service) *Collection {
	return New(svc, WithMessageTTL(40*time.Millisecond), WithLogger(logging.Discard()))
}

func TestCollection_Load(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddFile(models.FileRecord{FileName: "a.txt"}, []byte("a"))
	svc.AddFile(models.FileRecord{FileName: "b.txt"}, []byte("bb"))

	c := newTestCollection(svc)
	defer c.Close()

	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.Loading())
	assert.Equal(t, 1, svc.Calls("list"))
}

func TestCollection_LoadFailOpenUsesMockData(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.Fail(true)
	fb := client.NewFallback(svc, client.NewOfflineService(), true, logging.Discard())

	c := newTestCollection(fb)
	defer c.Close()

	require.NoError(t, c.Load(context.Background()))
	files := c.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "dummy.txt", files[0].FileName)
}

func TestCollection_LoadFailClosed(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.Fail(true)

	c := newTestCollection(svc)
	defer c.Close()

	err := c.Load(context.Background())
	require.Error(t, err)
	assert.True(t, client.IsTransport(err))
	assert.Equal(t, Message{Kind: MessageError, Text: msgLoadFailed}, c.Message())
}

func TestCollection_UploadPrepends(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddFile(models.FileRecord{FileName: "old.txt"}, []byte("old"))

	c := newTestCollection(svc)
	defer c.Close()
	require.NoError(t, c.Load(context.Background()))

	rec, err := c.Upload(context.Background(), models.NewLocalFileFromBytes("new.txt", "text/plain", []byte("new")))
	require.NoError(t, err)

	files := c.Files()
	require.Len(t, files, 2)
	assert.Equal(t, rec.ID, files[0].ID)
	assert.Equal(t, "old.txt", files[1].FileName)
	assert.Equal(t, Message{Kind: MessageSuccess, Text: `File "new.txt" uploaded successfully!`}, c.Message())
}

func TestCollection_UploadDoesNotDedup(t *testing.T) {
	c := newTestCollection(client.NewOfflineService())
	defer c.Close()

	f := models.NewLocalFileFromBytes("same.txt", "text/plain", []byte("x"))
	_, err := c.Upload(context.Background(), f)
	require.NoError(t, err)
	_, err = c.Upload(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
}

func TestCollection_DeleteByName(t *testing.T) {
	svc := testutil.NewFakeService()
	c := newTestCollection(svc)
	defer c.Close()

	c.ApplyEvent(models.FileEvent{Type: models.EventFileUploaded, File: models.FileRecord{ID: 1, FileName: "dup.txt"}})
	c.ApplyEvent(models.FileEvent{Type: models.EventFileUploaded, File: models.FileRecord{ID: 2, FileName: "other.txt"}})
	c.ApplyEvent(models.FileEvent{Type: models.EventFileUploaded, File: models.FileRecord{ID: 3, FileName: "dup.txt"}})
	require.Equal(t, 3, c.Len())

	n, err := c.Delete(context.Background(), "dup.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "other.txt", c.Files()[0].FileName)
	assert.Equal(t, MessageSuccess, c.Message().Kind)

	n, err = c.Delete(context.Background(), "missing.txt")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, c.Len())
}

func TestCollection_DeleteByID(t *testing.T) {
	svc := testutil.NewFakeService()
	c := newTestCollection(svc)
	defer c.Close()

	c.ApplyEvent(models.FileEvent{Type: models.EventFileUploaded, File: models.FileRecord{ID: 1, FileName: "dup.txt"}})
	c.ApplyEvent(models.FileEvent{Type: models.EventFileUploaded, File: models.FileRecord{ID: 2, FileName: "dup.txt"}})

	require.NoError(t, c.DeleteByID(context.Background(), 2))
	files := c.Files()
	require.Len(t, files, 1)
	assert.Equal(t, int64(1), files[0].ID)

	assert.ErrorIs(t, c.DeleteByID(context.Background(), 42), ErrNotFound)
}

func TestCollection_DeleteFailureKeepsList(t *testing.T) {
	svc := testutil.NewFakeService()
	c := newTestCollection(svc)
	defer c.Close()

	c.ApplyEvent(models.FileEvent{Type: models.EventFileUploaded, File: models.FileRecord{ID: 1, FileName: "a.txt"}})
	svc.Fail(true)

	_, err := c.Delete(context.Background(), "a.txt")
	require.Error(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, Message{Kind: MessageError, Text: msgDeleteFailed}, c.Message())
}

func TestCollection_StaleRefreshDiscarded(t *testing.T) {
	svc := testutil.NewFakeService()
	slow := make(chan struct{})
	svc.OnList(func(call int) ([]models.FileRecord, error) {
		if call == 1 {
			<-slow
			return []models.FileRecord{{ID: 1, FileName: "stale.txt"}}, nil
		}
		return []models.FileRecord{{ID: 2, FileName: "fresh.txt"}}, nil
	})

	c := newTestCollection(svc)
	defer c.Close()

	first := make(chan error)
	go func() { first <- c.Refresh(context.Background()) }()

	assert.Eventually(t, func() bool { return svc.Calls("list") == 1 }, time.Second, time.Millisecond)
	require.NoError(t, c.Refresh(context.Background()))
	close(slow)
	require.NoError(t, <-first)

	files := c.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "fresh.txt", files[0].FileName)
}

func TestCollection_MessageAutoClears(t *testing.T) {
	c := newTestCollection(client.NewOfflineService())
	defer c.Close()

	c.ReportErrors([]string{"File type not supported", "File is empty"})
	assert.Equal(t, Message{Kind: MessageError, Text: "File type not supported, File is empty"}, c.Message())

	assert.Eventually(t, func() bool {
		return c.Message().Kind == MessageNone
	}, time.Second, 5*time.Millisecond)
}

func TestCollection_ApplyEventDedupsByID(t *testing.T) {
	c := newTestCollection(client.NewOfflineService())
	defer c.Close()

	rec := models.FileRecord{ID: 7, FileName: "x.txt"}
	c.ApplyEvent(models.FileEvent{Type: models.EventFileUploaded, File: rec})
	c.ApplyEvent(models.FileEvent{Type: models.EventFileUploaded, File: rec})
	assert.Equal(t, 1, c.Len())

	c.ApplyEvent(models.FileEvent{Type: models.EventFileDeleted, File: rec})
	assert.Zero(t, c.Len())
}

func TestCollection_DrivesUploadController(t *testing.T) {
	svc := testutil.NewFakeService()
	c := newTestCollection(svc)
	defer c.Close()

	ctrl := upload.NewController(c.Upload, upload.Options{
		TickInterval: time.Millisecond,
		DismissDelay: 10 * time.Millisecond,
		Logger:       logging.Discard(),
	})
	defer ctrl.Close()

	if errs := ctrl.HandleFile(models.NewLocalFileFromBytes("bad.exe", "", nil)); len(errs) > 0 {
		c.ReportErrors(errs)
	}
	assert.Equal(t, MessageError, c.Message().Kind)

	require.Empty(t, ctrl.HandleFile(models.NewLocalFileFromBytes("ok.txt", "text/plain", []byte("ok"))))
	_, err := ctrl.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, upload.StatusSuccess, ctrl.State().Status)
}

func TestCollection_UploadKeepsQuotesInName(t *testing.T) {
	c := newTestCollection(client.NewOfflineService())
	defer c.Close()

	_, err := c.Upload(context.Background(), models.NewLocalFileFromBytes(`my "x".txt`, "text/plain", []byte("x")))
	require.NoError(t, err)
	assert.Equal(t, `File "my "x".txt" uploaded successfully!`, c.Message().Text)
}

func TestCollection_SupersededUploadIsNotAFailure(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.HoldUploads()
	defer svc.ReleaseUploads()
	fb := client.NewFallback(svc, client.NewOfflineService(), true, logging.Discard())

	c := newTestCollection(fb)
	defer c.Close()

	ctrl := upload.NewController(c.Upload, upload.Options{
		TickInterval: time.Millisecond,
		Logger:       logging.Discard(),
	})
	defer ctrl.Close()

	require.Empty(t, ctrl.HandleFile(models.NewLocalFileFromBytes("first.txt", "text/plain", []byte("1"))))
	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Submit(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return svc.Calls("upload") == 1 }, time.Second, time.Millisecond)

	require.Empty(t, ctrl.HandleFile(models.NewLocalFileFromBytes("second.txt", "text/plain", []byte("2"))))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, upload.ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("superseded submit did not return")
	}

	assert.NotEqual(t, MessageError, c.Message().Kind)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, upload.StatusIdle, ctrl.State().Status)
}
