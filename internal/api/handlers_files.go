// handlers_files.go - File collection operation handlers
package api

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/filedeck/filedeck/internal/fileutil"
	"github.com/filedeck/filedeck/internal/models"
	"github.com/filedeck/filedeck/internal/storage"
)

// MIMEApplicationMsgpack is negotiated via the Accept header on list.
const MIMEApplicationMsgpack = "application/msgpack"

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	store       storage.Store
	events      EventPublisher
	allowDelete bool
	logger      *log.Logger
}

// NewFileHandler creates a new file handler instance. events may be nil.
func NewFileHandler(store storage.Store, events EventPublisher, allowDelete bool, logger *log.Logger) FileHandler {
	return &FileHandlerImpl{
		store:       store,
		events:      events,
		allowDelete: allowDelete,
		logger:      logger,
	}
}

// HandleListFiles returns every file record, newest first
func (h *FileHandlerImpl) HandleListFiles(c echo.Context) error {
	files, err := h.store.List(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to list files", err)
	}

	if acceptsMsgpack(c.Request().Header.Get(echo.HeaderAccept)) {
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(files); err != nil {
			return NewInternalError("failed to encode files", err)
		}
		return c.Blob(http.StatusOK, MIMEApplicationMsgpack, buf.Bytes())
	}

	return c.JSON(http.StatusOK, files)
}

// HandleUploadFile accepts a multipart upload in field "file"
func (h *FileHandlerImpl) HandleUploadFile(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	if violations := fileutil.Validate(file.Filename, file.Size); len(violations) > 0 {
		return NewValidationError(violations)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	rec, err := h.store.Save(c.Request().Context(), file.Filename, file.Header.Get(echo.HeaderContentType), src)
	if err != nil {
		return NewInternalError("failed to save file", err)
	}

	h.logger.Infof("stored %s as %s (%d bytes)", rec.OriginalFileName, rec.FileName, rec.FileSize)
	h.publish(models.EventFileUploaded, *rec)

	return c.JSON(http.StatusCreated, rec)
}

// HandleDownloadFile streams the stored bytes with their content type
func (h *FileHandlerImpl) HandleDownloadFile(c echo.Context) error {
	fileName := c.Param("fileName")
	if fileName == "" {
		return NewBadRequestError("fileName is required", nil)
	}

	rec, rc, err := h.store.Open(c.Request().Context(), fileName)
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError("file", fileName)
	}
	if err != nil {
		return NewInternalError("failed to open file", err)
	}
	defer rc.Close()

	etag := `"` + rec.Checksum + `"`
	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, contentDisposition(rec.DisplayName()))
	if rec.Checksum != "" {
		header.Set("ETag", etag)
		if match := c.Request().Header.Get("If-None-Match"); match == etag {
			return c.NoContent(http.StatusNotModified)
		}
	}

	return c.Stream(http.StatusOK, rec.ContentType, rc)
}

// HandleDeleteFile removes a file by storage key
func (h *FileHandlerImpl) HandleDeleteFile(c echo.Context) error {
	if !h.allowDelete {
		return NewForbiddenError("file deletion is disabled")
	}

	fileName := c.Param("fileName")
	if fileName == "" {
		return NewBadRequestError("fileName is required", nil)
	}

	rec, err := h.store.Delete(c.Request().Context(), fileName)
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError("file", fileName)
	}
	if err != nil {
		return NewInternalError("failed to delete file", err)
	}

	h.logger.Infof("deleted %s", fileName)
	h.publish(models.EventFileDeleted, *rec)

	return c.NoContent(http.StatusNoContent)
}

func (h *FileHandlerImpl) publish(t models.FileEventType, rec models.FileRecord) {
	if h.events != nil {
		h.events.Publish(models.NewFileEvent(t, rec))
	}
}

func acceptsMsgpack(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == MIMEApplicationMsgpack {
			return true
		}
	}
	return false
}

// contentDisposition builds an RFC 6266 attachment header that survives
// non-ASCII names.
func contentDisposition(name string) string {
	return "attachment; filename*=UTF-8''" + url.PathEscape(name)
}
