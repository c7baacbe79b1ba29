package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/filedeck/filedeck/internal/client"
	"github.com/filedeck/filedeck/internal/collection"
	"github.com/filedeck/filedeck/internal/fileutil"
	"github.com/filedeck/filedeck/internal/logging"
	"github.com/filedeck/filedeck/internal/models"
	"github.com/filedeck/filedeck/internal/upload"
	"github.com/filedeck/filedeck/internal/viewer"
)

// Server wires the collection, upload controller and viewer to HTTP routes.
type Server struct {
	files   *collection.Collection
	uploads *upload.Controller
	viewer  *viewer.Viewer
	logger  *log.Logger

	loadOnce sync.Once
}

// Options tune a Server. Zero values pick the defaults of each component.
type Options struct {
	Collection []collection.Option
	Upload     upload.Options
	Logger     *log.Logger
}

// NewServer builds the view models on top of svc.
func NewServer(svc client.Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.New("web")
	}

	files := collection.New(svc, append([]collection.Option{collection.WithLogger(logger)}, opts.Collection...)...)
	if opts.Upload.Logger == nil {
		opts.Upload.Logger = logger
	}

	return &Server{
		files:   files,
		uploads: upload.NewController(files.Upload, opts.Upload),
		viewer:  viewer.New(svc, logger),
		logger:  logger,
	}
}

// Register mounts the UI routes on e and installs the template renderer.
func (s *Server) Register(e *echo.Echo) error {
	renderer, err := NewRenderer()
	if err != nil {
		return err
	}
	e.Renderer = renderer

	e.GET("/", s.handleHome)
	e.GET("/state", s.handleState)
	e.POST("/upload", s.handleUpload)
	e.POST("/refresh", s.handleRefresh)
	e.POST("/files/:fileName/delete", s.handleDelete)
	e.GET("/view/:fileName", s.handleView)
	e.GET("/download/:fileName", s.handleDownload)
	return nil
}

// Follow applies pushed file events until the channel closes.
func (s *Server) Follow(events <-chan models.FileEvent) {
	for ev := range events {
		s.logger.Debugf("event %s %s", ev.Type, ev.File.FileName)
		s.files.ApplyEvent(ev)
	}
}

// Close stops the component timers and any in-flight upload.
func (s *Server) Close() {
	s.uploads.Close()
	s.files.Close()
}

type homePage struct {
	Title   string
	Files   []models.FileRecord
	Loading bool
	Message collection.Message
	Upload  upload.State
	Accept  string
	MaxSize string
}

func (s *Server) handleHome(c echo.Context) error {
	s.loadOnce.Do(func() {
		// The banner carries any failure.
		_ = s.files.Load(c.Request().Context())
	})

	return c.Render(http.StatusOK, "home.html", homePage{
		Title:   "Files",
		Files:   s.files.Files(),
		Loading: s.files.Loading(),
		Message: s.files.Message(),
		Upload:  s.uploads.State(),
		Accept:  strings.Join(fileutil.SupportedExtensions(), ","),
		MaxSize: fileutil.FormatSize(fileutil.MaxFileSize),
	})
}

type statePayload struct {
	Files   int                `json:"files"`
	Loading bool               `json:"loading"`
	Message collection.Message `json:"message"`
	Upload  upload.State       `json:"upload"`
}

func (s *Server) handleState(c echo.Context) error {
	return c.JSON(http.StatusOK, statePayload{
		Files:   s.files.Len(),
		Loading: s.files.Loading(),
		Message: s.files.Message(),
		Upload:  s.uploads.State(),
	})
}

func (s *Server) handleUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		s.files.ReportErrors([]string{"No file selected"})
		return s.backHome(c)
	}

	if errs := s.uploads.HandleFile(models.NewLocalFileFromPart(fh)); len(errs) > 0 {
		s.files.ReportErrors(errs)
		return s.backHome(c)
	}

	// The collection banner and controller state carry the outcome.
	if _, err := s.uploads.Submit(c.Request().Context()); err != nil && !errors.Is(err, upload.ErrSuperseded) {
		s.logger.Debugf("upload did not complete: %v", err)
	}
	return s.backHome(c)
}

func (s *Server) handleRefresh(c echo.Context) error {
	_ = s.files.Refresh(c.Request().Context())
	return s.backHome(c)
}

func (s *Server) handleDelete(c echo.Context) error {
	ctx := c.Request().Context()

	if raw := c.FormValue("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
		}
		if err := s.files.DeleteByID(ctx, id); errors.Is(err, collection.ErrNotFound) {
			// Stale page; fall back to the name.
			_, _ = s.files.Delete(ctx, s.param(c, "fileName"))
		}
		return s.backHome(c)
	}

	_, _ = s.files.Delete(ctx, s.param(c, "fileName"))
	return s.backHome(c)
}

type viewPage struct {
	Title    string
	Preview  *viewer.Preview
	ImageSrc template.URL
	Error    string
}

func (s *Server) handleView(c echo.Context) error {
	fileName := s.param(c, "fileName")

	preview, err := s.viewer.Load(c.Request().Context(), fileName)
	if err != nil {
		return c.Render(http.StatusOK, "view.html", viewPage{Title: fileName, Error: viewer.MsgLoadFailed})
	}

	page := viewPage{Title: preview.File.DisplayName(), Preview: preview}
	if preview.Content.Kind == models.ContentImage {
		// Built from our own base64 encoding, so safe as a URL.
		page.ImageSrc = template.URL(preview.Content.DataURI())
	}
	return c.Render(http.StatusOK, "view.html", page)
}

func (s *Server) handleDownload(c echo.Context) error {
	fileName := s.param(c, "fileName")

	blob, err := s.files.Download(c.Request().Context(), fileName)
	if err != nil {
		return s.backHome(c)
	}

	ct := blob.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename*=UTF-8''"+url.PathEscape(fileName))
	return c.Blob(http.StatusOK, ct, blob.Data)
}

func (s *Server) backHome(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/")
}

// param returns the unescaped path parameter.
func (s *Server) param(c echo.Context, name string) string {
	v := c.Param(name)
	// Echo only routes on the raw path when the request carried escapes
	// that Path cannot represent; otherwise the value is already decoded.
	if c.Request().URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

// Load performs the initial fetch ahead of the first page view.
func (s *Server) Load(ctx context.Context) error {
	var err error
	s.loadOnce.Do(func() { err = s.files.Load(ctx) })
	return err
}
