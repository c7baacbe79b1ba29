package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/filedeck/filedeck/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// DefaultBaseURL is the API root of a locally running backend.
	DefaultBaseURL = "http://localhost:8080/api"
	// DefaultTimeout caps every remote call.
	DefaultTimeout = 30 * time.Second

	mimeMsgpack = "application/msgpack"
)

// HTTPService is the live Service. It never substitutes data: every
// failure comes back as a *TransportError.
type HTTPService struct {
	baseURL       string
	token         string
	preferMsgpack bool
	http          *http.Client
}

// HTTPOption customizes an HTTPService.
type HTTPOption func(*HTTPService)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPService) { s.http = c }
}

// WithToken sends a bearer token on every request.
func WithToken(token string) HTTPOption {
	return func(s *HTTPService) { s.token = token }
}

// WithMsgpack asks the backend for msgpack-encoded listings.
func WithMsgpack() HTTPOption {
	return func(s *HTTPService) { s.preferMsgpack = true }
}

// NewHTTPService creates a live client. An empty baseURL means
// DefaultBaseURL and a non-positive timeout means DefaultTimeout.
func NewHTTPService(baseURL string, timeout time.Duration, opts ...HTTPOption) *HTTPService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	s := &HTTPService{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BaseURL returns the API root this client talks to.
func (s *HTTPService) BaseURL() string {
	return s.baseURL
}

// ListFiles fetches every file record.
func (s *HTTPService) ListFiles(ctx context.Context) ([]models.FileRecord, error) {
	const op = "list files"

	req, err := s.newRequest(ctx, http.MethodGet, "/files", nil)
	if err != nil {
		return nil, err
	}
	if s.preferMsgpack {
		req.Header.Set("Accept", mimeMsgpack+", application/json;q=0.9")
	} else {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := s.do(ctx, op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var files []models.FileRecord
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == mimeMsgpack {
		dec := msgpack.NewDecoder(resp.Body)
		dec.SetCustomStructTag("json")
		err = dec.Decode(&files)
	} else {
		err = json.NewDecoder(resp.Body).Decode(&files)
	}
	if err != nil {
		return nil, s.wrap(ctx, op, 0, fmt.Errorf("decoding response: %w", err))
	}
	return files, nil
}

// UploadFile streams the file as a multipart body in field "file".
func (s *HTTPService) UploadFile(ctx context.Context, file *models.LocalFile) (*models.FileRecord, error) {
	const op = "upload file"

	content, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", file.Name, err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		defer content.Close()
		pw.CloseWithError(writeFilePart(mw, file, content))
	}()

	req, err := s.newRequest(ctx, http.MethodPost, "/files/upload", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := s.do(ctx, op, req)
	if err != nil {
		pr.Close()
		return nil, err
	}
	defer resp.Body.Close()

	var rec models.FileRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, s.wrap(ctx, op, 0, fmt.Errorf("decoding response: %w", err))
	}
	return &rec, nil
}

func writeFilePart(mw *multipart.Writer, file *models.LocalFile, content io.Reader) error {
	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": file.Name,
	}))
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	return mw.Close()
}

// DownloadFile fetches the raw bytes of a stored file.
func (s *HTTPService) DownloadFile(ctx context.Context, fileName string) (*models.Blob, error) {
	const op = "download file"

	req, err := s.newRequest(ctx, http.MethodGet, "/files/download/"+url.PathEscape(fileName), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.do(ctx, op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, s.wrap(ctx, op, 0, fmt.Errorf("reading body: %w", err))
	}

	return &models.Blob{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// DeleteFile removes a stored file.
func (s *HTTPService) DeleteFile(ctx context.Context, fileName string) error {
	const op = "delete file"

	req, err := s.newRequest(ctx, http.MethodDelete, "/files/"+url.PathEscape(fileName), nil)
	if err != nil {
		return err
	}

	resp, err := s.do(ctx, op, req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (s *HTTPService) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	return req, nil
}

// do sends the request and converts failures and non-2xx statuses into
// transport errors. The caller closes the body on success.
func (s *HTTPService) do(ctx context.Context, op string, req *http.Request) (*http.Response, error) {
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, s.wrap(ctx, op, 0, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, s.wrap(ctx, op, resp.StatusCode, errors.New(strings.TrimSpace(string(msg))))
	}
	return resp, nil
}

// wrap returns the caller's own cancellation untouched so that it is never
// mistaken for a backend outage.
func (s *HTTPService) wrap(ctx context.Context, op string, status int, err error) error {
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
		return ctxErr
	}
	return &TransportError{Op: op, StatusCode: status, Err: err}
}
