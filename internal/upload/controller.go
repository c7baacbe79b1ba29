// Package upload drives the client-side life cycle of a single pending
// upload: validate, stage, submit with simulated progress, settle, reset.
package upload

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/filedeck/filedeck/internal/fileutil"
	"github.com/filedeck/filedeck/internal/logging"
	"github.com/filedeck/filedeck/internal/models"
	"github.com/labstack/gommon/log"
)

// Status represents the upload state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusUploading Status = "uploading"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

const (
	DefaultTickInterval = 200 * time.Millisecond
	DefaultDismissDelay = 3 * time.Second

	progressStep = 10
	progressCap  = 90
)

// MsgUploadFailed is shown when the upload call itself fails.
const MsgUploadFailed = "Upload failed. Please try again."

var (
	ErrNothingStaged    = errors.New("no file staged for upload")
	ErrUploadInProgress = errors.New("upload already in progress")
	// ErrSuperseded is returned by Submit when a newer action replaced the
	// upload before it settled; its result was not applied.
	ErrSuperseded = errors.New("upload superseded")
)

// State is a snapshot of the controller.
type State struct {
	Status   Status            `json:"status"`
	Progress int               `json:"progress"` // 0-100
	Error    string            `json:"error,omitempty"`
	Selected *models.LocalFile `json:"-"`
}

// Uploader performs the remote upload.
type Uploader func(ctx context.Context, file *models.LocalFile) (*models.FileRecord, error)

// Options tune the controller's timers.
type Options struct {
	TickInterval time.Duration
	DismissDelay time.Duration
	Logger       *log.Logger
}

// Controller owns one pending upload.
type Controller struct {
	mu        sync.Mutex
	upload    Uploader
	tick      time.Duration
	dismiss   time.Duration
	logger    *log.Logger
	state     State
	gen       uint64 // bumped by every user action; stale results are dropped
	cancel    context.CancelFunc
	stopTick  chan struct{}
	reset     *time.Timer
	listeners []func(State)
}

// NewController creates an idle controller.
func NewController(up Uploader, opts Options) *Controller {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.DismissDelay <= 0 {
		opts.DismissDelay = DefaultDismissDelay
	}
	if opts.Logger == nil {
		opts.Logger = logging.New("upload")
	}

	return &Controller{
		upload:  up,
		tick:    opts.TickInterval,
		dismiss: opts.DismissDelay,
		logger:  opts.Logger,
		state:   State{Status: StatusIdle},
	}
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every state change.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// HandleFile resets the controller and validates f. On success f is staged
// and the state is idle; otherwise the state is error and the validation
// messages are returned. Any upload still in flight is cancelled.
func (c *Controller) HandleFile(f *models.LocalFile) []string {
	c.mu.Lock()
	c.gen++
	c.abortLocked()
	c.state = State{Status: StatusIdle}

	errs := fileutil.Validate(f.Name, f.Size)
	if len(errs) > 0 {
		c.state.Status = StatusError
		c.state.Error = strings.Join(errs, ", ")
		c.logger.Debugf("rejected %s: %s", f.Name, c.state.Error)
	} else {
		c.state.Selected = f
	}
	c.publishLocked()
	c.mu.Unlock()

	return errs
}

// Submit uploads the staged file and blocks until it settles. Progress is
// simulated by a ticker until the remote call returns.
func (c *Controller) Submit(ctx context.Context) (*models.FileRecord, error) {
	c.mu.Lock()
	if c.state.Status == StatusUploading {
		c.mu.Unlock()
		return nil, ErrUploadInProgress
	}
	file := c.state.Selected
	if file == nil {
		c.mu.Unlock()
		return nil, ErrNothingStaged
	}

	c.gen++
	gen := c.gen
	c.stopResetLocked()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	stop := make(chan struct{})
	c.stopTick = stop
	go c.simulateProgress(gen, stop)

	c.state = State{Status: StatusUploading, Selected: file}
	c.publishLocked()
	c.mu.Unlock()

	c.logger.Infof("uploading %s (%s)", file.Name, fileutil.FormatSize(file.Size))
	rec, err := c.upload(ctx, file)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.logger.Debugf("dropping stale result for %s", file.Name)
		return nil, ErrSuperseded
	}
	c.stopTickLocked()
	c.cancel = nil

	if err != nil {
		c.state = State{Status: StatusError, Error: MsgUploadFailed, Selected: file}
		c.logger.Errorf("upload of %s failed: %v", file.Name, err)
		c.publishLocked()
		return nil, err
	}

	c.state = State{Status: StatusSuccess, Progress: 100}
	c.reset = time.AfterFunc(c.dismiss, func() { c.autoReset(gen) })
	c.logger.Infof("uploaded %s", file.Name)
	c.publishLocked()
	return rec, nil
}

// Close cancels any in-flight upload and stops all timers.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.abortLocked()
}

func (c *Controller) simulateProgress(gen uint64, stop <-chan struct{}) {
	t := time.NewTicker(c.tick)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}

		c.mu.Lock()
		if gen != c.gen || c.state.Status != StatusUploading {
			c.mu.Unlock()
			return
		}
		c.state.Progress += progressStep
		if c.state.Progress > progressCap {
			c.state.Progress = progressCap
		}
		capped := c.state.Progress >= progressCap
		c.publishLocked()
		c.mu.Unlock()

		if capped {
			return
		}
	}
}

func (c *Controller) autoReset(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state.Status != StatusSuccess {
		return
	}
	c.state = State{Status: StatusIdle}
	c.publishLocked()
}

func (c *Controller) abortLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.stopTickLocked()
	c.stopResetLocked()
}

func (c *Controller) stopTickLocked() {
	if c.stopTick != nil {
		close(c.stopTick)
		c.stopTick = nil
	}
}

func (c *Controller) stopResetLocked() {
	if c.reset != nil {
		c.reset.Stop()
		c.reset = nil
	}
}

// publishLocked delivers the snapshot while holding the lock so listeners
// observe transitions in order. Listeners must not call back into c.
func (c *Controller) publishLocked() {
	snap := c.state
	for _, fn := range c.listeners {
		fn(snap)
	}
}
