package client

import (
	"time"

	"github.com/filedeck/filedeck/internal/logging"
	"github.com/labstack/gommon/log"
)

// Options configure New.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Mode    Mode
	Token   string
	Msgpack bool
	Logger  *log.Logger
}

// New builds the Service stack for opts.Mode.
func New(opts Options) Service {
	logger := opts.Logger
	if logger == nil {
		logger = logging.New("client")
	}

	if opts.Mode == ModeOffline {
		return NewOfflineService()
	}

	live := NewHTTPService(opts.BaseURL, opts.Timeout, httpOptions(opts)...)
	if opts.Mode == ModeFailClosed {
		return live
	}
	return NewFallback(live, NewOfflineService(), true, logger)
}

// NewLive returns the HTTP client on its own, for callers that need
// HTTP-only features such as Watch.
func NewLive(opts Options) *HTTPService {
	return NewHTTPService(opts.BaseURL, opts.Timeout, httpOptions(opts)...)
}

func httpOptions(opts Options) []HTTPOption {
	var hopts []HTTPOption
	if opts.Token != "" {
		hopts = append(hopts, WithToken(opts.Token))
	}
	if opts.Msgpack {
		hopts = append(hopts, WithMsgpack())
	}
	return hopts
}
