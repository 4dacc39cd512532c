package youtrack

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Client talks to one YouTrack server through its REST API.
//
// Every operation returns the historical empty value on failure (nil, an
// empty slice, false or a FAILED command) together with an *Error, and logs
// a warning. Sessions returned by Login are immutable, so a Client and its
// sessions may be shared between goroutines.
type Client struct {
	serverURL  string
	httpClient *http.Client
	log        *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger receiving diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client for the server at serverURL, e.g.
// "https://youtrack.example.com".
func NewClient(serverURL string, opts ...Option) *Client {
	c := &Client{
		serverURL:  strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(zap.String("server", c.serverURL))
	return c
}

// ServerURL returns the base URL of the server.
func (c *Client) ServerURL() string {
	return c.serverURL
}

func (c *Client) warn(err *Error) {
	c.log.Warn("youtrack request failed",
		zap.String("op", err.Op),
		zap.Int("status", err.StatusCode),
		zap.String("response", err.Response),
		zap.Error(err))
}
