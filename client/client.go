// Package client is the Go upload agent for the customerhub API. It mirrors
// the behavior expected of the browser frontends: pre-flight validation with
// the server's rule-set, multipart upload with progress reporting,
// exponential-backoff retries for transient failures, and cancellation via
// context.
package client

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"customerhub/internal/upload"

	"github.com/charmbracelet/log"
)

const (
	defaultMaxRetries     = 3
	defaultBaseDelay      = 500 * time.Millisecond
	defaultRequestTimeout = 30 * time.Second
)

// CredentialStore supplies the bearer token attached to every request,
// the stand-in for the browser's local credential storage.
type CredentialStore interface {
	Token() (string, error)
}

// StaticToken is a CredentialStore holding one fixed token.
type StaticToken string

func (t StaticToken) Token() (string, error) { return string(t), nil }

// ProgressEvent is delivered to the progress callback while the body streams.
type ProgressEvent struct {
	Loaded         int64
	Total          int64
	Percent        int
	BytesPerSecond float64
}

type ProgressFunc func(ProgressEvent)

type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:8080".
	BaseURL     string
	Credentials CredentialStore

	// Rules must match the server's rule-set so both ends reject the
	// same files. Zero value falls back to the shared defaults.
	Rules upload.Rules

	// MaxRetries is the number of re-attempts after the first try.
	// Zero uses the default; a negative value disables retries.
	MaxRetries int
	// BaseDelay seeds the exponential backoff: baseDelay * 2^attempt.
	BaseDelay time.Duration
	// RequestTimeout applies per attempt, independent of retries.
	RequestTimeout time.Duration

	HTTPClient *http.Client
	Logger     *log.Logger
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	creds      CredentialStore
	rules      upload.Rules
	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration
	logger     *log.Logger
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}
	baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid baseURL %q: %w", cfg.BaseURL, err)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: cfg.HTTPClient,
		creds:      cfg.Credentials,
		rules:      cfg.Rules,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		timeout:    cfg.RequestTimeout,
		logger:     cfg.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.creds == nil {
		c.creds = StaticToken("")
	}
	if len(c.rules.AllowedTypes()) == 0 {
		c.rules = upload.MustRules(nil, upload.DefaultMaxSize)
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	} else if cfg.MaxRetries == 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.baseDelay <= 0 {
		c.baseDelay = defaultBaseDelay
	}
	if c.timeout <= 0 {
		c.timeout = defaultRequestTimeout
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}

	return c, nil
}

func (c *Client) profileImageURL(customerID int64) string {
	return fmt.Sprintf("%s/api/v1/customers/%d/profile-image", c.baseURL, customerID)
}
