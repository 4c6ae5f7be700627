// Package analytics is a client of the ledger analytics server.
//
// A Client gives access to triangles and models (development, tail and forecast).
// Fitting and predicting run as remote tasks; by default the client blocks until
// they end, polling the task status.
//
//	client, err := analytics.NewClient(analytics.WithAPIKey(key))
//	if err != nil { ... }
//	defer client.Close()
//
//	tri, err := client.Triangle().Create(ctx, "meyers", data)
//	model, err := client.DevelopmentModel().Create(ctx, analytics.FitRequest{
//		TriangleName: "meyers", ModelName: "cl", ModelType: "ChainLadder",
//	})
//	prediction, err := model.Predict(ctx, analytics.PredictRequest{TriangleName: "meyers"})
package analytics

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	apitasks "github.com/ledgerinvesting/ledger-analytics-go/pkg/api/types/tasks"
	laerr "github.com/ledgerinvesting/ledger-analytics-go/pkg/errors"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/rest"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/tasks"
	"github.com/sirupsen/logrus"
)

const (
	// EnvAPIKey is the environment variable read when no API key is given.
	EnvAPIKey = "LEDGER_ANALYTICS_API_KEY"

	// EnvHost is the environment variable read when no host is given.
	EnvHost = "LEDGER_ANALYTICS_HOST"

	DefaultHost = "http://localhost:8000/analytics/"
)

// NormalizeHost makes host end with exactly one "/".
func NormalizeHost(host string) string {
	return strings.TrimRight(host, "/") + "/"
}

type Client struct {
	host         string
	requester    rest.Requester
	asynchronous bool
	interval     time.Duration
	timeout      time.Duration
	progress     []func(tasks.Event)
	logger       logrus.FieldLogger
}

type config struct {
	apiKey       string
	host         string
	asynchronous bool
	requester    rest.Requester
	restOptions  []rest.Option
	interval     time.Duration
	timeout      time.Duration
	progress     []func(tasks.Event)
	logger       logrus.FieldLogger
}

type Option func(*config) *config

// WithAPIKey sets the API key. Without this, LEDGER_ANALYTICS_API_KEY is used.
func WithAPIKey(key string) Option {
	return func(c *config) *config {
		c.apiKey = key
		return c
	}
}

// WithHost sets the base URL of the analytics API.
//
// Without this, LEDGER_ANALYTICS_HOST or DefaultHost is used.
func WithHost(host string) Option {
	return func(c *config) *config {
		c.host = host
		return c
	}
}

// WithAsynchronous makes fit and predict return without waiting for their tasks.
//
// It can be overridden per call with Async.
func WithAsynchronous(async bool) Option {
	return func(c *config) *config {
		c.asynchronous = async
		return c
	}
}

// WithRequester replaces the transport.
func WithRequester(r rest.Requester) Option {
	return func(c *config) *config {
		c.requester = r
		return c
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) *config {
		c.restOptions = append(c.restOptions, rest.WithHTTPClient(hc))
		return c
	}
}

// WithCACert makes the client trust the CA certificate (base64 encoded PEM).
func WithCACert(b64pem string) Option {
	return func(c *config) *config {
		c.restOptions = append(c.restOptions, rest.WithCACert(b64pem))
		return c
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) *config {
		c.logger = l
		return c
	}
}

// WithPollInterval sets the interval between task status queries.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) *config {
		c.interval = d
		return c
	}
}

// WithPollTimeout sets how long fit and predict wait for their tasks.
func WithPollTimeout(d time.Duration) Option {
	return func(c *config) *config {
		c.timeout = d
		return c
	}
}

// WithProgress adds a hook called when a task changes its status.
func WithProgress(hook func(tasks.Event)) Option {
	return func(c *config) *config {
		if hook != nil {
			c.progress = append(c.progress, hook)
		}
		return c
	}
}

func defaultLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

// NewClient creates a Client.
//
// # Returns
//
// - *Client
//
// - error: ErrAuthentication when no API key is given nor found in the environment.
func NewClient(options ...Option) (*Client, error) {
	conf := &config{
		interval: tasks.DefaultInterval,
		timeout:  tasks.DefaultTimeout,
	}
	for _, o := range options {
		conf = o(conf)
	}

	if conf.apiKey == "" {
		conf.apiKey = os.Getenv(EnvAPIKey)
	}
	if conf.apiKey == "" {
		return nil, laerr.New(
			laerr.ErrAuthentication,
			"api key is missing: pass it to the client or set "+EnvAPIKey,
		)
	}

	host := conf.host
	if host == "" {
		host = os.Getenv(EnvHost)
	}
	if host == "" {
		host = DefaultHost
	}

	logger := conf.logger
	if logger == nil {
		logger = defaultLogger()
	}

	requester := conf.requester
	if requester == nil {
		r, err := rest.NewRequester(
			conf.apiKey,
			append([]rest.Option{rest.WithLogger(logger)}, conf.restOptions...)...,
		)
		if err != nil {
			return nil, err
		}
		requester = r
	}

	return &Client{
		host:         NormalizeHost(host),
		requester:    requester,
		asynchronous: conf.asynchronous,
		interval:     conf.interval,
		timeout:      conf.timeout,
		progress:     conf.progress,
		logger:       logger.WithField("component", "analytics"),
	}, nil
}

// Host returns the normalized base URL.
func (c *Client) Host() string {
	return c.host
}

// Asynchronous reports the default mode of fit and predict.
func (c *Client) Asynchronous() bool {
	return c.asynchronous
}

// Close does nothing. It is here so callers can defer it.
func (c *Client) Close() error {
	return nil
}

// Triangle returns a new interface to triangles.
func (c *Client) Triangle() *TriangleInterface {
	return newTriangleInterface(c)
}

// Models returns a new interface to models of the class.
func (c *Client) Models(class ModelClass) *ModelInterface {
	return newModelInterface(c, class)
}

func (c *Client) DevelopmentModel() *ModelInterface {
	return newModelInterface(c, DevelopmentModelClass)
}

func (c *Client) TailModel() *ModelInterface {
	return newModelInterface(c, TailModelClass)
}

func (c *Client) ForecastModel() *ModelInterface {
	return newModelInterface(c, ForecastModelClass)
}

// TaskStatus queries the status of the task once.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (tasks.Snapshot, error) {
	resp, err := c.requester.Get(ctx, c.host+"tasks/"+taskID)
	if err != nil {
		return tasks.Snapshot{}, err
	}
	st, err := rest.Decode[apitasks.Status](resp)
	if err != nil {
		return tasks.Snapshot{}, err
	}
	if st.Status == "" {
		return tasks.Snapshot{}, laerr.New(
			laerr.ErrProtocol, "task status response has no status",
			laerr.WithStatus(resp.StatusCode),
		)
	}
	return tasks.FromStatus(taskID, *st), nil
}

// WaitTask polls the task until it ends, with the polling settings of the client.
//
// label is a human readable description of the task, passed to progress hooks.
func (c *Client) WaitTask(ctx context.Context, taskID string, label string, options ...tasks.Option) (tasks.Snapshot, error) {
	opts := []tasks.Option{
		tasks.WithInterval(c.interval),
		tasks.WithTimeout(c.timeout),
		tasks.WithLabel(label),
		tasks.WithLogger(c.logger),
	}
	for _, p := range c.progress {
		opts = append(opts, tasks.WithProgress(p))
	}
	return tasks.Poll(ctx, taskID, c.TaskStatus, append(opts, options...)...)
}
