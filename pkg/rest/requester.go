package rest

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	laerr "github.com/ledgerinvesting/ledger-analytics-go/pkg/errors"
	"github.com/sirupsen/logrus"
)

const DefaultUserAgent = "ledger-analytics-go"

// Requester sends authenticated requests to the analytics server.
//
// Each method returns an error when the server responds with non-2xx status,
// or when a successful response has an undecodable body.
// The kind of the error can be checked with errors.Is against sentinels in pkg/errors.
//
// Network errors (including context cancellation) are returned as they are.
type Requester interface {
	// Post sends body encoded as JSON.
	//
	// Args
	//
	// - context.Context
	//
	// - string: URL to be requested
	//
	// - any: request body. It should be JSON serializable.
	//
	// Returns
	//
	// - *Response: response passed status inspection.
	//
	// - error
	Post(ctx context.Context, url string, body any) (*Response, error)

	// Get sends GET request.
	//
	// When reading a chunked response fails, it retries once in streaming mode.
	Get(ctx context.Context, url string) (*Response, error)

	// Delete sends DELETE request. A response with empty body is acceptable.
	Delete(ctx context.Context, url string) (*Response, error)
}

type requester struct {
	httpclient *http.Client
	header     http.Header
	logger     logrus.FieldLogger
}

type options struct {
	httpclient *http.Client
	cacerts    []string
	userAgent  string
	logger     logrus.FieldLogger
}

type Option func(*options) *options

// WithHTTPClient replaces the http.Client to be used.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) *options {
		o.httpclient = hc
		return o
	}
}

// WithCACert makes the requester trust the CA certificate (base64 encoded PEM).
func WithCACert(b64pem string) Option {
	return func(o *options) *options {
		if b64pem != "" {
			o.cacerts = append(o.cacerts, b64pem)
		}
		return o
	}
}

func WithUserAgent(ua string) Option {
	return func(o *options) *options {
		o.userAgent = ua
		return o
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) *options {
		o.logger = l
		return o
	}
}

// create new Requester for the API key.
//
// # Args
//
// - apiKey: credential. It is sent as "Authorization: Api-Key <apiKey>" header.
//
// - opts: options
//
// # Return
//
// - Requester
//
// - error: ErrAuthentication if apiKey is empty.
func NewRequester(apiKey string, opts ...Option) (Requester, error) {
	if apiKey == "" {
		return nil, laerr.New(laerr.ErrAuthentication, "api key is missing")
	}

	o := &options{userAgent: DefaultUserAgent}
	for _, opt := range opts {
		o = opt(o)
	}

	httpclient := o.httpclient
	if httpclient == nil {
		httpclient = new(http.Client)
	}
	if len(o.cacerts) != 0 {
		copied := *httpclient
		hc, err := trustCa(&copied, o.cacerts)
		if err != nil {
			return nil, err
		}
		httpclient = hc
	}

	logger := o.logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	header := http.Header{}
	header.Set("Authorization", "Api-Key "+apiKey)
	header.Set("Accept", "application/json")
	if o.userAgent != "" {
		header.Set("User-Agent", o.userAgent)
	}

	return &requester{
		httpclient: httpclient,
		header:     header,
		logger:     logger.WithField("component", "requester"),
	}, nil
}

func (r *requester) Post(ctx context.Context, url string, body any) (*Response, error) {
	if body == nil {
		body = map[string]any{}
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, laerr.New(
			laerr.ErrBadRequest, "request body cannot be encoded as JSON", laerr.WithCause(err),
		)
	}
	return r.do(ctx, http.MethodPost, url, buf)
}

func (r *requester) Get(ctx context.Context, url string) (*Response, error) {
	resp, err := r.do(ctx, http.MethodGet, url, nil)
	if errors.Is(err, errChunked) {
		r.logger.WithField("url", url).WithError(err).Debug("retrying in streaming mode")
		return r.stream(ctx, url)
	}
	return resp, err
}

func (r *requester) Delete(ctx context.Context, url string) (*Response, error) {
	return r.do(ctx, http.MethodDelete, url, nil)
}

func (r *requester) newRequest(ctx context.Context, method string, url string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	for k, v := range r.header {
		req.Header[k] = append([]string(nil), v...)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

var errChunked = errors.New("broken chunked encoding")

func (r *requester) do(ctx context.Context, method string, url string, body []byte) (*Response, error) {
	req, err := r.newRequest(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	logger := r.logger.WithFields(logrus.Fields{"method": method, "url": url})
	resp, err := r.httpclient.Do(req)
	if err != nil {
		logger.WithError(err).Debug("request failed")
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()
	logger = logger.WithField("status", resp.StatusCode)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.WithError(err).Debug("cannot read response")
		if method == http.MethodGet && isChunked(resp) {
			return nil, fmt.Errorf("%w: %w", errChunked, err)
		}
		return nil, laerr.New(
			laerr.ErrProtocol, "cannot read response",
			laerr.WithStatus(resp.StatusCode), laerr.WithCause(err),
		)
	}
	logger.Debug("request done")

	return Inspect(method, &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       payload,
	})
}

// size of a chunk to be read at once in streaming mode.
const streamChunkSize = 64 * 1024

// stream sends GET again and reassembles the body chunk by chunk.
//
// Bytes read before a chunk error are kept. If they are a complete JSON document,
// the broken tail is ignored.
func (r *requester) stream(ctx context.Context, url string) (*Response, error) {
	req, err := r.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpclient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", http.MethodGet, url, err)
	}
	defer resp.Body.Close()

	payload := new(bytes.Buffer)
	chunk := make([]byte, streamChunkSize)
	for {
		n, rerr := resp.Body.Read(chunk)
		payload.Write(chunk[:n])
		if rerr == nil {
			continue
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if payload.Len() != 0 && json.Valid(payload.Bytes()) {
			r.logger.WithField("url", url).WithError(rerr).Debug("ignoring broken tail of the response")
			break
		}
		return nil, laerr.New(
			laerr.ErrProtocol, "cannot read response in streaming mode",
			laerr.WithStatus(resp.StatusCode), laerr.WithCause(rerr),
		)
	}

	return Inspect(http.MethodGet, &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       payload.Bytes(),
	})
}

func isChunked(resp *http.Response) bool {
	for _, te := range resp.TransferEncoding {
		if strings.EqualFold(te, "chunked") {
			return true
		}
	}
	return false
}

func trustCa(hc *http.Client, cacerts []string) (*http.Client, error) {
	if len(cacerts) <= 0 {
		return hc, nil
	}

	if hc.Transport == nil {
		hc.Transport = http.DefaultTransport
	}

	tran, ok := hc.Transport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("failed to add ca cert")
	}
	tran = tran.Clone()

	tcc := tran.TLSClientConfig.Clone()
	if tcc == nil {
		tcc = &tls.Config{}
	}

	rootcas := tcc.RootCAs
	if rootcas == nil {
		rootcas = x509.NewCertPool()
		tcc.RootCAs = rootcas
	}
	for _, ca := range cacerts {
		bin, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return nil, err
		}

		if !rootcas.AppendCertsFromPEM(bin) {
			return nil, fmt.Errorf("failed to add cert")
		}
	}

	tran.TLSClientConfig = tcc
	hc.Transport = tran
	return hc, nil
}
