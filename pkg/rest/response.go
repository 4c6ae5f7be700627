package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	laerr "github.com/ledgerinvesting/ledger-analytics-go/pkg/errors"
)

// Response is a response which has passed status inspection.
//
// The body has been read entirely, so Response can be kept after the connection is closed.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON unmarshals the body into v.
//
// # Returns
//
// - error: ErrProtocol if the body is not shaped of v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return laerr.New(
			laerr.ErrProtocol, "cannot decode response",
			laerr.WithStatus(r.StatusCode), laerr.WithCause(err),
		)
	}
	return nil
}

// Map returns the body as a JSON object.
func (r *Response) Map() (map[string]any, error) {
	m := map[string]any{}
	if err := r.JSON(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// Decode unmarshals the body of resp as T.
func Decode[T any](resp *Response) (*T, error) {
	ret := new(T)
	if err := resp.JSON(ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// Inspect checks status code and body of the response.
//
// Requester implementations (including mocks) should pass responses through it.
//
// return:
//
//	error if...
//	- status code is not 2xx. Its kind is decided by the status code.
//	- status code is 2xx but the body is not JSON (except for empty body of DELETE or 204).
func Inspect(method string, resp *Response) (*Response, error) {
	if StatusCodeRangeOf(resp.StatusCode) == Status2xx {
		empty := len(bytes.TrimSpace(resp.Body)) == 0
		if empty && (method == http.MethodDelete || resp.StatusCode == http.StatusNoContent) {
			return resp, nil
		}
		if empty || !json.Valid(resp.Body) {
			return nil, laerr.New(
				laerr.ErrProtocol, "empty or undecodable success response",
				laerr.WithStatus(resp.StatusCode),
				laerr.WithDetail(abbreviate(string(resp.Body), 200)),
			)
		}
		return resp, nil
	}

	kind, summary := kindOf(resp.StatusCode)
	return nil, laerr.New(
		kind, summary,
		laerr.WithStatus(resp.StatusCode),
		laerr.WithDetail(serverMessage(resp)),
	)
}

// serverMessage extracts a human readable message from an error response.
//
// It tries, in order: JSON body, HTML debug page, plain text and status text.
func serverMessage(resp *Response) string {
	var decoded any
	if err := json.Unmarshal(resp.Body, &decoded); err == nil && decoded != nil {
		return messageFromJSON(decoded)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return scrapeErrorPage(resp.Body)
	}

	if text := strings.TrimSpace(string(resp.Body)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func messageFromJSON(v any) string {
	if m, ok := v.(map[string]any); ok {
		for _, key := range []string{"detail", "message", "error"} {
			if s, ok := m[key].(string); ok && s != "" {
				return s
			}
		}
	}
	if s, ok := v.(string); ok {
		return s
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(buf)
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
