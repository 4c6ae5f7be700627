package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	laerr "github.com/ledgerinvesting/ledger-analytics-go/pkg/errors"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/rest"
)

// Call is a request which the mock has received.
type Call struct {
	Method string
	URL    string
	Body   any
}

// Reply is a scripted outcome of a request.
//
// When Err is not nil, it is returned as is (think: network error).
// Otherwise, the response goes through rest.Inspect like the real requester does.
type Reply struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Err        error
}

// JSON builds a Reply with v encoded as JSON.
func JSON(t *testing.T, status int, v any) Reply {
	t.Helper()
	buf, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return Reply{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       buf,
	}
}

// Status builds a Reply with empty body.
func Status(status int) Reply {
	return Reply{StatusCode: status, Header: http.Header{}}
}

// Raw builds a Reply with the body and the content type.
func Raw(status int, contentType string, body string) Reply {
	return Reply{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{contentType}},
		Body:       []byte(body),
	}
}

type key struct {
	method string
	url    string
}

// Requester is a scripted rest.Requester.
//
// For each (method, url), replies are consumed in order.
// The last reply is repeated once the script is exhausted.
type Requester struct {
	t *testing.T

	mu      sync.Mutex
	scripts map[key][]Reply
	Calls   []Call
}

var _ rest.Requester = &Requester{}

func New(t *testing.T) *Requester {
	return &Requester{t: t, scripts: map[key][]Reply{}}
}

// On appends replies for (method, url).
func (m *Requester) On(method string, url string, replies ...Reply) *Requester {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{method: method, url: url}
	m.scripts[k] = append(m.scripts[k], replies...)
	return m
}

// Reset forgets all scripts, but calls are kept.
func (m *Requester) Reset() *Requester {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = map[key][]Reply{}
	return m
}

// CallsTo returns calls sent to (method, url).
func (m *Requester) CallsTo(method string, url string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := []Call{}
	for _, c := range m.Calls {
		if c.Method == method && c.URL == url {
			ret = append(ret, c)
		}
	}
	return ret
}

func (m *Requester) Post(ctx context.Context, url string, body any) (*rest.Response, error) {
	m.t.Helper()
	if _, err := json.Marshal(body); err != nil {
		return nil, laerr.New(laerr.ErrBadRequest, "request body cannot be encoded as JSON", laerr.WithCause(err))
	}
	return m.reply(http.MethodPost, url, body)
}

func (m *Requester) Get(ctx context.Context, url string) (*rest.Response, error) {
	m.t.Helper()
	return m.reply(http.MethodGet, url, nil)
}

func (m *Requester) Delete(ctx context.Context, url string) (*rest.Response, error) {
	m.t.Helper()
	return m.reply(http.MethodDelete, url, nil)
}

func (m *Requester) reply(method string, url string, body any) (*rest.Response, error) {
	m.t.Helper()

	m.mu.Lock()
	m.Calls = append(m.Calls, Call{Method: method, URL: url, Body: body})
	k := key{method: method, url: url}
	script, ok := m.scripts[k]
	var r Reply
	if ok && len(script) != 0 {
		r = script[0]
		if len(script) > 1 {
			m.scripts[k] = script[1:]
		}
	}
	m.mu.Unlock()

	if !ok || len(script) == 0 {
		m.t.Errorf("unexpected request: %s %s", method, url)
		return nil, fmt.Errorf("mock: %s %s is not scripted", method, url)
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return rest.Inspect(method, &rest.Response{
		StatusCode: r.StatusCode,
		Header:     r.Header,
		Body:       r.Body,
	})
}
