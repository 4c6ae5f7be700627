package rest_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	laerr "github.com/ledgerinvesting/ledger-analytics-go/pkg/errors"
	"github.com/ledgerinvesting/ledger-analytics-go/pkg/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiKey = "abc.123"

func TestNewRequester(t *testing.T) {
	t.Run("when api key is empty, it returns ErrAuthentication", func(t *testing.T) {
		_, err := rest.NewRequester("")
		assert.ErrorIs(t, err, laerr.ErrAuthentication)
	})

	t.Run("when CA cert is not base64, it returns error", func(t *testing.T) {
		_, err := rest.NewRequester(apiKey, rest.WithCACert("*** not base64 ***"))
		assert.Error(t, err)
	})
}

func TestRequester_Header(t *testing.T) {
	for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodDelete} {
		t.Run(fmt.Sprintf("%s request carries the api key", method), func(t *testing.T) {
			var auth, ctype string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != method {
					t.Errorf("unexpected method: %s", r.Method)
				}
				auth = r.Header.Get("Authorization")
				ctype = r.Header.Get("Content-Type")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"id": "abc"}`))
			}))
			defer server.Close()

			testee, err := rest.NewRequester(apiKey)
			require.NoError(t, err)

			ctx := context.Background()
			switch method {
			case http.MethodPost:
				_, err = testee.Post(ctx, server.URL+"/triangle", map[string]any{"triangle_name": "t1"})
			case http.MethodGet:
				_, err = testee.Get(ctx, server.URL+"/triangle")
			case http.MethodDelete:
				_, err = testee.Delete(ctx, server.URL+"/triangle/abc")
			}
			require.NoError(t, err)

			assert.Equal(t, "Api-Key "+apiKey, auth)
			if method == http.MethodPost {
				assert.Equal(t, "application/json", ctype)
			}
		})
	}

	t.Run("POST sends the body as JSON", func(t *testing.T) {
		var received map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Errorf("body is not JSON: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id": "abc"}`))
		}))
		defer server.Close()

		testee, err := rest.NewRequester(apiKey)
		require.NoError(t, err)

		resp, err := testee.Post(
			context.Background(), server.URL+"/triangle",
			map[string]any{"triangle_name": "t1", "triangle_data": map[string]any{"k": 1.0}},
		)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, map[string]any{"triangle_name": "t1", "triangle_data": map[string]any{"k": 1.0}}, received)

		body, err := resp.Map()
		require.NoError(t, err)
		assert.Equal(t, "abc", body["id"])
	})

	t.Run("POST with unserializable body fails before sending", func(t *testing.T) {
		var called atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called.Add(1)
		}))
		defer server.Close()

		testee, err := rest.NewRequester(apiKey)
		require.NoError(t, err)

		_, err = testee.Post(context.Background(), server.URL, map[string]any{"f": func() {}})
		assert.ErrorIs(t, err, laerr.ErrBadRequest)
		assert.Equal(t, int32(0), called.Load())
	})
}

func TestRequester_StatusInspection(t *testing.T) {
	type when struct {
		method      string
		status      int
		contentType string
		body        string
	}
	type then struct {
		kind    error
		message []string
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if when.contentType != "" {
					w.Header().Set("Content-Type", when.contentType)
				}
				w.WriteHeader(when.status)
				w.Write([]byte(when.body))
			}))
			defer server.Close()

			testee, err := rest.NewRequester(apiKey)
			require.NoError(t, err)

			ctx := context.Background()
			var resp *rest.Response
			switch when.method {
			case http.MethodPost:
				resp, err = testee.Post(ctx, server.URL, map[string]any{})
			case http.MethodDelete:
				resp, err = testee.Delete(ctx, server.URL)
			default:
				resp, err = testee.Get(ctx, server.URL)
			}

			if then.kind == nil {
				require.NoError(t, err)
				assert.Equal(t, when.status, resp.StatusCode)
				return
			}
			require.ErrorIs(t, err, then.kind)
			assert.Nil(t, resp)
			assert.Equal(t, when.status, laerr.StatusCodeOf(err))
			assert.Contains(t, err.Error(), fmt.Sprint(when.status))
			for _, m := range then.message {
				assert.Contains(t, err.Error(), m)
			}
		}
	}

	t.Run("400 is ErrBadRequest with the decoded message", theory(
		when{method: http.MethodPost, status: 400, contentType: "application/json", body: `{"detail": "triangle_name is required"}`},
		then{kind: laerr.ErrBadRequest, message: []string{"triangle_name is required"}},
	))
	t.Run("400 with non JSON body is ErrBadRequest with raw text", theory(
		when{method: http.MethodPost, status: 400, contentType: "text/plain", body: "  broken payload \n"},
		then{kind: laerr.ErrBadRequest, message: []string{"broken payload"}},
	))
	t.Run("403 is ErrAuthorization", theory(
		when{method: http.MethodGet, status: 403, contentType: "application/json", body: `{"detail": "Invalid API key"}`},
		then{kind: laerr.ErrAuthorization, message: []string{"permissions", "Invalid API key"}},
	))
	t.Run("404 is ErrNotFound", theory(
		when{method: http.MethodGet, status: 404, contentType: "application/json", body: `{"detail": "Not found."}`},
		then{kind: laerr.ErrNotFound, message: []string{"Not found."}},
	))
	t.Run("404 without body is ErrNotFound with status text", theory(
		when{method: http.MethodDelete, status: 404},
		then{kind: laerr.ErrNotFound, message: []string{"Not Found"}},
	))
	t.Run("500 is ErrServer", theory(
		when{method: http.MethodPost, status: 500, contentType: "application/json", body: `{"message": "worker is down"}`},
		then{kind: laerr.ErrServer, message: []string{"worker is down"}},
	))
	t.Run("other status is ErrRequest", theory(
		when{method: http.MethodGet, status: 418, contentType: "application/json", body: `{"error": "teapot"}`},
		then{kind: laerr.ErrRequest, message: []string{"teapot"}},
	))
	t.Run("JSON without known message field is reported as is", theory(
		when{method: http.MethodGet, status: 400, contentType: "application/json", body: `{"triangle_name": ["This field is required."]}`},
		then{kind: laerr.ErrBadRequest, message: []string{`"triangle_name":["This field is required."]`}},
	))
	t.Run("200 with undecodable body is ErrProtocol", theory(
		when{method: http.MethodGet, status: 200, contentType: "application/json", body: `{"id": `},
		then{kind: laerr.ErrProtocol},
	))
	t.Run("200 with empty body on GET is ErrProtocol", theory(
		when{method: http.MethodGet, status: 200},
		then{kind: laerr.ErrProtocol},
	))
	t.Run("204 with empty body on DELETE is success", theory(
		when{method: http.MethodDelete, status: 204},
		then{},
	))
	t.Run("201 with JSON body on POST is success", theory(
		when{method: http.MethodPost, status: 201, contentType: "application/json", body: `{"id": "abc"}`},
		then{},
	))
	t.Run("500 with Django debug page reports the exception", theory(
		when{
			method: http.MethodPost, status: 500, contentType: "text/html; charset=utf-8",
			body: `<html><head><title>KeyError at /analytics/triangle</title></head><body>
<table class="meta">
<tr><th scope="row">Request Method:</th><td>POST</td></tr>
<tr><th scope="row">Exception Type:</th><td>KeyError</td></tr>
<tr><th scope="row">Exception Value:</th><td><pre>'triangle_data'</pre></td></tr>
</table></body></html>`,
		},
		then{kind: laerr.ErrServer, message: []string{"KeyError: 'triangle_data'"}},
	))
	t.Run("500 with HTML page without exception reports its title", theory(
		when{
			method: http.MethodGet, status: 500, contentType: "text/html",
			body:   `<html><head><title> Server Error (500) </title></head><body><h1>oops</h1></body></html>`,
		},
		then{kind: laerr.ErrServer, message: []string{"Server Error (500)"}},
	))
	t.Run("HTML page without title is Unknown error", theory(
		when{method: http.MethodGet, status: 502, contentType: "text/html", body: `<html><body><p>bad gateway</p></body></html>`},
		then{kind: laerr.ErrRequest, message: []string{"Unknown error"}},
	))
}

func TestRequester_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	testee, err := rest.NewRequester(apiKey)
	require.NoError(t, err)

	_, err = testee.Get(context.Background(), url)
	require.Error(t, err)
	assert.Equal(t, 0, laerr.StatusCodeOf(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = testee.Get(ctx, url)
	assert.ErrorIs(t, err, context.Canceled)
}

// chunkedServer writes a chunked response by hand.
//
// For n-th request (0-origin), it writes chunks returned by script(n).
func chunkedServer(t *testing.T, script func(n int32) []string) (*httptest.Server, *atomic.Int32) {
	count := new(atomic.Int32)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := count.Add(1) - 1
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatal("server cannot hijack connection")
		}
		conn, buf, err := hj.Hijack()
		if err != nil {
			t.Fatal(err)
		}
		defer conn.Close()
		writeChunked(buf, script(n))
	}))
	return server, count
}

func writeChunked(w *bufio.ReadWriter, chunks []string) {
	w.WriteString("HTTP/1.1 200 OK\r\n")
	w.WriteString("Content-Type: application/json\r\n")
	w.WriteString("Transfer-Encoding: chunked\r\n")
	w.WriteString("Connection: close\r\n\r\n")
	for _, c := range chunks {
		w.WriteString(c)
	}
	w.Flush()
}

func chunk(s string) string {
	return fmt.Sprintf("%x\r\n%s\r\n", len(s), s)
}

func TestRequester_ChunkedFallback(t *testing.T) {
	t.Run("when chunked body is broken once, GET retries in streaming mode", func(t *testing.T) {
		server, count := chunkedServer(t, func(n int32) []string {
			if n == 0 {
				return []string{chunk(`{"triangle_name": `), "zz\r\n"}
			}
			return []string{chunk(`{"triangle_name": `), chunk(`"t1"}`), "0\r\n\r\n"}
		})
		defer server.Close()

		testee, err := rest.NewRequester(apiKey)
		require.NoError(t, err)

		resp, err := testee.Get(context.Background(), server.URL+"/triangle/abc")
		require.NoError(t, err)
		assert.Equal(t, int32(2), count.Load())

		body, err := resp.Map()
		require.NoError(t, err)
		assert.Equal(t, "t1", body["triangle_name"])
	})

	t.Run("when only the tail is broken, streaming mode reassembles the complete document", func(t *testing.T) {
		server, count := chunkedServer(t, func(n int32) []string {
			return []string{chunk(`{"id": `), chunk(`"abc"}`), "zz\r\n"}
		})
		defer server.Close()

		testee, err := rest.NewRequester(apiKey)
		require.NoError(t, err)

		resp, err := testee.Get(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, int32(2), count.Load())
		assert.JSONEq(t, `{"id": "abc"}`, string(resp.Body))
	})

	t.Run("when streaming mode also fails, it returns ErrProtocol without more retries", func(t *testing.T) {
		server, count := chunkedServer(t, func(n int32) []string {
			return []string{chunk(`{"id": `), "zz\r\n"}
		})
		defer server.Close()

		testee, err := rest.NewRequester(apiKey)
		require.NoError(t, err)

		_, err = testee.Get(context.Background(), server.URL)
		assert.ErrorIs(t, err, laerr.ErrProtocol)
		assert.Equal(t, int32(2), count.Load())
	})

	t.Run("POST is not retried", func(t *testing.T) {
		server, count := chunkedServer(t, func(n int32) []string {
			return []string{chunk(`{"id": `), "zz\r\n"}
		})
		defer server.Close()

		testee, err := rest.NewRequester(apiKey)
		require.NoError(t, err)

		_, err = testee.Post(context.Background(), server.URL, map[string]any{})
		assert.ErrorIs(t, err, laerr.ErrProtocol)
		assert.Equal(t, int32(1), count.Load())
	})
}

func TestStatusCodeRangeOf(t *testing.T) {
	for code, expected := range map[int]rest.StatusCodeRange{
		101: rest.Status1xx,
		200: rest.Status2xx,
		204: rest.Status2xx,
		302: rest.Status3xx,
		404: rest.Status4xx,
		503: rest.Status5xx,
		700: rest.StatusUnknown,
	} {
		assert.Equal(t, expected, rest.StatusCodeRangeOf(code), "code = %d", code)
	}
	assert.True(t, strings.Contains(rest.Status5xx.String(), "server"))
}
