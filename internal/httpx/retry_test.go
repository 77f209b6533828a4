package httpx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const analyzeURL = "https://nlu.example.com/v1/analyze"

// Mock HTTP RoundTripper for testing
type mockRoundTripper struct {
	responses []*http.Response
	errors    []error
	requests  []*http.Request
	index     int
	mux       sync.Mutex
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	m.requests = append(m.requests, req)
	if m.index >= len(m.responses) {
		return nil, errors.New("no more responses")
	}

	resp := m.responses[m.index]
	err := m.errors[m.index]
	m.index++
	return resp, err
}

func newMockTransport(responses []*http.Response, errs []error) *mockRoundTripper {
	for len(errs) < len(responses) {
		errs = append(errs, nil)
	}
	return &mockRoundTripper{responses: responses, errors: errs}
}

func newMockResponse(statusCode int, body string, headers map[string]string) *http.Response {
	header := http.Header{}
	for k, v := range headers {
		header.Set(k, v)
	}
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     header,
	}
}

func postAnalyze(ctx context.Context) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodPost, analyzeURL, strings.NewReader(`{"text":"x"}`))
}

func fastRetry(attempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = attempts
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = 2 * time.Millisecond
	return cfg
}

func TestDoWithRetrySuccess(t *testing.T) {
	tr := newMockTransport([]*http.Response{newMockResponse(200, `{"ok":true}`, nil)}, nil)

	resp, body, err := DoWithRetry(context.Background(), &http.Client{Transport: tr}, postAnalyze, DefaultRetryConfig())
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(body))
	assert.Equal(t, acceptEncoding, tr.requests[0].Header.Get("Accept-Encoding"))
}

func TestDoWithRetryBrotliBody(t *testing.T) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	w.Write([]byte(`{"keywords":[]}`))
	w.Close()

	resp := newMockResponse(200, "", map[string]string{"Content-Encoding": "br"})
	resp.Body = io.NopCloser(bytes.NewReader(buf.Bytes()))
	tr := newMockTransport([]*http.Response{resp}, nil)

	_, body, err := DoWithRetry(context.Background(), &http.Client{Transport: tr}, postAnalyze, DefaultRetryConfig())
	require.NoError(t, err)
	assert.Equal(t, `{"keywords":[]}`, string(body))
}

func TestDoWithRetryBuildReqError(t *testing.T) {
	tr := newMockTransport(nil, nil)
	buildReq := func(ctx context.Context) (*http.Request, error) {
		return nil, errors.New("request build error")
	}

	_, _, err := DoWithRetry(context.Background(), &http.Client{Transport: tr}, buildReq, DefaultRetryConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request build error")
}

func TestDoWithRetryNonRetryableError(t *testing.T) {
	tr := newMockTransport([]*http.Response{nil}, []error{errors.New("tls: handshake failure")})

	_, _, err := DoWithRetry(context.Background(), &http.Client{Transport: tr}, postAnalyze, fastRetry(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handshake failure")
	assert.Len(t, tr.requests, 1)
}

func TestDoWithRetryRetryableNetError(t *testing.T) {
	tr := newMockTransport(
		[]*http.Response{nil, newMockResponse(200, `{}`, nil)},
		[]error{errors.New("read: connection reset by peer"), nil},
	)

	_, body, err := DoWithRetry(context.Background(), &http.Client{Transport: tr}, postAnalyze, fastRetry(3))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(body))
}

func TestDoWithRetryRetryableStatus(t *testing.T) {
	tr := newMockTransport([]*http.Response{
		newMockResponse(429, `{"error":"rate limited"}`, nil),
		newMockResponse(200, `{"ok":true}`, nil),
	}, nil)

	var retries []int
	cfg := fastRetry(3)
	cfg.OnRetry = func(attempt int, wait time.Duration, err error) {
		retries = append(retries, attempt)
	}

	resp, _, err := DoWithRetry(context.Background(), &http.Client{Transport: tr}, postAnalyze, cfg)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []int{1}, retries)
}

func TestDoWithRetryMaxAttemptsExceeded(t *testing.T) {
	tr := newMockTransport([]*http.Response{
		newMockResponse(500, `{"error":"server error"}`, nil),
		newMockResponse(500, `{"error":"server error"}`, nil),
	}, nil)

	_, _, err := DoWithRetry(context.Background(), &http.Client{Transport: tr}, postAnalyze, fastRetry(2))

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 500, httpErr.StatusCode)
	assert.Len(t, tr.requests, 2)
}

func TestDoWithRetryClientErrorNotRetried(t *testing.T) {
	tr := newMockTransport([]*http.Response{
		newMockResponse(400, `{"error":"not enough text for language id"}`, nil),
	}, nil)

	_, _, err := DoWithRetry(context.Background(), &http.Client{Transport: tr}, postAnalyze, fastRetry(4))

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 400, httpErr.StatusCode)
	assert.Len(t, tr.requests, 1)
}

func TestDoWithRetryContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sleepCtx(ctx, time.Second), context.Canceled)
}

func TestDoJSON(t *testing.T) {
	tr := newMockTransport([]*http.Response{
		newMockResponse(200, `{"language":"en","concepts":[{"text":"algebra"}]}`, nil),
	}, nil)

	var out struct {
		Language string `json:"language"`
		Concepts []struct {
			Text string `json:"text"`
		} `json:"concepts"`
	}
	require.NoError(t, DoJSON(context.Background(), &http.Client{Transport: tr}, postAnalyze, &out, DefaultRetryConfig()))
	assert.Equal(t, "en", out.Language)
	require.Len(t, out.Concepts, 1)
	assert.Equal(t, "algebra", out.Concepts[0].Text)
}

func TestDoJSONParseError(t *testing.T) {
	tr := newMockTransport([]*http.Response{newMockResponse(200, `<html>gateway</html>`, nil)}, nil)

	var out map[string]any
	err := DoJSON(context.Background(), &http.Client{Transport: tr}, postAnalyze, &out, DefaultRetryConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json parse error")
}
