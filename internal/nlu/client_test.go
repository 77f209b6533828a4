package nlu

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-nlu/internal/httpx"
)

// fakeService mimics /v1/analyze, answering based on the requested feature.
func fakeService(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)

		assert.Equal(t, "/v1/analyze", r.URL.Path)
		assert.Equal(t, DefaultVersion, r.URL.Query().Get("version"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req AnalyzeRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}

		var resp AnalyzeResponse
		switch {
		case req.Features.Categories != nil:
			resp.Categories = []Category{{Label: "/education/math", Score: 0.91}}
		case req.Features.Keywords != nil:
			assert.True(t, req.Features.Keywords.Sentiment)
			assert.True(t, req.Features.Keywords.Emotion)
			resp.Keywords = []Keyword{{Text: "equations"}, {Text: "variables"}}
		case req.Features.Concepts != nil:
			resp.Concepts = []Concept{{Text: "algebra", Relevance: 0.95}}
		default:
			t.Errorf("request without features: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(url, "", StaticToken("test-token"), nil)
	require.NoError(t, err)
	c.Retry.BaseDelay = time.Millisecond
	c.Retry.MaxDelay = 2 * time.Millisecond
	return c
}

func TestNewValidation(t *testing.T) {
	_, err := New("  ", "", StaticToken("x"), nil)
	assert.ErrorIs(t, err, ErrMissingServiceURL)

	_, err = New("https://nlu.example.com", "", nil, nil)
	assert.Error(t, err)

	c, err := New("https://nlu.example.com/instances/abc/", "", StaticToken("x"), nil)
	require.NoError(t, err)
	assert.Equal(t, "https://nlu.example.com/instances/abc", c.ServiceURL)
	assert.Equal(t, DefaultVersion, c.Version)
	assert.NotNil(t, c.HTTP)
}

func TestFeatureCalls(t *testing.T) {
	var calls int32
	srv := fakeService(t, &calls)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	cats, err := c.Categories(ctx, "Introduction to Algebra")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "/education/math", cats[0].Label)

	kws, err := c.Keywords(ctx, "Introduction to Algebra", KeywordsOptions{Sentiment: true, Emotion: true})
	require.NoError(t, err)
	assert.Equal(t, []Keyword{{Text: "equations"}, {Text: "variables"}}, kws)

	concepts, err := c.Concepts(ctx, "Introduction to Algebra")
	require.NoError(t, err)
	require.Len(t, concepts, 1)
	assert.Equal(t, "algebra", concepts[0].Text)

	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestAnalyzeEmptyText(t *testing.T) {
	c := newTestClient(t, "https://nlu.example.com")

	_, err := c.Concepts(context.Background(), "   ")
	assert.Error(t, err)
}

func TestAnalyzeServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":400,"error":"unsupported text language: unknown"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Categories(context.Background(), "zzzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported text language")

	var herr *httpx.HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusBadRequest, herr.StatusCode)
}

func TestAnalyzeMissingFeature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"language":"en"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	cats, err := c.Categories(ctx, "Introduction to Algebra")
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Contains(t, err.Error(), "response missing categories")
	assert.Nil(t, cats)

	_, err = c.Keywords(ctx, "Introduction to Algebra", KeywordsOptions{})
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = c.Concepts(ctx, "Introduction to Algebra")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestAnalyzeEmptyFeatureIsValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"language":"en","categories":[]}`))
	}))
	defer srv.Close()

	cats, err := newTestClient(t, srv.URL).Categories(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestAnalyzeRetriesQuota(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"concepts":[{"text":"biology"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	concepts, err := c.Concepts(context.Background(), "Cells and organisms")
	require.NoError(t, err)
	assert.Equal(t, "biology", concepts[0].Text)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestAnalyzeTokenError(t *testing.T) {
	c := newTestClient(t, "https://nlu.example.com")
	c.Tokens = StaticToken("")

	_, err := c.Concepts(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authenticate")
}
