package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"course-nlu/internal/httpx"
)

// DefaultVersion is the API version date the catalog scripts were written
// against.
const DefaultVersion = "2019-07-12"

var (
	ErrMissingServiceURL = errors.New("nlu: missing service url")

	// ErrMalformedResponse marks a 2xx answer without the requested feature.
	ErrMalformedResponse = errors.New("nlu: malformed response")
)

type Client struct {
	ServiceURL string
	Version    string
	HTTP       *http.Client
	Tokens     TokenSource
	Retry      httpx.RetryConfig
	Logger     *slog.Logger
}

// New builds a client for the instance at serviceURL, e.g.
// https://api.eu-gb.natural-language-understanding.watson.cloud.ibm.com/instances/<id>.
func New(serviceURL, version string, tokens TokenSource, client *http.Client) (*Client, error) {
	serviceURL = strings.TrimRight(strings.TrimSpace(serviceURL), "/")
	if serviceURL == "" {
		return nil, ErrMissingServiceURL
	}
	if _, err := url.Parse(serviceURL); err != nil {
		return nil, fmt.Errorf("nlu: invalid service url: %w", err)
	}
	if tokens == nil {
		return nil, errors.New("nlu: missing token source")
	}
	if version == "" {
		version = DefaultVersion
	}
	if client == nil {
		client = NewHTTPClient()
	}

	c := &Client{
		ServiceURL: serviceURL,
		Version:    version,
		HTTP:       client,
		Tokens:     tokens,
		Logger:     slog.Default(),
	}
	c.Retry = httpx.DefaultRetryConfig()
	c.Retry.OnRetry = func(attempt int, wait time.Duration, err error) {
		c.Logger.Warn("nlu request retry", "attempt", attempt, "wait", wait, "error", err)
	}
	return c, nil
}

// NewHTTPClient returns the shared transport used for IAM and analyze calls.
func NewHTTPClient() *http.Client {
	tr := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Timeout:   time.Minute,
		Transport: tr,
	}
}

// Analyze runs one /v1/analyze call with the given feature set.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, errors.New("nlu: empty text")
	}

	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("nlu: authenticate: %w", err)
	}

	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(c.ServiceURL + "/v1/analyze")
	if err != nil {
		return nil, fmt.Errorf("nlu: invalid service url: %w", err)
	}
	q := u.Query()
	q.Set("version", c.Version)
	u.RawQuery = q.Encode()

	var out AnalyzeResponse
	err = httpx.DoJSON(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(b))
			if err != nil {
				return nil, err
			}
			r.Header.Set("Content-Type", "application/json")
			r.Header.Set("Accept", "application/json")
			r.Header.Set("Authorization", "Bearer "+token)
			return r, nil
		},
		&out,
		c.Retry,
	)
	if err != nil {
		return nil, describe(err)
	}
	return &out, nil
}

// describe lifts the service's own error message out of an HTTPError body.
func describe(err error) error {
	var herr *httpx.HTTPError
	if !errors.As(err, &herr) {
		return fmt.Errorf("nlu: analyze: %w", err)
	}
	var er errorResponse
	if json.Unmarshal(herr.Body, &er) == nil && er.Error != "" {
		return fmt.Errorf("nlu: analyze: %s (status %d): %w", er.Error, herr.StatusCode, err)
	}
	return fmt.Errorf("nlu: analyze: status %d: %w", herr.StatusCode, err)
}

// Categories returns the category labels of text.
func (c *Client) Categories(ctx context.Context, text string) ([]Category, error) {
	resp, err := c.Analyze(ctx, AnalyzeRequest{
		Text:     text,
		Features: Features{Categories: &CategoriesOptions{}},
	})
	if err != nil {
		return nil, err
	}
	if resp.Categories == nil {
		return nil, missing("categories")
	}
	return resp.Categories, nil
}

// Keywords returns keywords of text, optionally scored for sentiment and
// emotion.
func (c *Client) Keywords(ctx context.Context, text string, opts KeywordsOptions) ([]Keyword, error) {
	resp, err := c.Analyze(ctx, AnalyzeRequest{
		Text:     text,
		Features: Features{Keywords: &opts},
	})
	if err != nil {
		return nil, err
	}
	if resp.Keywords == nil {
		return nil, missing("keywords")
	}
	return resp.Keywords, nil
}

// Concepts returns the concepts the service associates with text.
func (c *Client) Concepts(ctx context.Context, text string) ([]Concept, error) {
	resp, err := c.Analyze(ctx, AnalyzeRequest{
		Text:     text,
		Features: Features{Concepts: &ConceptsOptions{}},
	})
	if err != nil {
		return nil, err
	}
	if resp.Concepts == nil {
		return nil, missing("concepts")
	}
	return resp.Concepts, nil
}

// missing reports a feature absent from the response. An empty array is a
// valid answer; only a missing key is an error.
func missing(feature string) error {
	return fmt.Errorf("%w: response missing %s", ErrMalformedResponse, feature)
}
