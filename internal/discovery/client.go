// Package discovery pushes exported course documents into a search
// collection.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"course-nlu/internal/httpx"
	"course-nlu/internal/nlu"
)

// DefaultVersion is the API version date documents are added with.
const DefaultVersion = "2019-04-30"

var ErrMissingCollection = errors.New("discovery: missing service url, environment or collection")

type Config struct {
	URL           string
	EnvironmentID string
	CollectionID  string
	Version       string
}

// Enabled reports whether enough is configured to address a collection.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.URL) != "" && c.EnvironmentID != "" && c.CollectionID != ""
}

type Client struct {
	ServiceURL    string
	EnvironmentID string
	CollectionID  string
	Version       string
	HTTP          *http.Client
	Tokens        nlu.TokenSource
	Retry         httpx.RetryConfig
	Logger        *slog.Logger
}

// Notice is a warning or error the service attached to an accepted document.
type Notice struct {
	NoticeID string `json:"notice_id"`
	Severity string `json:"severity"`
	Step     string `json:"step"`
	Message  string `json:"description"`
}

// DocumentAccepted is the answer to an add-document call. Status is
// "processing" until the collection has indexed the document.
type DocumentAccepted struct {
	DocumentID string   `json:"document_id"`
	Status     string   `json:"status"`
	Notices    []Notice `json:"notices,omitempty"`
}

type errorResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

func New(cfg Config, tokens nlu.TokenSource, client *http.Client) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrMissingCollection
	}
	serviceURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if _, err := url.Parse(serviceURL); err != nil {
		return nil, fmt.Errorf("discovery: invalid service url: %w", err)
	}
	if tokens == nil {
		return nil, errors.New("discovery: missing token source")
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if client == nil {
		client = nlu.NewHTTPClient()
	}

	c := &Client{
		ServiceURL:    serviceURL,
		EnvironmentID: cfg.EnvironmentID,
		CollectionID:  cfg.CollectionID,
		Version:       cfg.Version,
		HTTP:          client,
		Tokens:        tokens,
		Logger:        slog.Default(),
	}
	c.Retry = httpx.DefaultRetryConfig()
	c.Retry.OnRetry = func(attempt int, wait time.Duration, err error) {
		c.Logger.Warn("discovery request retry", "attempt", attempt, "wait", wait, "error", err)
	}
	return c, nil
}

func (c *Client) documentsURL() (string, error) {
	u, err := url.Parse(fmt.Sprintf("%s/v1/environments/%s/collections/%s/documents",
		c.ServiceURL, url.PathEscape(c.EnvironmentID), url.PathEscape(c.CollectionID)))
	if err != nil {
		return "", fmt.Errorf("discovery: invalid service url: %w", err)
	}
	q := u.Query()
	q.Set("version", c.Version)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// AddDocument uploads one JSON document as the multipart "file" part.
func (c *Client) AddDocument(ctx context.Context, filename string, content []byte) (*DocumentAccepted, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, fmt.Errorf("discovery: %s is empty", filename)
	}

	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovery: authenticate: %w", err)
	}

	endpoint, err := c.documentsURL()
	if err != nil {
		return nil, err
	}

	body, contentType, err := multipartFile(filename, content)
	if err != nil {
		return nil, fmt.Errorf("discovery: encode %s: %w", filename, err)
	}

	var out DocumentAccepted
	err = httpx.DoJSON(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
			if err != nil {
				return nil, err
			}
			r.Header.Set("Content-Type", contentType)
			r.Header.Set("Accept", "application/json")
			r.Header.Set("Authorization", "Bearer "+token)
			return r, nil
		},
		&out,
		c.Retry,
	)
	if err != nil {
		return nil, describe(filename, err)
	}
	if out.DocumentID == "" {
		return nil, fmt.Errorf("discovery: add %s: response missing document_id", filename)
	}
	return &out, nil
}

// multipartFile builds the body once so every retry sends the same bytes.
func multipartFile(filename string, content []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", "application/json")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func describe(filename string, err error) error {
	var herr *httpx.HTTPError
	if !errors.As(err, &herr) {
		return fmt.Errorf("discovery: add %s: %w", filename, err)
	}
	var er errorResponse
	if json.Unmarshal(herr.Body, &er) == nil && er.Error != "" {
		return fmt.Errorf("discovery: add %s: %s (status %d): %w", filename, er.Error, herr.StatusCode, err)
	}
	return fmt.Errorf("discovery: add %s: status %d: %w", filename, herr.StatusCode, err)
}
