package nlu

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"course-nlu/internal/httpx"
)

const (
	DefaultIAMURL = "https://iam.cloud.ibm.com"
	apiKeyGrant   = "urn:ibm:params:oauth:grant-type:apikey"

	// refresh this long before the advertised expiry
	tokenRefreshSkew = 60 * time.Second
)

// TokenSource hands out bearer tokens for the service.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type iamTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Expiration  int64  `json:"expiration"`
}

// IAMTokenSource exchanges an API key for an IAM access token and caches it
// until shortly before it expires. Safe for concurrent use.
type IAMTokenSource struct {
	URL    string
	APIKey string
	HTTP   *http.Client
	Retry  httpx.RetryConfig

	now func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewIAMTokenSource builds a token source against iamURL (DefaultIAMURL
// when empty).
func NewIAMTokenSource(iamURL, apiKey string, client *http.Client) *IAMTokenSource {
	if strings.TrimSpace(iamURL) == "" {
		iamURL = DefaultIAMURL
	}
	return &IAMTokenSource{
		URL:    strings.TrimRight(iamURL, "/"),
		APIKey: apiKey,
		HTTP:   client,
		Retry:  httpx.DefaultRetryConfig(),
		now:    time.Now,
	}
}

func (s *IAMTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expires) {
		return s.token, nil
	}
	if s.APIKey == "" {
		return "", errors.New("iam: missing api key")
	}

	form := url.Values{}
	form.Set("grant_type", apiKeyGrant)
	form.Set("apikey", s.APIKey)
	payload := form.Encode()

	var tr iamTokenResponse
	err := httpx.DoJSON(
		ctx,
		s.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL+"/identity/token", strings.NewReader(payload))
			if err != nil {
				return nil, err
			}
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			r.Header.Set("Accept", "application/json")
			return r, nil
		},
		&tr,
		s.Retry,
	)
	if err != nil {
		return "", fmt.Errorf("iam: token request failed: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("iam: token not found in response")
	}

	s.token = tr.AccessToken
	s.expires = s.expiry(tr)
	return s.token, nil
}

func (s *IAMTokenSource) expiry(tr iamTokenResponse) time.Time {
	var exp time.Time
	switch {
	case tr.Expiration > 0:
		exp = time.Unix(tr.Expiration, 0)
	case tr.ExpiresIn > 0:
		exp = s.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	default:
		return s.now()
	}
	return exp.Add(-tokenRefreshSkew)
}

// StaticToken is a TokenSource for a pre-issued bearer token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", errors.New("iam: empty static token")
	}
	return string(t), nil
}
