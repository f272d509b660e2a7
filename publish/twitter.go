package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/alpensichtung/feinstaubalarm"
)

const (
	// DefaultTwitterURL is the endpoint used to create a tweet.
	DefaultTwitterURL = "https://api.twitter.com/2/tweets"

	twitterTimeout      = 30 * time.Second
	maxErrorBodyPreview = 4 << 10
)

// TwitterCredentials are the four OAuth1 secrets of a Twitter app acting on
// behalf of one account.
type TwitterCredentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessKey      string
	AccessSecret   string
}

// Validate returns an error naming the first missing secret.
func (c TwitterCredentials) Validate() error {
	switch {
	case c.ConsumerKey == "":
		return errors.New("consumer_key is required")
	case c.ConsumerSecret == "":
		return errors.New("consumer_secret is required")
	case c.AccessKey == "":
		return errors.New("access_key is required")
	case c.AccessSecret == "":
		return errors.New("access_secret is required")
	}
	return nil
}

// Twitter posts alerts as tweets.
type Twitter struct {
	endpoint   string
	httpClient *http.Client
}

// NewTwitter creates a [Twitter] publisher that signs requests with creds.
//
// endpoint overrides [DefaultTwitterURL] when non-empty. Returns an error if
// any credential is missing or the endpoint is not an absolute URL.
func NewTwitter(creds TwitterCredentials, endpoint string) (*Twitter, error) {
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("twitter credentials: %w", err)
	}

	if endpoint == "" {
		endpoint = DefaultTwitterURL
	}
	if u, err := url.Parse(endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid twitter endpoint %q", endpoint)
	}

	config := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessKey, creds.AccessSecret)

	httpClient := config.Client(context.Background(), token)
	httpClient.Timeout = twitterTimeout

	return &Twitter{
		endpoint:   endpoint,
		httpClient: httpClient,
	}, nil
}

// Name returns "twitter".
func (t *Twitter) Name() string {
	return "twitter"
}

// Publish posts the alert text. Any non-2xx answer is an error carrying the
// status code and the start of the response body.
func (t *Twitter) Publish(ctx context.Context, alert feinstaubalarm.Alert) error {
	payload, err := json.Marshal(map[string]string{"text": alert.Text})
	if err != nil {
		return fmt.Errorf("failed to encode tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyPreview))
		return fmt.Errorf("twitter API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
