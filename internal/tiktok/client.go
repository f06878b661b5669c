package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 45 * time.Second
	userAgent      = "TikTokBot/1.0"
)

// Client talks to the external content-resolution API. Both operations
// are single-shot: a failed attempt is surfaced immediately so the user
// can resend, never retried here.
type Client struct {
	baseURL    string
	httpClient *http.Client
	throttle   *rate.Limiter
}

type Option func(*Client)

// WithTimeout overrides the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithThrottle caps outbound calls with a token bucket so one chatty
// group cannot exhaust the upstream's goodwill.
func WithThrottle(rps float64, burst int) Option {
	return func(c *Client) { c.throttle = rate.NewLimiter(rate.Limit(rps), burst) }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    *struct {
		HasVideo  bool   `json:"has_video"`
		HasAudio  bool   `json:"has_audio"`
		HasPhotos bool   `json:"has_photos"`
		Cover     string `json:"cover"`
		Author    struct {
			Nickname string `json:"nickname"`
		} `json:"author"`
		DiggCount    int64 `json:"digg_count"`
		PlayCount    int64 `json:"play_count"`
		CommentCount int64 `json:"comment_count"`
	} `json:"data"`
	URL    string `json:"url"`
	Photos []struct {
		URL string `json:"url"`
	} `json:"photos"`
}

// Resolve asks the API what a TikTok URL contains.
func (c *Client) Resolve(ctx context.Context, target string) (Content, error) {
	resp, err := c.call(ctx, "info", url.Values{"url": {target}})
	if err != nil {
		return Content{}, err
	}
	if resp.Data == nil {
		return Content{}, &APIError{Reason: "empty response data"}
	}
	return Content{
		HasVideo:  resp.Data.HasVideo,
		HasAudio:  resp.Data.HasAudio,
		HasPhotos: resp.Data.HasPhotos,
		Cover:     resp.Data.Cover,
		Author:    resp.Data.Author.Nickname,
		Likes:     resp.Data.DiggCount,
		Views:     resp.Data.PlayCount,
		Comments:  resp.Data.CommentCount,
	}, nil
}

// Download asks the API for the asset location(s) of the chosen kind.
// An empty photo list is returned as-is; the caller decides whether
// that counts as a failure.
func (c *Client) Download(ctx context.Context, target string, kind MediaKind) (Asset, error) {
	resp, err := c.call(ctx, "download", url.Values{"url": {target}, "type": {string(kind)}})
	if err != nil {
		return Asset{}, err
	}

	asset := Asset{URL: resp.URL}
	for _, photo := range resp.Photos {
		asset.Photos = append(asset.Photos, photo.URL)
	}
	return asset, nil
}

func (c *Client) call(ctx context.Context, endpoint string, params url.Values) (*envelope, error) {
	if c.throttle != nil {
		if err := c.throttle.Wait(ctx); err != nil {
			return nil, &APIError{Reason: err.Error()}
		}
	}

	params.Set("endpoint", endpoint)
	requestURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Reason: fmt.Sprintf("unexpected status code: %d", resp.StatusCode)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &APIError{Reason: fmt.Sprintf("malformed response: %v", err)}
	}

	if !env.Success {
		reason := env.Error
		if reason == "" {
			reason = "unknown error"
		}
		return nil, &APIError{Reason: reason}
	}

	return &env, nil
}
