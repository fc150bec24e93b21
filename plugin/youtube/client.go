// Package youtube is a minimal YouTube Data API v3 client for video and
// channel lookups.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public Data API endpoint.
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"
	// MaxBatchSize is the largest id list accepted by a list call.
	MaxBatchSize = 50

	defaultQPS     = 5
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// ErrTooManyIDs is returned when a list call receives more than MaxBatchSize ids.
var ErrTooManyIDs = fmt.Errorf("at most %d ids per request", MaxBatchSize)

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	QPS        float64
	HTTPClient *http.Client
}

// Client calls the Data API. Requests share one rate limiter.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("youtube API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.QPS <= 0 {
		cfg.QPS = defaultQPS
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	burst := int(cfg.QPS)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.QPS), burst),
	}, nil
}

// APIError is a non-200 answer of the Data API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("youtube data API %d: %s", e.StatusCode, e.Body)
}

// Video is the snippet of one video.
type Video struct {
	ID           string
	CategoryID   string
	ChannelID    string
	ChannelTitle string
	Title        string
}

// Channel is the topic and description data of one channel.
type Channel struct {
	ID          string
	Topics      []string
	Description string
}

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			CategoryID   string `json:"categoryId"`
			ChannelID    string `json:"channelId"`
			ChannelTitle string `json:"channelTitle"`
			Title        string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

type channelListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Description string `json:"description"`
		} `json:"snippet"`
		TopicDetails struct {
			TopicCategories []string `json:"topicCategories"`
		} `json:"topicDetails"`
	} `json:"items"`
}

// ListVideos fetches the snippets of up to MaxBatchSize videos. Unknown or
// private ids are absent from the result.
func (c *Client) ListVideos(ctx context.Context, ids []string) ([]Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxBatchSize {
		return nil, ErrTooManyIDs
	}

	var resp videoListResponse
	if err := c.get(ctx, "videos", "snippet", ids, &resp); err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		videos = append(videos, Video{
			ID:           item.ID,
			CategoryID:   item.Snippet.CategoryID,
			ChannelID:    item.Snippet.ChannelID,
			ChannelTitle: item.Snippet.ChannelTitle,
			Title:        item.Snippet.Title,
		})
	}
	return videos, nil
}

// ListChannels fetches topic categories and descriptions of up to
// MaxBatchSize channels.
func (c *Client) ListChannels(ctx context.Context, ids []string) ([]Channel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxBatchSize {
		return nil, ErrTooManyIDs
	}

	var resp channelListResponse
	if err := c.get(ctx, "channels", "topicDetails,snippet", ids, &resp); err != nil {
		return nil, err
	}

	channels := make([]Channel, 0, len(resp.Items))
	for _, item := range resp.Items {
		topics := make([]string, 0, len(item.TopicDetails.TopicCategories))
		for _, t := range item.TopicDetails.TopicCategories {
			topics = append(topics, TopicName(t))
		}
		channels = append(channels, Channel{
			ID:          item.ID,
			Topics:      topics,
			Description: item.Snippet.Description,
		})
	}
	return channels, nil
}

// TopicName turns a topic category URL such as
// https://en.wikipedia.org/wiki/Role-playing_video_game into its readable name.
func TopicName(topicURL string) string {
	name := topicURL
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.ReplaceAll(name, "_", " ")
}

func (c *Client) get(ctx context.Context, resource, part string, ids []string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("youtube rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("part", part)
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+resource+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build youtube %s request: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("youtube %s request: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode youtube %s response: %w", resource, err)
	}

	slog.Debug("youtube request done",
		"resource", resource,
		"ids", len(ids),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
