package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	requests []*http.Request
	status   int
	body     map[string]string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{status: http.StatusOK, body: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.requests = append(api.requests, r)
		status := api.status
		body := api.body[strings.TrimPrefix(r.URL.Path, "/")]
		api.mu.Unlock()

		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/", QPS: 1000})
	require.NoError(t, err)
	return api, client
}

func (f *fakeAPI) lastRequest() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeAPI) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)

	c, err := NewClient(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.NotNil(t, c.http)
}

func TestListVideos(t *testing.T) {
	api, client := newFakeAPI(t)
	api.body["videos"] = `{
  "items": [
    {"id": "AAAAAAAAAAA", "snippet": {"categoryId": "20", "channelId": "UC1", "channelTitle": "Sim Hub", "title": "Setup guide"}},
    {"id": "BBBBBBBBBBB", "snippet": {"categoryId": "10", "channelId": "UC2", "channelTitle": "Tunes", "title": "Song"}}
  ]
}`

	videos, err := client.ListVideos(context.Background(), []string{"AAAAAAAAAAA", "BBBBBBBBBBB", "CCCCCCCCCCC"})
	require.NoError(t, err)
	assert.Equal(t, []Video{
		{ID: "AAAAAAAAAAA", CategoryID: "20", ChannelID: "UC1", ChannelTitle: "Sim Hub", Title: "Setup guide"},
		{ID: "BBBBBBBBBBB", CategoryID: "10", ChannelID: "UC2", ChannelTitle: "Tunes", Title: "Song"},
	}, videos)

	q := api.lastRequest().URL.Query()
	assert.Equal(t, "snippet", q.Get("part"))
	assert.Equal(t, "AAAAAAAAAAA,BBBBBBBBBBB,CCCCCCCCCCC", q.Get("id"))
	assert.Equal(t, "test-key", q.Get("key"))
}

func TestListChannels(t *testing.T) {
	api, client := newFakeAPI(t)
	api.body["channels"] = `{
  "items": [
    {
      "id": "UC1",
      "snippet": {"description": "All about sim racing"},
      "topicDetails": {"topicCategories": ["https://en.wikipedia.org/wiki/Racing_video_game", "https://en.wikipedia.org/wiki/Video_game_culture"]}
    },
    {"id": "UC2", "snippet": {"description": ""}}
  ]
}`

	channels, err := client.ListChannels(context.Background(), []string{"UC1", "UC2"})
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, Channel{ID: "UC1", Topics: []string{"Racing video game", "Video game culture"}, Description: "All about sim racing"}, channels[0])
	assert.Empty(t, channels[1].Topics)
	assert.Equal(t, "", channels[1].Description)

	assert.Equal(t, "topicDetails,snippet", api.lastRequest().URL.Query().Get("part"))
}

func TestList_Errors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		api, client := newFakeAPI(t)
		api.status = http.StatusForbidden
		api.body["videos"] = `{"error": {"message": "quotaExceeded"}}`

		_, err := client.ListVideos(context.Background(), []string{"AAAAAAAAAAA"})
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		assert.Contains(t, apiErr.Body, "quotaExceeded")
	})

	t.Run("malformed body", func(t *testing.T) {
		api, client := newFakeAPI(t)
		api.body["channels"] = `{"items": [`

		_, err := client.ListChannels(context.Background(), []string{"UC1"})
		assert.Error(t, err)
	})

	t.Run("too many ids", func(t *testing.T) {
		api, client := newFakeAPI(t)
		ids := make([]string, MaxBatchSize+1)
		_, err := client.ListVideos(context.Background(), ids)
		assert.ErrorIs(t, err, ErrTooManyIDs)
		assert.Equal(t, 0, api.requestCount())
	})

	t.Run("no ids skips the request", func(t *testing.T) {
		api, client := newFakeAPI(t)
		videos, err := client.ListVideos(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, videos)
		assert.Equal(t, 0, api.requestCount())
	})

	t.Run("cancelled context", func(t *testing.T) {
		_, client := newFakeAPI(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.ListVideos(ctx, []string{"AAAAAAAAAAA"})
		assert.Error(t, err)
	})
}

func TestTopicName(t *testing.T) {
	assert.Equal(t, "Role-playing video game", TopicName("https://en.wikipedia.org/wiki/Role-playing_video_game"))
	assert.Equal(t, "Music", TopicName("Music"))
}
