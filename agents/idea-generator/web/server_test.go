package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"idea-stack/internal/models"
	"idea-stack/shared/apierr"
	"idea-stack/shared/monitoring"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	result *models.AnalysisResult
	err    error

	mu     sync.Mutex
	inputs []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, rawURL string) (*models.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, rawURL)
	return f.result, f.err
}

func (f *fakeAnalyzer) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs
}

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		ChannelInfo: &models.ChannelInfo{
			ChannelID:   "UC123",
			ChannelName: "Gophers",
			Videos:      []models.ChannelVideo{{ID: "a", Title: "Intro to Go", WatchURL: "https://www.youtube.com/watch?v=a"}},
		},
		Topics: &models.TopicAnalysis{
			MainTopics:     []string{"Go"},
			CommonThemes:   []string{},
			ContentStyle:   "Tutorials",
			TargetAudience: "Developers",
		},
		News:        []models.NewsArticle{},
		RedditPosts: []models.RedditPost{},
		VideoIdeas:  []models.VideoIdea{{Title: "Go in 100s", ThumbnailDesign: "Gopher", VideoIdea: "Fast intro"}},
	}
}

func newTestServer(t *testing.T, analyzer Analyzer) (*httptest.Server, *monitoring.Monitor) {
	t.Helper()
	reg := prometheus.NewRegistry()
	monitor := monitoring.NewMonitor(reg)
	srv := httptest.NewServer(NewRouter(analyzer, monitor, reg))
	t.Cleanup(srv.Close)
	return srv, monitor
}

func postAnalyze(t *testing.T, srv *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/analyze", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestAnalyzeSuccess(t *testing.T) {
	analyzer := &fakeAnalyzer{result: sampleResult()}
	srv, _ := newTestServer(t, analyzer)

	resp, body := postAnalyze(t, srv, `{"url":"https://youtube.com/@gophers"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, true, body["success"])
	for _, key := range []string{"channelInfo", "topics", "news", "redditPosts", "videoIdeas"} {
		assert.Contains(t, body, key)
	}
	assert.Equal(t, []any{}, body["news"], "empty lists are arrays, not null")

	channel := body["channelInfo"].(map[string]any)
	assert.Equal(t, "Gophers", channel["channelName"])
	assert.Equal(t, []string{"https://youtube.com/@gophers"}, analyzer.seen())
}

func TestAnalyzeRejectsMalformedBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Not JSON", `url=https://youtube.com/@x`},
		{"Missing url", `{}`},
		{"Null url", `{"url":null}`},
		{"Numeric url", `{"url":42}`},
		{"Array url", `{"url":["@x"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &fakeAnalyzer{result: sampleResult()}
			srv, _ := newTestServer(t, analyzer)

			resp, body := postAnalyze(t, srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "URL is required and must be a string", body["error"])
			assert.Empty(t, analyzer.seen())
		})
	}
}

func TestAnalyzeErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "Empty url",
			err:        apierr.New(apierr.KindValidation, "URL cannot be empty"),
			wantStatus: http.StatusBadRequest,
			wantError:  "URL cannot be empty",
		},
		{
			name:       "Channel not found",
			err:        apierr.New(apierr.KindNotFound, "Channel not found. Please check the URL or channel handle"),
			wantStatus: http.StatusNotFound,
			wantError:  "Channel not found. Please check the URL or channel handle",
		},
		{
			name:       "Rate limited",
			err:        apierr.New(apierr.KindRateLimited, "Gemini rate limit exceeded. Please try again later"),
			wantStatus: http.StatusTooManyRequests,
			wantError:  "Gemini rate limit exceeded. Please try again later",
		},
		{
			name:       "Timeout",
			err:        apierr.New(apierr.KindTimeout, "Request timed out"),
			wantStatus: http.StatusGatewayTimeout,
			wantError:  "Request timed out",
		},
		{
			name:       "Upstream failure",
			err:        &apierr.Error{Kind: apierr.KindTransport, Service: "YouTube API", Message: "API key is invalid or quota exceeded"},
			wantStatus: http.StatusInternalServerError,
			wantError:  "YouTube API: API key is invalid or quota exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &fakeAnalyzer{err: tt.err})

			resp, body := postAnalyze(t, srv, `{"url":"@gophers"}`)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantError, body["error"])
			assert.NotContains(t, body, "channelInfo")
		})
	}
}

func TestAnalyzeMissingCredentials(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalyzer{err: &apierr.Error{
		Kind:    apierr.KindConfiguration,
		Message: "API keys not configured",
		Missing: []string{"YOUTUBE_API_KEY", "GEMINI_API_KEY"},
		Hint:    "Set the keys and restart",
	}})

	resp, body := postAnalyze(t, srv, `{"url":"@gophers"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "API keys not configured", body["error"])
	assert.Equal(t, []any{"YOUTUBE_API_KEY", "GEMINI_API_KEY"}, body["missing"])
	assert.Equal(t, "Set the keys and restart", body["hint"])
}

func TestAnalyzeInvalidURLCarriesHint(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalyzer{err: &apierr.Error{
		Kind:    apierr.KindValidation,
		Message: "Invalid YouTube channel URL",
		Hint:    "Supported formats: youtube.com/@channel",
	}})

	resp, body := postAnalyze(t, srv, `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Supported formats: youtube.com/@channel", body["hint"])
	assert.NotContains(t, body, "missing")
}

func TestIndexPage(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalyzer{})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	page := string(raw)
	assert.Contains(t, page, "YouTube Video Idea Generator")
	assert.Contains(t, page, "/api/analyze")
	assert.Contains(t, page, "<code>youtube.com/@channel</code>")
	assert.Contains(t, page, "lastError: state.lastError", "the saved snapshot includes the last error")
	assert.Contains(t, page, "state.lastError = saved.lastError")
}

func TestAnalyzeRejectsGet(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalyzer{})

	resp, err := http.Get(srv.URL + "/api/analyze")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	srv, monitor := newTestServer(t, &fakeAnalyzer{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	monitor.RecordFailure("transport", apierr.New(apierr.KindTransport, "boom"), 0)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `idea_stack_analyses_total{kind="transport",outcome="failure"} 1`)
}
