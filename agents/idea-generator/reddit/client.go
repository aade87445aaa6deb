// Package reddit searches recent Reddit discussions about a channel's topics.
package reddit

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"idea-stack/internal/models"
	"idea-stack/shared/apierr"
	"idea-stack/shared/besteffort"
	"idea-stack/shared/config"
	"idea-stack/shared/upstream"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	publicSearchURL = "https://www.reddit.com/search.json"
	oauthSearchURL  = "https://oauth.reddit.com/search"
	tokenURL        = "https://www.reddit.com/api/v1/access_token"
	permalinkBase   = "https://reddit.com"
)

var (
	errNoTopics = errors.New("no topics to search for")
	errNoPosts  = errors.New("no discussions matched")
)

type Client struct {
	httpClient *http.Client
	searchURL  string
	now        func() time.Time
}

// NewClient searches the public JSON endpoint, or the OAuth endpoint with an app-only
// token when a client id and secret are configured.
func NewClient(cfg *config.RedditConfig) *Client {
	httpClient := upstream.NewHTTPClient(config.UpstreamTimeout, cfg.UserAgent)

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return &Client{httpClient: httpClient, searchURL: publicSearchURL, now: time.Now}
	}

	return &Client{
		httpClient: appOnlyClient(cfg, httpClient, tokenURL),
		searchURL:  oauthSearchURL,
		now:        time.Now,
	}
}

// appOnlyClient wraps base with a client-credentials token source. Token requests go
// through base too, so they carry the same user agent.
func appOnlyClient(cfg *config.RedditConfig, base *http.Client, tokenEndpoint string) *http.Client {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenEndpoint,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := cc.Client(ctx)
	client.Timeout = base.Timeout
	return client
}

type listing struct {
	Data struct {
		Children []struct {
			Data *struct {
				Title      string  `json:"title"`
				Selftext   string  `json:"selftext"`
				Permalink  string  `json:"permalink"`
				Subreddit  string  `json:"subreddit"`
				Score      float64 `json:"score"`
				CreatedUTC float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Search never fails; problems surface as a degraded, empty result.
func (c *Client) Search(ctx context.Context, topics []string) besteffort.Result[models.RedditPost] {
	query := upstream.TopicQuery(topics, config.AuxiliaryTopicCount)
	if query == "" {
		return besteffort.Empty[models.RedditPost](errNoTopics)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "relevance")
	params.Set("limit", strconv.Itoa(config.MaxRedditPosts))
	params.Set("t", "week")

	var resp listing
	if err := upstream.GetJSON(ctx, c.httpClient, c.searchURL+"?"+params.Encode(), &resp); err != nil {
		return besteffort.Empty[models.RedditPost](apierr.Translate(err, "Reddit"))
	}

	posts := make([]models.RedditPost, 0, config.MaxRedditPosts)
	for _, child := range resp.Data.Children {
		if len(posts) == config.MaxRedditPosts {
			break
		}
		if child.Data == nil {
			continue
		}
		p := child.Data

		post := models.RedditPost{
			Title:     strings.TrimSpace(p.Title),
			Content:   strings.TrimSpace(p.Selftext),
			Subreddit: p.Subreddit,
			Score:     int(p.Score),
			CreatedAt: c.now().UTC(),
		}
		if post.Content == "" {
			post.Content = post.Title
		}
		post.Content = truncate(post.Content, config.RedditContentMaxLength)
		if p.Permalink != "" {
			post.URL = permalinkBase + p.Permalink
		}
		if post.Subreddit == "" {
			post.Subreddit = "unknown"
		}
		if p.CreatedUTC > 0 {
			sec, frac := math.Modf(p.CreatedUTC)
			post.CreatedAt = time.Unix(int64(sec), int64(frac*1e9)).UTC()
		}

		if post.Title == "" || post.Content == "" || post.URL == "" {
			continue
		}
		posts = append(posts, post)
	}

	if len(posts) == 0 {
		return besteffort.Empty[models.RedditPost](errNoPosts)
	}
	return besteffort.Of(posts)
}

func truncate(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength])
}
