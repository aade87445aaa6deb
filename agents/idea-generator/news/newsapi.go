// Package news finds recent articles about a channel's topics.
package news

import (
	"context"
	"errors"
	"fmt"
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
)

const newsAPIEndpoint = "https://newsapi.org/v2/everything"

var (
	errNoTopics   = errors.New("no topics to search for")
	errNoArticles = errors.New("no articles matched")
)

// Source returns articles for a topic list. It never fails; a failed fetch is an empty,
// degraded result.
type Source interface {
	Fetch(ctx context.Context, topics []string) besteffort.Result[models.NewsArticle]
}

// New picks the configured provider.
func New(cfg *config.NewsConfig, httpClient *http.Client) (Source, error) {
	switch cfg.Provider {
	case config.NewsProviderNewsAPI, "":
		return NewNewsAPIClient(cfg.APIKey, httpClient), nil
	case config.NewsProviderRSS:
		return NewFeedClient(cfg.FeedURL, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown news provider %q", cfg.Provider)
	}
}

type NewsAPIClient struct {
	apiKey     string
	httpClient *http.Client
	endpoint   string
	now        func() time.Time
}

func NewNewsAPIClient(apiKey string, httpClient *http.Client) *NewsAPIClient {
	return &NewsAPIClient{
		apiKey:     apiKey,
		httpClient: httpClient,
		endpoint:   newsAPIEndpoint,
		now:        time.Now,
	}
}

type everythingResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (c *NewsAPIClient) Fetch(ctx context.Context, topics []string) besteffort.Result[models.NewsArticle] {
	if c.apiKey == "" {
		return besteffort.Empty[models.NewsArticle](fmt.Errorf("%s not configured", config.EnvNewsAPIKey))
	}

	query := upstream.TopicQuery(topics, config.AuxiliaryTopicCount)
	if query == "" {
		return besteffort.Empty[models.NewsArticle](errNoTopics)
	}

	now := c.now()
	params := url.Values{}
	params.Set("q", query)
	params.Set("from", now.Add(-config.NewsWindow).Format("2006-01-02"))
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", strconv.Itoa(config.MaxNewsArticles))
	params.Set("language", "en")
	params.Set("apiKey", c.apiKey)

	var resp everythingResponse
	if err := upstream.GetJSON(ctx, c.httpClient, c.endpoint+"?"+params.Encode(), &resp); err != nil {
		err = apierr.Translate(err, "NewsAPI")
		return besteffort.Empty[models.NewsArticle](err)
	}

	articles := make([]models.NewsArticle, 0, config.MaxNewsArticles)
	for _, a := range resp.Articles {
		if len(articles) == config.MaxNewsArticles {
			break
		}

		article := models.NewsArticle{
			Title:       strings.TrimSpace(a.Title),
			Description: strings.TrimSpace(a.Description),
			URL:         strings.TrimSpace(a.URL),
			PublishedAt: now,
		}
		if article.Title == "" || article.URL == "" {
			continue
		}
		if article.Description == "" {
			article.Description = truncate(strings.TrimSpace(a.Content), config.NewsContentMaxLength)
		}
		if publishedAt, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			article.PublishedAt = publishedAt
		}
		articles = append(articles, article)
	}

	if len(articles) == 0 {
		return besteffort.Empty[models.NewsArticle](errNoArticles)
	}
	return besteffort.Of(articles)
}

func truncate(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength])
}
