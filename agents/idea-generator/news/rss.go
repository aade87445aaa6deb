package news

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"idea-stack/internal/models"
	"idea-stack/shared/apierr"
	"idea-stack/shared/besteffort"
	"idea-stack/shared/config"
	"idea-stack/shared/upstream"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

// FeedClient searches an RSS/Atom search endpoint such as Google News.
// It needs no credential.
type FeedClient struct {
	urlTemplate string
	parser      *gofeed.Parser
	policy      *bluemonday.Policy
	now         func() time.Time
}

// NewFeedClient takes a search URL template whose %s receives the escaped query.
func NewFeedClient(urlTemplate string, httpClient *http.Client) *FeedClient {
	parser := gofeed.NewParser()
	parser.Client = httpClient
	parser.UserAgent = upstream.DefaultUserAgent

	return &FeedClient{
		urlTemplate: urlTemplate,
		parser:      parser,
		policy:      bluemonday.StrictPolicy(),
		now:         time.Now,
	}
}

func (c *FeedClient) Fetch(ctx context.Context, topics []string) besteffort.Result[models.NewsArticle] {
	query := upstream.TopicQuery(topics, config.AuxiliaryTopicCount)
	if query == "" {
		return besteffort.Empty[models.NewsArticle](errNoTopics)
	}

	feedURL := fmt.Sprintf(c.urlTemplate, url.QueryEscape(query))
	feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			err = &apierr.StatusError{Code: httpErr.StatusCode, Message: httpErr.Status}
		}
		err = apierr.Translate(err, "News feed")
		return besteffort.Empty[models.NewsArticle](err)
	}

	now := c.now()
	cutoff := now.Add(-config.NewsWindow)

	articles := make([]models.NewsArticle, 0, config.MaxNewsArticles)
	for _, item := range feed.Items {
		if len(articles) == config.MaxNewsArticles {
			break
		}
		if item == nil {
			continue
		}

		article := models.NewsArticle{
			Title:       c.plainText(item.Title),
			Description: c.plainText(item.Description),
			URL:         strings.TrimSpace(item.Link),
			PublishedAt: now,
		}
		if article.Title == "" || article.URL == "" {
			continue
		}
		if article.Description == "" {
			article.Description = truncate(c.plainText(item.Content), config.NewsContentMaxLength)
		}

		if item.PublishedParsed != nil {
			article.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			article.PublishedAt = *item.UpdatedParsed
		}
		if article.PublishedAt.Before(cutoff) {
			continue
		}

		articles = append(articles, article)
	}

	if len(articles) == 0 {
		return besteffort.Empty[models.NewsArticle](errNoArticles)
	}
	return besteffort.Of(articles)
}

// plainText strips all markup and decodes entities.
func (c *FeedClient) plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(c.policy.Sanitize(s)))
}
