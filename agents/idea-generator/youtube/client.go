package youtube

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"idea-stack/internal/models"
	"idea-stack/shared/apierr"
	"idea-stack/shared/config"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const serviceName = "YouTube API"

// channelAPI is the subset of the Data API the fetcher needs.
type channelAPI interface {
	// channelByID returns nil when no channel has this id.
	channelByID(ctx context.Context, id string) (*youtube.Channel, error)
	// searchChannel returns the id of the best match for query, or "" when nothing matched.
	searchChannel(ctx context.Context, query string) (string, error)
	uploads(ctx context.Context, playlistID string, maxResults int64) ([]*youtube.PlaylistItem, error)
}

type Client struct {
	api channelAPI
}

// NewClient creates a Data API client authenticated with an API key.
// Extra options are appended after the key, tests use them to point at a local endpoint.
func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{api: &serviceAPI{service: service}}, nil
}

// FetchChannel resolves identifier to a channel and returns its most recent uploads.
// A direct id lookup is tried first; only when it is empty is the identifier searched as a handle.
func (c *Client) FetchChannel(ctx context.Context, identifier string) (*models.ChannelInfo, error) {
	info, err := c.fetchChannel(ctx, identifier)
	if err != nil {
		return nil, apierr.Translate(err, serviceName)
	}
	return info, nil
}

func (c *Client) fetchChannel(ctx context.Context, identifier string) (*models.ChannelInfo, error) {
	channel, err := c.api.channelByID(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if channel == nil {
		query := identifier
		if !strings.HasPrefix(query, "@") {
			query = "@" + query
		}

		log.Printf("No channel with id %q, searching for %s", identifier, query)
		foundID, err := c.api.searchChannel(ctx, query)
		if err != nil {
			return nil, err
		}
		if foundID == "" {
			return nil, apierr.New(apierr.KindNotFound, "Channel not found. Please check the URL or channel handle")
		}

		channel, err = c.api.channelByID(ctx, foundID)
		if err != nil {
			return nil, err
		}
		if channel == nil {
			return nil, apierr.New(apierr.KindNotFound, "Channel details not found")
		}
	}

	if channel.ContentDetails == nil || channel.ContentDetails.RelatedPlaylists == nil ||
		channel.ContentDetails.RelatedPlaylists.Uploads == "" {
		return nil, apierr.New(apierr.KindNotFound, "Channel uploads playlist not found")
	}

	items, err := c.api.uploads(ctx, channel.ContentDetails.RelatedPlaylists.Uploads, config.MaxVideos)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apierr.New(apierr.KindNotFound, "No videos found for this channel")
	}

	videos := make([]models.ChannelVideo, 0, config.MaxVideos)
	for _, item := range items {
		if len(videos) == config.MaxVideos {
			break
		}
		videos = append(videos, toChannelVideo(item))
	}

	info := &models.ChannelInfo{
		ChannelID: channel.Id,
		Videos:    videos,
	}
	if channel.Snippet != nil {
		info.ChannelName = channel.Snippet.Title
	}

	log.Printf("Fetched %d videos from channel %s (%s)", len(videos), info.ChannelName, info.ChannelID)
	return info, nil
}

func toChannelVideo(item *youtube.PlaylistItem) models.ChannelVideo {
	var video models.ChannelVideo

	if item.ContentDetails != nil {
		video.ID = item.ContentDetails.VideoId
	}
	if snippet := item.Snippet; snippet != nil {
		video.Title = snippet.Title
		video.Description = snippet.Description
		if publishedAt, err := time.Parse(time.RFC3339, snippet.PublishedAt); err == nil {
			video.PublishedAt = publishedAt
		}
		if video.ID == "" && snippet.ResourceId != nil {
			video.ID = snippet.ResourceId.VideoId
		}
		video.ThumbnailURL = thumbnailURL(snippet.Thumbnails)
	}
	video.WatchURL = fmt.Sprintf("https://www.youtube.com/watch?v=%s", video.ID)

	return video
}

// thumbnailURL prefers the high resolution thumbnail, then the default one.
func thumbnailURL(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	if t.High != nil && t.High.Url != "" {
		return t.High.Url
	}
	if t.Default != nil {
		return t.Default.Url
	}
	return ""
}

type serviceAPI struct {
	service *youtube.Service
}

func (s *serviceAPI) channelByID(ctx context.Context, id string) (*youtube.Channel, error) {
	resp, err := s.service.Channels.List([]string{"snippet", "contentDetails"}).
		Id(id).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}
	return resp.Items[0], nil
}

func (s *serviceAPI) searchChannel(ctx context.Context, query string) (string, error) {
	resp, err := s.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("channel").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", nil
	}

	item := resp.Items[0]
	if item.Snippet != nil && item.Snippet.ChannelId != "" {
		return item.Snippet.ChannelId, nil
	}
	if item.Id != nil {
		return item.Id.ChannelId, nil
	}
	return "", nil
}

func (s *serviceAPI) uploads(ctx context.Context, playlistID string, maxResults int64) ([]*youtube.PlaylistItem, error) {
	resp, err := s.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}
