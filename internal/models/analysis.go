package models

import (
	"fmt"
	"time"
)

type ChannelVideo struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	PublishedAt  time.Time `json:"publishedAt"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	WatchURL     string    `json:"watchUrl"`
}

type ChannelInfo struct {
	ChannelID   string         `json:"channelId"`
	ChannelName string         `json:"channelName"`
	Videos      []ChannelVideo `json:"videos"` // upload order, most recent first
}

// Titles returns the video titles in upload order.
func (c *ChannelInfo) Titles() []string {
	titles := make([]string, 0, len(c.Videos))
	for _, v := range c.Videos {
		titles = append(titles, v.Title)
	}
	return titles
}

type TopicAnalysis struct {
	MainTopics     []string `json:"mainTopics"`
	CommonThemes   []string `json:"commonThemes"`
	ContentStyle   string   `json:"contentStyle"`
	TargetAudience string   `json:"targetAudience"`
}

type NewsArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

type RedditPost struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	URL       string    `json:"url"`
	Subreddit string    `json:"subreddit"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

type VideoIdea struct {
	Title           string `json:"title"`
	ThumbnailDesign string `json:"thumbnailDesign"`
	VideoIdea       string `json:"videoIdea"`
}

// Complete reports whether all three fields carry text.
func (v VideoIdea) Complete() bool {
	return v.Title != "" && v.ThumbnailDesign != "" && v.VideoIdea != ""
}

type AnalysisResult struct {
	ChannelInfo *ChannelInfo   `json:"channelInfo"`
	Topics      *TopicAnalysis `json:"topics"`
	News        []NewsArticle  `json:"news"`
	RedditPosts []RedditPost   `json:"redditPosts"`
	VideoIdeas  []VideoIdea    `json:"videoIdeas"`
}

// Summary is a one-line description used by the monitor and CLI.
func (r *AnalysisResult) Summary() string {
	name := ""
	videos := 0
	if r.ChannelInfo != nil {
		name = r.ChannelInfo.ChannelName
		videos = len(r.ChannelInfo.Videos)
	}
	topics := 0
	if r.Topics != nil {
		topics = len(r.Topics.MainTopics)
	}
	return fmt.Sprintf("channel %q: %d videos, %d topics, %d news, %d reddit posts, %d ideas",
		name, videos, topics, len(r.News), len(r.RedditPosts), len(r.VideoIdeas))
}
