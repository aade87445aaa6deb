package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"idea-stack/internal/models"
	"idea-stack/shared/apierr"
	"idea-stack/shared/config"

	"google.golang.org/genai"
)

const serviceName = "Gemini"

const notSpecified = "Not specified"

const (
	topicSystemPrompt = "You are an expert content analyst. Analyze YouTube videos and extract key insights. Always respond with valid JSON only."
	ideaSystemPrompt  = "You are an expert YouTube content strategist. Generate engaging, relevant video ideas that match the channel style. Always respond with valid JSON only."
)

type Analyzer struct {
	gen        TextGenerator
	topicModel string
	ideaModel  string
}

func NewAnalyzer(gen TextGenerator, cfg *config.AIConfig) *Analyzer {
	return &Analyzer{
		gen:        gen,
		topicModel: cfg.TopicModel,
		ideaModel:  cfg.IdeaModel,
	}
}

// IdeaRequest is everything the idea prompt is built from.
type IdeaRequest struct {
	ChannelName  string
	Topics       *models.TopicAnalysis
	RecentTitles []string
	News         []models.NewsArticle
	Posts        []models.RedditPost
}

func (a *Analyzer) AnalyzeTopics(ctx context.Context, videos []models.ChannelVideo) (*models.TopicAnalysis, error) {
	if len(videos) == 0 {
		return nil, apierr.New(apierr.KindValidation, "No videos provided for analysis")
	}

	text, err := a.gen.Generate(ctx, Request{
		Model:       a.topicModel,
		System:      topicSystemPrompt,
		Prompt:      buildTopicPrompt(videos),
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, classify(err, "Failed to analyze topics")
	}

	topics, err := parseTopics(text)
	if err != nil {
		return nil, err
	}

	log.Printf("Extracted %d topics: %s", len(topics.MainTopics), strings.Join(topics.MainTopics, ", "))
	return topics, nil
}

func (a *Analyzer) GenerateIdeas(ctx context.Context, req IdeaRequest) ([]models.VideoIdea, error) {
	if req.Topics == nil {
		return nil, apierr.New(apierr.KindValidation, "Topic analysis is required to generate ideas")
	}

	text, err := a.gen.Generate(ctx, Request{
		Model:       a.ideaModel,
		System:      ideaSystemPrompt,
		Prompt:      buildIdeaPrompt(req),
		Temperature: 0.8,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, classify(err, "Failed to generate video ideas")
	}

	ideas, err := parseIdeas(text)
	if err != nil {
		return nil, err
	}

	log.Printf("Generated %d video ideas for %s", len(ideas), req.ChannelName)
	return ideas, nil
}

func buildTopicPrompt(videos []models.ChannelVideo) string {
	if len(videos) > config.MaxVideos {
		videos = videos[:config.MaxVideos]
	}

	summaries := make([]string, 0, len(videos))
	for i, v := range videos {
		summaries = append(summaries, fmt.Sprintf("Video %d: %s\nDescription: %s",
			i+1, v.Title, truncate(v.Description, config.DescriptionMaxLength)))
	}

	return fmt.Sprintf(`Analyze the following YouTube videos and extract:
1. Main topics covered (%d key topics maximum)
2. Common themes across videos
3. Content style and format
4. Target audience

Videos:
%s

Respond in JSON format:
{
  "mainTopics": ["topic1", "topic2", ...],
  "commonThemes": ["theme1", "theme2", ...],
  "contentStyle": "description of style",
  "targetAudience": "description of audience"
}`,
		config.MaxTopics,
		strings.Join(summaries, "\n\n"),
	)
}

func buildIdeaPrompt(req IdeaRequest) string {
	newsLines := make([]string, 0, config.MaxVideoIdeas)
	for _, n := range capped(req.News, config.MaxVideoIdeas) {
		newsLines = append(newsLines, fmt.Sprintf("- %s: %s", n.Title, truncate(n.Description, config.SummaryLength)))
	}
	newsSummary := strings.Join(newsLines, "\n")
	if newsSummary == "" {
		newsSummary = "No recent news found"
	}

	redditLines := make([]string, 0, config.MaxVideoIdeas)
	for _, p := range capped(req.Posts, config.MaxVideoIdeas) {
		redditLines = append(redditLines, fmt.Sprintf("- %s: %s", p.Title, truncate(p.Content, config.SummaryLength)))
	}
	redditSummary := strings.Join(redditLines, "\n")
	if redditSummary == "" {
		redditSummary = "No Reddit discussions found"
	}

	titleLines := make([]string, 0, config.MaxVideoIdeas)
	for _, title := range capped(req.RecentTitles, config.MaxVideoIdeas) {
		titleLines = append(titleLines, "- "+title)
	}

	return fmt.Sprintf(`Generate %[1]d video ideas for the channel "%[2]s".

Channel Analysis:
- Main Topics: %[3]s
- Common Themes: %[4]s
- Content Style: %[5]s
- Target Audience: %[6]s

Recent Video Titles (for style reference):
%[7]s

Relevant News Today:
%[8]s

Reddit Discussions:
%[9]s

Generate %[1]d video ideas that:
1. Match the channel's style and topics
2. Are relevant to current news and discussions
3. Have engaging titles in the same style as recent videos
4. Include thumbnail design suggestions
5. Include detailed video concept

Respond in JSON format:
{
  "ideas": [
    {
      "title": "Video title matching channel style",
      "thumbnailDesign": "Description of thumbnail design elements, colors, text placement",
      "videoIdea": "Detailed concept for the video including key points, structure, and hook"
    }
  ]
}`,
		config.MaxVideoIdeas,
		req.ChannelName,
		strings.Join(req.Topics.MainTopics, ", "),
		strings.Join(req.Topics.CommonThemes, ", "),
		req.Topics.ContentStyle,
		req.Topics.TargetAudience,
		strings.Join(titleLines, "\n"),
		newsSummary,
		redditSummary,
	)
}

func parseTopics(text string) (*models.TopicAnalysis, error) {
	fields, err := decodeObject(text)
	if err != nil {
		return nil, err
	}

	mainTopics, ok := stringList(fields["mainTopics"])
	if !ok {
		return nil, &apierr.Error{Kind: apierr.KindParse, Service: serviceName, Message: "Invalid response format: mainTopics missing"}
	}

	topics := &models.TopicAnalysis{
		MainTopics:     capped(distinct(mainTopics), config.MaxTopics),
		CommonThemes:   []string{},
		ContentStyle:   stringField(fields, "contentStyle"),
		TargetAudience: stringField(fields, "targetAudience"),
	}

	if themes, ok := stringList(fields["commonThemes"]); ok {
		topics.CommonThemes = themes
	}

	return topics, nil
}

func parseIdeas(text string) ([]models.VideoIdea, error) {
	fields, err := decodeObject(text)
	if err != nil {
		return nil, err
	}

	var entries []json.RawMessage
	raw, ok := fields["ideas"]
	if !ok || json.Unmarshal(raw, &entries) != nil || entries == nil {
		return nil, &apierr.Error{Kind: apierr.KindParse, Service: serviceName, Message: "Invalid response format: ideas array missing"}
	}

	ideas := make([]models.VideoIdea, 0, config.MaxVideoIdeas)
	for _, entry := range entries {
		var idea models.VideoIdea
		if err := json.Unmarshal(entry, &idea); err != nil {
			continue
		}
		idea.Title = strings.TrimSpace(idea.Title)
		idea.ThumbnailDesign = strings.TrimSpace(idea.ThumbnailDesign)
		idea.VideoIdea = strings.TrimSpace(idea.VideoIdea)
		if !idea.Complete() {
			continue
		}
		ideas = append(ideas, idea)
		if len(ideas) == config.MaxVideoIdeas {
			break
		}
	}

	return ideas, nil
}

// decodeObject parses model output strictly as a JSON object.
func decodeObject(text string) (map[string]json.RawMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &apierr.Error{Kind: apierr.KindParse, Service: serviceName, Message: "No response from language model"}
	}
	if !json.Valid([]byte(text)) {
		return nil, &apierr.Error{Kind: apierr.KindParse, Service: serviceName, Message: "Invalid JSON response from language model"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil || fields == nil {
		return nil, &apierr.Error{Kind: apierr.KindParse, Service: serviceName, Message: "Invalid response format: expected a JSON object"}
	}
	return fields, nil
}

func stringField(fields map[string]json.RawMessage, key string) string {
	var s string
	if raw, ok := fields[key]; ok && json.Unmarshal(raw, &s) == nil {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return notSpecified
}

// classify maps a generation failure onto the error taxonomy. Rate limits and timeouts keep
// their own kinds; everything else is reported under op.
func classify(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apierr.Translate(err, serviceName)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED") {
		return &apierr.Error{Kind: apierr.KindRateLimited, Status: apiErr.Code, Message: "Gemini rate limit exceeded. Please try again later", Err: err}
	}
	if strings.Contains(strings.ToLower(err.Error()), "rate limit") {
		return &apierr.Error{Kind: apierr.KindRateLimited, Message: "Gemini rate limit exceeded. Please try again later", Err: err}
	}

	translated := apierr.Translate(err, serviceName)
	var tagged *apierr.Error
	if errors.As(translated, &tagged) {
		return &apierr.Error{
			Kind:    tagged.Kind,
			Status:  tagged.Status,
			Message: fmt.Sprintf("%s: %s", op, tagged.Error()),
			Err:     err,
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// stringList decodes a JSON array and keeps its non-blank string entries, trimmed.
// It reports false when raw is absent or not an array.
func stringList(raw json.RawMessage) ([]string, bool) {
	var entries []json.RawMessage
	if raw == nil || json.Unmarshal(raw, &entries) != nil || entries == nil {
		return nil, false
	}

	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		var s string
		if json.Unmarshal(entry, &s) != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, true
}

// distinct drops repeats, keeping the first occurrence.
func distinct(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func capped[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// truncate cuts s to at most maxLength runes.
func truncate(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength])
}
