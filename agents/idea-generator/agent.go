package ideagenerator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"idea-stack/agents/idea-generator/news"
	"idea-stack/agents/idea-generator/reddit"
	"idea-stack/agents/idea-generator/youtube"
	"idea-stack/internal/models"
	"idea-stack/shared/ai"
	"idea-stack/shared/apierr"
	"idea-stack/shared/besteffort"
	"idea-stack/shared/clients"
	"idea-stack/shared/config"
	"idea-stack/shared/monitoring"
	"idea-stack/shared/upstream"

	"golang.org/x/sync/errgroup"
)

type Stage string

const (
	StageReceived         Stage = "received"
	StageValidated        Stage = "validated"
	StageChannelResolved  Stage = "channel_resolved"
	StageTopicsAnalyzed   Stage = "topics_analyzed"
	StageAuxiliaryFetched Stage = "auxiliary_fetched"
	StageIdeasGenerated   Stage = "ideas_generated"
	StageResponded        Stage = "responded"
)

const credentialsHint = "Set YOUTUBE_API_KEY and GEMINI_API_KEY in the environment, .env or config.yaml, then restart the server"

type VideoSource interface {
	FetchChannel(ctx context.Context, identifier string) (*models.ChannelInfo, error)
}

type Analyst interface {
	AnalyzeTopics(ctx context.Context, videos []models.ChannelVideo) (*models.TopicAnalysis, error)
	GenerateIdeas(ctx context.Context, req ai.IdeaRequest) ([]models.VideoIdea, error)
}

type DiscussionSource interface {
	Search(ctx context.Context, topics []string) besteffort.Result[models.RedditPost]
}

// Backends builds or holds the upstream clients. Credentialed clients are built on
// first use per key.
type Backends struct {
	Videos      func(apiKey string) (VideoSource, error)
	Analyst     func(apiKey string) (Analyst, error)
	News        news.Source
	Discussions DiscussionSource
}

// DefaultBackends wires the production YouTube, Gemini, news and Reddit clients.
func DefaultBackends(cfg *config.Config) (Backends, error) {
	newsSource, err := news.New(&cfg.News, upstream.NewHTTPClient(config.UpstreamTimeout, ""))
	if err != nil {
		return Backends{}, fmt.Errorf("failed to create news client: %w", err)
	}

	aiConfig := cfg.AI
	return Backends{
		Videos: func(apiKey string) (VideoSource, error) {
			return youtube.NewClient(context.Background(), apiKey)
		},
		Analyst: func(apiKey string) (Analyst, error) {
			gen, err := ai.NewGeminiGenerator(context.Background(), apiKey, ai.GeminiOptions{})
			if err != nil {
				return nil, err
			}
			return ai.NewAnalyzer(gen, &aiConfig), nil
		},
		News:        newsSource,
		Discussions: reddit.NewClient(&cfg.Reddit),
	}, nil
}

// Generator runs one channel analysis per call. It holds no per-request state.
type Generator struct {
	credentials config.Credentials
	videos      *clients.Registry[VideoSource]
	analysts    *clients.Registry[Analyst]
	news        news.Source
	discussions DiscussionSource
	monitor     *monitoring.Monitor
	timeout     time.Duration
}

func NewGenerator(creds config.Credentials, backends Backends, monitor *monitoring.Monitor) *Generator {
	return &Generator{
		credentials: creds,
		videos:      clients.NewRegistry(backends.Videos),
		analysts:    clients.NewRegistry(backends.Analyst),
		news:        backends.News,
		discussions: backends.Discussions,
		monitor:     monitor,
		timeout:     config.RequestTimeout,
	}
}

func (g *Generator) Name() string {
	return "Idea Generator"
}

// Analyze turns a channel URL into video ideas. Failures are *apierr.Error values whose
// kind decides the response status.
func (g *Generator) Analyze(ctx context.Context, rawURL string) (*models.AnalysisResult, error) {
	startTime := time.Now()

	result, err := g.analyze(ctx, rawURL)
	if err != nil {
		kind := apierr.KindOf(err)
		if kind == apierr.KindValidation {
			g.monitor.RecordRejected(kind.String(), err)
		} else {
			g.monitor.RecordFailure(kind.String(), err, time.Since(startTime))
		}
		return nil, err
	}

	g.monitor.RecordSuccess(result.Summary(), time.Since(startTime))
	return result, nil
}

func (g *Generator) analyze(ctx context.Context, rawURL string) (*models.AnalysisResult, error) {
	logStage(StageReceived, "url=%q", rawURL)

	input := strings.TrimSpace(rawURL)
	if input == "" {
		return nil, apierr.New(apierr.KindValidation, "URL cannot be empty")
	}

	identifier, ok := NormalizeChannelURL(input)
	if !ok {
		return nil, &apierr.Error{Kind: apierr.KindValidation, Message: "Invalid YouTube channel URL", Hint: SupportedURLHint}
	}

	if missing := g.credentials.Missing(); len(missing) > 0 {
		return nil, &apierr.Error{
			Kind:    apierr.KindConfiguration,
			Message: "API keys not configured",
			Missing: missing,
			Hint:    credentialsHint,
		}
	}
	logStage(StageValidated, "channel=%s news_key_set=%t", identifier, g.credentials.NewsAPIKey != "")

	videos, err := g.videos.Get(g.credentials.YouTubeAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}
	analyst, err := g.analysts.Get(g.credentials.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	stageStart := time.Now()
	channel, err := videos.FetchChannel(ctx, identifier)
	if err != nil {
		return nil, deadline(ctx, err)
	}
	g.monitor.ObserveStage(string(StageChannelResolved), time.Since(stageStart))
	logStage(StageChannelResolved, "%s (%s), %d videos", channel.ChannelName, channel.ChannelID, len(channel.Videos))

	stageStart = time.Now()
	topics, err := analyst.AnalyzeTopics(ctx, channel.Videos)
	if err != nil {
		return nil, deadline(ctx, err)
	}
	g.monitor.ObserveStage(string(StageTopicsAnalyzed), time.Since(stageStart))
	logStage(StageTopicsAnalyzed, "%d topics", len(topics.MainTopics))

	stageStart = time.Now()
	articles, posts := g.fetchAuxiliary(ctx, topics.MainTopics)
	if err := ctx.Err(); err != nil {
		return nil, deadline(ctx, err)
	}
	g.monitor.ObserveStage(string(StageAuxiliaryFetched), time.Since(stageStart))
	logStage(StageAuxiliaryFetched, "%d news, %d reddit posts", len(articles), len(posts))

	stageStart = time.Now()
	ideas, err := analyst.GenerateIdeas(ctx, ai.IdeaRequest{
		ChannelName:  channel.ChannelName,
		Topics:       topics,
		RecentTitles: channel.Titles(),
		News:         articles,
		Posts:        posts,
	})
	if err != nil {
		return nil, deadline(ctx, err)
	}
	g.monitor.ObserveStage(string(StageIdeasGenerated), time.Since(stageStart))
	logStage(StageIdeasGenerated, "%d ideas", len(ideas))

	return &models.AnalysisResult{
		ChannelInfo: channel,
		Topics:      topics,
		News:        articles,
		RedditPosts: posts,
		VideoIdeas:  ideas,
	}, nil
}

// fetchAuxiliary runs the news and Reddit lookups concurrently and waits for both.
// Neither can fail the request.
func (g *Generator) fetchAuxiliary(ctx context.Context, topics []string) ([]models.NewsArticle, []models.RedditPost) {
	var (
		newsResult   besteffort.Result[models.NewsArticle]
		redditResult besteffort.Result[models.RedditPost]
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		newsResult = g.news.Fetch(egCtx, topics)
		return nil
	})
	eg.Go(func() error {
		redditResult = g.discussions.Search(egCtx, topics)
		return nil
	})
	_ = eg.Wait()

	if reason := newsResult.Degraded(); reason != nil {
		g.monitor.RecordDegraded("news", reason)
	}
	if reason := redditResult.Degraded(); reason != nil {
		g.monitor.RecordDegraded("reddit", reason)
	}

	return newsResult.Items(), redditResult.Items()
}

// deadline reports err as a request timeout when the request deadline has fired.
func deadline(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &apierr.Error{Kind: apierr.KindTimeout, Message: "Request timed out", Err: err}
	}
	return err
}

func logStage(stage Stage, format string, args ...any) {
	log.Printf("[%s] %s", stage, fmt.Sprintf(format, args...))
}
