package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Fixed caps and budgets. These are not user-configurable at runtime.
const (
	MaxVideos              = 10
	MaxTopics              = 7
	MaxNewsArticles        = 10
	MaxRedditPosts         = 10
	MaxVideoIdeas          = 5
	DescriptionMaxLength   = 500
	RedditContentMaxLength = 200
	NewsContentMaxLength   = 200
	SummaryLength          = 150
	AuxiliaryTopicCount    = 3

	NewsWindow      = 7 * 24 * time.Hour
	RequestTimeout  = 60 * time.Second
	UpstreamTimeout = 30 * time.Second
)

// Environment variable names for provider credentials.
const (
	EnvYouTubeAPIKey      = "YOUTUBE_API_KEY"
	EnvGeminiAPIKey       = "GEMINI_API_KEY"
	EnvNewsAPIKey         = "NEWS_API_KEY"
	EnvRedditClientID     = "REDDIT_CLIENT_ID"
	EnvRedditClientSecret = "REDDIT_CLIENT_SECRET"
)

const (
	NewsProviderNewsAPI = "newsapi"
	NewsProviderRSS     = "rss"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	YouTube YouTubeConfig `yaml:"youtube"`
	AI      AIConfig      `yaml:"ai"`
	News    NewsConfig    `yaml:"news"`
	Reddit  RedditConfig  `yaml:"reddit"`
	Storage StorageConfig `yaml:"storage"`
}

type ServerConfig struct {
	Port int `yaml:"port" env:"PORT"`
}

type YouTubeConfig struct {
	APIKey string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	TopicModel   string `yaml:"topic_model"`
	IdeaModel    string `yaml:"idea_model"`
}

type NewsConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key" env:"NEWS_API_KEY"`
	// FeedURL is a search feed template for the rss provider; %s receives the escaped query.
	FeedURL string `yaml:"feed_url"`
}

type RedditConfig struct {
	ClientID     string `yaml:"client_id" env:"REDDIT_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"REDDIT_CLIENT_SECRET"`
	UserAgent    string `yaml:"user_agent"`
}

type StorageConfig struct {
	SnapshotFile string `yaml:"snapshot_file"`
}

// Credentials is the set of provider keys an analysis needs.
type Credentials struct {
	YouTubeAPIKey string
	GeminiAPIKey  string
	NewsAPIKey    string
}

// Missing lists the environment names of required credentials that are empty.
func (c Credentials) Missing() []string {
	var missing []string
	if c.YouTubeAPIKey == "" {
		missing = append(missing, EnvYouTubeAPIKey)
	}
	if c.GeminiAPIKey == "" {
		missing = append(missing, EnvGeminiAPIKey)
	}
	return missing
}

func (c *Config) Credentials() Credentials {
	return Credentials{
		YouTubeAPIKey: c.YouTube.APIKey,
		GeminiAPIKey:  c.AI.GeminiAPIKey,
		NewsAPIKey:    c.News.APIKey,
	}
}

// Load reads .env, the optional YAML config file and the environment.
// Missing provider credentials are not a load error; they are reported per request.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Environment-only configuration
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = os.Getenv(EnvYouTubeAPIKey)
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv(EnvGeminiAPIKey)
	}
	if c.News.APIKey == "" {
		c.News.APIKey = os.Getenv(EnvNewsAPIKey)
	}
	if c.Reddit.ClientID == "" {
		c.Reddit.ClientID = os.Getenv(EnvRedditClientID)
	}
	if c.Reddit.ClientSecret == "" {
		c.Reddit.ClientSecret = os.Getenv(EnvRedditClientSecret)
	}
	if port := os.Getenv("PORT"); port != "" && c.Server.Port == 0 {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Server.Port = p
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.AI.TopicModel == "" {
		c.AI.TopicModel = "gemini-2.5-flash"
	}
	if c.AI.IdeaModel == "" {
		c.AI.IdeaModel = "gemini-2.5-pro"
	}
	if c.News.Provider == "" {
		c.News.Provider = NewsProviderNewsAPI
	}
	if c.News.Provider == NewsProviderRSS && c.News.FeedURL == "" {
		c.News.FeedURL = "https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en"
	}
	if c.Reddit.UserAgent == "" {
		c.Reddit.UserAgent = "idea-stack/1.0"
	}
	if c.Storage.SnapshotFile == "" {
		c.Storage.SnapshotFile = "data/last_analysis.json"
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}
	switch c.News.Provider {
	case NewsProviderNewsAPI, NewsProviderRSS:
	default:
		return fmt.Errorf("unknown news provider %q (use %s or %s)", c.News.Provider, NewsProviderNewsAPI, NewsProviderRSS)
	}
	if (c.Reddit.ClientID == "") != (c.Reddit.ClientSecret == "") {
		return fmt.Errorf("Reddit client ID and secret must be set together (set REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET)")
	}
	return nil
}
