package config

import (
	"time"

	"trends-go/pkg/collector"
	"trends-go/pkg/logger"
	"trends-go/pkg/trends"
)

type Config struct {
	OutputPath      string         `mapstructure:"output_path"`
	Timeframe       string         `mapstructure:"timeframe"`
	Language        string         `mapstructure:"language"`
	TZOffset        int            `mapstructure:"tz_offset"`
	Keywords        []string       `mapstructure:"keywords"`
	Regions         []RegionConfig `mapstructure:"regions"`
	RelatedLimit    int            `mapstructure:"related_limit"`
	SuggestionLimit int            `mapstructure:"suggestion_limit"`
	TrendingLimit   int            `mapstructure:"trending_limit"`
	FetchTrending   bool           `mapstructure:"fetch_trending"`
	CallDelay       time.Duration  `mapstructure:"call_delay"`
	KeywordDelay    time.Duration  `mapstructure:"keyword_delay"`
	Client          ClientConfig   `mapstructure:"client"`
	Logger          LoggerConfig   `mapstructure:"logger"`
	Report          ReportConfig   `mapstructure:"report"`
}

type RegionConfig struct {
	Code         string `mapstructure:"code"`
	TrendingFeed string `mapstructure:"trending_feed"`
}

type ClientConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	UserAgent      string        `mapstructure:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`
}

type ReportConfig struct {
	Preview int  `mapstructure:"preview"`
	Color   bool `mapstructure:"color"`
}

type Manager interface {
	Load(configPath string) (*Config, error)
}

// Collector converts the file/env settings into a collector configuration.
func (c *Config) Collector() collector.Config {
	cfg := collector.DefaultConfig()
	cfg.Keywords = append([]string(nil), c.Keywords...)
	cfg.Regions = make([]collector.Region, 0, len(c.Regions))
	for _, r := range c.Regions {
		cfg.Regions = append(cfg.Regions, collector.Region{Code: r.Code, TrendingFeed: r.TrendingFeed})
	}
	cfg.Timeframe = c.Timeframe
	cfg.RelatedLimit = c.RelatedLimit
	cfg.SuggestionLimit = c.SuggestionLimit
	cfg.TrendingLimit = c.TrendingLimit
	cfg.FetchTrending = c.FetchTrending
	cfg.CallDelay = c.CallDelay
	cfg.KeywordDelay = c.KeywordDelay
	return cfg
}

// TrendsOptions converts the client settings into connector options.
func (c *Config) TrendsOptions(log *logger.Logger) trends.Options {
	conn := trends.DefaultConnectionConfig()
	if c.Client.RequestTimeout > 0 {
		conn.RequestTimeout = c.Client.RequestTimeout
		conn.ReadTimeout = c.Client.RequestTimeout
		conn.WriteTimeout = c.Client.RequestTimeout
	}
	return trends.Options{
		BaseURL:    c.Client.BaseURL,
		Language:   c.Language,
		TZOffset:   c.TZOffset,
		UserAgent:  c.Client.UserAgent,
		Connection: conn,
		Logger:     log,
	}
}

// LoggerConfig converts the logging section for pkg/logger.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Logger.Level,
		Format:     c.Logger.Format,
		Output:     c.Logger.Output,
		TimeFormat: c.Logger.TimeFormat,
	}
}
