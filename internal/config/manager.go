package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"trends-go/pkg/collector"
	"trends-go/pkg/trends"
)

const EnvPrefix = "TRENDS"

type manager struct {
	mu      sync.Mutex
	viper   *viper.Viper
	envFile string
}

// NewManager creates a manager that reads envFile (if present) before
// resolving environment overrides. Pass "" to skip the .env file.
func NewManager(envFile string) Manager {
	return &manager{
		viper:   viper.New(),
		envFile: envFile,
	}
}

// BindFlag lets a command-line flag override a config key.
func BindFlag(m Manager, key string, flag *pflag.Flag) error {
	mgr, ok := m.(*manager)
	if !ok || flag == nil {
		return fmt.Errorf("cannot bind flag for %s", key)
	}
	return mgr.viper.BindPFlag(key, flag)
}

// Load resolves defaults, the optional config file, .env and environment
// variables, in increasing order of precedence. A configPath that does not
// exist is not an error.
func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.envFile != "" {
		if err := godotenv.Load(m.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", m.envFile, err)
		}
	}

	m.setupViper()

	if configPath != "" {
		m.viper.SetConfigFile(configPath)
		if err := m.viper.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Keywords = cleanKeywords(config.Keywords)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func (m *manager) setupViper() {
	setDefaults(m.viper)

	m.viper.SetEnvPrefix(EnvPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()
}

func setDefaults(v *viper.Viper) {
	d := collector.DefaultConfig()

	regions := make([]map[string]interface{}, 0, len(d.Regions))
	for _, r := range d.Regions {
		regions = append(regions, map[string]interface{}{"code": r.Code, "trending_feed": r.TrendingFeed})
	}

	v.SetDefault("output_path", "trends.json")
	v.SetDefault("timeframe", d.Timeframe)
	v.SetDefault("language", "en-US")
	v.SetDefault("tz_offset", 360)
	v.SetDefault("keywords", d.Keywords)
	v.SetDefault("regions", regions)
	v.SetDefault("related_limit", d.RelatedLimit)
	v.SetDefault("suggestion_limit", d.SuggestionLimit)
	v.SetDefault("trending_limit", d.TrendingLimit)
	v.SetDefault("fetch_trending", d.FetchTrending)
	v.SetDefault("call_delay", d.CallDelay)
	v.SetDefault("keyword_delay", d.KeywordDelay)
	v.SetDefault("client.base_url", trends.DefaultBaseURL)
	v.SetDefault("client.user_agent", trends.DefaultUserAgent)
	v.SetDefault("client.request_timeout", trends.DefaultConnectionConfig().RequestTimeout)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("logger.time_format", "")
	v.SetDefault("report.preview", 5)
	v.SetDefault("report.color", true)
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Sprintf("config defaults do not decode: %v", err))
	}
	return &config
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err)
}

// cleanKeywords trims keywords and drops blanks and repeats, keeping the
// first occurrence.
func cleanKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

func validateConfig(config *Config) error {
	if config.OutputPath == "" {
		return fmt.Errorf("output_path cannot be empty")
	}

	if len(config.Keywords) == 0 {
		return fmt.Errorf("at least one keyword is required")
	}

	if len(config.Regions) == 0 {
		return fmt.Errorf("at least one region is required")
	}
	seen := make(map[string]bool, len(config.Regions))
	for _, r := range config.Regions {
		if r.Code == "" {
			return fmt.Errorf("region code cannot be empty")
		}
		if seen[r.Code] {
			return fmt.Errorf("duplicate region %s", r.Code)
		}
		seen[r.Code] = true
	}

	if config.Timeframe == "" {
		return fmt.Errorf("timeframe cannot be empty")
	}

	if _, err := language.Parse(config.Language); err != nil {
		return fmt.Errorf("invalid language %q: %w", config.Language, err)
	}

	if config.RelatedLimit <= 0 || config.SuggestionLimit <= 0 || config.TrendingLimit <= 0 {
		return fmt.Errorf("list limits must be positive")
	}

	if config.CallDelay < 0 || config.KeywordDelay < 0 {
		return fmt.Errorf("delays cannot be negative")
	}

	return nil
}
