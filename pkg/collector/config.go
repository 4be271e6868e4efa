package collector

import "time"

// Region is a geographic scope. TrendingFeed names the region in the daily
// trending feed ("brazil"); empty means the region has no trending fetch.
type Region struct {
	Code         string
	TrendingFeed string
}

// Config is everything a run needs; nothing is read from package state.
type Config struct {
	Keywords        []string
	Regions         []Region
	Timeframe       string
	RelatedLimit    int
	SuggestionLimit int
	TrendingLimit   int
	FetchTrending   bool
	CallDelay       time.Duration
	KeywordDelay    time.Duration
	ProgressEvery   time.Duration
}

// DefaultConfig mirrors the production keyword list and pacing.
func DefaultConfig() Config {
	return Config{
		Keywords: DefaultKeywords(),
		Regions: []Region{
			{Code: "BR", TrendingFeed: "brazil"},
			{Code: "US", TrendingFeed: "united_states"},
		},
		Timeframe:       "now 7-d",
		RelatedLimit:    20,
		SuggestionLimit: 15,
		TrendingLimit:   20,
		FetchTrending:   true,
		CallDelay:       500 * time.Millisecond,
		KeywordDelay:    300 * time.Millisecond,
		ProgressEvery:   30 * time.Second,
	}
}

// DefaultKeywords returns the technology and career terms tracked by default.
func DefaultKeywords() []string {
	return []string{
		"frontend", "javascript", "react", "typescript",
		"remote work", "software engineer", "developer",
		"english interview", "system design", "web performance",
		"design system", "job interview", "tech career",
		"coding interview", "career change",
	}
}

func (c Config) regionCodes() []string {
	codes := make([]string, 0, len(c.Regions))
	for _, r := range c.Regions {
		codes = append(codes, r.Code)
	}
	return codes
}
