// Package collector drives the keyword × region fetch matrix and assembles
// the trends document.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trends-go/pkg/extractor"
	"trends-go/pkg/logger"
	"trends-go/pkg/storage"
	"trends-go/pkg/trends"
)

// Operation names one kind of remote call.
type Operation string

const (
	OpConnect        Operation = "connect"
	OpRelatedQueries Operation = "related_queries"
	OpRelatedTopics  Operation = "related_topics"
	OpSuggestions    Operation = "suggestions"
	OpTrending       Operation = "trending_searches"
)

// Failure records one remote call that contributed no data.
type Failure struct {
	Keyword   string      `json:"keyword,omitempty"`
	Region    string      `json:"region,omitempty"`
	Operation Operation   `json:"operation"`
	Kind      trends.Kind `json:"kind"`
	Reason    string      `json:"reason"`
}

// Stats summarizes a run. None of it feeds back into control flow.
type Stats struct {
	RunID     string
	Connected bool
	Keywords  int
	Items     int
	Failures  []Failure
	Duration  time.Duration
}

// Option customizes a Collector
type Option func(*Collector)

// WithPacer replaces the sleeping pacer
func WithPacer(p Pacer) Option {
	return func(c *Collector) { c.pacer = p }
}

// WithLogger replaces the global logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Collector) { c.baseLog = l }
}

// WithClock replaces time.Now for the document timestamp
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// Collector fetches every configured signal one call at a time.
type Collector struct {
	cfg       Config
	connector trends.Connector
	pacer     Pacer
	now       func() time.Time
	baseLog   *logger.Logger
	log       *logger.Logger
}

// New creates a collector. connector may be nil, in which case Run produces
// an empty document. Repeated keywords are fetched once.
func New(cfg Config, connector trends.Connector, opts ...Option) *Collector {
	cfg.Keywords = uniqueKeywords(cfg.Keywords)
	c := &Collector{
		cfg:       cfg,
		connector: connector,
		pacer:     SleepPacer{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseLog == nil {
		c.baseLog = logger.GetLogger()
	}
	c.log = c.baseLog.WithField("component", "collector")
	return c
}

// Run fetches everything and returns the document plus run stats. It never
// fails: every call that errors leaves its lists empty and is recorded in
// Stats.Failures.
func (c *Collector) Run(ctx context.Context) (*storage.Document, Stats) {
	began := time.Now()
	stats := Stats{RunID: uuid.NewString(), Keywords: len(c.cfg.Keywords)}
	log := c.log.WithField("run_id", stats.RunID)

	doc := storage.NewDocument(c.now(), c.cfg.Timeframe, c.cfg.Keywords, c.cfg.regionCodes())

	client, err := c.connect(ctx)
	if err != nil {
		stats.Failures = append(stats.Failures, newFailure("", "", OpConnect, err))
		log.WithError(err).Warn("Trends client unavailable, writing empty document")
		stats.Duration = time.Since(began)
		return doc, stats
	}
	stats.Connected = true

	run := &run{Collector: c, client: client, doc: doc, stats: &stats, log: log}
	run.fetchTrending(ctx)

	progress := logger.NewProgressReporter(log, len(c.cfg.Keywords), "Keywords processed", c.cfg.ProgressEvery)
	for _, kw := range c.cfg.Keywords {
		run.fetchKeyword(ctx, kw)
		progress.Update(1)
		c.pacer.Pause(c.cfg.KeywordDelay)
	}

	stats.Items = doc.ItemCount()
	stats.Duration = time.Since(began)
	log.WithFields(map[string]interface{}{
		"keywords": stats.Keywords,
		"items":    stats.Items,
		"failures": len(stats.Failures),
		"duration": stats.Duration.String(),
	}).Info("Trends collection completed")
	return doc, stats
}

func (c *Collector) connect(ctx context.Context) (trends.Client, error) {
	if c.connector == nil {
		return nil, fmt.Errorf("no trends client configured")
	}
	client, err := call(func() (trends.Client, error) { return c.connector.Connect(ctx) })
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("trends connector returned no client")
	}
	return client, nil
}

// run carries the state of a single Run.
type run struct {
	*Collector
	client trends.Client
	doc    *storage.Document
	stats  *Stats
	log    *logger.Logger
}

func (r *run) fetchTrending(ctx context.Context) {
	if !r.cfg.FetchTrending {
		return
	}
	for _, region := range r.cfg.Regions {
		if region.TrendingFeed == "" {
			continue
		}
		table, err := call(func() (*extractor.Table, error) {
			return r.client.TrendingSearches(ctx, region.TrendingFeed)
		})
		if err != nil {
			r.fail("", region.Code, OpTrending, err)
		} else {
			r.doc.TrendingSearches[region.Code] = extractor.ExtractColumn(table, "", r.cfg.TrendingLimit)
		}
		r.pacer.Pause(r.cfg.CallDelay)
	}
}

func (r *run) fetchKeyword(ctx context.Context, kw string) {
	rec := r.doc.Terms[kw]

	for _, region := range r.cfg.Regions {
		signals := rec.Regions[region.Code]

		rising, top, err := r.fetchRanked(ctx, kw, region.Code, OpRelatedQueries)
		if err != nil {
			r.fail(kw, region.Code, OpRelatedQueries, err)
		} else {
			signals.Rising, signals.Top = rising, top
		}

		rising, top, err = r.fetchRanked(ctx, kw, region.Code, OpRelatedTopics)
		if err != nil {
			r.fail(kw, region.Code, OpRelatedTopics, err)
		} else {
			signals.TopicsRising, signals.TopicsTop = rising, top
		}

		r.pacer.Pause(r.cfg.CallDelay)
	}

	suggestions, err := r.fetchSuggestions(ctx, kw)
	if err != nil {
		r.fail(kw, "", OpSuggestions, err)
		return
	}
	rec.Suggestions = suggestions
}

// fetchRanked scopes the client to (kw, geo) and reads one ranked widget.
// A keyword missing from the response is not an error: the lists stay empty.
func (r *run) fetchRanked(ctx context.Context, kw, geo string, op Operation) (rising, top []string, err error) {
	tables, err := call(func() (map[string]*trends.RankedTables, error) {
		if err := r.client.BuildPayload(ctx, []string{kw}, r.cfg.Timeframe, geo); err != nil {
			return nil, fmt.Errorf("build payload: %w", err)
		}
		if op == OpRelatedTopics {
			return r.client.RelatedTopics(ctx)
		}
		return r.client.RelatedQueries(ctx)
	})
	if err != nil {
		return nil, nil, err
	}

	preferred := ""
	if op == OpRelatedTopics {
		preferred = "topic_title"
	}
	ranked := tables[kw]
	if ranked == nil {
		return []string{}, []string{}, nil
	}
	return extractor.ExtractColumn(ranked.Rising, preferred, r.cfg.RelatedLimit),
		extractor.ExtractColumn(ranked.Top, preferred, r.cfg.RelatedLimit),
		nil
}

func (r *run) fetchSuggestions(ctx context.Context, kw string) ([]string, error) {
	suggestions, err := call(func() ([]trends.Suggestion, error) {
		return r.client.Suggestions(ctx, kw)
	})
	if err != nil {
		return nil, err
	}

	titles := extractor.NewTable("title")
	for _, s := range suggestions {
		titles.AddRow(nonEmpty(s.Title))
	}
	return extractor.ExtractColumn(titles, "title", r.cfg.SuggestionLimit), nil
}

func (r *run) fail(kw, region string, op Operation, err error) {
	f := newFailure(kw, region, op, err)
	r.stats.Failures = append(r.stats.Failures, f)
	r.log.WithFields(map[string]interface{}{
		"keyword":   kw,
		"region":    region,
		"operation": string(op),
		"kind":      string(f.Kind),
	}).WithError(err).Warn("Trends call failed")
}

func newFailure(kw, region string, op Operation, err error) Failure {
	return Failure{
		Keyword:   kw,
		Region:    region,
		Operation: op,
		Kind:      trends.Classify(err),
		Reason:    err.Error(),
	}
}

// call runs fn and turns a panic into a trends.PanicError.
func call[T any](fn func() (T, error)) (result T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero T
			result, err = zero, &trends.PanicError{Value: rec}
		}
	}()
	return fn()
}

func uniqueKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

func nonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
