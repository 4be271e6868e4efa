package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trends-go/pkg/extractor"
	"trends-go/pkg/logger"
	"trends-go/pkg/storage"
	"trends-go/pkg/trends"
)

// fakeClient answers every keyword it was not told to fail for with rows
// named after the keyword, region and list.
type fakeClient struct {
	fail      map[string]bool
	rows      int
	panicOn   string
	scopeKW   string
	scopeGeo  string
	scopeCall int
}

func (f *fakeClient) BuildPayload(_ context.Context, keywords []string, timeframe, geo string) error {
	f.scopeCall++
	f.scopeKW, f.scopeGeo = "", ""
	if f.fail[keywords[0]] {
		return &trends.StatusError{Code: 429, Body: "slow down"}
	}
	if timeframe != "now 7-d" {
		return fmt.Errorf("unexpected timeframe %q", timeframe)
	}
	f.scopeKW, f.scopeGeo = keywords[0], geo
	return nil
}

func (f *fakeClient) ranked(column, prefix string) (map[string]*trends.RankedTables, error) {
	if f.scopeKW == "" {
		return nil, trends.ErrNotScoped
	}
	if f.panicOn == f.scopeKW+"/"+prefix {
		panic("client blew up")
	}
	build := func(list string) *extractor.Table {
		table := extractor.NewTable("value", column)
		for i := 0; i < f.rows; i++ {
			table.AddRow(i, fmt.Sprintf("%s %s %s %s %d", f.scopeKW, f.scopeGeo, prefix, list, i))
		}
		return table
	}
	return map[string]*trends.RankedTables{
		f.scopeKW: {Rising: build("rising"), Top: build("top")},
	}, nil
}

func (f *fakeClient) RelatedQueries(context.Context) (map[string]*trends.RankedTables, error) {
	return f.ranked("query", "q")
}

func (f *fakeClient) RelatedTopics(context.Context) (map[string]*trends.RankedTables, error) {
	return f.ranked("topic_title", "t")
}

func (f *fakeClient) Suggestions(_ context.Context, keyword string) ([]trends.Suggestion, error) {
	if f.fail[keyword] {
		return nil, errors.New("connection reset")
	}
	out := []trends.Suggestion{{Mid: "/m/untitled"}}
	for i := 0; i < f.rows; i++ {
		out = append(out, trends.Suggestion{Title: fmt.Sprintf("%s suggestion %d", keyword, i)})
	}
	return out, nil
}

func (f *fakeClient) TrendingSearches(_ context.Context, feed string) (*extractor.Table, error) {
	if f.fail[feed] {
		return nil, trends.ErrFeedNotFound
	}
	return extractor.NewTable("title").AddRow(feed + " #1").AddRow(feed + " #2"), nil
}

type recordingPacer struct {
	pauses []time.Duration
}

func (p *recordingPacer) Pause(d time.Duration) {
	p.pauses = append(p.pauses, d)
}

func testConfig(keywords ...string) Config {
	cfg := DefaultConfig()
	cfg.Keywords = keywords
	return cfg
}

func connectorFor(client trends.Client) trends.Connector {
	return trends.ConnectorFunc(func(context.Context) (trends.Client, error) { return client, nil })
}

func newTestCollector(cfg Config, connector trends.Connector, pacer Pacer) *Collector {
	fixed := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	return New(cfg, connector,
		WithPacer(pacer),
		WithLogger(logger.Nop()),
		WithClock(func() time.Time { return fixed }),
	)
}

func assertAllEmpty(t *testing.T, rec *storage.TermRecord) {
	t.Helper()
	require.NotNil(t, rec)
	assert.Empty(t, rec.Suggestions)
	assert.NotNil(t, rec.Suggestions)
	for region, sig := range rec.Regions {
		assert.Equal(t, 0, sig.ItemCount(), "region %s", region)
		assert.NotNil(t, sig.Rising)
		assert.NotNil(t, sig.TopicsTop)
	}
}

func TestRun_AllCallsSucceed(t *testing.T) {
	client := &fakeClient{rows: 3}
	doc, stats := newTestCollector(testConfig("react"), connectorFor(client), NoopPacer{}).Run(context.Background())

	require.True(t, stats.Connected)
	assert.Empty(t, stats.Failures)
	assert.Equal(t, time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC), doc.GeneratedAt)

	br := doc.Terms["react"].Regions["BR"]
	assert.Equal(t, []string{"react BR q rising 0", "react BR q rising 1", "react BR q rising 2"}, br.Rising)
	assert.Equal(t, "react BR q top 0", br.Top[0])
	assert.Equal(t, "react BR t rising 0", br.TopicsRising[0])
	assert.Equal(t, "react US t top 2", doc.Terms["react"].Regions["US"].TopicsTop[2])
	assert.Equal(t, []string{"react suggestion 0", "react suggestion 1", "react suggestion 2"}, doc.Terms["react"].Suggestions)
	assert.Equal(t, []string{"brazil #1", "brazil #2"}, doc.TrendingSearches["BR"])

	// 2 regions × 4 lists × 3 + 3 suggestions + 2 × 2 trending
	assert.Equal(t, 31, stats.Items)
	assert.Equal(t, doc.ItemCount(), stats.Items)
	assert.Equal(t, 4, client.scopeCall)
}

func TestRun_EveryCallFails(t *testing.T) {
	keywords := DefaultKeywords()
	fail := map[string]bool{"brazil": true, "united_states": true}
	for _, kw := range keywords {
		fail[kw] = true
	}

	doc, stats := newTestCollector(testConfig(keywords...), connectorFor(&fakeClient{fail: fail, rows: 5}), NoopPacer{}).
		Run(context.Background())

	assert.Equal(t, 0, stats.Items)
	assert.Equal(t, 15, stats.Keywords)
	assert.Equal(t, keywords, doc.Keywords)
	require.Len(t, doc.Terms, 15)
	for _, kw := range keywords {
		assertAllEmpty(t, doc.Terms[kw])
	}
	assert.Equal(t, []string{}, doc.TrendingSearches["US"])

	// per keyword: 2 regions × 2 ranked calls + suggestions; plus 2 trending feeds
	assert.Len(t, stats.Failures, 15*5+2)
	assert.Equal(t, "TRENDS_OK terms=15 total_items=0", storage.StatusLine(stats.Keywords, stats.Items))
}

func TestRun_FailureIsIsolatedPerKeyword(t *testing.T) {
	client := &fakeClient{rows: 2, fail: map[string]bool{"beta": true}}
	doc, stats := newTestCollector(testConfig("alpha", "beta", "gamma"), connectorFor(client), NoopPacer{}).
		Run(context.Background())

	for _, kw := range []string{"alpha", "gamma"} {
		rec := doc.Terms[kw]
		assert.Equal(t, []string{kw + " US q top 0", kw + " US q top 1"}, rec.Regions["US"].Top)
		assert.Len(t, rec.Suggestions, 2)
		for _, sig := range rec.Regions {
			for _, item := range append(append(sig.Rising, sig.Top...), append(sig.TopicsRising, sig.TopicsTop...)...) {
				assert.Contains(t, item, kw)
			}
		}
	}
	assertAllEmpty(t, doc.Terms["beta"])

	require.Len(t, stats.Failures, 5)
	for _, f := range stats.Failures {
		assert.Equal(t, "beta", f.Keyword)
	}
	assert.Equal(t, trends.KindStatus, stats.Failures[0].Kind)
	assert.Equal(t, OpRelatedQueries, stats.Failures[0].Operation)
	assert.Equal(t, "BR", stats.Failures[0].Region)
	assert.Equal(t, OpSuggestions, stats.Failures[4].Operation)
	assert.Equal(t, trends.KindNetwork, stats.Failures[4].Kind)
}

func TestRun_ListsAreCapped(t *testing.T) {
	cfg := testConfig("react")
	doc, _ := newTestCollector(cfg, connectorFor(&fakeClient{rows: 50}), NoopPacer{}).Run(context.Background())

	rec := doc.Terms["react"]
	for _, sig := range rec.Regions {
		assert.Len(t, sig.Rising, cfg.RelatedLimit)
		assert.Len(t, sig.Top, cfg.RelatedLimit)
		assert.Len(t, sig.TopicsRising, cfg.RelatedLimit)
		assert.Len(t, sig.TopicsTop, cfg.RelatedLimit)
	}
	assert.Len(t, rec.Suggestions, cfg.SuggestionLimit)
	assert.Equal(t, "react suggestion 0", rec.Suggestions[0])
}

func TestRun_ConnectFailureWritesEmptyDocument(t *testing.T) {
	connector := trends.ConnectorFunc(func(context.Context) (trends.Client, error) {
		return nil, fmt.Errorf("trends handshake failed: %w", &trends.StatusError{Code: 503})
	})
	pacer := &recordingPacer{}

	doc, stats := newTestCollector(testConfig("react", "go"), connector, pacer).Run(context.Background())

	assert.False(t, stats.Connected)
	assert.Equal(t, 0, stats.Items)
	assert.Equal(t, []string{"react", "go"}, doc.Keywords)
	assertAllEmpty(t, doc.Terms["react"])
	assertAllEmpty(t, doc.Terms["go"])
	require.Len(t, stats.Failures, 1)
	assert.Equal(t, OpConnect, stats.Failures[0].Operation)
	assert.Equal(t, trends.KindStatus, stats.Failures[0].Kind)
	assert.Empty(t, pacer.pauses, "no pacing when nothing is fetched")
}

func TestRun_NilConnector(t *testing.T) {
	doc, stats := newTestCollector(testConfig("react"), nil, NoopPacer{}).Run(context.Background())

	assert.False(t, stats.Connected)
	assertAllEmpty(t, doc.Terms["react"])
	require.Len(t, stats.Failures, 1)
	assert.Equal(t, trends.KindUnknown, stats.Failures[0].Kind)
}

func TestRun_PanicInClientIsIsolated(t *testing.T) {
	client := &fakeClient{rows: 1, panicOn: "react/t"}
	doc, stats := newTestCollector(testConfig("react"), connectorFor(client), NoopPacer{}).Run(context.Background())

	sig := doc.Terms["react"].Regions["BR"]
	assert.Len(t, sig.Rising, 1)
	assert.Empty(t, sig.TopicsRising)
	require.Len(t, stats.Failures, 2)
	assert.Equal(t, trends.KindPanic, stats.Failures[0].Kind)
	assert.Equal(t, OpRelatedTopics, stats.Failures[0].Operation)
}

func TestRun_FixedPacing(t *testing.T) {
	cfg := testConfig("alpha", "beta")
	pacer := &recordingPacer{}
	client := &fakeClient{rows: 1, fail: map[string]bool{"alpha": true}}

	newTestCollector(cfg, connectorFor(client), pacer).Run(context.Background())

	want := []time.Duration{
		cfg.CallDelay, cfg.CallDelay, // trending BR, US
		cfg.CallDelay, cfg.CallDelay, cfg.KeywordDelay, // alpha
		cfg.CallDelay, cfg.CallDelay, cfg.KeywordDelay, // beta
	}
	assert.Equal(t, want, pacer.pauses)
}

func TestRun_TrendingDisabled(t *testing.T) {
	cfg := testConfig("react")
	cfg.FetchTrending = false

	doc, stats := newTestCollector(cfg, connectorFor(&fakeClient{rows: 1}), NoopPacer{}).Run(context.Background())

	assert.Equal(t, []string{}, doc.TrendingSearches["BR"])
	assert.Equal(t, 9, stats.Items)
}

type missingKeywordClient struct{ fakeClient }

func (m *missingKeywordClient) RelatedQueries(context.Context) (map[string]*trends.RankedTables, error) {
	return map[string]*trends.RankedTables{"someone else": {}}, nil
}

func TestRun_KeywordAbsentFromResponse(t *testing.T) {
	client := &missingKeywordClient{fakeClient{rows: 1}}
	doc, stats := newTestCollector(testConfig("react"), connectorFor(client), NoopPacer{}).Run(context.Background())

	sig := doc.Terms["react"].Regions["US"]
	assert.Empty(t, sig.Rising)
	assert.NotNil(t, sig.Rising)
	assert.Len(t, sig.TopicsTop, 1)
	assert.Empty(t, stats.Failures)
}

func TestRun_RepeatedKeywordFetchedOnce(t *testing.T) {
	client := &fakeClient{rows: 1}
	doc, stats := newTestCollector(testConfig("react", "react"), connectorFor(client), NoopPacer{}).Run(context.Background())

	assert.Equal(t, []string{"react"}, doc.Keywords)
	assert.Len(t, doc.Terms, 1)
	assert.Equal(t, 1, stats.Keywords)
	assert.Equal(t, 4, client.scopeCall)
	assert.Equal(t, "TRENDS_OK terms=1 total_items=13", storage.StatusLine(stats.Keywords, stats.Items))
}
