package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/text/language"

	"trends-go/pkg/extractor"
	"trends-go/pkg/logger"
)

const (
	DefaultBaseURL   = "https://trends.google.com"
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	cookieName       = "NID"
	explorePath      = "/trends/api/explore"
	relatedPath      = "/trends/api/widgetdata/relatedsearches"
	autocompletePath = "/trends/api/autocomplete/"
	trendingPath     = "/trends/hottrends/visualize/internal/data"
	handshakePath    = "/trends/explore/"

	maxHandshakeRedirects = 5
)

// Options configures an HTTPConnector.
type Options struct {
	BaseURL    string
	Language   string // host language, e.g. "en-US"
	TZOffset   int    // minutes west of UTC, as the Trends UI sends it
	UserAgent  string
	Connection ConnectionConfig
	Logger     *logger.Logger
}

// HTTPConnector opens sessions against the Trends web endpoints.
type HTTPConnector struct {
	opts   Options
	parser *Parser
	log    *logger.Logger
}

// NewHTTPConnector fills unset options with defaults.
func NewHTTPConnector(opts Options) *HTTPConnector {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Language == "" {
		opts.Language = "en-US"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Connection.RequestTimeout <= 0 {
		opts.Connection = DefaultConnectionConfig()
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	return &HTTPConnector{
		opts:   opts,
		parser: NewParser(),
		log:    log.WithField("component", "trends_client"),
	}
}

// Connect loads the Trends landing page to obtain the session cookie.
// Redirects are followed and an error status only costs the cookie; the
// handshake fails on transport errors alone.
func (c *HTTPConnector) Connect(ctx context.Context) (Client, error) {
	client := &httpClient{
		http:   newFastHTTPClient(c.opts.Connection),
		opts:   c.opts,
		parser: c.parser,
		log:    c.log,
	}

	if err := client.handshake(ctx, handshakeGeo(c.opts.Language)); err != nil {
		return nil, fmt.Errorf("trends handshake failed: %w", err)
	}
	if client.nid == "" {
		c.log.Debug("Handshake returned no session cookie")
	}

	c.log.WithField("base_url", c.opts.BaseURL).Debug("Connected to trends")
	return client, nil
}

// handshakeGeo returns the region part of the host language, "US" by default.
func handshakeGeo(hl string) string {
	tag, err := language.Parse(hl)
	if err != nil {
		return "US"
	}
	region, confidence := tag.Region()
	if confidence == language.No {
		return "US"
	}
	return region.String()
}

type scope struct {
	keywords []string
	widgets  []Widget
}

type httpClient struct {
	http   *fasthttp.Client
	opts   Options
	parser *Parser
	log    *logger.Logger
	nid    string
	scope  *scope
}

type response struct {
	status   int
	body     []byte
	cookie   string
	location string
}

// handshake follows the landing page through at most maxHandshakeRedirects
// hops, keeping the last NID cookie any hop sets.
func (c *httpClient) handshake(ctx context.Context, geo string) error {
	params := url.Values{}
	params.Set("geo", geo)
	target := c.opts.BaseURL + handshakePath + "?" + params.Encode()

	for hop := 0; hop <= maxHandshakeRedirects; hop++ {
		resp, err := c.roundTrip(ctx, fasthttp.MethodGet, target)
		if err != nil {
			return err
		}
		if resp.cookie != "" {
			c.nid = resp.cookie
		}

		if !fasthttp.StatusCodeIsRedirect(resp.status) || resp.location == "" {
			if resp.status < 200 || resp.status > 299 {
				c.log.WithField("status", resp.status).Warn("Trends landing page returned an error status")
			}
			return nil
		}

		next, err := resolveLocation(target, resp.location)
		if err != nil {
			c.log.WithError(err).Warn("Ignoring unusable handshake redirect")
			return nil
		}
		target = next
	}

	c.log.WithField("max_redirects", maxHandshakeRedirects).Warn("Too many handshake redirects")
	return nil
}

func resolveLocation(current, location string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func (c *httpClient) BuildPayload(ctx context.Context, keywords []string, timeframe, geo string) error {
	c.scope = nil
	if len(keywords) == 0 {
		return fmt.Errorf("no keywords provided")
	}

	items := make([]map[string]string, 0, len(keywords))
	for _, kw := range keywords {
		items = append(items, map[string]string{"keyword": kw, "time": timeframe, "geo": geo})
	}
	req, err := json.Marshal(map[string]any{
		"comparisonItem": items,
		"category":       0,
		"property":       "",
	})
	if err != nil {
		return fmt.Errorf("failed to encode explore request: %w", err)
	}

	params := c.baseParams()
	params.Set("req", string(req))
	resp, err := c.do(ctx, fasthttp.MethodPost, explorePath, params)
	if err != nil {
		return fmt.Errorf("explore request failed: %w", err)
	}
	widgets, err := c.parser.ParseExplore(resp.body)
	if err != nil {
		return err
	}

	c.scope = &scope{keywords: append([]string(nil), keywords...), widgets: widgets}
	c.log.WithFields(map[string]interface{}{
		"keywords": keywords,
		"geo":      geo,
		"widgets":  len(widgets),
	}).Debug("Query scope built")
	return nil
}

func (c *httpClient) RelatedQueries(ctx context.Context) (map[string]*RankedTables, error) {
	return c.related(ctx, widgetRelatedQueries, false)
}

func (c *httpClient) RelatedTopics(ctx context.Context) (map[string]*RankedTables, error) {
	return c.related(ctx, widgetRelatedTopics, true)
}

func (c *httpClient) related(ctx context.Context, kind string, topics bool) (map[string]*RankedTables, error) {
	if c.scope == nil {
		return nil, ErrNotScoped
	}

	out := make(map[string]*RankedTables)
	found := 0
	for _, w := range c.scope.widgets {
		if !strings.HasPrefix(w.ID, kind) {
			continue
		}
		keyword := c.parser.WidgetKeyword(w)
		if keyword == "" && found < len(c.scope.keywords) {
			keyword = c.scope.keywords[found]
		}
		found++

		params := c.baseParams()
		params.Set("req", string(w.Request))
		params.Set("token", w.Token)
		resp, err := c.do(ctx, fasthttp.MethodGet, relatedPath, params)
		if err != nil {
			return nil, fmt.Errorf("relatedsearches request failed: %w", err)
		}
		tables, err := c.parser.ParseRanked(resp.body, topics)
		if err != nil {
			return nil, err
		}
		out[keyword] = tables
	}
	if found == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoWidget, kind)
	}
	return out, nil
}

func (c *httpClient) Suggestions(ctx context.Context, keyword string) ([]Suggestion, error) {
	resp, err := c.do(ctx, fasthttp.MethodGet, autocompletePath+url.PathEscape(keyword), c.baseParams())
	if err != nil {
		return nil, fmt.Errorf("autocomplete request failed: %w", err)
	}
	return c.parser.ParseSuggestions(resp.body)
}

func (c *httpClient) TrendingSearches(ctx context.Context, feed string) (*extractor.Table, error) {
	resp, err := c.do(ctx, fasthttp.MethodGet, trendingPath, nil)
	if err != nil {
		return nil, fmt.Errorf("trending request failed: %w", err)
	}
	return c.parser.ParseTrending(resp.body, feed)
}

func (c *httpClient) baseParams() url.Values {
	params := url.Values{}
	params.Set("hl", c.opts.Language)
	params.Set("tz", strconv.Itoa(c.opts.TZOffset))
	return params
}

func (c *httpClient) do(ctx context.Context, method, path string, params url.Values) (*response, error) {
	uri := c.opts.BaseURL + path
	if len(params) > 0 {
		uri += "?" + params.Encode()
	}

	resp, err := c.roundTrip(ctx, method, uri)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.status < 200 || resp.status > 299 {
		return nil, &StatusError{Code: resp.status, Body: string(resp.body[:min(len(resp.body), 200)])}
	}
	return resp, nil
}

// roundTrip sends one request without following redirects or judging the
// status code.
func (c *httpClient) roundTrip(ctx context.Context, method, uri string) (*response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", c.opts.Language)
	if c.nid != "" {
		req.Header.SetCookie(cookieName, c.nid)
	}

	start := time.Now()
	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.http.DoDeadline(req, resp, deadline)
	} else {
		err = c.http.DoTimeout(req, resp, c.opts.Connection.RequestTimeout)
	}
	if err != nil {
		return nil, err
	}

	c.log.WithFields(map[string]interface{}{
		"uri":         uri,
		"status":      resp.StatusCode(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Trends request completed")

	out := &response{
		status:   resp.StatusCode(),
		body:     append([]byte(nil), resp.Body()...),
		location: string(resp.Header.Peek(fasthttp.HeaderLocation)),
	}
	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)
	cookie.SetKey(cookieName)
	if resp.Header.Cookie(cookie) {
		out.cookie = string(cookie.Value())
	}
	return out, nil
}
