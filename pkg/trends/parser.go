package trends

import (
	"bytes"
	"encoding/json"
	"fmt"

	"trends-go/pkg/extractor"
)

// Column layouts of the tables built from ranked keyword lists.
var (
	queryColumns = []string{"query", "value", "formattedValue", "hasData", "link"}
	topicColumns = []string{"value", "formattedValue", "hasData", "link", "topic_mid", "topic_title", "topic_type"}
)

const (
	widgetRelatedQueries = "RELATED_QUERIES"
	widgetRelatedTopics  = "RELATED_TOPICS"
)

// Widget is one entry of the explore response. Request is kept raw because it
// is sent back verbatim when the widget data is fetched.
type Widget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type exploreResponse struct {
	Widgets []Widget `json:"widgets"`
}

type rankedResponse struct {
	Default *struct {
		RankedList []struct {
			RankedKeyword []json.RawMessage `json:"rankedKeyword"`
		} `json:"rankedList"`
	} `json:"default"`
}

type rankedKeyword struct {
	Query          *string `json:"query"`
	Value          any     `json:"value"`
	FormattedValue *string `json:"formattedValue"`
	HasData        *bool   `json:"hasData"`
	Link           *string `json:"link"`
	Topic          *struct {
		Mid   *string `json:"mid"`
		Title *string `json:"title"`
		Type  *string `json:"type"`
	} `json:"topic"`
}

type widgetKeywordRequest struct {
	Restriction struct {
		ComplexKeywordsRestriction struct {
			Keyword []struct {
				Value string `json:"value"`
			} `json:"keyword"`
		} `json:"complexKeywordsRestriction"`
	} `json:"restriction"`
}

type autocompleteResponse struct {
	Default *struct {
		Topics json.RawMessage `json:"topics"`
	} `json:"default"`
}

// Parser decodes Trends payloads into plain records. Anything that does not
// match the expected shape is dropped rather than failing the whole payload.
type Parser struct{}

// NewParser creates a Trends response parser
func NewParser() *Parser {
	return &Parser{}
}

// StripPrefix removes the ")]}'" anti-JSON-hijacking line Trends puts in
// front of most bodies.
func StripPrefix(body []byte) []byte {
	body = bytes.TrimSpace(body)
	if !bytes.HasPrefix(body, []byte(")]}'")) {
		return body
	}
	body = body[len(")]}'"):]
	body = bytes.TrimPrefix(body, []byte(","))
	return bytes.TrimSpace(body)
}

func (p *Parser) decode(body []byte, dest any) error {
	body = StripPrefix(body)
	if len(body) == 0 {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("failed to decode trends response: %w (response: %s)", err, string(body[:min(len(body), 200)]))
	}
	return nil
}

// ParseExplore returns the widgets of an explore response.
func (p *Parser) ParseExplore(body []byte) ([]Widget, error) {
	var resp exploreResponse
	if err := p.decode(body, &resp); err != nil {
		return nil, err
	}
	if resp.Widgets == nil {
		return nil, fmt.Errorf("%w: explore response has no widgets", ErrMalformed)
	}
	return resp.Widgets, nil
}

// ParseRanked builds the top and rising tables of a relatedsearches response.
// rankedList[0] is top and rankedList[1] is rising; a missing list yields a
// nil table.
func (p *Parser) ParseRanked(body []byte, topics bool) (*RankedTables, error) {
	var resp rankedResponse
	if err := p.decode(body, &resp); err != nil {
		return nil, err
	}
	if resp.Default == nil {
		return nil, fmt.Errorf("%w: relatedsearches response has no default block", ErrMalformed)
	}

	out := &RankedTables{}
	lists := resp.Default.RankedList
	if len(lists) > 0 {
		out.Top = p.rankedTable(lists[0].RankedKeyword, topics)
	}
	if len(lists) > 1 {
		out.Rising = p.rankedTable(lists[1].RankedKeyword, topics)
	}
	return out, nil
}

func (p *Parser) rankedTable(items []json.RawMessage, topics bool) *extractor.Table {
	if len(items) == 0 {
		return nil
	}

	columns := queryColumns
	if topics {
		columns = topicColumns
	}
	table := extractor.NewTable(columns...)

	for _, raw := range items {
		var kw rankedKeyword
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&kw); err != nil {
			continue
		}
		if topics {
			var mid, title, typ any
			if kw.Topic != nil {
				mid, title, typ = deref(kw.Topic.Mid), deref(kw.Topic.Title), deref(kw.Topic.Type)
			}
			table.AddRow(kw.Value, deref(kw.FormattedValue), derefBool(kw.HasData), deref(kw.Link), mid, title, typ)
			continue
		}
		table.AddRow(deref(kw.Query), kw.Value, deref(kw.FormattedValue), derefBool(kw.HasData), deref(kw.Link))
	}
	return table
}

// WidgetKeyword returns the keyword a widget request was issued for, or "".
func (p *Parser) WidgetKeyword(w Widget) string {
	var req widgetKeywordRequest
	if err := json.Unmarshal(w.Request, &req); err != nil {
		return ""
	}
	kws := req.Restriction.ComplexKeywordsRestriction.Keyword
	if len(kws) == 0 {
		return ""
	}
	return kws[0].Value
}

// ParseSuggestions accepts "topics" as a list of records or a single record.
// Records that fail to decode or carry no title are skipped.
func (p *Parser) ParseSuggestions(body []byte) ([]Suggestion, error) {
	var resp autocompleteResponse
	if err := p.decode(body, &resp); err != nil {
		return nil, err
	}
	if resp.Default == nil {
		return nil, fmt.Errorf("%w: autocomplete response has no default block", ErrMalformed)
	}

	topics := bytes.TrimSpace(resp.Default.Topics)
	out := []Suggestion{}
	switch {
	case len(topics) == 0 || bytes.Equal(topics, []byte("null")):
		return out, nil
	case topics[0] == '{':
		var s Suggestion
		if err := json.Unmarshal(topics, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if s.Title != "" {
			out = append(out, s)
		}
		return out, nil
	case topics[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(topics, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		for _, raw := range items {
			var s Suggestion
			if err := json.Unmarshal(raw, &s); err != nil || s.Title == "" {
				continue
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unexpected topics value", ErrMalformed)
}

// ParseTrending returns the single-column table of trending searches for feed.
func (p *Parser) ParseTrending(body []byte, feed string) (*extractor.Table, error) {
	var resp map[string]json.RawMessage
	if err := p.decode(body, &resp); err != nil {
		return nil, err
	}
	raw, ok := resp[feed]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFeedNotFound, feed)
	}

	var items []any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: feed %s: %v", ErrMalformed, feed, err)
	}

	table := extractor.NewTable("title")
	for _, item := range items {
		table.AddRow(item)
	}
	return table, nil
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func derefBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
