package storage

import "time"

// RegionSignals holds the related queries and topics for one keyword in one region.
type RegionSignals struct {
	Rising       []string `json:"rising"`
	Top          []string `json:"top"`
	TopicsRising []string `json:"topics_rising"`
	TopicsTop    []string `json:"topics_top"`
}

// TermRecord is everything collected for one keyword.
type TermRecord struct {
	Regions     map[string]*RegionSignals `json:"regions"`
	Suggestions []string                  `json:"suggestions"`
}

// Document is the trends.json artifact.
type Document struct {
	GeneratedAt      time.Time              `json:"generated_at_utc"`
	Timeframe        string                 `json:"timeframe"`
	Keywords         []string               `json:"keywords"`
	Regions          []string               `json:"regions"`
	TrendingSearches map[string][]string    `json:"trending_searches"`
	Terms            map[string]*TermRecord `json:"terms"`
}

// NewDocument returns a document with an all-empty record for every keyword
// and region, so that the shape is complete before anything is fetched.
func NewDocument(generatedAt time.Time, timeframe string, keywords, regions []string) *Document {
	doc := &Document{
		GeneratedAt:      generatedAt.UTC(),
		Timeframe:        timeframe,
		Keywords:         append([]string{}, keywords...),
		Regions:          append([]string{}, regions...),
		TrendingSearches: make(map[string][]string, len(regions)),
		Terms:            make(map[string]*TermRecord, len(keywords)),
	}
	for _, region := range regions {
		doc.TrendingSearches[region] = []string{}
	}
	for _, kw := range keywords {
		doc.Terms[kw] = NewTermRecord(regions)
	}
	return doc
}

// NewTermRecord returns an empty record covering the given regions.
func NewTermRecord(regions []string) *TermRecord {
	rec := &TermRecord{
		Regions:     make(map[string]*RegionSignals, len(regions)),
		Suggestions: []string{},
	}
	for _, region := range regions {
		rec.Regions[region] = NewRegionSignals()
	}
	return rec
}

// NewRegionSignals returns signals with every list empty.
func NewRegionSignals() *RegionSignals {
	return &RegionSignals{
		Rising:       []string{},
		Top:          []string{},
		TopicsRising: []string{},
		TopicsTop:    []string{},
	}
}

// Normalize replaces nil lists and records with empty ones so the encoded
// document never contains null where a list is expected.
func (d *Document) Normalize() {
	if d.Keywords == nil {
		d.Keywords = []string{}
	}
	if d.Regions == nil {
		d.Regions = []string{}
	}
	if d.TrendingSearches == nil {
		d.TrendingSearches = map[string][]string{}
	}
	for _, region := range d.Regions {
		if d.TrendingSearches[region] == nil {
			d.TrendingSearches[region] = []string{}
		}
	}
	for region, list := range d.TrendingSearches {
		if list == nil {
			d.TrendingSearches[region] = []string{}
		}
	}
	if d.Terms == nil {
		d.Terms = map[string]*TermRecord{}
	}
	for _, kw := range d.Keywords {
		if d.Terms[kw] == nil {
			d.Terms[kw] = NewTermRecord(d.Regions)
		}
	}
	for kw, rec := range d.Terms {
		if rec == nil {
			d.Terms[kw] = NewTermRecord(d.Regions)
			continue
		}
		rec.normalize(d.Regions)
	}
}

func (r *TermRecord) normalize(regions []string) {
	if r.Suggestions == nil {
		r.Suggestions = []string{}
	}
	if r.Regions == nil {
		r.Regions = map[string]*RegionSignals{}
	}
	for _, region := range regions {
		if r.Regions[region] == nil {
			r.Regions[region] = NewRegionSignals()
		}
	}
	for region, sig := range r.Regions {
		if sig == nil {
			r.Regions[region] = NewRegionSignals()
			continue
		}
		sig.normalize()
	}
}

func (s *RegionSignals) normalize() {
	for _, list := range []*[]string{&s.Rising, &s.Top, &s.TopicsRising, &s.TopicsTop} {
		if *list == nil {
			*list = []string{}
		}
	}
}

// ItemCount sums the lengths of every list in the region.
func (s *RegionSignals) ItemCount() int {
	if s == nil {
		return 0
	}
	return len(s.Rising) + len(s.Top) + len(s.TopicsRising) + len(s.TopicsTop)
}

// ItemCount sums every list in the record across regions plus suggestions.
func (r *TermRecord) ItemCount() int {
	if r == nil {
		return 0
	}
	n := len(r.Suggestions)
	for _, sig := range r.Regions {
		n += sig.ItemCount()
	}
	return n
}

// ItemCount sums every list in the document.
func (d *Document) ItemCount() int {
	n := 0
	for _, list := range d.TrendingSearches {
		n += len(list)
	}
	for _, rec := range d.Terms {
		n += rec.ItemCount()
	}
	return n
}
