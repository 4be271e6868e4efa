// Package report prints a human-readable digest of a trends document.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"trends-go/pkg/storage"
)

// DefaultPreview is how many keywords are listed before truncating.
const DefaultPreview = 5

// KeywordCount is the number of items collected for one keyword.
type KeywordCount struct {
	Keyword string
	Items   int
}

// Reporter reads a document back and summarizes it.
type Reporter struct {
	preview int
	heading *color.Color
	warn    *color.Color
}

// NewReporter creates a reporter listing up to preview keywords.
func NewReporter(preview int, useColor bool) *Reporter {
	if preview <= 0 {
		preview = DefaultPreview
	}
	r := &Reporter{
		preview: preview,
		heading: color.New(color.Bold, color.FgCyan),
		warn:    color.New(color.FgYellow),
	}
	if useColor {
		r.heading.EnableColor()
		r.warn.EnableColor()
	} else {
		r.heading.DisableColor()
		r.warn.DisableColor()
	}
	return r
}

// Count returns per-keyword item counts in document keyword order.
func Count(doc *storage.Document) []KeywordCount {
	counts := make([]KeywordCount, 0, len(doc.Keywords))
	for _, kw := range doc.Keywords {
		counts = append(counts, KeywordCount{Keyword: kw, Items: doc.Terms[kw].ItemCount()})
	}
	return counts
}

// Print writes the digest of the document at path to w. A missing or
// unreadable document is reported on w, never returned.
func (r *Reporter) Print(w io.Writer, path string) {
	doc, err := storage.Read(path)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		r.warn.Fprintf(w, "No trends document at %s.\n", path)
		fmt.Fprintln(w, "Run the fetch first: trends-go")
		return
	case errors.Is(err, storage.ErrInvalid):
		r.warn.Fprintf(w, "Could not parse %s: %v\n", path, err)
		return
	case err != nil:
		r.warn.Fprintf(w, "Could not read %s: %v\n", path, err)
		return
	}

	r.heading.Fprintln(w, "Trends summary")
	fmt.Fprintf(w, "Generated at: %s\n", doc.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Keywords: %d\n", len(doc.Keywords))

	counts := Count(doc)
	for i, c := range counts {
		if i >= r.preview {
			break
		}
		fmt.Fprintf(w, "  - %s: %d items\n", c.Keyword, c.Items)
	}
	if len(counts) > r.preview {
		fmt.Fprintf(w, "  ...and %d more\n", len(counts)-r.preview)
	}

	for _, region := range doc.Regions {
		if n := len(doc.TrendingSearches[region]); n > 0 {
			fmt.Fprintf(w, "Trending searches %s: %d\n", region, n)
		}
	}
	fmt.Fprintf(w, "Total items: %d\n", doc.ItemCount())
}
