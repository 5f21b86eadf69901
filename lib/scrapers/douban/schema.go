package douban

import "regexp"

// extraction schemas are versioned so a markup change on the site shows
// up as a localized parser-test failure instead of silent data loss.
// fields list selectors in fallback order.
type collectionSchema struct {
	version string

	// item containers, first selector with any matches wins
	items []string
	// title text, then attribute fallback on the title anchor
	titleText []string
	titleAttr struct {
		selector string
		attr     string
	}
	// element whose class encodes the star rating
	rating string
	// date container, narrowed by datePattern
	date []string
	// free-text commentary
	comment []string
}

var collectV1 = func() collectionSchema {
	s := collectionSchema{
		version:   "collect/v1",
		items:     []string{"li.subject-item", "div.grid-view div.item", "ul.list-view > li"},
		titleText: []string{"h2 a", "li.title a em", ".title a"},
		rating:    "[class*=rating]",
		date:      []string{"span.date", ".date"},
		comment:   []string{"p.comment", "span.comment", ".comment"},
	}
	s.titleAttr.selector = "h2 a, .title a"
	s.titleAttr.attr = "title"
	return s
}()

var (
	// star ratings are encoded as css class tokens like "rating4-t"
	ratingClassPattern = regexp.MustCompile(`rating([1-5])-t`)
	datePattern        = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	// trailing parenthesized count in the page <title>, both ascii and
	// full-width parentheses occur
	declaredTotalPattern = regexp.MustCompile(`[(（](\d+)[)）]\s*$`)
)

// verb suffixes the site appends to the display name in collection page
// titles, stripped to recover the name hint.
var nameHintSuffixes = []string{
	"读过的书",
	"看过的电影",
	"听过的唱片",
	"读过",
	"看过",
	"听过",
	"'s books",
	"'s movies",
	"'s music",
}
