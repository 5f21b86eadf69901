package taste

import "tastecard-backend/lib/scrapers/douban"

// SampledCategory is the bounded selection of one category's items.
type SampledCategory struct {
	Items []douban.WorkItem `json:"items"`
	// RealCount is the declared total the site reports, which may
	// exceed what was reachable or parseable.
	RealCount int    `json:"real_count"`
	NameHint  string `json:"name_hint,omitempty"`
	// LowConfidenceTotal marks a category whose declared total could
	// not be read from the page, so pagination fell back to a single
	// page and RealCount is a floor, not a total.
	LowConfidenceTotal bool `json:"low_confidence_total,omitempty"`
}

// Review is a long-form piece of writing attached to a work.
type Review struct {
	Title  string `json:"title"`
	Rating int    `json:"rating,omitempty"`
	Text   string `json:"text"`
}

// TasteInput is the aggregate handed to the analysis stage. It flows
// one way through the pipeline: acquisition -> sampling -> truncation.
// Truncation produces a new, smaller value, never mutates in place.
type TasteInput struct {
	UserID   string          `json:"user_id"`
	Books    SampledCategory `json:"books"`
	Movies   SampledCategory `json:"movies"`
	Music    SampledCategory `json:"music"`
	Reviews  []Review        `json:"reviews,omitempty"`
	Statuses []string        `json:"statuses,omitempty"`
}

type Counts struct {
	Books  int `json:"books"`
	Movies int `json:"movies"`
	Music  int `json:"music"`
}

// ItemCounts reports how many items each category currently holds.
func (t TasteInput) ItemCounts() Counts {
	return Counts{
		Books:  len(t.Books.Items),
		Movies: len(t.Movies.Items),
		Music:  len(t.Music.Items),
	}
}

// RealCounts reports the site-declared totals per category.
func (t TasteInput) RealCounts() Counts {
	return Counts{
		Books:  t.Books.RealCount,
		Movies: t.Movies.RealCount,
		Music:  t.Music.RealCount,
	}
}

func (t TasteInput) clone() TasteInput {
	out := t
	out.Books.Items = append([]douban.WorkItem(nil), t.Books.Items...)
	out.Movies.Items = append([]douban.WorkItem(nil), t.Movies.Items...)
	out.Music.Items = append([]douban.WorkItem(nil), t.Music.Items...)
	out.Reviews = append([]Review(nil), t.Reviews...)
	out.Statuses = append([]string(nil), t.Statuses...)
	return out
}
