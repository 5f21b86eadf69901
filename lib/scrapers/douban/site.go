package douban

import (
	"fmt"
	"regexp"
	"strings"
)

type Category string

const (
	CategoryBook  Category = "book"
	CategoryMovie Category = "movie"
	CategoryMusic Category = "music"
)

var Categories = []Category{CategoryBook, CategoryMovie, CategoryMusic}

// PageSize is the number of items the site renders per collection page.
const PageSize = 30

// Site holds the per-category base URLs. Each category lives on its own
// subdomain; tests point these at a local server instead.
type Site struct {
	BookBase    string `json:"book_base"`
	MovieBase   string `json:"movie_base"`
	MusicBase   string `json:"music_base"`
	ProfileBase string `json:"profile_base"`
}

func DefaultSite() Site {
	return Site{
		BookBase:    "https://book.douban.com",
		MovieBase:   "https://movie.douban.com",
		MusicBase:   "https://music.douban.com",
		ProfileBase: "https://www.douban.com",
	}
}

func (s Site) categoryBase(c Category) string {
	switch c {
	case CategoryMovie:
		return s.MovieBase
	case CategoryMusic:
		return s.MusicBase
	default:
		return s.BookBase
	}
}

// CollectURL is the listing page of consumed works for one category.
// `start` is an item offset, a multiple of PageSize.
func (s Site) CollectURL(c Category, userID string, start int) string {
	return fmt.Sprintf(
		"%s/people/%s/collect?start=%d&sort=time&filter=all&mode=list",
		s.categoryBase(c), userID, start,
	)
}

func (s Site) ProfileURL(userID string) string {
	return fmt.Sprintf("%s/people/%s/", s.ProfileBase, userID)
}

var userIDPattern = regexp.MustCompile(`/people/([^/?#]+)`)

// NormalizeUserID accepts either a bare id or a pasted profile URL and
// returns the short identifier.
func NormalizeUserID(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := userIDPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return strings.Trim(raw, "/")
}
