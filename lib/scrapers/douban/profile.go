package douban

import (
	"fmt"
	"strings"

	"tastecard-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// ParseProfile extracts the identity block of the main profile page.
// Missing fields stay empty; callers fall back to the collection-page
// name hint.
func ParseProfile(userID, body string) (Profile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return Profile{}, fmt.Errorf("parse profile page: %w", err)
	}

	p := Profile{ID: userID}
	p.Name = htmlutil.FirstText(doc.Selection, "#profile .info h1", "#db-usr-profile h1", "title")
	p.AvatarURL = doc.Find("#profile .basic-info img, #db-usr-profile .pic img").
		First().AttrOr("src", "")
	p.Bio = htmlutil.FirstText(doc.Selection, "#intro_display", "#intro .bd", ".user-intro")
	return p, nil
}
