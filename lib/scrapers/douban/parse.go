package douban

import (
	"fmt"
	"strconv"
	"strings"

	"tastecard-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// ParseCollection extracts the structured items of one listing page.
// Pure function over the markup; malformed item nodes degrade to
// skipped items, never to an error.
func ParseCollection(body string) (CollectionPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return CollectionPage{}, fmt.Errorf("parse collection page: %w", err)
	}

	schema := collectV1
	page := CollectionPage{}

	pageTitle := doc.Find("title").First().Text()
	page.DeclaredTotal = parseDeclaredTotal(pageTitle)
	page.NameHint = parseNameHint(pageTitle)

	var nodes *goquery.Selection
	for _, selector := range schema.items {
		nodes = doc.Find(selector)
		if nodes.Length() > 0 {
			break
		}
	}
	if nodes == nil || nodes.Length() == 0 {
		return page, nil
	}

	nodes.Each(func(_ int, node *goquery.Selection) {
		item := parseItem(node, schema)
		if item.Title == "" {
			return
		}
		page.Items = append(page.Items, item)
	})
	return page, nil
}

func parseItem(node *goquery.Selection, schema collectionSchema) WorkItem {
	item := WorkItem{}

	item.Title = htmlutil.FirstText(node, schema.titleText...)
	if item.Title == "" {
		// some layouts truncate the anchor text and keep the full
		// title in an attribute
		item.Title = htmlutil.Compact(
			node.Find(schema.titleAttr.selector).First().AttrOr(schema.titleAttr.attr, ""),
		)
	}

	node.Find(schema.rating).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		class := el.AttrOr("class", "")
		if m := ratingClassPattern.FindStringSubmatch(class); m != nil {
			item.Rating, _ = strconv.Atoi(m[1])
			return false
		}
		return true
	})

	dateText := htmlutil.FirstText(node, schema.date...)
	item.Date = datePattern.FindString(dateText)

	item.Comment = htmlutil.FirstText(node, schema.comment...)

	return item
}

func parseDeclaredTotal(pageTitle string) int {
	m := declaredTotalPattern.FindStringSubmatch(strings.TrimSpace(pageTitle))
	if m == nil {
		return 0
	}
	total, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return total
}

func parseNameHint(pageTitle string) string {
	hint := strings.TrimSpace(pageTitle)
	hint = declaredTotalPattern.ReplaceAllString(hint, "")
	hint = strings.TrimSpace(hint)
	for _, suffix := range nameHintSuffixes {
		if strings.HasSuffix(hint, suffix) {
			hint = strings.TrimSpace(strings.TrimSuffix(hint, suffix))
			break
		}
	}
	return hint
}
