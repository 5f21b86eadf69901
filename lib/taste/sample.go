package taste

import (
	"hash/fnv"
	"slices"
	"strings"

	"tastecard-backend/lib/scrapers/douban"
)

// CategoryTarget is the per-category selection size of a fresh scrape.
const CategoryTarget = 500

// Score ranks an item by how much personality signal it carries: long
// commentary first, polarized ratings over neutral ones (a 1 or a 5
// says more than a 3), and a date for timeline reconstruction.
func Score(item douban.WorkItem) int {
	score := len([]rune(item.Comment)) / 5
	if score > 40 {
		score = 40
	}
	if item.Rating > 0 {
		polarity := item.Rating - 3
		if polarity < 0 {
			polarity = -polarity
		}
		score += polarity*15 + 5
	}
	if item.Date != "" {
		score += 10
	}
	return score
}

// titleHash breaks score ties. Tying on a stable hash instead of
// insertion order keeps the selected subset identical regardless of
// fetch order or network jitter, which matters because results are
// cached and must reproduce across retries.
func titleHash(title string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(title))
	return h.Sum64()
}

// Select returns the `limit` highest-scoring items, deterministically
// ordered. When everything fits it returns the input untouched, same
// slice, same order.
func Select(items []douban.WorkItem, limit int) []douban.WorkItem {
	if limit < 0 || len(items) <= limit {
		return items
	}

	ranked := append([]douban.WorkItem(nil), items...)
	slices.SortFunc(ranked, func(a, b douban.WorkItem) int {
		sa, sb := Score(a), Score(b)
		if sa != sb {
			return sb - sa
		}
		ha, hb := titleHash(a.Title), titleHash(b.Title)
		if ha != hb {
			if ha < hb {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Title, b.Title)
	})
	return ranked[:limit]
}

// Dedupe drops repeated titles, keeping the first occurrence. Pages
// can overlap when the site shifts items between fetches.
func Dedupe(items []douban.WorkItem) []douban.WorkItem {
	seen := make(map[string]bool, len(items))
	out := items[:0:0]
	for _, item := range items {
		if seen[item.Title] {
			continue
		}
		seen[item.Title] = true
		out = append(out, item)
	}
	return out
}

// PlanPages decides which pages beyond page 0 to fetch, given the
// declared total. Small collections are fetched whole; large ones are
// sampled at the first, middle and last remaining page so the
// selection spans the user's full history instead of only recent
// activity.
func PlanPages(declaredTotal, pageSize int) []int {
	if pageSize <= 0 || declaredTotal <= pageSize {
		return nil
	}
	totalPages := (declaredTotal + pageSize - 1) / pageSize
	last := totalPages - 1

	if totalPages <= 4 {
		pages := make([]int, 0, last)
		for p := 1; p <= last; p++ {
			pages = append(pages, p)
		}
		return pages
	}
	mid := (1 + last) / 2
	return []int{1, mid, last}
}
