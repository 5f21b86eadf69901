package taste

// Token budgeting is a character heuristic, not a real tokenizer: it
// deliberately overestimates so the analysis stage never overflows,
// at the cost of sometimes trimming more than strictly needed.
const (
	TokenBudget   = 8000
	charsPerToken = 4

	reviewTextCap = 600
	commentCap    = 120
)

// per-category item caps tried in order; at and below
// stripCommentsBelow the items lose their comments entirely.
var truncationLadder = []int{500, 300, 200, 100}

const stripCommentsBelow = 200

// rough serialization overhead per record in the rendered prompt
const (
	itemOverheadChars   = 12
	reviewOverheadChars = 24
)

func EstimateTokens(in TasteInput) int {
	chars := len(in.UserID)
	for _, category := range []SampledCategory{in.Books, in.Movies, in.Music} {
		chars += len(category.NameHint)
		for _, item := range category.Items {
			chars += len([]rune(item.Title)) +
				len([]rune(item.Comment)) +
				len(item.Date) +
				itemOverheadChars
		}
	}
	for _, review := range in.Reviews {
		chars += len([]rune(review.Title)) + len([]rune(review.Text)) + reviewOverheadChars
	}
	for _, status := range in.Statuses {
		chars += len([]rune(status)) + itemOverheadChars
	}
	return (chars + charsPerToken - 1) / charsPerToken
}

// TruncateForBudget reduces the input until its estimate fits the
// token budget, degrading through ordered phases: trim review text,
// trim per-item commentary, then re-select with shrinking caps,
// finally stripping comments altogether. It never fails and never
// grows the input; once the ladder is exhausted the smallest form is
// returned even if it still estimates over budget.
func TruncateForBudget(in TasteInput) (TasteInput, bool, Counts) {
	original := in.ItemCounts()
	if EstimateTokens(in) <= TokenBudget {
		return in, false, original
	}

	out := in.clone()

	// phase 1: long-form review text
	for i := range out.Reviews {
		out.Reviews[i].Text = trimRunes(out.Reviews[i].Text, reviewTextCap)
	}
	if EstimateTokens(out) <= TokenBudget {
		return out, true, original
	}

	// phase 2: per-item commentary
	trimComments(&out.Books, commentCap)
	trimComments(&out.Movies, commentCap)
	trimComments(&out.Music, commentCap)
	if EstimateTokens(out) <= TokenBudget {
		return out, true, original
	}

	// phase 3: shrink the selection itself
	for _, cap := range truncationLadder {
		out.Books.Items = Select(out.Books.Items, cap)
		out.Movies.Items = Select(out.Movies.Items, cap)
		out.Music.Items = Select(out.Music.Items, cap)
		if cap <= stripCommentsBelow {
			stripComments(&out.Books)
			stripComments(&out.Movies)
			stripComments(&out.Music)
			out.Reviews = nil
			out.Statuses = nil
		}
		if EstimateTokens(out) <= TokenBudget {
			return out, true, original
		}
	}
	return out, true, original
}

func trimRunes(s string, cap int) string {
	runes := []rune(s)
	if len(runes) <= cap {
		return s
	}
	return string(runes[:cap])
}

func trimComments(category *SampledCategory, cap int) {
	for i := range category.Items {
		category.Items[i].Comment = trimRunes(category.Items[i].Comment, cap)
	}
}

func stripComments(category *SampledCategory) {
	for i := range category.Items {
		category.Items[i].Comment = ""
	}
}
