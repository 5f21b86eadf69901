package douban

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// challenge is the proof-of-work gate the site serves instead of the
// requested page. consumed exactly once: extract, solve, submit.
type challenge struct {
	Token      string
	Challenge  string
	Difficulty int
	Action     string
}

const defaultDifficulty = 4

// fingerprint of the challenge page: a proof element declaring the hash
// algorithm plus the hidden challenge input inside the check form.
const (
	proofSelector         = "#proof-worker[data-algorithm=sha1]"
	challengeFormSelector = "form#sec-check"
)

func isChallengePage(body string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return false
	}
	if doc.Find(proofSelector).Length() == 0 {
		return false
	}
	return doc.Find(challengeFormSelector + " input[name=challenge]").Length() > 0
}

func extractChallenge(body string) (challenge, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return challenge{}, fmt.Errorf("parse challenge page: %w", err)
	}

	form := doc.Find(challengeFormSelector)
	c := challenge{
		Token:      form.Find("input[name=token]").AttrOr("value", ""),
		Challenge:  form.Find("input[name=challenge]").AttrOr("value", ""),
		Action:     form.AttrOr("action", ""),
		Difficulty: defaultDifficulty,
	}
	if c.Challenge == "" {
		return challenge{}, fmt.Errorf("challenge page without a challenge value")
	}

	if raw := form.Find("input[name=difficulty]").AttrOr("value", ""); raw != "" {
		difficulty, err := strconv.Atoi(raw)
		if err == nil {
			c.Difficulty = clampDifficulty(difficulty)
		}
	}
	return c, nil
}

// difficulties outside this window are either free passes or denial of
// service, treat both as page corruption and pin to sane bounds.
func clampDifficulty(d int) int {
	if d < 1 {
		return 1
	}
	if d > 6 {
		return 6
	}
	return d
}
