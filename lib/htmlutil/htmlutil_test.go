package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func doc(t *testing.T, markup string) *goquery.Document {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return d
}

func TestCompactText(t *testing.T) {
	d := doc(t, `<div><a>  Some
		Title  </a></div>`)
	require.Equal(t, "Some Title", CompactText(d.Find("a")))
}

func TestFirstTextFallback(t *testing.T) {
	d := doc(t, `<li><em class="primary"></em><span class="alt">fallback</span></li>`)
	require.Equal(t, "fallback", FirstText(d.Selection, "em.primary", "span.alt"))
	require.Equal(t, "", FirstText(d.Selection, "em.primary"))
}
