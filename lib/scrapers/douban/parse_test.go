package douban

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const bookListPage = `<!DOCTYPE html>
<html>
<head><title>豆友读过的书(115)</title></head>
<body>
<ul class="interest-list">
  <li class="subject-item">
    <h2><a href="/subject/1" title="小王子 The Little Prince">小王子</a></h2>
    <span class="rating5-t"></span>
    <span class="date">2024-01-15 读过</span>
    <p class="comment">每次重读都有新的感动。</p>
  </li>
  <li class="subject-item">
    <h2><a href="/subject/2" title="百年孤独"></a></h2>
    <span class="date">2023-11-02 读过</span>
  </li>
  <li class="subject-item">
    <h2><a href="/subject/3"></a></h2>
    <span class="rating3-t"></span>
  </li>
</ul>
</body>
</html>`

func TestParseCollection(t *testing.T) {
	page, err := ParseCollection(bookListPage)
	require.NoError(t, err)

	require.Equal(t, 115, page.DeclaredTotal)
	require.Equal(t, "豆友", page.NameHint)

	// the third item has no title text and no title attribute: dropped
	require.Len(t, page.Items, 2)

	first := page.Items[0]
	require.Equal(t, "小王子", first.Title)
	require.Equal(t, 5, first.Rating)
	require.Equal(t, "2024-01-15", first.Date)
	require.Equal(t, "每次重读都有新的感动。", first.Comment)

	// empty anchor text falls back to the title attribute
	second := page.Items[1]
	require.Equal(t, "百年孤独", second.Title)
	require.Equal(t, 0, second.Rating)
	require.Equal(t, "2023-11-02", second.Date)
	require.Empty(t, second.Comment)
}

func TestParseCollectionMovieLayout(t *testing.T) {
	page, err := ParseCollection(`<html>
<head><title>豆友看过的电影(240)</title></head>
<body>
<div class="grid-view">
  <div class="item">
    <ul>
      <li class="title"><a href="/subject/9"><em>花样年华</em></a></li>
    </ul>
    <span class="rating4-t"></span>
    <span class="date">2022-06-30</span>
    <span class="comment">色彩和配乐无可替代。</span>
  </div>
</div>
</body>
</html>`)
	require.NoError(t, err)

	require.Equal(t, 240, page.DeclaredTotal)
	require.Equal(t, "豆友", page.NameHint)
	require.Len(t, page.Items, 1)
	require.Equal(t, "花样年华", page.Items[0].Title)
	require.Equal(t, 4, page.Items[0].Rating)
	require.Equal(t, "色彩和配乐无可替代。", page.Items[0].Comment)
}

func TestParseCollectionMissingTotalIsUnknown(t *testing.T) {
	page, err := ParseCollection(`<html><head><title>豆友读过的书</title></head>
<body><ul class="interest-list"><li class="subject-item"><h2><a title="x">x</a></h2></li></ul></body></html>`)
	require.NoError(t, err)
	// 0 means "unknown", callers must not read it as "zero items"
	require.Equal(t, 0, page.DeclaredTotal)
	require.Len(t, page.Items, 1)
}

func TestParseCollectionMalformed(t *testing.T) {
	page, err := ParseCollection(`<div><p>not a listing`)
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Equal(t, 0, page.DeclaredTotal)
}

func TestParseProfile(t *testing.T) {
	profile, err := ParseProfile("douyou", `<html><body>
<div id="profile">
  <div class="basic-info"><img src="https://img.example.com/u123.jpg"></div>
  <div class="info"><h1>豆友</h1></div>
</div>
<div id="intro_display">读杂书，看老电影。</div>
</body></html>`)
	require.NoError(t, err)
	require.Equal(t, "douyou", profile.ID)
	require.Equal(t, "豆友", profile.Name)
	require.Equal(t, "https://img.example.com/u123.jpg", profile.AvatarURL)
	require.Equal(t, "读杂书，看老电影。", profile.Bio)
}

func TestNormalizeUserID(t *testing.T) {
	cases := map[string]string{
		"douyou":                                    "douyou",
		"  douyou  ":                                "douyou",
		"https://www.douban.com/people/douyou/":     "douyou",
		"https://book.douban.com/people/douyou":     "douyou",
		"www.douban.com/people/douyou/?source=nav":  "douyou",
	}
	for raw, want := range cases {
		require.Equal(t, want, NormalizeUserID(raw), "raw=%q", raw)
	}
}
