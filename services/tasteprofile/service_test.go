package tasteprofile

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"tastecard-backend/lib/scrapers/douban"
	"tastecard-backend/lib/tastestore"
	"tastecard-backend/lib/telemetry"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const bookPage0 = `<html>
<head><title>豆友读过的书(45)</title></head>
<body><ul class="interest-list">
<li class="subject-item">
  <h2><a title="小王子">小王子</a></h2>
  <span class="rating5-t"></span>
  <span class="date">2024-01-15</span>
  <p class="comment">每次重读都有新的感动。</p>
</li>
<li class="subject-item"><h2><a title="百年孤独">百年孤独</a></h2></li>
</ul></body></html>`

const bookPage1 = `<html>
<head><title>豆友读过的书(45)</title></head>
<body><ul class="interest-list">
<li class="subject-item"><h2><a title="活着">活着</a></h2><span class="rating4-t"></span></li>
<li class="subject-item"><h2><a title="小王子">小王子</a></h2></li>
</ul></body></html>`

const moviePage = `<html>
<head><title>豆友看过的电影(1)</title></head>
<body><ul class="interest-list">
<li class="subject-item"><h2><a title="花样年华">花样年华</a></h2><span class="rating4-t"></span></li>
</ul></body></html>`

// no item count in the title: pagination cannot be trusted
const musicPage = `<html>
<head><title>豆友听过的唱片</title></head>
<body><ul class="interest-list">
<li class="subject-item"><h2><a title="我去2000年">我去2000年</a></h2></li>
</ul></body></html>`

const profilePage = `<html><body>
<div id="profile">
  <div class="basic-info"><img src="https://img.example.com/u1.jpg"></div>
  <div class="info"><h1>豆友</h1></div>
</div>
</body></html>`

const emptyListPage = `<html>
<head><title>无人读过的书(0)</title></head>
<body><ul class="interest-list"></ul></body></html>`

type fixtureSite struct {
	server       *httptest.Server
	collectCount atomic.Int64
}

func newFixtureSite(t *testing.T) *fixtureSite {
	f := &fixtureSite{}
	mux := http.NewServeMux()
	mux.HandleFunc("/book/people/douyou/collect", func(w http.ResponseWriter, r *http.Request) {
		f.collectCount.Add(1)
		if r.URL.Query().Get("start") == "0" {
			w.Write([]byte(bookPage0))
			return
		}
		w.Write([]byte(bookPage1))
	})
	mux.HandleFunc("/movie/people/douyou/collect", func(w http.ResponseWriter, r *http.Request) {
		f.collectCount.Add(1)
		w.Write([]byte(moviePage))
	})
	mux.HandleFunc("/music/people/douyou/collect", func(w http.ResponseWriter, r *http.Request) {
		f.collectCount.Add(1)
		w.Write([]byte(musicPage))
	})
	mux.HandleFunc("/www/people/douyou/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(profilePage))
	})
	for _, category := range []string{"book", "movie", "music"} {
		mux.HandleFunc("/"+category+"/people/hermit/collect", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(emptyListPage))
		})
	}
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixtureSite) site() douban.Site {
	return douban.Site{
		BookBase:    f.server.URL + "/book",
		MovieBase:   f.server.URL + "/movie",
		MusicBase:   f.server.URL + "/music",
		ProfileBase: f.server.URL + "/www",
	}
}

func newTestOptions(t *testing.T, site douban.Site) Options {
	sqlite, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	_, err = sqlite.Exec(tastestore.Schema)
	require.NoError(t, err)

	cache, err := badger.Open(
		badger.DefaultOptions("").WithInMemory(true).WithLogger(nil),
	)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return Options{
		Site:      site,
		Store:     tastestore.NewStore(sqlite),
		Cache:     cache,
		PageDelay: time.Millisecond,
	}
}

func TestGetTasteProfile(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:tasteprofile")
	defer cleanup()

	fixture := newFixtureSite(t)
	options := newTestOptions(t, fixture.site())
	service := NewService(options)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	// a pasted URL resolves to the same user as the bare id
	result, err := service.GetTasteProfile(ctx, fixture.server.URL+"/www/people/douyou/")
	require.NoError(t, err)

	require.Equal(t, "douyou", result.Input.UserID)
	require.Equal(t, "豆友", result.Profile.Name)
	require.Equal(t, "https://img.example.com/u1.jpg", result.Profile.AvatarURL)
	require.False(t, result.Truncated)

	books := result.Input.Books
	require.Equal(t, 45, books.RealCount)
	require.False(t, books.LowConfidenceTotal)
	// both pages merged, the repeated title collapsed
	titles := make([]string, len(books.Items))
	for i, item := range books.Items {
		titles[i] = item.Title
	}
	require.ElementsMatch(t, []string{"小王子", "百年孤独", "活着"}, titles)

	require.Len(t, result.Input.Movies.Items, 1)
	require.Equal(t, 1, result.Input.Movies.RealCount)

	music := result.Input.Music
	require.True(t, music.LowConfidenceTotal)
	require.Equal(t, 1, music.RealCount)

	// the run was persisted
	history, err := service.History(ctx, "douyou", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, 3, history[0].Original.Books)

	// second call is served from the result cache
	before := fixture.collectCount.Load()
	again, err := service.GetTasteProfile(ctx, "douyou")
	require.NoError(t, err)
	require.Equal(t, result.Input.UserID, again.Input.UserID)
	require.Equal(t, before, fixture.collectCount.Load())
}

func TestCategoryCacheSurvivesServiceRestart(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:tasteprofile")
	defer cleanup()

	fixture := newFixtureSite(t)
	options := newTestOptions(t, fixture.site())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	first := NewService(options)
	_, err := first.GetTasteProfile(ctx, "douyou")
	require.NoError(t, err)
	before := fixture.collectCount.Load()

	// a fresh service with the same badger db has a cold result cache
	// but warm category scrapes
	second := NewService(options)
	result, err := second.GetTasteProfile(ctx, "douyou")
	require.NoError(t, err)
	require.Equal(t, before, fixture.collectCount.Load())
	require.Equal(t, 45, result.Input.Books.RealCount)
}

func TestGetTasteProfileNotFound(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:tasteprofile")
	defer cleanup()

	fixture := newFixtureSite(t)
	service := NewService(newTestOptions(t, fixture.site()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	// no fixture routes exist for this user, every category 404s
	_, err := service.GetTasteProfile(ctx, "ghost")
	require.ErrorIs(t, err, douban.ErrNotFound)
}

func TestGetTasteProfileNoData(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:tasteprofile")
	defer cleanup()

	fixture := newFixtureSite(t)
	service := NewService(newTestOptions(t, fixture.site()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	_, err := service.GetTasteProfile(ctx, "hermit")
	require.ErrorIs(t, err, ErrNoData)
}
