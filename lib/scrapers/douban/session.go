package douban

import (
	"net/http"
	"sync"

	browser "github.com/EDDYCJY/fake-useragent"
)

// Session holds the cookies of one scraping run. It is created per run
// and threaded through every fetch, never shared between runs: cookies
// carry identity and must not leak across concurrent users.
//
// The three category fetchers of a run do share one Session, so
// mutation is guarded.
type Session struct {
	UserAgent string

	mu      sync.Mutex
	cookies map[string]string
}

func NewSession() *Session {
	return &Session{
		UserAgent: browser.Chrome(),
		cookies:   map[string]string{},
	}
}

// Merge folds response cookies into the session, last write wins.
// Called on every response regardless of status code, since the site
// sets cookies on redirects and challenge pages too.
func (s *Session) Merge(cookies []*http.Cookie) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		s.cookies[c.Name] = c.Value
	}
}

func (s *Session) Get(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cookies[name]
}

// Cookies returns a request-ready snapshot of the jar.
func (s *Session) Cookies() []*http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*http.Cookie, 0, len(s.cookies))
	for name, value := range s.cookies {
		out = append(out, &http.Cookie{Name: name, Value: value})
	}
	return out
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cookies)
}
