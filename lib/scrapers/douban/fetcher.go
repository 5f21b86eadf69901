package douban

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tastecard-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errTooManyRedirects = errors.New("too many redirect hops")

var tracer = otel.Tracer("tastecard.scrapers.douban")

// the acquisition protocol is a small state machine:
//
//	initial -> redirecting -> done
//	                       -> challenge presented -> solving -> submitted -> redirecting
//
// a second challenge page after a submitted solution is a hard failure.
type fetchState int

const (
	stateInitial fetchState = iota
	stateRedirecting
	stateChallengePresented
	stateChallengeSolving
	stateChallengeSubmitted
	stateDone
)

const (
	maxRedirectHops = 5
	// bound on total state transitions per FetchPage, the structural
	// "give up" rule for the redirect/challenge dance
	maxTransitions = 16

	requestTimeout = 10 * time.Second
)

// Fetcher performs logical page requests for one scraping run. It owns
// an HTTP client with auto-redirects disabled: every hop has to pass
// through the fetcher so Set-Cookie headers from intermediate responses
// land in the run's Session.
type Fetcher struct {
	Http    *resty.Client
	Session *Session
}

func NewFetcher(session *Session) *Fetcher {
	client := resty.New()
	client.SetTimeout(requestTimeout)
	client.SetHeader("user-agent", session.UserAgent)
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(
		func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	))
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	telemetry.InstrumentResty(client, "tastecard.scrapers.douban.http")

	return &Fetcher{
		Http:    client,
		Session: session,
	}
}

// FetchPage resolves one logical page: it follows redirects, solves a
// proof-of-work challenge if one is presented, and returns the settled
// HTML body.
func (f *Fetcher) FetchPage(ctx context.Context, pageURL string) (string, error) {
	ctx, span := tracer.Start(ctx, "FetchPage")
	defer span.End()
	span.SetAttributes(attribute.String("url", pageURL))

	state := stateInitial
	solved := false
	var res *resty.Response
	var chal challenge
	var nonce int

	for transitions := 0; transitions < maxTransitions; transitions++ {
		if err := ctx.Err(); err != nil {
			return "", NetworkError{URL: pageURL, Err: err}
		}

		switch state {
		case stateInitial:
			r, err := f.get(ctx, pageURL)
			if err != nil {
				span.SetStatus(codes.Error, "initial request failed")
				return "", err
			}
			res = r
			state = stateRedirecting

		case stateRedirecting:
			r, err := f.settle(ctx, res)
			if err != nil {
				span.SetStatus(codes.Error, "redirect chain failed")
				return "", err
			}
			res = r
			if err := classify(res); err != nil {
				span.SetStatus(codes.Error, err.Error())
				return "", err
			}
			if isChallengePage(res.String()) {
				if solved {
					span.SetStatus(codes.Error, ErrChallengeUnresolved.Error())
					return "", ErrChallengeUnresolved
				}
				state = stateChallengePresented
				continue
			}
			state = stateDone

		case stateChallengePresented:
			span.AddEvent("challenge presented")
			c, err := extractChallenge(res.String())
			if err != nil {
				return "", err
			}
			chal = c
			state = stateChallengeSolving

		case stateChallengeSolving:
			n, err := SolveChallenge(chal.Challenge, chal.Difficulty)
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				return "", err
			}
			nonce = n
			span.AddEvent("challenge solved", trace.WithAttributes(
				attribute.Int("nonce", nonce),
			))
			state = stateChallengeSubmitted

		case stateChallengeSubmitted:
			// the submit action resolves against the page that presented
			// the challenge, not the original request URL: by this point
			// the redirect chain may have moved us to another subdomain.
			target, err := resolveAgainst(res, chal.Action)
			if err != nil {
				return "", err
			}
			r, err := f.post(ctx, target, map[string]string{
				"token":     chal.Token,
				"challenge": chal.Challenge,
				"nonce":     strconv.Itoa(nonce),
			})
			if err != nil {
				span.SetStatus(codes.Error, "challenge submit failed")
				return "", err
			}
			res = r
			solved = true
			state = stateRedirecting

		case stateDone:
			return res.String(), nil
		}
	}

	span.SetStatus(codes.Error, "transition bound exceeded")
	return "", ErrChallengeUnresolved
}

// settle follows up to maxRedirectHops redirect responses manually,
// merging cookies at every hop.
func (f *Fetcher) settle(ctx context.Context, res *resty.Response) (*resty.Response, error) {
	for hop := 0; hop < maxRedirectHops; hop++ {
		if !isRedirect(res.StatusCode()) {
			return res, nil
		}
		location := res.Header().Get("Location")
		if location == "" {
			return res, nil
		}
		next, err := resolveAgainst(res, location)
		if err != nil {
			return nil, err
		}
		r, err := f.get(ctx, next)
		if err != nil {
			return nil, err
		}
		res = r
	}
	if isRedirect(res.StatusCode()) {
		return nil, NetworkError{
			URL: res.Request.URL,
			Err: errTooManyRedirects,
		}
	}
	return res, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (*resty.Response, error) {
	res, err := f.Http.R().
		SetContext(ctx).
		SetCookies(f.Session.Cookies()).
		Get(url)
	if err != nil {
		return nil, NetworkError{URL: url, Err: err}
	}
	f.Session.Merge(res.Cookies())
	return res, nil
}

func (f *Fetcher) post(ctx context.Context, url string, form map[string]string) (*resty.Response, error) {
	res, err := f.Http.R().
		SetContext(ctx).
		SetCookies(f.Session.Cookies()).
		SetFormData(form).
		Post(url)
	if err != nil {
		return nil, NetworkError{URL: url, Err: err}
	}
	f.Session.Merge(res.Cookies())
	return res, nil
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}

// classify maps the settled response onto the failure taxonomy.
func classify(res *resty.Response) error {
	switch res.StatusCode() {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusForbidden:
		return ErrAccessBlocked
	}
	// the site sometimes serves a 403-styled page with a 200 status
	if strings.Contains(res.String(), "<title>403") {
		return ErrAccessBlocked
	}
	return nil
}

func resolveAgainst(res *resty.Response, ref string) (string, error) {
	if ref == "" {
		return res.Request.URL, nil
	}
	base, err := url.Parse(res.Request.URL)
	if err != nil {
		return "", NetworkError{URL: res.Request.URL, Err: err}
	}
	target, err := base.Parse(ref)
	if err != nil {
		return "", NetworkError{URL: ref, Err: err}
	}
	return target.String(), nil
}
