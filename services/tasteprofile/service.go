package tasteprofile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"tastecard-backend/lib/scrapers/douban"
	"tastecard-backend/lib/taste"
	"tastecard-backend/lib/tastestore"

	"github.com/dgraph-io/badger/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("tastecard.services.tasteprofile")

// ErrNoData means every category came back empty: the user either has
// no public activity or the whole profile is hidden.
var ErrNoData = errors.New("no public activity found for this user")

const (
	resultCacheSize = 2048
	resultCacheTTL  = time.Minute * 15

	defaultPageDelay = time.Second
)

// Result is what one full pipeline run produces.
type Result struct {
	Profile   douban.Profile   `json:"profile"`
	Input     taste.TasteInput `json:"input"`
	Truncated bool             `json:"truncated"`
	Original  taste.Counts     `json:"original_counts"`
}

type Options struct {
	Site  douban.Site
	Store tastestore.Store
	Cache *badger.DB
	// PageDelay overrides the politeness delay between listing pages.
	// Zero keeps the default of one second.
	PageDelay time.Duration
}

type Service struct {
	site      douban.Site
	store     tastestore.Store
	cache     categoryCache
	results   *expirable.LRU[string, Result]
	pageDelay time.Duration
}

func NewService(options Options) Service {
	delay := options.PageDelay
	if delay == 0 {
		delay = defaultPageDelay
	}
	return Service{
		site:      options.Site,
		store:     options.Store,
		cache:     categoryCache{db: options.Cache},
		results:   expirable.NewLRU[string, Result](resultCacheSize, nil, resultCacheTTL),
		pageDelay: delay,
	}
}

// GetTasteProfile runs the full pipeline for one user: scrape the three
// categories in parallel on a fresh session, sample, truncate, persist.
// Accepts a bare user id or a pasted profile URL.
func (s Service) GetTasteProfile(ctx context.Context, rawID string) (Result, error) {
	ctx, span := tracer.Start(ctx, "GetTasteProfile")
	defer span.End()

	userID := douban.NormalizeUserID(rawID)
	span.SetAttributes(attribute.String("user_id", userID))

	if cached, hit := s.results.Get(userID); hit {
		span.AddEvent("result cache hit")
		return cached, nil
	}

	// cookies and challenge clearances never outlive one run
	session := douban.NewSession()
	fetcher := douban.NewFetcher(session)

	categories := make([]taste.SampledCategory, len(douban.Categories))
	failures := make([]error, len(douban.Categories))

	var wg sync.WaitGroup
	for i, category := range douban.Categories {
		wg.Add(1)
		go func(i int, category douban.Category) {
			defer wg.Done()
			categories[i], failures[i] = s.fetchCategory(ctx, fetcher, category, userID)
		}(i, category)
	}
	wg.Wait()

	input := taste.TasteInput{
		UserID: userID,
		Books:  categories[0],
		Movies: categories[1],
		Music:  categories[2],
	}
	if err := reduceFailures(ctx, failures); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	counts := input.ItemCounts()
	if counts.Books+counts.Movies+counts.Music == 0 {
		span.SetStatus(codes.Error, ErrNoData.Error())
		return Result{}, ErrNoData
	}

	profile := s.fetchProfile(ctx, fetcher, userID, input)

	truncated, didTruncate, original := taste.TruncateForBudget(input)

	result := Result{
		Profile:   profile,
		Input:     truncated,
		Truncated: didTruncate,
		Original:  original,
	}

	err := s.store.Push(ctx, truncated, didTruncate, original)
	if err != nil {
		slog.WarnContext(ctx, "failed to persist taste snapshot",
			"user", userID, "err", err)
	}

	s.results.Add(userID, result)
	return result, nil
}

// History returns previously persisted runs for a user, newest first.
func (s Service) History(ctx context.Context, rawID string, limit int) ([]tastestore.Snapshot, error) {
	return s.store.History(ctx, douban.NormalizeUserID(rawID), limit)
}

// reduceFailures decides whether the run as a whole failed. Blocks and
// unresolved challenges are site-level conditions that would hold for
// every retry of this run, so they surface. A not-found category is
// normal (many users only ever log one medium); it only surfaces when
// every category reported it.
func reduceFailures(ctx context.Context, failures []error) error {
	notFound := 0
	for _, err := range failures {
		if err == nil {
			continue
		}
		if errors.Is(err, douban.ErrAccessBlocked) ||
			errors.Is(err, douban.ErrChallengeUnresolved) ||
			errors.Is(err, douban.ErrSolverExhausted) {
			return err
		}
		if errors.Is(err, douban.ErrNotFound) {
			notFound++
			continue
		}
		slog.WarnContext(ctx, "category scrape failed", "err", err)
	}
	if notFound == len(failures) {
		return douban.ErrNotFound
	}
	return nil
}

// fetchCategory resolves one category end to end: page 0 gives the
// declared total and the page plan, later pages are fetched politely in
// sequence, then the merged items are deduplicated and sampled down.
func (s Service) fetchCategory(ctx context.Context, fetcher *douban.Fetcher, category douban.Category, userID string) (taste.SampledCategory, error) {
	ctx, span := tracer.Start(ctx, "fetchCategory")
	defer span.End()
	span.SetAttributes(attribute.String("category", string(category)))

	firstURL := s.site.CollectURL(category, userID, 0)
	if cached, err := s.cache.get(ctx, firstURL); err == nil {
		return cached, nil
	}

	body, err := fetcher.FetchPage(ctx, firstURL)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return taste.SampledCategory{}, err
	}
	page, err := douban.ParseCollection(body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return taste.SampledCategory{}, err
	}

	items := page.Items
	sampled := taste.SampledCategory{
		RealCount: page.DeclaredTotal,
		NameHint:  page.NameHint,
	}

	if page.DeclaredTotal == 0 {
		// no readable total: stay on page 0 and say so instead of
		// guessing at pagination
		sampled.LowConfidenceTotal = true
		sampled.RealCount = len(items)
	} else {
		for _, pageIndex := range taste.PlanPages(page.DeclaredTotal, douban.PageSize) {
			if err := s.waitBetweenPages(ctx); err != nil {
				return taste.SampledCategory{}, douban.NetworkError{URL: firstURL, Err: err}
			}

			pageURL := s.site.CollectURL(category, userID, pageIndex*douban.PageSize)
			body, err := fetcher.FetchPage(ctx, pageURL)
			if err != nil {
				// a single missing page degrades the sample, it does
				// not fail the category
				var netErr douban.NetworkError
				if errors.As(err, &netErr) {
					slog.WarnContext(ctx, "skipping unreachable page",
						"url", pageURL, "err", err)
					span.AddEvent("page skipped", trace.WithAttributes(
						attribute.Int("page", pageIndex),
					))
					continue
				}
				span.SetStatus(codes.Error, err.Error())
				return taste.SampledCategory{}, err
			}
			extra, err := douban.ParseCollection(body)
			if err != nil {
				slog.WarnContext(ctx, "skipping unparseable page",
					"url", pageURL, "err", err)
				continue
			}
			items = append(items, extra.Items...)
		}
	}

	sampled.Items = taste.Select(taste.Dedupe(items), taste.CategoryTarget)

	err = s.cache.set(ctx, firstURL, sampled)
	if err != nil {
		slog.WarnContext(ctx, "failed to cache category",
			"category", category, "err", err)
	}
	return sampled, nil
}

// fetchProfile never fails the run; on any error it synthesizes a
// profile from the collection-page name hints.
func (s Service) fetchProfile(ctx context.Context, fetcher *douban.Fetcher, userID string, input taste.TasteInput) douban.Profile {
	ctx, span := tracer.Start(ctx, "fetchProfile")
	defer span.End()

	fallback := douban.Profile{ID: userID}
	for _, category := range []taste.SampledCategory{input.Books, input.Movies, input.Music} {
		if category.NameHint != "" {
			fallback.Name = category.NameHint
			break
		}
	}

	body, err := fetcher.FetchPage(ctx, s.site.ProfileURL(userID))
	if err != nil {
		slog.WarnContext(ctx, "profile page unavailable, using name hint",
			"user", userID, "err", err)
		return fallback
	}
	profile, err := douban.ParseProfile(userID, body)
	if err != nil || profile.Name == "" {
		return fallback
	}
	return profile
}

// waitBetweenPages sleeps the politeness delay plus up to half of it
// again in jitter, so consecutive page requests never form a perfectly
// regular rhythm.
func (s Service) waitBetweenPages(ctx context.Context) error {
	delay := s.pageDelay
	if jitterCap := int(delay / 2 / time.Millisecond); jitterCap > 0 {
		jitter, err := random.IntRange(0, jitterCap)
		if err == nil {
			delay += time.Duration(jitter) * time.Millisecond
		}
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
