package tasteprofile

import (
	"bytes"
	"context"
	"encoding/gob"
	"net/url"
	"time"

	"tastecard-backend/lib/taste"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// a finished category scrape is reused for this long before the site is
// hit again
const categoryCacheTTL = time.Hour * 6

var errCategoryNotCached = badger.ErrKeyNotFound

// categoryCache stores completed category scrapes keyed by the
// normalized page-0 listing URL, so the same user requested through a
// different base URL spelling still hits.
type categoryCache struct {
	db *badger.DB
}

func (c categoryCache) key(listURL string) (string, error) {
	parsed, err := url.Parse(listURL)
	if err != nil {
		return "", err
	}
	normalized := purell.NormalizeURL(
		parsed,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
	return "category:" + normalized, nil
}

func (c categoryCache) get(ctx context.Context, listURL string) (taste.SampledCategory, error) {
	ctx, span := tracer.Start(ctx, "cache:get")
	defer span.End()

	key, err := c.key(listURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return taste.SampledCategory{}, err
	}
	span.SetAttributes(attribute.String("cache_key", key))

	tx := c.db.NewTransaction(false)
	defer tx.Discard()

	item, err := tx.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return taste.SampledCategory{}, errCategoryNotCached
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return taste.SampledCategory{}, err
	}
	serialized, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy cached item")
		return taste.SampledCategory{}, err
	}

	var cached taste.SampledCategory
	err = gob.NewDecoder(bytes.NewBuffer(serialized)).Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached category")
		return taste.SampledCategory{}, err
	}

	span.AddEvent("category cache hit")
	return cached, nil
}

func (c categoryCache) set(ctx context.Context, listURL string, category taste.SampledCategory) error {
	ctx, span := tracer.Start(ctx, "cache:set")
	defer span.End()

	key, err := c.key(listURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return err
	}
	span.SetAttributes(attribute.String("cache_key", key))

	serialized := bytes.NewBuffer(nil)
	err = gob.NewEncoder(serialized).Encode(category)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize category")
		return err
	}

	tx := c.db.NewTransaction(true)
	defer tx.Commit()

	entry := badger.NewEntry([]byte(key), serialized.Bytes()).
		WithTTL(categoryCacheTTL)
	err = tx.SetEntry(entry)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}
	return nil
}
