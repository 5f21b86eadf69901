package tastestore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"tastecard-backend/lib/scrapers/douban"
	"tastecard-backend/lib/taste"
	"tastecard-backend/lib/telemetry"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestStore(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:tastestore")
	defer cleanup()

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	_, err = sqlite.Exec(Schema)
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(sqlite)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	{
		res, err := store.History(ctx, "unknown-user", 10)
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, res, 0)

		_, err = store.Latest(ctx, "unknown-user")
		require.ErrorIs(t, err, sql.ErrNoRows)
	}
	{
		first := taste.TasteInput{
			UserID: "douyou",
			Books: taste.SampledCategory{
				Items: []douban.WorkItem{
					{Title: "小王子", Rating: 5, Date: "2023-01-01", Comment: "重读"},
				},
				RealCount: 115,
			},
		}
		err := store.Push(ctx, first, false, taste.Counts{Books: 1})
		if err != nil {
			t.Fatal(err)
		}

		second := first
		second.Books.RealCount = 116
		err = store.Push(ctx, second, true, taste.Counts{Books: 700})
		if err != nil {
			t.Fatal(err)
		}

		err = store.Push(ctx, taste.TasteInput{UserID: "someone-else"}, false, taste.Counts{})
		if err != nil {
			t.Fatal(err)
		}

		history, err := store.History(ctx, "douyou", 10)
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, history, 2)

		// newest first
		require.True(t, history[0].Truncated)
		require.Equal(t, 700, history[0].Original.Books)
		require.Equal(t, 116, history[0].Input.Books.RealCount)
		require.Equal(t, "小王子", history[1].Input.Books.Items[0].Title)

		latest, err := store.Latest(ctx, "douyou")
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, 116, latest.Input.Books.RealCount)

		capped, err := store.History(ctx, "douyou", 1)
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, capped, 1)
	}
}
