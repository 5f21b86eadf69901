package commands

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"tastecard-backend/lib/scrapers/douban"
	"tastecard-backend/lib/taste"
	"tastecard-backend/lib/tastestore"
	"tastecard-backend/services/tasteprofile"

	"github.com/dgraph-io/badger/v4"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	_ "modernc.org/sqlite"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <user id or profile url>",
	Short: "Run the full scrape/sample/truncate pipeline for one user.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "incorrect number of arguments")
			os.Exit(1)
		}

		sqlite, err := sql.Open("sqlite", ":memory:")
		if err != nil {
			log.Fatal(err)
		}
		_, err = sqlite.Exec(tastestore.Schema)
		if err != nil {
			log.Fatal(err)
		}
		cache, err := badger.Open(
			badger.DefaultOptions("").WithInMemory(true).WithLogger(nil),
		)
		if err != nil {
			log.Fatal(err)
		}
		defer cache.Close()

		service := tasteprofile.NewService(tasteprofile.Options{
			Site:  douban.DefaultSite(),
			Store: tastestore.NewStore(sqlite),
			Cache: cache,
		})

		result, err := service.GetTasteProfile(cmd.Context(), args[0])
		if err != nil {
			log.Fatal(err)
		}

		fmt.Printf("user: %s", result.Profile.ID)
		if result.Profile.Name != "" {
			fmt.Printf(" (%s)", result.Profile.Name)
		}
		fmt.Println()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"category", "sampled", "declared", "name hint"})
		appendCategory(t, "books", result.Input.Books)
		appendCategory(t, "movies", result.Input.Movies)
		appendCategory(t, "music", result.Input.Music)
		t.Render()

		if result.Truncated {
			fmt.Printf(
				"truncated to fit the token budget (from %d/%d/%d items)\n",
				result.Original.Books, result.Original.Movies, result.Original.Music,
			)
		}
	},
}

func appendCategory(t table.Writer, label string, category taste.SampledCategory) {
	declared := fmt.Sprint(category.RealCount)
	if category.LowConfidenceTotal {
		declared += " (low confidence)"
	}
	t.AppendRow(table.Row{label, len(category.Items), declared, category.NameHint})
}
