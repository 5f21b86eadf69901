package commands

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"tastecard-backend/lib/scrapers/douban"
	"tastecard-backend/lib/taste"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan <declared total>",
	Short: "Show which listing pages a scrape would fetch for a total.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "incorrect number of arguments")
			os.Exit(1)
		}
		total, err := strconv.Atoi(args[0])
		if err != nil {
			log.Fatal(err)
		}

		pages := taste.PlanPages(total, douban.PageSize)
		fmt.Printf("page 0 (start=0)\n")
		for _, page := range pages {
			fmt.Printf("page %d (start=%d)\n", page, page*douban.PageSize)
		}
	},
}
