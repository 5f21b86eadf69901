package commands

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"

	"tastecard-backend/lib/scrapers/douban"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(solveCmd)
}

var solveCmd = &cobra.Command{
	Use:   "solve <challenge> <difficulty>",
	Short: "Solve a proof-of-work challenge by hand, for debugging.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "incorrect number of arguments")
			os.Exit(1)
		}
		difficulty, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal(err)
		}

		nonce, err := douban.SolveChallenge(args[0], difficulty)
		if err != nil {
			log.Fatal(err)
		}

		digest := sha1.Sum([]byte(args[0] + strconv.Itoa(nonce)))
		fmt.Printf("nonce:  %d\n", nonce)
		fmt.Printf("digest: %s\n", hex.EncodeToString(digest[:]))
	},
}
