package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var snAccount string

// serviceNodeCmd represents the servicenode command.
var serviceNodeCmd = &cobra.Command{
	Use:   "servicenode",
	Short: "Look up a bonded service node, or the total count if no account is given.",
	Run: func(cmd *cobra.Command, args []string) {
		if snAccount == "" {
			resp, err := http.Get(fmt.Sprintf("%s/v1/servicenode/count", url))
			if err != nil {
				log.Fatal(err)
			}
			defer resp.Body.Close()

			var out struct{ Count int }
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				log.Fatal(err)
			}
			fmt.Println("bonded nodes:", out.Count)
			return
		}

		resp, err := http.Get(fmt.Sprintf("%s/v1/servicenode/%s", url, snAccount))
		if err != nil {
			log.Fatal(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.Fatalf("node not found: %s", resp.Status)
		}

		var raw json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			log.Fatal(err)
		}

		pretty, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(string(pretty))
	},
}

func init() {
	rootCmd.AddCommand(serviceNodeCmd)
	serviceNodeCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	serviceNodeCmd.Flags().StringVarP(&snAccount, "account", "a", "", "Account to look up. Omit for the total bonded count.")
}
