package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var checkpointHeight uint

// checkpointCmd represents the checkpoint command.
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Look up the checkpointed block hash for a height.",
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := http.Get(fmt.Sprintf("%s/v1/checkpoint/%d", url, checkpointHeight))
		if err != nil {
			log.Fatal(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.Fatalf("height is not checkpointed: %s", resp.Status)
		}

		var out struct{ Hash string }
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			log.Fatal(err)
		}
		fmt.Println(out.Hash)
	},
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	checkpointCmd.Flags().UintVarP(&checkpointHeight, "height", "t", 0, "Block height to look up.")
	checkpointCmd.MarkFlagRequired("height")
}
