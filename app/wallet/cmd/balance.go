package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

// balanceCmd represents the balance command
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA("private.ecdsa")
		if err != nil {
			log.Fatal(err)
		}
		account := database.PublicKeyToAccountID(privateKey.PublicKey)
		fmt.Println("For Account:", account)
		resp, err := http.Get(fmt.Sprintf("%s/v1/accounts/%s", url, account))
		if err != nil {
			log.Fatal(err)
		}
		defer resp.Body.Close()
		decoder := json.NewDecoder(resp.Body)
		var acct database.Account
		if err := decoder.Decode(&acct); err != nil {
			log.Fatal(err)
		}
		fmt.Println(acct.Balance)
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}
