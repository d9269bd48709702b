package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	url   string
	to    string
	value uint
	tip   uint
	data  string
	file  string
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		if file == "" {
			sendWithDetails(privateKey)
			return
		}

		sendWithFile(privateKey)
	},
}

func sendWithFile(privateKey *ecdsa.PrivateKey) {
}

func sendWithDetails(privateKey *ecdsa.PrivateKey) {
	account := database.PublicKeyToAccountID(privateKey.PublicKey)

	resp, err := http.Get(fmt.Sprintf("%s/v1/accounts/%s", url, account))
	if err != nil {
		log.Fatal(err)
	}
	var acct database.Account
	if err := json.NewDecoder(resp.Body).Decode(&acct); err != nil {
		log.Fatal(err)
	}
	resp.Body.Close()

	toID, err := database.ToAccountID(to)
	if err != nil {
		log.Fatal(err)
	}

	tx, err := database.NewTx(acct.Nonce+1, toID, uint64(value), uint64(tip), []byte(data))
	if err != nil {
		log.Fatal(err)
	}

	signedTx, err := tx.Sign(privateKey)
	if err != nil {
		log.Fatal(err)
	}

	payload, err := json.Marshal(signedTx)
	if err != nil {
		log.Fatal(err)
	}

	resp, err = http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewBuffer(payload))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account to send to.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.Flags().UintVarP(&value, "value", "v", 0, "Value to send.")
	sendCmd.Flags().UintVarP(&tip, "tip", "c", 0, "Tip to send.")
	sendCmd.Flags().StringVarP(&data, "data", "d", "", "Data to send.")
	sendCmd.Flags().StringVarP(&data, "file", "f", "", "File to read for transactions.")
}
