// This program backs up a pool account key into an encrypted keystore.
// The pool tooling works with plain ecdsa key files, so cold storage
// needs the extra encryption step.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/cmd/utils"
	"github.com/ethereum/go-ethereum/crypto"
)

func main() {
	keyPath := flag.String("key", "zard/accounts/private.ecdsa", "path to the plain ecdsa key file")
	storePath := flag.String("store", "zard/keystore/", "directory for the encrypted keystore")
	flag.Parse()

	privateKey, err := crypto.LoadECDSA(*keyPath)
	if err != nil {
		log.Fatalln(err)
	}

	password := getPassPhrase("Please enter a password to encrypt the backup:", true)

	ks := keystore.NewKeyStore(*storePath, keystore.StandardScryptN, keystore.StandardScryptP)
	acc, err := ks.ImportECDSA(privateKey, password)
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Printf("Backup created for account: %s\n", acc.Address.Hex())
}

func getPassPhrase(prompt string, confirmation bool) string {
	return utils.GetPassPhrase(prompt, confirmation)
}
