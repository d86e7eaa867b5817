package main

import (
	"fmt"
	"log"
	"os"

	"carthedge/configs"
	"carthedge/crypto/key25519"
)

// gen_keys writes a fresh identity + signed-prekey pair to
// <SecretDir>/.env.<userID> for cmd/client to load. It refuses to overwrite
// an existing file for the same userID.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: gen_keys <userID>")
		return
	}
	userID := os.Args[1]

	if err := os.MkdirAll(configs.SecretDir, 0o700); err != nil {
		log.Fatalf("creating secret dir: %v", err)
	}
	envPath := fmt.Sprintf("%s/.env.%s", configs.SecretDir, userID)
	if _, err := os.Stat(envPath); err == nil {
		log.Fatalf("keys for %s already exist at %s", userID, envPath)
	}

	identity, err := key25519.New()
	if err != nil {
		log.Fatalf("generating identity key: %v", err)
	}
	prekey, err := key25519.New()
	if err != nil {
		log.Fatalf("generating prekey: %v", err)
	}

	file, err := os.OpenFile(envPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		log.Fatalf("creating env file: %v", err)
	}
	defer file.Close()

	if _, err := fmt.Fprintf(file, "IDENTITY_KEY=%x\n", *identity); err != nil {
		log.Fatalf("writing identity key: %v", err)
	}
	if _, err := fmt.Fprintf(file, "PREKEY=%x\n", *prekey); err != nil {
		log.Fatalf("writing prekey: %v", err)
	}

	fmt.Printf("wrote %s\n", envPath)
}
