package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/jroimartin/gocui"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"carthedge/client"
	"carthedge/configs"
	"carthedge/crypto/key25519"
	"carthedge/gate"
	"carthedge/handshake"
)

var logger = logrus.New()

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: client <userID>")
		return
	}
	userID := os.Args[1]

	envPath := fmt.Sprintf("%s/.env.%s", configs.SecretDir, userID)
	if _, err := os.Stat(envPath); err != nil {
		logger.Fatalf("no keys for %s — run gen_keys %s first: %v", userID, userID, err)
	}
	if err := godotenv.Load(envPath); err != nil {
		logger.Fatalf("loading env file: %v", err)
	}

	identityKey, err := decodeHexPrivateKey(os.Getenv("IDENTITY_KEY"))
	if err != nil {
		logger.Fatalf("decoding IDENTITY_KEY: %v", err)
	}
	prekey, err := decodeHexPrivateKey(os.Getenv("PREKEY"))
	if err != nil {
		logger.Fatalf("decoding PREKEY: %v", err)
	}

	identity := handshake.PrivatePrekeyBundle{IdentityKey: identityKey, Prekey: prekey}
	chatApp := client.NewChatApp(userID, identity, gate.NewLoggingGate(gate.AllowAllGate{}, logger))

	if err := chatApp.InitGui(); err != nil {
		logger.Fatalf("initializing gocui: %v", err)
	}
	if err := chatApp.PostKeys(); err != nil {
		logger.Fatalf("publishing keys: %v", err)
	}
	if err := chatApp.PromptRecipientID(); err != nil {
		logger.Fatalf("prompting recipient ID: %v", err)
	}

	if err := chatApp.Gui.MainLoop(); err != nil && !errors.Is(err, gocui.ErrQuit) {
		logger.Fatalf("gocui main loop: %v", err)
	}
	logger.Info("application exited")
}

func decodeHexPrivateKey(hexStr string) (key25519.PrivateKey, error) {
	var out key25519.PrivateKey
	if len(hexStr) == 0 {
		return out, fmt.Errorf("empty key material")
	}
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return out, err
	}
	if len(decoded) != 32 {
		return out, fmt.Errorf("decoded key is %d bytes, want 32", len(decoded))
	}
	copy(out[:], decoded)
	return out, nil
}
