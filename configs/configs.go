// Package configs centralizes the wire-level and storage-key constants
// shared by the server and client binaries. Secrets (identity/prekey
// material) are never stored here — they come from the environment via
// godotenv, loaded by cmd/client from the files cmd/gen_keys writes.
package configs

var (
	ServerAddress   = "localhost:8080"
	RedisAddress    = "localhost:6379"
	PublishKeysPath = "/keys"
	WebSocketPath   = "/ws"

	// SecretDir is where per-user .env.<userID> files live for local/demo
	// runs; cmd/gen_keys writes them, cmd/client reads them.
	SecretDir = "./secrets"

	// Redis keys. %s placeholders are filled with userID (and, for
	// per-peer keys, peerID) via fmt.Sprintf.

	ClientRatchetKey       = "client:ratchet:%s:%s"
	ClientChannelKey       = "client:channel:%s:%s"
	ClientOfflineQueueKey  = "client:offline:%s:%s"
	ClientHandshakeKey     = "client:handshake:%s:%s"
	ServerMessageQueueKey  = "server:messages:%s"
	ServerUserPubKey       = "publicKey:%s"
)
