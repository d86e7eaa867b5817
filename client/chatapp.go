package client

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/jroimartin/gocui"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"carthedge/common"
	"carthedge/configs"
	"carthedge/gate"
	"carthedge/handshake"
	"carthedge/ratchet"
)

var logger = logrus.New()

// ChatApp is a single pairwise chat session: one local identity, one peer,
// one ratchet. It owns its WebSocket connection and its gocui screen.
type ChatApp struct {
	Gui         *gocui.Gui
	recipientID string
	messages    []string
	wsConn      *websocket.Conn
	messageLock sync.Mutex
	userID      string
	wg          sync.WaitGroup

	identity         handshake.PrivatePrekeyBundle
	otherBundle      handshake.PublicPrekeyBundle
	ratchetState     *ratchet.State
	pendingHandshake *common.HandshakeBundle
	gate             gate.Gate
}

// NewChatApp builds a ChatApp for userID with its already-loaded identity
// bundle. g governs every ratchet transition this session performs; pass
// gate.AllowAllGate{} for a local demo run.
func NewChatApp(userID string, identity handshake.PrivatePrekeyBundle, g gate.Gate) *ChatApp {
	return &ChatApp{userID: userID, identity: identity, gate: g}
}

// connectToWebSocket dials the relay, fetches the peer's published prekey
// bundle, restores any persisted session, and starts the receive loop.
// Requires recipientID to already be set.
func (app *ChatApp) connectToWebSocket() error {
	serverURL := fmt.Sprintf("ws://%s%s?userId=%s", configs.ServerAddress, configs.WebSocketPath, app.userID)
	conn, _, err := websocket.DefaultDialer.Dial(serverURL, nil)
	if err != nil {
		return fmt.Errorf("connect to relay: %w", err)
	}
	app.wsConn = conn

	theirBundle, err := app.GetKeys(app.recipientID)
	if err != nil {
		logger.Fatalf("fetching recipient keys: %v", err)
	}
	app.otherBundle = *theirBundle

	if err := app.load(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("loading persisted session: %w", err)
	}

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.listenForMessages()
	}()
	return nil
}

func (app *ChatApp) listenForMessages() {
	for {
		_, raw, err := app.wsConn.ReadMessage()
		if err != nil {
			logger.Errorf("reading from relay: %v", err)
			return
		}

		var bundle common.MessageBundle
		if err := json.Unmarshal(raw, &bundle); err != nil {
			logger.Errorf("unmarshalling message bundle: %v", err)
			continue
		}

		plaintext, err := app.decryptMessage(&bundle)
		if err != nil {
			status := statusFor(err)
			logger.Errorf("decrypting message: %s", status)
			app.messageLock.Lock()
			app.messages = append(app.messages, "[system] "+status)
			app.messageLock.Unlock()
			continue
		}

		app.messageLock.Lock()
		app.messages = append(app.messages, fmt.Sprintf("[%s] %s", bundle.From, plaintext))
		app.messageLock.Unlock()

		app.Gui.Update(func(g *gocui.Gui) error {
			return app.UpdateMessages(g)
		})
	}
}

func (app *ChatApp) sendMessage(message string) error {
	if app.wsConn == nil {
		return fmt.Errorf("relay connection not established")
	}

	bundle, err := app.encryptMessage(message)
	if err != nil {
		return fmt.Errorf("encrypt message: %w", err)
	}

	raw, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("marshal message bundle: %w", err)
	}
	if err := app.wsConn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (app *ChatApp) quit(_ *gocui.Gui, _ *gocui.View) error {
	logger.Info("shutting down")
	if app.wsConn != nil {
		app.wsConn.Close()
	}
	app.wg.Wait()

	if err := app.save(); err != nil {
		logger.Errorf("saving session: %v", err)
	}

	// Secret hygiene (SPEC_FULL.md §9): the persisted copy in Redis is what
	// resumes the session on next launch, but the in-memory copy has no
	// further reason to exist once it's saved, so it's wiped before exit.
	if app.ratchetState != nil {
		app.ratchetState.Zeroize()
	}
	return gocui.ErrQuit
}

// PostKeys publishes this app's own public prekey bundle to the relay.
func (app *ChatApp) PostKeys() error {
	serverURL := fmt.Sprintf("http://%s%s/%s", configs.ServerAddress, configs.PublishKeysPath, app.userID)

	bundle, err := app.identity.Publish()
	if err != nil {
		return fmt.Errorf("publish own bundle: %w", err)
	}
	raw, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}

	resp, err := http.Post(serverURL, "application/json", bytes.NewBuffer(raw))
	if err != nil {
		return fmt.Errorf("post keys: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay returned %s publishing keys", resp.Status)
	}
	return nil
}

// GetKeys fetches recipientID's published prekey bundle from the relay.
func (app *ChatApp) GetKeys(recipientID string) (*handshake.PublicPrekeyBundle, error) {
	serverURL := fmt.Sprintf("http://%s%s/%s", configs.ServerAddress, configs.PublishKeysPath, recipientID)

	resp, err := http.Get(serverURL)
	if err != nil {
		return nil, fmt.Errorf("get keys: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("relay returned %s fetching keys", resp.Status)
	}

	var bundle handshake.PublicPrekeyBundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &bundle, nil
}

// save persists the ratchet state, message history, and any still-pending
// handshake bundle to Redis, keyed by (userID, recipientID).
//
// The skipped-key store's internal map is unexported and so is dropped by
// gob across a save/load cycle — a restart loses in-flight out-of-order
// recovery state but never a chain key, which stays intact.
func (app *ChatApp) save() error {
	rdb := redis.NewClient(&redis.Options{Addr: configs.RedisAddress})
	defer rdb.Close()
	ctx := context.Background()

	if app.ratchetState != nil {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(app.ratchetState); err != nil {
			return fmt.Errorf("encode ratchet state: %w", err)
		}
		key := fmt.Sprintf(configs.ClientRatchetKey, app.userID, app.recipientID)
		if err := rdb.Set(ctx, key, buf.Bytes(), 0).Err(); err != nil {
			return fmt.Errorf("store ratchet state: %w", err)
		}
	}

	var messagesBuf bytes.Buffer
	if err := gob.NewEncoder(&messagesBuf).Encode(app.messages); err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	msgKey := fmt.Sprintf(configs.ClientOfflineQueueKey, app.userID, app.recipientID)
	if err := rdb.Set(ctx, msgKey, messagesBuf.Bytes(), 0).Err(); err != nil {
		return fmt.Errorf("store messages: %w", err)
	}

	if app.pendingHandshake != nil {
		var hsBuf bytes.Buffer
		if err := gob.NewEncoder(&hsBuf).Encode(app.pendingHandshake); err != nil {
			return fmt.Errorf("encode pending handshake: %w", err)
		}
		hsKey := fmt.Sprintf(configs.ClientHandshakeKey, app.userID, app.recipientID)
		if err := rdb.Set(ctx, hsKey, hsBuf.Bytes(), 0).Err(); err != nil {
			return fmt.Errorf("store pending handshake: %w", err)
		}
	}

	return nil
}

func (app *ChatApp) load() error {
	rdb := redis.NewClient(&redis.Options{Addr: configs.RedisAddress})
	defer rdb.Close()
	ctx := context.Background()

	ratchetKey := fmt.Sprintf(configs.ClientRatchetKey, app.userID, app.recipientID)
	if data, err := rdb.Get(ctx, ratchetKey).Bytes(); err == nil {
		app.ratchetState = &ratchet.State{}
		if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(app.ratchetState); err != nil {
			return fmt.Errorf("decode ratchet state: %w", err)
		}
	} else if !errors.Is(err, redis.Nil) {
		return err
	}

	msgKey := fmt.Sprintf(configs.ClientOfflineQueueKey, app.userID, app.recipientID)
	if data, err := rdb.Get(ctx, msgKey).Bytes(); err == nil {
		if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&app.messages); err != nil {
			return fmt.Errorf("decode messages: %w", err)
		}
	} else if !errors.Is(err, redis.Nil) {
		return err
	}

	hsKey := fmt.Sprintf(configs.ClientHandshakeKey, app.userID, app.recipientID)
	if data, err := rdb.Get(ctx, hsKey).Bytes(); err == nil {
		app.pendingHandshake = &common.HandshakeBundle{}
		if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(app.pendingHandshake); err != nil {
			return fmt.Errorf("decode pending handshake: %w", err)
		}
	} else if !errors.Is(err, redis.Nil) {
		return err
	}

	return nil
}
