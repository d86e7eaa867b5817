// Package server is the relay: it routes opaque ciphertext envelopes
// between connected WebSocket clients, queues them in Redis for offline
// recipients, and hosts the prekey-bundle publish/fetch endpoints the
// handshake package's initiator uses to look up a responder. It never sees
// plaintext, a chain key, or a message key — only core.Envelope bytes and
// the public halves of a PrekeyBundle.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"carthedge/common"
	"carthedge/configs"
	"carthedge/handshake"
)

// Server holds the relay's connection table and its Redis-backed offline
// queue / prekey-bundle directory.
type Server struct {
	ctx       context.Context
	cancelCtx context.CancelFunc

	redisClient    *redis.Client
	connectedUsers map[string]*websocket.Conn
	mutex          *sync.Mutex
	logger         *logrus.Logger

	upgrader *websocket.Upgrader
}

// NewServer wires a Server to an already-connected Redis client.
func NewServer(ctx context.Context, redisClient *redis.Client, logger *logrus.Logger) *Server {
	ctx, cancelCtx := context.WithCancel(ctx)
	return &Server{
		ctx:            ctx,
		cancelCtx:      cancelCtx,
		redisClient:    redisClient,
		connectedUsers: make(map[string]*websocket.Conn),
		mutex:          &sync.Mutex{},
		logger:         logger,
		upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Close tears down every live connection and the Redis client.
func (s *Server) Close() {
	s.cancelCtx()
	s.mutex.Lock()
	for _, conn := range s.connectedUsers {
		conn.Close()
	}
	s.mutex.Unlock()
	s.redisClient.Close()
}

// HandleConnections upgrades the request to a WebSocket, registers userID as
// online, flushes any queued offline messages, then relays every message
// the client sends until it disconnects.
func (s *Server) HandleConnections(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorf("upgrading to websocket: %v", err)
		return
	}
	defer ws.Close()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		s.logger.Error("websocket connect missing userId")
		return
	}

	s.mutex.Lock()
	s.connectedUsers[userID] = ws
	s.mutex.Unlock()
	s.logger.Infof("user %s connected", userID)

	s.flushQueuedMessages(userID, ws)

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			s.logger.Errorf("reading message from %s: %v", userID, err)
			break
		}

		var bundle common.MessageBundle
		if err := json.Unmarshal(raw, &bundle); err != nil {
			s.logger.Errorf("invalid message bundle from %s: %v", userID, err)
			continue
		}
		bundle.From = userID
		s.relay(&bundle)
	}

	s.mutex.Lock()
	delete(s.connectedUsers, userID)
	s.mutex.Unlock()
	s.logger.Infof("user %s disconnected", userID)
}

// relay forwards bundle to its recipient if online, otherwise queues it.
func (s *Server) relay(bundle *common.MessageBundle) {
	s.mutex.Lock()
	conn, online := s.connectedUsers[bundle.To]
	s.mutex.Unlock()

	raw, err := json.Marshal(bundle)
	if err != nil {
		s.logger.Errorf("marshalling bundle for %s: %v", bundle.To, err)
		return
	}

	if online {
		if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			s.logger.Errorf("relaying to %s: %v", bundle.To, err)
		}
		return
	}

	key := fmt.Sprintf(configs.ServerMessageQueueKey, bundle.To)
	if err := s.redisClient.RPush(s.ctx, key, raw).Err(); err != nil {
		s.logger.Errorf("queuing message for %s: %v", bundle.To, err)
	}
}

// flushQueuedMessages delivers and clears any messages queued while userID
// was offline.
func (s *Server) flushQueuedMessages(userID string, ws *websocket.Conn) {
	key := fmt.Sprintf(configs.ServerMessageQueueKey, userID)
	messages, err := s.redisClient.LRange(s.ctx, key, 0, -1).Result()
	if err != nil {
		s.logger.Errorf("retrieving queued messages for %s: %v", userID, err)
		return
	}

	for _, message := range messages {
		if err := ws.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
			s.logger.Errorf("delivering queued message to %s: %v", userID, err)
			return
		}
	}
	s.redisClient.Del(s.ctx, key)
}

// HandlePostKeys publishes a caller's PublicPrekeyBundle under its userID.
func (s *Server) HandlePostKeys(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	var bundle handshake.PublicPrekeyBundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		http.Error(w, "invalid prekey bundle", http.StatusBadRequest)
		return
	}
	if err := bundle.Verify(); err != nil {
		http.Error(w, "prekey signature does not verify", http.StatusBadRequest)
		return
	}

	raw, err := json.Marshal(bundle)
	if err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	key := fmt.Sprintf(configs.ServerUserPubKey, userID)
	if err := s.redisClient.Set(s.ctx, key, raw, 0).Err(); err != nil {
		s.logger.Errorf("storing prekey bundle for %s: %v", userID, err)
		http.Error(w, "storage failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleGetKeys returns the PublicPrekeyBundle previously published for
// userID.
func (s *Server) HandleGetKeys(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	key := fmt.Sprintf(configs.ServerUserPubKey, userID)
	raw, err := s.redisClient.Get(s.ctx, key).Bytes()
	if err != nil {
		http.Error(w, "no prekey bundle for user", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}
