package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playdehla/dehla-backend/internal/entity"
	"github.com/playdehla/dehla-backend/internal/usecase"
)

type roomManager interface {
	Connect(ctx context.Context, sessionID string) (*entity.Session, error)
	CreateRoom(ctx context.Context, playerID, playerName string, numPlayers int) (*entity.Room, error)
	JoinRoom(ctx context.Context, playerID, playerName, roomID string) (*entity.Room, error)
	RoomState(ctx context.Context, roomID string) (*usecase.RoomUpdatePayload, error)
	ChooseTrump(ctx context.Context, playerID, roomID string, trump entity.Suit) error
	PlayCard(ctx context.Context, playerID, roomID string, cardIndex int) error
	Disconnect(ctx context.Context, playerID string) error
}

// Server accepts websocket connections, maps inbound actions to room
// manager calls and delivers the manager's fan-out. It is the Notifier
// implementation the manager emits through.
type Server struct {
	logger  *slog.Logger
	manager roomManager

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client

	handlers map[string]func(ctx context.Context, msg *Message, cl *client) error
}

func New(logger *slog.Logger, manager roomManager) *Server {
	server := &Server{
		logger:  logger,
		manager: manager,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		clients:  make(map[string]*client),
		handlers: make(map[string]func(context.Context, *Message, *client) error),
	}

	server.handlers["room:create"] = server.handleCreateRoom
	server.handlers["room:join"] = server.handleJoinRoom
	server.handlers["room:state"] = server.handleRoomState
	server.handlers["game:trump"] = server.handleChooseTrump
	server.handlers["game:play"] = server.handlePlayCard

	return server
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveConnection upgrades the request, establishes a session and runs
// the read loop until the socket closes.
func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	session, err := that.manager.Connect(ctx, r.URL.Query().Get("session"))
	if err != nil {
		log.Error("failed to establish session", "error", err)
		conn.Close()
		return
	}

	cl := newClient(session.ID, conn)

	that.mu.Lock()
	if previous, ok := that.clients[session.ID]; ok {
		// A reconnect or duplicate tab presented the same session. The
		// newest socket owns the seat; the superseded one is shut down
		// and must not unseat the player when it unwinds.
		previous.close()
	}
	that.clients[session.ID] = cl
	that.mu.Unlock()

	go cl.writePump(that.logger)

	that.send(cl, actionConnect, ConnectPayload{Session: session})

	log.Info("websocket connection established", "playerID", session.ID)

	that.readPump(ctx, cl)
}

// readPump processes inbound messages for one client until the socket
// drops, then unseats the player.
func (that *Server) readPump(ctx context.Context, cl *client) {
	log := that.logger.With("method", "readPump", "playerID", cl.id)

	defer that.dropClient(ctx, cl)

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			log.Debug("connection closed", "error", err)
			return
		}

		var msg Message
		if err = json.Unmarshal(data, &msg); err != nil {
			that.sendError(cl, actionError, "malformed message")
			continue
		}

		handler, ok := that.handlers[msg.Action]
		if !ok {
			that.sendError(cl, msg.Action, "unknown action")
			continue
		}

		if err = handler(ctx, &msg, cl); err != nil {
			log.Error("failed to process message", "action", msg.Action, "error", err)
		}
	}
}

func (that *Server) dropClient(ctx context.Context, cl *client) {
	that.mu.Lock()
	current := that.clients[cl.id] == cl
	if current {
		delete(that.clients, cl.id)
	}
	that.mu.Unlock()

	cl.close()

	// A superseded socket unwinding must not unseat the player: a newer
	// connection holds the seat under the same session.
	if !current {
		return
	}

	if err := that.manager.Disconnect(ctx, cl.id); err != nil {
		that.logger.Error("failed to handle disconnect", "playerID", cl.id, "error", err)
	}
}

// ToPlayer delivers one event to one seat. Implements usecase.Notifier.
func (that *Server) ToPlayer(playerID, action string, payload any) {
	that.mu.RLock()
	cl, ok := that.clients[playerID]
	that.mu.RUnlock()

	if !ok {
		that.logger.Warn("connection not found for player", "playerID", playerID, "action", action)
		return
	}

	that.send(cl, action, payload)
}

// ToRoom delivers one event to every seat of a room.
func (that *Server) ToRoom(room *entity.Room, action string, payload any) {
	for _, player := range room.Players {
		that.ToPlayer(player.ID, action, payload)
	}
}

// send marshals and queues a message. The queue never blocks the
// caller: a slow client loses the message rather than stalling a room.
func (that *Server) send(cl *client, action string, payload any) {
	data, err := encodeMessage(action, payload)
	if err != nil {
		that.logger.Error("failed to encode message", "action", action, "error", err)
		return
	}

	if !cl.enqueue(data) {
		that.logger.Warn("dropped message for slow client", "playerID", cl.id, "action", action)
	}
}

func (that *Server) sendError(cl *client, action, reason string) {
	that.send(cl, action, ErrorPayload{Error: reason})
}
