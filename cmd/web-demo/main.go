// Command web-demo serves a live game over WebSockets: browsers connect,
// pick which player to view as, and submit actions as JSON envelopes. One
// goroutine owns the loop; the hub fans per-viewer state out to clients.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cklapperich/lobstertcg/internal/cards"
	"github.com/cklapperich/lobstertcg/internal/config"
	"github.com/cklapperich/lobstertcg/internal/game"
	"github.com/cklapperich/lobstertcg/internal/rulesets/houserules"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // demo server, any origin may connect
	},
}

// WSMessage is the frame in both directions. Client to server: "join"
// (viewer selection) and "action" (an action envelope in data). Server to
// client: "view", "event" and "error".
type WSMessage struct {
	Type   string          `json:"type"`
	Viewer int             `json:"viewer,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	viewer int
}

type submission struct {
	client *Client
	raw    json.RawMessage
}

type Hub struct {
	log        *zap.Logger
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	actions    chan submission

	loop *game.GameLoop
}

func newHub(log *zap.Logger, loop *game.GameLoop) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		actions:    make(chan submission, 16),
		loop:       loop,
	}
}

// run owns the loop and the client set: every mutation of either happens
// on this goroutine, which is what keeps the single-threaded engine safe
// behind a concurrent transport.
func (h *Hub) run(ctx context.Context) error {
	h.loop.Events().Subscribe(func(ev game.Event) {
		h.broadcastEvent(ev)
	})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case client := <-h.register:
			h.clients[client] = true
			h.log.Info("client connected", zap.Int("viewer", client.viewer))
			h.sendView(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.Info("client disconnected")
			}

		case sub := <-h.actions:
			h.handleAction(sub)
		}
	}
}

func (h *Hub) handleAction(sub submission) {
	action, err := game.DecodeAction(sub.raw)
	if err != nil {
		h.sendError(sub.client, fmt.Sprintf("bad action: %v", err))
		return
	}
	h.loop.Submit(action)
	results, err := h.loop.ProcessAll()
	if err != nil {
		h.log.Error("processing failed", zap.Error(err))
		h.sendError(sub.client, err.Error())
		return
	}
	for _, res := range results {
		if res.Status != game.StatusExecuted {
			h.sendError(sub.client, res.Reason)
		}
		for _, w := range res.Warnings {
			h.sendError(sub.client, "warning: "+w)
		}
	}
	h.broadcastViews()
}

func (h *Hub) sendView(client *Client) {
	view, err := h.loop.ReadableState(client.viewer)
	if err != nil {
		h.sendError(client, err.Error())
		return
	}
	raw, err := json.Marshal(view)
	if err != nil {
		h.log.Error("marshal view", zap.Error(err))
		return
	}
	h.trySend(client, mustFrame(WSMessage{Type: "view", Viewer: client.viewer, Data: raw}))
}

func (h *Hub) broadcastViews() {
	for client := range h.clients {
		h.sendView(client)
	}
}

func (h *Hub) broadcastEvent(ev game.Event) {
	payload := map[string]any{
		"event":         string(ev.Type),
		"turn":          ev.Turn,
		"active_player": ev.ActivePlayer,
	}
	if ev.Action != nil {
		payload["action"] = string(ev.Action.Type())
	}
	if ev.Reason != "" {
		payload["reason"] = ev.Reason
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	frame := mustFrame(WSMessage{Type: "event", Data: raw})
	for client := range h.clients {
		h.trySend(client, frame)
	}
}

func (h *Hub) sendError(client *Client, reason string) {
	h.trySend(client, mustFrame(WSMessage{Type: "error", Reason: reason}))
}

// trySend drops the frame rather than blocking the hub on a slow client.
func (h *Hub) trySend(client *Client, frame []byte) {
	select {
	case client.send <- frame:
	default:
	}
}

func mustFrame(msg WSMessage) []byte {
	raw, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	return raw
}

func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.unregister <- c
		c.conn.Close()
	}()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "join":
			if msg.Viewer >= 0 && msg.Viewer < game.NumPlayers {
				c.viewer = msg.Viewer
			}
			hub.register <- c
		case "action":
			hub.actions <- submission{client: c, raw: msg.Data}
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for frame := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
}

func serveWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	client := &Client{conn: conn, send: make(chan []byte, 256)}
	go client.writePump()
	go client.readPump(hub)
}

func newDemoLoop(log *zap.Logger, cfg *config.Config, seed int64) (*game.GameLoop, error) {
	state := game.NewGameState(
		cfg.Playmat.GameConfig([game.NumPlayers]string{"Alice", "Bob"}),
		game.WithRand(rand.New(rand.NewSource(seed))),
	)
	deck, err := cards.DemoDeck().Build(cards.DemoLibrary())
	if err != nil {
		return nil, err
	}
	for p := 0; p < game.NumPlayers; p++ {
		if err := game.LoadDeck(state, game.ZoneKey(p, cfg.Playmat.DeckZone), deck, true); err != nil {
			return nil, err
		}
	}
	plugins := game.NewPluginManager(log)
	if err := plugins.Register(houserules.New()); err != nil {
		return nil, err
	}
	return game.NewGameLoop(state, plugins, log, cfg.Loop.GameLoopConfig()), nil
}

func main() {
	var (
		addr       = flag.String("addr", ":8080", "listen address")
		configPath = flag.String("config", "", "path to configuration file")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "shuffle seed")
	)
	flag.Parse()

	cfg := &config.Config{
		Logging: config.LoggingConfig{Level: "info", Format: "console"},
		Playmat: config.DefaultPlaymat(),
	}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	logger, err := config.BuildLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	loop, err := newDemoLoop(logger, cfg, *seed)
	if err != nil {
		logger.Fatal("building demo game", zap.Error(err))
	}
	hub := newHub(logger, loop)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, w, r)
	})
	server := &http.Server{Addr: *addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.run(ctx) })
	g.Go(func() error {
		logger.Info("web demo listening", zap.String("addr", *addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("web demo stopped", zap.Error(err))
	}
}
