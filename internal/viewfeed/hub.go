package viewfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/othello-turn-client/internal/obslog"
	"github.com/park285/othello-turn-client/internal/view"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const (
	sendBuffer   = 16
	pingInterval = 15 * time.Second
	writeTimeout = 5 * time.Second
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts frames to websocket subscribers. A new subscriber first
// receives the latest frame.
type Hub struct {
	allowOrigins map[string]bool

	mu      sync.RWMutex
	clients map[*client]struct{}
	latest  []byte
}

func NewHub(allowOrigins []string) *Hub {
	m := map[string]bool{}
	for _, a := range allowOrigins {
		if a != "" {
			m[a] = true
		}
	}
	return &Hub{allowOrigins: m, clients: map[*client]struct{}{}}
}

func (h *Hub) Name() string { return "websocket" }

// Show implements view.Display. Slow subscribers drop frames; the next frame
// fully replaces the missed ones.
func (h *Hub) Show(f view.Frame) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = raw
	for c := range h.clients {
		select {
		case c.send <- raw:
		default:
			obslog.L().Debug("view_feed_frame_dropped", zap.String("client", c.id), zap.Uint64("seq", f.Seq))
		}
	}
	return nil
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	return mux
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" && len(h.allowOrigins) > 0 && !h.allowOrigins[origin] {
		http.Error(w, "forbidden origin", http.StatusForbidden)
		return
	}

	// origin was checked above against the allow list
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		obslog.L().Warn("view_feed_accept_failed", zap.Error(err))
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.mu.Unlock()
	obslog.L().Info("view_feed_connected", zap.String("client", c.id))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.writeLoop(ctx, c)

	// subscribers only listen; reads just detect the close
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	obslog.L().Info("view_feed_disconnected", zap.String("client", c.id))
}

func (h *Hub) writeLoop(ctx context.Context, c *client) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-ping.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		}
	}
}

// closeAll ends every subscriber; hijacked connections outlive http.Server.Shutdown.
func (h *Hub) closeAll() {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c.conn)
	}
	h.mu.RUnlock()
	for _, conn := range conns {
		_ = conn.Close(websocket.StatusGoingAway, "shutting down")
	}
}

// Serve runs the feed on addr until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return h.ServeListener(ctx, ln)
}

func (h *Hub) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
		h.closeAll()
	}()
	obslog.L().Info("view_feed_listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
