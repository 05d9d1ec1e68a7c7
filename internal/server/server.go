// Package server streams a running engine over websockets and accepts
// insertion requests from clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/gravity"
)

const (
	sendBuffer   = 16
	writeTimeout = 5 * time.Second
)

type Options struct {
	FPS           int
	TicksPerFrame int
	Class         gravity.MassClass
	Insert        gravity.InsertOptions
}

// Server owns one engine. Only the Run goroutine touches it; connection
// handlers talk to that goroutine through the adds channel.
type Server struct {
	eng    *gravity.Engine
	opts   Options
	logger *log.Logger

	upgrader websocket.Upgrader
	adds     chan addRequest
	done     chan struct{}

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type addRequest struct {
	pos   r3.Vec
	class gravity.MassClass
	reply chan Message
}

func New(eng *gravity.Engine, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	opts.FPS = max(opts.FPS, 1)
	opts.TicksPerFrame = max(opts.TicksPerFrame, 1)
	return &Server{
		eng:    eng,
		opts:   opts,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		adds:    make(chan addRequest),
		done:    make(chan struct{}),
		clients: make(map[*client]struct{}),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return mux
}

// Run advances the engine at the configured frame rate, broadcasting a frame
// after each batch of ticks, until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	defer close(s.done)

	ticker := time.NewTicker(time.Second / time.Duration(s.opts.FPS))
	defer ticker.Stop()

	s.logger.Info("engine loop started", "fps", s.opts.FPS, "ticks_per_frame", s.opts.TicksPerFrame, "bodies", s.eng.Len())
	for {
		select {
		case <-ctx.Done():
			s.closeClients()
			return nil
		case req := <-s.adds:
			req.reply <- s.insert(req)
		case <-ticker.C:
			for i := 0; i < s.opts.TicksPerFrame; i++ {
				s.eng.Tick()
			}
			if n := s.eng.DegeneratePairs(); n > 0 {
				s.logger.Debug("coincident bodies skipped", "tick", s.eng.Ticks(), "pairs", n)
			}
			s.broadcast(frameOf(s.eng))
		}
	}
}

func (s *Server) insert(req addRequest) Message {
	h, err := s.eng.Insert(req.pos, req.class, s.opts.Insert)
	if err != nil {
		s.logger.Warn("insert rejected", "pos", req.pos, "class", req.class, "err", err)
		return rejected(err, s.eng.Ticks())
	}
	s.logger.Info("body inserted", "handle", h, "class", req.class, "bodies", s.eng.Len())
	return added(h, s.eng.Ticks())
}

// ListenAndServe serves Handler on addr and runs the engine loop until ctx
// is done or either fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Run(ctx) })
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		return srv.Shutdown(shutdown)
	})
	return g.Wait()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	s.register(c)
	s.logger.Info("client connected", "remote", conn.RemoteAddr())

	go s.writeLoop(c)
	s.readLoop(r.Context(), c)

	s.unregister(c)
	s.logger.Info("client disconnected", "remote", conn.RemoteAddr())
}

func (s *Server) readLoop(ctx context.Context, c *client) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			s.reply(c, rejected(fmt.Errorf("malformed request: %w", err), 0))
			continue
		}

		msg, ok := s.handleRequest(ctx, req)
		if !ok {
			return
		}
		s.reply(c, msg)
	}
}

func (s *Server) handleRequest(ctx context.Context, req Request) (Message, bool) {
	if req.Op != "add" {
		return rejected(fmt.Errorf("unknown op %q", req.Op), 0), true
	}
	class := s.opts.Class
	if req.Class != "" {
		var err error
		if class, err = gravity.ParseMassClass(req.Class); err != nil {
			return rejected(err, 0), true
		}
	}

	ar := addRequest{pos: vec(req.Pos), class: class, reply: make(chan Message, 1)}
	select {
	case s.adds <- ar:
	case <-ctx.Done():
		return Message{}, false
	case <-s.done:
		return Message{}, false
	}
	return <-ar.reply, true
}

func (s *Server) writeLoop(c *client) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}

func (s *Server) reply(c *client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("encode failed", "err", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		s.logger.Warn("reply dropped, client buffer full", "type", msg.Type)
	}
}

// broadcast queues msg for every client, dropping it for clients whose
// buffer is full.
func (s *Server) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("encode failed", "err", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
}

func (s *Server) closeClients() {
	s.mu.Lock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
