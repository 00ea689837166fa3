package inspect

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/fibre/pkg/dom"
	"github.com/vango-dev/fibre/pkg/fiber"
	"github.com/vango-dev/fibre/pkg/middleware"
	"github.com/vango-dev/fibre/pkg/protocol"
	"github.com/vango-dev/fibre/pkg/snapshot"
)

// Option configures a Server.
type Option func(*Server)

// WithStore sets the snapshot store. Without one the /snapshots routes
// answer 404.
func WithStore(s snapshot.Store) Option {
	return func(srv *Server) {
		srv.store = s
	}
}

// WithGatherer sets the registry served on /metrics.
// Default: prometheus.DefaultGatherer
func WithGatherer(g prometheus.Gatherer) Option {
	return func(srv *Server) {
		srv.gatherer = g
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(srv *Server) {
		if l != nil {
			srv.logger = l
		}
	}
}

// WithMetrics records request and WebSocket metrics into m.
func WithMetrics(m *middleware.Metrics) Option {
	return func(srv *Server) {
		srv.metrics = m
	}
}

// WithMiddleware adds HTTP middleware, such as middleware.OpenTelemetry,
// run after recovery and metrics.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(srv *Server) {
		srv.middlewares = append(srv.middlewares, mw...)
	}
}

// WithCheckOrigin sets the WebSocket origin check. The default accepts
// same-host origins only.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(srv *Server) {
		srv.upgrader.CheckOrigin = fn
	}
}

// Server mirrors a scheduler's document to HTTP and WebSocket clients.
type Server struct {
	sched    *fiber.Scheduler
	doc      *dom.Document
	store    snapshot.Store
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	upgrader websocket.Upgrader
	metrics  *middleware.Metrics

	middlewares []func(http.Handler) http.Handler

	// Owned by the scheduler loop.
	seq     uint64
	clients map[*client]bool
	cancel  func()

	closeOnce sync.Once
}

// New creates a Server and starts observing the scheduler's document.
func New(sched *fiber.Scheduler, opts ...Option) *Server {
	s := &Server{
		sched:    sched,
		doc:      sched.Document(),
		gatherer: prometheus.DefaultGatherer,
		logger:   slog.Default(),
		clients:  make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "inspect")
	err := sched.Do(func() {
		s.cancel = s.doc.Observe(s.broadcast)
	})
	if err != nil {
		s.logger.Error("observe document", "err", err)
	}
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.metrics.Handler)
	r.Use(s.middlewares...)

	r.Get("/ws", s.handleWebSocket)
	r.Get("/snapshot", s.handleSnapshot)
	r.Get("/query", s.handleQuery)
	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", s.handleListSnapshots)
		r.Post("/{name}", s.handlePutSnapshot)
		r.Get("/{name}", s.handleGetSnapshot)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	n := 0
	_ = s.sched.Do(func() {
		n = len(s.clients)
	})
	return n
}

// Close stops observing the document and disconnects every client.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		err := s.sched.Do(func() {
			if s.cancel != nil {
				s.cancel()
			}
			for c := range s.clients {
				s.dropClient(c)
			}
		})
		if err != nil {
			s.logger.Debug("scheduler closed before inspector", "err", err)
		}
	})
}

// broadcast runs on the loop for every batch of records.
func (s *Server) broadcast(records []dom.MutationRecord) {
	if len(s.clients) == 0 {
		return
	}
	s.seq++
	frames, err := protocol.EncodeMutations(&protocol.MutationsFrame{
		Seq:       s.seq,
		Mutations: protocol.FromRecords(records),
	})
	if err != nil {
		s.logger.Error("encode mutations", "seq", s.seq, "err", err)
		return
	}
	for c := range s.clients {
		if !c.sendAll(frames) {
			s.logger.Warn("dropping slow client", "remote", c.remote)
			s.metrics.RecordWebSocketError("slow_client")
			s.dropClient(c)
			continue
		}
		s.metrics.RecordFrames(len(frames))
	}
}

// addClient registers c. Called on the loop.
func (s *Server) addClient(c *client) {
	s.clients[c] = true
	s.metrics.ClientConnected()
}

// dropClient unregisters and closes c. Called on the loop.
func (s *Server) dropClient(c *client) {
	if !s.clients[c] {
		return
	}
	delete(s.clients, c)
	c.close()
	s.metrics.ClientDisconnected()
}

// initialFrames describes the current body as inserts. Called on the loop.
func (s *Server) initialFrames() ([]*protocol.Frame, error) {
	var ms []protocol.Mutation
	for i, child := range dom.Children(s.doc.Body()) {
		ms = append(ms, protocol.Mutation{
			Kind:       dom.MutationInsert,
			ParentPath: []int{},
			Index:      i,
			Node:       dom.Clone(child),
		})
	}
	return protocol.EncodeMutations(&protocol.MutationsFrame{Seq: s.seq, Mutations: ms})
}
