package server

import (
	"log"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"arena-server/auth"
	"arena-server/game"
	"arena-server/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// Options wires the server to the rest of the process
type Options struct {
	Game           *game.Game
	Analytics      *store.Analytics // nil disables /api/v1/stats
	Auth           *auth.Auth       // nil disables the admin API
	PublicURL      string
	ClientDir      string
	MaxConnections int
	MaxPerIP       int
}

// Server owns the hub and serves HTTP
type Server struct {
	hub       *Hub
	game      *game.Game
	analytics *store.Analytics
	auth      *auth.Auth
	publicURL string
	clientDir string
	started   time.Time
}

// New creates a server and starts its hub
func New(opts Options) *Server {
	s := &Server{
		hub:       NewHub(opts.Game, opts.MaxConnections, opts.MaxPerIP),
		game:      opts.Game,
		analytics: opts.Analytics,
		auth:      opts.Auth,
		publicURL: opts.PublicURL,
		clientDir: opts.ClientDir,
		started:   time.Now(),
	}
	go s.hub.Run()
	return s
}

// Hub returns the connection hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Close stops the hub
func (s *Server) Close() {
	s.hub.Stop()
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Routes builds the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger)
		r.Mount("/api", s.apiRouter())
		r.Get("/join.png", s.handleJoinQR)
	})

	if s.clientDir != "" {
		fs := http.FileServer(http.Dir(s.clientDir))
		r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// always revalidate so a redeploy reaches browsers
			w.Header().Set("Cache-Control", "no-cache")
			fs.ServeHTTP(w, r)
		}))
	}
	return r
}

func (s *Server) apiRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/v1", func(sub chi.Router) {
		sub.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})
		sub.Get("/metrics", s.handleMetrics)
		sub.Get("/leaderboard", s.handleLeaderboard)
		sub.Get("/stats", s.handleStats)

		sub.Route("/admin", func(admin chi.Router) {
			admin.Post("/login", s.handleLogin)
			admin.Group(func(protected chi.Router) {
				protected.Use(s.requireAdmin)
				protected.Delete("/players/{id}", s.handleKick)
			})
		})
	})
	return r
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ip := extractIP(r)
	if !s.hub.CanAccept(ip) {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	// reserve the slot before the handshake completes
	s.hub.TrackConnect(ip)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.hub.TrackDisconnect(ip)
		log.Printf("upgrade error: %v", err)
		return
	}

	client := NewClient(s.hub, conn, ip)
	s.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}
