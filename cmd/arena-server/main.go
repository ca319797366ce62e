// Command arena-server runs the authoritative arena and serves clients
// over WebSocket.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"arena-server/auth"
	"arena-server/config"
	"arena-server/game"
	"arena-server/server"
	"arena-server/store"
)

var (
	envFile   string
	addr      string
	grpcAddr  string
	clientDir string
	dbPath    string
)

var rootCmd = &cobra.Command{
	Use:   "arena-server",
	Short: "Run the arena game server",
	Long:  `Runs the authoritative simulation and serves the WebSocket protocol, the REST API and an optional gRPC health endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("addr") {
			cfg.Addr = addr
		}
		if flags.Changed("grpc") {
			cfg.GRPCAddr = grpcAddr
		}
		if flags.Changed("client") {
			cfg.ClientDir = clientDir
		}
		if flags.Changed("db") {
			cfg.DBPath = dbPath
		}
		return run(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Path to the .env file.")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", ":8080", "HTTP listen address.")
	rootCmd.PersistentFlags().StringVar(&grpcAddr, "grpc", "", "gRPC health listen address; empty disables it.")
	rootCmd.PersistentFlags().StringVar(&clientDir, "client", "", "Directory of static client files.")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite analytics database; empty keeps it in memory.")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	db, err := store.OpenDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	analytics := store.NewAnalytics(db)

	admin, err := newAuth(cfg)
	if err != nil {
		analytics.Stop()
		return err
	}

	g := game.NewGame(cfg.Game, analytics)
	go g.Run()

	srv := server.New(server.Options{
		Game:           g,
		Analytics:      analytics,
		Auth:           admin,
		PublicURL:      cfg.PublicURL,
		ClientDir:      cfg.ClientDir,
		MaxConnections: cfg.MaxConnections,
		MaxPerIP:       cfg.MaxPerIP,
	})

	var health *server.HealthServer
	if cfg.GRPCAddr != "" {
		if health, err = server.ListenHealth(cfg.GRPCAddr); err != nil {
			g.Stop()
			analytics.Stop()
			return err
		}
		go func() {
			if err := health.Serve(); err != nil {
				log.Printf("grpc: %v", err)
			}
		}()
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	httpSrv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.Printf("Server starting on %s (%d Hz sim, %d Hz net, radius %.0f)",
			cfg.Addr, cfg.Game.TickRate, cfg.Game.NetworkRate, cfg.Game.BoundaryRadius)
		if cfg.ClientDir != "" {
			log.Printf("Serving client files from %s", cfg.ClientDir)
		}
		if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		httpSrv.Close()
	}
	if health != nil {
		health.Stop()
	}
	srv.Close()
	g.Stop()
	analytics.Stop()
	return nil
}

// newAuth prefers a stored bcrypt hash; a plain password is hashed at boot
func newAuth(cfg config.Config) (*auth.Auth, error) {
	hash := []byte(cfg.AdminPasswordHash)
	if len(hash) == 0 && cfg.AdminPassword != "" {
		var err error
		if hash, err = auth.HashPassword(cfg.AdminPassword); err != nil {
			return nil, err
		}
	}
	if len(hash) == 0 {
		log.Println("[WARN] no admin password set; admin API disabled")
	}
	return auth.New([]byte(cfg.JWTSecret), hash)
}
