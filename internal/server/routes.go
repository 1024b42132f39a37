package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guesswhat/internal/broadcast"
	"guesswhat/internal/config"
	"guesswhat/internal/db"
	"guesswhat/internal/game"
	"guesswhat/internal/metrics"
	"guesswhat/internal/rooms"
	"guesswhat/internal/schedule"
	"guesswhat/internal/store"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

func Run() error {
	appCfg, err := config.Load()
	if err != nil {
		return err
	}

	srv := &Server{Origins: appCfg.AllowedOrigins}

	// Optional database connection
	var st store.Store = store.NewMemory()
	if appCfg.DatabaseURL != "" {
		database, err := db.Connect(appCfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running on in-memory store)\n", err)
		} else if err := database.Migrate(); err != nil {
			log.Printf("[DB] Migration failed: %v (running on in-memory store)\n", err)
			database.Close()
		} else {
			defer database.Close()
			st = database
			srv.DB = database
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, running on in-memory store")
	}

	sched, err := schedule.New(clockwork.NewRealClock())
	if err != nil {
		return err
	}
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.Printf("[Server] Scheduler shutdown: %v\n", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv.Gateway = broadcast.NewGateway()
	srv.Registry = reg
	srv.Engine = game.NewEngine(st, rooms.NewRegistry(), srv.Gateway, sched, game.Config{
		RoundDuration: appCfg.RoundDuration,
		MaxAttempts:   appCfg.MaxAttempts,
		MinPlayers:    appCfg.MinPlayers,
		WinPoints:     appCfg.WinPoints,
		TickInterval:  time.Second,
	})
	srv.Engine.Metrics = metrics.New(reg)

	httpSrv := &http.Server{
		Addr:              "0.0.0.0:" + appCfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("Server listening on http://localhost:%s\n", appCfg.Port)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// Routes builds the HTTP handler with CORS applied to every route.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("POST /api/session", s.handleCreateSession)
	mux.HandleFunc("GET /api/session/{code}/events", s.handleEvents)
	mux.HandleFunc("GET /socket", s.handleSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   s.Origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(mux)
}
