package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/lab1702/arena-bot/game"
	"github.com/lab1702/arena-bot/server"
)

func main() {
	port := flag.String("port", "8080", "Server port")
	tuningPath := flag.String("tuning", "", "YAML tuning file (defaults when empty)")
	bots := flag.Int("bots", server.DefaultBotCount, "Number of bots to spawn")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Arena random seed")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	pattern := flag.String("pattern", string(server.PatternCircle), "Pilot pattern: straight, circle, zigzag")
	debugWeapons := flag.Bool("debug-weapons", false, "Log every projectile hit and expiry")
	debugTransitions := flag.Bool("debug-transitions", false, "Log every bot mode change")
	influxAddr := flag.String("influx-addr", os.Getenv("INFLUXDB_ADDR"), "InfluxDB address for metrics (disabled when empty)")
	influxDB := flag.String("influx-db", os.Getenv("INFLUXDB_DB"), "InfluxDB database for metrics")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "arena",
	})
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatal("invalid log level", "level", *logLevel, "err", err)
	}
	logger.SetLevel(level)
	server.DebugWeapons = *debugWeapons
	server.DebugTransitions = *debugTransitions

	metricsCfg := server.MetricsConfig{Addr: *influxAddr, Database: *influxDB, App: "arena-bot"}
	if err := run(logger, *port, *tuningPath, *bots, *seed, *pattern, metricsCfg); err != nil {
		logger.Fatal("server failed", "err", err)
	}
	logger.Info("server stopped")
}

func run(logger *log.Logger, port, tuningPath string, bots int, seed int64, patternName string, metricsCfg server.MetricsConfig) error {
	tuning := game.DefaultTuning()
	if tuningPath != "" {
		var err error
		if tuning, err = game.LoadTuning(tuningPath); err != nil {
			return err
		}
		logger.Info("loaded tuning", "path", tuningPath)
	}
	pattern, err := server.ParsePattern(patternName)
	if err != nil {
		return err
	}
	if bots < 0 || bots > server.MaxBots {
		return fmt.Errorf("bots must be between 0 and %d, got %d", server.MaxBots, bots)
	}

	arena := server.NewArena(server.ArenaConfig{
		Tuning:  tuning,
		Seed:    seed,
		Pattern: pattern,
		Logger:  logger,
	})
	arena.AddPilot()
	for i := 0; i < bots; i++ {
		if _, err := arena.AddBot(); err != nil {
			return err
		}
	}

	gameServer := server.NewServer(arena, logger)
	metrics, err := server.NewMetrics(metricsCfg, logger)
	if err != nil {
		return err
	}

	// Request logs go through the structured logger at debug level
	accessLog := logger.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel}).Writer()

	router := mux.NewRouter()

	// WebSocket telemetry endpoint
	router.HandleFunc("/ws", gameServer.HandleWebSocket).Methods("GET")

	// Bot summary endpoints
	router.Handle("/api/bots", handlers.CombinedLoggingHandler(accessLog,
		http.HandlerFunc(gameServer.HandleBots),
	)).Methods("GET")
	router.Handle("/api/bots/{id:[a-zA-Z0-9\\-]+}", handlers.CombinedLoggingHandler(accessLog,
		http.HandlerFunc(gameServer.HandleBot),
	)).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return gameServer.Run(ctx)
	})
	g.Go(func() error {
		return gameServer.RunMetrics(ctx, metrics)
	})
	g.Go(func() error {
		logger.Info("server running", "url", "http://localhost:"+port, "bots", bots, "seed", seed, "pattern", pattern)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")

		// Signal game server to stop background goroutines
		gameServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
