package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"wormfall/server/auth"
	"wormfall/server/config"
	"wormfall/server/srv"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func wsHandler(h *srv.Hub, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		h.HandleWS(conn)
	}
}

func newLogger(cfg config.Server) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var out io.Writer = os.Stderr
	if cfg.LogPretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func main() {
	configDir := os.Getenv("WORMFALL_CONFIG")
	if configDir == "" {
		configDir = "."
	}
	if err := config.Load(configDir); err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("config load failed")
	}
	cfg := config.GetServer()
	logger := newLogger(cfg)

	a, err := auth.New(cfg.DataDir, cfg.TokenTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("auth init failed")
	}

	hub := srv.NewHub(a, config.GetMatchDefaults(), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler(hub, logger))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := server.Shutdown(shutCtx)
		hub.CloseAll()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
	logger.Info().Msg("server stopped")
}
