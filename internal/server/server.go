package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sudeep70/drawing-guess-game/internal/config"
	"github.com/Sudeep70/drawing-guess-game/internal/game"
	"github.com/Sudeep70/drawing-guess-game/internal/ws"
)

// Server wires the HTTP surface: health endpoint plus the websocket
// entrypoint everything else flows through.
type Server struct {
	wsHandler  *ws.Handler
	registry   *game.Registry
	corsOrigin string
	log        zerolog.Logger
	startedAt  time.Time
}

func New(cfg config.Config, wsHandler *ws.Handler, registry *game.Registry, log zerolog.Logger) *http.Server {
	s := &Server{
		wsHandler:  wsHandler,
		registry:   registry,
		corsOrigin: cfg.CorsOrigin,
		log:        log,
		startedAt:  time.Now(),
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      s.registerRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
