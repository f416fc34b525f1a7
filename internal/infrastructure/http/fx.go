package http

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/yourusername/telegram-comment-fleet/config"
)

// Module provides the HTTP server with the operator API
var Module = fx.Module("http",
	fx.Provide(
		NewAccountHandler,
		func(cfg *config.ServiceConfig, handler *AccountHandler, logger zerolog.Logger) *Server {
			return NewServer(cfg.Port, cfg.Name, handler, logger)
		},
	),
	fx.Invoke(func(lc fx.Lifecycle, server *Server) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				server.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return server.Stop(ctx)
			},
		})
	}),
)
