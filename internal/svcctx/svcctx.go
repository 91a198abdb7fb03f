// Package svcctx provides service context for dependency injection via
// context. Separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/ShipCreekGroup/email-parser/internal/config"
	"github.com/ShipCreekGroup/email-parser/internal/providers"
	"github.com/ShipCreekGroup/email-parser/internal/sessions"
)

// Services holds the core services that flow through request context.
// Endpoints extract what they need via the individual extractors.
type Services struct {
	Registry  *providers.Registry
	ConfigMgr *config.Manager
	Sessions  *sessions.Store
	Logger    *slog.Logger
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigMgr
	}
	return nil
}

// SessionsFrom extracts the session store from context.
func SessionsFrom(ctx context.Context) *sessions.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Sessions
	}
	return nil
}

// LoggerFrom extracts the logger from context, falling back to the
// default logger.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
