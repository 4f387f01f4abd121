package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// Install makes l the global logger with ContextHook attached, so events
// logged with .Ctx(ctx) pick up profile and command fields.
func Install(l zerolog.Logger) {
	log.Logger = l.Hook(ContextHook{})
}
