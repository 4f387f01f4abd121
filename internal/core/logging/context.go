package logging

import "context"

type contextKey string

const (
	profileIDKey contextKey = "profile_id"
	commandKey   contextKey = "command"
)

// WithProfileID adds a journey profile ID to the context.
func WithProfileID(ctx context.Context, profileID string) context.Context {
	return context.WithValue(ctx, profileIDKey, profileID)
}

// WithCommand adds the running CLI command name to the context.
func WithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, commandKey, command)
}

// GetProfileID retrieves the profile ID from the context.
// Returns empty string if not present.
func GetProfileID(ctx context.Context) string {
	if id, ok := ctx.Value(profileIDKey).(string); ok {
		return id
	}
	return ""
}

// GetCommand retrieves the command name from the context.
// Returns empty string if not present.
func GetCommand(ctx context.Context) string {
	if name, ok := ctx.Value(commandKey).(string); ok {
		return name
	}
	return ""
}
