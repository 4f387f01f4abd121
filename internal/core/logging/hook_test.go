package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextHook_Run(t *testing.T) {
	tests := []struct {
		name      string
		setupCtx  func() context.Context
		wantKeys  []string
		wantEmpty []string
	}{
		{
			name: "both profile_id and command",
			setupCtx: func() context.Context {
				ctx := context.Background()
				ctx = WithProfileID(ctx, "profile-123")
				ctx = WithCommand(ctx, "status")
				return ctx
			},
			wantKeys: []string{"profile_id", "command"},
		},
		{
			name: "only profile_id",
			setupCtx: func() context.Context {
				return WithProfileID(context.Background(), "profile-123")
			},
			wantKeys:  []string{"profile_id"},
			wantEmpty: []string{"command"},
		},
		{
			name: "only command",
			setupCtx: func() context.Context {
				return WithCommand(context.Background(), "reset")
			},
			wantKeys:  []string{"command"},
			wantEmpty: []string{"profile_id"},
		},
		{
			name:      "no context values",
			setupCtx:  context.Background,
			wantEmpty: []string{"profile_id", "command"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := tt.setupCtx()

			logger := zerolog.New(&buf).Hook(ContextHook{})
			logger.Info().Ctx(ctx).Msg("test")

			var logEntry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Fatalf("failed to parse log: %v", err)
			}

			for _, key := range tt.wantKeys {
				if _, ok := logEntry[key]; !ok {
					t.Errorf("expected %s to be present in log", key)
				}
			}

			for _, key := range tt.wantEmpty {
				if _, ok := logEntry[key]; ok {
					t.Errorf("expected %s to be absent from log", key)
				}
			}
		})
	}
}
