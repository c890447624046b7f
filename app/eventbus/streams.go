package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/nats-io/nats.go/jetstream"
)

// DefaultStreams captures every topic the modules publish, one stream per
// module prefix.
var DefaultStreams = map[string][]string{
	"rating":      {"rating.>"},
	"achievement": {"achievement.>"},
	"tournament":  {"tournament.>"},
}

// InitializeStreams creates or updates the JetStream streams during startup.
func InitializeStreams(ctx context.Context, js jetstream.JetStream, streams map[string][]string, logger *slog.Logger) error {
	if len(streams) == 0 {
		streams = DefaultStreams
	}
	for _, name := range slices.Sorted(maps.Keys(streams)) {
		_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     name,
			Subjects: streams[name],
		})
		if err != nil {
			logger.Error("Failed to create JetStream stream", slog.String("stream", name), slog.Any("error", err))
			return fmt.Errorf("failed to create stream %s: %w", name, err)
		}
		logger.Info("JetStream stream ready", slog.String("stream", name))
	}
	return nil
}
