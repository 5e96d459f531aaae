package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// buildDependencies wires together the concrete implementations used by the
// HTTP handlers. The user repository doubles as the refresh-token slot store
// backing the token service.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)
	tokens := auth.NewService(cfg.Auth, users)

	media, err := storage.NewS3Media(ctx, cfg.ObjectStore, logger)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure media storage: %w", err)
	}

	return handlers.Dependencies{
		Users:         users,
		Tokens:        tokens,
		Profiles:      repositories.NewPostgresProfileRepository(pool),
		Media:         media,
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Verifier:      tokens,
		Limiter:       middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, cfg.RateLimit.TTL),
		TempDir:       cfg.TempUploadDir,
	}, nil
}
