package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/middleware"
)

// Dependencies bundles everything the HTTP surface needs.
type Dependencies struct {
	Users         UserStore
	Tokens        TokenService
	Profiles      ProfileStore
	Media         MediaStore
	Videos        VideoStore
	Subscriptions SubscriptionStore
	Verifier      middleware.AccessVerifier
	Limiter       RateLimiter
	TempDir       string
}

// RegisterRoutes mounts the full API surface on mux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	accounts := AccountHandler{
		Users:   deps.Users,
		Tokens:  deps.Tokens,
		Media:   deps.Media,
		Limiter: deps.Limiter,
		TempDir: deps.TempDir,
	}
	channels := ChannelHandler{
		Users:         deps.Users,
		Profiles:      deps.Profiles,
		Subscriptions: deps.Subscriptions,
	}
	videos := VideoHandler{
		Users:    deps.Users,
		Videos:   deps.Videos,
		Profiles: deps.Profiles,
		Media:    deps.Media,
		TempDir:  deps.TempDir,
	}
	health := HealthHandler{}

	requireAuth := middleware.RequireAuth(deps.Verifier)
	optionalAuth := middleware.OptionalAuth(deps.Verifier)

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/users/register", accounts.Register)
	mux.HandleFunc("POST /api/v1/users/login", accounts.Login)
	mux.HandleFunc("POST /api/v1/users/refresh-token", accounts.Refresh)
	mux.Handle("POST /api/v1/users/logout", requireAuth(http.HandlerFunc(accounts.Logout)))
	mux.Handle("POST /api/v1/users/change-password", requireAuth(http.HandlerFunc(accounts.ChangePassword)))
	mux.Handle("GET /api/v1/users/current-user", requireAuth(http.HandlerFunc(accounts.CurrentUser)))
	mux.Handle("PATCH /api/v1/users/update-account", requireAuth(http.HandlerFunc(accounts.UpdateAccount)))
	mux.Handle("PATCH /api/v1/users/avatar", requireAuth(http.HandlerFunc(accounts.UpdateAvatar)))
	mux.Handle("PATCH /api/v1/users/cover-image", requireAuth(http.HandlerFunc(accounts.UpdateCoverImage)))
	mux.Handle("GET /api/v1/users/watch-history", requireAuth(http.HandlerFunc(videos.WatchHistory)))

	mux.Handle("GET /api/v1/users/channel/{username}", optionalAuth(http.HandlerFunc(channels.Profile)))
	mux.Handle("POST /api/v1/channels/{username}/subscribe", requireAuth(http.HandlerFunc(channels.Subscribe)))
	mux.Handle("DELETE /api/v1/channels/{username}/subscribe", requireAuth(http.HandlerFunc(channels.Unsubscribe)))

	mux.Handle("POST /api/v1/videos", requireAuth(http.HandlerFunc(videos.Create)))
	mux.Handle("POST /api/v1/videos/{id}/view", requireAuth(http.HandlerFunc(videos.RecordView)))
}
