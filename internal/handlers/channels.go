package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// ChannelHandler serves channel profile and subscription endpoints.
type ChannelHandler struct {
	Users         UserStore
	Profiles      ProfileStore
	Subscriptions SubscriptionStore
}

// Profile handles GET /api/v1/channels/{username}. The viewer may be
// anonymous, in which case isSubscribed is always false.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, apperror.Validation("username is missing"))
		return
	}

	viewerID := middleware.UserIDFromContext(ctx)

	profile, err := h.Profiles.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("channel does not exist"))
			return
		}
		respondError(ctx, w, apperror.Internal("failed to fetch channel profile", err))
		return
	}

	respondSuccess(ctx, w, http.StatusOK, channelProfilePayload{
		FullName:                  profile.FullName,
		Username:                  profile.Username,
		Email:                     profile.Email,
		Avatar:                    profile.AvatarURL,
		CoverImage:                profile.CoverImageURL,
		SubscribersCount:          profile.SubscribersCount,
		ChannelsSubscribedToCount: profile.SubscribedToCount,
		IsSubscribed:              profile.IsSubscribed,
	}, "channel profile fetched")
}

type channelProfilePayload struct {
	FullName                  string `json:"fullName"`
	Username                  string `json:"username"`
	Email                     string `json:"email"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage,omitempty"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// Subscribe handles POST /api/v1/channels/{username}/subscribe.
func (h ChannelHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channel, ok := h.resolveChannel(w, r)
	if !ok {
		return
	}

	subscriberID := middleware.UserIDFromContext(ctx)
	if subscriberID == channel.ID {
		respondError(ctx, w, apperror.Validation("cannot subscribe to your own channel"))
		return
	}

	sub := models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: subscriberID,
		ChannelID:    channel.ID,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.Subscriptions.Create(ctx, sub); err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			respondError(ctx, w, apperror.Conflict("already subscribed"))
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, apperror.NotFound("channel does not exist"))
		default:
			respondError(ctx, w, apperror.Internal("failed to subscribe", err))
		}
		return
	}

	respondSuccess(ctx, w, http.StatusCreated, struct{}{}, "subscribed to channel")
}

// Unsubscribe handles DELETE /api/v1/channels/{username}/subscribe.
func (h ChannelHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channel, ok := h.resolveChannel(w, r)
	if !ok {
		return
	}

	subscriberID := middleware.UserIDFromContext(ctx)

	if err := h.Subscriptions.Delete(ctx, subscriberID, channel.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("subscription does not exist"))
			return
		}
		respondError(ctx, w, apperror.Internal("failed to unsubscribe", err))
		return
	}

	respondSuccess(ctx, w, http.StatusOK, struct{}{}, "unsubscribed from channel")
}

func (h ChannelHandler) resolveChannel(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	ctx := r.Context()

	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, apperror.Validation("username is missing"))
		return models.User{}, false
	}

	channel, err := h.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("channel does not exist"))
			return models.User{}, false
		}
		respondError(ctx, w, apperror.Internal("failed to look up channel", err))
		return models.User{}, false
	}

	return channel, true
}
