package handlers

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// UserStore captures the persistence operations required by the account
// handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByLogin(ctx context.Context, login string) (models.User, error)
	UpdateProfile(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, coverImageURL string) (models.User, error)
	ClearRefreshToken(ctx context.Context, id string) error
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}

// TokenService issues and rotates the signed token pair.
type TokenService interface {
	IssuePair(ctx context.Context, userID string) (models.TokenPair, error)
	Rotate(ctx context.Context, presented string) (models.TokenPair, error)
}

// ProfileStore serves the channel profile and watch history aggregations.
type ProfileStore interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error)
}

// MediaStore relocates staged upload files to remote storage. Upload
// returns "" on failure and always disposes of the local file; Remove is
// best-effort.
type MediaStore interface {
	Upload(ctx context.Context, localPath string) string
	Remove(ctx context.Context, fileURL string)
}

// VideoStore captures persistence for uploaded videos.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	IncrementViews(ctx context.Context, id string) error
}

// SubscriptionStore maintains subscriber→channel edges.
type SubscriptionStore interface {
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, subscriberID, channelID string) error
}
