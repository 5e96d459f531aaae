package models

import "time"

// User represents an account within the VidTube platform. Password always
// holds the bcrypt hash, never the plaintext. RefreshToken is a single slot:
// at most one refresh token is valid per user, and every login or rotation
// overwrites it.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	Password      string
	AvatarURL     string
	CoverImageURL string
	RefreshToken  string
	WatchHistory  []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Subscription is an edge from a subscriber to the channel they follow.
// Both ends reference users.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// Video stores an uploaded video and its metadata.
type Video struct {
	ID           string
	OwnerID      string
	VideoURL     string
	ThumbnailURL string
	Title        string
	Description  string
	Duration     float64
	Views        int64
	IsPublished  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenPair groups the signed credentials issued to authenticated users.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// ChannelProfile is the denormalized channel view returned by the profile
// aggregation. The projection is fixed: nothing beyond these fields leaves
// the store.
type ChannelProfile struct {
	FullName          string
	Username          string
	Email             string
	AvatarURL         string
	CoverImageURL     string
	SubscribersCount  int64
	SubscribedToCount int64
	IsSubscribed      bool
}

// VideoOwner is the reduced owner projection attached to watch history
// entries.
type VideoOwner struct {
	FullName  string
	Username  string
	AvatarURL string
}

// WatchHistoryEntry pairs a watched video with exactly one owner projection.
type WatchHistoryEntry struct {
	Video Video
	Owner VideoOwner
}
