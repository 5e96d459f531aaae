package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresProfileRepository serves the two read-only aggregation queries.
// Each one is a single SQL statement: the projection shape is the contract,
// the join mechanics belong to the database.
type PostgresProfileRepository struct {
	pool db.Pool
}

// NewPostgresProfileRepository constructs a profile repository backed by PostgreSQL.
func NewPostgresProfileRepository(pool db.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

// ChannelProfile resolves a channel by username (case-insensitive via
// lowering) and decorates it with subscription counts. viewerID may be empty
// for anonymous viewers, in which case isSubscribed is always false.
func (r *PostgresProfileRepository) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT
            u.full_name,
            u.username,
            u.email,
            u.avatar_url,
            u.cover_image_url,
            (SELECT count(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscribers_count,
            (SELECT count(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_to_count,
            EXISTS (
                SELECT 1 FROM subscriptions s
                WHERE s.channel_id = u.id AND s.subscriber_id = $2
            ) AS is_subscribed
        FROM users u
        WHERE u.username = lower($1)
    `, username, viewerID)

	var profile models.ChannelProfile
	if err := row.Scan(
		&profile.FullName, &profile.Username, &profile.Email,
		&profile.AvatarURL, &profile.CoverImageURL,
		&profile.SubscribersCount, &profile.SubscribedToCount, &profile.IsSubscribed,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelProfile{}, ErrNotFound
		}
		return models.ChannelProfile{}, fmt.Errorf("select channel profile: %w", err)
	}

	return profile, nil
}

// WatchHistory resolves the user's ordered watch_history ids to full video
// records, each carrying a single reduced owner projection. Result order
// follows the stored sequence; an empty history yields an empty slice.
func (r *PostgresProfileRepository) WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT
            v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
            v.duration, v.views, v.is_published, v.created_at, v.updated_at,
            o.full_name, o.username, o.avatar_url
        FROM users u
        JOIN unnest(u.watch_history) WITH ORDINALITY AS h(video_id, pos) ON true
        JOIN videos v ON v.id = h.video_id
        JOIN users o ON o.id = v.owner_id
        WHERE u.id = $1
        ORDER BY h.pos
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	entries := []models.WatchHistoryEntry{}
	for rows.Next() {
		var entry models.WatchHistoryEntry
		if err := rows.Scan(
			&entry.Video.ID, &entry.Video.OwnerID, &entry.Video.VideoURL,
			&entry.Video.ThumbnailURL, &entry.Video.Title, &entry.Video.Description,
			&entry.Video.Duration, &entry.Video.Views, &entry.Video.IsPublished,
			&entry.Video.CreatedAt, &entry.Video.UpdatedAt,
			&entry.Owner.FullName, &entry.Owner.Username, &entry.Owner.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("scan watch history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return entries, nil
}

var _ ProfileRepository = (*PostgresProfileRepository)(nil)
