package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// VideoHandler serves video publishing, view recording, and the viewer's
// watch history.
type VideoHandler struct {
	Users    UserStore
	Videos   VideoStore
	Profiles ProfileStore
	Media    MediaStore
	TempDir  string
}

// Create handles POST /api/v1/videos multipart requests. Both the video
// file and a thumbnail are required.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.UserIDFromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, apperror.Validation("invalid multipart form"))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" {
		respondError(ctx, w, apperror.Validation("title is required"))
		return
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("duration")), 64)
	if err != nil || duration < 0 {
		respondError(ctx, w, apperror.Validation("duration must be a non-negative number"))
		return
	}

	videoPath, err := stageFormFile(r, "videoFile", h.TempDir)
	if err != nil {
		respondError(ctx, w, apperror.Internal("failed to stage upload", err))
		return
	}
	if videoPath == "" {
		respondError(ctx, w, apperror.Validation("video file is required"))
		return
	}

	thumbnailPath, err := stageFormFile(r, "thumbnail", h.TempDir)
	if err != nil {
		respondError(ctx, w, apperror.Internal("failed to stage upload", err))
		return
	}
	if thumbnailPath == "" {
		respondError(ctx, w, apperror.Validation("thumbnail is required"))
		return
	}

	videoURL := h.Media.Upload(ctx, videoPath)
	thumbnailURL := h.Media.Upload(ctx, thumbnailPath)
	if videoURL == "" || thumbnailURL == "" {
		h.Media.Remove(ctx, videoURL)
		h.Media.Remove(ctx, thumbnailURL)
		respondError(ctx, w, apperror.Validation("video upload failed"))
		return
	}

	now := time.Now().UTC()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Title:        title,
		Description:  description,
		Duration:     duration,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		h.Media.Remove(ctx, videoURL)
		h.Media.Remove(ctx, thumbnailURL)
		respondError(ctx, w, apperror.Internal("failed to save video", err))
		return
	}

	respondSuccess(ctx, w, http.StatusCreated, ownedVideoPayload{
		videoFields: newVideoFields(video),
		Owner:       video.OwnerID,
	}, "video published successfully")
}

// RecordView handles POST /api/v1/videos/{id}/view. It bumps the view
// counter and moves the video to the tail of the viewer's watch history.
func (h VideoHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.UserIDFromContext(ctx)

	videoID := strings.TrimSpace(r.PathValue("id"))
	if videoID == "" {
		respondError(ctx, w, apperror.Validation("video id is missing"))
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("video does not exist"))
			return
		}
		respondError(ctx, w, apperror.Internal("failed to look up video", err))
		return
	}

	if err := h.Videos.IncrementViews(ctx, videoID); err != nil {
		respondError(ctx, w, apperror.Internal("failed to record view", err))
		return
	}

	if err := h.Users.AppendWatchHistory(ctx, viewerID, videoID); err != nil {
		respondError(ctx, w, apperror.Internal("failed to update watch history", err))
		return
	}

	respondSuccess(ctx, w, http.StatusOK, struct{}{}, "view recorded")
}

// WatchHistory handles GET /api/v1/users/watch-history. Entries come back
// in watch order, each with a reduced owner projection.
func (h VideoHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	entries, err := h.Profiles.WatchHistory(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("user not found"))
			return
		}
		respondError(ctx, w, apperror.Internal("failed to fetch watch history", err))
		return
	}

	payload := make([]watchHistoryEntryPayload, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, watchHistoryEntryPayload{
			videoFields: newVideoFields(entry.Video),
			Owner: videoOwnerPayload{
				FullName: entry.Owner.FullName,
				Username: entry.Owner.Username,
				Avatar:   entry.Owner.AvatarURL,
			},
		})
	}

	respondSuccess(ctx, w, http.StatusOK, payload, "watch history fetched")
}

type videoFields struct {
	ID           string    `json:"id"`
	VideoFile    string    `json:"videoFile"`
	Thumbnail    string    `json:"thumbnail"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"isPublished"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type videoOwnerPayload struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type watchHistoryEntryPayload struct {
	videoFields
	Owner videoOwnerPayload `json:"owner"`
}

type ownedVideoPayload struct {
	videoFields
	Owner string `json:"owner"`
}

func newVideoFields(v models.Video) videoFields {
	return videoFields{
		ID:          v.ID,
		VideoFile:   v.VideoURL,
		Thumbnail:   v.ThumbnailURL,
		Title:       v.Title,
		Description: v.Description,
		Duration:    v.Duration,
		Views:       v.Views,
		IsPublished: v.IsPublished,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}
