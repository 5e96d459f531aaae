package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/models"
)

func TestCreateVideoPublishes(t *testing.T) {
	users := newFakeUserStore()
	owner := seedUser(t, users, "u1", "creator", "creator@example.com", "password123")
	videos := newFakeVideoStore()
	media := &fakeMediaStore{}
	handler := VideoHandler{Users: users, Videos: videos, Media: media, TempDir: t.TempDir()}

	body, contentType := multipartBody(t, map[string]string{
		"title":       "My First Video",
		"description": "A description",
		"duration":    "42.5",
	}, map[string][]byte{
		"videoFile": []byte("video bytes"),
		"thumbnail": []byte("thumbnail bytes"),
	})
	req := authedRequest(http.MethodPost, "/api/v1/videos", body, owner.ID)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(videos.videos) != 1 {
		t.Fatalf("expected one stored video, got %d", len(videos.videos))
	}
	for _, video := range videos.videos {
		if video.OwnerID != owner.ID {
			t.Fatalf("expected owner %s got %s", owner.ID, video.OwnerID)
		}
		if video.Duration != 42.5 {
			t.Fatalf("expected duration 42.5 got %v", video.Duration)
		}
		if video.VideoURL == "" || video.ThumbnailURL == "" {
			t.Fatal("expected both media URLs to be set")
		}
		if !video.IsPublished {
			t.Fatal("expected the video to be published")
		}
	}
}

func TestCreateVideoRequiresFiles(t *testing.T) {
	users := newFakeUserStore()
	owner := seedUser(t, users, "u1", "creator", "creator@example.com", "password123")
	handler := VideoHandler{Users: users, Videos: newFakeVideoStore(), Media: &fakeMediaStore{}, TempDir: t.TempDir()}

	body, contentType := multipartBody(t, map[string]string{
		"title":    "Missing Files",
		"duration": "10",
	}, nil)
	req := authedRequest(http.MethodPost, "/api/v1/videos", body, owner.ID)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestRecordViewBumpsCounterAndHistory(t *testing.T) {
	users := newFakeUserStore()
	viewer := seedUser(t, users, "u1", "viewer", "viewer@example.com", "password123")
	videos := newFakeVideoStore()
	videos.videos["vid-1"] = models.Video{ID: "vid-1", OwnerID: "someone", Title: "Clip"}
	handler := VideoHandler{Users: users, Videos: videos}

	req := authedRequest(http.MethodPost, "/api/v1/videos/vid-1/view", nil, viewer.ID)
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()

	handler.RecordView(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if videos.videos["vid-1"].Views != 1 {
		t.Fatalf("expected views 1 got %d", videos.videos["vid-1"].Views)
	}
	updated, err := users.FindByID(t.Context(), viewer.ID)
	if err != nil {
		t.Fatalf("find viewer: %v", err)
	}
	if len(updated.WatchHistory) != 1 || updated.WatchHistory[0] != "vid-1" {
		t.Fatalf("expected watch history [vid-1] got %v", updated.WatchHistory)
	}
}

func TestRecordViewUnknownVideo(t *testing.T) {
	users := newFakeUserStore()
	viewer := seedUser(t, users, "u1", "viewer", "viewer@example.com", "password123")
	handler := VideoHandler{Users: users, Videos: newFakeVideoStore()}

	req := authedRequest(http.MethodPost, "/api/v1/videos/ghost/view", nil, viewer.ID)
	req.SetPathValue("id", "ghost")
	rec := httptest.NewRecorder()

	handler.RecordView(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestWatchHistoryPreservesOrderAndOwnerShape(t *testing.T) {
	now := time.Now().UTC()
	profiles := &fakeProfileStore{
		history: map[string][]models.WatchHistoryEntry{
			"u1": {
				{
					Video: models.Video{ID: "vid-1", Title: "First", VideoURL: "https://media.test/1.mp4", CreatedAt: now},
					Owner: models.VideoOwner{FullName: "Alpha Creator", Username: "alpha", AvatarURL: "https://media.test/a.png"},
				},
				{
					Video: models.Video{ID: "vid-2", Title: "Second", VideoURL: "https://media.test/2.mp4", CreatedAt: now},
					Owner: models.VideoOwner{FullName: "Beta Creator", Username: "beta", AvatarURL: "https://media.test/b.png"},
				},
			},
		},
	}
	handler := VideoHandler{Profiles: profiles}

	req := authedRequest(http.MethodGet, "/api/v1/users/watch-history", nil, "u1")
	rec := httptest.NewRecorder()

	handler.WatchHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	envelope := decodeEnvelope(t, rec)
	entries, ok := envelope["data"].([]any)
	if !ok {
		t.Fatalf("expected data array, got %T", envelope["data"])
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries got %d", len(entries))
	}

	first := entries[0].(map[string]any)
	if first["id"] != "vid-1" {
		t.Fatalf("expected vid-1 first, got %v", first["id"])
	}
	owner, ok := first["owner"].(map[string]any)
	if !ok {
		t.Fatalf("expected owner object, got %T", first["owner"])
	}
	if owner["username"] != "alpha" || owner["fullName"] != "Alpha Creator" || owner["avatar"] != "https://media.test/a.png" {
		t.Fatalf("unexpected owner projection %v", owner)
	}
	if len(owner) != 3 {
		t.Fatalf("owner projection must hold exactly fullName, username, avatar; got %v", owner)
	}

	second := entries[1].(map[string]any)
	if second["id"] != "vid-2" {
		t.Fatalf("expected vid-2 second, got %v", second["id"])
	}
}

func TestWatchHistoryEmpty(t *testing.T) {
	handler := VideoHandler{Profiles: &fakeProfileStore{}}

	req := authedRequest(http.MethodGet, "/api/v1/users/watch-history", nil, "u1")
	rec := httptest.NewRecorder()

	handler.WatchHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	entries, ok := envelope["data"].([]any)
	if !ok {
		t.Fatalf("expected empty array, got %T", envelope["data"])
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries got %d", len(entries))
	}
}
