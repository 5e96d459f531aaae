package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) FindByLogin(_ context.Context, login string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == login || user.Email == login {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, id, fullName, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	if email != "" {
		for otherID, other := range s.users {
			if otherID != id && other.Email == email {
				return models.User{}, repositories.ErrConflict
			}
		}
		user.Email = email
	}
	if fullName != "" {
		user.FullName = fullName
	}
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Password = passwordHash
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) UpdateAvatar(_ context.Context, id, avatarURL string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.AvatarURL = avatarURL
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) UpdateCoverImage(_ context.Context, id, coverImageURL string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.CoverImageURL = coverImageURL
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) SetRefreshToken(_ context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) RefreshTokenFor(_ context.Context, id string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok || user.RefreshToken == "" {
		return "", false, nil
	}
	return user.RefreshToken, true, nil
}

func (s *fakeUserStore) ClearRefreshToken(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = ""
	s.users[id] = user
	return nil
}

func (s *fakeUserStore) AppendWatchHistory(_ context.Context, userID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	history := make([]string, 0, len(user.WatchHistory)+1)
	for _, id := range user.WatchHistory {
		if id != videoID {
			history = append(history, id)
		}
	}
	user.WatchHistory = append(history, videoID)
	s.users[userID] = user
	return nil
}

type fakeMediaStore struct {
	mu       sync.Mutex
	fail     bool
	uploaded []string
	removed  []string
}

func (m *fakeMediaStore) Upload(_ context.Context, localPath string) string {
	if localPath == "" {
		return ""
	}
	defer os.Remove(localPath)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return ""
	}
	url := "https://media.test/" + strings.TrimPrefix(localPath, "/")
	m.uploaded = append(m.uploaded, url)
	return url
}

func (m *fakeMediaStore) Remove(_ context.Context, fileURL string) {
	if fileURL == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, fileURL)
}

type fakeVideoStore struct {
	mu     sync.Mutex
	videos map[string]models.Video
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{videos: make(map[string]models.Video)}
}

func (s *fakeVideoStore) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[video.ID] = video
	return nil
}

func (s *fakeVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *fakeVideoStore) IncrementViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return nil
}

type fakeSubscriptionStore struct {
	mu   sync.Mutex
	subs map[string]models.Subscription
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{subs: make(map[string]models.Subscription)}
}

func subKey(subscriberID, channelID string) string {
	return subscriberID + "->" + channelID
}

func (s *fakeSubscriptionStore) Create(_ context.Context, sub models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := subKey(sub.SubscriberID, sub.ChannelID)
	if _, ok := s.subs[key]; ok {
		return repositories.ErrConflict
	}
	s.subs[key] = sub
	return nil
}

func (s *fakeSubscriptionStore) Delete(_ context.Context, subscriberID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := subKey(subscriberID, channelID)
	if _, ok := s.subs[key]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.subs, key)
	return nil
}

type fakeProfileStore struct {
	profiles map[string]models.ChannelProfile
	history  map[string][]models.WatchHistoryEntry
}

func (s *fakeProfileStore) ChannelProfile(_ context.Context, username, viewerID string) (models.ChannelProfile, error) {
	profile, ok := s.profiles[username]
	if !ok {
		return models.ChannelProfile{}, repositories.ErrNotFound
	}
	profile.IsSubscribed = viewerID != "" && profile.IsSubscribed
	return profile, nil
}

func (s *fakeProfileStore) WatchHistory(_ context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	entries, ok := s.history[userID]
	if !ok {
		return []models.WatchHistoryEntry{}, nil
	}
	return entries, nil
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for name, content := range files {
		part, err := writer.CreateFormFile(name, name+".bin")
		if err != nil {
			t.Fatalf("create form file %s: %v", name, err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write form file %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response envelope: %v", err)
	}
	return envelope
}

func authedRequest(method, target string, body *bytes.Buffer, userID string) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	return req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
}
