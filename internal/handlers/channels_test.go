package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
)

func profileRequest(username, viewerID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/channel/"+username, nil)
	req.SetPathValue("username", username)
	if viewerID != "" {
		req = req.WithContext(middleware.ContextWithUserID(req.Context(), viewerID))
	}
	return req
}

func TestChannelProfileFetch(t *testing.T) {
	profiles := &fakeProfileStore{
		profiles: map[string]models.ChannelProfile{
			"creator": {
				FullName:          "Creator Name",
				Username:          "creator",
				Email:             "creator@example.com",
				AvatarURL:         "https://media.test/creator.png",
				SubscribersCount:  3,
				SubscribedToCount: 1,
				IsSubscribed:      true,
			},
		},
	}
	handler := ChannelHandler{Profiles: profiles}

	rec := httptest.NewRecorder()
	handler.Profile(rec, profileRequest("creator", "viewer-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]any)
	if data["username"] != "creator" {
		t.Fatalf("expected username creator got %v", data["username"])
	}
	if data["subscribersCount"] != float64(3) {
		t.Fatalf("expected 3 subscribers got %v", data["subscribersCount"])
	}
	if data["channelsSubscribedToCount"] != float64(1) {
		t.Fatalf("expected 1 subscribed-to got %v", data["channelsSubscribedToCount"])
	}
	if data["isSubscribed"] != true {
		t.Fatal("expected isSubscribed true for subscribed viewer")
	}
}

func TestChannelProfileAnonymousViewer(t *testing.T) {
	profiles := &fakeProfileStore{
		profiles: map[string]models.ChannelProfile{
			"creator": {Username: "creator", IsSubscribed: true},
		},
	}
	handler := ChannelHandler{Profiles: profiles}

	rec := httptest.NewRecorder()
	handler.Profile(rec, profileRequest("creator", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]any)
	if data["isSubscribed"] != false {
		t.Fatal("anonymous viewers must never appear subscribed")
	}
}

func TestChannelProfileUnknownChannel(t *testing.T) {
	handler := ChannelHandler{Profiles: &fakeProfileStore{}}

	rec := httptest.NewRecorder()
	handler.Profile(rec, profileRequest("ghost", ""))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestSubscribeToChannel(t *testing.T) {
	users := newFakeUserStore()
	creator := seedUser(t, users, "c1", "creator", "creator@example.com", "password123")
	viewer := seedUser(t, users, "v1", "viewer", "viewer@example.com", "password123")
	subs := newFakeSubscriptionStore()
	handler := ChannelHandler{Users: users, Subscriptions: subs}

	req := authedRequest(http.MethodPost, "/api/v1/channels/creator/subscribe", nil, viewer.ID)
	req.SetPathValue("username", "creator")
	rec := httptest.NewRecorder()

	handler.Subscribe(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := subs.subs[subKey(viewer.ID, creator.ID)]; !ok {
		t.Fatal("expected subscription edge to be stored")
	}

	// Subscribing twice conflicts.
	rec = httptest.NewRecorder()
	req = authedRequest(http.MethodPost, "/api/v1/channels/creator/subscribe", nil, viewer.ID)
	req.SetPathValue("username", "creator")
	handler.Subscribe(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestSubscribeToOwnChannelRejected(t *testing.T) {
	users := newFakeUserStore()
	creator := seedUser(t, users, "c1", "creator", "creator@example.com", "password123")
	handler := ChannelHandler{Users: users, Subscriptions: newFakeSubscriptionStore()}

	req := authedRequest(http.MethodPost, "/api/v1/channels/creator/subscribe", nil, creator.ID)
	req.SetPathValue("username", "creator")
	rec := httptest.NewRecorder()

	handler.Subscribe(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestUnsubscribeFromChannel(t *testing.T) {
	users := newFakeUserStore()
	creator := seedUser(t, users, "c1", "creator", "creator@example.com", "password123")
	viewer := seedUser(t, users, "v1", "viewer", "viewer@example.com", "password123")
	subs := newFakeSubscriptionStore()
	subs.subs[subKey(viewer.ID, creator.ID)] = models.Subscription{SubscriberID: viewer.ID, ChannelID: creator.ID}
	handler := ChannelHandler{Users: users, Subscriptions: subs}

	req := authedRequest(http.MethodDelete, "/api/v1/channels/creator/subscribe", nil, viewer.ID)
	req.SetPathValue("username", "creator")
	rec := httptest.NewRecorder()

	handler.Unsubscribe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if len(subs.subs) != 0 {
		t.Fatal("expected subscription edge to be removed")
	}

	// Unsubscribing again is a 404.
	rec = httptest.NewRecorder()
	req = authedRequest(http.MethodDelete, "/api/v1/channels/creator/subscribe", nil, viewer.ID)
	req.SetPathValue("username", "creator")
	handler.Unsubscribe(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
