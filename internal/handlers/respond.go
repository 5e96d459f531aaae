package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// apiResponse is the uniform success envelope every endpoint returns.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// apiError is the uniform error envelope.
type apiError struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func respondSuccess(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload := apiResponse{StatusCode: status, Data: data, Message: message, Success: true}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	appErr := apperror.From(err)

	logger := logging.FromContext(ctx)
	switch {
	case appErr.Status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", appErr.Status, "code", appErr.Code, "error", err)
	default:
		logger.Warn("request returned client error", "status", appErr.Status, "code", appErr.Code, "message", appErr.Message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)

	payload := apiError{StatusCode: appErr.Status, Message: appErr.Message, Success: false, Errors: []string{}}
	if encodeErr := json.NewEncoder(w).Encode(payload); encodeErr != nil {
		logger.Error("encode error body", "status", appErr.Status, "error", encodeErr)
	}
}

// userPayload is the sanitized user representation. Password hash and
// refresh token never leave the service.
type userPayload struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"coverImage,omitempty"`
	WatchHistory []string  `json:"watchHistory"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func sanitizeUser(user models.User) userPayload {
	watchHistory := user.WatchHistory
	if watchHistory == nil {
		watchHistory = []string{}
	}
	return userPayload{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FullName:     user.FullName,
		Avatar:       user.AvatarURL,
		CoverImage:   user.CoverImageURL,
		WatchHistory: watchHistory,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func setAuthCookies(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  pair.AccessExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
