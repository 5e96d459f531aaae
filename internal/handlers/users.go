package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

const (
	maxUploadMemory   = 32 << 20
	minPasswordLength = 8
)

// AccountHandler implements registration, authentication, and profile
// management endpoints.
type AccountHandler struct {
	Users   UserStore
	Tokens  TokenService
	Media   MediaStore
	Limiter RateLimiter
	TempDir string
	NowFunc func() time.Time
}

// Register handles POST /api/v1/users/register multipart requests.
func (h AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, apperror.RateLimited("too many attempts, retry later"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, apperror.Validation("invalid multipart form"))
		return
	}

	username := strings.ToLower(strings.TrimSpace(r.FormValue("username")))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	fullName := strings.TrimSpace(r.FormValue("fullName"))
	password := r.FormValue("password")

	if username == "" || email == "" || fullName == "" || password == "" {
		respondError(ctx, w, apperror.Validation("all fields are required"))
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		respondError(ctx, w, apperror.Validation("invalid email address"))
		return
	}
	if len(password) < minPasswordLength {
		respondError(ctx, w, apperror.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength)))
		return
	}

	avatarPath, err := stageFormFile(r, "avatar", h.TempDir)
	if err != nil {
		respondError(ctx, w, apperror.Internal("failed to stage upload", err))
		return
	}
	if avatarPath == "" {
		respondError(ctx, w, apperror.Validation("avatar is required"))
		return
	}

	coverPath, err := stageFormFile(r, "coverImage", h.TempDir)
	if err != nil {
		respondError(ctx, w, apperror.Internal("failed to stage upload", err))
		return
	}

	avatarURL := h.Media.Upload(ctx, avatarPath)
	coverURL := h.Media.Upload(ctx, coverPath)

	if avatarURL == "" {
		h.Media.Remove(ctx, coverURL)
		respondError(ctx, w, apperror.Validation("avatar upload failed"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		respondError(ctx, w, apperror.Internal("failed to secure password", err))
		return
	}

	now := h.now()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		Password:      string(hashed),
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		WatchHistory:  []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		h.Media.Remove(ctx, avatarURL)
		h.Media.Remove(ctx, coverURL)
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, apperror.Conflict("username or email already exists"))
			return
		}
		respondError(ctx, w, apperror.Internal("failed to register user", err))
		return
	}

	respondSuccess(ctx, w, http.StatusCreated, sanitizeUser(user), "user registered successfully")
}

// Login handles POST /api/v1/users/login requests.
func (h AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, apperror.RateLimited("too many attempts, retry later"))
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperror.Validation("invalid request body"))
		return
	}

	login := strings.ToLower(strings.TrimSpace(req.Username))
	if login == "" {
		login = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if login == "" {
		respondError(ctx, w, apperror.Validation("username or email is required"))
		return
	}
	if req.Password == "" {
		respondError(ctx, w, apperror.Validation("password is required"))
		return
	}

	user, err := h.Users.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("user not found"))
			return
		}
		respondError(ctx, w, apperror.Internal("failed to look up user", err))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(ctx, w, apperror.Unauthorized("invalid credentials"))
		return
	}

	pair, err := h.Tokens.IssuePair(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setAuthCookies(w, pair)
	respondSuccess(ctx, w, http.StatusOK, sanitizeUser(user), "logged in")
}

// Logout handles POST /api/v1/users/logout requests.
func (h AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	if err := h.Users.ClearRefreshToken(ctx, userID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, apperror.Internal("failed to log out", err))
		return
	}

	clearAuthCookies(w)
	respondSuccess(ctx, w, http.StatusOK, struct{}{}, "user logged out")
}

// Refresh handles POST /api/v1/users/refresh-token requests. The refresh
// token is read from the cookie first, then from the JSON body.
func (h AccountHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	presented := ""
	if cookie, err := r.Cookie("refreshToken"); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			presented = strings.TrimSpace(req.RefreshToken)
		}
	}
	if presented == "" {
		respondError(ctx, w, apperror.Validation("refresh token is required"))
		return
	}

	pair, err := h.Tokens.Rotate(ctx, presented)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setAuthCookies(w, pair)
	respondSuccess(ctx, w, http.StatusOK, tokenPairPayload{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "token pair rotated")
}

// ChangePassword handles POST /api/v1/users/change-password requests.
func (h AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperror.Validation("invalid request body"))
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, apperror.Validation("old and new passwords are required"))
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		respondError(ctx, w, apperror.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength)))
		return
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		respondError(ctx, w, h.mapUserError(err))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		respondError(ctx, w, apperror.Validation("invalid old password"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(ctx, w, apperror.Internal("failed to secure password", err))
		return
	}

	if err := h.Users.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		respondError(ctx, w, h.mapUserError(err))
		return
	}

	respondSuccess(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

// CurrentUser handles GET /api/v1/users/current-user requests.
func (h AccountHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.Users.FindByID(ctx, middleware.UserIDFromContext(ctx))
	if err != nil {
		respondError(ctx, w, h.mapUserError(err))
		return
	}

	respondSuccess(ctx, w, http.StatusOK, sanitizeUser(user), "current user fetched")
}

// UpdateAccount handles PATCH /api/v1/users/update-account requests.
func (h AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperror.Validation("invalid request body"))
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if fullName == "" && email == "" {
		respondError(ctx, w, apperror.Validation("enter details to update"))
		return
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			respondError(ctx, w, apperror.Validation("invalid email address"))
			return
		}
	}

	user, err := h.Users.UpdateProfile(ctx, userID, fullName, email)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, apperror.Conflict("email already in use"))
			return
		}
		respondError(ctx, w, h.mapUserError(err))
		return
	}

	respondSuccess(ctx, w, http.StatusOK, sanitizeUser(user), "account details updated")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar requests.
func (h AccountHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", func(user models.User) string {
		return user.AvatarURL
	}, h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image requests.
func (h AccountHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", func(user models.User) string {
		return user.CoverImageURL
	}, h.Users.UpdateCoverImage)
}

// updateImage stages the uploaded file, relocates it, swaps the stored URL,
// and only then removes the replaced remote object. The removal is
// best-effort so a storage hiccup never fails an otherwise successful
// update.
func (h AccountHandler) updateImage(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	currentURL func(models.User) string,
	update func(ctx context.Context, id, url string) (models.User, error),
) {
	ctx := r.Context()
	userID := middleware.UserIDFromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, apperror.Validation("invalid multipart form"))
		return
	}

	localPath, err := stageFormFile(r, field, h.TempDir)
	if err != nil {
		respondError(ctx, w, apperror.Internal("failed to stage upload", err))
		return
	}
	if localPath == "" {
		respondError(ctx, w, apperror.Validation(field+" file is missing"))
		return
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		respondError(ctx, w, h.mapUserError(err))
		return
	}
	previousURL := currentURL(user)

	uploadedURL := h.Media.Upload(ctx, localPath)
	if uploadedURL == "" {
		respondError(ctx, w, apperror.Validation(field+" upload failed"))
		return
	}

	updated, err := update(ctx, userID, uploadedURL)
	if err != nil {
		h.Media.Remove(ctx, uploadedURL)
		respondError(ctx, w, h.mapUserError(err))
		return
	}

	if previousURL != "" {
		h.Media.Remove(ctx, previousURL)
	}

	respondSuccess(ctx, w, http.StatusOK, sanitizeUser(updated), field+" updated successfully")
}

// stageFormFile copies a multipart upload into the temp directory and
// returns its path, or "" when the field was not provided.
func stageFormFile(r *http.Request, field, tempDir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", fmt.Errorf("read form file %q: %w", field, err)
	}
	defer file.Close()

	dir := tempDir
	if dir == "" {
		dir = os.TempDir()
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	localPath := filepath.Join(dir, uuid.NewString()+ext)

	dst, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(localPath)
		return "", fmt.Errorf("stage form file %q: %w", field, err)
	}

	return localPath, nil
}

func (h AccountHandler) mapUserError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.NotFound("user not found")
	}
	return apperror.Internal("user lookup failed", err)
}

func (h AccountHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type tokenPairPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
