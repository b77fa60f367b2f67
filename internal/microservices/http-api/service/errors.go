package service

import (
	"errors"

	"comichub/internal/microservices/http-api/repository"
	"comichub/internal/middleware/auth"
)

var (
	ErrComicNotFound    = errors.New("comic not found")
	ErrChapterNotFound  = errors.New("chapter not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrNotFollowing     = errors.New("comic is not followed")
	ErrHistoryNotFound  = repository.ErrHistoryItemNotFound

	ErrSlugTaken         = errors.New("a comic with this slug already exists")
	ErrEmailInUse        = errors.New("email already in use")
	ErrCategorySlugTaken = errors.New("a category with this slug already exists")
	ErrChapterExists     = errors.New("chapter already exists for this comic")

	ErrInvalidTitle        = errors.New("invalid comic title")
	ErrInvalidChapterTitle = errors.New(`chapter title must look like "Chapter 12"`)
	ErrNoImages            = errors.New("at least one image is required")
	ErrCoverRequired       = errors.New("cover image is required")
	ErrCategoryInvalid     = errors.New("category name and slug are required")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrDisplayNameRequired = errors.New("display name is required")
	ErrPasswordTooShort    = auth.ErrPasswordTooShort
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrInvalidRole         = errors.New("invalid role")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrDeviceRequired      = errors.New("X-Device-ID header is required")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrResetTokenInvalid  = errors.New("reset link is invalid or has expired")

	ErrAccountLocked  = errors.New("account is locked")
	ErrCannotLockSelf = errors.New("admins cannot lock or demote themselves")

	ErrResetLimitReached = errors.New("too many password reset requests today")

	ErrHistoryUnavailable = errors.New("device history is unavailable")
)

// Viewer identifies who is reading: a signed-in user, an anonymous device, or both.
type Viewer struct {
	UserID   string
	DeviceID string
}

func (v Viewer) Authenticated() bool {
	return v.UserID != ""
}

// key is a stable identity for per-viewer counters.
func (v Viewer) key() string {
	if v.UserID != "" {
		return "u:" + v.UserID
	}
	if v.DeviceID != "" {
		return "d:" + v.DeviceID
	}
	return ""
}
