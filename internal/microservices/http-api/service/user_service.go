package service

import (
	"context"
	"strings"

	"comichub/internal/microservices/http-api/models"
	"comichub/internal/microservices/http-api/repository"
	"comichub/internal/middleware/auth"
	"comichub/internal/pagination"
	"comichub/internal/upload"

	"go.uber.org/zap"
)

// ProfileInput carries optional profile changes; nil fields are left alone.
type ProfileInput struct {
	DisplayName *string
	Bio         *string
}

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error)
	UploadAvatar(ctx context.Context, userID string, f upload.File) (*models.User, error)
	ChangePassword(ctx context.Context, userID, current, next, confirm string) error

	ListUsers(ctx context.Context, filter repository.UserFilter, page pagination.Page) ([]models.User, int64, error)
	SetStatus(ctx context.Context, actorID, userID, status string) (*models.User, error)
	SetRole(ctx context.Context, actorID, userID, role string) (*models.User, error)
}

type userService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	uploader         upload.Uploader
	log              *zap.Logger
}

func NewUserService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	uploader upload.Uploader,
	log *zap.Logger,
) UserService {
	return &userService{userRepo: userRepo, refreshTokenRepo: refreshTokenRepo, uploader: uploader, log: log}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	fields := map[string]any{}
	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if name == "" {
			return nil, ErrDisplayNameRequired
		}
		fields["display_name"] = name
	}
	if in.Bio != nil {
		fields["bio"] = strings.TrimSpace(*in.Bio)
	}
	if len(fields) > 0 {
		if err := s.update(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.GetProfile(ctx, userID)
}

func (s *userService) UploadAvatar(ctx context.Context, userID string, f upload.File) (*models.User, error) {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}
	url, err := s.uploader.UploadAvatar(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	if err := s.update(ctx, userID, map[string]any{"avatar_url": url}); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

func (s *userService) ChangePassword(ctx context.Context, userID, current, next, confirm string) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.VerifyPassword(user.Password, current); err != nil {
		return ErrWrongPassword
	}
	if next != confirm {
		return ErrPasswordMismatch
	}
	hashed, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.update(ctx, userID, map[string]any{"password_hash": hashed})
}

func (s *userService) ListUsers(ctx context.Context, filter repository.UserFilter, page pagination.Page) ([]models.User, int64, error) {
	return s.userRepo.List(ctx, filter, page)
}

// SetStatus locks or unlocks an account. An empty status toggles the current one.
// Locking signs the user out everywhere.
func (s *userService) SetStatus(ctx context.Context, actorID, userID, status string) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if status == "" {
		status = models.StatusLocked
		if user.IsLocked() {
			status = models.StatusActive
		}
	}
	if status != models.StatusActive && status != models.StatusLocked {
		return nil, ErrInvalidStatus
	}
	if status == models.StatusLocked && actorID == userID {
		return nil, ErrCannotLockSelf
	}

	if err := s.update(ctx, userID, map[string]any{"status": status}); err != nil {
		return nil, err
	}
	if status == models.StatusLocked {
		if err := s.refreshTokenRepo.RevokeAllForUser(ctx, userID); err != nil {
			s.log.Warn("revoke sessions of locked user", zap.String("user_id", userID), zap.Error(err))
		}
	}
	user.Status = status
	return user, nil
}

func (s *userService) SetRole(ctx context.Context, actorID, userID, role string) (*models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, ErrInvalidRole
	}
	if actorID == userID && role != models.RoleAdmin {
		return nil, ErrCannotLockSelf
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.update(ctx, userID, map[string]any{"role": role}); err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}

func (s *userService) update(ctx context.Context, userID string, fields map[string]any) error {
	if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
