package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"comichub/internal/config"
	"comichub/internal/microservices/http-api/models"
	"comichub/internal/microservices/http-api/repository"
	"comichub/internal/middleware/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Claims are the identity fields carried by an access token.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds
}

type RegisterInput struct {
	DisplayName string
	Email       string
	Password    string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateToken(tokenString string) (*Claims, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password, confirm string) error
}

// Mailer delivers password reset links.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes outgoing mail to the log instead of sending it.
type LogMailer struct {
	Log *zap.Logger
}

func (m LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.Log.Info("outgoing mail", zap.String("to", to), zap.String("subject", subject), zap.String("body", body))
	return nil
}

type authService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	resetRepo        repository.PasswordResetRepository
	cache            *repository.Cache
	mailer           Mailer
	cfg              *config.Config
	log              *zap.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	resetRepo repository.PasswordResetRepository,
	cache *repository.Cache,
	mailer Mailer,
	cfg *config.Config,
	log *zap.Logger,
) AuthService {
	return &authService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		resetRepo:        resetRepo,
		cache:            cache,
		mailer:           mailer,
		cfg:              cfg,
		log:              log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Emails listed in ADMIN_EMAILS become admins.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.DisplayName)
	email := normalizeEmail(in.Email)
	if name == "" {
		return nil, ErrDisplayNameRequired
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	hashedPassword, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: name,
		Password:    hashedPassword,
		Role:        models.RoleUser,
		Status:      models.StatusActive,
	}
	if s.cfg.IsAdminEmail(email) {
		user.Role = models.RoleAdmin
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}
	return user, nil
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, nil, err
		}
		auth.BurnCompare(password)
		return nil, nil, ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(user.Password, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if user.IsLocked() {
		return nil, nil, ErrAccountLocked
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]any{"last_login": now}); err != nil {
		s.log.Warn("record last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	user.LastLogin = &now
	return pair, user, nil
}

// Refresh rotates the refresh token and issues a new access token.
func (s *authService) Refresh(ctx context.Context, refreshTokenString string) (*TokenPair, error) {
	rt, err := s.refreshTokenRepo.FindByToken(ctx, refreshTokenString)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if rt.Revoked {
		return nil, ErrInvalidToken
	}
	if time.Now().After(rt.ExpiresAt) {
		return nil, ErrExpiredToken
	}

	user, err := s.userRepo.FindByID(ctx, rt.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.IsLocked() {
		return nil, ErrAccountLocked
	}

	if err := s.refreshTokenRepo.Revoke(ctx, rt.ID); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	return s.issueTokens(ctx, user)
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *authService) Logout(ctx context.Context, refreshTokenString string) error {
	rt, err := s.refreshTokenRepo.FindByToken(ctx, refreshTokenString)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}
	return s.refreshTokenRepo.Revoke(ctx, rt.ID)
}

func (s *authService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(s.cfg.AccessTokenTTL).Unix(),
		"iat":     time.Now().Unix(),
		"type":    "access",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *authService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	refreshToken := &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(s.cfg.RefreshTokenTTL),
	}

	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return "", fmt.Errorf("create refresh token: %w", err)
	}
	return refreshToken.Token, nil
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if typ, _ := mc["type"].(string); typ != "access" {
		return nil, ErrInvalidToken
	}
	userID, _ := mc["user_id"].(string)
	if userID == "" {
		return nil, ErrInvalidToken
	}
	email, _ := mc["email"].(string)
	role, _ := mc["role"].(string)
	return &Claims{UserID: userID, Email: email, Role: role}, nil
}

// ForgotPassword mails a one-time reset link, at most MaxResetPerDay times
// per email per UTC day.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.checkResetLimit(ctx, user); err != nil {
		return err
	}

	reset := &models.PasswordReset{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(s.cfg.PasswordResetTTL).UTC(),
	}
	if err := s.resetRepo.Create(ctx, reset); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.cfg.PublicBaseURL, "/"), reset.Token)
	body := fmt.Sprintf("Hi %s,\n\nOpen this link to choose a new password: %s\nThe link expires in %s.",
		user.DisplayName, link, s.cfg.PasswordResetTTL)
	if err := s.mailer.Send(ctx, user.Email, "Reset your password", body); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

func (s *authService) checkResetLimit(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	limit := int64(s.cfg.MaxResetPerDay)

	n, err := s.cache.IncrUntil(ctx, repository.ResetAttemptsKey(user.Email, dayStart.Format("2006-01-02")), dayStart.AddDate(0, 0, 1))
	switch {
	case err == nil:
		if n > limit {
			return ErrResetLimitReached
		}
		return nil
	case !errors.Is(err, repository.ErrStoreDisabled):
		s.log.Warn("reset counter unavailable, falling back to database", zap.Error(err))
	}

	count, err := s.resetRepo.CountSince(ctx, user.ID, dayStart)
	if err != nil {
		return err
	}
	if count >= limit {
		return ErrResetLimitReached
	}
	return nil
}

// ResetPassword sets a new password from a reset token and signs the user out everywhere.
func (s *authService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	reset, err := s.resetRepo.FindByToken(ctx, token)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if reset.UsedAt != nil || time.Now().After(reset.ExpiresAt) {
		return ErrResetTokenInvalid
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdateFields(ctx, reset.UserID, map[string]any{"password_hash": hashed}); err != nil {
		return err
	}
	if err := s.resetRepo.MarkUsed(ctx, reset.ID); err != nil {
		return err
	}
	if err := s.refreshTokenRepo.RevokeAllForUser(ctx, reset.UserID); err != nil {
		s.log.Warn("revoke sessions after reset", zap.String("user_id", reset.UserID), zap.Error(err))
	}
	return nil
}
