package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/repository"
	"liirat-news/internal/entity"
	"liirat-news/internal/session"
	"liirat-news/pkg/common"
	"liirat-news/pkg/logger"
	"liirat-news/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

const (
	minPasswordLength = 8
	minNameLength     = 2
)

// AuthService signs users in and out and keeps their session record current.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	Signup(ctx context.Context, req dto.SignupRequest) (*dto.AuthResponse, error)
	Logout(ctx context.Context, store *session.Store) error
	UpdateProfile(ctx context.Context, store *session.Store, sess *session.Session, req dto.UpdateProfileRequest) (*dto.SessionResponse, error)
	RequestPasswordReset(ctx context.Context, req dto.PasswordResetRequest) error
	AnonymousID(ctx context.Context, clientID string) (string, error)
}

func NewAuthService(users repository.UserRepository, sessions *session.Manager, log *logger.Logger) AuthService {
	return &authService{users: users, sessions: sessions, logger: log, now: time.Now}
}

type authService struct {
	users    repository.UserRepository
	sessions *session.Manager
	logger   *logger.Logger
	now      func() time.Time
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.TrimSpace(req.Email)
	if !emailPattern.MatchString(email) || req.Password == "" {
		return nil, &ValidationError{Message: "email and password are required", Fields: map[string]string{"email": "invalid email"}}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Failed to look up user", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, user, req.RememberMe)
}

func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (*dto.AuthResponse, error) {
	if verr := validateSignup(req); verr != nil {
		return nil, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &entity.User{
		Email:             strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:          strings.TrimSpace(req.FullName),
		PasswordHash:      string(hash),
		PreferredLanguage: req.PreferredLanguage,
		Timezone:          req.Timezone,
	}
	if user.PreferredLanguage == "" {
		user.PreferredLanguage = common.DefaultLanguage
	}
	if user.Timezone == "" {
		user.Timezone = common.DefaultTimezone
	}

	existing, err := s.users.FindByEmail(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, ErrConflict
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConflict
		}
		s.logger.Error("Failed to create user", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("User signed up", logger.StringField("user_id", user.ID))
	return s.startSession(ctx, user, false)
}

func (s *authService) startSession(ctx context.Context, user *entity.User, rememberMe bool) (*dto.AuthResponse, error) {
	sess := &session.Session{
		ID:                user.ID,
		Email:             user.Email,
		FullName:          user.FullName,
		PreferredLanguage: user.PreferredLanguage,
		Timezone:          user.Timezone,
		RememberMe:        rememberMe,
		LoginTime:         s.now().UTC(),
	}
	token := s.sessions.NewToken()
	if err := s.sessions.Store(token).Save(ctx, sess); err != nil {
		s.logger.Error("Failed to save session", logger.ErrorField(err), logger.StringField("user_id", user.ID))
		return nil, err
	}
	return &dto.AuthResponse{Token: token, User: MapToSessionResponse(sess)}, nil
}

// Logout clears the session behind the store's token. Signing out twice is not an error.
func (s *authService) Logout(ctx context.Context, store *session.Store) error {
	if store == nil {
		return nil
	}
	return store.Save(ctx, nil)
}

func (s *authService) UpdateProfile(ctx context.Context, store *session.Store, sess *session.Session, req dto.UpdateProfileRequest) (*dto.SessionResponse, error) {
	if !sess.Valid() || store == nil {
		return nil, ErrUnauthenticated
	}

	fields := map[string]any{}
	updated := *sess
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if utf8.RuneCountInString(name) < minNameLength {
			return nil, &ValidationError{Message: "invalid profile", Fields: map[string]string{"full_name": "name must be at least 2 characters"}}
		}
		fields["full_name"] = name
		updated.FullName = name
	}
	if req.PreferredLanguage != nil && *req.PreferredLanguage != "" {
		fields["preferred_language"] = *req.PreferredLanguage
		updated.PreferredLanguage = *req.PreferredLanguage
	}
	if req.Timezone != nil && *req.Timezone != "" {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, &ValidationError{Message: "invalid profile", Fields: map[string]string{"timezone": "unknown timezone"}}
		}
		fields["timezone"] = *req.Timezone
		updated.Timezone = *req.Timezone
	}

	if len(fields) > 0 {
		if err := s.users.Update(ctx, sess.ID, fields); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
		if err := store.Save(ctx, &updated); err != nil {
			return nil, err
		}
	}
	resp := MapToSessionResponse(&updated)
	return &resp, nil
}

// RequestPasswordReset never reveals whether the address is registered.
func (s *authService) RequestPasswordReset(ctx context.Context, req dto.PasswordResetRequest) error {
	email := strings.TrimSpace(req.Email)
	if !emailPattern.MatchString(email) {
		return &ValidationError{Message: "invalid email", Fields: map[string]string{"email": "invalid email"}}
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user != nil {
		s.logger.Info("Password reset requested", logger.StringField("user_id", user.ID))
	}
	return nil
}

func (s *authService) AnonymousID(ctx context.Context, clientID string) (string, error) {
	return s.sessions.AnonymousID(ctx, clientID)
}

func validateSignup(req dto.SignupRequest) *ValidationError {
	fields := map[string]string{}
	if !emailPattern.MatchString(strings.TrimSpace(req.Email)) {
		fields["email"] = "invalid email"
	}
	if len(req.Password) < minPasswordLength {
		fields["password"] = "password must be at least 8 characters"
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.FullName)) < minNameLength {
		fields["full_name"] = "name must be at least 2 characters"
	}
	if req.Timezone != "" && utils.LoadLocation(req.Timezone).String() != req.Timezone {
		fields["timezone"] = "unknown timezone"
	}
	if len(fields) > 0 {
		return &ValidationError{Message: "invalid signup", Fields: fields}
	}
	return nil
}
