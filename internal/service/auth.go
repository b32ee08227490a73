package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	pkghash "github.com/Stephen-Salano/Spring-Security-example/internal/hash"
	"github.com/Stephen-Salano/Spring-Security-example/internal/events"
	"github.com/Stephen-Salano/Spring-Security-example/internal/logging"
	"github.com/Stephen-Salano/Spring-Security-example/internal/models"
	"github.com/Stephen-Salano/Spring-Security-example/internal/repo"
	"github.com/Stephen-Salano/Spring-Security-example/internal/tokens"
)

var (
	ErrValidation     = errors.New("invalid registration input")
	ErrBadCredentials = errors.New("invalid username or password")
)

type AuthService struct {
	Repo      *repo.GormRepo
	Codec     *tokens.Codec
	AccessTTL time.Duration
	Producer  *events.Producer
}

// AuthResult is the response triple of register, authenticate and
// refresh. ExpiresAt is the access token expiry in epoch milliseconds.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

type RegisterRequest struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Roles     []string `json:"roles"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required.Error("first name cannot be blank")),
		validation.Field(&r.LastName, validation.Required.Error("last name cannot be blank")),
		validation.Field(&r.Username,
			validation.Required.Error("username cannot be blank"),
			validation.Length(3, 50).Error("username must be between 3 and 50 characters")),
		validation.Field(&r.Email,
			validation.Required.Error("email cannot be blank"),
			is.Email.Error("please provide a valid email address")),
		validation.Field(&r.Password,
			validation.Required.Error("password cannot be blank"),
			validation.Length(8, 0).Error("password must be at least 8 characters long")),
	)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*AuthResult, error) {
	accessExp := time.Now().Add(s.AccessTTL)
	accessToken, err := s.Codec.Issue(user.Username, map[string]any{"roles": user.Roles}, s.AccessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := s.Repo.IssueRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		ExpiresAt:    accessExp.UnixMilli(),
	}, nil
}

func (s *AuthService) publish(ctx context.Context, user *models.User, eventType string) {
	l := logging.FromContext(ctx)
	event := map[string]any{
		"type":     eventType,
		"user_id":  user.ID.String(),
		"username": user.Username,
	}
	if err := s.Producer.PublishEvent(ctx, events.TopicUserEvents, user.ID.String(), event); err != nil {
		l.Error("kafka publish error", "type", eventType, "error", err)
	}
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", req.Username)

	if err := req.Validate(); err != nil {
		l.Warn("register_failed", "status", 400, "reason", "validation", "error", err)
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	roles := req.Roles
	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}

	pwHash, err := pkghash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		Roles:        roles,
	}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			l.Warn("register_failed", "status", 409, "reason", "user_exists")
		} else {
			l.Error("register_failed", "status", 500, "reason", "db_error", "error", err)
		}
		return nil, err
	}

	res, err := s.issueTokens(ctx, &user)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "token_issue", "error", err)
		return nil, err
	}

	s.publish(ctx, &user, "user_registered")
	l.Info("register_successful")
	return res, nil
}

// Authenticate resolves the user by email first, then username, and
// issues a fresh token pair. The new refresh token supersedes any
// previous one, so logging in elsewhere invalidates the old session.
func (s *AuthService) Authenticate(ctx context.Context, usernameOrEmail, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.authenticate", "login", usernameOrEmail)

	user, err := s.Repo.FindByEmail(ctx, usernameOrEmail)
	if errors.Is(err, repo.ErrUserNotFound) {
		user, err = s.Repo.FindByUsername(ctx, usernameOrEmail)
	}
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("authenticate_failed", "status", 401, "reason", "user_not_found")
			return nil, err
		}
		l.Error("authenticate_failed", "status", 500, "error", err)
		return nil, err
	}

	if !pkghash.CheckPassword(user.PasswordHash, password) {
		l.Warn("authenticate_failed", "status", 401, "reason", "bad_credentials")
		return nil, ErrBadCredentials
	}

	res, err := s.issueTokens(ctx, user)
	if err != nil {
		l.Error("authenticate_failed", "status", 500, "reason", "token_issue", "error", err)
		return nil, err
	}

	s.publish(ctx, user, "user_logged_in")
	l.Info("authenticate_successful")
	return res, nil
}

// Refresh renews the access token only. The refresh token string comes
// back unchanged; there is no rotation on refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	refresh, err := s.Repo.FindRefreshByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repo.ErrTokenNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "token_not_found")
		}
		return nil, err
	}

	if err := s.Repo.VerifyNotExpired(ctx, refresh); err != nil {
		if errors.Is(err, repo.ErrTokenExpired) {
			l.Warn("refresh_failed", "status", 401, "reason", "token_expired")
		}
		return nil, err
	}

	user, err := s.Repo.FindByID(ctx, refresh.UserID)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	accessExp := time.Now().Add(s.AccessTTL)
	accessToken, err := s.Codec.Issue(user.Username, map[string]any{"roles": user.Roles}, s.AccessTTL)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "token_issue", "error", err)
		return nil, err
	}

	l.Info("refresh_successful")
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp.UnixMilli(),
	}, nil
}

// Logout revokes the user's refresh token. Logging out twice is not an
// error.
func (s *AuthService) Logout(ctx context.Context, username string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout", "username", username)

	user, err := s.Repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			l.Warn("logout_failed", "status", 401, "reason", "user_not_found")
		}
		return err
	}

	if err := s.Repo.RevokeAll(ctx, user.ID); err != nil {
		l.Error("logout_failed", "status", 500, "error", err)
		return err
	}

	s.publish(ctx, user, "user_logged_out")
	l.Info("logout_successful")
	return nil
}
