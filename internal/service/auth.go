package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/tasktracker/internal/events"
	"github.com/Skotchmaster/tasktracker/internal/hash"
	"github.com/Skotchmaster/tasktracker/internal/logging"
	"github.com/Skotchmaster/tasktracker/internal/metrics"
	"github.com/Skotchmaster/tasktracker/internal/models"
	"github.com/Skotchmaster/tasktracker/internal/repo"
	"github.com/Skotchmaster/tasktracker/internal/tokens"
	"github.com/Skotchmaster/tasktracker/internal/transport"
)

type AuthService struct {
	Repo    *repo.GormRepo
	Tokens  *tokens.Service
	Events  events.Publisher
	Metrics metrics.Recorder
}

// Session is the result of every call that authenticates a user.
type Session struct {
	User         models.PublicUser
	AccessToken  string
	RefreshToken string
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// spendHashTime makes an unknown email cost as much as a wrong password.
func spendHashTime(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = hash.HashPassword("placeholder-password")
	})
	hash.CheckPassword(dummyHash, password)
}

func (s *AuthService) issue(u *models.User, version int) (*Session, error) {
	access, err := s.Tokens.IssueAccessToken(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Tokens.IssueRefreshToken(u.ID, version)
	if err != nil {
		return nil, err
	}
	return &Session{User: u.Public(), AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email := strings.TrimSpace(req.Email)
	if _, err := s.Repo.FindUserByEmail(ctx, email); err == nil {
		l.Warn("register_error", "status", 409, "reason", "email already registered")
		return nil, ErrConflict
	} else if !errors.Is(err, repo.ErrNotFound) {
		l.Error("register_error", "status", 500, "reason", "cannot look up user", "error", err)
		return nil, err
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: pwHash,
		Name:         strings.TrimSpace(req.Name),
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("register_error", "status", 409, "reason", "email already registered")
			return nil, ErrConflict
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, err
	}

	sess, err := s.issue(user, user.TokenVersion)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}

	s.record(metrics.AuthRegister)
	s.publish(ctx, events.UserEvent{Type: events.UserRegistered, UserID: user.ID, Email: user.Email})
	l.Info("register_successful", "user_id", user.ID)
	return sess, nil
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.FindUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			spendHashTime(req.Password)
			s.record(metrics.AuthLoginFailed)
			l.Warn("login failed", "status", 401, "reason", "invalid credentials")
			return nil, ErrInvalidCredentials
		}
		l.Error("login failed", "status", 500, "error", err)
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		s.record(metrics.AuthLoginFailed)
		l.Warn("login failed", "status", 401, "reason", "invalid credentials")
		return nil, ErrInvalidCredentials
	}

	sess, err := s.issue(user, user.TokenVersion)
	if err != nil {
		l.Error("login failed", "status", 500, "error", err)
		return nil, err
	}

	s.record(metrics.AuthLogin)
	l.Info("login_successful", "user_id", user.ID)
	return sess, nil
}

// Refresh redeems a refresh token exactly once. The stored version moves
// forward by one and the returned refresh token carries the new version.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		s.record(metrics.AuthRefreshFailed)
		return nil, ErrNoRefreshToken
	}

	claims, err := s.Tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		s.record(metrics.AuthRefreshFailed)
		l.Warn("refresh failed", "status", 401, "reason", "bad refresh token")
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.Repo.FindUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.record(metrics.AuthRefreshFailed)
			l.Warn("refresh failed", "status", 401, "reason", "user not found")
			return nil, ErrInvalidRefreshToken
		}
		l.Error("refresh failed", "status", 500, "error", err)
		return nil, err
	}

	if user.TokenVersion != claims.Version {
		s.record(metrics.AuthRefreshFailed)
		l.Warn("refresh failed", "status", 401, "reason", "stale token version", "user_id", user.ID)
		return nil, ErrInvalidRefreshToken
	}

	next, err := s.Repo.IncrementTokenVersion(ctx, user.ID, claims.Version)
	if err != nil {
		if errors.Is(err, repo.ErrStaleVersion) {
			s.record(metrics.AuthRefreshFailed)
			l.Warn("refresh failed", "status", 401, "reason", "lost rotation race", "user_id", user.ID)
			return nil, ErrInvalidRefreshToken
		}
		l.Error("refresh failed", "status", 500, "error", err)
		return nil, err
	}

	sess, err := s.issue(user, next)
	if err != nil {
		l.Error("refresh failed", "status", 500, "error", err)
		return nil, err
	}

	s.record(metrics.AuthRefresh)
	return sess, nil
}

// LogoutAll invalidates every refresh token the user holds.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout_all")

	if err := s.Repo.RevokeAllSessions(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUnauthenticated
		}
		l.Error("logout_all failed", "status", 500, "error", err)
		return err
	}

	s.record(metrics.AuthLogoutAll)
	s.publish(ctx, events.UserEvent{Type: events.UserLoggedOutEverywhere, UserID: userID})
	l.Info("logout_all_successful", "user_id", userID)
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	pub := user.Public()
	return &pub, nil
}

func (s *AuthService) publish(ctx context.Context, ev events.UserEvent) {
	ev.At = time.Now().UTC()
	publish(ctx, s.Events, events.TopicUsers, ev.UserID, ev)
}

func (s *AuthService) record(event string) {
	if s.Metrics != nil {
		s.Metrics.AuthEvent(event)
	}
}
