// Package account registers users, checks their passwords and runs the
// password reset flow. Sessions are stateless bearer tokens from package auth.
package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"eventhub/internal/apperr"
	"eventhub/internal/auth"
	"eventhub/internal/model"
	"eventhub/internal/notify"
	"eventhub/internal/repo"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLen = 6
	// MaxPasswordLen is the most bcrypt will look at.
	MaxPasswordLen = 72
)

var (
	ErrBadCredentials = fmt.Errorf("wrong email or password: %w", apperr.ErrUnauthorized)
	ErrBadResetToken  = fmt.Errorf("reset link is invalid or expired: %w", apperr.ErrValidation)
)

type Store interface {
	CreateUser(ctx context.Context, u *model.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	SetPasswordHash(ctx context.Context, id int64, hash string) error
}

// Session is what a successful register or login hands back to the client.
type Session struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type Service struct {
	store    Store
	tokens   *auth.Tokens
	notifier notify.Dispatcher
	resetURL string
	cost     int
	log      *zerolog.Logger
}

// NewService builds the account service. resetURL is the page that receives
// the reset token as its token query parameter.
func NewService(store Store, tokens *auth.Tokens, n notify.Dispatcher, resetURL string, log *zerolog.Logger) *Service {
	return &Service{
		store:    store,
		tokens:   tokens,
		notifier: n,
		resetURL: resetURL,
		cost:     bcrypt.DefaultCost,
		log:      log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPassword(password string) error {
	if len(password) < MinPasswordLen {
		return apperr.Validation("password must be at least %d characters", MinPasswordLen)
	}
	if len(password) > MaxPasswordLen {
		return apperr.Validation("password must be at most %d bytes", MaxPasswordLen)
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("hash password: %w", err))
	}
	return string(h), nil
}

// stamp fingerprints a password hash so a reset token dies once the password changes.
func stamp(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

func (s *Service) session(u *model.User) (*Session, error) {
	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Session{Token: token, User: *u}, nil
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	u := &model.User{Name: name, Email: email, Role: model.RoleUser, PasswordHash: hash}
	if _, err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("register %s: %w", email, err)
	}
	s.log.Info().Int64("user_id", u.ID).Msg("user registered")

	if err := s.notifier.Notify(ctx, []model.User{*u}, notify.Welcome, map[string]string{"name": u.Name}); err != nil {
		s.log.Warn().Err(err).Int64("user_id", u.ID).Msg("failed to dispatch welcome email")
	}
	return s.session(u)
}

// Login checks the password and issues a token. Blocked users can still log
// in; blocking only silences them in chat.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.log.Info().Int64("user_id", u.ID).Msg("login rejected")
		return nil, ErrBadCredentials
	}
	return s.session(u)
}

func (s *Service) Me(ctx context.Context, userID int64) (*model.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// ForgotPassword mails a reset link when the email belongs to an account.
// Unknown emails succeed silently so the endpoint does not reveal who is registered.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			s.log.Info().Msg("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("forgot password: %w", err)
	}

	token, err := s.tokens.IssueReset(u.ID, stamp(u.PasswordHash))
	if err != nil {
		return apperr.Internal(err)
	}
	link, err := s.link(token)
	if err != nil {
		return apperr.Internal(err)
	}

	data := map[string]string{"name": u.Name, "reset_url": link}
	if err := s.notifier.Notify(ctx, []model.User{*u}, notify.PasswordReset, data); err != nil {
		return apperr.Internal(fmt.Errorf("dispatch reset email: %w", err))
	}
	s.log.Info().Int64("user_id", u.ID).Msg("password reset email dispatched")
	return nil
}

func (s *Service) link(token string) (string, error) {
	u, err := url.Parse(s.resetURL)
	if err != nil {
		return "", fmt.Errorf("parse reset url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ResetPassword sets a new password. A token works once: changing the
// password changes the stamp it carries.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	userID, tokenStamp, err := s.tokens.ParseReset(token)
	if err != nil {
		return ErrBadResetToken
	}
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return ErrBadResetToken
		}
		return fmt.Errorf("reset password: %w", err)
	}
	if stamp(u.PasswordHash) != tokenStamp {
		return ErrBadResetToken
	}

	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	if err := s.store.SetPasswordHash(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	s.log.Info().Int64("user_id", u.ID).Msg("password reset")
	return nil
}
