package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-expense-tracker/internal/errors"
	"github.com/jrsteele09/go-expense-tracker/sessions"
	"github.com/jrsteele09/go-expense-tracker/token"
	"github.com/jrsteele09/go-expense-tracker/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultAccessTTL  = 24 * time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Operation names reported to the Recorder
const (
	OpRegister       = "register"
	OpRegisterAdmin  = "register_admin"
	OpLogin          = "login"
	OpRefresh        = "refresh"
	OpChangePassword = "change_password"
	OpLogout         = "logout"
)

// Recorder receives the outcome of every auth operation
type Recorder interface {
	AuthOperation(operation string, success bool)
}

type noopRecorder struct{}

func (noopRecorder) AuthOperation(string, bool) {}

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users    users.UserRepo    // Credential store
	Sessions sessions.Registry // Refresh token per user
}

// Service is the auth core: registration, login, token rotation and password changes.
type Service struct {
	repos      Repos
	codec      *token.Codec
	hasher     users.PasswordHasher
	accessTTL  time.Duration
	refreshTTL time.Duration
	recorder   Recorder

	// dummyHash is verified against when the email is unknown so both login failures cost a hash
	dummyHash     string
	dummyHashOnce sync.Once
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithTokenTTLs sets the lifetime of access and refresh tokens
func WithTokenTTLs(access, refresh time.Duration) ServiceOption {
	return func(s *Service) {
		s.accessTTL = access
		s.refreshTTL = refresh
	}
}

// WithRecorder reports operation outcomes, normally to Prometheus
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		s.recorder = r
	}
}

func NewService(repos Repos, codec *token.Codec, hasher users.PasswordHasher, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions registry is required")
	}
	if codec == nil {
		return nil, errors.New("[NewService] codec is required")
	}
	if hasher == nil {
		return nil, errors.New("[NewService] hasher is required")
	}

	s := &Service{
		repos:      repos,
		codec:      codec,
		hasher:     hasher,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		recorder:   noopRecorder{},
	}
	for _, opt := range options {
		opt(s)
	}
	if s.accessTTL <= 0 || s.refreshTTL <= 0 {
		return nil, errors.New("[NewService] token TTLs must be positive")
	}
	return s, nil
}

// Register creates a MEMBER identity
func (s *Service) Register(ctx context.Context, params RegisterParameters) (u *users.User, err error) {
	defer s.record(OpRegister, &err)
	return s.create(ctx, params, users.RoleMember)
}

// RegisterAdmin creates an ADMIN identity. Who may call it is decided by the route.
func (s *Service) RegisterAdmin(ctx context.Context, params RegisterParameters) (u *users.User, err error) {
	defer s.record(OpRegisterAdmin, &err)
	return s.create(ctx, params, users.RoleAdmin)
}

func (s *Service) create(ctx context.Context, params RegisterParameters, role users.Role) (*users.User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register] hash password")
	}

	u := &users.User{
		Email:        users.NormalizeEmail(params.Email),
		Name:         strings.TrimSpace(params.Name),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repos.Users.Create(ctx, u); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Conflict(msgEmailExists, err)
		}
		return nil, errors.Wrap(err, "[Service.Register] create user")
	}

	log.Info().Int64("userId", u.ID).Str("role", string(role)).Msg("user registered")
	return u.Sanitized(), nil
}

// Login checks credentials and starts a session. Any previous refresh token for the
// user stops working.
func (s *Service) Login(ctx context.Context, params LoginParameters) (pair *TokenPair, err error) {
	defer s.record(OpLogin, &err)

	if err := params.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repos.Users.GetByEmail(ctx, users.NormalizeEmail(params.Email))
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, errors.Wrap(err, "[Service.Login] GetByEmail")
		}
		s.hasher.Verify(s.unknownUserHash(), params.Password)
		return nil, apperrors.Unauthorized(msgInvalidCredentials)
	}

	if !s.hasher.Verify(u.PasswordHash, params.Password) {
		return nil, apperrors.Unauthorized(msgInvalidCredentials)
	}

	pair, err = s.issuePair(u)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login]")
	}
	if err := s.repos.Sessions.Put(ctx, u.ID, pair.RefreshToken); err != nil {
		return nil, errors.Wrap(err, "[Service.Login] store refresh token")
	}
	return pair, nil
}

// Refresh exchanges the current refresh token for a new pair. The presented token is
// consumed: a second use fails even if it has not expired.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	defer s.record(OpRefresh, &err)

	if refreshToken == "" {
		return nil, apperrors.Unauthorized(msgInvalidRefreshToken)
	}

	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(msgInvalidRefreshToken, err)
	}
	if claims.Use != token.UseRefresh {
		return nil, apperrors.Unauthorized(msgInvalidRefreshToken)
	}

	stored, ok, err := s.repos.Sessions.Get(ctx, claims.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] get session")
	}
	if !ok || !sessions.TokensEqual(stored, refreshToken) {
		return nil, apperrors.Unauthorized(msgInvalidRefreshToken)
	}

	// Re-read so a role change since login is reflected in the new tokens
	u, err := s.repos.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(msgInvalidRefreshToken, err)
		}
		return nil, errors.Wrap(err, "[Service.Refresh] GetByID")
	}

	pair, err = s.issuePair(u)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh]")
	}

	swapped, err := s.repos.Sessions.CompareAndSwap(ctx, u.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] rotate session")
	}
	if !swapped {
		// A concurrent refresh or logout got there first
		return nil, apperrors.Unauthorized(msgInvalidRefreshToken)
	}
	return pair, nil
}

// ChangePassword replaces the password hash and ends the current session
func (s *Service) ChangePassword(ctx context.Context, userID int64, params ChangePasswordParameters) (err error) {
	defer s.record(OpChangePassword, &err)

	if err := params.Validate(); err != nil {
		return err
	}

	u, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Unauthorized(msgUserNotFound, err)
		}
		return errors.Wrap(err, "[Service.ChangePassword] GetByID")
	}

	if !s.hasher.Verify(u.PasswordHash, params.CurrentPassword) {
		return apperrors.BadRequest(msgCurrentPasswordWrong)
	}
	if s.hasher.Verify(u.PasswordHash, params.NewPassword) {
		return apperrors.BadRequest(msgPasswordUnchanged)
	}

	hash, err := s.hasher.Hash(params.NewPassword)
	if err != nil {
		return errors.Wrap(err, "[Service.ChangePassword] hash password")
	}
	if err := s.repos.Users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return errors.Wrap(err, "[Service.ChangePassword] UpdatePasswordHash")
	}
	if err := s.repos.Sessions.Remove(ctx, userID); err != nil {
		return errors.Wrap(err, "[Service.ChangePassword] remove session")
	}

	log.Info().Int64("userId", userID).Msg("password changed")
	return nil
}

// Logout forgets the user's refresh token. Access tokens already issued stay valid until they expire.
func (s *Service) Logout(ctx context.Context, userID int64) (err error) {
	defer s.record(OpLogout, &err)

	if err := s.repos.Sessions.Remove(ctx, userID); err != nil {
		return errors.Wrap(err, "[Service.Logout] remove session")
	}
	return nil
}

// Me returns the caller's identity without the password hash
func (s *Service) Me(ctx context.Context, userID int64) (*users.User, error) {
	u, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(msgUserNotFound, err)
		}
		return nil, errors.Wrap(err, "[Service.Me] GetByID")
	}
	return u.Sanitized(), nil
}

// AccessTTL and RefreshTTL are the lifetimes used for cookies
func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}

func (s *Service) RefreshTTL() time.Duration {
	return s.refreshTTL
}

func (s *Service) issuePair(u *users.User) (*TokenPair, error) {
	access, err := s.codec.Issue(token.ClaimsFor(u, token.UseAccess), s.accessTTL)
	if err != nil {
		return nil, errors.Wrap(err, "issue access token")
	}
	refresh, err := s.codec.Issue(token.ClaimsFor(u, token.UseRefresh), s.refreshTTL)
	if err != nil {
		return nil, errors.Wrap(err, "issue refresh token")
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) unknownUserHash() string {
	s.dummyHashOnce.Do(func() {
		h, err := s.hasher.Hash("unknown-user-placeholder")
		if err != nil {
			log.Err(err).Msg("failed to prepare placeholder hash")
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func (s *Service) record(operation string, err *error) {
	s.recorder.AuthOperation(operation, *err == nil)
}
