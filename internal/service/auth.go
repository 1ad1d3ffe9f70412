package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/roomlock/roomlock-server/internal/apperrors"
	"github.com/roomlock/roomlock-server/internal/metrics"
	"github.com/roomlock/roomlock-server/internal/model"
	"github.com/roomlock/roomlock-server/internal/repository"
	"github.com/roomlock/roomlock-server/internal/utils"
)

// UserStore persists users.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// AuthService registers users and issues bearer tokens.
type AuthService struct {
	users      UserStore
	secret     string
	ttl        time.Duration
	bcryptCost int
}

func NewAuthService(users UserStore, secret string, ttl time.Duration, bcryptCost int) *AuthService {
	return &AuthService{users: users, secret: secret, ttl: ttl, bcryptCost: bcryptCost}
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Role       string
	Phone      *string
	University *string
}

// LoginResult carries the issued token and the authenticated user.
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
}

// Register creates a student or owner account.  Admin accounts are not
// self-service.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" || in.Password == "" {
		return model.User{}, apperrors.NewValidationError(MsgIncompleteData)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return model.User{}, apperrors.NewValidationError(MsgInvalidEmail)
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = model.RoleStudent
	}
	if !model.ValidRole(role) || role == model.RoleAdmin {
		return model.User{}, apperrors.NewValidationError(MsgInvalidRole)
	}
	if len(in.Password) > utils.MaxPasswordBytes {
		return model.User{}, apperrors.NewValidationError(MsgPasswordTooLong)
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.User{}, internalError("hash password", err)
	}
	u := model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Phone:        trimmedOrNil(in.Phone),
		University:   trimmedOrNil(in.University),
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, apperrors.NewValidationError(MsgDuplicateEmail)
		}
		return model.User{}, internalError("create user", err)
	}
	metrics.RecordDomainEvent(metrics.KindUserRegistered)
	return u, nil
}

// Login verifies the credentials and issues a token valid for the
// configured TTL.  Unknown emails and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, apperrors.NewValidationError(MsgIncompleteData)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, apperrors.NewUnauthorizedError(MsgInvalidCredentials)
		}
		return LoginResult{}, internalError("load user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return LoginResult{}, apperrors.NewUnauthorizedError(MsgInvalidCredentials)
	}
	tok, err := utils.NewAccessToken(s.secret, utils.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}, s.ttl)
	if err != nil {
		return LoginResult{}, internalError("sign token", err)
	}
	return LoginResult{Token: tok.Token, ExpiresAt: tok.Exp, User: u}, nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID uint64) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, apperrors.NewNotFoundError(MsgUserNotFound)
		}
		return model.User{}, internalError("load user", err)
	}
	return u, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
