package app

import (
	"context"
	"strings"
	"time"

	"excelytics/domain/core"
	"excelytics/internal/auth"
	"excelytics/internal/errors"
	"excelytics/internal/logging"
	"excelytics/models"
	"excelytics/ports"
)

// Registration is a self-service sign-up.
type Registration struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Credentials is a login attempt.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is what a successful sign-up or login returns.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService manages accounts and issues tokens.
type AuthService struct {
	users  ports.UserRepository
	tokens *auth.JWTManager
	now    func() time.Time
}

// NewAuthService creates an auth service.
func NewAuthService(users ports.UserRepository, tokens *auth.JWTManager) *AuthService {
	return &AuthService{users: users, tokens: tokens, now: time.Now}
}

// Register creates a regular user and signs them in.
func (s *AuthService) Register(ctx context.Context, reg Registration) (*Session, error) {
	user, err := s.createUser(ctx, reg.Email, reg.Name, reg.Password, models.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

// Login checks credentials. Unknown emails, wrong passwords and disabled
// accounts all fail the same way.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (*Session, error) {
	invalid := errors.Unauthorized("invalid email or password")

	user, err := s.users.GetUserByEmail(ctx, models.NormalizeEmail(creds.Email))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, invalid
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, creds.Password) || !user.IsActive {
		return nil, invalid
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		log := logging.Ctx(ctx)
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to record login time")
	} else {
		now := s.now().UTC()
		user.LastLoginAt = &now
	}
	return s.session(user)
}

// Authenticate turns a bearer token into an actor. The account must still
// exist and be active; the role comes from the stored account so that
// demotions apply immediately.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.Actor, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return models.Actor{}, errors.Unauthorized("invalid or expired token")
	}
	// The token names the account; role and active state come from the store.
	actor := claims.Actor()
	user, err := s.users.GetUserByID(ctx, actor.UserID)
	if err != nil {
		if errors.IsNotFound(err) {
			return models.Actor{}, errors.Unauthorized("account no longer exists")
		}
		return models.Actor{}, err
	}
	if !user.IsActive {
		return models.Actor{}, errors.Unauthorized("account is disabled")
	}
	return models.Actor{UserID: user.ID, Role: user.Role}, nil
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	return s.users.GetUserByID(ctx, actor.UserID)
}

// EnsureAdmin creates an admin account unless the email is taken. It
// reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = models.NormalizeEmail(email)
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.IsNotFound(err) {
		return false, err
	}
	if _, err := s.createUser(ctx, email, "Administrator", password, models.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AuthService) createUser(ctx context.Context, email, name, password string, role models.Role) (*models.User, error) {
	email = models.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.ValidationError("a valid email is required")
	}
	if name == "" {
		return nil, errors.ValidationError("name is required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, errors.WithCode(errors.CodeValidationError, err)
	}

	user := &models.User{
		ID:           core.NewID(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log := logging.Ctx(ctx)
	log.Info().Str("user_id", user.ID.String()).Str("role", string(role)).Msg("user created")
	return user, nil
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue token")
	}
	return &Session{Token: token, User: user}, nil
}
