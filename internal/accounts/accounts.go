package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"auction-ledger/internal/auctionerrors"
	"auction-ledger/internal/models"
	"auction-ledger/internal/repository"
	"auction-ledger/internal/session"
	"auction-ledger/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Identity is the authenticated caller passed explicitly into every ledger operation
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Session is issued on login
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// RegisterInput carries the registration form
type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	Confirmation string
}

// Claims represents the JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service registers users and issues, validates and revokes session tokens
type Service struct {
	users   repository.UserStore
	revoked session.RevocationStore
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewService creates a new accounts Service. A non-positive ttl defaults to 24 hours.
func NewService(users repository.UserStore, revoked session.RevocationStore, secret string, ttl time.Duration) (*Service, error) {
	if users == nil || revoked == nil {
		return nil, fmt.Errorf("accounts: user store and revocation store are required")
	}
	if secret == "" {
		return nil, fmt.Errorf("accounts: JWT secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		users:   users,
		revoked: revoked,
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// Register creates a new account with a bcrypt password hash
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return models.User{}, fmt.Errorf("accounts: %w - username and password are required", auctionerrors.ErrValidation)
	}
	if len(username) > 150 {
		return models.User{}, fmt.Errorf("accounts: %w - username longer than 150 characters", auctionerrors.ErrValidation)
	}
	if in.Password != in.Confirmation {
		return models.User{}, fmt.Errorf("accounts: %w - passwords must match", auctionerrors.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("accounts: failed to hash password: %w", err)
	}

	user := models.User{
		ID:           utils.GenerateID(),
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("accounts: failed to register %q: %w", username, err)
	}

	user.PasswordHash = ""
	return user, nil
}

// Login checks credentials and issues a signed session token
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, auctionerrors.ErrNotFound) {
			return Session{}, fmt.Errorf("accounts: %w - invalid username and/or password", auctionerrors.ErrAuthenticationFailed)
		}
		return Session{}, fmt.Errorf("accounts: failed to look up %q: %w", username, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, fmt.Errorf("accounts: %w - invalid username and/or password", auctionerrors.ErrAuthenticationFailed)
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        utils.GenerateID(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("accounts: failed to sign token: %w", err)
	}

	user.PasswordHash = ""
	return Session{Token: token, ExpiresAt: expiresAt.UTC(), User: user}, nil
}

// Authenticate validates a token's signature, expiry and revocation status and that its account still exists
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	claims, err := s.parse(token)
	if err != nil {
		return Identity{}, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Identity{}, fmt.Errorf("accounts: failed to check revocation: %w", err)
	}
	if revoked {
		return Identity{}, fmt.Errorf("accounts: %w - token revoked", auctionerrors.ErrAuthenticationFailed)
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if errors.Is(err, auctionerrors.ErrNotFound) {
		return Identity{}, fmt.Errorf("accounts: %w - account %s no longer exists", auctionerrors.ErrAuthenticationFailed, claims.UserID)
	}
	if err != nil {
		return Identity{}, fmt.Errorf("accounts: failed to load account %s: %w", claims.UserID, err)
	}

	return Identity{UserID: user.ID, Username: user.Username}, nil
}

// Logout revokes the token until it would have expired
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if err := s.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("accounts: failed to revoke token: %w", err)
	}
	return nil
}

func (s *Service) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("accounts: %w - %v", auctionerrors.ErrAuthenticationFailed, err)
	}
	if !parsed.Valid || claims.UserID == "" || !utils.IsID(claims.ID) {
		return nil, fmt.Errorf("accounts: %w - invalid token", auctionerrors.ErrAuthenticationFailed)
	}
	return claims, nil
}
