// Package auth provides authentication and authorization domain logic.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"garasi/internal/core/apperror"
	"garasi/internal/core/id"
	"garasi/internal/core/security"
	"garasi/internal/core/tx"
	"garasi/internal/domain/catalogs/branch"
	"garasi/pkg/logger"
)

// BranchResolver resolves branch references during registration.
type BranchResolver interface {
	GetByID(ctx context.Context, branchID id.ID) (*branch.Branch, error)
}

// Config holds auth service configuration.
type Config struct {
	MaxLoginAttempts   int
	LockDuration       time.Duration
	PasswordMinLength  int
	RefreshTokenExpiry time.Duration
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		MaxLoginAttempts:   5,
		LockDuration:       15 * time.Minute,
		PasswordMinLength:  8,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
}

// ServiceConfig wires the auth service dependencies.
type ServiceConfig struct {
	Users     UserRepository
	Tokens    TokenRepository
	Branches  BranchResolver
	TxManager tx.Manager
	JWT       *JWTService
	Config    Config
}

// Service provides authentication and account management.
type Service struct {
	users    UserRepository
	tokens   TokenRepository
	branches BranchResolver
	txm      tx.Manager
	jwt      *JWTService
	config   Config
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Config.MaxLoginAttempts == 0 {
		cfg.Config = DefaultConfig()
	}
	return &Service{
		users:    cfg.Users,
		tokens:   cfg.Tokens,
		branches: cfg.Branches,
		txm:      cfg.TxManager,
		jwt:      cfg.JWT,
		config:   cfg.Config,
	}
}

// Register creates a new staff account. Exposed behind an admin-only
// route; the handler layer enforces the role.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if len(req.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}
	if !security.ValidRole(req.Role) {
		return nil, apperror.NewValidation("unknown role").WithDetail("role", req.Role)
	}

	exists, err := s.users.Exists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict("email already registered").WithDetail("email", email)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := NewUser(email, string(passwordHash), req.Name, req.Role)

	if req.BranchID != "" {
		branchID, err := id.Parse(req.BranchID)
		if err != nil {
			return nil, apperror.NewValidation("invalid branch id").WithDetail("branchId", req.BranchID)
		}
		br, err := s.branches.GetByID(ctx, branchID)
		if err != nil {
			return nil, err
		}
		if br.DeletionMark || !br.IsActive {
			return nil, apperror.NewValidation("branch is not active").WithDetail("branchId", req.BranchID)
		}
		user.BranchID = &branchID
	}

	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered",
		"user_id", user.ID,
		"email", user.Email,
		"role", user.Role)

	return user, nil
}

// Login authenticates the user and returns tokens.
func (s *Service) Login(ctx context.Context, creds Credentials, client ClientInfo) (*TokenPair, *User, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}
	if err := user.CanLogin(); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(s.config.MaxLoginAttempts, s.config.LockDuration)
		_ = s.users.Update(ctx, user)
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	tokens, err := s.generateTokenPair(ctx, user, client)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	user.RecordSuccessfulLogin()
	_ = s.users.Update(ctx, user)

	logger.Info(ctx, "user logged in",
		"user_id", user.ID,
		"email", user.Email,
		"ip", client.IPAddress)

	return tokens, user, nil
}

// RefreshToken rotates the refresh token and issues a new pair.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string, client ClientInfo) (*TokenPair, error) {
	tokenHash := hashToken(refreshToken)

	token, err := s.tokens.GetRefreshToken(ctx, tokenHash)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid refresh token")
	}
	if !token.IsValid() {
		return nil, apperror.NewUnauthorized("refresh token expired or revoked")
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, apperror.NewUnauthorized("user not found")
	}
	if err := user.CanLogin(); err != nil {
		return nil, err
	}

	_ = s.tokens.RevokeRefreshToken(ctx, token.ID, "refreshed")

	return s.generateTokenPair(ctx, user, client)
}

// Logout revokes all the user's refresh tokens.
func (s *Service) Logout(ctx context.Context, userID id.ID) error {
	return s.tokens.RevokeAllUserTokens(ctx, userID, "logout")
}

// GetUserByID retrieves a user.
func (s *Service) GetUserByID(ctx context.Context, userID id.ID) (*User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	return user, nil
}

// ListUsers lists users with filtering.
func (s *Service) ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error) {
	return s.users.List(ctx, filter)
}

// ListMechanics returns active mechanics attached to the branch, for
// service order assignment pickers.
func (s *Service) ListMechanics(ctx context.Context, branchID id.ID) ([]User, error) {
	role := security.RoleMechanic
	active := true
	users, _, err := s.users.List(ctx, UserFilter{
		Role:     &role,
		BranchID: &branchID,
		IsActive: &active,
	})
	return users, err
}

// GetMechanic resolves a user and verifies the mechanic role. Used by
// the service order workflow before assignment.
func (s *Service) GetMechanic(ctx context.Context, userID id.ID) (*User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.NewNotFound("mechanic", userID.String())
	}
	if !user.IsActive {
		return nil, apperror.NewValidation("user is not active").
			WithDetail("user_id", userID.String())
	}
	if !user.HasRole(security.RoleMechanic) {
		return nil, apperror.NewValidation("user is not a mechanic").
			WithDetail("user_id", userID.String()).
			WithDetail("role", user.Role)
	}
	return user, nil
}

// generateTokenPair creates access and refresh tokens.
func (s *Service) generateTokenPair(ctx context.Context, user *User, client ClientInfo) (*TokenPair, error) {
	accessToken, expiresAt, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshTokenRaw, err := generateRandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	refreshToken := &RefreshToken{
		ID:        id.New(),
		UserID:    user.ID,
		TokenHash: hashToken(refreshTokenRaw),
		ExpiresAt: time.Now().Add(s.config.RefreshTokenExpiry),
		CreatedAt: time.Now(),
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
	}

	if err := s.tokens.SaveRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenRaw,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

// hashToken creates a SHA256 hash of the token.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// generateRandomToken generates a random token string.
func generateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
