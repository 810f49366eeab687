package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/fint/finance-tracker/internal/core/domain"
	"github.com/fint/finance-tracker/internal/core/ports"
)

const (
	defaultTokenTTL      = 60 * time.Minute
	maxTokenSwapAttempts = 3
	// bcrypt only hashes the first 72 bytes.
	maxPasswordBytes = 72
)

// AuthConfig tunes token issuance and password hashing.
type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	BcryptCost  int
}

// AuthService implements registration, login and token authentication.
type AuthService struct {
	repo      ports.UserRepository
	secret    []byte
	tokenTTL  time.Duration
	cost      int
	dummyHash []byte
	logger    zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, cfg AuthConfig, logger zerolog.Logger) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	// Compared against on unknown usernames so both failure paths cost one bcrypt round.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("fint-unknown-user"), cfg.BcryptCost)

	return &AuthService{
		repo:      repo,
		secret:    []byte(cfg.TokenSecret),
		tokenTTL:  cfg.TokenTTL,
		cost:      cfg.BcryptCost,
		dummyHash: dummy,
		logger:    logger,
	}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, domain.ErrMissingCredential
	}
	if len(password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.Info().Int64("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Login verifies the credentials and replaces the user's session token with
// a fresh one. Any previously issued token stops authenticating.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrBadCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return "", nil, domain.ErrBadCredentials
		}
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.logger.Debug().Int64("user_id", user.ID).Msg("login rejected: password mismatch")
		return "", nil, domain.ErrBadCredentials
	}

	for attempt := 1; ; attempt++ {
		token, err := s.issueToken(user.ID)
		if err != nil {
			return "", nil, fmt.Errorf("login: issue token: %w", err)
		}

		err = s.repo.SwapToken(ctx, user.ID, user.Token, token)
		if err == nil {
			user.Token = token
			s.logger.Info().Int64("user_id", user.ID).Msg("session token issued")
			return token, user, nil
		}
		if !errors.Is(err, domain.ErrTokenConflict) || attempt >= maxTokenSwapAttempts {
			return "", nil, fmt.Errorf("login: store token: %w", err)
		}

		s.logger.Debug().Int64("user_id", user.ID).Int("attempt", attempt).Msg("token swap lost, retrying")
		if user, err = s.repo.FindByUsername(ctx, username); err != nil {
			return "", nil, fmt.Errorf("login: reload user: %w", err)
		}
	}
}

// Authenticate resolves a bearer token to its user. The token must carry a
// valid signature and be the user's current token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if strconv.FormatInt(user.ID, 10) != claims.Subject {
		return nil, domain.ErrInvalidToken
	}
	return user, nil
}

func (s *AuthService) issueToken(userID int64) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
