package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"driver-review-service/internal/apperr"
	"driver-review-service/internal/storage"
	"driver-review-service/pkg/jwt"
	"driver-review-service/pkg/logger"
	"driver-review-service/pkg/validation"
)

// TokenRevoker denylists a signed-out token id.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Service signs profiles in and out.
type Service struct {
	store    storage.IStorage
	validate *validation.Validator
	revoker  TokenRevoker
	log      logger.ILogger
}

// NewService creates an auth service. revoker may be nil, in which case
// SignOut is a no-op on the server side.
func NewService(store storage.IStorage, v *validation.Validator, revoker TokenRevoker, log logger.ILogger) *Service {
	return &Service{store: store, validate: v, revoker: revoker, log: log}
}

// Register creates a profile with a password credential and returns a JWT.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Username != nil {
		u := strings.TrimSpace(*req.Username)
		req.Username = &u
		if u == "" {
			req.Username = nil
		}
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	p, err := s.store.Credential().Create(ctx, req.Email, req.Username, string(hash))
	if err != nil {
		return nil, err
	}

	token, err := jwt.Generate(p.ID, p.Email)
	if err != nil {
		return nil, err
	}
	s.log.Info("profile registered", logger.String("profile_id", p.ID))
	return &AuthResponse{Token: token, Profile: p}, nil
}

// Login authenticates a profile and returns a JWT.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	cred, err := s.store.Credential().GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperr.ErrInvalidCredentials
	}

	p, err := s.store.Profile().GetByID(ctx, cred.ProfileID)
	if err != nil {
		return nil, err
	}
	token, err := jwt.Generate(p.ID, p.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, Profile: p}, nil
}

// SignOut revokes the presented token until it expires.
func (s *Service) SignOut(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil {
		return apperr.ErrUnauthenticated
	}
	if s.revoker == nil || claims.ID == "" {
		return nil
	}
	if err := s.revoker.RevokeToken(ctx, claims.ID, claims.Remaining()); err != nil {
		s.log.Error("revoke token failed", logger.String("profile_id", claims.UserID), logger.Error(err))
		return err
	}
	return nil
}
