package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anoa.com/pencraft/internal/entity"
	communityRepo "anoa.com/pencraft/internal/modules/community/repository"
	"anoa.com/pencraft/internal/modules/user/dto"
	"anoa.com/pencraft/internal/modules/user/repository"
	"anoa.com/pencraft/pkg/apperror"
	"anoa.com/pencraft/pkg/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
	Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, input dto.ChangePasswordInput) error
	// VerifyToken validates signature, expiry and revocation.
	VerifyToken(ctx context.Context, token string) (*jwt.RegisteredClaims, error)
}

type authService struct {
	repo          repository.UserRepository
	communityRepo communityRepo.CommunityRepository
	sessions      repository.SessionStore
	tokens        *TokenIssuer
	publisher     events.Publisher
}

func NewAuthService(repo repository.UserRepository, communityRepo communityRepo.CommunityRepository, sessions repository.SessionStore, tokens *TokenIssuer, publisher events.Publisher) AuthService {
	return &authService{
		repo:          repo,
		communityRepo: communityRepo,
		sessions:      sessions,
		tokens:        tokens,
		publisher:     publisher,
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, apperror.Validation("all fields are required")
	}
	if input.ConfirmPassword != "" && input.ConfirmPassword != input.Password {
		return nil, apperror.Validation("passwords do not match")
	}

	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, apperror.ErrUserExists
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	if _, err := s.repo.FindByUsername(ctx, input.Username); err == nil {
		return nil, apperror.ErrUsernameTaken
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashed),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ErrUserExists
		}
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.UserRegistered, user.ID.String(), events.UserEvent{
		UserID:   user.ID.String(),
		Username: user.Username,
	})

	return s.buildAuthResponse(user, []uuid.UUID{})
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	communities, err := s.communityRepo.CommunityIDsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return s.buildAuthResponse(user, communities)
}

func (s *authService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return apperror.ErrUnauthorized
	}
	return s.sessions.Revoke(ctx, tokenID, time.Until(expiresAt))
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}

	communities, err := s.communityRepo.CommunityIDsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return toUserResponse(user, communities, true), nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, input dto.ChangePasswordInput) error {
	if input.NewPassword != input.ConfirmPassword {
		return apperror.Validation("passwords do not match")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return apperror.ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashed)
	return s.repo.Update(ctx, user)
}

func (s *authService) VerifyToken(ctx context.Context, token string) (*jwt.RegisteredClaims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrUnauthorized, err)
	}

	if claims.ID != "" {
		revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, apperror.New(http.StatusUnauthorized, "token has been revoked", apperror.ErrUnauthorized)
		}
	}

	return claims, nil
}

func (s *authService) buildAuthResponse(user *entity.User, communities []uuid.UUID) (*dto.AuthResponse, error) {
	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   claims.ExpiresAt.Unix(),
		User:        toUserResponse(user, communities, true),
	}, nil
}

func toUserResponse(user *entity.User, communities []uuid.UUID, includeEmail bool) *dto.UserResponse {
	if communities == nil {
		communities = []uuid.UUID{}
	}

	resp := &dto.UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Name:        user.FullName(),
		Bio:         user.Bio,
		AvatarURL:   user.AvatarURL,
		Communities: communities,
		CreatedAt:   user.CreatedAt,
	}
	if includeEmail {
		resp.Email = user.Email
	}
	return resp
}
