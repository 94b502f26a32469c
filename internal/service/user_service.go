package service

import (
	"context"
	"errors"
	"os"
	"regexp"
	"time"

	"training-erp/internal/model"
	"training-erp/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

// Helper: check if role is allowed
func validateRole(role string) bool {
	switch role {
	case model.RoleSuperAdmin, model.RoleFinanceManager, model.RoleCTM,
		model.RoleDCTM01, model.RoleDCTM02, model.RoleSectionalHead,
		model.RoleCoordinator:
		return true
	}
	return false
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: user.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if !validateRole(req.Role) {
		return nil, errors.New("invalid role: must be a recognized institute role")
	}

	// Basic Email format validation fallback
	emailRegex := regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`)
	if !emailRegex.MatchString(req.Email) {
		return nil, errors.New("invalid email format")
	}

	// Double check username/email uniqueness via repo directly
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, errors.New("username already exists")
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.New("email already exists")
	}

	// Hash password automatically
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: string(hashedPassword),
		Role:     req.Role, // Guaranteed valid by validateRole logic above
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return mapToResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error) {
	stored, err := s.repo.GetRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.repo.DeleteRefreshToken(ctx, stored.Token)
		return nil, errors.New("refresh token expired")
	}

	user, err := s.repo.GetByID(ctx, stored.UserID.String())
	if err != nil {
		return nil, errors.New("user not found")
	}

	// Rotate: the old refresh token is spent once used
	_ = s.repo.DeleteRefreshToken(ctx, stored.Token)

	return s.issueTokens(ctx, user)
}

// issueTokens signs a short-lived access token and persists a new
// long-lived refresh token for the user.
func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
	})

	// Use same fallback strategy as middleware for simplicity here or get from env centrally
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	refresh := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := s.repo.CreateRefreshToken(ctx, refresh); err != nil {
		return nil, errors.New("failed to persist refresh token")
	}

	return &TokenResponse{Token: tokenString, RefreshToken: refresh.Token}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	var responses []UserResponse
	for _, u := range users {
		responses = append(responses, *mapToResponse(&u))
	}

	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if req.Role != "" {
		if !validateRole(req.Role) {
			return nil, errors.New("invalid role: must be a recognized institute role")
		}
		user.Role = req.Role
	}

	if req.Username != "" && req.Username != user.Username {
		if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
			return nil, errors.New("username already exists")
		}
		user.Username = req.Username
	}

	if req.Email != "" && req.Email != user.Email {
		if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
			return nil, errors.New("email already exists")
		}
		user.Email = req.Email
	}

	if req.Phone != "" {
		user.Phone = req.Phone
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	// Let repo handle existence check implicitly or we can check first
	_, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return errors.New("user not found")
	}
	return s.repo.Delete(ctx, id)
}
