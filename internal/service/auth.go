package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/avc/smm-panel/internal/domain"
	"github.com/avc/smm-panel/internal/utils/jwt"
	"github.com/avc/smm-panel/internal/utils/password"
)

// NewUser данные для создания пользователя панели
type NewUser struct {
	Login          string
	Password       string
	Name           string
	Role           domain.Role
	CommissionRate float64 // Процент от валовой прибыли, только для продавца
}

// AuthService реализует domain.AuthService
type AuthService struct {
	userRepo       domain.UserRepository
	passwordHasher password.Hasher
	jwtManager     *jwt.Manager
}

// NewAuthService создает новый AuthService
func NewAuthService(
	userRepo domain.UserRepository,
	passwordHasher password.Hasher,
	jwtManager *jwt.Manager,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		passwordHasher: passwordHasher,
		jwtManager:     jwtManager,
	}
}

// CreateUser создаёт администратора или продавца
func (s *AuthService) CreateUser(ctx context.Context, in NewUser) (*domain.User, error) {
	if in.Login == "" {
		return nil, fmt.Errorf("%w: empty login", domain.ErrInvalidInput)
	}
	if in.Role != domain.RoleAdmin && in.Role != domain.RoleSeller {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, in.Role)
	}
	if in.CommissionRate < 0 || in.CommissionRate > 100 {
		return nil, fmt.Errorf("%w: commission rate must be between 0 and 100", domain.ErrInvalidInput)
	}
	if err := password.Validate(in.Password); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	hash, err := s.passwordHasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("auth service: failed to hash password for user %q: %w", in.Login, err)
	}

	user, err := s.userRepo.CreateUser(ctx, &domain.User{
		Login:          in.Login,
		PasswordHash:   hash,
		Name:           in.Name,
		Role:           in.Role,
		CommissionRate: in.CommissionRate,
		Status:         true,
	})
	if err != nil {
		// Не оборачиваем sentinel error
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("auth service: failed to create user %q: %w", in.Login, err)
	}

	return user, nil
}

// Login аутентифицирует пользователя и выпускает токен с его ролью
func (s *AuthService) Login(ctx context.Context, login, userPassword string) (string, error) {
	if login == "" || userPassword == "" {
		return "", fmt.Errorf("%w: empty login or password", domain.ErrInvalidInput)
	}

	user, err := s.userRepo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("auth service: failed to get user %q: %w", login, err)
	}

	if err := s.passwordHasher.Check(user.PasswordHash, userPassword); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	// Отключённый продавец не отличается от неверного пароля
	if !user.Status {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.jwtManager.Generate(user.ID, string(user.Role))
	if err != nil {
		return "", fmt.Errorf("auth service: failed to generate token for user %d: %w", user.ID, err)
	}

	return token, nil
}
