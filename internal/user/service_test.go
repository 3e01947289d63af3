package user

import (
	"context"
	"errors"
	"testing"

	"boostify/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	args := m.Called(ctx, name, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id int) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful registration defaults to customer role", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, "secret")

		repo.On("EmailExists", ctx, "new@example.com").Return(false, nil)
		repo.On("Create", ctx, "New User", "new@example.com", mock.AnythingOfType("string"), auth.RoleCustomer).
			Return(&User{ID: 1, Name: "New User", Email: "new@example.com", Role: auth.RoleCustomer}, nil)

		u, access, refresh, err := svc.Register(ctx, RegisterRequest{
			Name:     "New User",
			Email:    "new@example.com",
			Password: "password123",
		})

		assert.NoError(t, err)
		assert.Equal(t, auth.RoleCustomer, u.Role)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		repo.AssertExpectations(t)
	})

	t.Run("Booster registration keeps requested role", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, "secret")

		repo.On("EmailExists", ctx, "b@example.com").Return(false, nil)
		repo.On("Create", ctx, "Booster", "b@example.com", mock.AnythingOfType("string"), auth.RoleBooster).
			Return(&User{ID: 2, Role: auth.RoleBooster, Email: "b@example.com"}, nil)

		u, _, _, err := svc.Register(ctx, RegisterRequest{
			Name:     "Booster",
			Email:    "b@example.com",
			Password: "password123",
			Role:     auth.RoleBooster,
		})

		assert.NoError(t, err)
		assert.Equal(t, auth.RoleBooster, u.Role)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, "secret")

		repo.On("EmailExists", ctx, "dup@example.com").Return(true, nil)

		_, _, _, err := svc.Register(ctx, RegisterRequest{
			Name:     "Dup",
			Email:    "dup@example.com",
			Password: "password123",
		})

		assert.Equal(t, ErrEmailExists, err)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	hash, _ := auth.HashPassword("correct-password")

	t.Run("Valid credentials", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, "secret")

		repo.On("FindByEmail", ctx, "u@example.com").
			Return(&User{ID: 3, Email: "u@example.com", PasswordHash: hash, Role: auth.RoleCustomer}, nil)

		u, access, _, err := svc.Login(ctx, LoginRequest{Email: "u@example.com", Password: "correct-password"})

		assert.NoError(t, err)
		assert.Equal(t, 3, u.ID)
		assert.NotEmpty(t, access)
	})

	t.Run("Wrong password", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, "secret")

		repo.On("FindByEmail", ctx, "u@example.com").
			Return(&User{ID: 3, PasswordHash: hash}, nil)

		_, _, _, err := svc.Login(ctx, LoginRequest{Email: "u@example.com", Password: "wrong"})

		assert.Equal(t, ErrInvalidCredentials, err)
	})

	t.Run("Unknown email", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, "secret")

		repo.On("FindByEmail", ctx, "nobody@example.com").
			Return(nil, errors.New("sql: no rows in result set"))

		_, _, _, err := svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever"})

		assert.Equal(t, ErrInvalidCredentials, err)
	})
}

func TestService_RefreshToken(t *testing.T) {
	ctx := context.Background()

	t.Run("Access token is rejected", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, "secret")

		accessToken, err := auth.GenerateAccessToken(4, "u@example.com", auth.RoleCustomer, "secret")
		assert.NoError(t, err)

		_, _, err = svc.RefreshToken(ctx, accessToken)
		assert.Equal(t, auth.ErrInvalidTokenType, err)
	})

	t.Run("Valid refresh token", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, "secret")

		refreshToken, err := auth.GenerateRefreshToken(4, "u@example.com", auth.RoleCustomer, "secret")
		assert.NoError(t, err)

		repo.On("FindByID", ctx, 4).
			Return(&User{ID: 4, Email: "u@example.com", Role: auth.RoleCustomer}, nil)

		access, u, err := svc.RefreshToken(ctx, refreshToken)
		assert.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.Equal(t, 4, u.ID)
	})
}
