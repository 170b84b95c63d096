package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/isdelr/weight-tracker-be/internal/auth"
	"github.com/isdelr/weight-tracker-be/internal/database"
	"github.com/isdelr/weight-tracker-be/internal/models"
	"github.com/isdelr/weight-tracker-be/internal/store"
	"github.com/mcnijman/go-emailaddress"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid email or password"

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(ctx context.Context, input CreateUserInput) (int64, error)
	GetUser(ctx context.Context, userID int64) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	Login(ctx context.Context, email, password string) (LoginResult, error)
}

// CreateUserInput carries a signup request. A nil UserID asks the service
// to pick the next free id.
type CreateUserInput struct {
	UserID   *int64
	FullName string
	Email    string
	Password string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	UserID      int64  `json:"userId"`
	FullName    string `json:"fullName"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserService provides business logic for user management.
type UserService struct {
	users    *store.UserStore
	codec    *auth.Codec
	hashCost int
	// dummyHash is compared against when the email is unknown so both
	// login failures cost the same.
	dummyHash []byte
}

// NewUserService creates a new UserService.
func NewUserService(db *database.DB, codec *auth.Codec) *UserService {
	return newUserService(db, codec, bcrypt.DefaultCost)
}

func newUserService(db *database.DB, codec *auth.Codec, hashCost int) *UserService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), hashCost)
	return &UserService{
		users:     store.NewUserStore(db),
		codec:     codec,
		hashCost:  hashCost,
		dummyHash: dummy,
	}
}

// CreateUser validates the signup, hashes the password and stores the user.
// It returns the assigned user id.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (int64, error) {
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return 0, newError(ErrValidation, "fullName is required")
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return 0, newError(ErrValidation, "email is not a valid email address")
	}
	if input.Password == "" {
		return 0, newError(ErrValidation, "password is required")
	}
	if input.UserID != nil && *input.UserID <= 0 {
		return 0, newError(ErrValidation, "userId must be a positive integer")
	}

	if input.UserID != nil {
		if _, err := s.users.GetByUserID(ctx, *input.UserID); err == nil {
			return 0, newError(ErrConflict, "User ID already exists")
		} else if !errors.Is(err, store.ErrNotFound) {
			return 0, err
		}
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return 0, newError(ErrConflict, "Email already registered")
	} else if !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return 0, newError(ErrValidation, "password must be at most 72 bytes")
		}
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if input.UserID != nil {
		user.UserID = *input.UserID
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		// Lost a race against a concurrent signup.
		if errors.Is(err, store.ErrDuplicate) {
			return 0, newError(ErrConflict, "User ID or email already exists")
		}
		return 0, err
	}
	return created.UserID, nil
}

// GetUser retrieves a single user by their public id.
func (s *UserService) GetUser(ctx context.Context, userID int64) (models.User, error) {
	user, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, newError(ErrNotFound, "User not found")
		}
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// ListUsers returns every user.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// Login verifies a user's credentials and issues an access token. Unknown
// emails and wrong passwords fail with the same error.
func (s *UserService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return LoginResult{}, newError(ErrUnauthorized, invalidCredentials)
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, err
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return LoginResult{}, newError(ErrUnauthorized, invalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, newError(ErrUnauthorized, invalidCredentials)
	}

	token, err := s.codec.Issue(user.UserID, user.Email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("failed to generate token: %w", err)
	}

	return LoginResult{
		UserID:      user.UserID,
		FullName:    user.FullName,
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}

// normalizeEmail validates an address and returns its canonical lowercase
// form, used both for storage and for login lookups.
func normalizeEmail(raw string) (string, error) {
	email, err := emailaddress.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(email.LocalPart) + "@" + strings.ToLower(email.Domain), nil
}
