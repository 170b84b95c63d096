package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/isdelr/weight-tracker-be/internal/database"
	"github.com/isdelr/weight-tracker-be/internal/models"
)

// ErrNotFound is returned when no row matches the lookup.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate")

// FirstUserID is assigned when the users table is empty and the caller does
// not pick an id.
const FirstUserID = 1000

// UserStore is the storage accessor for the users table.
type UserStore struct {
	db database.DBTX
}

// NewUserStore creates a new UserStore.
func NewUserStore(db database.DBTX) *UserStore {
	return &UserStore{db: db}
}

const userColumns = "id, user_id, full_name, email, password_hash"

// Create inserts user. When user.UserID is zero the id is derived from the
// current maximum inside the same statement. The stored row is returned.
func (s *UserStore) Create(ctx context.Context, user models.User) (models.User, error) {
	var row *sql.Row
	if user.UserID == 0 {
		row = s.db.QueryRowContext(ctx, `
			INSERT INTO users (user_id, full_name, email, password_hash)
			SELECT COALESCE(MAX(user_id), ?) + 1, ?, ?, ? FROM users
			RETURNING `+userColumns,
			FirstUserID-1, user.FullName, user.Email, user.PasswordHash)
	} else {
		row = s.db.QueryRowContext(ctx, `
			INSERT INTO users (user_id, full_name, email, password_hash)
			VALUES (?, ?, ?, ?)
			RETURNING `+userColumns,
			user.UserID, user.FullName, user.Email, user.PasswordHash)
	}

	created, err := scanUser(row)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, fmt.Errorf("insert user: %w", ErrDuplicate)
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

// GetByUserID retrieves a single user by their public id.
func (s *UserStore) GetByUserID(ctx context.Context, userID int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE user_id = ?", userID)
	return scanUser(row)
}

// GetByEmail retrieves a single user by their email, including the password hash.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

// List returns every user ordered by user id.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// scanUser is a helper function to scan a single row into a User struct.
func scanUser(scanner interface{ Scan(...any) error }) (models.User, error) {
	var user models.User
	err := scanner.Scan(&user.ID, &user.UserID, &user.FullName, &user.Email, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
