package userservice

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrNotFound          = errors.New("user not found")
)

func newUserModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

// uniqueViolation checks for a postgres unique constraint error on the named
// constraint.
func uniqueViolation(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == name
	}

	return false
}

func (m *DBModel) insertUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (username, email, password, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, role, active, created_at, updated_at, version`

	args := []any{
		u.Username,
		u.Email,
		u.Password.hash,
		string(RoleUser),
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case uniqueViolation(err, "users_username_key"):
			return ErrDuplicateUsername
		case uniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		default:
			return err
		}
	}
	return nil
}

func (m *DBModel) getUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT id, username, email, password, role, active, activated, version
		FROM users
		WHERE username = $1`

	var u User

	err := m.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.Email, &u.Password.hash, &u.Role, &u.Active, &u.Activated, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *DBModel) getUserByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, username, email, role, active, activated, last_login_at, created_at, updated_at, version
		FROM users
		WHERE id = $1`

	var u User

	err := m.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.Active, &u.Activated, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *DBModel) activateUserAccount(tx *sql.Tx, ctx context.Context, id int, version int) error {
	query := `
		UPDATE users
		SET activated = true, updated_at = now(), version = version + 1
		WHERE id = $1 AND version = $2`

	res, err := tx.ExecContext(ctx, query, id, version)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (m *DBModel) updateUserRole(ctx context.Context, id int, role Role) error {
	query := `
		UPDATE users
		SET role = $1, updated_at = now(), version = version + 1
		WHERE id = $2`

	res, err := m.db.ExecContext(ctx, query, string(role), id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (m *DBModel) deactivateUser(ctx context.Context, id int) error {
	query := `
		UPDATE users
		SET active = false, updated_at = now(), version = version + 1
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// touchLastLogin refreshes last_login_at on every successful login. It does
// not bump the version since it never conflicts with a user-visible edit.
func (m *DBModel) touchLastLogin(ctx context.Context, id int, at time.Time) error {
	query := `
		UPDATE users
		SET last_login_at = $1
		WHERE id = $2`

	_, err := m.db.ExecContext(ctx, query, at, id)
	return err
}

// getUserCredentials loads only what a password check needs.
func (m *DBModel) getUserCredentials(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, password, version
		FROM users
		WHERE id = $1`

	var u User

	err := m.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Password.hash, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *DBModel) updateUserPassword(ctx context.Context, pwd Password, id int, version int) error {
	query := `
		UPDATE users
		SET password = $1, updated_at = now(), version = version + 1
		WHERE id = $2 AND version = $3`

	res, err := m.db.ExecContext(ctx, query, pwd.hash, id, version)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
