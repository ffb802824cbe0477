package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mycogenesis/contenthub/internal/common"
)

var (
	ErrAuthenticationFailure = fmt.Errorf("unauthorized access")
	ErrUserNotActive         = errors.New("user account is not active")
	ErrPermissionDenied      = errors.New("permission denied")
)

func NewUserService(db *sql.DB, mb common.MessageProducer, c *common.Cache) *UserService {
	return &UserService{
		m:  newUserModel(db),
		mb: mb,
		c:  c,
	}
}

// RegisterUser creates a new user account with the default user role and
// publishes a user.created event carrying the activation token.
func (s *UserService) RegisterUser(ctx context.Context, username, email, password string) (*string, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u := User{
		Username: username,
		Email:    email,
		Password: Password{Plain: password},
	}

	err := u.Password.set(u.Password.Plain)
	if err != nil {
		return nil, err
	}

	err = s.m.insertUser(ctx, &u)
	if err != nil {
		return nil, err
	}

	token, err := s.m.createToken(ctx, u.ID, ActivationTokenTime, TokenScopeActivate)
	if err != nil {
		return nil, err
	}

	data := struct {
		Email string
		Token string
	}{
		Email: u.Email,
		Token: token.Plain,
	}

	emailData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	err = s.mb.Publish(ctx, emailData, common.UserCreatedKey, common.ContentExchange)
	if err != nil {
		return nil, err
	}

	return &token.Plain, nil
}

// ActivateUser activates a user account using the activation token and
// deletes the token.
func (s *UserService) ActivateUser(ctx context.Context, token string) error {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return v.ValidationError()
	}

	hash := hashToken(token)

	user, err := s.m.getUserByToken(ctx, TokenScopeActivate, hash)
	if err != nil {
		return err
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = s.m.activateUserAccount(tx, ctx, user.ID, user.Version)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	err = s.m.deleteToken(tx, ctx, user.ID, TokenScopeActivate)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// LoginUser authenticates a user, refreshes the last-login timestamp, and
// returns the access and refresh tokens.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (*AuthToken, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrAuthenticationFailure
		default:
			return nil, err
		}
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrAuthenticationFailure
	}

	if !user.Active {
		return nil, ErrUserNotActive
	}

	if err := s.m.touchLastLogin(ctx, user.ID, time.Now()); err != nil {
		return nil, err
	}

	dbToken, err := s.m.getAuthToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if dbToken != nil {
		if dbToken.AccessTokenExpiry.After(time.Now()) && dbToken.RefreshTokenExpiry.After(time.Now()) {
			return dbToken, nil
		}

		tx, err := s.m.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}

		err = s.m.deleteAuthToken(tx, ctx, user.ID)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}

		authToken, err := s.m.createAuthToken(tx, ctx, user.ID)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}

		if err := tx.Commit(); err != nil {
			return nil, err
		}

		return authToken, nil
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	authToken, err := s.m.createAuthToken(tx, ctx, user.ID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return authToken, nil
}

func (s *UserService) GetUserByAccessToken(ctx context.Context, token string) (*User, error) {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	hash := hashToken(token)

	if s.c != nil {
		if cached, ok := s.c.Get(common.CacheKeyUserByAccessToken(hash)); ok {
			if u, ok := cached.(*User); ok {
				return u, nil
			}
		}
	}

	u, err := s.m.getUserByAccessToken(ctx, hash)
	if err != nil {
		return nil, err
	}

	if s.c != nil {
		s.c.Set(common.CacheKeyUserByAccessToken(hash), u, 5*time.Minute)
	}

	return u, nil
}

func (s *UserService) LogoutUser(ctx context.Context, userId int) error {
	v := common.NewValidator()
	validateInt(v, userId, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = s.m.deleteAuthToken(tx, ctx, userId)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// UpdateUserPassword verifies the current password before storing the new
// hash. The version check discards the write if the account changed
// underneath.
func (s *UserService) UpdateUserPassword(ctx context.Context, id int, current, newPassword string) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	validatePassword(v, newPassword)
	if !v.Valid() {
		return v.ValidationError()
	}

	user, err := s.m.getUserCredentials(ctx, id)
	if err != nil {
		return err
	}

	ok, err := user.Password.compare(current)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAuthenticationFailure
	}

	var pwd Password
	if err := pwd.set(newPassword); err != nil {
		return err
	}

	return s.m.updateUserPassword(ctx, pwd, user.ID, user.Version)
}

func (s *UserService) GetUser(ctx context.Context, id int) (*User, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getUserByID(ctx, id)
}

// UpdateUserRole changes a user's role. The caller is responsible for gating
// this behind the users.roles permission.
func (s *UserService) UpdateUserRole(ctx context.Context, id int, role Role) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	validateRole(v, role)
	if !v.Valid() {
		return v.ValidationError()
	}

	return s.m.updateUserRole(ctx, id, role)
}

// DeactivateUser marks an account inactive. Accounts are never hard-deleted.
func (s *UserService) DeactivateUser(ctx context.Context, id int) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	return s.m.deactivateUser(ctx, id)
}

// ValidateAccess checks that the account exists and is active before
// consulting the permission table. The active check runs first.
func (s *UserService) ValidateAccess(ctx context.Context, userID int, permission Permission) error {
	user, err := s.m.getUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !user.Active {
		return ErrUserNotActive
	}

	if !HasPermission(user.Role, permission) {
		return ErrPermissionDenied
	}

	return nil
}
