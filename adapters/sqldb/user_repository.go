package sqldb

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"excelytics/domain/core"
	"excelytics/internal/errors"
	"excelytics/models"
	"excelytics/ports"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, email, name, password_hash, role, is_active, created_at, last_login_at`

// UserRepositoryImpl implements UserRepository over sqlx
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// CreateUser creates a new user
func (r *UserRepositoryImpl) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsEmpty() {
		user.ID = core.NewID()
	}
	user.Email = models.NormalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = utcNow()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, is_active, created_at, last_login_at)
		VALUES (:id, :email, :name, :password_hash, :role, :is_active, :created_at, :last_login_at)
	`, user)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("email already registered")
		}
		return errors.DatabaseError("failed to create user", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID
func (r *UserRepositoryImpl) GetUserByID(ctx context.Context, id core.ID) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (r *UserRepositoryImpl) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, models.NormalizeEmail(email))
}

func (r *UserRepositoryImpl) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(query), arg)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("user")
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to get user", err)
	}
	normalizeTimes(&user)
	return &user, nil
}

// ListUsers returns all users, oldest first
func (r *UserRepositoryImpl) ListUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at, email`)
	if err != nil {
		return nil, errors.DatabaseError("failed to list users", err)
	}
	for _, u := range users {
		normalizeTimes(u)
	}
	return users, nil
}

// UpdateUser applies the non-nil fields of update.
func (r *UserRepositoryImpl) UpdateUser(ctx context.Context, id core.ID, update models.UserUpdate) (*models.User, error) {
	var (
		sets []string
		args []interface{}
	)
	if update.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *update.IsActive)
	}
	if update.Role != nil {
		if !update.Role.Valid() {
			return nil, errors.ValidationError("role must be user or admin")
		}
		sets = append(sets, "role = ?")
		args = append(args, string(*update.Role))
	}
	if len(sets) > 0 {
		args = append(args, id)
		query := r.db.Rebind(`UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, errors.DatabaseError("failed to update user", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, errors.NotFound("user")
		}
	}
	return r.GetUserByID(ctx, id)
}

// TouchLastLogin stamps the current time as the last login.
func (r *UserRepositoryImpl) TouchLastLogin(ctx context.Context, id core.ID) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET last_login_at = ? WHERE id = ?`), utcNow(), id)
	if err != nil {
		return errors.DatabaseError("failed to update last login", err)
	}
	return nil
}

// DeleteUser removes the account row.
func (r *UserRepositoryImpl) DeleteUser(ctx context.Context, id core.ID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return errors.DatabaseError("failed to delete user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.DatabaseError("failed to delete user", err)
	}
	if n == 0 {
		return errors.NotFound("user")
	}
	return nil
}

// Stats counts accounts.
func (r *UserRepositoryImpl) Stats(ctx context.Context) (*models.UserStats, error) {
	stats := &models.UserStats{}
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN role = ? THEN 1 ELSE 0 END), 0)
		FROM users
	`), string(models.RoleAdmin)).Scan(&stats.Users, &stats.ActiveUsers, &stats.Admins)
	if err != nil {
		return nil, errors.DatabaseError("failed to count users", err)
	}
	return stats, nil
}

func normalizeTimes(u *models.User) {
	u.CreatedAt = u.CreatedAt.UTC()
	if u.LastLoginAt != nil {
		t := u.LastLoginAt.UTC()
		u.LastLoginAt = &t
	}
}
