package ports

import (
	"context"

	"excelytics/domain/core"
	"excelytics/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// CreateUser returns a Conflict error when the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	GetUserByID(ctx context.Context, id core.ID) (*models.User, error)

	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	ListUsers(ctx context.Context) ([]*models.User, error)

	UpdateUser(ctx context.Context, id core.ID, update models.UserUpdate) (*models.User, error)

	TouchLastLogin(ctx context.Context, id core.ID) error

	DeleteUser(ctx context.Context, id core.ID) error

	Stats(ctx context.Context) (*models.UserStats, error)
}
