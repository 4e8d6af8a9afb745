package app

import (
	"context"
	"time"

	"excelytics/domain/core"
	"excelytics/internal/errors"
	"excelytics/internal/logging"
	"excelytics/models"
	"excelytics/ports"

	"golang.org/x/sync/errgroup"
)

const (
	uploadsWindowDays = 14
	tokensWindow      = 30 * 24 * time.Hour
)

// TokenCounter sums LLM tokens across users.
type TokenCounter interface {
	TokensSince(ctx context.Context, since time.Time) (int, error)
}

// AdminService holds the operations behind the admin console. Every method
// requires an admin actor.
type AdminService struct {
	users  ports.UserRepository
	files  ports.FileRepository
	tokens TokenCounter
	cache  ports.Cache
	now    func() time.Time
}

// NewAdminService creates an admin service. cache may be nil.
func NewAdminService(users ports.UserRepository, files ports.FileRepository, tokens TokenCounter, cache ports.Cache) *AdminService {
	return &AdminService{users: users, files: files, tokens: tokens, cache: cache, now: time.Now}
}

func requireAdmin(actor models.Actor) error {
	if !actor.IsAdmin() {
		return errors.Forbidden("admin role required")
	}
	return nil
}

// ListUsers returns every account.
func (s *AdminService) ListUsers(ctx context.Context, actor models.Actor) ([]*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

// UpdateUser changes a user's active flag or role. Admins cannot disable
// or demote themselves.
func (s *AdminService) UpdateUser(ctx context.Context, actor models.Actor, id core.ID, update models.UserUpdate) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if update.Role != nil && !update.Role.Valid() {
		return nil, errors.ValidationError("role must be user or admin")
	}
	if update.IsActive == nil && update.Role == nil {
		return nil, errors.ValidationError("nothing to update")
	}
	if id == actor.UserID {
		if (update.IsActive != nil && !*update.IsActive) || (update.Role != nil && *update.Role != models.RoleAdmin) {
			return nil, errors.Conflict("admins cannot disable or demote themselves")
		}
	}

	user, err := s.users.UpdateUser(ctx, id, update)
	if err != nil {
		return nil, err
	}
	log := logging.Ctx(ctx)
	log.Info().Str("user_id", id.String()).Str("actor_id", actor.UserID.String()).Msg("user updated")
	return user, nil
}

// DeleteUser removes a user and every file they own.
func (s *AdminService) DeleteUser(ctx context.Context, actor models.Actor, id core.ID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id == actor.UserID {
		return errors.Conflict("admins cannot delete themselves")
	}
	if _, err := s.users.GetUserByID(ctx, id); err != nil {
		return err
	}

	files, err := s.files.ListByOwner(ctx, id)
	if err != nil {
		return err
	}
	removed, err := s.files.DeleteByOwner(ctx, id)
	if err != nil {
		return err
	}
	for _, f := range files {
		evictInsight(ctx, s.cache, f.ID)
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}

	log := logging.Ctx(ctx)
	log.Info().Str("user_id", id.String()).Int64("files_removed", removed).Msg("user deleted")
	return nil
}

// Stats gathers the dashboard numbers concurrently.
func (s *AdminService) Stats(ctx context.Context, actor models.Actor) (*models.Stats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var (
		userStats *models.UserStats
		fileStats *models.FileStats
		tokens    int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		userStats, err = s.users.Stats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		fileStats, err = s.files.Stats(gctx, now.AddDate(0, 0, -(uploadsWindowDays-1)))
		return err
	})
	g.Go(func() error {
		if s.tokens == nil {
			return nil
		}
		var err error
		tokens, err = s.tokens.TokensSince(gctx, now.Add(-tokensWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "failed to collect stats")
	}

	return &models.Stats{UserStats: *userStats, FileStats: *fileStats, LLMTokens30d: tokens}, nil
}
