package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyfront-backend/application/ports"
	"storyfront-backend/domain"
	"storyfront-backend/infrastructure/cache"
	"storyfront-backend/pkg/common"
	apperrors "storyfront-backend/pkg/errors"
)

// UserService manages profiles and addresses. Identity records are cached
// under the user tier; any profile write purges the record so a revoked
// role or deleted account stops resolving within one request, not one TTL.
type UserService struct {
	users       ports.UserRepository
	codec       *cache.Codec
	invalidator *cache.Invalidator
	logger      *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	users ports.UserRepository,
	codec *cache.Codec,
	invalidator *cache.Invalidator,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:       users,
		codec:       codec,
		invalidator: invalidator,
		logger:      logger,
	}
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users  []*domain.User
	Total  int
	Cached bool
}

type cachedUserPage struct {
	Users []*domain.User `json:"users"`
	Total int            `json:"total"`
}

// EnsureProfile upserts the profile for a token the identity provider just
// vouched for. First contact creates the record; later calls refresh name
// and email drift.
func (s *UserService) EnsureProfile(ctx context.Context, userID, email, name string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err == nil {
		if user.Email == email && user.Name == name {
			return user, nil
		}
		user.Email = email
		user.Name = name
		user.UpdatedAt = time.Now().UTC()
		if err := s.users.Update(ctx, user); err != nil {
			return nil, apperrors.NewDatabaseError("user update", err)
		}
		s.invalidator.Invalidate(ctx, cache.Event{Mutation: cache.MutationUserChanged, ID: userID})
		return user, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return nil, apperrors.NewDatabaseError("user get", err)
	}

	now := time.Now().UTC()
	user = &domain.User{
		ID:        userID,
		Email:     email,
		Name:      name,
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ports.ErrConflict) {
			// Lost a first-contact race; the other writer's record wins.
			if existing, getErr := s.users.GetByID(ctx, userID); getErr == nil {
				return existing, nil
			}
			return nil, apperrors.NewDatabaseError("user get", err)
		}
		return nil, apperrors.NewDatabaseError("user create", err)
	}

	s.logger.Info("user profile created", zap.String("userID", userID))
	return user, nil
}

// GetByID serves a profile through the cache. Profiles are public; role
// and email are part of the record because admin screens need them.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	key := cache.UserKey(id)

	var user domain.User
	if s.codec.Get(ctx, key, &user) {
		return &user, nil
	}

	loaded, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user")
		}
		return nil, apperrors.NewDatabaseError("user get", err)
	}

	s.codec.Put(ctx, key, loaded, s.codec.TTL().User)
	return loaded, nil
}

// UpdateProfileInput carries a partial profile update.
type UpdateProfileInput struct {
	Name *string
	Bio  *string
}

// UpdateProfile edits a profile. Self or admin.
func (s *UserService) UpdateProfile(ctx context.Context, actor *Actor, id string, in UpdateProfileInput) (*domain.User, error) {
	if err := s.requireSelfOrAdmin(actor, id); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user")
		}
		return nil, apperrors.NewDatabaseError("user get", err)
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewDatabaseError("user update", err)
	}

	s.invalidator.Invalidate(ctx, cache.Event{Mutation: cache.MutationUserChanged, ID: id})
	return user, nil
}

// SetRole grants or revokes the admin role. Admin only. The purge matters
// here: a revoked admin must not keep resolving from the cache.
func (s *UserService) SetRole(ctx context.Context, actor *Actor, id string, role domain.Role) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, apperrors.NewValidationError("unknown role")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user")
		}
		return nil, apperrors.NewDatabaseError("user get", err)
	}

	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewDatabaseError("user update", err)
	}

	s.invalidator.Invalidate(ctx, cache.Event{Mutation: cache.MutationUserChanged, ID: id})

	s.logger.Info("user role changed",
		zap.String("userID", id),
		zap.String("role", string(role)),
	)
	return user, nil
}

// Delete removes an account and its addresses. Self or admin.
func (s *UserService) Delete(ctx context.Context, actor *Actor, id string) error {
	if err := s.requireSelfOrAdmin(actor, id); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return apperrors.NewNotFoundError("user")
		}
		return apperrors.NewDatabaseError("user delete", err)
	}

	s.invalidator.Invalidate(ctx, cache.Event{Mutation: cache.MutationUserChanged, ID: id})
	s.logger.Info("user deleted", zap.String("userID", id))
	return nil
}

// List returns a page of accounts. Admin only; the page is cached under
// the list tier and purged by any profile write.
func (s *UserService) List(ctx context.Context, actor *Actor, page common.PaginationParams) (*UserPage, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	key := cache.UserListKey(page)
	var cached cachedUserPage
	if s.codec.Get(ctx, key, &cached) {
		return &UserPage{Users: cached.Users, Total: cached.Total, Cached: true}, nil
	}

	users, total, err := s.users.List(ctx, page)
	if err != nil {
		return nil, apperrors.NewDatabaseError("user list", err)
	}
	if users == nil {
		users = []*domain.User{}
	}

	s.codec.Put(ctx, key, cachedUserPage{Users: users, Total: total}, s.codec.TTL().List)
	return &UserPage{Users: users, Total: total}, nil
}

// ListAddresses returns a user's saved addresses. Self or admin.
func (s *UserService) ListAddresses(ctx context.Context, actor *Actor, userID string) ([]*domain.Address, error) {
	if err := s.requireSelfOrAdmin(actor, userID); err != nil {
		return nil, err
	}

	addresses, err := s.users.ListAddresses(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("address list", err)
	}
	return addresses, nil
}

// PutAddress creates or replaces an address. Self only.
func (s *UserService) PutAddress(ctx context.Context, actor *Actor, address *domain.Address) (*domain.Address, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}

	address.UserID = actor.ID
	if address.ID == "" {
		address.ID = uuid.New().String()
	}

	if err := s.users.PutAddress(ctx, address); err != nil {
		return nil, apperrors.NewDatabaseError("address put", err)
	}
	return address, nil
}

// DeleteAddress removes one address. Self only.
func (s *UserService) DeleteAddress(ctx context.Context, actor *Actor, addressID string) error {
	if actor == nil {
		return apperrors.NewUnauthorizedError("authentication required")
	}

	if err := s.users.DeleteAddress(ctx, actor.ID, addressID); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return apperrors.NewNotFoundError("address")
		}
		return apperrors.NewDatabaseError("address delete", err)
	}
	return nil
}

func (s *UserService) requireSelfOrAdmin(actor *Actor, userID string) error {
	if actor == nil {
		return apperrors.NewUnauthorizedError("authentication required")
	}
	if actor.ID != userID && !actor.IsAdmin() {
		return apperrors.NewForbiddenError("cannot act on another user")
	}
	return nil
}
