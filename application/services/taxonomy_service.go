package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"storyfront-backend/application/ports"
	"storyfront-backend/domain"
	apperrors "storyfront-backend/pkg/errors"
)

// TaxonomyService manages categories and tags. Both sets are tiny and read
// on almost every page render, so they are served straight from the store;
// the listing endpoints are cheap single-partition queries.
type TaxonomyService struct {
	taxonomy ports.TaxonomyRepository
	logger   *zap.Logger
}

// NewTaxonomyService creates a new TaxonomyService.
func NewTaxonomyService(taxonomy ports.TaxonomyRepository, logger *zap.Logger) *TaxonomyService {
	return &TaxonomyService{taxonomy: taxonomy, logger: logger}
}

// CreateCategory adds a category. Admin only.
func (s *TaxonomyService) CreateCategory(ctx context.Context, actor *Actor, name, description string) (*domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	category := &domain.Category{
		ID:          uuid.New().String(),
		Name:        name,
		Slug:        slug.Make(name),
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.taxonomy.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, ports.ErrConflict) {
			return nil, apperrors.NewConflictError("category already exists")
		}
		return nil, apperrors.NewDatabaseError("category create", err)
	}
	return category, nil
}

// UpdateCategory renames a category. Admin only.
func (s *TaxonomyService) UpdateCategory(ctx context.Context, actor *Actor, id, name, description string) (*domain.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	category, err := s.taxonomy.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("category")
		}
		return nil, apperrors.NewDatabaseError("category get", err)
	}

	category.Name = name
	category.Slug = slug.Make(name)
	category.Description = description
	if err := s.taxonomy.UpdateCategory(ctx, category); err != nil {
		return nil, apperrors.NewDatabaseError("category update", err)
	}
	return category, nil
}

// DeleteCategory removes a category. Admin only. Existing content keeps
// its category string; it simply stops resolving to a navigation entry.
func (s *TaxonomyService) DeleteCategory(ctx context.Context, actor *Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.taxonomy.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return apperrors.NewNotFoundError("category")
		}
		return apperrors.NewDatabaseError("category delete", err)
	}
	return nil
}

// ListCategories returns all categories.
func (s *TaxonomyService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.taxonomy.ListCategories(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("category list", err)
	}
	return categories, nil
}

// CreateTag adds a tag. Admin only.
func (s *TaxonomyService) CreateTag(ctx context.Context, actor *Actor, name string) (*domain.Tag, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	tag := &domain.Tag{
		ID:        uuid.New().String(),
		Name:      name,
		Slug:      slug.Make(name),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.taxonomy.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, ports.ErrConflict) {
			return nil, apperrors.NewConflictError("tag already exists")
		}
		return nil, apperrors.NewDatabaseError("tag create", err)
	}
	return tag, nil
}

// DeleteTag removes a tag. Admin only.
func (s *TaxonomyService) DeleteTag(ctx context.Context, actor *Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.taxonomy.DeleteTag(ctx, id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return apperrors.NewNotFoundError("tag")
		}
		return apperrors.NewDatabaseError("tag delete", err)
	}
	return nil
}

// ListTags returns all tags.
func (s *TaxonomyService) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	tags, err := s.taxonomy.ListTags(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("tag list", err)
	}
	return tags, nil
}
