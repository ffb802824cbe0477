package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mycogenesis/contenthub/internal/common"
)

var ErrDuplicateCategory = errors.New("duplicate category name")

func validateCategoryEntity(v *common.Validator, c *Category) {
	v.Check(c.Name != "", "name", "must be provided")
	v.Check(len(c.Name) <= 50, "name", "must not be more than 50 characters long")
	v.Check(common.PermittedValue(c.Kind, CategoryKindBlog, CategoryKindProduct), "kind", "must be one of blog or product")
}

// CreateCategory inserts a category. Names are unique per kind.
func (s *BlogService) CreateCategory(ctx context.Context, c *Category) (int, error) {
	v := common.NewValidator()
	validateCategoryEntity(v, c)
	if !v.Valid() {
		return 0, v.ValidationError()
	}

	query := `
		INSERT INTO categories (name, description, kind)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := s.m.db.QueryRowContext(ctx, query, c.Name, c.Description, string(c.Kind)).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		switch {
		case uniqueViolation(err, "categories_name_kind_key"):
			return 0, ErrDuplicateCategory
		default:
			return 0, fmt.Errorf("could not insert category: %w", err)
		}
	}

	s.invalidateCategories(c.Kind)

	return c.ID, nil
}

func (s *BlogService) UpdateCategory(ctx context.Context, c *Category) error {
	v := common.NewValidator()
	validateInt(v, c.ID, "id")
	validateCategoryEntity(v, c)
	if !v.Valid() {
		return v.ValidationError()
	}

	query := `
		UPDATE categories
		SET name = $1, description = $2, updated_at = now()
		WHERE id = $3 AND kind = $4
		RETURNING updated_at`

	err := s.m.db.QueryRowContext(ctx, query, c.Name, c.Description, c.ID, string(c.Kind)).Scan(&c.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		case uniqueViolation(err, "categories_name_kind_key"):
			return ErrDuplicateCategory
		default:
			return fmt.Errorf("could not update category: %w", err)
		}
	}

	s.invalidateCategories(c.Kind)

	return nil
}

func (s *BlogService) DeleteCategory(ctx context.Context, id int) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	res, err := s.m.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("could not delete category: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrRecordNotFound
	}

	if s.c != nil {
		s.c.Delete(common.CacheKeyCategories(string(CategoryKindBlog)))
		s.c.Delete(common.CacheKeyCategories(string(CategoryKindProduct)))
	}

	return nil
}

func (s *BlogService) GetCategories(ctx context.Context, kind CategoryKind) ([]Category, error) {
	v := common.NewValidator()
	v.Check(common.PermittedValue(kind, CategoryKindBlog, CategoryKindProduct), "kind", "must be one of blog or product")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if s.c != nil {
		if cached, ok := s.c.Get(common.CacheKeyCategories(string(kind))); ok {
			if cs, ok := cached.([]Category); ok {
				return cs, nil
			}
		}
	}

	query := `
		SELECT id, name, description, kind, created_at, updated_at
		FROM categories
		WHERE kind = $1
		ORDER BY name`

	rows, err := s.m.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("could not list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Kind, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if s.c != nil {
		s.c.Set(common.CacheKeyCategories(string(kind)), categories)
	}

	return categories, nil
}

func (s *BlogService) invalidateCategories(kind CategoryKind) {
	if s.c != nil {
		s.c.Delete(common.CacheKeyCategories(string(kind)))
	}
}
