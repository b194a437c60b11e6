package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kasaledger/kasa/internal/model"
)

const categoryColumns = `id, name, kind, category_type, parent_id, icon, color, is_shadow`

// CreateCategory inserts a new category and fills in its generated ID.
func (s *queries) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `
		INSERT INTO categories (name, kind, category_type, parent_id, icon, color, is_shadow)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		category.Name, string(category.Kind), string(category.Type),
		category.ParentID, category.Icon, category.Color, category.IsShadow)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get category ID: %w", err)
	}
	category.ID = id

	slog.Info("created category", "id", id, "name", category.Name, "kind", category.Kind)
	return nil
}

// GetCategory returns a category by ID, or nil when it does not exist.
func (s *queries) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE id = ?`, id)

	category, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return category, nil
}

// GetCategories returns every category, shadow ones included.
func (s *queries) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectCategories(rows)
}

// GetCategoriesByParent returns the direct children of a parent, or the roots
// when parentID is nil. Shadow categories are excluded unless requested.
func (s *queries) GetCategoriesByParent(ctx context.Context, parentID *int64, includeShadow bool) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE `
	args := []any{}
	if parentID == nil {
		query += `parent_id IS NULL`
	} else {
		query += `parent_id = ?`
		args = append(args, *parentID)
	}
	if !includeShadow {
		query += ` AND is_shadow = 0`
	}
	query += `
		ORDER BY name`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories by parent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectCategories(rows)
}

// UpdateCategory rewrites a category's fields except its parent link, which
// moves only through UpdateCategoryParent so cycle checks cannot be bypassed.
func (s *queries) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, kind = ?, category_type = ?, icon = ?, color = ?, is_shadow = ?
		WHERE id = ?`,
		category.Name, string(category.Kind), string(category.Type),
		category.Icon, category.Color, category.IsShadow, category.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	return requireRowChanged(result, "category", category.ID)
}

// UpdateCategoryParent relinks a category under a new parent (nil for root).
func (s *queries) UpdateCategoryParent(ctx context.Context, id int64, parentID *int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE categories SET parent_id = ? WHERE id = ?`, parentID, id)
	if err != nil {
		return fmt.Errorf("failed to move category: %w", err)
	}

	return requireRowChanged(result, "category", id)
}

// DeleteCategory removes a category row. The tree engine checks for dependents
// first; the ON DELETE CASCADE on parent_id is a storage-layer backstop that
// live data should never reach.
func (s *queries) DeleteCategory(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	return requireRowChanged(result, "category", id)
}

// CountCategoryChildren returns the number of direct children.
func (s *queries) CountCategoryChildren(ctx context.Context, id int64) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM categories WHERE parent_id = ?`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count category children: %w", err)
	}
	return count, nil
}

// CountOperationsByCategory returns the number of operations tagged with the category.
func (s *queries) CountOperationsByCategory(ctx context.Context, id int64) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM operations WHERE category_id = ?`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count category operations: %w", err)
	}
	return count, nil
}

func scanCategory(row scannable) (*model.Category, error) {
	var category model.Category
	var kind, categoryType string
	var parentID sql.NullInt64

	err := row.Scan(&category.ID, &category.Name, &kind, &categoryType,
		&parentID, &category.Icon, &category.Color, &category.IsShadow)
	if err != nil {
		return nil, err
	}

	category.Kind = model.CategoryKind(kind)
	category.Type = model.CategoryType(categoryType)
	if parentID.Valid {
		category.ParentID = &parentID.Int64
	}
	return &category, nil
}

func collectCategories(rows *sql.Rows) ([]model.Category, error) {
	var categories []model.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *category)
	}
	return categories, rows.Err()
}
