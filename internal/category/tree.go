// Package category implements the hierarchical category tree: traversal,
// moves with cycle detection, and dependency-checked deletion.
package category

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kasaledger/kasa/internal/common"
	"github.com/kasaledger/kasa/internal/model"
	"github.com/kasaledger/kasa/internal/service"
)

// Tree navigates and mutates the category forest.
type Tree struct {
	store service.EntityStore
}

// NewTree creates a category tree over the given store.
func NewTree(store service.EntityStore) *Tree {
	return &Tree{store: store}
}

// Create validates and inserts a category. The parent, when given, must exist
// and be a folder; entries cannot have children.
func (t *Tree) Create(ctx context.Context, category *model.Category) error {
	if category == nil {
		return fmt.Errorf("%w: category", common.ErrInvalidOperation)
	}
	if category.Icon == "" {
		category.Icon = "tag"
	}
	if category.Color == "" {
		category.Color = "#607D8B"
	}

	if category.ParentID != nil {
		if err := t.validateParent(ctx, *category.ParentID, category.Type); err != nil {
			return err
		}
	}

	return t.store.CreateCategory(ctx, category)
}

// validateParent checks that a prospective parent exists, is a folder, and
// matches the child's expense/income type.
func (t *Tree) validateParent(ctx context.Context, parentID int64, childType model.CategoryType) error {
	parent, err := t.store.GetCategory(ctx, parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("parent category %d: %w", parentID, common.ErrNotFound)
	}
	if parent.Kind != model.CategoryKindFolder {
		return common.NewValidationError("valid_parent_must_be_folder")
	}
	if parent.Type != childType {
		return common.NewValidationError("valid_parent_type_mismatch")
	}
	return nil
}

// Get returns a category by ID.
func (t *Tree) Get(ctx context.Context, id int64) (*model.Category, error) {
	category, err := t.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}
	return category, nil
}

// Children returns the direct children of parentID, or the roots when
// parentID is nil. Shadow categories stay out of listings.
func (t *Tree) Children(ctx context.Context, parentID *int64) ([]model.Category, error) {
	return t.store.GetCategoriesByParent(ctx, parentID, false)
}

// Descendants returns every transitive child of the category, breadth-first.
// Shadow categories are included so aggregation never misses them.
func (t *Tree) Descendants(ctx context.Context, id int64) ([]model.Category, error) {
	if _, err := t.Get(ctx, id); err != nil {
		return nil, err
	}

	var descendants []model.Category
	queue := []int64{id}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := t.store.GetCategoriesByParent(ctx, &current, true)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			descendants = append(descendants, child)
			queue = append(queue, child.ID)
		}
	}

	return descendants, nil
}

// Path returns the chain of categories from the root down to id, inclusive.
func (t *Tree) Path(ctx context.Context, id int64) ([]model.Category, error) {
	var path []model.Category
	currentID := &id

	for currentID != nil {
		category, err := t.Get(ctx, *currentID)
		if err != nil {
			return nil, err
		}
		path = append([]model.Category{*category}, path...)
		currentID = category.ParentID
	}

	return path, nil
}

// Move relinks a category under newParentID (nil for root). The move is
// rejected when it would create a cycle (newParentID equal to the category
// itself, or anywhere below it) and when the new parent fails the same
// folder-kind and type checks Create applies.
func (t *Tree) Move(ctx context.Context, id int64, newParentID *int64) error {
	moved, err := t.Get(ctx, id)
	if err != nil {
		return err
	}

	if newParentID != nil {
		if *newParentID == id {
			return fmt.Errorf("category %d cannot be its own parent: %w", id, common.ErrCircularReference)
		}

		// Walking the path from the new parent up to its root covers every
		// ancestor; if the moved category appears there, the new parent is a
		// descendant of it.
		path, err := t.Path(ctx, *newParentID)
		if err != nil {
			return err
		}
		for _, ancestor := range path {
			if ancestor.ID == id {
				return fmt.Errorf("category %d is an ancestor of %d: %w", id, *newParentID, common.ErrCircularReference)
			}
		}

		if err := t.validateParent(ctx, *newParentID, moved.Type); err != nil {
			return err
		}
	}

	if err := t.store.UpdateCategoryParent(ctx, id, newParentID); err != nil {
		return err
	}

	slog.Info("moved category", "id", id, "new_parent", newParentID)
	return nil
}

// Delete removes a category. It fails with HasDependentsError while any child
// category or operation still references it.
func (t *Tree) Delete(ctx context.Context, id int64) error {
	if _, err := t.Get(ctx, id); err != nil {
		return err
	}

	children, err := t.store.CountCategoryChildren(ctx, id)
	if err != nil {
		return err
	}
	operations, err := t.store.CountOperationsByCategory(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 || operations > 0 {
		return &common.HasDependentsError{
			Entity:     fmt.Sprintf("category %d", id),
			Children:   children,
			Operations: operations,
		}
	}

	return t.store.DeleteCategory(ctx, id)
}

// ShadowCategory returns the system balance-adjustment category.
func (t *Tree) ShadowCategory(ctx context.Context) (*model.Category, error) {
	categories, err := t.store.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if categories[i].IsShadow {
			return &categories[i], nil
		}
	}
	return nil, fmt.Errorf("shadow category: %w", common.ErrNotFound)
}
