package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kasaledger/kasa/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage the category tree",
		Long:  `List, add, move, and delete expense and income categories.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(moveCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var parentID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := initEngines(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			categories, err := eng.tree.Children(ctx, optionalID(parentID))
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			if len(categories) == 0 {
				fmt.Println(infoStyle.Render("No categories found. Use 'kasa categories add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Name"),
				headerStyle.Render("Kind"),
				headerStyle.Render("Type"))
			fmt.Fprintln(w, separator(4, 24, 8, 8))

			for _, cat := range categories {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", cat.ID, cat.Name, cat.Kind, cat.Type)
			}

			return nil
		},
	}

	cmd.Flags().Int64Var(&parentID, "parent", 0, "list children of this category (0 for roots)")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	var (
		parentID     int64
		kind         string
		categoryType string
		icon         string
		color        string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := initEngines(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			cat := &model.Category{
				Name:     args[0],
				Kind:     model.CategoryKind(kind),
				Type:     model.CategoryType(categoryType),
				ParentID: optionalID(parentID),
				Icon:     icon,
				Color:    color,
			}
			if err := eng.tree.Create(ctx, cat); err != nil {
				return renderError(err)
			}

			fmt.Printf("Created category %d (%s)\n", cat.ID, cat.Name)
			return nil
		},
	}

	cmd.Flags().Int64Var(&parentID, "parent", 0, "parent category id (0 for root)")
	cmd.Flags().StringVar(&kind, "kind", "entry", "category kind (folder, entry)")
	cmd.Flags().StringVar(&categoryType, "type", "expense", "category type (expense, income)")
	cmd.Flags().StringVar(&icon, "icon", "", "icon name")
	cmd.Flags().StringVar(&color, "color", "", "hex color")
	return cmd
}

func moveCategoryCmd() *cobra.Command {
	var newParentID int64

	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a category under a new parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			eng, err := initEngines(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.tree.Move(ctx, id, optionalID(newParentID)); err != nil {
				return renderError(err)
			}

			fmt.Printf("Moved category %d\n", id)
			return nil
		},
	}

	cmd.Flags().Int64Var(&newParentID, "to", 0, "new parent category id (0 for root)")
	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category with no children or operations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			eng, err := initEngines(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.tree.Delete(ctx, id); err != nil {
				return renderError(err)
			}

			fmt.Printf("Deleted category %d\n", id)
			return nil
		},
	}
}
