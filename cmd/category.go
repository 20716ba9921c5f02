package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/bohm/libris/pkg/catalog"
)

// CategoryCommand groups category tree management subcommands.
func CategoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "category",
		Usage: "Manage category trees",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a category (or subcategory with --parent)",
				ArgsUsage: "<type> <name>",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "parent",
						Usage: "Parent category id (makes the new category a subcategory)",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 2 {
						return fmt.Errorf("usage: libris category add <type> <name>")
					}
					return categoryAdd(c.String("config"), c.Args().Get(0), c.Args().Get(1), c.Int64("parent"))
				},
			},
			{
				Name:      "rename",
				Usage:     "Rename a category",
				ArgsUsage: "<type> <id> <new-name>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 3 {
						return fmt.Errorf("usage: libris category rename <type> <id> <new-name>")
					}
					return categoryRename(c.String("config"), c.Args().Get(0), c.Args().Get(1), c.Args().Get(2))
				},
			},
			{
				Name:      "rm",
				Usage:     "Delete a category, its subcategories and their publications",
				ArgsUsage: "<type> <id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 2 {
						return fmt.Errorf("usage: libris category rm <type> <id>")
					}
					return categoryDelete(c.String("config"), c.Args().Get(0), c.Args().Get(1))
				},
			},
			{
				Name:      "mv",
				Usage:     "Move a category to another publication type",
				ArgsUsage: "<type> <id> <target-type>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "parent",
						Usage: "Name of the destination parent category in the target type",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 3 {
						return fmt.Errorf("usage: libris category mv <type> <id> <target-type>")
					}
					return categoryMove(c.String("config"), c.Args().Get(0), c.Args().Get(1), c.Args().Get(2), c.String("parent"))
				},
			},
			{
				Name:      "reorder",
				Usage:     "Rewrite the display order of a sibling set",
				ArgsUsage: "<type> <id,id,...>",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "parent",
						Usage: "Parent category id of the sibling set (omit for top level)",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 2 {
						return fmt.Errorf("usage: libris category reorder <type> <id,id,...>")
					}
					return categoryReorder(c.String("config"), c.Args().Get(0), c.Args().Get(1), c.Int64("parent"))
				},
			},
		},
	}
}

func categoryAdd(configPath, typeArg, name string, parent int64) error {
	typ, err := parseType(typeArg)
	if err != nil {
		return err
	}

	env, err := openCatalog(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	var parentID *int64
	if parent != 0 {
		parentID = &parent
	}

	id, err := env.store.AddCategory(typ, name, parentID)
	if err != nil {
		return err
	}
	fmt.Printf("Added category %q with id %d\n", name, id)
	return nil
}

func categoryRename(configPath, typeArg, idArg, newName string) error {
	typ, err := parseType(typeArg)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("category id must be an integer: %w", err)
	}

	env, err := openCatalog(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.store.RenameCategory(typ, id, newName); err != nil {
		return err
	}
	fmt.Printf("Renamed category %d to %q\n", id, newName)
	return nil
}

func categoryDelete(configPath, typeArg, idArg string) error {
	typ, err := parseType(typeArg)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("category id must be an integer: %w", err)
	}

	env, err := openCatalog(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.store.DeleteCategory(typ, id); err != nil {
		return err
	}
	fmt.Printf("Deleted category %d and its contents\n", id)
	return nil
}

func categoryMove(configPath, typeArg, idArg, targetArg, targetParent string) error {
	typ, err := parseType(typeArg)
	if err != nil {
		return err
	}
	targetType, err := parseType(targetArg)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("category id must be an integer: %w", err)
	}

	env, err := openCatalog(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	newID, err := env.store.MoveAcrossType(typ, id, targetType, targetParent)
	if err != nil {
		return err
	}
	fmt.Printf("Moved category %d from %s to %s (new id %d)\n", id, typ, targetType, newID)
	return nil
}

func categoryReorder(configPath, typeArg, idsArg string, parent int64) error {
	typ, err := parseType(typeArg)
	if err != nil {
		return err
	}

	var orderedIDs []int64
	for _, part := range strings.Split(idsArg, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return fmt.Errorf("category id %q must be an integer", part)
		}
		orderedIDs = append(orderedIDs, id)
	}

	env, err := openCatalog(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	var parentID *int64
	if parent != 0 {
		parentID = &parent
	}

	if err := env.store.ReorderSiblings(typ, parentID, orderedIDs); err != nil {
		return err
	}
	fmt.Printf("Reordered %d categories\n", len(orderedIDs))
	return nil
}

func formatCategory(cat catalog.Category) string {
	return fmt.Sprintf("%s (id %d)", cat.Name, cat.ID)
}
