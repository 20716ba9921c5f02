package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/bohm/libris/pkg/catalog"
)

// PublicationCommand groups publication management subcommands.
func PublicationCommand() *cli.Command {
	return &cli.Command{
		Name:    "publication",
		Aliases: []string{"pub"},
		Usage:   "Manage publications",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a publication to a category",
				ArgsUsage: "<type> <category-id> <title>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "author", Usage: "Author name"},
					&cli.IntFlag{Name: "year", Usage: "Publication year"},
					&cli.StringFlag{Name: "description", Usage: "Description text"},
					&cli.StringFlag{Name: "cover", Usage: "Path to a cover image to import"},
					&cli.StringFlag{Name: "pdf", Usage: "Path to a PDF file to import"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 3 {
						return fmt.Errorf("usage: libris publication add <type> <category-id> <title>")
					}
					return publicationAdd(c)
				},
			},
			{
				Name:      "rm",
				Usage:     "Delete a publication and its asset files",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("usage: libris publication rm <id>")
					}
					return publicationDelete(c.String("config"), c.Args().First())
				},
			},
			{
				Name:      "mv",
				Usage:     "Move a publication to another category",
				ArgsUsage: "<id> <target-type> <target-category-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 3 {
						return fmt.Errorf("usage: libris publication mv <id> <target-type> <target-category-id>")
					}
					return publicationMove(c.String("config"), c.Args().Get(0), c.Args().Get(1), c.Args().Get(2))
				},
			},
			{
				Name:      "show",
				Usage:     "Show a publication's metadata, placement and assets",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("usage: libris publication show <id>")
					}
					return publicationShow(c.String("config"), c.Args().First())
				},
			},
			{
				Name:      "describe",
				Usage:     "Set a publication's description text",
				ArgsUsage: "<id> <text>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 2 {
						return fmt.Errorf("usage: libris publication describe <id> <text>")
					}
					return publicationDescribe(c.String("config"), c.Args().Get(0), c.Args().Get(1))
				},
			},
			{
				Name:      "attach",
				Usage:     "Import a cover image or PDF into a publication's assets",
				ArgsUsage: "<id> <file>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 2 {
						return fmt.Errorf("usage: libris publication attach <id> <file>")
					}
					return publicationAttach(c.String("config"), c.Args().Get(0), c.Args().Get(1))
				},
			},
		},
	}
}

func publicationAdd(c *cli.Command) error {
	typ, err := parseType(c.Args().Get(0))
	if err != nil {
		return err
	}
	categoryID, err := strconv.ParseInt(c.Args().Get(1), 10, 64)
	if err != nil {
		return fmt.Errorf("category id must be an integer: %w", err)
	}

	env, err := openCatalog(c.String("config"))
	if err != nil {
		return err
	}
	defer env.Close()

	pub := &catalog.Publication{
		Title:        c.Args().Get(2),
		Author:       c.String("author"),
		CategoryID:   categoryID,
		CategoryType: typ,
	}
	if y := c.Int("year"); y != 0 {
		yi := int(y)
		pub.Year = &yi
	}

	if err := env.store.AddPublication(pub); err != nil {
		return err
	}

	if desc := c.String("description"); desc != "" {
		if err := catalog.WriteDescription(env.cfg.AssetsDir(), pub.ID, desc); err != nil {
			return err
		}
	}
	for _, path := range []string{c.String("cover"), c.String("pdf")} {
		if path == "" {
			continue
		}
		if _, err := catalog.ImportAsset(env.cfg.AssetsDir(), pub.ID, path); err != nil {
			return err
		}
	}

	fmt.Printf("Added publication %q with id %s\n", pub.Title, pub.ID)
	return nil
}

func publicationDelete(configPath, id string) error {
	env, err := openCatalog(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.store.DeletePublication(id, env.cfg.AssetsDir()); err != nil {
		return err
	}
	fmt.Printf("Deleted publication %s\n", id)
	return nil
}

func publicationMove(configPath, id, targetArg, categoryArg string) error {
	targetType, err := parseType(targetArg)
	if err != nil {
		return err
	}
	categoryID, err := strconv.ParseInt(categoryArg, 10, 64)
	if err != nil {
		return fmt.Errorf("category id must be an integer: %w", err)
	}

	env, err := openCatalog(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.store.MovePublication(id, targetType, categoryID); err != nil {
		return err
	}
	fmt.Printf("Moved publication %s to %s category %d\n", id, targetType, categoryID)
	return nil
}

func publicationShow(configPath, id string) error {
	env, err := openCatalog(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	pub, err := env.store.GetPublication(id)
	if err != nil {
		return err
	}

	fmt.Printf("Title:    %s\n", pub.Title)
	if pub.Author != "" {
		fmt.Printf("Author:   %s\n", pub.Author)
	}
	if pub.Year != nil {
		fmt.Printf("Year:     %d\n", *pub.Year)
	}

	member, err := env.index.Membership(id)
	if err != nil {
		return err
	}
	placement := member.Category
	if member.Subcategory != "" {
		placement += " / " + member.Subcategory
	}
	fmt.Printf("Location: %s: %s\n", member.Type, placement)

	if cover := env.index.CoverPath(id); cover != "" {
		fmt.Printf("Cover:    %s\n", cover)
	}
	if pdf := env.index.PdfPath(id); pdf != "" {
		fmt.Printf("PDF:      %s\n", pdf)
	}
	if desc, err := env.index.Description(id); err == nil && desc != "" {
		fmt.Printf("\n%s\n", desc)
	}
	return nil
}

func publicationDescribe(configPath, id, text string) error {
	env, err := openCatalog(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	if _, err := env.store.GetPublication(id); err != nil {
		return err
	}
	if err := catalog.WriteDescription(env.cfg.AssetsDir(), id, text); err != nil {
		return err
	}
	env.index.InvalidateDescription(id)
	fmt.Printf("Updated description of %s\n", id)
	return nil
}

func publicationAttach(configPath, id, file string) error {
	env, err := openCatalog(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	if _, err := env.store.GetPublication(id); err != nil {
		return err
	}
	dest, err := catalog.ImportAsset(env.cfg.AssetsDir(), id, file)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %s\n", dest)
	return nil
}
