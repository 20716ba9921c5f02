package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/bohm/libris/pkg/catalog"
)

var (
	treeTypeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Margin(1, 0, 0, 0)

	treeCategoryStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("214"))

	treeSubStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	treeCountStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// TreeCommand renders the ordered category forest of one or all types.
func TreeCommand() *cli.Command {
	return &cli.Command{
		Name:      "tree",
		Usage:     "Show category trees",
		ArgsUsage: "[type]",
		Action: func(ctx context.Context, c *cli.Command) error {
			return showTrees(c.String("config"), c.Args().First())
		},
	}
}

func showTrees(configPath, typeArg string) error {
	env, err := openCatalog(configPath)
	if err != nil {
		return err
	}
	defer env.Close()

	types := catalog.Types
	if typeArg != "" {
		typ, err := parseType(typeArg)
		if err != nil {
			return err
		}
		types = []catalog.Type{typ}
	}

	for _, typ := range types {
		tree, err := env.store.LoadTree(typ)
		if err != nil {
			return fmt.Errorf("loading %s tree: %w", typ, err)
		}

		fmt.Println(treeTypeStyle.Render(string(typ)))
		if len(tree) == 0 {
			fmt.Println(treeCountStyle.Render("  (no categories)"))
			continue
		}

		for _, node := range tree {
			pubs, err := env.store.PublicationsInCategory(typ, node.ID)
			if err != nil {
				return err
			}
			fmt.Printf("  %s %s\n",
				treeCategoryStyle.Render(formatCategory(node.Category)),
				treeCountStyle.Render(fmt.Sprintf("%d publications", len(pubs))))

			for _, sub := range node.Subcategories {
				subPubs, err := env.store.PublicationsInCategory(typ, sub.ID)
				if err != nil {
					return err
				}
				fmt.Printf("    %s %s\n",
					treeSubStyle.Render(formatCategory(sub)),
					treeCountStyle.Render(fmt.Sprintf("%d publications", len(subPubs))))
			}
		}
	}
	return nil
}
