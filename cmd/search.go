package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/bohm/libris/pkg/search"
)

var (
	searchTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("86"))

	searchMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	searchHitStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	searchProblemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("203"))
)

// SearchCommand runs a staged search from the command line, streaming
// progress as status lines on stderr and printing the final result list
// on stdout.
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search titles, descriptions and PDF content",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "titles", Usage: "Search publication titles"},
			&cli.BoolFlag{Name: "descriptions", Usage: "Search description files"},
			&cli.BoolFlag{Name: "pdf", Usage: "Search PDF content"},
			&cli.StringFlag{Name: "type", Usage: "Restrict to one publication type"},
			&cli.StringFlag{Name: "category", Usage: "Restrict to one category (requires --type)"},
			&cli.StringFlag{Name: "subcategory", Usage: "Restrict to one subcategory (requires --category)"},
			&cli.IntFlag{Name: "year-from", Usage: "Lower bound of the publication year range"},
			&cli.IntFlag{Name: "year-to", Usage: "Upper bound of the publication year range"},
			&cli.StringFlag{Name: "sort", Usage: "Sort results by relevance, title, author or year"},
			&cli.IntFlag{Name: "max", Usage: "Maximum number of results"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("usage: libris search <query>")
			}
			return runSearch(ctx, c)
		},
	}
}

func runSearch(ctx context.Context, c *cli.Command) error {
	env, err := openCatalog(c.String("config"))
	if err != nil {
		return err
	}
	defer env.Close()

	req, err := buildSearchRequest(c, env)
	if err != nil {
		return err
	}

	executor := search.NewExecutor(env.index)
	events, err := executor.Start(ctx, req)
	if err != nil {
		return err
	}

	var terminal search.Event
	for ev := range events {
		switch ev.Kind {
		case search.EventProgress:
			fmt.Fprintf(os.Stderr, "%s\n", searchMetaStyle.Render(fmt.Sprintf("%3d%% %s", ev.Percent, ev.Status)))
		default:
			terminal = ev
		}
	}

	switch terminal.Kind {
	case search.EventCancelled:
		fmt.Fprintln(os.Stderr, searchMetaStyle.Render("Search cancelled; showing partial results"))
	case search.EventFailed:
		return fmt.Errorf("search failed: %s", terminal.Err)
	}

	printMatches(terminal.Matches)
	for _, problem := range terminal.Problems {
		fmt.Println(searchProblemStyle.Render("skipped: " + problem))
	}
	return nil
}

func buildSearchRequest(c *cli.Command, env *catalogEnv) (search.Request, error) {
	req := search.Request{
		Query:        c.Args().First(),
		Titles:       c.Bool("titles"),
		Descriptions: c.Bool("descriptions"),
		PDF:          c.Bool("pdf"),
		SortBy:       search.SortKey(c.String("sort")),
		MaxResults:   int(c.Int("max")),
	}

	// No stage flags means the configured defaults.
	if !req.Titles && !req.Descriptions && !req.PDF {
		req.Titles = env.cfg.Search.Titles
		req.Descriptions = env.cfg.Search.Descriptions
		req.PDF = env.cfg.Search.PDF
	}
	if req.SortBy == "" {
		req.SortBy = search.SortKey(env.cfg.Search.SortBy)
	}
	if req.MaxResults == 0 {
		req.MaxResults = env.cfg.Search.MaxResults
	}

	if typeArg := c.String("type"); typeArg != "" {
		typ, err := parseType(typeArg)
		if err != nil {
			return req, err
		}
		req.Scope = &search.Scope{
			Type:        typ,
			Category:    c.String("category"),
			Subcategory: c.String("subcategory"),
		}
	} else if c.String("category") != "" {
		return req, fmt.Errorf("--category requires --type")
	}

	from, to := int(c.Int("year-from")), int(c.Int("year-to"))
	if from != 0 || to != 0 {
		if to == 0 {
			to = from
		}
		req.Years = &search.YearRange{From: from, To: to}
	}
	return req, nil
}

func printMatches(matches []search.Match) {
	if len(matches) == 0 {
		fmt.Println("No matches.")
		return
	}

	fmt.Printf("%d matches:\n\n", len(matches))
	for _, m := range matches {
		header := searchTitleStyle.Render(m.Title)
		var meta []string
		if m.Author != "" {
			meta = append(meta, m.Author)
		}
		if m.Year != nil {
			meta = append(meta, fmt.Sprint(*m.Year))
		}
		meta = append(meta, string(m.Stage))
		if m.PageNumber > 0 {
			meta = append(meta, fmt.Sprintf("page %d", m.PageNumber))
		}
		fmt.Printf("%s %s\n", header, searchMetaStyle.Render("("+strings.Join(meta, ", ")+")"))
		if m.Snippet != "" {
			fmt.Printf("  %s\n", renderHighlights(m.Snippet))
		}
	}
}

// renderHighlights turns the <b>...</b> markers of a snippet into
// terminal bold spans.
func renderHighlights(snippet string) string {
	var out strings.Builder
	rest := snippet
	for {
		open := strings.Index(rest, "<b>")
		if open < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:open])
		rest = rest[open+len("<b>"):]
		end := strings.Index(rest, "</b>")
		if end < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(searchHitStyle.Render(rest[:end]))
		rest = rest[end+len("</b>"):]
	}
	return out.String()
}
