package search

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/bohm/libris/pkg/catalog"
	"github.com/bohm/libris/pkg/log"
)

// Stage is one independent search strategy. Run returns the matches it
// found plus a list of per-publication problems (unreadable assets) that
// were skipped. A non-nil error is fatal for the stage; cancellation
// surfaces as ctx.Err() with the matches collected so far.
//
// Stages are read-only: they never mutate publication or category state.
type Stage interface {
	Kind() StageKind
	Run(ctx context.Context, query string) ([]Match, []error, error)
}

func newMatch(pub *catalog.Publication, kind StageKind) Match {
	return Match{
		PublicationID: pub.ID,
		Title:         pub.Title,
		Author:        pub.Author,
		Year:          pub.Year,
		Stage:         kind,
	}
}

// TitleStage matches the query against publication titles. When the
// publication has a readable description that also contains the query, a
// context snippet is attached as auxiliary information; the title match
// stands on its own either way.
type TitleStage struct {
	Index *catalog.Index
}

func (s *TitleStage) Kind() StageKind { return StageTitle }

func (s *TitleStage) Run(ctx context.Context, query string) ([]Match, []error, error) {
	ids, err := s.Index.AllIDs()
	if err != nil {
		return nil, nil, fmt.Errorf("listing publications: %w", err)
	}

	var matches []Match
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return matches, nil, err
		}

		pub, err := s.Index.Get(id)
		if err != nil {
			return matches, nil, err
		}
		if !containsFold(pub.Title, query) {
			continue
		}

		m := newMatch(pub, StageTitle)
		if desc, err := s.Index.Description(id); err == nil {
			m.Snippet = Extract(desc, query, DefaultContextSize)
		}
		matches = append(matches, m)
	}
	return matches, nil, nil
}

// DescriptionStage reads each publication's description file and matches
// the query against its text, producing exactly one snippet per match.
// Unreadable descriptions are skipped and reported, never fatal.
type DescriptionStage struct {
	Index *catalog.Index
}

func (s *DescriptionStage) Kind() StageKind { return StageDescription }

func (s *DescriptionStage) Run(ctx context.Context, query string) ([]Match, []error, error) {
	ids, err := s.Index.AllIDs()
	if err != nil {
		return nil, nil, fmt.Errorf("listing publications: %w", err)
	}

	var matches []Match
	var problems []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return matches, problems, err
		}

		desc, err := s.Index.Description(id)
		if err != nil {
			problems = append(problems, &AssetReadError{
				PublicationID: id,
				Path:          s.Index.DescriptionPath(id),
				Err:           err,
			})
			continue
		}
		if !containsFold(desc, query) {
			continue
		}

		pub, err := s.Index.Get(id)
		if err != nil {
			return matches, problems, err
		}
		m := newMatch(pub, StageDescription)
		m.Snippet = Extract(desc, query, DefaultContextSize)
		matches = append(matches, m)
	}
	return matches, problems, nil
}

// PdfStage extracts text per page from each publication's PDF and emits one
// match per occurrence, carrying the 1-based page number. A page (or file)
// whose extraction fails is skipped and reported.
type PdfStage struct {
	Index *catalog.Index
}

func (s *PdfStage) Kind() StageKind { return StagePDF }

func (s *PdfStage) Run(ctx context.Context, query string) ([]Match, []error, error) {
	ids, err := s.Index.AllIDs()
	if err != nil {
		return nil, nil, fmt.Errorf("listing publications: %w", err)
	}

	logger := log.ForComponent("search")

	var matches []Match
	var problems []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return matches, problems, err
		}

		path := s.Index.PdfPath(id)
		if path == "" {
			continue
		}

		pub, err := s.Index.Get(id)
		if err != nil {
			return matches, problems, err
		}

		pageMatches, err := searchPdfFile(ctx, path, query, pub)
		if err != nil {
			if ctx.Err() != nil {
				matches = append(matches, pageMatches...)
				return matches, problems, ctx.Err()
			}
			logger.Warnf("skipping PDF %s: %v", path, err)
			problems = append(problems, &AssetReadError{PublicationID: id, Path: path, Err: err})
			continue
		}
		matches = append(matches, pageMatches...)
	}
	return matches, problems, nil
}

// searchPdfFile scans a single PDF page by page. The pdf parser panics on
// some malformed files, so the whole scan runs under a recover that turns
// a panic into a per-file error.
func searchPdfFile(ctx context.Context, path, query string, pub *catalog.Publication) (matches []Match, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return matches, err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Extraction failure on one page is not fatal to the file.
			continue
		}
		if !containsFold(text, query) {
			continue
		}

		for _, snippet := range ExtractAll(text, query, DefaultContextSize) {
			m := newMatch(pub, StagePDF)
			m.PageNumber = pageNum
			m.Snippet = snippet
			matches = append(matches, m)
		}
	}
	return matches, nil
}
