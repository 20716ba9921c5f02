package search

import (
	"context"
	"testing"
)

func TestExecutorCompletesWithProgress(t *testing.T) {
	f := newFixture(t)
	f.addPublication(t, "The Go Programming Language", "Covers the go toolchain.")
	f.addPublication(t, "The Art of Electronics", "Analog circuits.")

	executor := NewExecutor(f.index)
	events, err := executor.Start(context.Background(), Request{
		Query:        "go",
		Titles:       true,
		Descriptions: true,
	})
	if err != nil {
		t.Fatalf("Failed to start search: %v", err)
	}

	var progress []Event
	var terminal Event
	for ev := range events {
		if ev.Kind == EventProgress {
			progress = append(progress, ev)
		} else {
			terminal = ev
		}
	}

	if len(progress) != 2 {
		t.Fatalf("Expected 2 progress events, got %d", len(progress))
	}
	if progress[0].Percent != 50 || progress[1].Percent != 100 {
		t.Errorf("Expected 50%% then 100%%, got %d%% then %d%%", progress[0].Percent, progress[1].Percent)
	}
	if progress[0].Status != "Title search finished" {
		t.Errorf("Unexpected status %q", progress[0].Status)
	}

	if terminal.Kind != EventCompleted {
		t.Fatalf("Expected completed event, got %q (%s)", terminal.Kind, terminal.Err)
	}
	// One title hit, one description hit for the same publication.
	if len(terminal.Matches) != 2 {
		t.Errorf("Expected 2 matches, got %+v", terminal.Matches)
	}

	if state := executor.State(); state != StateIdle {
		t.Errorf("Expected executor back in idle, got %q", state)
	}
}

func TestExecutorReportsSkippedAssets(t *testing.T) {
	f := newFixture(t)
	f.addPublication(t, "Described", "mentions widgets")
	f.addPublication(t, "Undescribed", "")

	executor := NewExecutor(f.index)
	terminal, err := executor.Run(context.Background(), Request{
		Query:        "widgets",
		Descriptions: true,
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if terminal.Kind != EventCompleted {
		t.Fatalf("Expected completed, got %q", terminal.Kind)
	}
	if len(terminal.Matches) != 1 {
		t.Errorf("Expected 1 match, got %+v", terminal.Matches)
	}
	if len(terminal.Problems) != 1 {
		t.Errorf("Expected the undescribed publication reported, got %v", terminal.Problems)
	}
}

func TestExecutorCancelledBeforeFirstStage(t *testing.T) {
	f := newFixture(t)
	f.addPublication(t, "Anything", "text")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executor := NewExecutor(f.index)
	events, err := executor.Start(ctx, Request{Query: "text", Titles: true})
	if err != nil {
		t.Fatalf("Failed to start search: %v", err)
	}

	var terminal Event
	for ev := range events {
		terminal = ev
	}
	if terminal.Kind != EventCancelled {
		t.Errorf("Expected cancelled event, got %q", terminal.Kind)
	}
	if state := executor.State(); state != StateIdle {
		t.Errorf("Expected executor back in idle, got %q", state)
	}
}

func TestExecutorCancelKeepsPartialMatches(t *testing.T) {
	f := newFixture(t)
	pub := f.addPublication(t, "Needle in a title", "and a needle in the text")
	f.writePdfAsset(t, pub, "needle.pdf", []string{"a needle on page one"})

	// Cancel once the description stage reports done: whatever stage the
	// cancel lands in, the title and description matches are already
	// collected and must survive into the terminal event.
	ctx, cancel := context.WithCancel(context.Background())

	executor := NewExecutor(f.index)
	events, err := executor.Start(ctx, Request{
		Query:        "needle",
		Titles:       true,
		Descriptions: true,
		PDF:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start search: %v", err)
	}

	var terminal Event
	for ev := range events {
		if ev.Kind == EventProgress && ev.Status == "Description search finished" {
			cancel()
		}
		if ev.Kind != EventProgress {
			terminal = ev
		}
	}

	byStage := map[StageKind]int{}
	for _, m := range terminal.Matches {
		byStage[m.Stage]++
	}

	switch terminal.Kind {
	case EventCancelled:
		if byStage[StageTitle] != 1 || byStage[StageDescription] != 1 {
			t.Errorf("Expected title and description matches to survive cancellation, got %+v", terminal.Matches)
		}
	case EventCompleted:
		// The PDF stage beat the cancel; then the full result set is due.
		if byStage[StageTitle] != 1 || byStage[StageDescription] != 1 || byStage[StagePDF] != 1 {
			t.Errorf("Expected one match per stage, got %+v", terminal.Matches)
		}
	default:
		t.Errorf("Unexpected terminal event %q (%s)", terminal.Kind, terminal.Err)
	}
	cancel()
}

func TestExecutorValidatesRequest(t *testing.T) {
	f := newFixture(t)
	executor := NewExecutor(f.index)

	if _, err := executor.Start(context.Background(), Request{Titles: true}); err == nil {
		t.Error("Expected error for empty query")
	}
	if _, err := executor.Start(context.Background(), Request{Query: "x"}); err == nil {
		t.Error("Expected error when no stage is enabled")
	}
}

func TestExecutorCancelWithoutRunningSearch(t *testing.T) {
	f := newFixture(t)
	executor := NewExecutor(f.index)
	executor.Cancel() // must not panic

	if state := executor.State(); state != StateIdle {
		t.Errorf("Expected idle state, got %q", state)
	}
}
