package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/bohm/libris/pkg/catalog"
	"github.com/bohm/libris/pkg/log"
)

// State is the executor's lifecycle state. A finished search (completed,
// cancelled or failed) returns the executor to Idle once its terminal
// event has been emitted.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// EventKind discriminates executor notifications.
type EventKind string

const (
	EventProgress  EventKind = "progress"
	EventCompleted EventKind = "completed"
	EventCancelled EventKind = "cancelled"
	EventFailed    EventKind = "failed"
)

// Event is one asynchronous notification from a running search. Progress
// events carry Percent and Status; terminal events carry the (possibly
// partial) match list, skipped-asset problems and, for failures, Err.
type Event struct {
	Kind     EventKind `json:"kind"`
	Percent  int       `json:"percent,omitempty"`
	Status   string    `json:"status,omitempty"`
	Matches  []Match   `json:"matches,omitempty"`
	Problems []string  `json:"problems,omitempty"`
	Err      string    `json:"error,omitempty"`
}

// Executor orchestrates the enabled stages of one search at a time,
// strictly in the order title, description, PDF. The caller receives
// progress and the final result over the returned event channel and never
// blocks the executor; cancellation is cooperative through the context.
type Executor struct {
	index  *catalog.Index
	logger *log.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

// NewExecutor creates an idle executor over the given index.
func NewExecutor(index *catalog.Index) *Executor {
	return &Executor{
		index:  index,
		logger: log.ForComponent("search"),
		state:  StateIdle,
	}
}

// State returns the current lifecycle state.
func (e *Executor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Cancel requests cancellation of the running search, if any. The search
// stops at the next per-publication or per-page checkpoint and surfaces
// the matches gathered so far.
func (e *Executor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Start validates the request and launches the search in the background.
// It returns a buffered event channel that is closed after the terminal
// event. Only one search may run at a time.
func (e *Executor) Start(ctx context.Context, req Request) (<-chan Event, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.state == StateRunning {
		e.mu.Unlock()
		return nil, fmt.Errorf("a search is already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.state = StateRunning
	e.cancel = cancel
	e.mu.Unlock()

	// Buffered so a slow consumer cannot stall the search itself.
	events := make(chan Event, 16)
	go e.run(runCtx, req, events)
	return events, nil
}

func (e *Executor) setState(s State) {
	e.mu.Lock()
	e.state = s
	if s == StateIdle {
		e.cancel = nil
	}
	e.mu.Unlock()
}

func (e *Executor) stages(req Request) []Stage {
	var stages []Stage
	if req.Titles {
		stages = append(stages, &TitleStage{Index: e.index})
	}
	if req.Descriptions {
		stages = append(stages, &DescriptionStage{Index: e.index})
	}
	if req.PDF {
		stages = append(stages, &PdfStage{Index: e.index})
	}
	return stages
}

func (e *Executor) run(ctx context.Context, req Request, events chan<- Event) {
	defer close(events)

	stages := e.stages(req)
	totalSteps := len(stages)

	var collected []Match
	var problems []error

	finish := func(terminal Event, state State) {
		e.setState(state)
		events <- terminal
		e.setState(StateIdle)
	}

	for step, stage := range stages {
		if err := ctx.Err(); err != nil {
			e.logger.Infof("search cancelled before %s stage with %d matches", stage.Kind(), len(collected))
			finish(Event{
				Kind:     EventCancelled,
				Matches:  Aggregate(collected, req, e.index),
				Problems: problemStrings(problems),
			}, StateCancelled)
			return
		}

		matches, skipped, err := stage.Run(ctx, req.Query)
		collected = append(collected, matches...)
		problems = append(problems, skipped...)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				e.logger.Infof("search cancelled during %s stage with %d matches", stage.Kind(), len(collected))
				finish(Event{
					Kind:     EventCancelled,
					Matches:  Aggregate(collected, req, e.index),
					Problems: problemStrings(problems),
				}, StateCancelled)
				return
			}
			e.logger.Errorf("%s stage failed: %v", stage.Kind(), err)
			finish(Event{
				Kind:     EventFailed,
				Matches:  Aggregate(collected, req, e.index),
				Problems: problemStrings(problems),
				Err:      fmt.Sprintf("%s stage failed: %v", stage.Kind(), err),
			}, StateFailed)
			return
		}

		percent := int(math.Round(float64(step+1) / float64(totalSteps) * 100))
		events <- Event{
			Kind:    EventProgress,
			Percent: percent,
			Status:  stageStatus(stage.Kind()),
		}
	}

	results := Aggregate(collected, req, e.index)
	e.logger.Infof("search for %q finished: %d matches (%d after aggregation), %d assets skipped",
		req.Query, len(collected), len(results), len(problems))
	finish(Event{
		Kind:     EventCompleted,
		Percent:  100,
		Matches:  results,
		Problems: problemStrings(problems),
	}, StateCompleted)
}

func stageStatus(kind StageKind) string {
	switch kind {
	case StageTitle:
		return "Title search finished"
	case StageDescription:
		return "Description search finished"
	case StagePDF:
		return "PDF search finished"
	}
	return string(kind) + " finished"
}

func problemStrings(problems []error) []string {
	if len(problems) == 0 {
		return nil
	}
	out := make([]string, len(problems))
	for i, err := range problems {
		out[i] = err.Error()
	}
	return out
}

// Run executes a search synchronously, draining events and returning the
// terminal one. Convenience for callers that do not care about progress.
func (e *Executor) Run(ctx context.Context, req Request) (Event, error) {
	events, err := e.Start(ctx, req)
	if err != nil {
		return Event{}, err
	}
	var terminal Event
	for ev := range events {
		if ev.Kind != EventProgress {
			terminal = ev
		}
	}
	if terminal.Kind == "" {
		return terminal, fmt.Errorf("search ended without a terminal event")
	}
	if terminal.Kind == EventFailed {
		return terminal, fmt.Errorf("search failed: %s", strings.TrimSpace(terminal.Err))
	}
	return terminal, nil
}
