package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/amityadav/refiner/internal/store"
)

// Stage is a step of the per-article state machine.
type Stage string

const (
	StagePending      Stage = "pending"
	StageSearching    Stage = "searching"
	StageExtracting   Stage = "extracting"
	StageSynthesizing Stage = "synthesizing"
	StagePersisting   Stage = "persisting"
	StageDone         Stage = "done"
)

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// ArticleResult records how one article left the pipeline.
type ArticleResult struct {
	ArticleID  string
	Title      string
	Outcome    Outcome
	Stage      Stage // last stage entered
	Reason     string
	Err        error
	References []store.Reference
}

func (r ArticleResult) finish(o Outcome, reason string, err error) ArticleResult {
	r.Outcome = o
	r.Reason = reason
	r.Err = err
	if err != nil {
		r.Reason = reason + ": " + err.Error()
	}
	if o == OutcomeSucceeded {
		r.Stage = StageDone
	}
	return r
}

// Report aggregates the outcome of one run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  int
	Skipped    int
	Failed     int
	Results    []ArticleResult
}

func newReport(now time.Time) *Report {
	return &Report{RunID: newRunID(), StartedAt: now}
}

func (r *Report) add(res ArticleResult) {
	switch res.Outcome {
	case OutcomeSucceeded:
		r.Succeeded++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
	r.Results = append(r.Results, res)
}

// Total is the number of articles attempted.
func (r *Report) Total() int {
	return r.Succeeded + r.Skipped + r.Failed
}

func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Enrichment run %s", r.RunID)
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&sb, " (%v)", r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  Succeeded: %d\n", r.Succeeded)
	fmt.Fprintf(&sb, "  Skipped:   %d\n", r.Skipped)
	fmt.Fprintf(&sb, "  Failed:    %d\n", r.Failed)
	fmt.Fprintf(&sb, "  Total:     %d\n", r.Total())
	for _, res := range r.Results {
		if res.Outcome == OutcomeSucceeded {
			continue
		}
		fmt.Fprintf(&sb, "  - [%s] %s: %s\n", res.Outcome, res.Title, res.Reason)
	}
	return sb.String()
}
