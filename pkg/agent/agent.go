package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kadirpekel/docpixie/config"
	"github.com/kadirpekel/docpixie/pkg/docset"
	"github.com/kadirpekel/docpixie/pkg/provider"
)

// Agent is the top-level orchestrator: Context -> Reformulate -> Classify
// -> (direct answer | Plan -> loop{ Select -> Execute -> Replan } ->
// Synthesize).
type Agent struct {
	Storage docset.Storage

	context      *ContextProcessor
	reformulator *Reformulator
	classifier   *Classifier
	planner      *Planner
	selector     *PageSelector
	executor     *Executor
	synthesizer  *Synthesizer

	maxAgentIterations int
}

// New builds an Agent wiring every pipeline component to p with the bounds
// and temperatures from cfg. tokenModel, when non-empty, enables
// best-effort token-count logging on the components that build large
// prompts.
func New(p provider.Provider, storage docset.Storage, cfg *config.Config, tokenModel string) *Agent {
	retryDelay := time.Second
	t := cfg.Temperatures

	a := &Agent{
		Storage: storage,
		context: NewContextProcessor(p, cfg.MaxConversationTurns, cfg.TurnsToSummarize, cfg.TurnsToKeepFull,
			t.Summary, cfg.RetryAttempts, retryDelay, tokenModel),
		reformulator:       NewReformulator(p, t.Reformulation, cfg.RetryAttempts, retryDelay),
		classifier:         NewClassifier(p, t.Classification, cfg.RetryAttempts, retryDelay),
		planner:            NewPlanner(p, cfg.MaxTasksPerPlan, t.Reformulation, cfg.RetryAttempts, retryDelay),
		selector:           NewPageSelector(p, cfg.MaxPagesPerTask, t.Selection, cfg.RetryAttempts, retryDelay, cfg.IncludePageSummariesInSelection),
		executor:           NewExecutor(p, t.Analysis, cfg.RetryAttempts, retryDelay),
		synthesizer:        NewSynthesizer(p, t.Synthesis, cfg.RetryAttempts, retryDelay),
		maxAgentIterations: cfg.MaxAgentIterations,
	}
	a.selector.Tokens = a.context.tokens
	a.executor.Tokens = a.context.tokens
	return a
}

// ProcessQuery runs the full pipeline for one query against history. ctx's
// cancellation is checked before classification and before each task: a
// query canceled at one of those points issues no further Provider calls
// and returns whatever tasks had already completed, with Canceled set. A
// cancellation that interrupts the context, reformulation or
// classification call instead aborts the query as a fatal error (below).
//
// A fatal pipeline-wide error (AuthError, or any error from a stage with no
// documented fallback) does not surface as a Go error: it aborts the query
// and is reported as a QueryResult whose Answer is a machine-readable
// failure string and whose TaskResults reflect state at abort.
func (a *Agent) ProcessQuery(ctx context.Context, query string, history []ConversationMessage) (*QueryResult, error) {
	t0 := time.Now()
	traceID := uuid.NewString()
	log := slog.With("trace_id", traceID, "component", "agent")
	log.Info("processing query", "query", query)

	summary, tail, err := a.context.Process(ctx, history)
	if err != nil {
		return a.fatalResult(query, "context", err, t0), nil
	}

	reformulated := query
	if summary != "" {
		reformulated, err = a.reformulator.Reformulate(ctx, query, summary, tail)
		if err != nil {
			return a.fatalResult(query, "reformulation", err, t0), nil
		}
	}

	if ctx.Err() != nil {
		return &QueryResult{Query: query, Canceled: true, Elapsed: time.Since(t0)}, nil
	}

	cls, err := a.classifier.Classify(ctx, reformulated)
	if err != nil {
		return a.fatalResult(query, "classification", err, t0), nil
	}
	if !cls.NeedsDocuments {
		log.Info("classified as direct answer", "reasoning", cls.Reasoning)
		return &QueryResult{
			Query:   query,
			Answer:  cls.DirectAnswer,
			Elapsed: time.Since(t0),
		}, nil
	}

	catalog, err := a.Storage.ListDocuments(ctx)
	if err != nil {
		return a.fatalResult(query, "storage", err, t0), nil
	}

	plan, err := a.planner.CreateInitialPlan(ctx, reformulated, catalog)
	if err != nil {
		return a.fatalResult(query, "planning", err, t0), nil
	}

	for plan.hasPending() && plan.Iterations < a.maxAgentIterations {
		if ctx.Err() != nil {
			return a.canceledResult(query, plan, t0), nil
		}

		task := plan.nextPending()
		task.advance(TaskInProgress)

		if err := a.runTask(ctx, reformulated, task); err != nil && isFatalToQuery(err) {
			return a.fatalResult(query, "task:"+task.Name, err, t0), nil
		}

		plan.Iterations++
		if _, err := a.planner.UpdatePlan(ctx, plan, task); err != nil {
			return a.fatalResult(query, "replanning", err, t0), nil
		}
	}

	return a.finalResult(ctx, query, reformulated, plan, t0), nil
}

// runTask resolves task's document, selects pages, and executes the task,
// recording the outcome on task itself. Task-level failures (document not
// found, non-fatal selection or execution errors) mark task failed and
// return nil. The returned error is non-nil only for an error fatal to the
// query (task is then marked failed too) or a storage error other than
// not-found (task is left as is).
func (a *Agent) runTask(ctx context.Context, reformulated string, task *AgentTask) error {
	doc, err := a.Storage.GetDocument(ctx, task.AssignedDocumentID)
	if err != nil {
		var nf *docset.NotFoundError
		if errors.As(err, &nf) {
			task.FailureReason = (&StorageNotFoundError{DocumentID: task.AssignedDocumentID, Err: err}).Error()
			task.advance(TaskFailed)
			return nil
		}
		return err
	}

	pages, err := a.selector.Select(ctx, task.Description, doc.Pages)
	if err != nil {
		task.FailureReason = err.Error()
		task.advance(TaskFailed)
		if isFatalToQuery(err) {
			return err
		}
		return nil
	}

	result, err := a.executor.Execute(ctx, reformulated, task, pages)
	if err != nil {
		task.FailureReason = err.Error()
		task.advance(TaskFailed)
		if isFatalToQuery(err) {
			return err
		}
		return nil
	}

	task.Result = result
	task.advance(TaskCompleted)
	return nil
}

// finalResult synthesizes the answer from a plan that terminated normally:
// no pending tasks remain, or the iteration cap was reached. Both count as
// successful terminations, so synthesis proceeds with what is available.
func (a *Agent) finalResult(ctx context.Context, originalQuery, reformulatedQuery string, plan *TaskPlan, t0 time.Time) *QueryResult {
	completed := plan.completedResults()
	failed := plan.failedTasks()

	answer, err := a.synthesizer.Synthesize(ctx, originalQuery, reformulatedQuery, completed, failed)
	if err != nil {
		answer = fmt.Sprintf("error: synthesis failed (%s): %v", FailureKind(err), err)
	}

	return &QueryResult{
		Query:         originalQuery,
		Answer:        answer,
		SelectedPages: unionSelectedPages(completed),
		TaskResults:   completed,
		Iterations:    plan.Iterations,
		Elapsed:       time.Since(t0),
	}
}

// canceledResult returns whatever tasks had already completed without
// invoking the Synthesizer; no further Provider calls are issued.
func (a *Agent) canceledResult(query string, plan *TaskPlan, t0 time.Time) *QueryResult {
	completed := plan.completedResults()
	return &QueryResult{
		Query:         query,
		SelectedPages: unionSelectedPages(completed),
		TaskResults:   completed,
		Iterations:    plan.Iterations,
		Elapsed:       time.Since(t0),
		Canceled:      true,
	}
}

// fatalResult builds the machine-readable failure QueryResult for a
// pipeline-wide fatal error encountered during stage.
func (a *Agent) fatalResult(query, stage string, err error, t0 time.Time) *QueryResult {
	return &QueryResult{
		Query:   query,
		Answer:  fmt.Sprintf("error: %s failed (%s): %v", stage, FailureKind(err), err),
		Elapsed: time.Since(t0),
	}
}

// unionSelectedPages merges every completed task's selected pages,
// preserving first-occurrence order across tasks.
func unionSelectedPages(results []*TaskResult) []docset.Page {
	var out []docset.Page
	seen := make(map[string]bool)
	for _, r := range results {
		for _, pg := range r.SelectedPages {
			key := fmt.Sprintf("%s#%d", r.Task.AssignedDocumentID, pg.Number)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, pg)
		}
	}
	return out
}
