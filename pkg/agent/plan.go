package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kadirpekel/docpixie/pkg/docset"
	"github.com/kadirpekel/docpixie/pkg/prompts"
	"github.com/kadirpekel/docpixie/pkg/provider"
)

// Planner creates and adaptively revises a TaskPlan. It holds no
// per-query state: CreateInitialPlan builds a new plan (re-requesting once
// when the first response cannot be parsed or holds a multi-document
// task), and UpdatePlan revises the plan it is given in place.
type Planner struct {
	Provider        provider.Provider
	MaxTasksPerPlan int
	Temperature     float64
	RetryAttempts   int
	RetryBaseDelay  time.Duration
}

func NewPlanner(p provider.Provider, maxTasksPerPlan int, temperature float64, retryAttempts int, retryBaseDelay time.Duration) *Planner {
	return &Planner{
		Provider:        p,
		MaxTasksPerPlan: maxTasksPerPlan,
		Temperature:     temperature,
		RetryAttempts:   retryAttempts,
		RetryBaseDelay:  retryBaseDelay,
	}
}

// planTaskResponse mirrors one element of the Planning prompt's JSON array.
// DocumentID is kept raw so a multi-document task (the model returning an
// array instead of a single id) can be detected rather than silently
// truncated to its first element.
type planTaskResponse struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	DocumentID  json.RawMessage `json:"document_id"`
}

func (t planTaskResponse) singleDocumentID() (string, bool) {
	var id string
	if err := json.Unmarshal(t.DocumentID, &id); err != nil {
		return "", false
	}
	return id, true
}

// CreateInitialPlan emits an initial TaskPlan from the Planning prompt over
// the given document catalog.
func (pl *Planner) CreateInitialPlan(ctx context.Context, query string, catalog []docset.Catalog) (*TaskPlan, error) {
	known := make(map[string]bool, len(catalog))
	lines := make([]string, 0, len(catalog))
	for _, c := range catalog {
		known[c.ID] = true
		lines = append(lines, prompts.PlanningCatalogEntry(c.ID, c.Name, c.Summary))
	}

	tasks, ok := pl.requestPlan(ctx, query, lines, known)
	if !ok || hasInvalidDocumentID(tasks) {
		// A plan containing a multi-document task is re-requested once.
		tasks, ok = pl.requestPlan(ctx, query, lines, known)
	}

	valid := make([]*AgentTask, 0, len(tasks))
	for _, t := range tasks {
		id, singleDoc := t.singleDocumentID()
		if !singleDoc || !known[id] {
			continue
		}
		valid = append(valid, &AgentTask{
			Name:               t.Name,
			Description:        t.Description,
			AssignedDocumentID: id,
			Status:             TaskPending,
		})
	}

	if len(valid) == 0 {
		valid = fallbackPlan(query, catalog)
	}
	if len(valid) > pl.MaxTasksPerPlan {
		valid = valid[:pl.MaxTasksPerPlan]
	}

	return &TaskPlan{Tasks: valid}, nil
}

// requestPlan issues one Planning call and parses its JSON array, reporting
// ok=false on any Provider or parse failure.
func (pl *Planner) requestPlan(ctx context.Context, query string, catalogLines []string, known map[string]bool) ([]planTaskResponse, bool) {
	req := provider.Request{
		Messages: []provider.Message{
			provider.TextMessage(provider.RoleUser, prompts.BuildPlanningPrompt(query, catalogLines, pl.MaxTasksPerPlan)),
		},
		MaxTokens:   1024,
		Temperature: pl.Temperature,
	}
	text, err := withRetry(ctx, pl.RetryAttempts, pl.RetryBaseDelay, func() (string, error) {
		return pl.Provider.ProcessText(ctx, req)
	})
	if err != nil {
		return nil, false
	}

	var tasks []planTaskResponse
	if err := extractJSON("planner", text, &tasks); err != nil {
		return nil, false
	}
	return tasks, true
}

// hasInvalidDocumentID reports whether any task in the raw response carries
// a document_id that isn't a single string (i.e. a rejected multi-document
// task).
func hasInvalidDocumentID(tasks []planTaskResponse) bool {
	for _, t := range tasks {
		if _, ok := t.singleDocumentID(); !ok {
			return true
		}
	}
	return false
}

// fallbackPlan builds a single task covering the whole query against the
// first cataloged document, used when planning produces nothing usable.
func fallbackPlan(query string, catalog []docset.Catalog) []*AgentTask {
	if len(catalog) == 0 {
		return nil
	}
	return []*AgentTask{{
		Name:               "answer-query",
		Description:        query,
		AssignedDocumentID: catalog[0].ID,
		Status:             TaskPending,
	}}
}

// planEdit mirrors one element of the PlanUpdate prompt's JSON array.
type planEdit struct {
	Action      string `json:"action"`
	TaskName    string `json:"task_name"`
	Description string `json:"description"`
	DocumentID  string `json:"document_id"`
}

// UpdatePlan revises plan in place given the task that just completed,
// returning the same plan. A parse failure is a no-op: the plan is
// returned unchanged.
func (pl *Planner) UpdatePlan(ctx context.Context, plan *TaskPlan, justCompleted *AgentTask) (*TaskPlan, error) {
	pending := plan.nextPendingAll()
	if len(pending) == 0 {
		return plan, nil
	}

	pendingLines := make([]string, 0, len(pending))
	for _, t := range pending {
		pendingLines = append(pendingLines, fmt.Sprintf("- %s: %s (document=%s)", t.Name, t.Description, t.AssignedDocumentID))
	}

	analysis := ""
	if justCompleted.Result != nil {
		analysis = justCompleted.Result.Analysis
	} else {
		analysis = "(task failed: " + justCompleted.FailureReason + ")"
	}

	req := provider.Request{
		Messages: []provider.Message{
			provider.TextMessage(provider.RoleUser, prompts.BuildPlanUpdatePrompt(justCompleted.Name, analysis, pendingLines)),
		},
		MaxTokens:   1024,
		Temperature: pl.Temperature,
	}
	text, err := withRetry(ctx, pl.RetryAttempts, pl.RetryBaseDelay, func() (string, error) {
		return pl.Provider.ProcessText(ctx, req)
	})
	if err != nil {
		return plan, nil
	}

	var edits []planEdit
	if err := extractJSON("planner", text, &edits); err != nil {
		return plan, nil
	}

	pl.applyEdits(plan, edits)
	return plan, nil
}

// nextPendingAll returns every task still in TaskPending, in plan order.
func (p *TaskPlan) nextPendingAll() []*AgentTask {
	var out []*AgentTask
	for _, t := range p.Tasks {
		if t.Status == TaskPending {
			out = append(out, t)
		}
	}
	return out
}

// applyEdits mutates plan according to the model's suggested edits:
// completed/in-progress tasks are immutable,
// "sufficient" clears all pending tasks, at most one add is honored, and
// removals win over conflicting additions for the same task name.
func (pl *Planner) applyEdits(plan *TaskPlan, edits []planEdit) {
	byName := make(map[string]*AgentTask, len(plan.Tasks))
	for _, t := range plan.Tasks {
		byName[t.Name] = t
	}

	removed := make(map[string]bool)
	addsSeen := 0

	for _, e := range edits {
		switch strings.ToLower(e.Action) {
		case "sufficient":
			for _, t := range plan.Tasks {
				if t.Status == TaskPending {
					removed[t.Name] = true
				}
			}
		case "remove":
			if t, ok := byName[e.TaskName]; ok && t.Status == TaskPending {
				removed[t.Name] = true
			}
		case "modify":
			if t, ok := byName[e.TaskName]; ok && t.Status == TaskPending && !removed[t.Name] && e.Description != "" {
				t.Description = e.Description
			}
		case "add":
			if addsSeen > 0 {
				continue // at most one add honored per revision
			}
			if len(plan.Tasks)-len(removed) >= pl.MaxTasksPerPlan {
				continue // global cap
			}
			if e.Description == "" || e.DocumentID == "" {
				continue
			}
			name := e.TaskName
			if name == "" {
				name = fmt.Sprintf("task-%d", len(plan.Tasks)+1)
			}
			plan.Tasks = append(plan.Tasks, &AgentTask{
				Name:               name,
				Description:        e.Description,
				AssignedDocumentID: e.DocumentID,
				Status:             TaskPending,
			})
			addsSeen++
		case "keep":
			// no-op
		}
	}

	if len(removed) == 0 {
		return
	}
	kept := plan.Tasks[:0]
	for _, t := range plan.Tasks {
		if removed[t.Name] {
			continue
		}
		kept = append(kept, t)
	}
	plan.Tasks = kept
}
