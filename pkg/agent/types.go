// Package agent implements the adaptive agent pipeline: context compaction,
// query reformulation, classification, task planning, vision page selection,
// task execution, and response synthesis over a docset.Storage and a
// provider.Provider.
package agent

import (
	"time"

	"github.com/kadirpekel/docpixie/pkg/docset"
)

// Role identifies the speaker of a ConversationMessage.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationMessage is one turn of prior conversation, supplied by the
// caller. The core never mutates these; a query's history is read-only.
type ConversationMessage struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// TaskStatus is the lifecycle state of an AgentTask. Transitions are
// monotonic: Pending -> InProgress -> {Completed, Failed}.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// AgentTask is a focused sub-question bound to exactly one document.
type AgentTask struct {
	Name               string
	Description        string
	AssignedDocumentID string
	Status             TaskStatus

	// Result is set once the task reaches Completed. FailureReason is set
	// once it reaches Failed.
	Result        *TaskResult
	FailureReason string
}

// advance moves the task to the given status, refusing to move backwards
// or between the two terminal states. Planner and executor code should
// call this rather than assigning Status directly, so a stray write can't
// break the monotonic transition order.
func (t *AgentTask) advance(next TaskStatus) {
	rank := map[TaskStatus]int{
		TaskPending: 0, TaskInProgress: 1, TaskCompleted: 2, TaskFailed: 2,
	}
	if rank[next] <= rank[t.Status] && next != t.Status {
		return
	}
	t.Status = next
}

// TaskPlan is the ordered, mutable-between-executions collection of tasks
// for one query.
type TaskPlan struct {
	Tasks      []*AgentTask
	Iterations int
}

// nextPending returns the first task still in TaskPending, or nil if none
// remain.
func (p *TaskPlan) nextPending() *AgentTask {
	for _, t := range p.Tasks {
		if t.Status == TaskPending {
			return t
		}
	}
	return nil
}

// hasPending reports whether any task is still awaiting execution.
func (p *TaskPlan) hasPending() bool {
	return p.nextPending() != nil
}

// completedResults collects the TaskResult of every completed task, in
// plan order.
func (p *TaskPlan) completedResults() []*TaskResult {
	var out []*TaskResult
	for _, t := range p.Tasks {
		if t.Status == TaskCompleted && t.Result != nil {
			out = append(out, t.Result)
		}
	}
	return out
}

// failedTasks collects every task that reached TaskFailed, in plan order.
func (p *TaskPlan) failedTasks() []*AgentTask {
	var out []*AgentTask
	for _, t := range p.Tasks {
		if t.Status == TaskFailed {
			out = append(out, t)
		}
	}
	return out
}

// TaskResult is the outcome of one executed AgentTask.
type TaskResult struct {
	Task          *AgentTask
	SelectedPages []docset.Page
	Analysis      string
}

// QueryResult is returned to the caller of Agent.ProcessQuery.
type QueryResult struct {
	Query         string
	Answer        string
	SelectedPages []docset.Page
	TaskResults   []*TaskResult
	Iterations    int
	Elapsed       time.Duration

	// Canceled is set when the pipeline was interrupted by the caller's
	// cancellation signal before synthesis completed.
	Canceled bool
}
