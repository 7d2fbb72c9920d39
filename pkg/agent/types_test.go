package agent

import "testing"

func TestAgentTask_Advance(t *testing.T) {
	tests := []struct {
		name string
		from TaskStatus
		to   TaskStatus
		want TaskStatus
	}{
		{"pending to in_progress", TaskPending, TaskInProgress, TaskInProgress},
		{"in_progress to completed", TaskInProgress, TaskCompleted, TaskCompleted},
		{"in_progress to failed", TaskInProgress, TaskFailed, TaskFailed},
		{"pending straight to completed", TaskPending, TaskCompleted, TaskCompleted},
		{"completed back to pending refused", TaskCompleted, TaskPending, TaskCompleted},
		{"failed back to in_progress refused", TaskFailed, TaskInProgress, TaskFailed},
		{"completed to failed refused", TaskCompleted, TaskFailed, TaskCompleted},
		{"failed to completed refused", TaskFailed, TaskCompleted, TaskFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &AgentTask{Status: tt.from}
			task.advance(tt.to)
			if task.Status != tt.want {
				t.Errorf("advance(%s) from %s = %s, want %s", tt.to, tt.from, task.Status, tt.want)
			}
		})
	}
}

func TestTaskPlan_Accessors(t *testing.T) {
	plan := &TaskPlan{Tasks: []*AgentTask{
		{Name: "a", Status: TaskCompleted, Result: &TaskResult{Analysis: "x"}},
		{Name: "b", Status: TaskFailed, FailureReason: "boom"},
		{Name: "c", Status: TaskPending},
		{Name: "d", Status: TaskPending},
	}}

	if got := plan.nextPending(); got == nil || got.Name != "c" {
		t.Errorf("nextPending() = %+v, want task c", got)
	}
	if !plan.hasPending() {
		t.Error("hasPending() = false")
	}
	if got := plan.completedResults(); len(got) != 1 || got[0].Analysis != "x" {
		t.Errorf("completedResults() = %+v", got)
	}
	if got := plan.failedTasks(); len(got) != 1 || got[0].Name != "b" {
		t.Errorf("failedTasks() = %+v", got)
	}
	if got := plan.nextPendingAll(); len(got) != 2 {
		t.Errorf("nextPendingAll() = %+v", got)
	}
}
