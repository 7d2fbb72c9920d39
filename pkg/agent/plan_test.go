package agent

import (
	"context"
	"testing"
	"time"

	"github.com/kadirpekel/docpixie/pkg/agent/agenttest"
	"github.com/kadirpekel/docpixie/pkg/docset"
)

func containsTaskNamed(tasks []*AgentTask, name string) bool {
	for _, t := range tasks {
		if t.Name == name {
			return true
		}
	}
	return false
}

func catalogOf(ids ...string) []docset.Catalog {
	out := make([]docset.Catalog, len(ids))
	for i, id := range ids {
		out[i] = docset.Catalog{ID: id, Name: id, Summary: "doc " + id}
	}
	return out
}

func TestPlanner_CreateInitialPlan(t *testing.T) {
	t.Run("valid plan is accepted as-is", func(t *testing.T) {
		stub := agenttest.NewStub(agenttest.Step{
			Text: `[{"name":"t1","description":"d","document_id":"d1"},{"name":"t2","description":"d","document_id":"d2"}]`,
		})
		pl := NewPlanner(stub, 5, 0.2, 1, time.Millisecond)

		plan, err := pl.CreateInitialPlan(context.Background(), "q", catalogOf("d1", "d2"))
		if err != nil {
			t.Fatalf("CreateInitialPlan: %v", err)
		}
		if len(plan.Tasks) != 2 {
			t.Fatalf("len(Tasks) = %d, want 2", len(plan.Tasks))
		}
	})

	t.Run("plan over the task cap is truncated", func(t *testing.T) {
		stub := agenttest.NewStub(agenttest.Step{
			Text: `[{"name":"t1","description":"d","document_id":"d1"},
			        {"name":"t2","description":"d","document_id":"d1"},
			        {"name":"t3","description":"d","document_id":"d1"}]`,
		})
		pl := NewPlanner(stub, 2, 0.2, 1, time.Millisecond)

		plan, err := pl.CreateInitialPlan(context.Background(), "q", catalogOf("d1"))
		if err != nil {
			t.Fatalf("CreateInitialPlan: %v", err)
		}
		if len(plan.Tasks) != 2 {
			t.Fatalf("len(Tasks) = %d, want 2 (capped)", len(plan.Tasks))
		}
	})

	t.Run("multi-document task is rejected and re-requested once", func(t *testing.T) {
		stub := agenttest.NewStub(
			agenttest.Step{Text: `[{"name":"t1","description":"d","document_id":["d1","d2"]}]`},
			agenttest.Step{Text: `[{"name":"t1","description":"d","document_id":"d1"}]`},
		)
		pl := NewPlanner(stub, 5, 0.2, 1, time.Millisecond)

		plan, err := pl.CreateInitialPlan(context.Background(), "q", catalogOf("d1", "d2"))
		if err != nil {
			t.Fatalf("CreateInitialPlan: %v", err)
		}
		if stub.CallCount() != 2 {
			t.Fatalf("CallCount = %d, want 2 (one re-request)", stub.CallCount())
		}
		if len(plan.Tasks) != 1 || plan.Tasks[0].AssignedDocumentID != "d1" {
			t.Errorf("plan.Tasks = %+v", plan.Tasks)
		}
	})

	t.Run("unknown document id is dropped, falling back when nothing remains", func(t *testing.T) {
		stub := agenttest.NewStub(
			agenttest.Step{Text: `[{"name":"t1","description":"d","document_id":"ghost"}]`},
			agenttest.Step{Text: `[{"name":"t1","description":"d","document_id":"ghost"}]`},
		)
		pl := NewPlanner(stub, 5, 0.2, 1, time.Millisecond)

		plan, err := pl.CreateInitialPlan(context.Background(), "find revenue", catalogOf("d1"))
		if err != nil {
			t.Fatalf("CreateInitialPlan: %v", err)
		}
		if len(plan.Tasks) != 1 || plan.Tasks[0].AssignedDocumentID != "d1" {
			t.Fatalf("expected fallback plan against d1, got %+v", plan.Tasks)
		}
	})
}

func TestPlanner_UpdatePlan(t *testing.T) {
	newPlan := func() *TaskPlan {
		return &TaskPlan{Tasks: []*AgentTask{
			{Name: "t1", Status: TaskCompleted},
			{Name: "t2", Status: TaskPending, Description: "orig"},
			{Name: "t3", Status: TaskPending, Description: "orig"},
		}}
	}

	t.Run("sufficient clears every pending task", func(t *testing.T) {
		stub := agenttest.NewStub(agenttest.Step{Text: `[{"action":"sufficient"}]`})
		pl := NewPlanner(stub, 5, 0.2, 1, time.Millisecond)
		plan := newPlan()

		_, err := pl.UpdatePlan(context.Background(), plan, plan.Tasks[0])
		if err != nil {
			t.Fatalf("UpdatePlan: %v", err)
		}
		if plan.hasPending() {
			t.Errorf("expected no pending tasks, got %+v", plan.Tasks)
		}
		if len(plan.Tasks) != 1 {
			t.Errorf("expected only the completed task to remain, got %+v", plan.Tasks)
		}
	})

	t.Run("removal wins over a conflicting add for the same name", func(t *testing.T) {
		stub := agenttest.NewStub(agenttest.Step{
			Text: `[{"action":"remove","task_name":"t2"},{"action":"add","task_name":"t2","description":"new","document_id":"d1"}]`,
		})
		pl := NewPlanner(stub, 5, 0.2, 1, time.Millisecond)
		plan := newPlan()

		_, err := pl.UpdatePlan(context.Background(), plan, plan.Tasks[0])
		if err != nil {
			t.Fatalf("UpdatePlan: %v", err)
		}
		for _, task := range plan.Tasks {
			if task.Name == "t2" {
				t.Errorf("t2 should have been removed entirely, found %+v", task)
			}
		}
		if !containsTaskNamed(plan.Tasks, "t3") {
			t.Errorf("t3 should be untouched, got %+v", plan.Tasks)
		}
	})

	t.Run("at most one add is honored", func(t *testing.T) {
		stub := agenttest.NewStub(agenttest.Step{
			Text: `[{"action":"add","task_name":"a1","description":"d","document_id":"d1"},
			        {"action":"add","task_name":"a2","description":"d","document_id":"d1"}]`,
		})
		pl := NewPlanner(stub, 5, 0.2, 1, time.Millisecond)
		plan := newPlan()

		before := len(plan.Tasks)
		_, err := pl.UpdatePlan(context.Background(), plan, plan.Tasks[0])
		if err != nil {
			t.Fatalf("UpdatePlan: %v", err)
		}
		if len(plan.Tasks) != before+1 {
			t.Errorf("len(Tasks) = %d, want %d (only one add honored)", len(plan.Tasks), before+1)
		}
	})

	t.Run("no pending tasks short-circuits without a Provider call", func(t *testing.T) {
		stub := agenttest.NewStub()
		pl := NewPlanner(stub, 5, 0.2, 1, time.Millisecond)
		plan := &TaskPlan{Tasks: []*AgentTask{{Name: "t1", Status: TaskCompleted}}}

		_, err := pl.UpdatePlan(context.Background(), plan, plan.Tasks[0])
		if err != nil {
			t.Fatalf("UpdatePlan: %v", err)
		}
		if stub.CallCount() != 0 {
			t.Errorf("CallCount = %d, want 0", stub.CallCount())
		}
	})

	t.Run("a parse failure leaves the plan unchanged", func(t *testing.T) {
		stub := agenttest.NewStub(agenttest.Step{Text: "not json at all"})
		pl := NewPlanner(stub, 5, 0.2, 1, time.Millisecond)
		plan := newPlan()

		_, err := pl.UpdatePlan(context.Background(), plan, plan.Tasks[0])
		if err != nil {
			t.Fatalf("UpdatePlan: %v", err)
		}
		if len(plan.Tasks) != 3 {
			t.Errorf("len(Tasks) = %d, want 3 (unchanged)", len(plan.Tasks))
		}
	})
}
