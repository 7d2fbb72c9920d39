// Package prompts holds the fixed prompt text used by every pipeline
// component. Keeping them in one package makes the JSON contract
// each one asks for easy to audit against the parser that consumes it.
package prompts

import (
	"fmt"
	"strings"
)

// ContextSummary is the system prompt used by the Context Processor
// to compress an older slice of conversation turns into a compact factual
// summary.
const ContextSummary = `You are compacting an earlier portion of a conversation between a user and a document-analysis assistant. Produce a short, factual summary that preserves:
- Topics and documents already discussed.
- Decisions, numbers, and conclusions already given to the user.
- Any open questions the user raised that were not yet answered.

Do not invent information that was not in the conversation. Write plain prose, no more than a short paragraph.`

// Reformulation is the system prompt used by the Query Reformulator.
const Reformulation = `You resolve pronouns and implicit references in a user's latest message using the conversation context provided, so the message can be understood on its own.

Respond with a single JSON object of the shape:
{"reformulated": "<the self-contained query>", "changed": <true|false>}

Set "changed" to false and repeat the original query verbatim in "reformulated" if it is already self-contained, or if you cannot confidently resolve a reference. Never answer the query itself.`

// Classification is the system prompt used by the Query Classifier.
const Classification = `You decide whether answering a user's query requires analyzing their uploaded documents, or whether it can be answered directly (greetings, meta-questions about the assistant, general knowledge unrelated to any document).

Respond with a single JSON object of the shape:
{"needs_documents": <true|false>, "reasoning": "<short reasoning>", "direct_answer": "<answer text, only when needs_documents is false>"}

Default to needs_documents=true whenever the query could plausibly be about the user's documents.`

// Planning is the system prompt used by the Task Planner's
// create_initial_plan operation.
const Planning = `You plan how to answer a user's query by breaking it into a small number of focused tasks, each assigned to exactly one of the available documents.

Respond with a single JSON array of 2 to %d task objects, each of the shape:
{"name": "<short task name>", "description": "<what to look for and why>", "document_id": "<one id from the catalog below>"}

Rules:
- Every document_id must be one of the ids listed below; never invent one.
- Each task is scoped to exactly one document.
- Order tasks so the most important question is answered first.
- If the query can be answered from a single document, return a single task.`

// PlanningCatalogEntry renders one document's catalog line for the
// Planning prompt.
func PlanningCatalogEntry(id, name, summary string) string {
	if summary == "" {
		summary = "(no summary available)"
	}
	return fmt.Sprintf("- id=%s name=%q summary=%q", id, name, summary)
}

// BuildPlanningPrompt assembles the full Planning user message: the query,
// the document catalog, and the task-count cap.
func BuildPlanningPrompt(query string, catalogLines []string, maxTasks int) string {
	var b strings.Builder
	fmt.Fprintf(&b, Planning+"\n\n", maxTasks)
	b.WriteString("Available documents:\n")
	b.WriteString(strings.Join(catalogLines, "\n"))
	b.WriteString("\n\nUser query:\n")
	b.WriteString(query)
	return b.String()
}

// PlanUpdate is the system prompt used by the Task Planner's update_plan
// operation.
const PlanUpdate = `You revise a task plan after one task has just completed, given its result and the remaining pending tasks.

Respond with a single JSON array of edit objects, each of the shape:
{"action": "keep"|"modify"|"remove"|"add"|"sufficient", "task_name": "<name, for modify/remove>", "description": "<new description, for modify/add>", "document_id": "<id, for add>"}

Rules:
- "sufficient" means no further tasks are needed; any remaining pending tasks will be dropped.
- At most one "add" edit may be returned, and only when truly necessary.
- Never reference a task that has already completed.
- An empty array means the plan is unchanged.`

// BuildPlanUpdatePrompt assembles the full PlanUpdate user message.
func BuildPlanUpdatePrompt(justCompletedName, analysis string, pendingLines []string) string {
	var b strings.Builder
	b.WriteString(PlanUpdate)
	b.WriteString("\n\nJust completed task: ")
	b.WriteString(justCompletedName)
	b.WriteString("\nResult analysis:\n")
	b.WriteString(analysis)
	b.WriteString("\n\nRemaining pending tasks:\n")
	if len(pendingLines) == 0 {
		b.WriteString("(none)")
	} else {
		b.WriteString(strings.Join(pendingLines, "\n"))
	}
	return b.String()
}

// Selection is the prompt prefix used by the Vision Page Selector,
// presented ahead of the task description and page images.
const Selection = `You are shown candidate page images from a single document for the task below. Choose the pages most relevant to completing it.

Respond with a single JSON object of the shape:
{"selected_pages": [<1-based page numbers>], "reasoning": "<short reasoning>"}

Select only pages that actually help; omit irrelevant ones. Never invent a page number that was not shown to you.`

// Analysis is the prompt prefix used by the Task Executor, presented
// ahead of the query, task description, and selected page images.
const Analysis = `You are analyzing the document pages shown below to complete the task given. Answer thoroughly and cite specific figures, names, or statements found on the pages. If the pages do not contain enough information, say so plainly rather than guessing.`

// Synthesis is the system prompt used by the Response Synthesizer.
const Synthesis = `You combine the analyses produced by one or more focused tasks into a single, direct answer to the user's original query.

Write a coherent answer grounded only in the task analyses provided. Do not introduce facts absent from them. If a task failed or produced nothing useful, work with whatever completed analyses remain; if none exist, explain plainly that the query could not be answered and why, without inventing content.`

// BuildSynthesisPrompt assembles the full Synthesis user message from the
// original query, the reformulated query (when different), and the
// completed task analyses.
func BuildSynthesisPrompt(originalQuery, reformulatedQuery string, taskLines []string, failureLines []string) string {
	var b strings.Builder
	b.WriteString("Original user query:\n")
	b.WriteString(originalQuery)
	if reformulatedQuery != "" && reformulatedQuery != originalQuery {
		b.WriteString("\n\nReformulated query (for context):\n")
		b.WriteString(reformulatedQuery)
	}
	b.WriteString("\n\nCompleted task analyses:\n")
	if len(taskLines) == 0 {
		b.WriteString("(none completed)")
	} else {
		b.WriteString(strings.Join(taskLines, "\n\n"))
	}
	if len(failureLines) > 0 {
		b.WriteString("\n\nFailed tasks:\n")
		b.WriteString(strings.Join(failureLines, "\n"))
	}
	return b.String()
}

// PageMarker formats the label placed ahead of each page image.
func PageMarker(pageNumber int) string {
	return fmt.Sprintf("[Page %d]", pageNumber)
}
