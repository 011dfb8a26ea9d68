// Package workerpool is the scheduling heart of the system (spec
// §4.7): one goroutine per configured agent kind, each polling the
// assignment store for its next task, executing it through the agent
// runtime, chaining producing-kind (backend/frontend/database)
// completions with an open pull request into a QA review task on the QA
// queue, and checking drain state after every
// completion.
package workerpool
