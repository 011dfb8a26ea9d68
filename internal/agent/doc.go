// Package agent implements the per-agent-kind execution contracts (spec
// §4.6): a narrow capabilities()/execute(task) interface dispatched
// through a compile-time kind-to-constructor registry. The three
// "producing" kinds (backend, frontend, database) share one
// resolve→branch→workspace→generate→validate→publish→open-review→annotate
// envelope; QA is review-oriented; devops/product-manager/
// project-manager use a simpler pass-through envelope.
package agent
