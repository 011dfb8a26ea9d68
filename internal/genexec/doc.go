// Package genexec wraps invocations of the external code-generation CLI
// (spec §4.4).
//
// Invoke runs the raw subprocess with a timeout and captures stdout,
// stderr, exit code, and wall-clock duration. Generate is the public
// entry point: a self-healing envelope around Invoke that retries up to
// three total tries (2s, 4s delays) and, between tries, attempts one
// bounded diagnose-and-fix sub-invocation unless the classified failure
// is auth_error or permission. The diagnose-and-fix call goes through
// Invoke, which never heals, so a heal cannot recurse; no healing flag
// exists and the Executor keeps no per-call state, because one Executor
// is shared by every worker goroutine of every agent kind (spec §9).
package genexec
