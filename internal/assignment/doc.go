// Package assignment implements the Assignment Store (spec §4.3): the
// per-agent-kind priority queues and the per-(repository, issue) tracking
// records, both backed by the broker package.
package assignment
