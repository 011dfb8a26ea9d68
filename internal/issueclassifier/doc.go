// Package issueclassifier scores an upstream-provider issue against
// label and keyword signals for every agent kind and picks the
// highest-scoring one (spec §4.5).
//
// Weights: label match 3.0, title keyword hit 2.0, body keyword hit 1.0.
// Ties break by the iteration order of domain.AllAgentKinds. Regexes are
// compiled once at construction; an invalid pattern is a startup failure.
package issueclassifier
