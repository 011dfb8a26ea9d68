// Package upstream is a narrow REST client for the code-hosting
// collaborator (issues, branches, pull requests, reviews, file
// contents, workflow runs). It exposes only the call shapes this
// system actually needs instead of a full SDK surface (spec §6).
package upstream
