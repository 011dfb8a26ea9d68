// Package gitpush drives the local git and rsync binaries to shuttle a
// generated working copy back into a tracked repository clone: shallow
// clone, mirrored sync with a fixed exclusion list, dirty check, commit,
// and push. A clean working copy is not an error: CommitAndPush reports
// success without pushing (spec §4.5).
package gitpush
