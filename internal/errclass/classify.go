package errclass

import (
	"strings"

	"github.com/shaiso/devpipeline/internal/domain"
)

// rateLimitMarkers, checked before the generic auth/permission checks since
// a rate-limit response can legitimately carry a 401/403-shaped body from
// some upstream providers ("rate limit exceeded, try again" vs. a genuine
// auth failure) — order matters, per spec §4.1.
var rateLimitMarkers = []string{
	"rate limit",
	"rate-limit",
	"too many requests",
	"429",
}

var authMarkers = []string{
	"401",
	"unauthorized",
	"authentication failed",
	"bad credentials",
	"invalid token",
	"invalid api key",
}

// permissionMarkers is checked after authMarkers: a 403 "forbidden" is a
// permission problem distinct from a 401 "who are you" problem, but a
// message naming both "authentication" and "forbidden" should classify
// as auth_error first.
var permissionMarkers = []string{
	"403",
	"forbidden",
	"permission denied",
	"access denied",
	"not authorized to",
}

var importMarkers = []string{
	"modulenotfounderror",
	"importerror",
	"cannot find module",
	"no module named",
	"package not found",
}

var fileNotFoundMarkers = []string{
	"no such file or directory",
	"enoent",
	"file not found",
	"404",
}

// Classify maps an error message to one of the fixed domain.ErrorKind
// values using case-insensitive substring and numeric-code checks.
// Classify has no state and no side effects.
func Classify(message string) domain.ErrorKind {
	lower := strings.ToLower(message)

	if containsAny(lower, rateLimitMarkers) {
		return domain.ErrorRateLimit
	}
	if containsAny(lower, authMarkers) {
		return domain.ErrorAuth
	}
	if containsAny(lower, permissionMarkers) {
		return domain.ErrorPermission
	}
	if containsAny(lower, importMarkers) {
		return domain.ErrorImport
	}
	if containsAny(lower, fileNotFoundMarkers) {
		return domain.ErrorFileNotFound
	}
	return domain.ErrorGeneric
}

func containsAny(haystack string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(haystack, m) {
			return true
		}
	}
	return false
}

// ClassifyErr is a convenience wrapper over Classify for callers holding
// an error rather than a raw message; nil classifies as generic.
func ClassifyErr(err error) domain.ErrorKind {
	if err == nil {
		return domain.ErrorGeneric
	}
	return Classify(err.Error())
}
