package authz

import "strings"

// MatchPattern reports whether pattern grants required. Both are
// "resource:action" strings where either half of pattern may be "*":
//
//	"*:*"         everything
//	"jobs:*"      jobs:submit, jobs:read, ...
//	"*:read"      jobs:read, files:read, ...
//
// Strings without a separator are compared whole, with "*" matching all.
func MatchPattern(pattern, required string) bool {
	if pattern == required || pattern == "*" || pattern == "*:*" {
		return true
	}
	patRes, patAct, patOK := strings.Cut(pattern, ":")
	reqRes, reqAct, reqOK := strings.Cut(required, ":")
	if !patOK || !reqOK {
		return matchWildcard(pattern, required)
	}
	return matchWildcard(patRes, reqRes) && matchWildcard(patAct, reqAct)
}

// MatchAny reports whether any pattern grants required.
func MatchAny(patterns []string, required string) bool {
	for _, p := range patterns {
		if MatchPattern(p, required) {
			return true
		}
	}
	return false
}

func matchWildcard(pattern, value string) bool {
	return pattern == "*" || pattern == value
}
