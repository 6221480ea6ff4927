// Package rest provides path normalization.
package rest

import "strings"

// NormalizePath splits a request path into the API prefix and the route
// remainder. A leading /api is stripped, and a /v<digits> version segment
// directly after it is folded into the prefix. Paths without the /api prefix
// are passed through unchanged with an implied /api prefix.
func NormalizePath(requestPath string) (string, string) {
	trimmed, found := strings.CutPrefix(requestPath, "/api")
	if !found {
		return "/api", requestPath
	}
	if rest, ok := strings.CutPrefix(trimmed, "/v"); ok {
		version := rest
		if i := strings.IndexByte(version, '/'); i >= 0 {
			version = version[:i]
		}
		if isDigits(version) {
			prefixLen := len("/api/v") + len(version)
			return requestPath[:prefixLen], requestPath[prefixLen:]
		}
	}
	return "/api", trimmed
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
