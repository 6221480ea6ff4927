// Package rest derives rate limit bucket keys from routes.
package rest

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
)

// proxiedMethods is the set of methods the proxy forwards upstream.
var proxiedMethods = map[string]struct{}{
	http.MethodDelete: {},
	http.MethodGet:    {},
	http.MethodPatch:  {},
	http.MethodPost:   {},
	http.MethodPut:    {},
}

// knownRoots lists the top level API resources the proxy can classify into
// buckets. Anything else fails derivation instead of defaulting.
var knownRoots = map[string]bool{
	"applications":    true,
	"channels":        true,
	"gateway":         true,
	"guilds":          true,
	"interactions":    true,
	"invites":         true,
	"oauth2":          true,
	"stage-instances": true,
	"sticker-packs":   true,
	"stickers":        true,
	"users":           true,
	"voice":           true,
	"webhooks":        true,
}

// majorRoots lists resources whose leading ID is a major rate limit
// parameter: the upstream API scopes those buckets per resource, so the ID
// stays part of the bucket identity.
var majorRoots = map[string]bool{
	"channels": true,
	"guilds":   true,
	"webhooks": true,
}

// BucketKey derives the bucket key for a method and normalized path
// remainder. Requests sharing a key share the same upstream rate limit
// bucket. Derivation fails for methods outside the proxied set and for paths
// that classify into no known route pattern.
func BucketKey(method, path string) (uint64, error) {
	route, err := canonicalRoute(method, path)
	if err != nil {
		return 0, err
	}
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(method))
	_, _ = hasher.Write([]byte{' '})
	_, _ = hasher.Write([]byte(route))
	return hasher.Sum64(), nil
}

// canonicalRoute rewrites a path into its bucket form: minor numeric IDs
// become {id}, reaction emoji become {emoji}, major parameters and route
// words stay literal.
func canonicalRoute(method, path string) (string, error) {
	if _, ok := proxiedMethods[method]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	root := segments[0]
	if !knownRoots[root] {
		return "", fmt.Errorf("%w: %s %s", ErrRouteUnrecognized, method, path)
	}
	canonical := make([]string, len(segments))
	emoji := false
	for i, segment := range segments {
		if segment == "" {
			return "", fmt.Errorf("%w: %s %s", ErrRouteUnrecognized, method, path)
		}
		switch {
		case i == 0:
			canonical[i] = segment
		case emoji:
			canonical[i] = "{emoji}"
		case isDigits(segment):
			if i == 1 && majorRoots[root] {
				canonical[i] = segment
			} else {
				canonical[i] = "{id}"
			}
		case root == "webhooks" && i == 2:
			// Webhook tokens are bound to their webhook's bucket.
			canonical[i] = segment
		case isRouteWord(segment):
			canonical[i] = segment
		default:
			return "", fmt.Errorf("%w: %s %s", ErrRouteUnrecognized, method, path)
		}
		emoji = segment == "reactions"
	}
	return "/" + strings.Join(canonical, "/"), nil
}

func isRouteWord(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.' || c == '@' || c == ':':
		default:
			return false
		}
	}
	return len(s) > 0
}
