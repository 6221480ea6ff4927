// Package rest defines sentinel errors.
package rest

import "errors"

// ErrUnsupportedMethod indicates a request method outside the proxied set.
var ErrUnsupportedMethod = errors.New("unsupported method")

// ErrRouteUnrecognized indicates a path that maps to no known route pattern.
var ErrRouteUnrecognized = errors.New("unrecognized route")

// ErrNoRatelimiterNodes indicates the hash ring holds no replicas.
var ErrNoRatelimiterNodes = errors.New("no ratelimiter nodes available")
