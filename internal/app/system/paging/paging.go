// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// ChatHistorySize is the default number of messages returned by a
// history request when the client does not ask for a limit.
const ChatHistorySize = 100

// NotificationSize is the default number of notifications returned by
// a list request.
const NotificationSize = 50

// MaxLimit caps client-supplied limits so a single request cannot pull
// an unbounded result set. Callers with an operator-configured cap pass
// it instead.
const MaxLimit = 500

// ParseLimit extracts the "limit" query parameter and returns it as an
// int64 suitable for Mongo Find().SetLimit(). Missing, malformed, or
// non-positive values fall back to def; anything above max is clamped.
// A non-positive max falls back to MaxLimit.
func ParseLimit(r *http.Request, def, max int64) int64 {
	if max <= 0 {
		max = MaxLimit
	}
	if def > max {
		def = max
	}
	s := query.Get(r, "limit")
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
