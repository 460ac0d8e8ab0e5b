package pagination

import (
	"net/url"
	"strconv"
	"strings"
)

const DefaultLimit = 20

// Request is a validated page request. Page and Limit are always >= 1.
type Request struct {
	Page  int
	Limit int
}

// ParseRequest reads 'page' and 'limit' from the query. Bad input is clamped
// rather than rejected: a missing, unparsable or non-positive page becomes 1
// and a missing, unparsable or non-positive limit becomes defaultLimit. Any
// positive limit is kept as given, so a page shorter than the request still
// reads as the end of the feed.
func ParseRequest(query url.Values, defaultLimit int) Request {
	if defaultLimit < 1 {
		defaultLimit = DefaultLimit
	}

	req := Request{Page: 1, Limit: defaultLimit}

	if page, ok := positiveInt(query.Get("page")); ok {
		req.Page = page
	}
	if limit, ok := positiveInt(query.Get("limit")); ok {
		req.Limit = limit
	}

	return req
}

// HasMore reports whether the client should ask for the next page. It is a
// heuristic: a full page means "maybe more", a short page means "exhausted".
// A page that ends exactly on the last item reports true once too often, and
// a provider outage mid-feed produces a short page that reports false.
func HasMore(returned, limit int) bool {
	return returned == limit
}

func positiveInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
