package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Request
	}{
		{"defaults", "", Request{Page: 1, Limit: 20}},
		{"valid", "page=3&limit=10", Request{Page: 3, Limit: 10}},
		{"zero page", "page=0&limit=10", Request{Page: 1, Limit: 10}},
		{"negative page", "page=-2", Request{Page: 1, Limit: 20}},
		{"garbage page", "page=abc&limit=5", Request{Page: 1, Limit: 5}},
		{"zero limit", "limit=0", Request{Page: 1, Limit: 20}},
		{"garbage limit", "limit=ten", Request{Page: 1, Limit: 20}},
		{"large limit", "limit=5000", Request{Page: 1, Limit: 5000}},
		{"float limit", "limit=2.5", Request{Page: 1, Limit: 20}},
		{"whitespace", "page=%202%20&limit=%207", Request{Page: 2, Limit: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ParseRequest(q, DefaultLimit))
		})
	}
}

func TestParseRequestBadDefault(t *testing.T) {
	q := url.Values{}
	assert.Equal(t, Request{Page: 1, Limit: 20}, ParseRequest(q, 0))
	assert.Equal(t, Request{Page: 1, Limit: 50}, ParseRequest(q, 50))

	q.Set("limit", "300")
	assert.Equal(t, 300, ParseRequest(q, 5).Limit)
}

func TestHasMore(t *testing.T) {
	assert.True(t, HasMore(10, 10))
	assert.False(t, HasMore(4, 10))
	assert.False(t, HasMore(0, 10))
}
