// internal/app/system/paging/paging_test.go
package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParseLimit(t *testing.T) {
	cases := []struct {
		name string
		url  string
		def  int64
		max  int64
		want int64
	}{
		{"missing uses default", "/chat/x/messages", 100, 0, 100},
		{"explicit value", "/chat/x/messages?limit=25", 100, 0, 25},
		{"zero falls back", "/chat/x/messages?limit=0", 100, 0, 100},
		{"negative falls back", "/chat/x/messages?limit=-5", 50, 0, 50},
		{"garbage falls back", "/chat/x/messages?limit=abc", 50, 0, 50},
		{"clamped to package max", "/chat/x/messages?limit=99999", 100, 0, MaxLimit},
		{"clamped to caller max", "/chat/x/messages?limit=99999", 100, 200, 200},
		{"default clamped to caller max", "/chat/x/messages", 100, 20, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.url, nil)
			if got := ParseLimit(r, tc.def, tc.max); got != tc.want {
				t.Fatalf("ParseLimit = %d, want %d", got, tc.want)
			}
		})
	}
}
