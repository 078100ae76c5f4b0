// internal/app/system/sanitize/sanitize.go

// Package sanitize cleans user-supplied text before it is persisted.
// Chat messages, application notes, and review feedback all pass
// through here; stored content is safe to hand to any client verbatim.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// ugc keeps harmless formatting (bold, lists, links) and strips
	// scripts, event handlers, and embeds.
	ugc = bluemonday.UGCPolicy()

	// strict strips all markup, leaving text content only.
	strict = bluemonday.StrictPolicy()
)

// Clean trims and sanitizes user-generated content, preserving benign
// formatting. Plain text passes through unchanged.
func Clean(s string) string {
	return strings.TrimSpace(ugc.Sanitize(s))
}

// Text trims and strips all markup from the string.
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
