package messages

import (
	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips markup from user supplied text.
type Sanitizer interface {
	Sanitize(s string) string
}

// StrictSanitizer removes every HTML element and attribute.
func StrictSanitizer() Sanitizer {
	return bluemonday.StrictPolicy()
}
