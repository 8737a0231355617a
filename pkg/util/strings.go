package util

import "unicode/utf8"

// MaxLogBodySize is the default maximum body size for logs and error messages.
const MaxLogBodySize = 1024

// TruncateBody caps data at maxSize bytes without splitting a UTF-8
// sequence, appending "...(truncated)" when anything was cut.
// If maxSize <= 0, uses MaxLogBodySize.
func TruncateBody(data string, maxSize int) string {
	if maxSize <= 0 {
		maxSize = MaxLogBodySize
	}
	if len(data) <= maxSize {
		return data
	}
	cut := maxSize
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return data[:cut] + "...(truncated)"
}
