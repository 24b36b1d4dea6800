package util

import "fmt"

// DefaultLogMaxLen caps strings embedded in log lines and error messages.
// Predictor responses carry base64 images, so untruncated output would be
// unreadable.
const DefaultLogMaxLen = 1024

// TruncateLog shortens long strings for logging and error messages.
func TruncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + fmt.Sprintf("... [truncated, %d bytes total]", len(s))
}

// TruncateBytes is a convenience wrapper for TruncateLog that accepts []byte
// and uses DefaultLogMaxLen.
func TruncateBytes(b []byte) string {
	return TruncateLog(string(b), DefaultLogMaxLen)
}
