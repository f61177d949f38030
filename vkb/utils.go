package vkb

import (
	"bytes"
	"cmp"
)

const (
	end     = "\x00"
	endChar = '\x00'
)

// GetCString converts a fixed size, NUL padded C string to a Go string.
func GetCString(slice []byte) string {
	return string(bytes.TrimRight(slice, end))
}

// MakeCString returns s terminated by NUL, as the driver expects.
func MakeCString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

func clamp[T cmp.Ordered](val, lo, hi T) T {
	return max(lo, min(val, hi))
}
