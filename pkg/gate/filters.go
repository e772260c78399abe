package gate

import (
	"strings"
	"unicode/utf8"
)

// Always accepts every request.
func Always[R any]() Filter[R] {
	return func(R) bool { return true }
}

// NonZero accepts requests that differ from the zero value.
func NonZero[R comparable]() Filter[R] {
	return func(r R) bool {
		var zero R
		return r != zero
	}
}

// MinLength accepts strings with at least n runes after trimming spaces.
func MinLength(n int) Filter[string] {
	return func(s string) bool {
		return utf8.RuneCountInString(strings.TrimSpace(s)) >= n
	}
}

// All accepts a request when every filter does. Nil filters are skipped.
func All[R any](filters ...Filter[R]) Filter[R] {
	return func(r R) bool {
		for _, f := range filters {
			if f != nil && !f(r) {
				return false
			}
		}
		return true
	}
}

// Any accepts a request when at least one filter does.
func Any[R any](filters ...Filter[R]) Filter[R] {
	return func(r R) bool {
		for _, f := range filters {
			if f != nil && f(r) {
				return true
			}
		}
		return false
	}
}

// Not inverts f.
func Not[R any](f Filter[R]) Filter[R] {
	return func(r R) bool { return !f(r) }
}
