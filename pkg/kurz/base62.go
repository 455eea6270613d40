// Package kurz implements a small Base62 URL-redirect service with an
// in-memory link store and a JSON management API.
package kurz

import (
	"fmt"
	"strings"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Encode converts a non-negative id into its Base62 key. Zero encodes as "0".
func Encode(n uint64) string {
	if n == 0 {
		return "0"
	}
	var b strings.Builder
	for n > 0 {
		b.WriteByte(alphabet[n%62])
		n /= 62
	}
	// Digits were emitted least-significant first.
	s := []byte(b.String())
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return string(s)
}

// Decode converts a Base62 key back into its numeric id.
func Decode(key string) (uint64, error) {
	if key == "" {
		return 0, fmt.Errorf("empty key")
	}
	var n uint64
	for _, c := range key {
		idx := strings.IndexRune(alphabet, c)
		if idx < 0 {
			return 0, fmt.Errorf("invalid character %q in key", c)
		}
		n = n*62 + uint64(idx)
	}
	return n, nil
}
