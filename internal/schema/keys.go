package schema

import (
	"fmt"
	"strings"
)

// KeySeparator joins the values of a multi-property resource key.
const KeySeparator = '~'

// EncodeKey builds a resource key from primary index values.
// The separator and backslash are escaped with a backslash.
func EncodeKey(values ...string) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteRune(KeySeparator)
		}
		for _, r := range v {
			if r == KeySeparator || r == '\\' {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DecodeKey splits a resource key produced by EncodeKey.
func DecodeKey(key string) ([]string, error) {
	var (
		values  []string
		b       strings.Builder
		escaped bool
	)
	for _, r := range key {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == KeySeparator:
			values = append(values, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if escaped {
		return nil, fmt.Errorf("resource key %q ends with a dangling escape", key)
	}
	return append(values, b.String()), nil
}
