package query

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeCursor packs v into an opaque, URL-safe continuation token.
func EncodeCursor(v any) (string, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeCursor unpacks a token made by EncodeCursor into v. Integers
// decoded into interface values come back as int64 or uint64.
func DecodeCursor(token string, v any) error {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return invalid("after", token, "malformed cursor")
	}
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseLooseInterfaceDecoding(true)
	if err := dec.Decode(v); err != nil {
		return invalid("after", token, "malformed cursor: %v", err)
	}
	return nil
}

// Keyset builds the predicate selecting rows after the given sort key
// values: (k1 > v1) OR (k1 = v1 AND k2 > v2) ..., with < for descending
// keys. Its Args are not part of the Query's bind lists.
func Keyset(sorts []Sort, values []any) (Predicate, error) {
	if len(sorts) == 0 {
		return nil, invalid("after", "", "cursor needs a sort order")
	}
	if len(values) != len(sorts) {
		return nil, invalid("after", "", "cursor has %d values, sort has %d keys", len(values), len(sorts))
	}

	arg := func(v any) []Arg { return []Arg{{Index: -1, Value: v, Raw: fmt.Sprint(v)}} }
	var alts []Predicate
	for i, s := range sorts {
		op := "gt"
		if s.Desc {
			op = "lt"
		}
		var conj []Predicate
		for j := 0; j < i; j++ {
			conj = append(conj, Compare{Op: "eq", Column: sorts[j].Column, Args: arg(values[j])})
		}
		conj = append(conj, Compare{Op: op, Column: s.Column, Args: arg(values[i])})
		if len(conj) == 1 {
			alts = append(alts, conj[0])
		} else {
			alts = append(alts, And{Predicates: conj})
		}
	}
	if len(alts) == 1 {
		return alts[0], nil
	}
	return Or{Predicates: alts}, nil
}
