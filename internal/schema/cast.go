package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrCasting classifies literals that cannot be converted to their
// property's type. Use errors.Is(err, ErrCasting).
var ErrCasting = errors.New("casting error")

// CastError reports a literal that does not fit its Property.
type CastError struct {
	Property string
	Type     Type
	Value    string
	Err      error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cannot cast %q to %s for property %q: %v", e.Value, e.Type, e.Property, e.Err)
}

func (e *CastError) Unwrap() error { return e.Err }

// Is makes every CastError match ErrCasting.
func (e *CastError) Is(target error) bool { return target == ErrCasting }

// Caster converts raw query text into a backend-typed value.
// raw is already unquoted.
type Caster interface {
	Cast(p Property, raw string) (any, error)
}

// CasterFunc adapts a function to the Caster interface.
type CasterFunc func(p Property, raw string) (any, error)

// Cast calls f(p, raw).
func (f CasterFunc) Cast(p Property, raw string) (any, error) { return f(p, raw) }

// DefaultCaster converts by Property.Type into Go native values:
// int64, float64, bool, time.Time, or string for text, uuid and json.
var DefaultCaster Caster = CasterFunc(castNative)

// TextTimeCaster is DefaultCaster with dates and times rendered back to
// RFC 3339 strings, for backends that store them as text.
var TextTimeCaster Caster = CasterFunc(func(p Property, raw string) (any, error) {
	v, err := castNative(p, raw)
	if err != nil {
		return nil, err
	}
	if t, ok := v.(time.Time); ok {
		if p.Type == TypeDate {
			return t.Format(time.DateOnly), nil
		}
		return t.Format(time.RFC3339Nano), nil
	}
	return v, nil
})

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func castNative(p Property, raw string) (any, error) {
	fail := func(err error) (any, error) {
		return nil, &CastError{Property: p.Name, Type: p.Type, Value: raw, Err: err}
	}

	switch p.Type {
	case TypeString, TypeJSON, "":
		return raw, nil
	case TypeInt, TypeLong:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return fail(err)
		}
		return n, nil
	case TypeFloat, TypeDouble, TypeDecimal:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fail(err)
		}
		return f, nil
	case TypeBoolean:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return fail(errors.New("not a boolean"))
	case TypeDate:
		t, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
		if err != nil {
			return fail(err)
		}
		return t, nil
	case TypeDateTime, TypeTimestamp:
		s := strings.TrimSpace(raw)
		for _, layout := range dateTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return fail(errors.New("not an RFC 3339 date-time"))
	case TypeUUID:
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return fail(err)
		}
		return id.String(), nil
	default:
		return fail(fmt.Errorf("unsupported type %q", p.Type))
	}
}
