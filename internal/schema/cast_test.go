package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCaster(t *testing.T) {
	testCases := []struct {
		typ  Type
		raw  string
		want any
	}{
		{TypeString, "France", "France"},
		{TypeInt, "1234", int64(1234)},
		{TypeLong, " 42 ", int64(42)},
		{TypeDecimal, "32.38", 32.38},
		{TypeFloat, "1e3", 1000.0},
		{TypeBoolean, "true", true},
		{TypeBoolean, "0", false},
		{TypeDate, "1996-07-04", time.Date(1996, 7, 4, 0, 0, 0, 0, time.UTC)},
		{TypeDateTime, "1996-07-04T10:00:00Z", time.Date(1996, 7, 4, 10, 0, 0, 0, time.UTC)},
		{TypeUUID, "6BA7B810-9DAD-11D1-80B4-00C04FD430C8", "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{TypeJSON, `{"a":1}`, `{"a":1}`},
	}
	for _, tc := range testCases {
		t.Run(string(tc.typ)+"/"+tc.raw, func(t *testing.T) {
			got, err := DefaultCaster.Cast(Property{Name: "p", Type: tc.typ}, tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDefaultCaster_Errors(t *testing.T) {
	testCases := []struct {
		typ Type
		raw string
	}{
		{TypeInt, "abc"},
		{TypeInt, "1.5"},
		{TypeDouble, "x"},
		{TypeBoolean, "maybe"},
		{TypeDate, "07/04/1996"},
		{TypeTimestamp, "yesterday"},
		{TypeUUID, "not-a-uuid"},
		{Type("money"), "1"},
	}
	for _, tc := range testCases {
		t.Run(string(tc.typ)+"/"+tc.raw, func(t *testing.T) {
			_, err := DefaultCaster.Cast(Property{Name: "orderId", Type: tc.typ}, tc.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCasting))

			var ce *CastError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, "orderId", ce.Property)
			assert.Equal(t, tc.raw, ce.Value)
		})
	}
}

func TestTextTimeCaster(t *testing.T) {
	got, err := TextTimeCaster.Cast(Property{Type: TypeDate}, "1996-07-04")
	require.NoError(t, err)
	assert.Equal(t, "1996-07-04", got)

	got, err = TextTimeCaster.Cast(Property{Type: TypeDateTime}, "1996-07-04 10:00:00")
	require.NoError(t, err)
	assert.Equal(t, "1996-07-04T10:00:00Z", got)

	got, err = TextTimeCaster.Cast(Property{Type: TypeInt}, "7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)
}

func TestCasterFunc(t *testing.T) {
	upper := CasterFunc(func(p Property, raw string) (any, error) { return p.Name + ":" + raw, nil })
	got, err := upper.Cast(Property{Name: "x"}, "y")
	require.NoError(t, err)
	assert.Equal(t, "x:y", got)
}
