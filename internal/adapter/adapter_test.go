// ABOUTME: Tests for adapter error classification and argument accessors.
// ABOUTME: Covers kind wrapping, errors.Is matching and numeric argument coercion.

package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClassification(t *testing.T) {
	base := errors.New("exec: \"az\": executable file not found in $PATH")
	err := fmt.Errorf("run: %w", Wrap(KindBackendUnavailable, base, "start az"))

	assert.Equal(t, KindBackendUnavailable, KindOf(err))
	assert.ErrorIs(t, err, base)
	assert.ErrorIs(t, err, &Error{Kind: KindBackendUnavailable})
	assert.NotErrorIs(t, err, &Error{Kind: KindMalformedResponse})
	assert.Equal(t, `run: start az: exec: "az": executable file not found in $PATH`, err.Error())

	assert.Equal(t, Kind(""), KindOf(base))
	assert.Equal(t, "MalformedResponse", (&Error{Kind: KindMalformedResponse}).Error())
	assert.Equal(t, "boom", Errorf(KindCommandFailed, "boom").Error())
	assert.Equal(t, "inner", Wrap(KindCommandFailed, errors.New("inner"), "").Error())
}

func TestArgumentsString(t *testing.T) {
	args := Arguments{
		"s":    "hello",
		"n":    float64(42),
		"f":    1.5,
		"num":  json.Number("7"),
		"b":    true,
		"null": nil,
	}

	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"s", "hello", true},
		{"n", "42", true},
		{"f", "1.5", true},
		{"num", "7", true},
		{"b", "true", true},
		{"null", "", false},
		{"missing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := args.String(tt.name)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}

	assert.Equal(t, "fallback", args.StringOr("missing", "fallback"))
	assert.Equal(t, "hello", args.StringOr("s", "fallback"))
	assert.True(t, args.Has("s"))
	assert.False(t, args.Has("null"))
}

func TestArgumentsInt(t *testing.T) {
	args := Arguments{"limit": float64(25), "page": "3", "bad": 2.5, "word": "ten"}

	n, err := args.IntOr("limit", 10)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	n, err = args.IntOr("page", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = args.IntOr("missing", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	_, err = args.IntOr("bad", 1)
	require.Error(t, err)
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	_, _, err = args.Int("word")
	assert.Error(t, err)
}

func TestArgumentsNumber(t *testing.T) {
	args := Arguments{"top": float64(5), "id": "123"}
	assert.Equal(t, "5", args.Number("top", "10"))
	assert.Equal(t, "123", args.Number("id", ""))
	assert.Equal(t, "10", args.Number("missing", "10"))
}
