package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"no quotes", "hello", "hello"},
		{"double quoted", `"hello"`, "hello"},
		{"single quotes only", "'hello'", "'hello'"},
		{"quotes in middle", `he"llo`, `he"llo`},
		{"only quotes", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TrimQuotes(tt.input))
		})
	}
}

func TestFixEscapeQuotes(t *testing.T) {
	assert.Equal(t, `N35°43'36"`, FixEscapeQuotes(`N35°43'36""`))
	assert.Equal(t, `a""b`, FixEscapeQuotes(`a""""b`))
}

func TestCleanArgs(t *testing.T) {
	got := CleanArgs([]string{` "RJTT" `, `"Custom ""north"" fix"`, "250"})
	assert.Equal(t, []string{"RJTT", `Custom "north" fix`, "250"}, got)
}

func TestArg(t *testing.T) {
	args := []string{"a", "b"}
	assert.Equal(t, "b", Arg(args, 1))
	assert.Equal(t, "", Arg(args, 2))
	assert.Equal(t, "", Arg(args, -1))
}

func TestStringArg(t *testing.T) {
	_, err := StringArg([]string{"  "}, 0, "airport")
	assert.ErrorIs(t, err, ErrMissingArg)

	s, err := StringArg([]string{" RJTT "}, 0, "airport")
	require.NoError(t, err)
	assert.Equal(t, "RJTT", s)
}

func TestFloatArg(t *testing.T) {
	f, err := FloatArg([]string{"250.5"}, 0, "speed")
	require.NoError(t, err)
	assert.Equal(t, 250.5, f)

	_, err = FloatArg([]string{"fast"}, 0, "speed")
	assert.ErrorIs(t, err, ErrInvalidArg)

	_, err = FloatArg([]string{"NaN"}, 0, "speed")
	assert.ErrorIs(t, err, ErrInvalidArg)

	_, err = FloatArg([]string{"Inf"}, 0, "speed")
	assert.ErrorIs(t, err, ErrInvalidArg)

	_, err = FloatArg(nil, 0, "speed")
	assert.ErrorIs(t, err, ErrMissingArg)
}

func TestOptionalFloatArg(t *testing.T) {
	f, err := OptionalFloatArg([]string{"HLC"}, 1, "bearing")
	require.NoError(t, err)
	assert.Nil(t, f)

	f, err = OptionalFloatArg([]string{"HLC", ""}, 1, "bearing")
	require.NoError(t, err)
	assert.Nil(t, f)

	f, err = OptionalFloatArg([]string{"HLC", "90"}, 1, "bearing")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, 90.0, *f)

	_, err = OptionalFloatArg([]string{"HLC", "east"}, 1, "bearing")
	assert.ErrorIs(t, err, ErrInvalidArg)
}

func TestIntArg(t *testing.T) {
	n, err := IntArg([]string{"3"}, 0, "index")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = IntArg([]string{"1.5"}, 0, "index")
	assert.ErrorIs(t, err, ErrInvalidArg)
}
