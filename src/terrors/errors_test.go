package terrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormat(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		err      error
		expected string
	}{
		{Init("init_", ErrLoaderNotFunction), "Require is not a function"},
		{Argument("pack", ErrLengthMismatch), "Array lengths don't match"},
		{Encode("pack", ErrStringify), "Encode Error: pack: Error stringifying data"},
		{Decode("unpack", "bad signature %q", "abc"), `Decode Error: unpack: bad signature "abc"`},
	}

	for _, tc := range testcases {
		assert.EqualError(t, tc.err, tc.expected)
	}
}

func TestErrorUnwrap(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("calling pack: %w", Argument("pack", ErrShapeNotFloats))
	assert.ErrorIs(t, err, ErrShapeNotFloats)
	assert.NotErrorIs(t, err, ErrShapeNotArray)

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, ArgumentErr, kind)
	assert.Equal(t, "argument", kind.String())

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}
