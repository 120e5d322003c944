package runtime

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanema/turffile/src/conf"
	"github.com/tanema/turffile/src/terrors"
)

func TestInitArgumentValidation(t *testing.T) {
	t.Parallel()
	mod := New()
	for _, arg := range []any{nil, "", int64(1), []any{}} {
		_, err := mod.Call("init_", arg)
		require.ErrorIs(t, err, terrors.ErrLoaderNotFunction)
		assert.EqualError(t, err, "Require is not a function")
	}
	_, err := mod.Call("init_")
	assert.EqualError(t, err, "Require is not a function")
	assert.False(t, mod.Initialized())
}

func TestPackNotInitialized(t *testing.T) {
	t.Parallel()
	mod := New()
	_, err := mod.Call("pack", nil)
	require.ErrorIs(t, err, terrors.ErrNotInitialized)
	assert.EqualError(t, err, "Not initialized")

	_, err = mod.Call("unpack", []byte{})
	assert.EqualError(t, err, "Not initialized")
}

func TestPackArgumentValidation(t *testing.T) {
	t.Parallel()
	mod := New()
	_, err := mod.Call("init_", Require)
	require.NoError(t, err)
	require.True(t, mod.Initialized())

	testcases := []struct {
		args []any
		err  error
	}{
		{[]any{"a"}, terrors.ErrPackArgCount},
		{[]any{}, terrors.ErrPackArgCount},
		{[]any{[]any{}, []any{}, []any{}}, terrors.ErrPackArgCount},
		{[]any{"a", "b"}, terrors.ErrShapesNotArray},
		{[]any{[]any{"a"}, "b"}, terrors.ErrTurfsNotArray},
		{[]any{[]any{}, []any{"b"}}, terrors.ErrLengthMismatch},
		{[]any{[]any{"a"}, []any{"b"}}, terrors.ErrShapeNotArray},
		{[]any{[]any{[]any{"a"}}, []any{"b"}}, terrors.ErrShapeNotFloats},
		{[]any{[]any{[]any{1.5, nil}}, []any{"b"}}, terrors.ErrShapeNotFloats},
	}

	for i, tc := range testcases {
		_, err := mod.Call("pack", tc.args...)
		require.ErrorIs(t, err, tc.err, "[%v]", i)
		assert.EqualError(t, err, tc.err.Error(), "[%v]", i)
	}
}

func TestPackMessages(t *testing.T) {
	t.Parallel()
	mod := New()
	_, err := mod.Call("init_", Require)
	require.NoError(t, err)

	expected := []struct {
		args []any
		msg  string
	}{
		{[]any{"a"}, "pack takes two arguments"},
		{[]any{"a", "b"}, "pack takes 1st argument array of shapes"},
		{[]any{[]any{"a"}, "b"}, "pack takes 2nd argument array of turfs"},
		{[]any{[]any{}, []any{"b"}}, "Array lengths don't match"},
		{[]any{[]any{"a"}, []any{"b"}}, "pack takes 1st argument array of arrays"},
		{[]any{[]any{[]any{"a"}}, []any{"b"}}, "pack takes 1st argument array of arrays of floats"},
	}
	for _, tc := range expected {
		_, err := mod.Call("pack", tc.args...)
		assert.EqualError(t, err, tc.msg)
	}
}

func TestPackAndUnpack(t *testing.T) {
	t.Parallel()
	mod := New()
	_, err := mod.Call("init_", Require)
	require.NoError(t, err)

	greet := Fn("greet", func(*Module, []any) ([]any, error) { return nil, nil })
	res, err := mod.Call("pack",
		[]any{[]any{int64(1), 2.5}, []any{}},
		[]any{map[string]any{"name": "a", "fn": greet}, []any{greet}},
	)
	require.NoError(t, err)
	require.Len(t, res, 1)
	buf, isBuf := res[0].([]byte)
	require.True(t, isBuf)
	assert.Equal(t, conf.SIGNATURE, string(buf[:len(conf.SIGNATURE)]))

	res, err = mod.Call("unpack", buf)
	require.NoError(t, err)
	assert.Equal(t, []any{
		[]any{[]any{float64(1), 2.5}, []any{}},
		[]any{map[string]any{"name": "a", "fn": nil}, []any{nil}},
	}, res)

	res, err = mod.Call("unpack", string(buf))
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestUnpackArgumentValidation(t *testing.T) {
	t.Parallel()
	mod := New()
	_, err := mod.Call("init_", Require)
	require.NoError(t, err)

	_, err = mod.Call("unpack")
	assert.EqualError(t, err, "unpack takes one argument")
	_, err = mod.Call("unpack", "a", "b")
	assert.EqualError(t, err, "unpack takes one argument")
	_, err = mod.Call("unpack", int64(1))
	assert.EqualError(t, err, "unpack takes a buffer")
	_, err = mod.Call("unpack", []byte("nope"))
	kind, _ := terrors.KindOf(err)
	assert.Equal(t, terrors.DecodeErr, kind)
}

func TestInitWithCustomRequire(t *testing.T) {
	t.Parallel()

	t.Run("module without concat", func(t *testing.T) {
		t.Parallel()
		mod := New()
		req := Fn("require", func(*Module, []any) ([]any, error) {
			return []any{map[string]any{"Buffer": map[string]any{}}}, nil
		})
		_, err := mod.Call("init_", req)
		assert.ErrorIs(t, err, terrors.ErrConcatNotFunction)
		assert.False(t, mod.Initialized())
	})

	t.Run("require fails", func(t *testing.T) {
		t.Parallel()
		mod := New()
		req := Fn("require", func(*Module, []any) ([]any, error) {
			return nil, errors.New("cannot find module")
		})
		_, err := mod.Call("init_", req)
		assert.EqualError(t, err, "loading buffer: cannot find module")
	})

	t.Run("concat is used", func(t *testing.T) {
		t.Parallel()
		mod := New()
		called := false
		concat := Fn("concat", func(m *Module, args []any) ([]any, error) {
			called = true
			return stdBufferConcat(m, args)
		})
		req := Fn("require", func(_ *Module, args []any) ([]any, error) {
			assert.Equal(t, []any{"buffer"}, args)
			return []any{map[string]any{"Buffer": map[string]any{"concat": concat}}}, nil
		})
		_, err := mod.Call("init_", req)
		require.NoError(t, err)
		_, err = mod.Call("pack", []any{[]any{int64(1)}}, []any{"a"})
		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("concat returns garbage", func(t *testing.T) {
		t.Parallel()
		mod := New()
		concat := Fn("concat", func(*Module, []any) ([]any, error) { return []any{"str"}, nil })
		req := Fn("require", func(*Module, []any) ([]any, error) {
			return []any{map[string]any{"Buffer": map[string]any{"concat": concat}}}, nil
		})
		_, err := mod.Call("init_", req)
		require.NoError(t, err)
		_, err = mod.Call("pack", []any{}, []any{})
		assert.EqualError(t, err, "Encode Error: pack: Buffer.concat returned string")
	})
}

func TestCallbacksReenterModule(t *testing.T) {
	t.Parallel()
	mod := New()
	var seen []bool
	concat := Fn("concat", func(m *Module, args []any) ([]any, error) {
		seen = append(seen, m.Initialized())
		if _, err := m.Exec(`unpack("")`); err == nil {
			return nil, errors.New("expected unpack of an empty buffer to fail")
		}
		return stdBufferConcat(m, args)
	})
	req := Fn("require", func(m *Module, _ []any) ([]any, error) {
		seen = append(seen, m.Initialized())
		if _, err := m.Call("pack", []any{}, []any{}); !errors.Is(err, terrors.ErrNotInitialized) {
			return nil, errors.New("expected pack to fail before init")
		}
		return []any{map[string]any{"Buffer": map[string]any{"concat": concat}}}, nil
	})

	done := make(chan error, 1)
	go func() {
		if _, err := mod.Call("init_", req); err != nil {
			done <- err
			return
		}
		_, err := mod.Exec(`pack([[1, 2]], ["a"])`)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		require.FailNow(t, "calling back into the module from a loader blocked")
	}
	assert.Equal(t, []bool{false, true}, seen)
	assert.True(t, mod.Initialized())
}

func TestPackRejectsBufferTurfs(t *testing.T) {
	t.Parallel()
	mod := New()
	_, err := mod.Call("init_", Require)
	require.NoError(t, err)
	_, err = mod.Call("pack", []any{[]any{int64(1)}}, []any{map[string]any{"raw": []byte("x")}})
	require.ErrorIs(t, err, terrors.ErrTurfBuffer)
	assert.EqualError(t, err, "Encode Error: pack: turf 0: turfs cannot hold buffers")
}

func TestRequire(t *testing.T) {
	t.Parallel()
	res, err := stdRequire(nil, []any{"buffer"})
	require.NoError(t, err)
	assert.Equal(t, loadedPackages["buffer"], res[0])

	_, err = stdRequire(nil, []any{"fs"})
	assert.EqualError(t, err, "module 'fs' not found")
	_, err = stdRequire(nil, []any{int64(1)})
	assert.EqualError(t, err, "string expected, got number")
	_, err = stdRequire(nil, []any{})
	assert.Error(t, err)
}

func TestBufferConcat(t *testing.T) {
	t.Parallel()
	res, err := stdBufferConcat(nil, []any{[]any{[]byte("ab"), []byte{}, []byte("c")}})
	require.NoError(t, err)
	assert.Equal(t, []any{[]byte("abc")}, res)

	_, err = stdBufferConcat(nil, []any{[]any{"ab"}})
	assert.EqualError(t, err, "list[0] must be a buffer, got string")
	_, err = stdBufferConcat(nil, []any{})
	assert.Error(t, err)
}

func TestCallUnknownExport(t *testing.T) {
	t.Parallel()
	_, err := New().Call("stringify")
	assert.EqualError(t, err, "module has no export 'stringify'")
	assert.ElementsMatch(t, []string{"init_", "pack", "unpack"}, keys(New().Exports()))
}

func keys(m map[string]*GoFunc) []string {
	out := []string{}
	for key := range m {
		out = append(out, key)
	}
	return out
}
