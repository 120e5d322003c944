// Package runtime exposes the packing module to untyped callers. Values
// crossing into the module are the json-like set of null, bool, int64, float64,
// string, []any, map[string]any, []byte buffers and *GoFunc functions, and every
// argument is validated before it reaches the typed packer. Turfs are stored as
// json, so functions inside them become null and buffers inside them are
// rejected.
package runtime

import (
	"fmt"
	"sync"

	"github.com/tanema/turffile/src/turf"
)

// Module is a single handle on the packing module. It must be initialized
// with init_ before pack or unpack can be called.
type Module struct {
	mux     sync.Mutex
	exports map[string]*GoFunc
	opts    []turf.Option
	packer  *turf.Packer
	last    any
}

// New creates an uninitialized module. The options are handed to the packer
// created during init_.
func New(opts ...turf.Option) *Module {
	return &Module{
		exports: createExports(),
		opts:    opts,
	}
}

// Exports returns the functions the module exposes, keyed by name.
func (m *Module) Exports() map[string]*GoFunc {
	out := make(map[string]*GoFunc, len(m.exports))
	for name, fn := range m.exports {
		out[name] = fn
	}
	return out
}

// Initialized reports if init_ has succeeded on this module.
func (m *Module) Initialized() bool {
	return m.currentPacker() != nil
}

// Call invokes the export called name with args. The module is not locked while
// the export runs so loaders and buffer functions may call back into it.
func (m *Module) Call(name string, args ...any) ([]any, error) {
	fn, found := m.exports[name]
	if !found {
		return nil, fmt.Errorf("module has no export '%v'", name)
	}
	return m.call(fn, args)
}

func (m *Module) currentPacker() *turf.Packer {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.packer
}

func (m *Module) setPacker(packer *turf.Packer) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.packer = packer
}

func (m *Module) lastResult() any {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.last
}

func (m *Module) setLastResult(val any) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.last = val
}

func (m *Module) call(fn *GoFunc, args []any) ([]any, error) {
	if args == nil {
		args = []any{}
	}
	return fn.val(m, args)
}
