package runtime

import (
	"fmt"

	"github.com/tanema/turffile/src/terrors"
	"github.com/tanema/turffile/src/turf"
)

func argumentErr(methodName string, err error) error {
	return terrors.Argument(methodName, err)
}

func checkInitialized(m *Module, methodName string) (*turf.Packer, error) {
	packer := m.currentPacker()
	if packer == nil {
		return nil, terrors.Init(methodName, terrors.ErrNotInitialized)
	}
	return packer, nil
}

func notFunctionErr(val any) error {
	return fmt.Errorf("%v is not a function", typeName(val))
}
