package accel

import (
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
)

var (
	runtimesMu sync.RWMutex
	runtimes   = make(map[string]Runtime)
)

// Register makes a runtime available by name. It panics if the name is
// taken or rt is nil, so it is meant to be called from an init function.
func Register(name string, rt Runtime) {
	runtimesMu.Lock()
	defer runtimesMu.Unlock()
	if rt == nil {
		panic("accel: Register runtime is nil")
	}
	if _, dup := runtimes[name]; dup {
		panic("accel: Register called twice for runtime " + name)
	}
	runtimes[name] = rt
}

// Open returns the runtime registered under name.
func Open(name string) (Runtime, error) {
	runtimesMu.RLock()
	rt, ok := runtimes[name]
	runtimesMu.RUnlock()
	if !ok {
		return nil, Errorf("Open", StatusInvalidPlatform,
			"unknown runtime %q (registered: %v)", name, Runtimes())
	}
	return rt, nil
}

// Runtimes returns the sorted names of the registered runtimes.
func Runtimes() []string {
	runtimesMu.RLock()
	defer runtimesMu.RUnlock()
	names := lo.Keys(runtimes)
	slices.Sort(names)
	return names
}

// Preferred picks the runtime to use when the caller did not name one: a
// hardware driver when one is linked in, otherwise the first registered.
func Preferred() (string, error) {
	names := Runtimes()
	if len(names) == 0 {
		return "", fmt.Errorf("accel: no runtimes registered")
	}
	if lo.Contains(names, "opencl") {
		return "opencl", nil
	}
	return names[0], nil
}
