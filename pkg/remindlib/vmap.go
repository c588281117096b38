package remindlib

import "sync"

// VMap is a mutex-guarded generic map used wherever independent reminders
// must not contend with each other (in-flight fetch tracking, subscriber
// registries).
type VMap[kT comparable, vT any] struct {
	kv map[kT]vT
	mu sync.RWMutex
}

// NewVMap returns an initialized VMap.
func NewVMap[kT comparable, vT any]() *VMap[kT, vT] {
	return &VMap[kT, vT]{kv: make(map[kT]vT)}
}

// Get retrieves the value for key; the zero value when absent.
func (vm *VMap[kT, vT]) Get(key kT) (val vT) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.kv[key]
}

// Lookup retrieves the value for key and whether it was present.
func (vm *VMap[kT, vT]) Lookup(key kT) (val vT, ok bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	val, ok = vm.kv[key]
	return
}

// Set stores a value for key.
func (vm *VMap[kT, vT]) Set(key kT, val vT) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.kv[key] = val
}

// SetIfAbsent stores val only when key has no entry yet and reports
// whether it stored. This is the check-and-claim step of single-flight
// guards.
func (vm *VMap[kT, vT]) SetIfAbsent(key kT, val vT) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if _, ok := vm.kv[key]; ok {
		return false
	}
	vm.kv[key] = val
	return true
}

// Delete removes key; no-op when absent.
func (vm *VMap[kT, vT]) Delete(key kT) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	delete(vm.kv, key)
}

// Range calls f for each entry until f returns false. f must not mutate
// the map.
func (vm *VMap[kT, vT]) Range(f func(key kT, val vT) bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	for k, v := range vm.kv {
		if !f(k, v) {
			return
		}
	}
}

// Len returns the number of entries.
func (vm *VMap[kT, vT]) Len() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return len(vm.kv)
}
