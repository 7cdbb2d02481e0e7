package k8s

import "sync"

// lazyValue caches the first successful result of an init function.
// Failed initializations are not cached, so the next Get retries.
type lazyValue[T any] struct {
	mu    sync.RWMutex
	value T
	set   bool
}

// Get returns the cached value or builds it with initFn. Concurrent callers
// share one successful initialization.
func (l *lazyValue[T]) Get(initFn func() (T, error)) (T, error) {
	l.mu.RLock()
	v, ok := l.value, l.set
	l.mu.RUnlock()
	if ok {
		return v, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.set {
		return l.value, nil
	}

	v, err := initFn()
	if err != nil {
		var zero T
		return zero, err
	}
	l.value, l.set = v, true
	return v, nil
}
