package identity

import "sync"

// listeners is a set of session-change callbacks shared by the providers.
type listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(SessionEvent)
}

func (l *listeners) add(fn func(SessionEvent)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[int]func(SessionEvent))
	}
	id := l.next
	l.next++
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.fns, id)
		})
	}
}

// emit calls every listener outside the lock so callbacks may unsubscribe.
func (l *listeners) emit(event SessionEvent) {
	l.mu.Lock()
	fns := make([]func(SessionEvent), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}
