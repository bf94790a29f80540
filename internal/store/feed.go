package store

import "sync"

// feed is the in-process changefeed for one collection. Each subscriber
// owns a capacity-1 signal channel; notifications that arrive while a
// signal is already pending coalesce, since the subscriber re-queries the
// full snapshot anyway.
type feed struct {
	mu   sync.Mutex
	subs map[string]map[uint64]chan struct{}
	next uint64
}

func newFeed() *feed {
	return &feed{subs: make(map[string]map[uint64]chan struct{})}
}

// subscribe registers a signal channel for the given owner and returns it
// with its subscription id.
func (f *feed) subscribe(userID string) (uint64, chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next++
	id := f.next
	ch := make(chan struct{}, 1)

	if f.subs[userID] == nil {
		f.subs[userID] = make(map[uint64]chan struct{})
	}
	f.subs[userID][id] = ch
	return id, ch
}

// unsubscribe removes and closes the subscription. Safe to call twice.
func (f *feed) unsubscribe(userID string, id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	chans, ok := f.subs[userID]
	if !ok {
		return
	}
	ch, ok := chans[id]
	if !ok {
		return
	}
	delete(chans, id)
	if len(chans) == 0 {
		delete(f.subs, userID)
	}
	close(ch)
}

// notify signals every subscriber of the given owner without blocking.
func (f *feed) notify(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
