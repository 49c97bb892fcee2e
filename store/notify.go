package store

import "sync"

// notifier fans mutation events out to registered subscribers. It plays the
// role of the hosted backend's change-notification channel, in-process.
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Event)
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]func(Event))}
}

// subscribe registers fn and returns a function that detaches it. Detaching
// twice is harmless.
func (n *notifier) subscribe(fn func(Event)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	n.subs[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// publish delivers ev to every subscriber. Callbacks run outside the lock so
// a subscriber may unsubscribe from within its own callback.
func (n *notifier) publish(ev Event) {
	n.mu.Lock()
	fns := make([]func(Event), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
