// Package realtime holds the live push registry: a per-recipient directory of
// open push channels, mutated concurrently by subscribing requests and by
// background notification deliveries. It is an injected component with an
// explicit lifecycle, not a process-global.
package realtime

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

const channelBuffer = 16

type subscriber struct {
	ch   chan interface{}
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// Registry maps recipient ids to their single live push channel. At most one
// channel per recipient: a new subscribe replaces any prior one without a
// close handshake. Safe for concurrent Subscribe/Send/Close without external
// locking.
type Registry struct {
	subs sync.Map // recipientID -> *subscriber
}

// NewRegistry creates a new Registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Subscribe opens a push channel for the recipient, replacing any existing
// one. The returned cancel func removes the entry and must run on every exit
// path of the consuming stream — completion, timeout or transport error.
func (r *Registry) Subscribe(recipientID uint) (<-chan interface{}, func()) {
	sub := &subscriber{ch: make(chan interface{}, channelBuffer)}
	if prev, loaded := r.subs.Swap(recipientID, sub); loaded {
		prev.(*subscriber).close()
	}

	cancel := func() {
		r.subs.CompareAndDelete(recipientID, sub)
		sub.close()
	}
	return sub.ch, cancel
}

// Send delivers a payload to the recipient's live channel, if any. Absent
// recipient: silent drop — history stays reachable through the paginated
// fetch. A channel that cannot accept the payload is presumed dead and its
// entry is removed.
func (r *Registry) Send(recipientID uint, payload interface{}) {
	value, ok := r.subs.Load(recipientID)
	if !ok {
		return
	}
	sub := value.(*subscriber)

	defer func() {
		// Send on a channel closed by a concurrent replace; same treatment
		// as a saturated one.
		if recover() != nil {
			r.subs.CompareAndDelete(recipientID, sub)
		}
	}()

	select {
	case sub.ch <- payload:
	default:
		log.WithField("recipient", recipientID).Debug("push channel saturated, dropping connection")
		r.subs.CompareAndDelete(recipientID, sub)
		sub.close()
	}
}

// Close tears down every live channel at shutdown.
func (r *Registry) Close() {
	r.subs.Range(func(key, value interface{}) bool {
		value.(*subscriber).close()
		r.subs.Delete(key)
		return true
	})
}
