package selection

// EventKind identifies the kind of mask mutation that occurred. The
// LastChange accessor is the source of truth for exactly which voxels
// changed; the event only tells a renderer that a redraw is due.
type EventKind int

const (
	// KindSelection is a block-level selection edit.
	KindSelection EventKind = iota

	// KindCleared is a Clear of the whole mask or a region.
	KindCleared
)

// Event is delivered to subscribers after every successful mutating
// operation.
type Event struct {
	Kind EventKind
}

// Token identifies a subscriber for Unsubscribe and Silence.
type Token int

type subscriber struct {
	tok   Token
	fn    func(Event)
	muted int
}

// Subscribe registers a callback invoked synchronously after every mutating
// operation, in subscription order.
func (m *Mask) Subscribe(fn func(Event)) Token {
	m.nextTok++
	m.subs = append(m.subs, &subscriber{tok: m.nextTok, fn: fn})
	return m.nextTok
}

// Unsubscribe removes a subscriber. Unknown tokens are ignored.
func (m *Mask) Unsubscribe(tok Token) {
	for i, s := range m.subs {
		if s.tok == tok {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return
		}
	}
}

// Silence suppresses notifications to a single subscriber until the
// returned restore function runs. Guards nest, and each restore releases
// its own acquisition exactly once; callers should defer the restore so
// the subscriber is re-enabled on every exit path, including panics.
func (m *Mask) Silence(tok Token) (restore func()) {
	s := m.find(tok)
	if s == nil {
		return func() {}
	}
	s.muted++
	released := false
	return func() {
		if released {
			return
		}
		released = true
		if s := m.find(tok); s != nil && s.muted > 0 {
			s.muted--
		}
	}
}

func (m *Mask) find(tok Token) *subscriber {
	for _, s := range m.subs {
		if s.tok == tok {
			return s
		}
	}
	return nil
}

func (m *Mask) notify(ev Event) {
	for _, s := range m.subs {
		if s.muted == 0 {
			s.fn(ev)
		}
	}
}
