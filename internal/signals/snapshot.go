package signals

import (
	"errors"
	"fmt"
)

// Snapshot maps channels to the listener lists they held at capture time.
// It is immutable: accessors and With return copies.
type Snapshot struct {
	order []Name
	lists map[Name][]Listener
}

// With returns a copy of s in which name maps to ls. It is how snapshots
// are built by hand.
func (s Snapshot) With(name Name, ls []Listener) Snapshot {
	out := Snapshot{
		order: make([]Name, 0, len(s.order)+1),
		lists: make(map[Name][]Listener, len(s.lists)+1),
	}
	for _, n := range s.order {
		out.order = append(out.order, n)
		out.lists[n] = s.lists[n]
	}
	if _, ok := out.lists[name]; !ok {
		out.order = append(out.order, name)
	}
	out.lists[name] = append([]Listener{}, ls...)
	return out
}

// Names returns the captured channels in capture order.
func (s Snapshot) Names() []Name { return append([]Name(nil), s.order...) }

// Listeners returns the list captured for name.
func (s Snapshot) Listeners(name Name) ([]Listener, bool) {
	ls, ok := s.lists[name]
	if !ok {
		return nil, false
	}
	return append([]Listener{}, ls...), true
}

// Len is the number of captured channels.
func (s Snapshot) Len() int { return len(s.order) }

// DetachAll empties every channel in set and returns what they held. The
// whole set is detached under one lock so no sender sees a partial state.
// A name listed twice is captured once.
func (r *Registry) DetachAll(set []Name) Snapshot {
	s := Snapshot{
		order: make([]Name, 0, len(set)),
		lists: make(map[Name][]Listener, len(set)),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range set {
		if _, seen := s.lists[name]; seen {
			continue
		}
		c := r.chanLocked(name)
		s.order = append(s.order, name)
		s.lists[name] = c.listeners
		c.listeners = nil
	}
	return s
}

// RestoreAll sets every channel captured in s back to its captured list,
// replacing whatever it holds now. Channels outside s are untouched.
// Channels removed from the registry since capture are skipped and
// reported; the others are restored regardless.
func (r *Registry) RestoreAll(s Snapshot) error {
	var errs []error
	r.mu.Lock()
	for _, name := range s.order {
		c, ok := r.channels[name]
		if !ok {
			errs = append(errs, channelNotFoundError{name: name})
			continue
		}
		c.listeners = append([]Listener(nil), s.lists[name]...)
	}
	log := r.log
	r.mu.Unlock()
	for _, err := range errs {
		log.Warn().Err(err).Msg("restore skipped channel")
	}
	return errors.Join(errs...)
}

// PopReceivers detaches and returns the listeners of a single channel.
func PopReceivers(r *Registry, name Name) []Listener {
	ls, _ := r.DetachAll([]Name{name}).Listeners(name)
	return ls
}

// SetReceivers replaces the listeners of a single channel. Like RestoreAll
// it does not recreate a removed channel; that case returns an error
// matched by IsChannelNotFound.
func SetReceivers(r *Registry, name Name, ls []Listener) error {
	return r.RestoreAll(Snapshot{}.With(name, ls))
}

// Suppress runs fn with every channel in set detached and restores them
// afterwards, also when fn fails or panics.
func Suppress(r *Registry, set []Name, fn func() error) (err error) {
	snap := r.DetachAll(set)
	defer func() {
		if rerr := r.RestoreAll(snap); rerr != nil {
			err = errors.Join(err, fmt.Errorf("restore listeners: %w", rerr))
		}
	}()
	return fn()
}
