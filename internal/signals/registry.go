package signals

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Name identifies a channel.
type Name string

// Args are the named arguments delivered to listeners. Names are a contract
// between senders and listeners; the registry never checks them.
type Args map[string]any

// Receiver is the callable behind a Listener.
type Receiver func(ctx context.Context, sender any, args Args) (any, error)

// Listener is an opaque listener reference. ID is the dispatch uid: a
// channel holds at most one listener per ID.
type Listener struct {
	ID string
	Fn Receiver
}

// Response is what a single listener returned from Send.
type Response struct {
	ListenerID string
	Value      any
	Err        error
}

type channel struct {
	args      []string
	listeners []Listener
}

// Registry holds every channel of a process. The zero value is not usable;
// call NewRegistry.
type Registry struct {
	mu       sync.Mutex
	channels map[Name]*channel
	log      zerolog.Logger
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[Name]*channel), log: zerolog.Nop()}
}

// SetLogger installs a structured logger for delivery and restore diagnostics.
func (r *Registry) SetLogger(l zerolog.Logger) {
	r.mu.Lock()
	r.log = l
	r.mu.Unlock()
}

// chanLocked returns the named channel, creating it if needed. r.mu must be held.
func (r *Registry) chanLocked(name Name) *channel {
	c, ok := r.channels[name]
	if !ok {
		c = &channel{}
		r.channels[name] = c
	}
	return c
}

// Declare records the argument names a channel delivers. Declaring an
// existing channel only replaces its argument list.
func (r *Registry) Declare(name Name, args ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chanLocked(name).args = append([]string(nil), args...)
}

// DeclaredArgs returns the argument names declared for name.
func (r *Registry) DeclaredArgs(name Name) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.channels[name]
	if !ok {
		return nil
	}
	return append([]string(nil), c.args...)
}

// Connect appends l to the channel's listeners. It reports false when a
// listener with the same ID is already connected.
func (r *Registry) Connect(name Name, l Listener) bool {
	if l.Fn == nil {
		panic(fmt.Sprintf("signals: nil receiver for listener %q on %s", l.ID, name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.chanLocked(name)
	for _, have := range c.listeners {
		if have.ID == l.ID {
			return false
		}
	}
	c.listeners = append(c.listeners, l)
	return true
}

// Disconnect removes the listener with the given ID.
func (r *Registry) Disconnect(name Name, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.channels[name]
	if !ok {
		return false
	}
	for i, have := range c.listeners {
		if have.ID == id {
			c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Remove drops a channel and its listeners from the registry.
func (r *Registry) Remove(name Name) {
	r.mu.Lock()
	delete(r.channels, name)
	r.mu.Unlock()
}

// Has reports whether the registry knows name.
func (r *Registry) Has(name Name) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.channels[name]
	return ok
}

// Names returns all known channel names in lexical order.
func (r *Registry) Names() []Name {
	r.mu.Lock()
	out := make([]Name, 0, len(r.channels))
	for n := range r.channels {
		out = append(out, n)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Listeners returns a copy of the channel's current listener list.
func (r *Registry) Listeners(name Name) []Listener {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.channels[name]
	if !ok {
		return nil
	}
	return append([]Listener(nil), c.listeners...)
}

// Send delivers args to every listener of name, in order. A failing or
// panicking listener does not stop delivery; its error is kept in its
// Response.
func (r *Registry) Send(ctx context.Context, name Name, sender any, args Args) []Response {
	r.mu.Lock()
	var ls []Listener
	if c, ok := r.channels[name]; ok {
		ls = append(ls, c.listeners...)
	}
	log := r.log
	r.mu.Unlock()

	if len(ls) == 0 {
		return nil
	}
	out := make([]Response, 0, len(ls))
	for _, l := range ls {
		v, err := call(ctx, l, sender, args)
		if err != nil {
			log.Error().Str("signal", string(name)).Str("listener", l.ID).Err(err).Msg("listener failed")
		}
		out = append(out, Response{ListenerID: l.ID, Value: v, Err: err})
	}
	return out
}

func call(ctx context.Context, l Listener, sender any, args Args) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("listener %s panicked: %v", l.ID, p)
		}
	}()
	return l.Fn(ctx, sender, args)
}

// Errors returns the non-nil listener errors of a Send, joined.
func Errors(rs []Response) error {
	var errs []error
	for _, r := range rs {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}
